package analysis

import (
	"time"

	"go-wages/internal/wage"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PercentileRanks is the fixed ladder stored on every summary.
var PercentileRanks = []int{10, 25, 50, 75, 90, 95, 99}

type PercentilePoint struct {
	Rank  int             `json:"rank"`
	Value decimal.Decimal `json:"value"`
}

type WageSummary struct {
	ID               int64                                 `gorm:"primaryKey;autoIncrement"`
	Location         string                                `gorm:"size:50;not null;uniqueIndex:uq_wage_summary_partition,priority:1"`
	Year             int                                   `gorm:"not null;uniqueIndex:uq_wage_summary_partition,priority:2"`
	EmployeeCount    int                                   `gorm:"not null"`
	TotalGrossPay    decimal.Decimal                       `gorm:"type:decimal(16,2);not null"`
	AvgGrossPay      decimal.Decimal                       `gorm:"type:decimal(14,2);not null"`
	MedianPay        decimal.Decimal                       `gorm:"type:decimal(14,2);not null"`
	StdDev           decimal.Decimal                       `gorm:"type:decimal(14,2);not null"`
	MinPay           decimal.Decimal                       `gorm:"type:decimal(14,2);not null"`
	MaxPay           decimal.Decimal                       `gorm:"type:decimal(14,2);not null"`
	Percentiles      datatypes.JSONType[[]PercentilePoint] `gorm:"type:jsonb"`
	TotalBasePay     decimal.Decimal                       `gorm:"type:decimal(16,2);not null"`
	TotalOvertimePay decimal.Decimal                       `gorm:"type:decimal(16,2);not null"`
	TotalAdjustPay   decimal.Decimal                       `gorm:"type:decimal(16,2);not null"`
	AvgBasePay       decimal.Decimal                       `gorm:"type:decimal(14,2);not null"`
	AvgOvertimePay   decimal.Decimal                       `gorm:"type:decimal(14,2);not null"`
	AvgAdjustPay     decimal.Decimal                       `gorm:"type:decimal(14,2);not null"`
	Gini             float64                               `gorm:"not null"`
	Skewness         float64                               `gorm:"not null"`
	Kurtosis         float64                               `gorm:"not null"`
	GeneratedAt      time.Time                             `gorm:"not null"`
}

func (WageSummary) TableName() string {
	return "wage_summaries"
}

type TitleCount struct {
	Title  string          `json:"title"`
	Count  int             `json:"count"`
	AvgPay decimal.Decimal `json:"avg_pay"`
}

// Bracket is one pay band. Max is nil for the open-ended top band.
type Bracket struct {
	Range      string           `json:"range"`
	Min        decimal.Decimal  `json:"min"`
	Max        *decimal.Decimal `json:"max"`
	Count      int              `json:"count"`
	Percentage float64          `json:"percentage"`
	TotalPay   decimal.Decimal  `json:"total_pay"`
	AvgPay     decimal.Decimal  `json:"avg_pay"`
	MedianPay  decimal.Decimal  `json:"median_pay"`
	TopTitles  []TitleCount     `json:"top_titles"`
}

type WagePyramid struct {
	ID             int64                         `gorm:"primaryKey;autoIncrement"`
	Location       string                        `gorm:"size:50;not null;uniqueIndex:uq_wage_pyramid_partition,priority:1"`
	Year           int                           `gorm:"not null;uniqueIndex:uq_wage_pyramid_partition,priority:2"`
	TotalEmployees int                           `gorm:"not null"`
	TotalPay       decimal.Decimal               `gorm:"type:decimal(16,2);not null"`
	Brackets       datatypes.JSONType[[]Bracket] `gorm:"type:jsonb"`
	GeneratedAt    time.Time                     `gorm:"not null"`
}

func (WagePyramid) TableName() string {
	return "wage_pyramids"
}

type TitleStats struct {
	Title     string          `json:"title"`
	Category  string          `json:"category"`
	Count     int             `json:"count"`
	AvgPay    decimal.Decimal `json:"avg_pay"`
	MedianPay decimal.Decimal `json:"median_pay"`
	MinPay    decimal.Decimal `json:"min_pay"`
	MaxPay    decimal.Decimal `json:"max_pay"`
	StdDev    decimal.Decimal `json:"std_dev"`
	TotalPay  decimal.Decimal `json:"total_pay"`
}

type CategoryStats struct {
	Category string          `json:"category"`
	Count    int             `json:"count"`
	AvgPay   decimal.Decimal `json:"avg_pay"`
}

type TitleAnalysis struct {
	ID           int64                               `gorm:"primaryKey;autoIncrement"`
	Location     string                              `gorm:"size:50;not null;uniqueIndex:uq_title_analysis_partition,priority:1"`
	Year         int                                 `gorm:"not null;uniqueIndex:uq_title_analysis_partition,priority:2"`
	UniqueTitles int                                 `gorm:"not null"`
	TopN         int                                 `gorm:"column:top_n;not null"`
	TopTitles    datatypes.JSONType[[]TitleStats]    `gorm:"type:jsonb"`
	Categories   datatypes.JSONType[[]CategoryStats] `gorm:"type:jsonb"`
	GeneratedAt  time.Time                           `gorm:"not null"`
}

func (TitleAnalysis) TableName() string {
	return "title_analysis"
}

// Artifacts is the unit written per partition: all three or none.
type Artifacts struct {
	Partition wage.Partition
	Summary   WageSummary
	Pyramid   WagePyramid
	Titles    TitleAnalysis
}

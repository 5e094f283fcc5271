package analysis

import (
	"time"

	"github.com/shopspring/decimal"
)

type PartitionURI struct {
	Location string `uri:"location" binding:"required,max=50"`
	Year     int    `uri:"year" binding:"required,gt=0"`
}

type ListSummariesRequest struct {
	Location string `form:"location" binding:"omitempty,max=50"`
	Year     int    `form:"year" binding:"omitempty,gt=0"`
}

type SummaryResponse struct {
	Location         string            `json:"location"`
	Year             int               `json:"year"`
	EmployeeCount    int               `json:"employee_count"`
	TotalGrossPay    decimal.Decimal   `json:"total_gross_pay"`
	AvgGrossPay      decimal.Decimal   `json:"avg_gross_pay"`
	MedianPay        decimal.Decimal   `json:"median_pay"`
	StdDev           decimal.Decimal   `json:"std_dev"`
	MinPay           decimal.Decimal   `json:"min_pay"`
	MaxPay           decimal.Decimal   `json:"max_pay"`
	Percentiles      []PercentilePoint `json:"percentiles"`
	TotalBasePay     decimal.Decimal   `json:"total_base_pay"`
	TotalOvertimePay decimal.Decimal   `json:"total_overtime_pay"`
	TotalAdjustPay   decimal.Decimal   `json:"total_adjust_pay"`
	AvgBasePay       decimal.Decimal   `json:"avg_base_pay"`
	AvgOvertimePay   decimal.Decimal   `json:"avg_overtime_pay"`
	AvgAdjustPay     decimal.Decimal   `json:"avg_adjust_pay"`
	Gini             float64           `json:"gini"`
	Skewness         float64           `json:"skewness"`
	Kurtosis         float64           `json:"kurtosis"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

type PyramidResponse struct {
	Location       string          `json:"location"`
	Year           int             `json:"year"`
	TotalEmployees int             `json:"total_employees"`
	TotalPay       decimal.Decimal `json:"total_pay"`
	Brackets       []Bracket       `json:"brackets"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

type TitleAnalysisResponse struct {
	Location     string          `json:"location"`
	Year         int             `json:"year"`
	UniqueTitles int             `json:"unique_titles"`
	TopN         int             `json:"top_n"`
	TopTitles    []TitleStats    `json:"top_titles"`
	Categories   []CategoryStats `json:"categories"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

type RegenerateResponse struct {
	Summary SummaryResponse       `json:"summary"`
	Pyramid PyramidResponse       `json:"pyramid"`
	Titles  TitleAnalysisResponse `json:"titles"`
}

func mapSummary(s WageSummary) SummaryResponse {
	return SummaryResponse{
		Location:         s.Location,
		Year:             s.Year,
		EmployeeCount:    s.EmployeeCount,
		TotalGrossPay:    s.TotalGrossPay,
		AvgGrossPay:      s.AvgGrossPay,
		MedianPay:        s.MedianPay,
		StdDev:           s.StdDev,
		MinPay:           s.MinPay,
		MaxPay:           s.MaxPay,
		Percentiles:      s.Percentiles.Data(),
		TotalBasePay:     s.TotalBasePay,
		TotalOvertimePay: s.TotalOvertimePay,
		TotalAdjustPay:   s.TotalAdjustPay,
		AvgBasePay:       s.AvgBasePay,
		AvgOvertimePay:   s.AvgOvertimePay,
		AvgAdjustPay:     s.AvgAdjustPay,
		Gini:             s.Gini,
		Skewness:         s.Skewness,
		Kurtosis:         s.Kurtosis,
		GeneratedAt:      s.GeneratedAt,
	}
}

func mapPyramid(p WagePyramid) PyramidResponse {
	return PyramidResponse{
		Location:       p.Location,
		Year:           p.Year,
		TotalEmployees: p.TotalEmployees,
		TotalPay:       p.TotalPay,
		Brackets:       p.Brackets.Data(),
		GeneratedAt:    p.GeneratedAt,
	}
}

func mapTitles(t TitleAnalysis) TitleAnalysisResponse {
	return TitleAnalysisResponse{
		Location:     t.Location,
		Year:         t.Year,
		UniqueTitles: t.UniqueTitles,
		TopN:         t.TopN,
		TopTitles:    t.TopTitles.Data(),
		Categories:   t.Categories.Data(),
		GeneratedAt:  t.GeneratedAt,
	}
}

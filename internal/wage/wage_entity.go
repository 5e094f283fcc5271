package wage

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Partition is the (location, year) key every ledger row and artifact hangs off.
type Partition struct {
	Location string `json:"location"`
	Year     int    `json:"year"`
}

func (p Partition) String() string {
	return fmt.Sprintf("%s/%d", p.Location, p.Year)
}

func (p Partition) Valid() bool {
	return p.Location != "" && p.Year > 0
}

// WageRecord is one employee's compensation for one partition. EmployeeID is
// nil for anonymized sources; such rows never collide on the unique key.
type WageRecord struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	Location    string          `gorm:"size:50;not null;uniqueIndex:uq_wage_partition_employee,priority:1;index:idx_wage_partition,priority:1"`
	Year        int             `gorm:"not null;uniqueIndex:uq_wage_partition_employee,priority:2;index:idx_wage_partition,priority:2"`
	EmployeeID  *int64          `gorm:"column:employee_id;uniqueIndex:uq_wage_partition_employee,priority:3"`
	FirstName   string          `gorm:"column:firstname;size:100"`
	LastName    string          `gorm:"column:lastname;size:100"`
	Title       string          `gorm:"size:200;index:idx_wage_title"`
	BasePay     decimal.Decimal `gorm:"column:basepay;type:decimal(12,2);not null"`
	OvertimePay decimal.Decimal `gorm:"column:overtimepay;type:decimal(12,2);not null"`
	AdjustPay   decimal.Decimal `gorm:"column:adjustpay;type:decimal(12,2);not null"`
	GrossPay    decimal.Decimal `gorm:"column:grosspay;type:decimal(12,2);not null;index:idx_wage_grosspay"`
	ScrapedAt   time.Time       `gorm:"column:scraped_at"`
	UploadedAt  time.Time       `gorm:"column:uploaded_at"`
}

func (WageRecord) TableName() string {
	return "uc_wages"
}

func (r WageRecord) Partition() Partition {
	return Partition{Location: r.Location, Year: r.Year}
}

// FullName joins first and last name the way search matches it.
func (r WageRecord) FullName() string {
	switch {
	case r.FirstName == "":
		return r.LastName
	case r.LastName == "":
		return r.FirstName
	default:
		return r.FirstName + " " + r.LastName
	}
}

// PartitionAggregate is one row of the unaggregated read path
// (SUM/AVG/COUNT/MIN/MAX grouped by partition).
type PartitionAggregate struct {
	Location      string
	Year          int
	EmployeeCount int64
	TotalGross    decimal.Decimal
	AverageGross  decimal.Decimal
	MaxGross      decimal.Decimal
	MinGross      decimal.Decimal
}

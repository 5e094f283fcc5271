package wage

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

type SearchRequest struct {
	Name     string `form:"name"`
	Title    string `form:"title"`
	Location string `form:"location"`
	Year     int    `form:"year" binding:"omitempty,gte=1900,lte=2100"`
	Page     int    `form:"page" binding:"omitempty,gte=1"`
	PageSize int    `form:"page_size" binding:"omitempty,gte=1"`
}

// Normalize fills defaults and clamps the page size.
func (r SearchRequest) Normalize() SearchRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
	return r
}

type AggregateRequest struct {
	Location string `form:"location"`
	Year     int    `form:"year" binding:"omitempty,gte=1900,lte=2100"`
}

type WageResponse struct {
	ID          int64           `json:"id"`
	Location    string          `json:"location"`
	Year        int             `json:"year"`
	EmployeeID  *int64          `json:"employee_id"`
	FirstName   string          `json:"firstname"`
	LastName    string          `json:"lastname"`
	Title       string          `json:"title"`
	BasePay     decimal.Decimal `json:"basepay"`
	OvertimePay decimal.Decimal `json:"overtimepay"`
	AdjustPay   decimal.Decimal `json:"adjustpay"`
	GrossPay    decimal.Decimal `json:"grosspay"`
	ScrapedAt   time.Time       `json:"scraped_at"`
}

type SearchResult struct {
	Items    []WageResponse
	Total    int64
	Page     int
	PageSize int
}

type PartitionAggregateResponse struct {
	Location      string          `json:"location"`
	Year          int             `json:"year"`
	EmployeeCount int64           `json:"employee_count"`
	TotalGross    decimal.Decimal `json:"total_gross"`
	AverageGross  decimal.Decimal `json:"average_gross"`
	MaxGross      decimal.Decimal `json:"max_gross"`
	MinGross      decimal.Decimal `json:"min_gross"`
}

type FilterOptionsResponse struct {
	Locations []string `json:"locations"`
	Years     []int    `json:"years"`
}

package wage

import (
	"gorm.io/gorm/clause"
)

// MutableColumns are the columns an incoming record may replace on a key match.
var MutableColumns = []string{
	"firstname",
	"lastname",
	"title",
	"basepay",
	"overtimepay",
	"adjustpay",
	"grosspay",
	"scraped_at",
	"uploaded_at",
}

// MergePolicy describes how an incoming record is folded into the stored one
// sharing its (location, year, employee_id) key. The same column list drives
// both the SQL upsert and the in-process merge so the two cannot drift.
type MergePolicy struct {
	Columns []string
}

// LastWriteWins overwrites every mutable field with the incoming value.
var LastWriteWins = MergePolicy{Columns: MutableColumns}

// Apply returns existing with the policy's columns taken from incoming.
func (p MergePolicy) Apply(existing, incoming WageRecord) WageRecord {
	merged := existing
	for _, col := range p.Columns {
		switch col {
		case "firstname":
			merged.FirstName = incoming.FirstName
		case "lastname":
			merged.LastName = incoming.LastName
		case "title":
			merged.Title = incoming.Title
		case "basepay":
			merged.BasePay = incoming.BasePay
		case "overtimepay":
			merged.OvertimePay = incoming.OvertimePay
		case "adjustpay":
			merged.AdjustPay = incoming.AdjustPay
		case "grosspay":
			merged.GrossPay = incoming.GrossPay
		case "scraped_at":
			merged.ScrapedAt = incoming.ScrapedAt
		case "uploaded_at":
			merged.UploadedAt = incoming.UploadedAt
		}
	}
	return merged
}

// OnConflict is the SQL form of the policy.
func (p MergePolicy) OnConflict() clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{
			{Name: "location"},
			{Name: "year"},
			{Name: "employee_id"},
		},
		DoUpdates: clause.AssignmentColumns(p.Columns),
	}
}

type recordKey struct {
	location   string
	year       int
	employeeID int64
}

// Collapse folds records sharing a key into one, in input order, so a single
// INSERT never touches the same row twice. Anonymized records pass through.
func (p MergePolicy) Collapse(records []WageRecord) []WageRecord {
	out := make([]WageRecord, 0, len(records))
	seen := make(map[recordKey]int, len(records))

	for _, rec := range records {
		if rec.EmployeeID == nil {
			out = append(out, rec)
			continue
		}

		key := recordKey{location: rec.Location, year: rec.Year, employeeID: *rec.EmployeeID}
		if idx, ok := seen[key]; ok {
			out[idx] = p.Apply(out[idx], rec)
			continue
		}

		seen[key] = len(out)
		out = append(out, rec)
	}

	return out
}

package wagefile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"maps"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go-wages/internal/wage"
	wagefileerrors "go-wages/internal/wagefile/errors"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

// Field names counted in a Coercions report.
const (
	FieldEmployeeID  = "employee_id"
	FieldBasePay     = "basepay"
	FieldOvertimePay = "overtimepay"
	FieldAdjustPay   = "adjustpay"
	FieldGrossPay    = "grosspay"
	FieldYear        = "year"
	FieldScrapedAt   = "scraped_at"
	FieldLocation    = "location"
	FieldFirstName   = "firstname"
	FieldLastName    = "lastname"
	FieldTitle       = "title"
)

// Column widths of the wage store; longer text is clipped.
const (
	MaxLocationLen = 50
	MaxNameLen     = 100
	MaxTitleLen    = 200
)

// Coercions counts fields that were present but unusable and fell back to
// their default, or were clipped to the store's column width.
type Coercions map[string]int

func (c Coercions) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

type options struct {
	location string
	year     int
	now      func() time.Time
}

type Option func(*options)

// WithDefaultPartition supplies location/year for payloads that omit them.
// Values present in the payload win.
func WithDefaultPartition(location string, year int) Option {
	return func(o *options) {
		o.location = location
		o.year = year
	}
}

// WithClock overrides the time used for records without scraped_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Payload is one parsed wage file. Structure is validated up front; the
// records themselves are normalized lazily as Records is ranged over.
type Payload struct {
	Location  string
	Year      int
	ScrapedAt time.Time

	records   []json.RawMessage
	header    Coercions
	coercions Coercions
}

func (p *Payload) Partition() wage.Partition {
	return wage.Partition{Location: p.Location, Year: p.Year}
}

func (p *Payload) Len() int {
	return len(p.records)
}

// Coercions reports payload-level defaults plus those applied by the most
// recent Records pass.
func (p *Payload) Coercions() Coercions {
	return p.coercions
}

type rawPayload struct {
	Location  json.RawMessage  `json:"location"`
	Year      json.RawMessage  `json:"year"`
	ScrapedAt json.RawMessage  `json:"scraped_at"`
	Records   *json.RawMessage `json:"records"`
}

func ParseReader(r io.Reader, opts ...Option) (*Payload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, wagefileerrors.ErrMalformedPayload.WithCause(err)
	}
	return Parse(data, opts...)
}

// Parse validates the document shape and partition metadata. Any failure is
// returned as ErrMalformedPayload or ErrMissingPartition and nothing from the
// payload is usable.
func Parse(data []byte, opts ...Option) (*Payload, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	var raw rawPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, wagefileerrors.ErrMalformedPayload.WithCause(err)
	}
	if raw.Records == nil || isNull(*raw.Records) {
		return nil, wagefileerrors.ErrMalformedPayload.WithCause(fmt.Errorf("records is missing"))
	}

	var records []json.RawMessage
	if err := json.Unmarshal(*raw.Records, &records); err != nil {
		return nil, wagefileerrors.ErrMalformedPayload.WithCause(fmt.Errorf("records is not an array: %w", err))
	}
	for i, rec := range records {
		if trimmed := bytes.TrimSpace(rec); len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, wagefileerrors.ErrMalformedPayload.WithCause(fmt.Errorf("record %d is not an object", i))
		}
	}

	p := &Payload{
		Location:  o.location,
		Year:      o.year,
		records:   records,
		header:    Coercions{},
	}

	if loc, ok := stringValue(raw.Location); ok && loc != "" {
		p.Location = loc
	}
	p.Location = clip(p.Location, MaxLocationLen, p.header, FieldLocation)
	if year, ok := intValue(raw.Year); ok {
		p.Year = int(year)
	}
	if p.Location == "" || p.Year <= 0 {
		return nil, wagefileerrors.ErrMissingPartition
	}

	p.ScrapedAt = o.now().UTC()
	if ts, ok := timeValue(raw.ScrapedAt); ok {
		p.ScrapedAt = ts
	} else if !isAbsent(raw.ScrapedAt) {
		p.header[FieldScrapedAt]++
	}
	p.coercions = maps.Clone(p.header)

	return p, nil
}

// Records yields one normalized WageRecord per payload entry, in file order.
// Each pass restarts the per-record coercion counts.
func (p *Payload) Records() iter.Seq[wage.WageRecord] {
	return func(yield func(wage.WageRecord) bool) {
		p.coercions = maps.Clone(p.header)
		for _, raw := range p.records {
			if !yield(p.normalize(raw)) {
				return
			}
		}
	}
}

func (p *Payload) normalize(raw json.RawMessage) wage.WageRecord {
	var fields map[string]json.RawMessage
	// Shape was checked in Parse; a failure here leaves fields empty and the
	// record falls back to defaults.
	_ = json.Unmarshal(raw, &fields)

	rec := wage.WageRecord{
		Location:  p.Location,
		Year:      p.Year,
		ScrapedAt: p.ScrapedAt,
	}

	if loc, ok := stringValue(fields["location"]); ok && loc != "" {
		rec.Location = clip(loc, MaxLocationLen, p.coercions, FieldLocation)
	}
	if v := fields["year"]; !isAbsent(v) {
		if year, ok := intValue(v); ok && year > 0 {
			rec.Year = int(year)
		} else {
			p.coercions[FieldYear]++
		}
	}

	idRaw := fields["employee_id"]
	if isAbsent(idRaw) {
		idRaw = fields["id"]
	}
	if !isAbsent(idRaw) {
		if id, ok := intValue(idRaw); ok {
			rec.EmployeeID = &id
		} else {
			p.coercions[FieldEmployeeID]++
		}
	}

	rec.FirstName = p.text(fields, FieldFirstName, MaxNameLen)
	rec.LastName = p.text(fields, FieldLastName, MaxNameLen)
	rec.Title = p.text(fields, FieldTitle, MaxTitleLen)

	rec.BasePay = p.amount(fields, FieldBasePay)
	rec.OvertimePay = p.amount(fields, FieldOvertimePay)
	rec.AdjustPay = p.amount(fields, FieldAdjustPay)
	rec.GrossPay = p.amount(fields, FieldGrossPay)

	if v := fields["scraped_at"]; !isAbsent(v) {
		if ts, ok := timeValue(v); ok {
			rec.ScrapedAt = ts
		} else {
			p.coercions[FieldScrapedAt]++
		}
	}

	return rec
}

func (p *Payload) amount(fields map[string]json.RawMessage, name string) decimal.Decimal {
	v := fields[name]
	if isAbsent(v) {
		return decimal.Zero
	}

	text, ok := stringValue(v)
	if ok {
		if amount, ok := ParseAmount(text); ok {
			return amount
		}
	}

	// Blank strings are treated as absent rather than malformed.
	if ok && strings.TrimSpace(text) == "" {
		return decimal.Zero
	}
	p.coercions[name]++
	return decimal.Zero
}

func (p *Payload) text(fields map[string]json.RawMessage, name string, width int) string {
	s, _ := stringValue(fields[name])
	return clip(s, width, p.coercions, name)
}

// clip cuts s to at most width runes, counting the cut under name.
func clip(s string, width int, c Coercions, name string) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	c[name]++
	return strings.TrimSpace(string([]rune(s)[:width]))
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func isAbsent(v json.RawMessage) bool {
	return len(v) == 0 || isNull(v)
}

// stringValue renders strings and numbers as text; other JSON kinds are
// reported as not ok.
func stringValue(v json.RawMessage) (string, bool) {
	if isAbsent(v) {
		return "", false
	}

	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s), true
	}

	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String(), true
	}

	return "", false
}

// intValue accepts integers, integral floats and numeric strings.
func intValue(v json.RawMessage) (int64, bool) {
	text, ok := stringValue(v)
	if !ok || text == "" {
		return 0, false
	}

	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, true
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(text, ",", ""))
	if err != nil || !d.IsInteger() {
		return 0, false
	}
	return d.IntPart(), true
}

func timeValue(v json.RawMessage) (time.Time, bool) {
	text, ok := stringValue(v)
	if !ok || text == "" {
		return time.Time{}, false
	}

	if ts, err := time.Parse(time.RFC3339, text); err == nil {
		return ts.UTC(), true
	}
	ts, err := dateparse.ParseIn(text, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}

package analysis

import (
	"math"
	"slices"
	"strings"
	"time"

	"go-wages/internal/wage"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	DefaultTopTitles = 20
	bracketTopTitles = 5

	// redactedTitle is how scraped sources blank out a title.
	redactedTitle = "*****"
)

type bracketDef struct {
	label string
	min   int64
	max   int64 // 0 means open-ended
}

var bracketDefs = []bracketDef{
	{"0-25k", 0, 25_000},
	{"25k-50k", 25_000, 50_000},
	{"50k-75k", 50_000, 75_000},
	{"75k-100k", 75_000, 100_000},
	{"100k-150k", 100_000, 150_000},
	{"150k-200k", 150_000, 200_000},
	{"200k-300k", 200_000, 300_000},
	{"300k-500k", 300_000, 500_000},
	{"500k-1M", 500_000, 1_000_000},
	{"1M+", 1_000_000, 0},
}

type categoryDef struct {
	name     string
	keywords []string
}

// Checked in order; the first match wins.
var categoryDefs = []categoryDef{
	{"Academic", []string{"PROF", "LECTURER", "INSTRUCTOR", "TEACHER", "DEAN", "CHAIR", "RESEARCHER", "POST DOC", "POSTDOC", "STUDENT"}},
	{"Medical", []string{"PHYSICIAN", "NURSE", "DOCTOR", "SURGEON", "MEDICAL", "CLINICAL", "THERAPIST", "PHARMAC", "HEALTH"}},
	{"Executive", []string{"PRESIDENT", "VP ", "CHIEF", "CEO", "CFO", "CTO", "DIRECTOR", "EXECUTIVE"}},
	{"IT/Technical", []string{"PROGRAMMER", "DEVELOPER", "ENGINEER", "ANALYST", "DATA", "IT ", "SOFTWARE", "SYSTEM", "NETWORK"}},
	{"Administrative", []string{"ADMIN", "ASSISTANT", "COORDINATOR", "MANAGER", "CLERK", "SECRETARY", "RECEPTIONIST", "OFFICE"}},
	{"Facilities", []string{"CUSTODIAN", "MAINTENANCE", "GROUNDS", "FACILITIES", "SECURITY", "POLICE", "PARKING", "UTILITY"}},
}

const CategoryOther = "Other"

// CategorizeTitle buckets a job title by keyword.
func CategorizeTitle(title string) string {
	upper := strings.ToUpper(title)
	for _, c := range categoryDefs {
		for _, kw := range c.keywords {
			if strings.Contains(upper, kw) {
				return c.name
			}
		}
	}
	return CategoryOther
}

// Compute derives all three artifacts for one partition from its full record
// set. It never fails; an empty set yields zero-valued artifacts.
func Compute(p wage.Partition, records []wage.WageRecord, topN int, now time.Time) Artifacts {
	return Artifacts{
		Partition: p,
		Summary:   Summarize(p, records, now),
		Pyramid:   BuildPyramid(p, records, now),
		Titles:    AnalyzeTitles(p, records, topN, now),
	}
}

func Summarize(p wage.Partition, records []wage.WageRecord, now time.Time) WageSummary {
	s := WageSummary{
		Location:    p.Location,
		Year:        p.Year,
		GeneratedAt: now,
	}
	n := len(records)
	if n == 0 {
		return s
	}

	gross := make([]float64, 0, n)
	var totalGross, totalBase, totalOvertime, totalAdjust decimal.Decimal
	for _, r := range records {
		gross = append(gross, r.GrossPay.InexactFloat64())
		totalGross = totalGross.Add(r.GrossPay)
		totalBase = totalBase.Add(r.BasePay)
		totalOvertime = totalOvertime.Add(r.OvertimePay)
		totalAdjust = totalAdjust.Add(r.AdjustPay)
	}
	slices.Sort(gross)

	count := decimal.NewFromInt(int64(n))
	median, _ := stats.Median(gross)
	stdDev, _ := stats.StandardDeviationPopulation(gross)

	s.EmployeeCount = n
	s.TotalGrossPay = totalGross
	s.AvgGrossPay = totalGross.Div(count).Round(2)
	s.MedianPay = money(median)
	s.StdDev = money(stdDev)
	s.MinPay = money(gross[0])
	s.MaxPay = money(gross[n-1])
	s.Percentiles = datatypes.NewJSONType(percentileLadder(gross))
	s.TotalBasePay = totalBase
	s.TotalOvertimePay = totalOvertime
	s.TotalAdjustPay = totalAdjust
	s.AvgBasePay = totalBase.Div(count).Round(2)
	s.AvgOvertimePay = totalOvertime.Div(count).Round(2)
	s.AvgAdjustPay = totalAdjust.Div(count).Round(2)
	s.Gini = round4(gini(gross))
	s.Skewness = round4(skewness(gross))
	s.Kurtosis = round4(kurtosis(gross))
	return s
}

// Percentile interpolates linearly between order statistics of sorted at
// rank p/100*(n-1).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case n == 1 || p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[n-1]
	}

	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func percentileLadder(sorted []float64) []PercentilePoint {
	out := make([]PercentilePoint, 0, len(PercentileRanks))
	for _, rank := range PercentileRanks {
		out = append(out, PercentilePoint{Rank: rank, Value: money(Percentile(sorted, float64(rank)))})
	}
	return out
}

func gini(sorted []float64) float64 {
	n := float64(len(sorted))
	var weighted, total float64
	for i, v := range sorted {
		weighted += (2*float64(i+1) - n - 1) * v
		total += v
	}
	if n == 0 || total == 0 {
		return 0
	}
	return weighted / (n * total)
}

// skewness is the adjusted Fisher-Pearson coefficient.
func skewness(values []float64) float64 {
	n := float64(len(values))
	if n < 3 {
		return 0
	}
	mean, _ := stats.Mean(values)
	sd, _ := stats.StandardDeviationPopulation(values)
	if sd == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += math.Pow((v-mean)/sd, 3)
	}
	return n / ((n - 1) * (n - 2)) * sum
}

// kurtosis is sample excess kurtosis.
func kurtosis(values []float64) float64 {
	n := float64(len(values))
	if n < 4 {
		return 0
	}
	mean, _ := stats.Mean(values)
	sd, _ := stats.StandardDeviationPopulation(values)
	if sd == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += math.Pow((v-mean)/sd, 4)
	}
	return n*(n+1)/((n-1)*(n-2)*(n-3))*sum - 3*(n-1)*(n-1)/((n-2)*(n-3))
}

// BuildPyramid places every record in exactly one band, lower <= gross <
// upper, and emits the non-empty bands in ascending order.
func BuildPyramid(p wage.Partition, records []wage.WageRecord, now time.Time) WagePyramid {
	type band struct {
		pays   []decimal.Decimal
		titles map[string][]decimal.Decimal
	}
	bands := make([]band, len(bracketDefs))

	var total decimal.Decimal
	for _, r := range records {
		total = total.Add(r.GrossPay)
		i := bracketIndex(r.GrossPay)
		bands[i].pays = append(bands[i].pays, r.GrossPay)
		if t, ok := titleOf(r); ok {
			if bands[i].titles == nil {
				bands[i].titles = map[string][]decimal.Decimal{}
			}
			bands[i].titles[t] = append(bands[i].titles[t], r.GrossPay)
		}
	}

	brackets := make([]Bracket, 0, len(bracketDefs))
	for i, def := range bracketDefs {
		b := bands[i]
		if len(b.pays) == 0 {
			continue
		}
		bracketTotal := sumDecimals(b.pays)
		floats := toSortedFloats(b.pays)
		median, _ := stats.Median(floats)

		br := Bracket{
			Range:      def.label,
			Min:        decimal.NewFromInt(def.min),
			Count:      len(b.pays),
			Percentage: math.Round(float64(len(b.pays))/float64(len(records))*10000) / 100,
			TotalPay:   bracketTotal,
			AvgPay:     bracketTotal.Div(decimal.NewFromInt(int64(len(b.pays)))).Round(2),
			MedianPay:  money(median),
			TopTitles:  topTitleCounts(b.titles, bracketTopTitles),
		}
		if def.max > 0 {
			m := decimal.NewFromInt(def.max)
			br.Max = &m
		}
		brackets = append(brackets, br)
	}

	return WagePyramid{
		Location:       p.Location,
		Year:           p.Year,
		TotalEmployees: len(records),
		TotalPay:       total,
		Brackets:       datatypes.NewJSONType(brackets),
		GeneratedAt:    now,
	}
}

func bracketIndex(gross decimal.Decimal) int {
	for i, def := range bracketDefs {
		if def.max == 0 || gross.LessThan(decimal.NewFromInt(def.max)) {
			return i
		}
	}
	return len(bracketDefs) - 1
}

// AnalyzeTitles groups by exact title and ranks by count descending, then
// title ascending.
func AnalyzeTitles(p wage.Partition, records []wage.WageRecord, topN int, now time.Time) TitleAnalysis {
	if topN <= 0 {
		topN = DefaultTopTitles
	}

	byTitle := map[string][]decimal.Decimal{}
	for _, r := range records {
		if t, ok := titleOf(r); ok {
			byTitle[t] = append(byTitle[t], r.GrossPay)
		}
	}

	ranked := rankTitles(byTitle)
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	top := make([]TitleStats, 0, len(ranked))
	for _, title := range ranked {
		pays := byTitle[title]
		floats := toSortedFloats(pays)
		total := sumDecimals(pays)
		median, _ := stats.Median(floats)
		sd, _ := stats.StandardDeviationPopulation(floats)

		top = append(top, TitleStats{
			Title:     title,
			Category:  CategorizeTitle(title),
			Count:     len(pays),
			AvgPay:    total.Div(decimal.NewFromInt(int64(len(pays)))).Round(2),
			MedianPay: money(median),
			MinPay:    money(floats[0]),
			MaxPay:    money(floats[len(floats)-1]),
			StdDev:    money(sd),
			TotalPay:  total,
		})
	}

	return TitleAnalysis{
		Location:     p.Location,
		Year:         p.Year,
		UniqueTitles: len(byTitle),
		TopN:         topN,
		TopTitles:    datatypes.NewJSONType(top),
		Categories:   datatypes.NewJSONType(categoryBreakdown(byTitle)),
		GeneratedAt:  now,
	}
}

func categoryBreakdown(byTitle map[string][]decimal.Decimal) []CategoryStats {
	type acc struct {
		count int
		total decimal.Decimal
	}
	accs := map[string]*acc{}
	for title, pays := range byTitle {
		c := CategorizeTitle(title)
		a, ok := accs[c]
		if !ok {
			a = &acc{}
			accs[c] = a
		}
		a.count += len(pays)
		a.total = a.total.Add(sumDecimals(pays))
	}

	out := make([]CategoryStats, 0, len(accs))
	for name, a := range accs {
		out = append(out, CategoryStats{
			Category: name,
			Count:    a.count,
			AvgPay:   a.total.Div(decimal.NewFromInt(int64(a.count))).Round(2),
		})
	}
	slices.SortFunc(out, func(a, b CategoryStats) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Category, b.Category)
	})
	return out
}

func rankTitles(byTitle map[string][]decimal.Decimal) []string {
	titles := make([]string, 0, len(byTitle))
	for t := range byTitle {
		titles = append(titles, t)
	}
	slices.SortFunc(titles, func(a, b string) int {
		if ca, cb := len(byTitle[a]), len(byTitle[b]); ca != cb {
			return cb - ca
		}
		return strings.Compare(a, b)
	})
	return titles
}

func topTitleCounts(byTitle map[string][]decimal.Decimal, limit int) []TitleCount {
	ranked := rankTitles(byTitle)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]TitleCount, 0, len(ranked))
	for _, t := range ranked {
		pays := byTitle[t]
		out = append(out, TitleCount{
			Title:  t,
			Count:  len(pays),
			AvgPay: sumDecimals(pays).Div(decimal.NewFromInt(int64(len(pays)))).Round(2),
		})
	}
	return out
}

func titleOf(r wage.WageRecord) (string, bool) {
	if r.Title == "" || r.Title == redactedTitle {
		return "", false
	}
	return r.Title, true
}

func sumDecimals(values []decimal.Decimal) decimal.Decimal {
	var total decimal.Decimal
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func toSortedFloats(values []decimal.Decimal) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v.InexactFloat64()
	}
	slices.Sort(out)
	return out
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

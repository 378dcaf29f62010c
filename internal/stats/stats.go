// Package stats computes the grouped views and grand statistics over an
// owner's receipt set. Everything here is a pure function of the input
// snapshot: no state, safe to call concurrently, input order irrelevant
// except for the documented tie-breaks.
package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/vickotoAguilera/BoletasScaner/internal/entity"
	"github.com/vickotoAguilera/BoletasScaner/internal/money"
)

// None is reported for most-frequent/top buckets when the record set is empty.
const None = "Sin datos"

// Bucket is one row of a grouped view (category or city).
type Bucket struct {
	Key          string  `json:"key"`
	Count        int     `json:"count"`
	NetSum       int64   `json:"netSum"`
	TaxSum       int64   `json:"taxSum"`
	GrossSum     int64   `json:"grossSum"`
	Percent      float64 `json:"percent"`      // share of grand gross, 0..100
	PercentLabel string  `json:"percentLabel"` // formatted, e.g. "37.5%"
}

// MonthBucket is one row of the timeline view.
type MonthBucket struct {
	Year     int        `json:"year"`
	Month    time.Month `json:"month"`
	Count    int        `json:"count"`
	NetSum   int64      `json:"netSum"`
	TaxSum   int64      `json:"taxSum"`
	GrossSum int64      `json:"grossSum"`
	Average  int64      `json:"average"`
}

// Label renders the bucket as "YYYY-MM".
func (m MonthBucket) Label() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Grand holds the summary statistics across the whole set.
type Grand struct {
	RecordCount          int        `json:"recordCount"`
	DateMin              *time.Time `json:"dateMin,omitempty"`
	DateMax              *time.Time `json:"dateMax,omitempty"`
	TotalGross           int64      `json:"totalGross"`
	TotalNet             int64      `json:"totalNet"`
	TotalTax             int64      `json:"totalTax"`
	AverageGross         int64      `json:"averageGross"`
	MaxGross             int64      `json:"maxGross"`
	MinGross             int64      `json:"minGross"`
	MostFrequentCategory string     `json:"mostFrequentCategory"`
	TopCityByGross       string     `json:"topCityByGross"`
}

// Result is the full aggregation output for one snapshot.
type Result struct {
	ByCategory []Bucket      `json:"byCategory"`
	ByCity     []Bucket      `json:"byCity"`
	ByMonth    []MonthBucket `json:"byMonth"`
	Grand      Grand         `json:"grand"`
}

// Aggregate computes every view over the given snapshot. An empty set yields
// zero counts, empty views and the None sentinels; it never faults.
func Aggregate(records []*entity.Receipt) Result {
	byCategory := groupBy(records, func(r *entity.Receipt) string { return string(r.Category) })
	byCity := groupBy(records, func(r *entity.Receipt) string { return r.City })

	res := Result{
		ByCategory: byCategory,
		ByCity:     byCity,
		ByMonth:    groupByMonth(records),
		Grand:      grandStats(records, byCategory, byCity),
	}
	return res
}

func groupBy(records []*entity.Receipt, key func(*entity.Receipt) string) []Bucket {
	acc := make(map[string]*Bucket)
	var grand int64
	for _, r := range records {
		k := key(r)
		b, ok := acc[k]
		if !ok {
			b = &Bucket{Key: k}
			acc[k] = b
		}
		b.Count++
		b.NetSum += r.TotalNet
		b.TaxSum += r.TotalTax
		b.GrossSum += r.TotalGross
		grand += r.TotalGross
	}

	out := make([]Bucket, 0, len(acc))
	for _, b := range acc {
		b.Percent, b.PercentLabel = percentOf(b.GrossSum, grand)
		out = append(out, *b)
	}

	// Descending by gross; ties by key ascending for determinism.
	sort.Slice(out, func(i, j int) bool {
		if out[i].GrossSum != out[j].GrossSum {
			return out[i].GrossSum > out[j].GrossSum
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func groupByMonth(records []*entity.Receipt) []MonthBucket {
	type key struct {
		year  int
		month time.Month
	}
	acc := make(map[key]*MonthBucket)
	for _, r := range records {
		y, m := r.MonthKey()
		k := key{year: y, month: m}
		b, ok := acc[k]
		if !ok {
			b = &MonthBucket{Year: y, Month: m}
			acc[k] = b
		}
		b.Count++
		b.NetSum += r.TotalNet
		b.TaxSum += r.TotalTax
		b.GrossSum += r.TotalGross
	}

	out := make([]MonthBucket, 0, len(acc))
	for _, b := range acc {
		b.Average = money.RoundDiv(b.GrossSum, int64(b.Count))
		out = append(out, *b)
	}

	// The month view is a timeline, not a ranking: chronological ascending.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

func grandStats(records []*entity.Receipt, byCategory, byCity []Bucket) Grand {
	g := Grand{
		MostFrequentCategory: None,
		TopCityByGross:       None,
	}
	if len(records) == 0 {
		return g
	}

	g.RecordCount = len(records)
	g.MinGross = records[0].TotalGross
	g.MaxGross = records[0].TotalGross
	var dateMin, dateMax time.Time
	for i, r := range records {
		g.TotalGross += r.TotalGross
		g.TotalNet += r.TotalNet
		g.TotalTax += r.TotalTax
		if r.TotalGross > g.MaxGross {
			g.MaxGross = r.TotalGross
		}
		if r.TotalGross < g.MinGross {
			g.MinGross = r.TotalGross
		}
		if i == 0 || r.PurchaseDate.Before(dateMin) {
			dateMin = r.PurchaseDate
		}
		if i == 0 || r.PurchaseDate.After(dateMax) {
			dateMax = r.PurchaseDate
		}
	}
	g.DateMin = &dateMin
	g.DateMax = &dateMax
	g.AverageGross = money.RoundDiv(g.TotalGross, int64(g.RecordCount))

	// Ties resolve to the first bucket in view order, which the sort above
	// already made deterministic.
	best := -1
	for _, b := range byCategory {
		if b.Count > best {
			best = b.Count
			g.MostFrequentCategory = b.Key
		}
	}
	if len(byCity) > 0 {
		g.TopCityByGross = byCity[0].Key
	}
	return g
}

func percentOf(part, grand int64) (float64, string) {
	if grand == 0 {
		return 0, "0%"
	}
	pct := float64(part) / float64(grand) * 100
	return pct, fmt.Sprintf("%.1f%%", pct)
}

package forensics

import (
	"sort"

	"github.com/rumor-ml/cfdigold/internal/domain"
)

// MonthlySeries is a metric bucketed by calendar month, kept in ascending
// month order ("2006-01" keys). Transient: recomputed on every run.
type MonthlySeries struct {
	months []string
	values []float64
}

// Months returns the ordered bucket keys.
func (s *MonthlySeries) Months() []string {
	return append([]string(nil), s.months...)
}

// Values returns the metric values in month order.
func (s *MonthlySeries) Values() []float64 {
	return append([]float64(nil), s.values...)
}

// Len returns the number of populated months.
func (s *MonthlySeries) Len() int { return len(s.months) }

// LastMonth returns the most recent bucket key, "" when empty.
func (s *MonthlySeries) LastMonth() string {
	if len(s.months) == 0 {
		return ""
	}
	return s.months[len(s.months)-1]
}

// LatestChange returns the fractional change between the two most recent
// months. The change is undefined with fewer than two populated months or
// a zero previous value (division by zero would fabricate a spike); both
// cases report ok=false, which downstream treats as "no alert".
func (s *MonthlySeries) LatestChange() (change float64, ok bool) {
	n := len(s.values)
	if n < 2 {
		return 0, false
	}
	prev, cur := s.values[n-2], s.values[n-1]
	if prev == 0 {
		return 0, false
	}
	return (cur - prev) / prev, true
}

// fromBuckets orders a month->value map into a series.
func fromBuckets(buckets map[string]float64) *MonthlySeries {
	s := &MonthlySeries{}
	for m := range buckets {
		s.months = append(s.months, m)
	}
	sort.Strings(s.months)
	s.values = make([]float64, len(s.months))
	for i, m := range s.months {
		s.values[i] = buckets[m]
	}
	return s
}

// MonthlySum buckets a metric by month and sums it. Invoices without a
// parseable emission timestamp have no bucket and are skipped.
func MonthlySum(invoices []domain.Invoice, metric func(*domain.Invoice) float64) *MonthlySeries {
	buckets := make(map[string]float64)
	for i := range invoices {
		month := invoices[i].Month()
		if month == "" {
			continue
		}
		buckets[month] += metric(&invoices[i])
	}
	return fromBuckets(buckets)
}

// MonthlyCount buckets matching invoices by month and counts them.
func MonthlyCount(invoices []domain.Invoice, match func(*domain.Invoice) bool) *MonthlySeries {
	buckets := make(map[string]float64)
	for i := range invoices {
		if !match(&invoices[i]) {
			continue
		}
		month := invoices[i].Month()
		if month == "" {
			continue
		}
		buckets[month]++
	}
	return fromBuckets(buckets)
}

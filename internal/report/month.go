package report

import (
	"time"

	"github.com/roach88/tiffin/internal/pos"
	"github.com/shopspring/decimal"
)

const monthLayout = "2006-01"

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

// MonthKey returns the calendar month of t in loc as "YYYY-MM".
func MonthKey(t time.Time, loc *time.Location) string {
	return t.In(location(loc)).Format(monthLayout)
}

// ValidateMonth accepts "" (all months) or a "YYYY-MM" key.
func ValidateMonth(month string) error {
	if month == "" {
		return nil
	}
	if _, err := time.Parse(monthLayout, month); err != nil {
		return &pos.ValidationError{Field: "month", Message: "want YYYY-MM, got " + month}
	}
	return nil
}

// FilterByMonth returns the records whose month is month, in ledger order.
// An empty month selects every record.
func FilterByMonth(records []pos.SaleRecord, month string, loc *time.Location) []pos.SaleRecord {
	out := []pos.SaleRecord{}
	for _, r := range records {
		if month == "" || MonthKey(r.DT, loc) == month {
			out = append(out, r)
		}
	}
	return out
}

// Total sums the record totals.
func Total(records []pos.SaleRecord) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(r.Total)
	}
	return sum
}

// Months lists the distinct month keys of records in first-seen order.
func Months(records []pos.SaleRecord, loc *time.Location) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range records {
		k := MonthKey(r.DT, loc)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// MonthTotal is one row of a per-month breakdown.
type MonthTotal struct {
	Month string          `json:"month"`
	Sales int             `json:"sales"`
	Total decimal.Decimal `json:"total"`
}

// ByMonth groups records per month in first-seen order.
func ByMonth(records []pos.SaleRecord, loc *time.Location) []MonthTotal {
	var out []MonthTotal
	index := map[string]int{}
	for _, r := range records {
		k := MonthKey(r.DT, loc)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, MonthTotal{Month: k, Total: decimal.Zero})
		}
		out[i].Sales++
		out[i].Total = out[i].Total.Add(r.Total)
	}
	return out
}

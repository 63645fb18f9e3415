package report

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/roach88/tiffin/internal/pos"
)

// Header is the first CSV row.
var Header = []string{"Date/Time", "Customer", "Items", "Subtotal", "Tax", "Total"}

// TimeLayout formats sale timestamps in exports and bills.
const TimeLayout = "2006-01-02 15:04:05"

// ItemsString renders sale lines as "Tea x2; Vada x1".
func ItemsString(items []pos.SaleLine) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.Name + " x" + strconv.Itoa(it.Qty)
	}
	return strings.Join(parts, "; ")
}

// Rows returns one export row per record, without the header. Money has
// two decimal places.
func Rows(records []pos.SaleRecord, loc *time.Location) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.DT.In(location(loc)).Format(TimeLayout),
			r.Customer,
			ItemsString(r.Items),
			r.Subtotal.StringFixed(2),
			r.Tax.StringFixed(2),
			r.Total.StringFixed(2),
		})
	}
	return rows
}

// ToCSV renders records as CSV: a header row, every field double-quoted
// with embedded quotes doubled, rows separated by "\n".
func ToCSV(records []pos.SaleRecord, loc *time.Location) string {
	var b strings.Builder
	writeCSVRow(&b, Header)
	for _, row := range Rows(records, loc) {
		b.WriteByte('\n')
		writeCSVRow(&b, row)
	}
	return b.String()
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
}

// Filename returns "<business-slug>-sales[-<month>].csv".
func Filename(business, month string) string {
	return exportName(business, month) + ".csv"
}

func exportName(business, month string) string {
	name := "sales"
	if s := Slug(business); s != "" {
		name = s + "-sales"
	}
	if month != "" {
		name += "-" + month
	}
	return name
}

// Slug lower-cases s and collapses every run of non-alphanumerics to "-".
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

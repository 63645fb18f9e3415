package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/roach88/tiffin/internal/pos"
	"github.com/shopspring/decimal"
)

// FormatMoney renders d with two decimals behind symbol, e.g. "Rs 24.00".
func FormatMoney(symbol string, d decimal.Decimal) string {
	return symbol + d.StringFixed(2)
}

// BillOptions controls bill rendering.
type BillOptions struct {
	Business string
	Currency string
	Location *time.Location
}

// WriteBill renders a printable receipt for an unrecorded sale.
func WriteBill(w io.Writer, d pos.Draft, opts BillOptions) error {
	var b strings.Builder
	if opts.Business != "" {
		fmt.Fprintf(&b, "%s\n", opts.Business)
	}
	fmt.Fprintf(&b, "Bill\n")
	fmt.Fprintf(&b, "Customer: %s\n", d.Customer)
	fmt.Fprintf(&b, "Date:     %s\n\n", d.At.In(location(opts.Location)).Format(TimeLayout))

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Item\tQty\tPrice\tAmount")
	for _, l := range d.Lines {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", l.Name, l.Qty, l.Price.StringFixed(2), l.LineTotal().StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(&b, "\nSubtotal: %s\n", FormatMoney(opts.Currency, d.Summary.Subtotal))
	fmt.Fprintf(&b, "Tax:      %s\n", FormatMoney(opts.Currency, d.Summary.Tax))
	fmt.Fprintf(&b, "Total:    %s\n", FormatMoney(opts.Currency, d.Summary.Total))

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteTable renders records as an aligned table followed by their total.
// Items are joined with ", " as on screen.
func WriteTable(w io.Writer, records []pos.SaleRecord, currency string, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Date/Time\tCustomer\tItems\tTotal")
	for _, r := range records {
		items := make([]string, len(r.Items))
		for i, it := range r.Items {
			items[i] = it.Name + " x" + strconv.Itoa(it.Qty)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.DT.In(location(loc)).Format(TimeLayout), r.Customer, strings.Join(items, ", "), FormatMoney(currency, r.Total))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d sales, total %s\n", len(records), FormatMoney(currency, Total(records)))
	return err
}

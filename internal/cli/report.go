package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/tiffin/internal/pos"
	"github.com/roach88/tiffin/internal/report"
)

// SalesReport is the JSON payload of report list.
type SalesReport struct {
	Month   string           `json:"month,omitempty"`
	Records []pos.SaleRecord `json:"records"`
	Total   decimal.Decimal  `json:"total"`
}

// ExportResult is the JSON payload of report export.
type ExportResult struct {
	Path    string `json:"path"`
	Records int    `json:"records"`
}

// NewReportCommand creates the report command group.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Review and export recorded sales",
		Long: `Review and export recorded sales.

Months are written YYYY-MM and are read in the configured timezone
(TIFFIN_TIMEZONE), the same zone used for times in exports.`,
	}

	cmd.AddCommand(newReportListCommand(rootOpts))
	cmd.AddCommand(newReportMonthsCommand(rootOpts))
	cmd.AddCommand(newReportExportCommand(rootOpts))
	return cmd
}

func newReportListCommand(rootOpts *RootOptions) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sales, optionally for one month",
		Long: `List sales, oldest first, with the grand total.

Examples:
  tiffin report list
  tiffin report list --month 2024-05`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(_ context.Context, s *session, f *OutputFormatter) error {
				records, err := salesFor(s, month)
				if err != nil {
					return err
				}
				rep := SalesReport{Month: month, Records: records, Total: report.Total(records)}
				if rep.Records == nil {
					rep.Records = []pos.SaleRecord{}
				}
				return f.Render(rep, func(w io.Writer) error {
					return report.WriteTable(w, records, s.cfg.Currency, s.loc)
				})
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "only sales in this month (YYYY-MM)")
	return cmd
}

func newReportMonthsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "months",
		Short:         "Show sales count and total per month",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(_ context.Context, s *session, f *OutputFormatter) error {
				months := report.ByMonth(s.app.Ledger.Records(), s.loc)
				if months == nil {
					months = []report.MonthTotal{}
				}
				return f.Render(months, func(w io.Writer) error {
					if len(months) == 0 {
						_, err := fmt.Fprintln(w, "No sales recorded.")
						return err
					}
					tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "Month\tSales\tTotal")
					for _, m := range months {
						fmt.Fprintf(tw, "%s\t%d\t%s\n", m.Month, m.Sales, report.FormatMoney(s.cfg.Currency, m.Total))
					}
					return tw.Flush()
				})
			})
		},
	}
}

func newReportExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		month string
		xlsx  bool
		out   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sales as CSV or XLSX",
		Long: `Export sales as CSV (default) or as an XLSX workbook.

Files are named <business>-sales-<month>.csv, without the month part
when no month is given, and written to --dir. Use --dir - to write to
stdout.

Examples:
  tiffin report export --month 2024-05
  tiffin report export --xlsx --dir exports/
  tiffin report export --month 2024-05 --dir - > may.csv`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(_ context.Context, s *session, f *OutputFormatter) error {
				records, err := salesFor(s, month)
				if err != nil {
					return err
				}

				write := func(w io.Writer) error {
					if xlsx {
						return report.WriteXLSX(w, records, s.loc)
					}
					_, err := io.WriteString(w, report.ToCSV(records, s.loc))
					return err
				}

				if out == "-" {
					return write(cmd.OutOrStdout())
				}

				name := report.Filename(s.cfg.BusinessName, month)
				if xlsx {
					name = report.XLSXFilename(s.cfg.BusinessName, month)
				}
				path := filepath.Join(out, name)
				if err := writeFile(path, write); err != nil {
					return err
				}
				s.log.WithField("path", path).WithField("records", len(records)).Info("sales exported")

				res := ExportResult{Path: path, Records: len(records)}
				return f.Render(res, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "\u2713 Exported %d sale(s) to %s\n", res.Records, res.Path)
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "only sales in this month (YYYY-MM)")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "write an XLSX workbook instead of CSV")
	cmd.Flags().StringVarP(&out, "dir", "o", ".", "output directory, or - for stdout")
	return cmd
}

// salesFor returns every recorded sale, or those in month when given.
func salesFor(s *session, month string) ([]pos.SaleRecord, error) {
	month = strings.TrimSpace(month)
	if month == "" {
		return s.app.Ledger.Records(), nil
	}
	if err := report.ValidateMonth(month); err != nil {
		return nil, err
	}
	return report.FilterByMonth(s.app.Ledger.Records(), month, s.loc), nil
}

// writeFile creates path and fills it with write, removing it on failure.
func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(fh); err != nil {
		fh.Close()
		os.Remove(path)
		return err
	}
	return fh.Close()
}

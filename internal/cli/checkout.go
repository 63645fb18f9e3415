package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/tiffin/internal/pos"
	"github.com/roach88/tiffin/internal/report"
)

// CheckoutStatus is the JSON payload of checkout status.
type CheckoutStatus struct {
	State    pos.State       `json:"state"`
	Customer string          `json:"customer"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	Summary  pos.Summary     `json:"summary"`
}

// NewCheckoutCommand creates the checkout command group.
func NewCheckoutCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Take payment for the cart",
		Long: `Take payment for the cart in two presses.

The first press shows the payment QR and the amount due. The second
press records the sale, clears the cart and resets the customer name.
Cancel goes back to building the order without recording anything.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "status",
		Short:         "Show the checkout state",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(_ context.Context, s *session, f *OutputFormatter) error {
				return renderStatus(f, s)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "customer [name]",
		Short: "Set the customer name for this sale",
		Long: `Set the customer name for this sale. With no name the field is
cleared and the sale is recorded for the walk-in customer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, f *OutputFormatter) error {
				if err := s.app.Checkout.SetCustomer(ctx, strings.Join(args, " ")); err != nil {
					return err
				}
				return renderStatus(f, s)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "press",
		Short:         "Press the checkout button",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, f *OutputFormatter) error {
				tr, err := s.app.Checkout.Press(ctx)
				if err != nil && tr.Sale == nil {
					return err
				}
				if err != nil {
					s.log.WithError(err).Warn("sale recorded but checkout reset failed")
				}
				return f.Render(tr, func(w io.Writer) error {
					return writeTransition(w, tr, s.cfg.Currency)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "cancel",
		Short:         "Leave the payment screen without recording a sale",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, f *OutputFormatter) error {
				if err := s.app.Checkout.Cancel(ctx); err != nil {
					return err
				}
				return renderStatus(f, s)
			})
		},
	})

	return cmd
}

func renderStatus(f *OutputFormatter, s *session) error {
	status := CheckoutStatus{
		State:    s.app.Checkout.State(),
		Customer: s.app.Checkout.Customer(),
		TaxRate:  s.app.Cart.TaxRate(),
		Summary:  s.app.Cart.Summary(),
	}
	return f.Render(status, func(w io.Writer) error {
		customer := status.Customer
		if strings.TrimSpace(customer) == "" {
			customer = "(walk-in)"
		}
		_, err := fmt.Fprintf(w, "State:    %s\nCustomer: %s\nTax rate: %s\nTotal:    %s\n",
			status.State, customer, status.TaxRate, report.FormatMoney(s.cfg.Currency, status.Summary.Total))
		return err
	})
}

func writeTransition(w io.Writer, tr pos.Transition, currency string) error {
	if tr.Sale != nil {
		_, err := fmt.Fprintf(w, "\u2713 Payment recorded: %s for %s (sale %s)\n",
			report.FormatMoney(currency, tr.Sale.Total), tr.Sale.Customer, tr.Sale.ID)
		return err
	}
	fmt.Fprintf(w, "Awaiting payment of %s\n", report.FormatMoney(currency, tr.Summary.Total))
	if tr.PaymentRef != "" {
		fmt.Fprintf(w, "Show QR: %s\n", tr.PaymentRef)
	}
	if tr.PaymentURI != "" {
		fmt.Fprintf(w, "UPI link: %s\n", tr.PaymentURI)
	}
	_, err := fmt.Fprintln(w, "Press again once paid, or cancel.")
	return err
}

// NewBillCommand creates the bill command.
func NewBillCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bill",
		Short: "Print a bill for the current cart",
		Long: `Print a bill for the current cart without recording anything.

The bill shows the business name, customer, items and totals, ready to
hand over before the customer pays.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(_ context.Context, s *session, f *OutputFormatter) error {
				if s.app.Cart.IsEmpty() {
					return pos.ErrEmptyCart
				}
				draft := s.app.Checkout.Draft()
				return f.Render(draft, func(w io.Writer) error {
					return report.WriteBill(w, draft, report.BillOptions{
						Business: s.cfg.BusinessName,
						Currency: s.cfg.Currency,
						Location: s.loc,
					})
				})
			})
		},
	}
}

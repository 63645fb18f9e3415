package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/tiffin/internal/pos"
	"github.com/roach88/tiffin/internal/report"
)

// CartView is the JSON payload of every cart command.
type CartView struct {
	Lines   []pos.CartLine `json:"lines"`
	Summary pos.Summary    `json:"summary"`
}

func cartView(app *pos.App) CartView {
	lines := app.Cart.Lines()
	if lines == nil {
		lines = []pos.CartLine{}
	}
	return CartView{Lines: lines, Summary: app.Cart.Summary()}
}

// NewCartCommand creates the cart command group.
func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Build the current order",
		Long: `Build the current order.

Items are named by ID or by exact menu name (ignoring case). Adding an
item that is already in the cart increments its quantity; the price is
the one on the menu when the item was first added.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "show",
		Short:         "Show the cart and its totals",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cartCommand(cmd, rootOpts, func(context.Context, *pos.App) error { return nil })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "add <item>...",
		Short:         "Add one of each named item",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cartCommand(cmd, rootOpts, func(ctx context.Context, app *pos.App) error {
				for _, arg := range args {
					item, err := resolveMenuItem(app, arg)
					if err != nil {
						return err
					}
					if err := app.Cart.Add(ctx, item.ID); err != nil {
						return err
					}
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "qty <item> <delta>",
		Short: "Change a line's quantity by delta",
		Long: `Change a line's quantity by delta. A line whose quantity drops to
zero or below is removed. Items not in the cart are ignored.

Examples:
  tiffin cart qty Tea 2
  tiffin cart qty Tea -- -1`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return newFormatter(rootOpts, cmd).Fail(&pos.ValidationError{Field: "delta", Message: "not an integer: " + args[1]})
			}
			return cartCommand(cmd, rootOpts, func(ctx context.Context, app *pos.App) error {
				return app.Cart.SetQuantity(ctx, resolveCartLine(app, args[0]), delta)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "rm <item>",
		Short:         "Remove a line from the cart",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cartCommand(cmd, rootOpts, func(ctx context.Context, app *pos.App) error {
				return app.Cart.Remove(ctx, resolveCartLine(app, args[0]))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "clear",
		Short:         "Empty the cart",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cartCommand(cmd, rootOpts, func(ctx context.Context, app *pos.App) error {
				return app.Cart.Clear(ctx)
			})
		},
	})

	return cmd
}

// cartCommand runs op and prints the resulting cart.
func cartCommand(cmd *cobra.Command, rootOpts *RootOptions, op func(context.Context, *pos.App) error) error {
	return withSession(cmd, rootOpts, func(ctx context.Context, s *session, f *OutputFormatter) error {
		if err := op(ctx, s.app); err != nil {
			return err
		}
		view := cartView(s.app)
		return f.Render(view, func(w io.Writer) error {
			return writeCart(w, view, s.cfg.Currency)
		})
	})
}

func writeCart(w io.Writer, view CartView, currency string) error {
	if len(view.Lines) == 0 {
		_, err := fmt.Fprintln(w, "Cart is empty.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tItem\tQty\tPrice\tAmount")
	for _, l := range view.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", l.ID, l.Name, l.Qty,
			report.FormatMoney(currency, l.Price), report.FormatMoney(currency, l.LineTotal()))
	}
	fmt.Fprintf(tw, "\t\t\tSubtotal\t%s\n", report.FormatMoney(currency, view.Summary.Subtotal))
	if !view.Summary.Tax.IsZero() {
		fmt.Fprintf(tw, "\t\t\tTax\t%s\n", report.FormatMoney(currency, view.Summary.Tax))
	}
	fmt.Fprintf(tw, "\t\t\tTotal\t%s\n", report.FormatMoney(currency, view.Summary.Total))
	return tw.Flush()
}

// resolveMenuItem finds a menu item by ID, then by exact name ignoring case.
func resolveMenuItem(app *pos.App, ref string) (pos.MenuItem, error) {
	if item, ok := app.Catalog.Get(ref); ok {
		return item, nil
	}
	for _, item := range app.Catalog.List(ref) {
		if strings.EqualFold(item.Name, ref) {
			return item, nil
		}
	}
	return pos.MenuItem{}, &pos.NotFoundError{Kind: "menu item", ID: ref}
}

// resolveCartLine maps a name to the ID of a cart line. Lines may refer to
// items no longer on the menu, so the cart is searched, not the catalog.
func resolveCartLine(app *pos.App, ref string) string {
	if _, ok := app.Cart.Line(ref); ok {
		return ref
	}
	for _, l := range app.Cart.Lines() {
		if strings.EqualFold(l.Name, ref) {
			return l.ID
		}
	}
	return ref
}

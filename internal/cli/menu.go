package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/tiffin/internal/menufile"
	"github.com/roach88/tiffin/internal/pos"
	"github.com/roach88/tiffin/internal/report"
)

// MenuItemFlags holds flags shared by menu add and menu edit.
type MenuItemFlags struct {
	Name  string
	Price string
	Image string
}

// NewMenuCommand creates the menu command group.
func NewMenuCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "List and edit menu items",
	}

	cmd.AddCommand(newMenuListCommand(rootOpts))
	cmd.AddCommand(newMenuAddCommand(rootOpts))
	cmd.AddCommand(newMenuEditCommand(rootOpts))
	cmd.AddCommand(newMenuRemoveCommand(rootOpts))
	cmd.AddCommand(newMenuImportCommand(rootOpts))
	cmd.AddCommand(newMenuValidateCommand(rootOpts))
	return cmd
}

func newMenuListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [search]",
		Short: "List menu items, optionally filtered by name",
		Long: `List menu items in menu order.

The optional search matches anywhere in the item name, ignoring case.

Examples:
  tiffin menu list
  tiffin menu list dosa
  tiffin menu list --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(_ context.Context, s *session, f *OutputFormatter) error {
				query := ""
				if len(args) == 1 {
					query = args[0]
				}
				items := s.app.Catalog.List(query)
				return f.Render(items, func(w io.Writer) error {
					return writeMenu(w, items, s.cfg.Currency)
				})
			})
		},
	}
}

func writeMenu(w io.Writer, items []pos.MenuItem, currency string) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No menu items.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tName\tPrice\tImage")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ID, it.Name, report.FormatMoney(currency, it.Price), it.Image)
	}
	return tw.Flush()
}

func newMenuAddCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &MenuItemFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a menu item",
		Long: `Add a menu item. A new ID is assigned.

Examples:
  tiffin menu add --name "Masala Dosa" --price 40
  tiffin menu add --name Kesari --price 15.50 --image images/kesari.jpg`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, f *OutputFormatter) error {
				price, err := pos.ParsePrice(flags.Price)
				if err != nil {
					return err
				}
				item, err := s.app.Catalog.Create(ctx, flags.Name, price, flags.Image)
				if err != nil {
					return err
				}
				return f.Render(item, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "\u2713 Added %s (%s) at %s\n", item.Name, item.ID, report.FormatMoney(s.cfg.Currency, item.Price))
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&flags.Name, "name", "", "item name (required)")
	cmd.Flags().StringVar(&flags.Price, "price", "", "item price (required)")
	cmd.Flags().StringVar(&flags.Image, "image", "", "image URL or path")
	return cmd
}

func newMenuEditCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &MenuItemFlags{}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a menu item",
		Long: `Change a menu item's name, price or image. Flags that are not given
keep their current value. Carts and recorded sales keep the old values.

Examples:
  tiffin menu edit 0190a1b2-... --price 45
  tiffin menu edit 0190a1b2-... --name "Ghee Roast" --image ""`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, f *OutputFormatter) error {
				current, ok := s.app.Catalog.Get(args[0])
				if !ok {
					return &pos.NotFoundError{Kind: "menu item", ID: args[0]}
				}

				name, price, image := current.Name, current.Price, current.Image
				if cmd.Flags().Changed("name") {
					name = flags.Name
				}
				if cmd.Flags().Changed("price") {
					p, err := pos.ParsePrice(flags.Price)
					if err != nil {
						return err
					}
					price = p
				}
				if cmd.Flags().Changed("image") {
					image = flags.Image
				}

				item, err := s.app.Catalog.Update(ctx, args[0], name, price, image)
				if err != nil {
					return err
				}
				return f.Render(item, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "\u2713 Updated %s: %s at %s\n", item.ID, item.Name, report.FormatMoney(s.cfg.Currency, item.Price))
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&flags.Name, "name", "", "new name")
	cmd.Flags().StringVar(&flags.Price, "price", "", "new price")
	cmd.Flags().StringVar(&flags.Image, "image", "", "new image URL or path")
	return cmd
}

func newMenuRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a menu item",
		Long: `Remove a menu item. Removing an unknown ID does nothing.
Lines already in the cart stay there.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, f *OutputFormatter) error {
				if err := s.app.Catalog.Delete(ctx, args[0]); err != nil {
					return err
				}
				data := map[string]any{"id": args[0], "items": s.app.Catalog.Len()}
				return f.Render(data, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "\u2713 Removed %s (%d items left)\n", args[0], s.app.Catalog.Len())
					return err
				})
			})
		},
	}
}

func newMenuImportCommand(rootOpts *RootOptions) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <file-or-dir>",
		Short: "Import menu items from CUE files",
		Long: `Import menu items from a CUE file, or every .cue file in a directory.

Files declare a top-level menu list:

  menu: [
    {name: "Masala Dosa", price: 40},
    {name: "Kesari", price: 15.5, image: "images/kesari.jpg"},
  ]

Items are appended to the menu, or replace it entirely with --replace.

Examples:
  tiffin menu import menus/
  tiffin menu import menus/breakfast.cue --replace`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, f *OutputFormatter) error {
				entries, err := menufile.LoadDir(args[0])
				if err != nil {
					return menuFileError(err)
				}
				f.VerboseLog("Loaded %d item(s) from %s", len(entries), args[0])

				added, err := s.app.Catalog.Import(ctx, entries, replace)
				if err != nil {
					return err
				}
				return f.Render(added, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "\u2713 Imported %d item(s); menu has %d\n", len(added), s.app.Catalog.Len())
					return err
				})
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "replace the whole menu instead of appending")
	return cmd
}

// MenuValidationResult is the JSON payload of menu validate.
type MenuValidationResult struct {
	Valid bool `json:"valid"`
	Items int  `json:"items"`
}

func newMenuValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file-or-dir>",
		Short: "Check menu CUE files without importing them",
		Long: `Check menu CUE files against the menu schema without touching the
database. Every item needs a non-empty name and a non-negative price.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)

			if files, err := menufile.FindCUEFiles(args[0]); err != nil {
				f.VerboseLog("Could not scan %s: %v", args[0], err)
			} else {
				f.VerboseLog("Found %d CUE file(s) in %s", len(files), args[0])
			}

			entries, err := menufile.LoadDir(args[0])
			if err != nil {
				return outputMenuFileError(f, err)
			}

			result := MenuValidationResult{Valid: true, Items: len(entries)}
			return f.Render(result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "\u2713 Menu valid (%d items)\n", len(entries))
				return err
			})
		},
	}
}

// menuFileError turns a menu file load error into an ExitError carrying its
// code. Schema violations are failures; unreadable input is a command error.
func menuFileError(err error) error {
	var loadErr *menufile.LoadError
	if !errors.As(err, &loadErr) {
		return WrapExitError(ExitCommandError, CodeGeneric, err)
	}
	exit := ExitCommandError
	if loadErr.Code == menufile.ErrCodeSchema || loadErr.Code == menufile.ErrCodeNoMenu {
		exit = ExitFailure
	}
	msg := loadErr.Message
	if loadErr.Pos.IsValid() {
		msg = fmt.Sprintf("%s:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), msg)
	}
	return WrapExitError(exit, loadErr.Code, errors.New(msg))
}

func outputMenuFileError(f *OutputFormatter, err error) error {
	return f.Fail(menuFileError(err))
}

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/tiffin/internal/httpapi"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the till over HTTP",
		Long: `Serve the till as a JSON API under /api/v1, for a counter tablet or
a browser front-end. Requests are handled one at a time. Stops cleanly
on SIGINT or SIGTERM.

Examples:
  tiffin serve
  tiffin serve --listen 127.0.0.1:9090`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(parent context.Context, s *session, f *OutputFormatter) error {
				ctx, cancel := context.WithCancel(parent)
				defer cancel()

				sigChan := make(chan os.Signal, 1)
				signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
				defer signal.Stop(sigChan)

				go func() {
					select {
					case sig := <-sigChan:
						s.log.WithField("signal", sig.String()).Info("received signal, shutting down")
						cancel()
					case <-ctx.Done():
					}
				}()

				addr := listen
				if addr == "" {
					addr = s.cfg.Listen
				}
				f.VerboseLog("Serving %s on %s", s.cfg.DB, addr)

				srv := httpapi.New(s.app, httpapi.Options{Business: s.cfg.BusinessName, Location: s.loc}, s.log)
				if err := srv.ListenAndServe(ctx, addr); err != nil {
					return WrapExitError(ExitCommandError, CodeGeneric, err)
				}
				s.log.Info("server stopped")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default $TIFFIN_LISTEN or 127.0.0.1:8080)")
	return cmd
}

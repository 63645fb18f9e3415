package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// BackupResult is the JSON payload of backup -o and restore.
type BackupResult struct {
	Path string   `json:"path"`
	Keys []string `json:"keys"`
}

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write every stored key as one JSON object",
		Long: `Write every stored key as one JSON object, shaped like a browser
localStorage export. Without -o the snapshot goes to stdout.

Examples:
  tiffin backup > tiffin-backup.json
  tiffin backup -o backups/2024-05-31.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, f *OutputFormatter) error {
				snapshot, err := s.app.Backup(ctx)
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(snapshot, "", "  ")
				if err != nil {
					return err
				}
				data = append(data, '\n')

				if out == "" || out == "-" {
					_, err := cmd.OutOrStdout().Write(data)
					return err
				}
				if err := writeFile(out, func(w io.Writer) error {
					_, err := w.Write(data)
					return err
				}); err != nil {
					return err
				}

				res := BackupResult{Path: out, Keys: sortedKeys(snapshot)}
				return f.Render(res, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "\u2713 Backed up %d key(s) to %s\n", len(res.Keys), res.Path)
					return err
				})
			})
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "write the snapshot to this file instead of stdout")
	return cmd
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Load a backup or browser localStorage export",
		Long: `Load a snapshot written by backup, or a JSON.stringify(localStorage)
export from the browser till. Keys in the file overwrite stored values;
keys missing from the file are left alone.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session, f *OutputFormatter) error {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, CodeGeneric, err)
				}
				var snapshot map[string]json.RawMessage
				if err := json.Unmarshal(data, &snapshot); err != nil {
					return WrapExitError(ExitCommandError, CodeGeneric, errors.Wrap(err, "backup is not a JSON object"))
				}
				if err := s.app.Restore(ctx, snapshot); err != nil {
					return err
				}
				s.log.WithField("file", args[0]).WithField("keys", len(snapshot)).Info("snapshot restored")

				res := BackupResult{Path: args[0], Keys: sortedKeys(snapshot)}
				return f.Render(res, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "\u2713 Restored %d key(s) from %s\n", len(res.Keys), res.Path)
					return err
				})
			})
		},
	}
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

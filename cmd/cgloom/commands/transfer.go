package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newExportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: `Write the serialized filter to a file ("-" for stdout)`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.reg.Export(cmd.Context())
			if err != nil {
				return err
			}

			if args[0] == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			a.log.Info("exported filter", "path", args[0], "bytes", len(data))
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", humanize.IBytes(uint64(len(data))), args[0])
			return nil
		},
	}
}

func newImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: `Replace the record with a serialized filter read from a file ("-" for stdin)`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}

			if err := a.reg.Import(cmd.Context(), data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s into %q\n", humanize.IBytes(uint64(len(data))), a.reg.Record())
			return nil
		},
	}
}

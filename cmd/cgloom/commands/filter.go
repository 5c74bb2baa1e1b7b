package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jcalabro/cgloom"
)

func newInitCommand(a *app) *cobra.Command {
	var (
		size   uint64
		hashes uint64
		items  uint64
		fpRate float64
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create or reset the record with an empty filter",
		Long: `Create or reset the record with an empty filter.

The filter shape is taken from --size/--hashes, or derived from --items and
--fp-rate, or else from the filter section of the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if items > 0 {
				if cmd.Flags().Changed("size") || cmd.Flags().Changed("hashes") {
					return fmt.Errorf("--items cannot be combined with --size or --hashes")
				}
				size, hashes = cgloom.OptimalParams(items, fpRate)
			}
			if size == 0 {
				size = a.cfg.Filter.Size
			}
			if hashes == 0 {
				hashes = a.cfg.Filter.Hashes
			}

			if err := a.reg.Reset(cmd.Context(), size, hashes); err != nil {
				return err
			}

			st, err := a.reg.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized %q: size=%d k=%d (%s)\n",
				a.reg.Record(), st.Size, st.K, humanize.IBytes(uint64(st.EncodedBytes)))
			return nil
		},
	}

	cmd.Flags().Uint64Var(&size, "size", 0, "number of counters")
	cmd.Flags().Uint64Var(&hashes, "hashes", 0, "number of probes per identifier")
	cmd.Flags().Uint64Var(&items, "items", 0, "expected number of identifiers (derives size and hashes)")
	cmd.Flags().Float64Var(&fpRate, "fp-rate", 0.01, "target false positive rate, used with --items")

	return cmd
}

func newFlagCommand(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "flag [id...]",
		Short: "Add identifiers to the flagged set",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := collectIDs(cmd, args, file)
			if err != nil {
				return err
			}
			if err := a.reg.Flag(cmd.Context(), ids...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "flagged %s identifiers\n", humanize.Comma(int64(len(ids))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `read identifiers from a file, one per line ("-" for stdin)`)

	return cmd
}

func newUnflagCommand(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "unflag [id...]",
		Short: "Remove identifiers from the flagged set",
		Long: `Remove identifiers from the flagged set.

Each identifier is removed once. Unflagging an identifier that was never
flagged can clear counters shared with other identifiers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := collectIDs(cmd, args, file)
			if err != nil {
				return err
			}
			if err := a.reg.Unflag(cmd.Context(), ids...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unflagged %s identifiers\n", humanize.Comma(int64(len(ids))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `read identifiers from a file, one per line ("-" for stdin)`)

	return cmd
}

func newCheckCommand(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "check [id...]",
		Short: "Report whether identifiers are flagged",
		Long: `Report whether identifiers are flagged.

"clear" is definitive. "flagged" may be a false positive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := collectIDs(cmd, args, file)
			if err != nil {
				return err
			}

			flagged, err := a.reg.Check(cmd.Context(), ids...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, id := range ids {
				state := "clear"
				if flagged[i] {
					state = "flagged"
				}
				fmt.Fprintf(out, "%s\t%s\n", id, state)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `read identifiers from a file, one per line ("-" for stdin)`)

	return cmd
}

package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const percentage = 100

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarise the persisted filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.reg.Stats(cmd.Context())
			if err != nil {
				return err
			}

			tbl := table.NewWriter()
			tbl.SetStyle(table.StyleLight)
			tbl.Style().Options.DrawBorder = false
			tbl.Style().Options.SeparateColumns = false
			tbl.Style().Options.SeparateRows = false

			tbl.AppendHeader(table.Row{"Metric", "Value"})
			tbl.AppendRows([]table.Row{
				{"record", a.reg.Record()},
				{"backend", a.cfg.Backend},
				{"counters", humanize.Comma(int64(st.Size))},
				{"probes", st.K},
				{"counter sum", humanize.Comma(int64(st.Sum))},
				{"estimated items", fmt.Sprintf("%.1f", st.EstimatedCount)},
				{"fill ratio", fmt.Sprintf("%.2f%%", st.FillRatio*percentage)},
				{"saturated counters", humanize.Comma(int64(st.Saturated))},
				{"false positive rate", fmt.Sprintf("%.4f%%", st.FalsePositiveRate*percentage)},
				{"encoded size", humanize.IBytes(uint64(st.EncodedBytes))},
			})

			fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())
			return nil
		},
	}
}

// Command analysis measures the observed false positive rate of counting
// filters sized by OptimalParams and compares it with the target and with the
// filter's own estimate, before and after removing half of the inserted keys.
package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jcalabro/cgloom"
)

const percentage = 100

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		items   []uint64
		rates   []float64
		queries uint64
	)

	cmd := &cobra.Command{
		Use:          "analysis",
		Short:        "Measure counting filter false positive rates",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if queries == 0 {
				return fmt.Errorf("--queries must be positive")
			}

			tbl := table.NewWriter()
			tbl.SetOutputMirror(cmd.OutOrStdout())
			tbl.SetStyle(table.StyleLight)
			tbl.AppendHeader(table.Row{
				"items", "target", "counters", "k", "size",
				"estimated", "observed", "observed after removing half",
			})

			for _, n := range items {
				for _, p := range rates {
					r := measure(n, p, queries)
					tbl.AppendRow(table.Row{
						humanize.Comma(int64(n)),
						pct(p),
						humanize.Comma(int64(r.size)),
						r.k,
						humanize.IBytes(uint64(r.encoded)),
						pct(r.estimated),
						pct(r.observed),
						pct(r.observedAfterRemove),
					})
				}
			}

			tbl.Render()
			return nil
		},
	}

	cmd.Flags().Uint64SliceVar(&items, "items", []uint64{1_000, 10_000, 100_000}, "expected item counts")
	cmd.Flags().Float64SliceVar(&rates, "rates", []float64{0.1, 0.01, 0.001}, "target false positive rates")
	cmd.Flags().Uint64Var(&queries, "queries", 100_000, "absent keys queried per measurement")

	return cmd
}

type result struct {
	size                uint64
	k                   uint64
	encoded             int
	estimated           float64
	observed            float64
	observedAfterRemove float64
}

func measure(n uint64, p float64, queries uint64) result {
	f := cgloom.NewWithEstimates(n, p)
	for i := range n {
		f.InsertString(fmt.Sprintf("member-%d", i))
	}

	r := result{
		size:      f.Size(),
		k:         f.K(),
		encoded:   f.EncodedLen(),
		estimated: f.EstimatedFalsePositiveRate(),
		observed:  falsePositives(f, queries),
	}

	for i := range n / 2 {
		f.RemoveString(fmt.Sprintf("member-%d", i))
	}
	r.observedAfterRemove = falsePositives(f, queries)

	return r
}

func falsePositives(f *cgloom.CountingFilter, queries uint64) float64 {
	var hits uint64
	for i := range queries {
		if f.ContainsString(fmt.Sprintf("absent-%d", i)) {
			hits++
		}
	}
	return float64(hits) / float64(queries)
}

func pct(v float64) string {
	return fmt.Sprintf("%.3f%%", v*percentage)
}

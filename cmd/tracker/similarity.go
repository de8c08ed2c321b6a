
package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/olcayay/shopify-tracker-sub001/internal/similarity"
)

var similarityCmd = &cobra.Command{
	Use:   "similarity",
	Short: "Score and inspect app similarity",
}

var similarityRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Score every tracked app against its competitors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := app.openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		scorer, err := similarity.New(st, st, app.cfg.SimilarityOptions(app.log)...)
		if err != nil {
			return err
		}
		start := time.Now()
		stats, err := scorer.Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "scored %d of %d pairs across %d apps in %s\n",
			stats.Scored, stats.Pairs, stats.Apps, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

var similarityShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "List stored similarity results of an app",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := app.openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		results, err := st.Similarities(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"App", "Overall", "Category", "Feature", "Keyword", "Text", "Computed"})
		for _, r := range results {
			other := r.AppB
			if other == args[0] {
				other = r.AppA
			}
			t.AppendRow(table.Row{
				other, score(r.Overall), score(r.Category), score(r.Feature), score(r.Keyword), score(r.Text),
				r.ComputedAt.Local().Format(time.DateTime),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

func score(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

func init() {
	similarityCmd.AddCommand(similarityRunCmd, similarityShowCmd)
}

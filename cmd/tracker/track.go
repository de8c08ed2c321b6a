
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var competitorCmd = &cobra.Command{
	Use:   "competitor <tracked-slug> <competitor-slug>...",
	Short: "Link a tracked app to its competitors",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := app.openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		for _, c := range args[1:] {
			if err := st.AddCompetitor(cmd.Context(), args[0], c); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d competitors linked\n", args[0], len(args)-1)
		return nil
	},
}

var flagPosition int

var rankCmd = &cobra.Command{
	Use:   "rank <slug> <keyword>",
	Short: "Record where an app ranks for a keyword search",
	Long:  "Record where an app ranks for a keyword search. Without --position the app is recorded as not found.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := app.openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		var pos *int
		if cmd.Flags().Changed("position") {
			pos = &flagPosition
		}
		id, err := st.RecordRanking(cmd.Context(), args[0], args[1], pos, time.Now())
		if err != nil {
			return err
		}
		app.log.Debug("ranking recorded", "slug", args[0], "keywordId", id)
		return nil
	},
}

func init() {
	rankCmd.Flags().IntVar(&flagPosition, "position", 0, "1-based position in the search results")
}

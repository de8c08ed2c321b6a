
package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/olcayay/shopify-tracker-sub001/internal/keywords"
	"github.com/olcayay/shopify-tracker-sub001/internal/models"
)

var (
	flagLimit    int
	flagFromDB   bool
	flagKwSlug   string
	flagKwAsJSON bool
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords <file|url|slug>",
	Short: "Mine keyword candidates from an app page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := appRecord(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cands := keywords.New(app.cfg.KeywordTables()).Extract(keywords.MetadataFromRecord(rec))
		if flagLimit > 0 && len(cands) > flagLimit {
			cands = cands[:flagLimit]
		}
		if flagKwAsJSON {
			return writeJSON(cmd.OutOrStdout(), cands)
		}
		renderKeywords(cmd.OutOrStdout(), rec.Slug, cands)
		return nil
	},
}

func init() {
	keywordsCmd.Flags().IntVar(&flagLimit, "limit", 25, "show at most this many candidates (0 for all)")
	keywordsCmd.Flags().BoolVar(&flagFromDB, "stored", false, "read the latest stored snapshot of the slug instead of a page")
	keywordsCmd.Flags().StringVar(&flagKwSlug, "slug", "", "app slug (default: derived from the url or file name)")
	keywordsCmd.Flags().BoolVar(&flagKwAsJSON, "json", false, "print candidates as JSON")
}

func appRecord(ctx context.Context, src string) (models.AppRecord, error) {
	if flagFromDB {
		st, err := app.openStore()
		if err != nil {
			return models.AppRecord{}, err
		}
		defer st.Close()
		return st.LatestApp(ctx, src)
	}
	markup, _, err := app.load(ctx, src)
	if err != nil {
		return models.AppRecord{}, err
	}
	return app.parser.ParseAppPage(markup, slugFor(src, flagKwSlug)), nil
}

func renderKeywords(w io.Writer, slug string, cands []models.KeywordCandidate) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(slug)
	t.AppendHeader(table.Row{"Keyword", "Score", "Count", "Sources"})
	for _, c := range cands {
		fields := make([]string, len(c.Sources))
		for i, s := range c.Sources {
			fields[i] = s.Field
		}
		t.AppendRow(table.Row{c.Keyword, fmt.Sprintf("%.0f", c.Score), c.Count, strings.Join(fields, ", ")})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

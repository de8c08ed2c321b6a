
package main

import (
	"time"

	"github.com/spf13/cobra"
)

var (
	flagPages int
	flagSave  bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch live pages",
}

var fetchCategoryCmd = &cobra.Command{
	Use:   "category <url>",
	Short: "Crawl a category, following its full listing and pagination",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxPages := flagPages
		if maxPages <= 0 {
			maxPages = app.cfg.Fetch.MaxPages
		}
		pages, err := app.crawler().CrawlCategory(cmd.Context(), args[0], maxPages)
		if err != nil && len(pages) == 0 {
			return err
		}
		if err != nil {
			app.log.Warn("crawl stopped early", "pages", len(pages), "err", err)
		}

		if flagSave {
			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			rec := app.parser.ParseCategoryPage(pages[0].Body, pages[0].FinalURL)
			if err := st.SaveCategorySnapshot(cmd.Context(), rec, time.Now()); err != nil {
				return err
			}
		}

		for _, p := range pages {
			rec := app.parser.ParseCategoryPage(p.Body, p.FinalURL)
			if flagJSON {
				if err := writeJSON(cmd.OutOrStdout(), rec); err != nil {
					return err
				}
				continue
			}
			renderCategory(cmd.OutOrStdout(), rec)
		}
		return nil
	},
}

func init() {
	fetchCategoryCmd.Flags().IntVar(&flagPages, "pages", 0, "maximum pages to crawl (default from config)")
	fetchCategoryCmd.Flags().BoolVar(&flagSave, "save", false, "store a snapshot of the first page")
	fetchCategoryCmd.Flags().BoolVar(&flagJSON, "json", false, "print records as JSON")
	fetchCmd.AddCommand(fetchCategoryCmd)
}


package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/olcayay/shopify-tracker-sub001/internal/models"
)

var (
	flagSlug        string
	flagPageURL     string
	flagJSON        bool
	flagDiagnostics bool
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse a saved or fetched listing page",
}

var parseAppCmd = &cobra.Command{
	Use:   "app <file|url>",
	Short: "Parse an app detail page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		markup, _, err := app.load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		rec, diags := app.parser.ParseAppPageWithDiagnostics(markup, slugFor(args[0], flagSlug))
		if flagDiagnostics {
			renderDiagnostics(os.Stderr, diags)
		}
		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), rec)
		}
		renderApp(cmd.OutOrStdout(), rec)
		return nil
	},
}

var parseCategoryCmd = &cobra.Command{
	Use:   "category <file|url>",
	Short: "Parse a category listing page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		markup, pageURL, err := app.load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if flagPageURL != "" {
			pageURL = flagPageURL
		}
		if pageURL == "" {
			return fmt.Errorf("--url is required when parsing a saved category page")
		}
		rec, diags := app.parser.ParseCategoryPageWithDiagnostics(markup, pageURL)
		if flagDiagnostics {
			renderDiagnostics(os.Stderr, diags)
		}
		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), rec)
		}
		renderCategory(cmd.OutOrStdout(), rec)
		return nil
	},
}

func init() {
	parseAppCmd.Flags().StringVar(&flagSlug, "slug", "", "app slug (default: derived from the url or file name)")
	parseCategoryCmd.Flags().StringVar(&flagPageURL, "url", "", "url the saved page was fetched from")
	for _, c := range []*cobra.Command{parseAppCmd, parseCategoryCmd} {
		c.Flags().BoolVar(&flagJSON, "json", false, "print the record as JSON")
		c.Flags().BoolVar(&flagDiagnostics, "diagnostics", false, "print fields that fell back to defaults")
	}
	parseCmd.AddCommand(parseAppCmd, parseCategoryCmd)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orDash[T any](v *T) any {
	if v == nil {
		return "-"
	}
	return *v
}

func renderApp(w io.Writer, rec models.AppRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(rec.Slug)
	t.AppendRows([]table.Row{
		{"Name", rec.Name},
		{"Subtitle", rec.Subtitle},
		{"Developer", rec.Developer.Name},
		{"Rating", orDash(rec.AverageRating)},
		{"Reviews", orDash(rec.RatingCount)},
		{"Pricing", rec.PricingSummary},
		{"Plans", len(rec.PricingPlans)},
		{"Features", len(rec.Features)},
		{"Categories", strings.Join(rec.CategorySlugs(), ", ")},
		{"Languages", strings.Join(rec.Languages, ", ")},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderCategory(w io.Writer, rec models.CategoryRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("%s (%v apps)", rec.Title, orDash(rec.AppCount)))
	t.AppendHeader(table.Row{"#", "Slug", "Name", "Rating", "Reviews", "Pricing", "Ad", "BFS"})
	for _, a := range rec.Apps {
		t.AppendRow(table.Row{
			orDash(a.Position), a.Slug, a.Name, orDash(a.AverageRating), orDash(a.RatingCount),
			orDash(a.PricingHint), a.Sponsored, a.BuiltForPlatform,
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d listed", rec.Metrics.Listed), fmt.Sprintf("%.2f", rec.Metrics.AverageRating), rec.Metrics.TotalReviews})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderDiagnostics(w io.Writer, diags []models.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Field", "Slug", "Error"})
	for _, d := range diags {
		t.AppendRow(table.Row{d.Field, d.Slug, d.Err})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}


package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/olcayay/shopify-tracker-sub001/internal/classifier"
	"github.com/olcayay/shopify-tracker-sub001/internal/ioformats"
	"github.com/olcayay/shopify-tracker-sub001/internal/models"
	"github.com/olcayay/shopify-tracker-sub001/internal/store"
)

const kindAuto classifier.Kind = "auto"

var (
	flagKind   string
	flagOutput string
	flagDryRun bool
)

type ingestResult struct {
	Source      string                 `json:"source"`
	Kind        classifier.Kind        `json:"kind,omitempty"`
	App         *models.AppRecord      `json:"app,omitempty"`
	Category    *models.CategoryRecord `json:"category,omitempty"`
	Diagnostics []models.Diagnostic    `json:"diagnostics,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <manifest>",
	Short: "Parse every page of a CSV or NDJSON manifest and store the snapshots",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch classifier.Kind(flagKind) {
		case kindAuto, classifier.KindApp, classifier.KindCategory:
		default:
			return fmt.Errorf("--kind must be auto, app or category, got %q", flagKind)
		}
		entries, err := ioformats.ReadManifest(args[0])
		if err != nil {
			return fmt.Errorf("reading manifest: %w", err)
		}

		var st *store.Store
		if !flagDryRun {
			if st, err = app.openStore(); err != nil {
				return err
			}
			defer st.Close()
		}

		results := make([]ingestResult, len(entries))
		scrapedAt := time.Now()

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(app.cfg.FetchConcurrency())
		for i, e := range entries {
			i, e := i, e
			g.Go(func() error {
				results[i] = ingestOne(ctx, st, e, scrapedAt)
				return ctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		failed := 0
		for _, r := range results {
			if r.Error != "" {
				failed++
				app.log.Warn("ingest failed", "source", r.Source, "err", r.Error)
			}
		}
		app.log.Info("ingest finished", "entries", len(results), "failed", failed)

		if flagOutput == "" {
			return nil
		}
		var w io.Writer = cmd.OutOrStdout()
		if flagOutput != "-" {
			f, err := os.Create(flagOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return ioformats.WriteNDJSON(w, results)
	},
}

// ingestOne never fails the batch; problems are reported on the result.
func ingestOne(ctx context.Context, st *store.Store, e ioformats.Entry, scrapedAt time.Time) ingestResult {
	res := ingestResult{Source: e.Source()}
	markup, pageURL, err := app.load(ctx, e.Source())
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if pageURL == "" {
		pageURL = e.URL
	}

	kind := classifier.Kind(flagKind)
	if kind == kindAuto {
		c := classifier.Classify(markup, pageURL)
		kind = c.Kind
		app.log.Debug("classified page", "source", res.Source, "kind", kind, "reason", c.Reason)
	}
	res.Kind = kind

	switch kind {
	case classifier.KindApp:
		rec, diags := app.parser.ParseAppPageWithDiagnostics(markup, slugFor(e.Source(), e.Slug))
		res.App, res.Diagnostics = &rec, diags
		if st != nil {
			err = st.SaveAppSnapshot(ctx, rec, scrapedAt)
		}
	case classifier.KindCategory:
		if pageURL == "" {
			res.Error = "category entries need a url"
			return res
		}
		rec, diags := app.parser.ParseCategoryPageWithDiagnostics(markup, pageURL)
		res.Category, res.Diagnostics = &rec, diags
		if st != nil {
			err = st.SaveCategorySnapshot(ctx, rec, scrapedAt)
		}
	default:
		res.Error = "not an app or category page"
		return res
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

func init() {
	ingestCmd.Flags().StringVar(&flagKind, "kind", string(kindAuto), "page kind: auto, app or category")
	ingestCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "also write parsed records as NDJSON to this file (- for stdout)")
	ingestCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "parse without storing")
}

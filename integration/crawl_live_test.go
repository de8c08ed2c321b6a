
//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/olcayay/shopify-tracker-sub001/internal/crawler"
	"github.com/olcayay/shopify-tracker-sub001/internal/keywords"
	"github.com/olcayay/shopify-tracker-sub001/internal/parser"
	"github.com/olcayay/shopify-tracker-sub001/pkg/logger"
)

func TestLiveCategoryPage(t *testing.T) {
	// live marketplace markup (subject to change / blocking)
	client := crawler.New(crawler.Options{Timeout: 25 * time.Second, Logger: logger.Discard()})
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pages, err := client.CrawlCategory(ctx, "https://apps.shopify.com/categories/store-management-support", 2)
	if err != nil || len(pages) == 0 {
		t.Skipf("skipping: fetch failed due to network/blocking: %v", err)
	}

	rec := parser.New(parser.WithLogger(logger.Discard())).ParseCategoryPage(pages[0].Body, pages[0].FinalURL)
	if rec.Slug == "" {
		t.Errorf("expected a category slug for %s", pages[0].FinalURL)
	}
	if len(rec.Apps) == 0 {
		t.Errorf("expected listings on %s", pages[0].FinalURL)
	}
}

func TestLiveAppPage(t *testing.T) {
	client := crawler.New(crawler.Options{Timeout: 25 * time.Second, Logger: logger.Discard()})
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	page, err := client.Fetch(ctx, "https://apps.shopify.com/tidio-chat")
	if err != nil {
		t.Skipf("skipping: fetch failed due to network/blocking: %v", err)
	}

	rec := parser.New(parser.WithLogger(logger.Discard())).ParseAppPage(page.Body, "tidio-chat")
	if rec.Name == "" {
		t.Errorf("expected an app name")
	}
	if len(keywords.New(keywords.DefaultTables()).Extract(keywords.MetadataFromRecord(rec))) == 0 {
		t.Errorf("expected keyword candidates")
	}
}

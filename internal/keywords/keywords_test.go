
package keywords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olcayay/shopify-tracker-sub001/internal/models"
	"github.com/olcayay/shopify-tracker-sub001/internal/textutil"
)

func find(list []models.KeywordCandidate, kw string) (models.KeywordCandidate, bool) {
	for _, c := range list {
		if c.Keyword == kw {
			return c, true
		}
	}
	return models.KeywordCandidate{}, false
}

func TestExtractLiveChat(t *testing.T) {
	m := New(DefaultTables())
	got := m.Extract(Metadata{Name: "Tidio Live Chat", Subtitle: "Live chat for your store"})

	lc, ok := find(got, "live chat")
	require.True(t, ok, "expected live chat in %v", got)
	require.GreaterOrEqual(t, len(lc.Sources), 2)
	require.Equal(t, []models.Provenance{{Field: FieldName, Weight: 10}, {Field: FieldSubtitle, Weight: 6}}, lc.Sources)
	require.Greater(t, lc.Score, DefaultWeights().Name)
	require.Equal(t, 32.0, lc.Score)
	require.Equal(t, "live chat", got[0].Keyword)

	_, ok = find(got, "tidio")
	require.False(t, ok, "single-field keyword must be dropped")
	_, ok = find(got, "tidio live chat")
	require.False(t, ok)
}

func TestExtractScoreGrowsWithCorroboration(t *testing.T) {
	m := New(DefaultTables())
	md := Metadata{Name: "Tidio Live Chat", Subtitle: "Live chat for your store"}
	base, _ := find(m.Extract(md), "live chat")

	md.Introduction = "Answer shoppers with live chat."
	more, _ := find(m.Extract(md), "live chat")
	require.Greater(t, more.Score, base.Score)

	md.Categories = []string{"Live chat"}
	evenMore, _ := find(m.Extract(md), "live chat")
	require.Greater(t, evenMore.Score, more.Score)
	require.Len(t, evenMore.Sources, 4)
}

func TestExtractRequiresPrimaryField(t *testing.T) {
	m := New(DefaultTables())
	got := m.Extract(Metadata{
		Name:             "Gorgias",
		Categories:       []string{"Helpdesk software"},
		CategoryFeatures: []string{"Helpdesk software"},
	})
	_, ok := find(got, "helpdesk software")
	require.False(t, ok, "structural-only keyword must be dropped")
}

func TestExtractBounds(t *testing.T) {
	m := New(DefaultTables())
	md := Metadata{
		Name:         "Super fast product image zoom for the shop",
		Subtitle:     "Super fast product image zoom for the shop",
		Introduction: "Add an image zoom and a fast gallery to your store",
	}
	stop := textutil.DefaultStopWords()
	for _, c := range m.Extract(md) {
		words := strings.Fields(c.Keyword)
		require.LessOrEqual(t, len(words), 3, c.Keyword)
		if len(words) == 1 {
			require.GreaterOrEqual(t, len(c.Keyword), 4, c.Keyword)
			require.False(t, stop.Contains(c.Keyword), c.Keyword)
		}
	}
	zoom, ok := find(m.Extract(md), "image zoom")
	require.True(t, ok)
	require.Equal(t, 3, zoom.Count)
}

func TestMaxWordsClamped(t *testing.T) {
	tables := DefaultTables()
	tables.MaxWords = 6
	md := Metadata{
		Name:     "Super fast product image zoom gallery",
		Subtitle: "Super fast product image zoom gallery",
	}
	got := New(tables).Extract(md)
	require.NotEmpty(t, got)
	for _, c := range got {
		require.LessOrEqual(t, len(strings.Fields(c.Keyword)), MaxKeywordWords, c.Keyword)
	}
}

func TestExtractDeterministicOrder(t *testing.T) {
	m := New(DefaultTables())
	md := Metadata{
		Name:        "Pagefly Landing Page Builder",
		Subtitle:    "Drag and drop landing page builder",
		Description: "Build a landing page or a product page with the page builder.",
		Features:    []string{"Drag and drop editor", "Landing page templates"},
	}
	first := m.Extract(md)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, m.Extract(md))
	}
	for i := 1; i < len(first); i++ {
		require.GreaterOrEqual(t, first[i-1].Score, first[i].Score)
	}
}

func TestInjectedTables(t *testing.T) {
	tables := DefaultTables()
	tables.StopWords = tables.StopWords.With("chat")
	got := New(tables).Extract(Metadata{Name: "Tidio Live Chat", Subtitle: "Live chat for your store"})
	_, ok := find(got, "chat")
	require.False(t, ok)
	_, ok = find(got, "live chat")
	require.False(t, ok, "bigram ending on a stop word is dropped")
	_, ok = find(got, "live")
	require.True(t, ok)
}

func TestMetadataFromRecord(t *testing.T) {
	rec := models.AppRecord{
		Name:     "Tidio",
		Subtitle: "Live chat",
		Features: []string{"AI chatbot"},
		Categories: []models.AppCategory{
			{Slug: "support", Title: "Support", Subcategories: []models.Subcategory{
				{Key: "chat", Title: "Chat", Features: []models.Feature{{Handle: "s.c.chat.live", Title: "Live chat"}}},
			}},
			{Slug: "x", Title: "Unknown", Subcategories: []models.Subcategory{{Key: "general", Title: "General"}}},
		},
	}
	md := MetadataFromRecord(rec)
	require.Equal(t, []string{"Support", "Chat", "General"}, md.Categories)
	require.Equal(t, []string{"Live chat"}, md.CategoryFeatures)
	require.Equal(t, []string{"AI chatbot"}, md.Features)
}

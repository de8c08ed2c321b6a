
package parser

import (
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/olcayay/shopify-tracker-sub001/internal/models"
)

const pricingSection = `<section id="adp-pricing">
  <h2>Pricing</h2>
  <div class="app-details-pricing-plan-card">
    <p>Free</p>
    <p>Free</p>
    <ul><li>50 conversations</li><li>Live chat</li></ul>
  </div>
  <div class="app-details-pricing-plan-card">
    <p>Starter</p>
    <p>$29 / month</p>
    <p>or $290/year (save 17%)</p>
    <p>7-day free trial</p>
    <p>100 conversations</p>
    <p>Basic analytics</p>
  </div>
</section>`

const appPageTemplate = `<!doctype html><html lang="en"><head>
<title>Tidio Live Chat | Shopify App Store</title>
<meta name="description" content="Live chat, AI chatbot and helpdesk for your store">
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"SoftwareApplication","name":"Tidio Live Chat",
 "aggregateRating":{"@type":"AggregateRating","ratingValue":4.7,"ratingCount":"1,834"}}
</script>
</head><body>
<div class="app-header">
  <h1>Tidio - Live Chat &amp; AI Bot</h1>
  <p>Live chat for your store</p>
  <a href="/partners/tidio">Tidio LLC</a>
  <a href="https://www.tidio.com" data-developer-website>Website</a>
  <a href="https://tidio-demo.myshopify.com">View demo store</a>
</div>
<section id="app-details">
  <h2>App details</h2>
  <h3>Convert visitors with live chat and AI</h3>
  <p>Talk to shoppers in real time and answer questions with an AI chatbot.</p>
  <p>Tidio combines live chat, chatbots and a shared inbox so your team can reply from one place.</p>
  <ul>
    <li>Live chat with visitors in real time</li>
    <li>AI chatbot that answers common questions</li>
  </ul>
</section>
<div class="app-meta">
  <div><p>Languages</p><p>English, German, French and Spanish</p></div>
  <div><p>Works with</p><ul><li>Instagram</li><li>Messenger</li></ul></div>
  <div><p>Categories</p>
    <a href="/categories/store-management-support">Support</a>
    <a href="/categories/store-management-support/all?feature_handles[]=sm.support.chat.live-chat">Live chat</a>
    <a href="/categories/store-management-support/all?feature_handles%5B%5D=sm.support.chat.chatbot">Chatbot</a>
    <a href="/categories/store-management-support/all?feature_handles[]=sm.support.helpdesk.inbox">Shared inbox</a>
    <a href="/categories/marketing-and-conversion/all?feature_handles[]=mc.popups">Popups</a>
  </div>
</div>
{{pricing}}
<p>Free plan available. Free trial available.</p>
</body></html>`

var appPage = appPageWith(pricingSection)

func appPageWith(pricing string) string {
	return strings.Replace(appPageTemplate, "{{pricing}}", pricing, 1)
}

func testParser() *Parser {
	return New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestParseAppPage(t *testing.T) {
	rec, diags := testParser().ParseAppPageWithDiagnostics(appPage, "tidio-chat")
	require.Empty(t, diags)

	require.Equal(t, "tidio-chat", rec.Slug)
	require.Equal(t, "Tidio Live Chat", rec.Name)
	require.Equal(t, "Live chat for your store", rec.Subtitle)
	require.Equal(t, "Convert visitors with live chat and AI", rec.Title)
	require.Equal(t, "Talk to shoppers in real time and answer questions with an AI chatbot.", rec.Introduction)
	require.Equal(t, "Tidio combines live chat, chatbots and a shared inbox so your team can reply from one place.", rec.Description)
	require.Equal(t, []string{"Live chat with visitors in real time", "AI chatbot that answers common questions"}, rec.Features)
	require.Equal(t, "Free plan available", rec.PricingSummary)

	require.NotNil(t, rec.AverageRating)
	require.InDelta(t, 4.7, *rec.AverageRating, 1e-9)
	require.NotNil(t, rec.RatingCount)
	require.Equal(t, 1834, *rec.RatingCount)

	require.Equal(t, models.Developer{
		Name:    "Tidio LLC",
		URL:     "https://apps.shopify.com/partners/tidio",
		Website: "https://www.tidio.com",
	}, rec.Developer)
	require.NotNil(t, rec.DemoStoreURL)
	require.Equal(t, "https://tidio-demo.myshopify.com", *rec.DemoStoreURL)

	require.Equal(t, []string{"English", "German", "French", "Spanish"}, rec.Languages)
	require.Equal(t, []string{"Instagram", "Messenger"}, rec.Integrations)
}

func TestParseAppPageCategories(t *testing.T) {
	rec := testParser().ParseAppPage(appPage, "tidio-chat")
	require.Len(t, rec.Categories, 2)

	support := rec.Categories[0]
	require.Equal(t, "store-management-support", support.Slug)
	require.Equal(t, "Support", support.Title)
	require.Equal(t, "https://apps.shopify.com/categories/store-management-support", support.URL)
	require.Len(t, support.Subcategories, 2)
	require.Equal(t, "chat", support.Subcategories[0].Key)
	require.Equal(t, "Chat", support.Subcategories[0].Title)
	require.Equal(t, []string{"sm.support.chat.live-chat", "sm.support.chat.chatbot"}, handles(support.Subcategories[0]))
	require.Equal(t, "Live chat", support.Subcategories[0].Features[0].Title)
	require.Equal(t, "helpdesk", support.Subcategories[1].Key)

	// no plain category link for this one, and its handle is too short
	// to carry a subcategory segment
	other := rec.Categories[1]
	require.Equal(t, "Unknown", other.Title)
	require.Equal(t, "general", other.Subcategories[0].Key)

	require.Equal(t, []string{
		"sm.support.chat.live-chat", "sm.support.chat.chatbot", "sm.support.helpdesk.inbox", "mc.popups",
	}, rec.FeatureHandles())
}

func handles(sc models.Subcategory) []string {
	var out []string
	for _, f := range sc.Features {
		out = append(out, f.Handle)
	}
	return out
}

func TestParseAppPageSubcategorySegment(t *testing.T) {
	p := New(WithSubcategorySegment(1), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	rec := p.ParseAppPage(appPage, "tidio-chat")
	require.Equal(t, "support", rec.Categories[0].Subcategories[0].Key)
	require.Len(t, rec.Categories[0].Subcategories, 1)
	require.Equal(t, "popups", rec.Categories[1].Subcategories[0].Key)
}

func TestParseAppPagePricingPlans(t *testing.T) {
	rec := testParser().ParseAppPage(appPage, "tidio-chat")
	require.Len(t, rec.PricingPlans, 2)

	free := rec.PricingPlans[0]
	require.Equal(t, "Free", free.Name)
	require.Zero(t, free.Price)
	require.Equal(t, []string{"50 conversations", "Live chat"}, free.Features)
	require.Nil(t, free.Trial)

	starter := rec.PricingPlans[1]
	require.Equal(t, "Starter", starter.Name)
	require.Equal(t, 29.0, starter.Price)
	require.Equal(t, "month", starter.Period)
	require.NotNil(t, starter.YearlyPrice)
	require.Equal(t, 290.0, *starter.YearlyPrice)
	require.Equal(t, "save 17%", *starter.Discount)
	require.Equal(t, "7-day free trial", *starter.Trial)
	require.Equal(t, []string{"100 conversations", "Basic analytics"}, starter.Features)
}

func TestPricingSummaryFallsBackToFirstCard(t *testing.T) {
	markup := `<html><body><h1>Reviewer</h1>
<div data-pricing-plan><p>Basic</p><p>$9.99 per month</p></div>
<div data-pricing-plan><p>Pro</p><p>$19.99 per month</p></div>
</body></html>`
	rec := testParser().ParseAppPage(markup, "reviewer")
	require.Equal(t, "$9.99/month", rec.PricingSummary)
	require.Equal(t, "Pro", rec.PricingPlans[1].Name)
}

func TestPricingSummaryTemplates(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"plan available", `<p>$5/month</p><p>Free plan available</p>`, "Free plan available"},
		{"from price", `<p>From $4.99/mo</p>`, "From $4.99/mo"},
		{"bare price", `<div><span>$1,299</span><span>/yr</span></div>`, "$1299/year"},
		{"bare free", `<div><h1>Pinger</h1><span>Free</span></div>`, "Free"},
		{"free inside a sentence", `<p>Set up free shipping bars</p>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testParser().ParseAppPage("<html><body>"+tt.markup+"</body></html>", "x")
			require.Equal(t, tt.want, rec.PricingSummary)
		})
	}
}

func TestPricingPlanFromMinifiedCard(t *testing.T) {
	markup := `<html><body><div class="pricing-plan-card"><p>Pro</p><p>$19.99/month</p><p>Unlimited tickets</p><p>Priority support</p></div></body></html>`
	rec := testParser().ParseAppPage(markup, "x")
	require.Len(t, rec.PricingPlans, 1)
	require.Equal(t, "Pro", rec.PricingPlans[0].Name)
	require.Equal(t, 19.99, rec.PricingPlans[0].Price)
	require.Equal(t, []string{"Unlimited tickets", "Priority support"}, rec.PricingPlans[0].Features)
}

func TestParseAppPageWithoutPricingKeepsOtherFields(t *testing.T) {
	p := testParser()
	full := p.ParseAppPage(appPage, "tidio-chat")
	broken := p.ParseAppPage(appPageWith("<section><h2>Pricing</h2><p>coming soon</p></section>"), "tidio-chat")

	require.Empty(t, broken.PricingPlans)
	if diff := cmp.Diff(full, broken, cmpopts.IgnoreFields(models.AppRecord{}, "PricingPlans")); diff != "" {
		t.Fatalf("unexpected field changes (-full +broken):\n%s", diff)
	}
}

func TestParseAppPageIsIdempotent(t *testing.T) {
	p := testParser()
	a, err := json.Marshal(p.ParseAppPage(appPage, "tidio-chat"))
	require.NoError(t, err)
	b, err := json.Marshal(p.ParseAppPage(appPage, "tidio-chat"))
	require.NoError(t, err)
	require.Equal(t, string(a), string(b))
}

func TestParseAppPageNearlyEmpty(t *testing.T) {
	rec := testParser().ParseAppPage("<html><body><p>nothing here</p></body></html>", "ghost")
	require.Equal(t, "ghost", rec.Slug)
	require.Empty(t, rec.Name)
	require.Nil(t, rec.AverageRating)
	require.Nil(t, rec.RatingCount)
	require.Nil(t, rec.DemoStoreURL)
	require.NotNil(t, rec.Languages)
	require.NotNil(t, rec.Categories)
	require.NotNil(t, rec.PricingPlans)
	require.Empty(t, rec.Categories)
}

func TestParseAppPageRatingFallback(t *testing.T) {
	markup := `<html><body><h1>Judge.me Reviews</h1><p>Product reviews with photos</p>
<div class="rating">4.9 (28,114)</div></body></html>`
	rec := testParser().ParseAppPage(markup, "judgeme")
	require.Equal(t, "Judge.me Reviews", rec.Name)
	require.InDelta(t, 4.9, *rec.AverageRating, 1e-9)
	require.Equal(t, 28114, *rec.RatingCount)
}

func TestParseAppPageRatingFallbackMinified(t *testing.T) {
	markup := `<html><body><h1>Judge.me Reviews</h1><div><span>Rating</span><span>4.8</span><span>(1,234)</span></div></body></html>`
	rec := testParser().ParseAppPage(markup, "judgeme")
	require.NotNil(t, rec.AverageRating)
	require.InDelta(t, 4.8, *rec.AverageRating, 1e-9)
	require.NotNil(t, rec.RatingCount)
	require.Equal(t, 1234, *rec.RatingCount)
}

func TestNodeTextSeparatesAdjacentElements(t *testing.T) {
	doc, err := newDocument(`<div><h1>Support apps</h1><p>1,250 apps</p><script>var x = 1;</script><b>Tidio</b></div>`)
	require.NoError(t, err)
	require.Equal(t, "Support apps 1,250 apps Tidio", nodeText(doc.Find("div")))
	require.Equal(t, []string{"Support apps", "1,250 apps", "Tidio"}, textParts(doc.Find("div")))
}

func TestImplausibleRatingFallsBackToNil(t *testing.T) {
	markup := `<html><head><script type="application/ld+json">
{"@graph":[{"@type":"Organization"},{"@type":"SoftwareApplication","name":"Odd","aggregateRating":{"ratingValue":"9.5","reviewCount":3}}]}
</script></head><body><h1>Odd</h1></body></html>`
	rec, diags := testParser().ParseAppPageWithDiagnostics(markup, "odd")
	require.Equal(t, "Odd", rec.Name)
	require.Nil(t, rec.AverageRating)
	require.Equal(t, 3, *rec.RatingCount)
	require.Len(t, diags, 1)
	require.Equal(t, "averageRating", diags[0].Field)
	require.Equal(t, "odd", diags[0].Slug)
}

func TestExtractRecoversPanics(t *testing.T) {
	p := testParser()
	d := &diagnostics{slug: "x"}
	got := extract(p, d, "boom", "default", func() (string, error) {
		var m map[string]string
		m["a"] = "b"
		return "unreachable", nil
	})
	require.Equal(t, "default", got)
	require.Len(t, d.list, 1)
	require.Equal(t, "boom", d.list[0].Field)
	require.True(t, strings.HasPrefix(d.list[0].Err, "panic:"))
}

func TestDecode(t *testing.T) {
	latin1 := []byte("<html><head><meta charset=\"iso-8859-1\"></head><body>Caf\xe9</body></html>")
	got, err := Decode(strings.NewReader(string(latin1)), "text/html")
	require.NoError(t, err)
	require.Contains(t, got, "Café")

	got, err = Decode(strings.NewReader("<p>plain</p>"), "text/html; charset=utf-8")
	require.NoError(t, err)
	require.Equal(t, "<p>plain</p>", got)
}

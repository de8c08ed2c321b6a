
package parser

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/olcayay/shopify-tracker-sub001/internal/models"
)

// headings that open the marketing copy of an app page.
var titleAnchors = []string{"app details", "overview", "about this app"}

// headings that are never the marketing title.
var titleDenyList = []string{
	"pricing", "reviews", "support", "featured in", "languages", "works with",
	"categories", "more apps like this", "about the developer", "developer",
	"highlights", "rating", "resources", "launched", "app details",
	"built for", "similar apps", "media gallery",
}

var ratingTextRe = regexp.MustCompile(`(?:^|[^\d,.])([1-5](?:\.\d)?)\s*\(([\d,]+)\)`)

// ParseAppPage converts app detail page markup into a record. It never
// fails; fields that cannot be extracted keep their defaults.
func (p *Parser) ParseAppPage(markup, slug string) models.AppRecord {
	rec, _ := p.ParseAppPageWithDiagnostics(markup, slug)
	return rec
}

// ParseAppPageWithDiagnostics is ParseAppPage that also returns the field
// failures it recovered from.
func (p *Parser) ParseAppPageWithDiagnostics(markup, slug string) (models.AppRecord, []models.Diagnostic) {
	d := &diagnostics{slug: slug}
	rec := models.AppRecord{
		Slug:         slug,
		Languages:    []string{},
		Integrations: []string{},
		Features:     []string{},
		Categories:   []models.AppCategory{},
		PricingPlans: []models.PricingPlan{},
	}

	doc, err := newDocument(markup)
	if err != nil {
		p.fail(d, "document", err)
		return rec, d.list
	}

	ld := extract(p, d, "ldjson", ldApp{}, func() (ldApp, error) { return readLDJSON(doc) })

	rec.Name = extract(p, d, "name", "", func() (string, error) { return appName(doc, ld) })
	rec.Subtitle = extract(p, d, "subtitle", "", func() (string, error) { return appSubtitle(doc) })
	rec.Title = extract(p, d, "title", "", func() (string, error) {
		return nodeText(titleHeading(doc)), nil
	})
	rec.Introduction = extract(p, d, "introduction", "", func() (string, error) { return appIntroduction(doc) })
	rec.Description = extract(p, d, "description", "", func() (string, error) {
		return appDescription(doc, rec.Introduction)
	})
	rec.Features = extract(p, d, "features", []string{}, func() ([]string, error) { return appFeatures(doc), nil })
	rec.AverageRating = extract(p, d, "averageRating", (*float64)(nil), func() (*float64, error) {
		return appRating(doc, ld)
	})
	rec.RatingCount = extract(p, d, "ratingCount", (*int)(nil), func() (*int, error) {
		return appRatingCount(doc, ld)
	})
	rec.Developer = extract(p, d, "developer", models.Developer{}, func() (models.Developer, error) {
		return p.appDeveloper(doc), nil
	})
	rec.DemoStoreURL = extract(p, d, "demoStoreUrl", (*string)(nil), func() (*string, error) {
		return p.demoStore(doc), nil
	})
	rec.Languages = extract(p, d, "languages", []string{}, func() ([]string, error) {
		return labelledValues(doc, "languages"), nil
	})
	rec.Integrations = extract(p, d, "integrations", []string{}, func() ([]string, error) {
		return labelledValues(doc, "works with", "integrates with"), nil
	})
	rec.Categories = extract(p, d, "categories", []models.AppCategory{}, func() ([]models.AppCategory, error) {
		return p.appCategories(doc), nil
	})
	rec.PricingPlans = extract(p, d, "pricingPlans", []models.PricingPlan{}, func() ([]models.PricingPlan, error) {
		return pricingPlans(doc), nil
	})
	rec.PricingSummary = extract(p, d, "pricingSummary", "", func() (string, error) {
		return pricingSummary(doc), nil
	})

	return rec, d.list
}

type ldRating struct {
	Value *float64
	Count *int
}

type ldApp struct {
	Name   string
	Rating ldRating
}

var ldTypes = map[string]bool{"SoftwareApplication": true, "WebApplication": true, "Product": true}

// readLDJSON finds the first application-like object among the page's
// JSON-LD blocks. Blocks that do not decode are skipped.
func readLDJSON(doc *goquery.Document) (ldApp, error) {
	var found ldApp
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			return true
		}
		if obj := findLDObject(v); obj != nil {
			found = ldFromObject(obj)
			return false
		}
		return true
	})
	return found, nil
}

func findLDObject(v any) map[string]any {
	switch t := v.(type) {
	case []any:
		for _, it := range t {
			if obj := findLDObject(it); obj != nil {
				return obj
			}
		}
	case map[string]any:
		if typ, ok := t["@type"].(string); ok && ldTypes[typ] {
			return t
		}
		if g, ok := t["@graph"]; ok {
			return findLDObject(g)
		}
	}
	return nil
}

func ldFromObject(obj map[string]any) ldApp {
	out := ldApp{}
	if n, ok := obj["name"].(string); ok {
		out.Name = clean(n)
	}
	agg, ok := obj["aggregateRating"].(map[string]any)
	if !ok {
		return out
	}
	if f, ok := ldNumber(agg["ratingValue"]); ok {
		out.Rating.Value = ptr(f)
	}
	for _, k := range []string{"ratingCount", "reviewCount"} {
		if f, ok := ldNumber(agg[k]); ok {
			out.Rating.Count = ptr(int(f))
			break
		}
	}
	return out
}

func ldNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", ""), 64)
		return f, err == nil
	}
	return 0, false
}

func appName(doc *goquery.Document, ld ldApp) (string, error) {
	if ld.Name != "" {
		return ld.Name, nil
	}
	return nodeText(doc.Find("h1").First()), nil
}

func appSubtitle(doc *goquery.Document) (string, error) {
	h1 := doc.Find("h1").First()
	if h1.Length() > 0 {
		if t := nodeText(h1.NextAllFiltered("p").First()); t != "" {
			return t, nil
		}
		if t := nodeText(h1.Parent().Find("p").First()); t != "" {
			return t, nil
		}
	}
	return clean(doc.Find(`meta[name="description"]`).AttrOr("content", "")), nil
}

func matchesAny(text string, list []string) bool {
	text = strings.ToLower(text)
	for _, l := range list {
		if strings.HasPrefix(text, l) {
			return true
		}
	}
	return false
}

// titleHeading locates the marketing title: the first qualifying h2/h3
// after an anchor heading, or after the h1 when the page has no anchor.
func titleHeading(doc *goquery.Document) *goquery.Selection {
	headings := doc.Find("h1, h2, h3")
	hasAnchor := false
	headings.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if isAnchor(s) {
			hasAnchor = true
		}
		return !hasAnchor
	})

	afterAnchor, afterH1 := false, false
	var found *goquery.Selection
	headings.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if goquery.NodeName(s) == "h1" {
			afterH1 = true
			return true
		}
		if isAnchor(s) {
			afterAnchor = true
			return true
		}
		if (hasAnchor && !afterAnchor) || (!hasAnchor && !afterH1) {
			return true
		}
		text := nodeText(s)
		if len([]rune(text)) < 3 || matchesAny(text, titleDenyList) {
			return true
		}
		found = s
		return false
	})
	if found == nil {
		return doc.FindNodes()
	}
	return found
}

func isAnchor(s *goquery.Selection) bool {
	if goquery.NodeName(s) == "h1" {
		return false
	}
	text := strings.ToLower(nodeText(s))
	for _, a := range titleAnchors {
		if text == a {
			return true
		}
	}
	return false
}

func appIntroduction(doc *goquery.Document) (string, error) {
	title := titleHeading(doc)
	if title.Length() == 0 {
		return nodeText(doc.Find("#app-details p").First()), nil
	}
	return nodeText(title.NextAllFiltered("p").First()), nil
}

// detailsSection is the block holding the long description.
func detailsSection(doc *goquery.Document) *goquery.Selection {
	if s := doc.Find("#app-details"); s.Length() > 0 {
		return s.First()
	}
	return titleHeading(doc).Parent()
}

func appDescription(doc *goquery.Document, intro string) (string, error) {
	var parts []string
	detailsSection(doc).Find("p").Each(func(_ int, s *goquery.Selection) {
		t := nodeText(s)
		if t != "" && t != intro {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n"), nil
}

func appFeatures(doc *goquery.Document) []string {
	out := []string{}
	detailsSection(doc).Find("li").Each(func(_ int, s *goquery.Selection) {
		if t := nodeText(s); t != "" {
			out = append(out, t)
		}
	})
	return out
}

func appRating(doc *goquery.Document, ld ldApp) (*float64, error) {
	v := ld.Rating.Value
	if v == nil {
		if m := ratingTextRe.FindStringSubmatch(pageText(doc)); m != nil {
			f, _ := strconv.ParseFloat(m[1], 64)
			v = &f
		}
	}
	if v != nil && (*v < 0 || *v > 5) {
		return nil, implausibleError{"rating " + strconv.FormatFloat(*v, 'f', -1, 64)}
	}
	return v, nil
}

func appRatingCount(doc *goquery.Document, ld ldApp) (*int, error) {
	c := ld.Rating.Count
	if c == nil {
		if m := ratingTextRe.FindStringSubmatch(pageText(doc)); m != nil {
			n, err := strconv.Atoi(strings.ReplaceAll(m[2], ",", ""))
			if err != nil {
				return nil, err
			}
			c = &n
		}
	}
	if c != nil && *c < 0 {
		return nil, errors.New("negative rating count")
	}
	return c, nil
}

func (p *Parser) appDeveloper(doc *goquery.Document) models.Developer {
	dev := models.Developer{}
	if a := doc.Find(`a[href*="/partners/"]`).First(); a.Length() > 0 {
		dev.Name = nodeText(a)
		dev.URL = p.absURL(a.AttrOr("href", ""))
	}
	site := doc.Find(`a[data-developer-website]`).First()
	if site.Length() == 0 {
		doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if strings.EqualFold(nodeText(s), "website") {
				site = s
				return false
			}
			return true
		})
	}
	if site.Length() > 0 {
		dev.Website = p.absURL(site.AttrOr("href", ""))
	}
	return dev
}

var demoStoreRe = regexp.MustCompile(`(?i)demo\s+store`)

func (p *Parser) demoStore(doc *goquery.Document) *string {
	var out *string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if demoStoreRe.MatchString(nodeText(s)) {
			out = ptr(p.absURL(s.AttrOr("href", "")))
			return false
		}
		return true
	})
	return out
}

var listSplitRe = regexp.MustCompile(`\s*,\s*|\s+and\s+`)

// labelledValues reads the values shown next to a label such as
// "Languages": list items when present, else comma-separated text.
func labelledValues(doc *goquery.Document, labels ...string) []string {
	out := []string{}
	var label *goquery.Selection
	doc.Find("dt, h2, h3, h4, p, span, div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Children().Length() > 0 {
			return true
		}
		text := strings.ToLower(strings.TrimSuffix(nodeText(s), ":"))
		for _, l := range labels {
			if text == l {
				label = s
				return false
			}
		}
		return true
	})
	if label == nil {
		return out
	}

	value := label.Next()
	if value.Length() == 0 {
		value = label.Parent().Next()
	}
	if items := value.Find("li"); items.Length() > 0 {
		items.Each(func(_ int, s *goquery.Selection) {
			if t := nodeText(s); t != "" {
				out = append(out, t)
			}
		})
		return out
	}
	for _, v := range listSplitRe.Split(nodeText(value), -1) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

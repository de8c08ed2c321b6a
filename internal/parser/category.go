
package parser

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/olcayay/shopify-tracker-sub001/internal/models"
)

const appCardSelector = `[data-controller="app-card"], [data-app-card-handle-value]`

var (
	appsSuffixRe = regexp.MustCompile(`(?i)\s+apps$`)
	appCountRe   = regexp.MustCompile(`(?i)(?:^|[^\d,.])(\d[\d,]*)\s+apps?\b`)

	cardRatingRe  = regexp.MustCompile(`(?i)(\d(?:\.\d+)?)\s+out of 5 stars.*?\(([\d,]+)\).*?([\d,]+)\s+total reviews`)
	cardReviewsRe = regexp.MustCompile(`(?i)([\d,]+)\s+total reviews`)
	cardStarsRe   = regexp.MustCompile(`(?i)(\d(?:\.\d+)?)\s+out of 5 stars`)
	builtForRe    = regexp.MustCompile(`(?i)\bbuilt for \w+`)
)

// ParseCategoryPage converts category page markup into a record. It never
// fails; worst case only the slug and URL are set.
func (p *Parser) ParseCategoryPage(markup, pageURL string) models.CategoryRecord {
	rec, _ := p.ParseCategoryPageWithDiagnostics(markup, pageURL)
	return rec
}

func (p *Parser) ParseCategoryPageWithDiagnostics(markup, pageURL string) (models.CategoryRecord, []models.Diagnostic) {
	slug := slugFromCategoryURL(pageURL)
	d := &diagnostics{slug: slug}
	rec := models.CategoryRecord{
		Slug:          slug,
		URL:           pageURL,
		Apps:          []models.AppListing{},
		Subcategories: []models.CategoryLink{},
	}

	doc, err := newDocument(markup)
	if err != nil {
		p.fail(d, "document", err)
		return rec, d.list
	}

	rec.Title = extract(p, d, "title", "", func() (string, error) {
		return appsSuffixRe.ReplaceAllString(nodeText(doc.Find("h1").First()), ""), nil
	})
	rec.Breadcrumb = extract(p, d, "breadcrumb", "", func() (string, error) { return breadcrumb(doc), nil })
	rec.Description = extract(p, d, "description", "", func() (string, error) {
		return clean(doc.Find(`meta[name="description"]`).AttrOr("content", "")), nil
	})
	rec.AppCount = extract(p, d, "appCount", (*int)(nil), func() (*int, error) { return appCount(doc) })
	rec.Apps = extract(p, d, "apps", []models.AppListing{}, func() ([]models.AppListing, error) {
		return p.appListings(doc, d), nil
	})
	rec.Metrics = extract(p, d, "metrics", models.ListingMetrics{}, func() (models.ListingMetrics, error) {
		return listingMetrics(rec.Apps), nil
	})
	rec.Subcategories = extract(p, d, "subcategories", []models.CategoryLink{}, func() ([]models.CategoryLink, error) {
		return p.childCategories(doc, slug), nil
	})
	return rec, d.list
}

// slugFromCategoryURL takes the segment after /categories/, ignoring an
// /all suffix and query parameters.
func slugFromCategoryURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if s := categorySlug(u); s != "" {
		return s
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i] != "" && segs[i] != "all" {
			return segs[i]
		}
	}
	return ""
}

func breadcrumb(doc *goquery.Document) string {
	nav := doc.Find(`nav[aria-label="breadcrumb"], nav[aria-label="Breadcrumb"], .breadcrumb, .breadcrumbs`).First()
	items := nav.Find("li")
	if items.Length() == 0 {
		items = nav.Find("a")
	}
	var parts []string
	items.Each(func(_ int, s *goquery.Selection) {
		if t := nodeText(s); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " > ")
}

func appCount(doc *goquery.Document) (*int, error) {
	text := nodeText(doc.Find("h1").First().Parent())
	m := appCountRe.FindStringSubmatch(text)
	if m == nil {
		m = appCountRe.FindStringSubmatch(pageText(doc))
	}
	if m == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// appListings reads the first-page app cards, deduplicated by app and
// capped at maxListings. A card that fails is dropped on its own.
func (p *Parser) appListings(doc *goquery.Document, d *diagnostics) []models.AppListing {
	out := []models.AppListing{}
	index := map[string]int{}
	doc.Find(appCardSelector).EachWithBreak(func(i int, card *goquery.Selection) bool {
		l := extract(p, d, "apps["+strconv.Itoa(i)+"]", (*models.AppListing)(nil), func() (*models.AppListing, error) {
			return p.appListing(card)
		})
		if l == nil {
			return true
		}
		if at, dup := index[l.Slug]; dup {
			// keep a single entry per app, preferring the organic one
			if out[at].Sponsored && !l.Sponsored {
				out[at] = *l
			}
			return true
		}
		index[l.Slug] = len(out)
		out = append(out, *l)
		return len(out) < p.maxListings
	})
	return out
}

// appListing reads one card, or returns nil when the card names no app.
func (p *Parser) appListing(card *goquery.Selection) (*models.AppListing, error) {
	l := &models.AppListing{}
	link := card.AttrOr("data-app-card-app-link-value", "")
	if link == "" {
		link = card.Find(`a[href*="/apps/"]`).First().AttrOr("href", "")
	}
	l.URL = p.absURL(link)

	handle := card.AttrOr("data-app-card-handle-value", "")
	l.Slug = appSlugFromLink(l.URL)
	if l.Slug == "" {
		l.Slug = handle
	}
	if l.Slug == "" {
		return nil, nil
	}

	l.Name = clean(card.AttrOr("data-app-card-name-value", ""))
	if l.Name == "" {
		l.Name = nodeText(card.Find("h2, h3, h4").First())
	}
	if l.Name == "" {
		l.Name = nodeText(card.Find(`a[href*="/apps/"]`).First())
	}

	l.IconURL = card.AttrOr("data-app-card-icon-url-value", "")
	if l.IconURL == "" {
		l.IconURL = card.Find("img").First().AttrOr("src", "")
	}
	if l.IconURL != "" {
		l.IconURL = p.absURL(l.IconURL)
	}

	if pos := card.AttrOr("data-app-card-intra-position-value", ""); pos != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(pos)); err == nil {
			l.Position = &n
		}
	}

	text := nodeText(card)
	if m := cardRatingRe.FindStringSubmatch(text); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			l.AverageRating = &f
		}
		if n, err := strconv.Atoi(strings.ReplaceAll(m[3], ",", "")); err == nil {
			l.RatingCount = &n
		}
	} else {
		if m := cardStarsRe.FindStringSubmatch(text); m != nil {
			if f, err := strconv.ParseFloat(m[1], 64); err == nil {
				l.AverageRating = &f
			}
		}
		if m := cardReviewsRe.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
				l.RatingCount = &n
			}
		}
	}
	if l.AverageRating != nil && (*l.AverageRating < 0 || *l.AverageRating > 5) {
		return nil, implausibleError{"card rating"}
	}

	l.Sponsored = isSponsoredLink(link)
	l.BuiltForPlatform = builtForRe.MatchString(text)

	hint := nodeText(card.Find(`[data-app-card-pricing], [class*="pricing"]`).First())
	card.Find("span, p, div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if hint != "" {
			return false
		}
		if s.Children().Length() > 0 {
			return true
		}
		t := nodeText(s)
		if looksLikePricingHint(t) {
			hint = t
			return false
		}
		return true
	})
	if hint != "" {
		l.PricingHint = ptr(NormalizePricingHint(hint))
	}

	card.Find("p, [data-app-card-description]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := nodeText(s)
		if t == "" || t == hint || t == l.Name || cardStarsRe.MatchString(t) ||
			cardReviewsRe.MatchString(t) || builtForRe.MatchString(t) {
			return true
		}
		l.ShortDescription = t
		return false
	})

	return l, nil
}

func appSlugFromLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, s := range segs {
		if s == "apps" && i+1 < len(segs) {
			return segs[i+1]
		}
	}
	if u.Host != "" && strings.HasPrefix(u.Host, "apps.") && len(segs) > 0 && segs[0] != "" && segs[0] != "categories" {
		return segs[0]
	}
	return ""
}

// isSponsoredLink reports an advertisement surface in the card link.
func isSponsoredLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	st := strings.ToLower(u.Query().Get("surface_type"))
	return st == "ad" || strings.HasSuffix(st, "_ad")
}

func listingMetrics(apps []models.AppListing) models.ListingMetrics {
	m := models.ListingMetrics{Listed: len(apps)}
	var ratingSum float64
	counted := 0
	for _, a := range apps {
		if a.Sponsored {
			m.Sponsored++
		}
		if a.BuiltForPlatform {
			m.BuiltForPlatform++
		}
		if a.PricingHint != nil && strings.HasPrefix(*a.PricingHint, HintFree) {
			m.FreeHints++
		}
		if a.AverageRating != nil {
			m.RatedApps++
			ratingSum += *a.AverageRating
		}
		if a.RatingCount != nil {
			counted++
			m.TotalReviews += *a.RatingCount
		}
	}
	if m.RatedApps > 0 {
		m.AverageRating = ratingSum / float64(m.RatedApps)
	}
	if counted > 0 {
		m.AverageRatingCount = float64(m.TotalReviews) / float64(counted)
	}
	return m
}

// childCategories returns the direct subcategories linked from the page:
// slugs extending the page slug with "-" that no other found child
// already prefixes.
func (p *Parser) childCategories(doc *goquery.Document, slug string) []models.CategoryLink {
	out := []models.CategoryLink{}
	if slug == "" {
		return out
	}
	var found []models.CategoryLink
	seen := map[string]bool{}
	doc.Find(`a[href*="/categories/"]`).Each(func(_ int, s *goquery.Selection) {
		u, err := url.Parse(s.AttrOr("href", ""))
		if err != nil {
			return
		}
		child := categorySlug(u)
		if child == slug || !strings.HasPrefix(child, slug+"-") || seen[child] {
			return
		}
		seen[child] = true
		u.RawQuery = ""
		found = append(found, models.CategoryLink{Slug: child, Title: nodeText(s), URL: p.absURL(u.String())})
	})
	for _, c := range found {
		direct := true
		for _, other := range found {
			if other.Slug != c.Slug && strings.HasPrefix(c.Slug, other.Slug+"-") {
				direct = false
				break
			}
		}
		if direct {
			out = append(out, c)
		}
	}
	return out
}

// ShouldUseAllPage reports whether the caller should fetch the /all
// variant of a category page: the page lists no apps, or links to a full
// category listing. Feature-filtered /all links do not count.
func ShouldUseAllPage(markup string) bool {
	doc, err := newDocument(markup)
	if err != nil {
		return true
	}
	if doc.Find(appCardSelector).Length() == 0 {
		return true
	}
	viewAll := false
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		viewAll = isAllListingLink(s.AttrOr("href", ""))
		return !viewAll
	})
	return viewAll
}

func isAllListingLink(href string) bool {
	u, err := url.Parse(href)
	if err != nil || categorySlug(u) == "" || len(featureHandles(u)) > 0 {
		return false
	}
	return strings.HasSuffix(strings.TrimRight(u.Path, "/"), "/all")
}

// HasNextPage reports an explicit rel="next" pagination link. Numbered
// page links alone do not count, since the last page still shows them.
func HasNextPage(markup string) bool {
	doc, err := newDocument(markup)
	if err != nil {
		return false
	}
	return doc.Find(`link[rel="next"], a[rel="next"]`).Length() > 0
}

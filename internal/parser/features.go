
package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/olcayay/shopify-tracker-sub001/internal/models"
)

const (
	generalBucket   = "general"
	unknownCategory = "Unknown"
)

// categorySlug returns the path segment following "categories", or "".
func categorySlug(u *url.URL) string {
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, s := range segs {
		if s == "categories" && i+1 < len(segs) {
			return segs[i+1]
		}
	}
	return ""
}

func featureHandles(u *url.URL) []string {
	q := u.Query()
	var out []string
	for _, k := range []string{"feature_handles[]", "feature_handles"} {
		for _, v := range q[k] {
			for _, h := range strings.Split(v, ",") {
				if h = strings.TrimSpace(h); h != "" {
					out = append(out, h)
				}
			}
		}
	}
	return out
}

// subcategoryKey buckets a handle by its dot segment at index seg. Handles
// with fewer segments fall into the general bucket.
func subcategoryKey(handle string, seg int) string {
	parts := strings.Split(handle, ".")
	if seg < len(parts) && parts[seg] != "" {
		return parts[seg]
	}
	return generalBucket
}

// humanize title-cases a bucket key. Casers are stateful, so each call
// builds its own.
func humanize(key string) string {
	return cases.Title(language.English).String(strings.NewReplacer("-", " ", "_", " ").Replace(key))
}

// appCategories rebuilds the declared category → subcategory → feature
// tree from the feature links on an app page.
func (p *Parser) appCategories(doc *goquery.Document) []models.AppCategory {
	titles := map[string]models.CategoryLink{}
	doc.Find(`a[href*="/categories/"]`).Each(func(_ int, s *goquery.Selection) {
		u, err := url.Parse(s.AttrOr("href", ""))
		if err != nil || len(featureHandles(u)) > 0 {
			return
		}
		slug := categorySlug(u)
		text := nodeText(s)
		if slug == "" || text == "" {
			return
		}
		if _, ok := titles[slug]; !ok {
			u.RawQuery = ""
			titles[slug] = models.CategoryLink{Slug: slug, Title: text, URL: p.absURL(u.String())}
		}
	})

	var order []string
	cats := map[string]*models.AppCategory{}
	seen := map[string]bool{}
	doc.Find(`a[href*="feature_handles"]`).Each(func(_ int, s *goquery.Selection) {
		u, err := url.Parse(s.AttrOr("href", ""))
		if err != nil {
			return
		}
		slug := categorySlug(u)
		if slug == "" {
			return
		}
		cat, ok := cats[slug]
		if !ok {
			link, found := titles[slug]
			cat = &models.AppCategory{Slug: slug, Title: unknownCategory, Subcategories: []models.Subcategory{}}
			if found {
				cat.Title, cat.URL = link.Title, link.URL
			}
			cats[slug] = cat
			order = append(order, slug)
		}
		title := nodeText(s)
		for _, h := range featureHandles(u) {
			if seen[slug+"|"+h] {
				continue
			}
			seen[slug+"|"+h] = true
			addFeature(cat, subcategoryKey(h, p.segment), models.Feature{
				Handle: h,
				Title:  title,
				URL:    p.absURL(s.AttrOr("href", "")),
			})
		}
	})

	out := make([]models.AppCategory, 0, len(order))
	for _, slug := range order {
		out = append(out, *cats[slug])
	}
	return out
}

func addFeature(cat *models.AppCategory, key string, f models.Feature) {
	for i := range cat.Subcategories {
		if cat.Subcategories[i].Key == key {
			cat.Subcategories[i].Features = append(cat.Subcategories[i].Features, f)
			return
		}
	}
	cat.Subcategories = append(cat.Subcategories, models.Subcategory{
		Key:      key,
		Title:    humanize(key),
		Features: []models.Feature{f},
	})
}


package models

import "time"

type Developer struct {
	Name    string `json:"name,omitempty"`
	URL     string `json:"url,omitempty"`
	Website string `json:"website,omitempty"`
}

type Feature struct {
	Handle string `json:"handle"`
	Title  string `json:"title"`
	URL    string `json:"url,omitempty"`
}

type Subcategory struct {
	Key      string    `json:"key"`
	Title    string    `json:"title"`
	Features []Feature `json:"features"`
}

type AppCategory struct {
	Slug          string        `json:"slug"`
	Title         string        `json:"title"`
	URL           string        `json:"url,omitempty"`
	Subcategories []Subcategory `json:"subcategories"`
}

type PricingPlan struct {
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Period      string   `json:"period,omitempty"`
	YearlyPrice *float64 `json:"yearlyPrice,omitempty"`
	Discount    *string  `json:"discount,omitempty"`
	Trial       *string  `json:"trial,omitempty"`
	Features    []string `json:"features"`
}

// AppRecord is the structured form of one app detail page. Fields the page
// may omit are pointers or empty slices so a record can always be built.
type AppRecord struct {
	Slug           string        `json:"slug"`
	Name           string        `json:"name"`
	Subtitle       string        `json:"subtitle"`
	Title          string        `json:"title"`
	Introduction   string        `json:"introduction"`
	Description    string        `json:"description"`
	PricingSummary string        `json:"pricingSummary"`
	AverageRating  *float64      `json:"averageRating"`
	RatingCount    *int          `json:"ratingCount"`
	Developer      Developer     `json:"developer"`
	DemoStoreURL   *string       `json:"demoStoreUrl"`
	Languages      []string      `json:"languages"`
	Integrations   []string      `json:"integrations"`
	Features       []string      `json:"features"`
	Categories     []AppCategory `json:"categories"`
	PricingPlans   []PricingPlan `json:"pricingPlans"`
}

// CategorySlugs returns the declared category slugs in page order.
func (r AppRecord) CategorySlugs() []string {
	out := make([]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		out = append(out, c.Slug)
	}
	return out
}

// FeatureHandles returns every declared feature handle across categories.
func (r AppRecord) FeatureHandles() []string {
	var out []string
	for _, c := range r.Categories {
		for _, sc := range c.Subcategories {
			for _, f := range sc.Features {
				out = append(out, f.Handle)
			}
		}
	}
	return out
}

type AppListing struct {
	Slug             string   `json:"slug"`
	Name             string   `json:"name"`
	ShortDescription string   `json:"shortDescription,omitempty"`
	AverageRating    *float64 `json:"averageRating"`
	RatingCount      *int     `json:"ratingCount"`
	URL              string   `json:"url"`
	IconURL          string   `json:"iconUrl,omitempty"`
	Position         *int     `json:"position,omitempty"`
	PricingHint      *string  `json:"pricingHint,omitempty"`
	Sponsored        bool     `json:"sponsored"`
	BuiltForPlatform bool     `json:"builtForPlatform"`
}

// ListingMetrics aggregates the first page of listings of a category.
type ListingMetrics struct {
	Listed             int     `json:"listed"`
	Sponsored          int     `json:"sponsored"`
	BuiltForPlatform   int     `json:"builtForPlatform"`
	FreeHints          int     `json:"freeHints"`
	RatedApps          int     `json:"ratedApps"`
	TotalReviews       int     `json:"totalReviews"`
	AverageRating      float64 `json:"averageRating"`
	AverageRatingCount float64 `json:"averageRatingCount"`
}

type CategoryLink struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

type CategoryRecord struct {
	Slug          string         `json:"slug"`
	URL           string         `json:"url"`
	Title         string         `json:"title"`
	Breadcrumb    string         `json:"breadcrumb"`
	Description   string         `json:"description"`
	AppCount      *int           `json:"appCount"`
	Apps          []AppListing   `json:"apps"`
	Metrics       ListingMetrics `json:"metrics"`
	Subcategories []CategoryLink `json:"subcategories"`
}

// Diagnostic records one field extractor that fell back to its default.
type Diagnostic struct {
	Field string `json:"field"`
	Slug  string `json:"slug"`
	Err   string `json:"error"`
}

type Provenance struct {
	Field  string  `json:"field"`
	Weight float64 `json:"weight"`
}

type KeywordCandidate struct {
	Keyword string       `json:"keyword"`
	Score   float64      `json:"score"`
	Count   int          `json:"count"`
	Sources []Provenance `json:"sources"`
}

type CompetitorPair struct {
	Tracked    string `json:"tracked"`
	Competitor string `json:"competitor"`
}

// AppSignals is the latest stored identity and snapshot data of one app,
// as read by the similarity batch.
type AppSignals struct {
	Slug           string   `json:"slug"`
	Name           string   `json:"name"`
	Subtitle       string   `json:"subtitle"`
	Introduction   string   `json:"introduction"`
	CategorySlugs  []string `json:"categorySlugs"`
	FeatureHandles []string `json:"featureHandles"`
}

// SimilarityResult holds the scores of one unordered app pair. AppA is
// always the lexicographically smaller slug.
type SimilarityResult struct {
	AppA       string    `json:"appA"`
	AppB       string    `json:"appB"`
	Category   float64   `json:"category"`
	Feature    float64   `json:"feature"`
	Keyword    float64   `json:"keyword"`
	Text       float64   `json:"text"`
	Overall    float64   `json:"overall"`
	ComputedAt time.Time `json:"computedAt"`
}


package keywords

import (
	"sort"
	"strings"

	"github.com/olcayay/shopify-tracker-sub001/internal/models"
	"github.com/olcayay/shopify-tracker-sub001/internal/textutil"
)

// Source fields, in the order their contributions are recorded.
const (
	FieldName             = "name"
	FieldSubtitle         = "subtitle"
	FieldIntroduction     = "introduction"
	FieldFeatures         = "features"
	FieldDescription      = "description"
	FieldCategories       = "categories"
	FieldCategoryFeatures = "categoryFeatures"
)

// FieldWeights holds the score weight of every source field.
type FieldWeights struct {
	Name             float64 `yaml:"name" json:"name"`
	Subtitle         float64 `yaml:"subtitle" json:"subtitle"`
	Introduction     float64 `yaml:"introduction" json:"introduction"`
	Features         float64 `yaml:"features" json:"features"`
	Description      float64 `yaml:"description" json:"description"`
	Categories       float64 `yaml:"categories" json:"categories"`
	CategoryFeatures float64 `yaml:"category_features" json:"categoryFeatures"`
}

func DefaultWeights() FieldWeights {
	return FieldWeights{
		Name:             10,
		Subtitle:         6,
		Introduction:     4,
		Features:         3,
		Description:      2,
		Categories:       3,
		CategoryFeatures: 2,
	}
}

// MaxKeywordWords is the longest n-gram a Miner ever returns.
const MaxKeywordWords = 3

// Tables is the immutable configuration a Miner works from.
type Tables struct {
	Weights       FieldWeights
	StopWords     textutil.StopWords
	MinSources    int
	MaxWords      int
	MinUnigramLen int
}

func DefaultTables() Tables {
	return Tables{
		Weights:       DefaultWeights(),
		StopWords:     textutil.DefaultStopWords(),
		MinSources:    2,
		MaxWords:      MaxKeywordWords,
		MinUnigramLen: 4,
	}
}

// Metadata is the app text a Miner reads. Features, Categories and
// CategoryFeatures are lists whose items are mined separately, so no
// n-gram spans two items.
type Metadata struct {
	Name             string
	Subtitle         string
	Introduction     string
	Description      string
	Features         []string
	Categories       []string
	CategoryFeatures []string
}

// MetadataFromRecord collects miner input from a parsed app record.
// Categories carries category and subcategory titles; CategoryFeatures
// the declared feature titles.
func MetadataFromRecord(r models.AppRecord) Metadata {
	md := Metadata{
		Name:         r.Name,
		Subtitle:     r.Subtitle,
		Introduction: r.Introduction,
		Description:  r.Description,
		Features:     r.Features,
	}
	for _, c := range r.Categories {
		if c.Title != "" && c.Title != "Unknown" {
			md.Categories = append(md.Categories, c.Title)
		}
		for _, sc := range c.Subcategories {
			md.Categories = append(md.Categories, sc.Title)
			for _, f := range sc.Features {
				md.CategoryFeatures = append(md.CategoryFeatures, f.Title)
			}
		}
	}
	return md
}

type field struct {
	name    string
	weight  float64
	primary bool
	texts   []string
}

func (m *Miner) fields(md Metadata) []field {
	w := m.t.Weights
	return []field{
		{FieldName, w.Name, true, []string{md.Name}},
		{FieldSubtitle, w.Subtitle, true, []string{md.Subtitle}},
		{FieldIntroduction, w.Introduction, true, []string{md.Introduction}},
		{FieldFeatures, w.Features, true, md.Features},
		{FieldDescription, w.Description, true, []string{md.Description}},
		{FieldCategories, w.Categories, false, md.Categories},
		{FieldCategoryFeatures, w.CategoryFeatures, false, md.CategoryFeatures},
	}
}

type Miner struct {
	t Tables
}

func New(t Tables) *Miner {
	if t.StopWords == nil {
		t.StopWords = textutil.StopWords{}
	}
	if t.MaxWords <= 0 || t.MaxWords > MaxKeywordWords {
		t.MaxWords = MaxKeywordWords
	}
	return &Miner{t: t}
}

type candidate struct {
	score   float64
	count   int
	primary bool
	sources []models.Provenance
}

// Extract returns the keyword candidates of md ordered by descending
// score. A keyword is kept only when it occurs in a primary text field and
// in at least MinSources distinct fields overall.
func (m *Miner) Extract(md Metadata) []models.KeywordCandidate {
	cands := map[string]*candidate{}
	for _, f := range m.fields(md) {
		inField := map[string]bool{}
		for _, text := range f.texts {
			tokens := textutil.Tokenize(text)
			for n := 1; n <= m.t.MaxWords; n++ {
				for _, gram := range textutil.NGrams(tokens, n) {
					if !m.acceptable(gram, n) {
						continue
					}
					c, ok := cands[gram]
					if !ok {
						c = &candidate{}
						cands[gram] = c
					}
					c.count++
					if inField[gram] {
						continue
					}
					inField[gram] = true
					c.score += f.weight * float64(n)
					c.primary = c.primary || f.primary
					c.sources = append(c.sources, models.Provenance{Field: f.name, Weight: f.weight})
				}
			}
		}
	}

	out := make([]models.KeywordCandidate, 0, len(cands))
	for kw, c := range cands {
		if !c.primary || len(c.sources) < m.t.MinSources {
			continue
		}
		out = append(out, models.KeywordCandidate{
			Keyword: kw,
			Score:   c.score,
			Count:   c.count,
			Sources: c.sources,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].Keyword < out[j].Keyword
		}
		return out[i].Score > out[j].Score
	})
	return out
}

// acceptable filters n-grams: unigrams must be long enough and not stop
// words; longer grams may not start or end on a stop word.
func (m *Miner) acceptable(gram string, n int) bool {
	if n > m.t.MaxWords {
		return false
	}
	words := strings.Fields(gram)
	if n == 1 {
		return len([]rune(gram)) >= m.t.MinUnigramLen && !m.t.StopWords.Contains(gram)
	}
	return !m.t.StopWords.Contains(words[0]) && !m.t.StopWords.Contains(words[len(words)-1])
}

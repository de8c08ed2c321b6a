
package similarity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/olcayay/shopify-tracker-sub001/internal/models"
	"github.com/olcayay/shopify-tracker-sub001/internal/textutil"
)

// Weights combines the four component scores into the overall score.
type Weights struct {
	Category float64 `yaml:"category" json:"category"`
	Feature  float64 `yaml:"feature" json:"feature"`
	Keyword  float64 `yaml:"keyword" json:"keyword"`
	Text     float64 `yaml:"text" json:"text"`
}

func DefaultWeights() Weights {
	return Weights{Category: 0.25, Feature: 0.25, Keyword: 0.25, Text: 0.25}
}

var ErrInvalidWeights = errors.New("similarity weights must be non-negative and sum to 1")

func (w Weights) Validate() error {
	if w.Category < 0 || w.Feature < 0 || w.Keyword < 0 || w.Text < 0 {
		return ErrInvalidWeights
	}
	if math.Abs(w.Category+w.Feature+w.Keyword+w.Text-1) > 1e-9 {
		return ErrInvalidWeights
	}
	return nil
}

// Signals are the per-app sets compared across a pair.
type Signals struct {
	Categories textutil.Set[string]
	Features   textutil.Set[string]
	Keywords   textutil.Set[int64]
	Text       textutil.Set[string]
}

// Canonical orders a pair so the lexicographically smaller slug is first.
func Canonical(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Score compares two apps. The pair is canonicalized first, so
// Score(a, b) and Score(b, a) are bit-identical.
func Score(slugA string, a Signals, slugB string, b Signals, w Weights) models.SimilarityResult {
	if slugB < slugA {
		slugA, slugB = slugB, slugA
		a, b = b, a
	}
	r := models.SimilarityResult{
		AppA:     slugA,
		AppB:     slugB,
		Category: textutil.Jaccard(a.Categories, b.Categories),
		Feature:  textutil.Jaccard(a.Features, b.Features),
		Keyword:  textutil.Jaccard(a.Keywords, b.Keywords),
		Text:     textutil.Jaccard(a.Text, b.Text),
	}
	r.Overall = w.Category*r.Category + w.Feature*r.Feature + w.Keyword*r.Keyword + w.Text*r.Text
	return r
}

// Source supplies the stored inputs of a batch.
type Source interface {
	TrackedPairs(ctx context.Context) ([]models.CompetitorPair, error)
	AppSignals(ctx context.Context, slugs []string) (map[string]models.AppSignals, error)
	RankedKeywords(ctx context.Context, slugs []string) (map[string][]int64, error)
}

// Sink stores one result, replacing any earlier result for the pair.
type Sink interface {
	UpsertSimilarity(ctx context.Context, r models.SimilarityResult) error
}

type Stats struct {
	Pairs   int `json:"pairs"`
	Apps    int `json:"apps"`
	Scored  int `json:"scored"`
	Skipped int `json:"skipped"`
}

type Scorer struct {
	src         Source
	sink        Sink
	weights     Weights
	stop        textutil.StopWords
	minTokenLen int
	now         func() time.Time
	log         *slog.Logger
}

type Option func(*Scorer)

func WithWeights(w Weights) Option {
	return func(s *Scorer) { s.weights = w }
}

func WithStopWords(sw textutil.StopWords) Option {
	return func(s *Scorer) { s.stop = sw }
}

// WithMinTokenLength sets the shortest token kept in the text bag.
func WithMinTokenLength(n int) Option {
	return func(s *Scorer) { s.minTokenLen = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scorer) { s.log = l }
}

func New(src Source, sink Sink, opts ...Option) (*Scorer, error) {
	s := &Scorer{
		src:         src,
		sink:        sink,
		weights:     DefaultWeights(),
		stop:        textutil.DefaultStopWords(),
		minTokenLen: 3,
		now:         time.Now,
		log:         slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.weights.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Signals derives the comparison sets of one app.
func (s *Scorer) Signals(app models.AppSignals, keywordIDs []int64) Signals {
	return Signals{
		Categories: textutil.NewSet(app.CategorySlugs...),
		Features:   textutil.NewSet(app.FeatureHandles...),
		Keywords:   textutil.NewSet(keywordIDs...),
		Text:       textutil.BagOfWords(s.stop, s.minTokenLen, app.Name, app.Subtitle, app.Introduction),
	}
}

// Run scores every tracked pair once. Signals are derived once per app and
// shared by all its pairs. Any storage error fails the whole run; pairs
// upserted before the failure stay valid.
func (s *Scorer) Run(ctx context.Context) (Stats, error) {
	var st Stats
	pairs, err := s.src.TrackedPairs(ctx)
	if err != nil {
		return st, fmt.Errorf("loading tracked pairs: %w", err)
	}
	st.Pairs = len(pairs)

	var slugs []string
	involved := map[string]bool{}
	for _, p := range pairs {
		for _, slug := range []string{p.Tracked, p.Competitor} {
			if !involved[slug] {
				involved[slug] = true
				slugs = append(slugs, slug)
			}
		}
	}
	st.Apps = len(slugs)
	if len(slugs) == 0 {
		return st, nil
	}

	apps, err := s.src.AppSignals(ctx, slugs)
	if err != nil {
		return st, fmt.Errorf("loading app signals: %w", err)
	}
	ranked, err := s.src.RankedKeywords(ctx, slugs)
	if err != nil {
		return st, fmt.Errorf("loading keyword rankings: %w", err)
	}

	signals := make(map[string]Signals, len(slugs))
	for _, slug := range slugs {
		app, ok := apps[slug]
		if !ok {
			app = models.AppSignals{Slug: slug}
		}
		signals[slug] = s.Signals(app, ranked[slug])
	}

	now := s.now().UTC()
	done := map[[2]string]bool{}
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		a, b := Canonical(p.Tracked, p.Competitor)
		key := [2]string{a, b}
		if a == b || done[key] {
			st.Skipped++
			continue
		}
		done[key] = true

		r := Score(a, signals[a], b, signals[b], s.weights)
		r.ComputedAt = now
		if err := s.sink.UpsertSimilarity(ctx, r); err != nil {
			return st, fmt.Errorf("upserting similarity %s/%s: %w", a, b, err)
		}
		st.Scored++
	}

	s.log.InfoContext(ctx, "similarity batch finished",
		"pairs", st.Pairs, "apps", st.Apps, "scored", st.Scored, "skipped", st.Skipped)
	return st, nil
}


package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/olcayay/shopify-tracker-sub001/internal/models"
	"github.com/olcayay/shopify-tracker-sub001/internal/textutil"
)

var ErrNotFound = errors.New("not found")

// Store keeps snapshots, rankings, competitor links and similarity results
// in a single SQLite file. Writes go through one connection.
type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Store{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS app_snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			slug       TEXT NOT NULL,
			scraped_at DATETIME NOT NULL,
			record     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_app_snapshots_slug ON app_snapshots(slug, scraped_at DESC);

		CREATE TABLE IF NOT EXISTS category_snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			slug       TEXT NOT NULL,
			scraped_at DATETIME NOT NULL,
			record     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_category_snapshots_slug ON category_snapshots(slug, scraped_at DESC);

		CREATE TABLE IF NOT EXISTS keywords (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			keyword TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS keyword_rankings (
			slug        TEXT NOT NULL,
			keyword_id  INTEGER NOT NULL REFERENCES keywords(id),
			position    INTEGER,
			observed_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_keyword_rankings_slug ON keyword_rankings(slug);

		CREATE TABLE IF NOT EXISTS competitors (
			tracked_slug    TEXT NOT NULL,
			competitor_slug TEXT NOT NULL,
			PRIMARY KEY (tracked_slug, competitor_slug)
		);

		CREATE TABLE IF NOT EXISTS app_similarity (
			app_a          TEXT NOT NULL,
			app_b          TEXT NOT NULL,
			category_score REAL NOT NULL,
			feature_score  REAL NOT NULL,
			keyword_score  REAL NOT NULL,
			text_score     REAL NOT NULL,
			overall_score  REAL NOT NULL,
			computed_at    DATETIME NOT NULL,
			PRIMARY KEY (app_a, app_b)
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	return errors.Join(errs...)
}

func (s *Store) SaveAppSnapshot(ctx context.Context, rec models.AppRecord, scrapedAt time.Time) error {
	if rec.Slug == "" {
		return errors.New("app snapshot without slug")
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding app %s: %w", rec.Slug, err)
	}
	_, err = s.writeDB.ExecContext(ctx,
		`INSERT INTO app_snapshots (slug, scraped_at, record) VALUES (?, ?, ?)`,
		rec.Slug, scrapedAt.UTC(), string(raw))
	if err != nil {
		return fmt.Errorf("saving app %s: %w", rec.Slug, err)
	}
	return nil
}

// LatestApp returns the most recent snapshot of slug.
func (s *Store) LatestApp(ctx context.Context, slug string) (models.AppRecord, error) {
	var rec models.AppRecord
	var raw string
	err := s.readDB.QueryRowContext(ctx, `
		SELECT record FROM app_snapshots
		WHERE slug = ?
		ORDER BY scraped_at DESC, id DESC
		LIMIT 1`, slug).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("app %s: %w", slug, ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("reading app %s: %w", slug, err)
	}
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return rec, fmt.Errorf("decoding app %s: %w", slug, err)
	}
	return rec, nil
}

func (s *Store) SaveCategorySnapshot(ctx context.Context, rec models.CategoryRecord, scrapedAt time.Time) error {
	if rec.Slug == "" {
		return errors.New("category snapshot without slug")
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding category %s: %w", rec.Slug, err)
	}
	_, err = s.writeDB.ExecContext(ctx,
		`INSERT INTO category_snapshots (slug, scraped_at, record) VALUES (?, ?, ?)`,
		rec.Slug, scrapedAt.UTC(), string(raw))
	if err != nil {
		return fmt.Errorf("saving category %s: %w", rec.Slug, err)
	}
	return nil
}

func (s *Store) LatestCategory(ctx context.Context, slug string) (models.CategoryRecord, error) {
	var rec models.CategoryRecord
	var raw string
	err := s.readDB.QueryRowContext(ctx, `
		SELECT record FROM category_snapshots
		WHERE slug = ?
		ORDER BY scraped_at DESC, id DESC
		LIMIT 1`, slug).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("category %s: %w", slug, ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("reading category %s: %w", slug, err)
	}
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return rec, fmt.Errorf("decoding category %s: %w", slug, err)
	}
	return rec, nil
}

// RecordRanking stores one observation of slug on a keyword search. A nil
// position records that the app was looked for but not found.
func (s *Store) RecordRanking(ctx context.Context, slug, keyword string, position *int, observedAt time.Time) (int64, error) {
	kw := textutil.Normalize(keyword)
	if slug == "" || kw == "" {
		return 0, errors.New("ranking needs a slug and a keyword")
	}
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO keywords (keyword) VALUES (?) ON CONFLICT(keyword) DO NOTHING`, kw); err != nil {
		return 0, fmt.Errorf("saving keyword %q: %w", kw, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM keywords WHERE keyword = ?`, kw).Scan(&id); err != nil {
		return 0, fmt.Errorf("reading keyword %q: %w", kw, err)
	}

	var pos sql.NullInt64
	if position != nil {
		pos = sql.NullInt64{Int64: int64(*position), Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO keyword_rankings (slug, keyword_id, position, observed_at) VALUES (?, ?, ?, ?)`,
		slug, id, pos, observedAt.UTC()); err != nil {
		return 0, fmt.Errorf("saving ranking %s/%q: %w", slug, kw, err)
	}
	return id, tx.Commit()
}

func (s *Store) AddCompetitor(ctx context.Context, tracked, competitor string) error {
	if tracked == "" || competitor == "" {
		return errors.New("competitor link needs two slugs")
	}
	if tracked == competitor {
		return fmt.Errorf("app %s cannot compete with itself", tracked)
	}
	_, err := s.writeDB.ExecContext(ctx, `
		INSERT INTO competitors (tracked_slug, competitor_slug) VALUES (?, ?)
		ON CONFLICT(tracked_slug, competitor_slug) DO NOTHING`, tracked, competitor)
	if err != nil {
		return fmt.Errorf("adding competitor %s/%s: %w", tracked, competitor, err)
	}
	return nil
}

func (s *Store) TrackedPairs(ctx context.Context) ([]models.CompetitorPair, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT tracked_slug, competitor_slug FROM competitors
		ORDER BY tracked_slug, competitor_slug`)
	if err != nil {
		return nil, fmt.Errorf("querying competitors: %w", err)
	}
	defer rows.Close()

	var pairs []models.CompetitorPair
	for rows.Next() {
		var p models.CompetitorPair
		if err := rows.Scan(&p.Tracked, &p.Competitor); err != nil {
			return nil, fmt.Errorf("scanning competitor: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// AppSignals loads the latest snapshot of every slug. Slugs without a
// snapshot are absent from the result.
func (s *Store) AppSignals(ctx context.Context, slugs []string) (map[string]models.AppSignals, error) {
	out := make(map[string]models.AppSignals, len(slugs))
	for _, slug := range slugs {
		rec, err := s.LatestApp(ctx, slug)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[slug] = models.AppSignals{
			Slug:           slug,
			Name:           rec.Name,
			Subtitle:       rec.Subtitle,
			Introduction:   rec.Introduction,
			CategorySlugs:  rec.CategorySlugs(),
			FeatureHandles: rec.FeatureHandles(),
		}
	}
	return out, nil
}

// RankedKeywords returns, per slug, the keywords the app was ever found
// ranking for.
func (s *Store) RankedKeywords(ctx context.Context, slugs []string) (map[string][]int64, error) {
	out := make(map[string][]int64, len(slugs))
	for _, slug := range slugs {
		rows, err := s.readDB.QueryContext(ctx, `
			SELECT DISTINCT keyword_id FROM keyword_rankings
			WHERE slug = ? AND position IS NOT NULL
			ORDER BY keyword_id`, slug)
		if err != nil {
			return nil, fmt.Errorf("querying rankings of %s: %w", slug, err)
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning ranking: %w", err)
			}
			ids = append(ids, id)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
		out[slug] = ids
	}
	return out, nil
}

func (s *Store) UpsertSimilarity(ctx context.Context, r models.SimilarityResult) error {
	if r.AppB < r.AppA {
		return fmt.Errorf("similarity pair %s/%s is not canonical", r.AppA, r.AppB)
	}
	_, err := s.writeDB.ExecContext(ctx, `
		INSERT INTO app_similarity
			(app_a, app_b, category_score, feature_score, keyword_score, text_score, overall_score, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(app_a, app_b) DO UPDATE SET
			category_score = excluded.category_score,
			feature_score = excluded.feature_score,
			keyword_score = excluded.keyword_score,
			text_score = excluded.text_score,
			overall_score = excluded.overall_score,
			computed_at = excluded.computed_at`,
		r.AppA, r.AppB, r.Category, r.Feature, r.Keyword, r.Text, r.Overall, r.ComputedAt.UTC())
	if err != nil {
		return fmt.Errorf("upserting similarity %s/%s: %w", r.AppA, r.AppB, err)
	}
	return nil
}

// Similarities returns every stored result involving slug, best first.
func (s *Store) Similarities(ctx context.Context, slug string) ([]models.SimilarityResult, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT app_a, app_b, category_score, feature_score, keyword_score, text_score, overall_score, computed_at
		FROM app_similarity
		WHERE app_a = ? OR app_b = ?
		ORDER BY overall_score DESC, app_a, app_b`, slug, slug)
	if err != nil {
		return nil, fmt.Errorf("querying similarities of %s: %w", slug, err)
	}
	defer rows.Close()

	var out []models.SimilarityResult
	for rows.Next() {
		var r models.SimilarityResult
		if err := rows.Scan(&r.AppA, &r.AppB, &r.Category, &r.Feature, &r.Keyword, &r.Text, &r.Overall, &r.ComputedAt); err != nil {
			return nil, fmt.Errorf("scanning similarity: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

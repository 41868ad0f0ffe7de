package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"finnews/internal/domain"
	"finnews/internal/ports"
)

// isoFormat is how timestamps are persisted: ISO8601 UTC with a Z suffix.
const isoFormat = "2006-01-02T15:04:05Z"

const schema = `
CREATE TABLE IF NOT EXISTS articles (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    provider     TEXT NOT NULL,
    external_id  TEXT,
    url          TEXT NOT NULL UNIQUE,
    title        TEXT NOT NULL,
    published_at TEXT,
    source       TEXT,
    language     TEXT,
    tickers_json TEXT NOT NULL DEFAULT '[]',
    raw_json     TEXT,
    inserted_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at);

CREATE TABLE IF NOT EXISTS sentiments (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    article_id  INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    engine      TEXT NOT NULL,
    score       REAL,
    label       TEXT NOT NULL,
    inserted_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sentiments_article_id ON sentiments(article_id);

CREATE TABLE IF NOT EXISTS price_moves (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    article_id  INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    symbol      TEXT NOT NULL,
    t0_utc      TEXT NOT NULL,
    t0_px       REAL NOT NULL,
    tn_utc      TEXT NOT NULL,
    tn_px       REAL NOT NULL,
    delta_pct   REAL NOT NULL,
    horizon_min INTEGER NOT NULL,
    inserted_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_price_moves_article_id ON price_moves(article_id);
`

// SQLiteStore persists articles, sentiments and price moves in one SQLite
// file. It is the single writer by construction; no locking beyond SQLite's
// own transaction guarantees is required.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.ArticleStore = (*SQLiteStore)(nil)
var _ ports.SentimentStore = (*SQLiteStore)(nil)
var _ ports.PriceMoveStore = (*SQLiteStore)(nil)
var _ ports.HeadlineReader = (*SQLiteStore)(nil)

// Open connects to the SQLite file at path, creating parent directories and
// the schema idempotently. Foreign keys and WAL are enabled on the connection.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close releases the underlying connection pool.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertArticle inserts the article or updates the mutable fields of the row
// with the same URL, preserving its id and inserted_at. The whole operation
// runs in one transaction.
func (s *SQLiteStore) UpsertArticle(ctx context.Context, article domain.Article) (int64, error) {
	tickersJSON, err := json.Marshal(tickersOrEmpty(article.Tickers))
	if err != nil {
		return 0, fmt.Errorf("marshal tickers: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := sq.Select("id").From("articles").Where(sq.Eq{"url": article.URL}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build lookup: %w", err)
	}

	var id int64
	err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		query, args, err = sq.Insert("articles").
			Columns("provider", "external_id", "url", "title", "published_at",
				"source", "language", "tickers_json", "raw_json", "inserted_at").
			Values(article.Provider, nullable(article.ExternalID), article.URL, article.Title,
				nullableTime(article.PublishedAt), nullable(article.Source), nullable(article.Language),
				string(tickersJSON), rawOrNil(article.Raw), s.now().UTC().Format(isoFormat)).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build insert: %w", err)
		}

		res, execErr := tx.ExecContext(ctx, query, args...)
		if execErr != nil {
			return 0, fmt.Errorf("insert article: %w", execErr)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("article id: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("lookup article: %w", err)
	default:
		query, args, err = sq.Update("articles").
			Set("provider", article.Provider).
			Set("external_id", nullable(article.ExternalID)).
			Set("title", article.Title).
			Set("published_at", nullableTime(article.PublishedAt)).
			Set("source", nullable(article.Source)).
			Set("language", nullable(article.Language)).
			Set("tickers_json", string(tickersJSON)).
			Set("raw_json", rawOrNil(article.Raw)).
			Where(sq.Eq{"id": id}).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build update: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("update article: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}

	return id, nil
}

// FindIDByURL reports the article id for a URL, or found=false when the URL
// has never been ingested.
func (s *SQLiteStore) FindIDByURL(ctx context.Context, url string) (int64, bool, error) {
	query, args, err := sq.Select("id").From("articles").Where(sq.Eq{"url": url}).ToSql()
	if err != nil {
		return 0, false, fmt.Errorf("build lookup: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup article: %w", err)
	}

	return id, true, nil
}

// SaveSentiment appends one classifier verdict for an article.
func (s *SQLiteStore) SaveSentiment(ctx context.Context, sentiment domain.Sentiment) (int64, error) {
	query, args, err := sq.Insert("sentiments").
		Columns("article_id", "engine", "score", "label", "inserted_at").
		Values(sentiment.ArticleID, sentiment.Engine, sentiment.Score, sentiment.Label,
			s.now().UTC().Format(isoFormat)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert sentiment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sentiment id: %w", err)
	}

	return id, nil
}

// HasSentiment reports whether a sentiment row exists for the article. An
// empty engine matches any engine.
func (s *SQLiteStore) HasSentiment(ctx context.Context, articleID int64, engine string) (bool, error) {
	builder := sq.Select("1").From("sentiments").Where(sq.Eq{"article_id": articleID}).Limit(1)
	if engine != "" {
		builder = builder.Where(sq.Eq{"engine": engine})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return false, fmt.Errorf("build lookup: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup sentiment: %w", err)
	}

	return true, nil
}

// SavePriceMove appends one sampled price delta. delta_pct is stored as
// supplied; consistency with the two price points is the caller's concern.
func (s *SQLiteStore) SavePriceMove(ctx context.Context, move domain.PriceMove) (int64, error) {
	query, args, err := sq.Insert("price_moves").
		Columns("article_id", "symbol", "t0_utc", "t0_px", "tn_utc", "tn_px",
			"delta_pct", "horizon_min", "inserted_at").
		Values(move.ArticleID, move.Symbol,
			move.T0UTC.UTC().Format(isoFormat), move.T0Px,
			move.TNUTC.UTC().Format(isoFormat), move.TNPx,
			move.DeltaPct, move.HorizonMin, s.now().UTC().Format(isoFormat)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert price move: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("price move id: %w", err)
	}

	return id, nil
}

// LatestHeadlines joins each article with its latest sentiment label, newest
// publications first.
func (s *SQLiteStore) LatestHeadlines(ctx context.Context, limit int) ([]domain.Headline, error) {
	if limit <= 0 {
		limit = 100
	}

	query, args, err := sq.Select("a.title", "COALESCE(a.source, '')", "a.url",
		"COALESCE(a.published_at, '')", "COALESCE(s.label, '')").
		From("articles a").
		LeftJoin("sentiments s ON s.id = (SELECT id FROM sentiments WHERE article_id = a.id ORDER BY id DESC LIMIT 1)").
		OrderBy("a.published_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query headlines: %w", err)
	}
	defer rows.Close()

	var headlines []domain.Headline
	for rows.Next() {
		var h domain.Headline
		if err := rows.Scan(&h.Title, &h.Source, &h.URL, &h.PublishedAt, &h.Sentiment); err != nil {
			return nil, fmt.Errorf("scan headline: %w", err)
		}
		headlines = append(headlines, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return headlines, nil
}

// SentimentCounts aggregates how many sentiment rows carry each label.
func (s *SQLiteStore) SentimentCounts(ctx context.Context) (map[string]int64, error) {
	query, args, err := sq.Select("label", "COUNT(*)").From("sentiments").GroupBy("label").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var label string
		var n int64
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[label] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return counts, nil
}

func tickersOrEmpty(tickers []string) []string {
	if tickers == nil {
		return []string{}
	}
	return tickers
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(isoFormat)
}

func rawOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

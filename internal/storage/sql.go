package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/IshaanNene/NewsPulse/internal/types"
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS analysis_results (
		session_id        TEXT PRIMARY KEY,
		keyword           TEXT NOT NULL,
		search_type       TEXT NOT NULL,
		sources           TEXT NOT NULL,
		total_articles    INTEGER NOT NULL,
		positive          INTEGER NOT NULL,
		negative          INTEGER NOT NULL,
		neutral           INTEGER NOT NULL,
		overall_sentiment TEXT,
		overall_summary   TEXT,
		total_tokens      INTEGER NOT NULL,
		estimated_cost    DOUBLE PRECISION NOT NULL,
		analyzed_at       TEXT NOT NULL,
		document          TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS analysis_articles (
		session_id      TEXT NOT NULL,
		url             TEXT NOT NULL,
		source          TEXT NOT NULL,
		matched_keyword TEXT,
		title           TEXT NOT NULL,
		sentiment       TEXT,
		confidence      DOUBLE PRECISION,
		comment_count   INTEGER NOT NULL,
		published_at    TEXT,
		PRIMARY KEY (session_id, url)
	)`,
}

// SQLStore writes results to SQLite or PostgreSQL. Each result becomes one
// session row carrying the full JSON document plus one row per article.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// NewSQLStore opens dsn with the dialect's driver and creates the schema.
func NewSQLStore(dialect Dialect, dsn string, logger *slog.Logger) (*SQLStore, error) {
	if dsn == "" {
		return nil, &types.StorageError{Backend: string(dialect), Err: errors.New("empty dsn")}
	}
	if dialect != DialectSQLite && dialect != DialectPostgres {
		return nil, fmt.Errorf("unsupported SQL dialect: %s", dialect)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, &types.StorageError{Backend: string(dialect), Err: fmt.Errorf("open: %w", err)}
	}
	if dialect == DialectSQLite {
		// database/sql pools connections; SQLite allows one writer at a time.
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, dialect: dialect, logger: logger.With("component", "sql_storage", "dialect", string(dialect))}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, &types.StorageError{Backend: string(dialect), Err: fmt.Errorf("create schema: %w", err)}
		}
	}
	return s, nil
}

func (s *SQLStore) Name() string { return string(s.dialect) }

// Save upserts the session row and replaces its article rows in one
// transaction.
func (s *SQLStore) Save(ctx context.Context, result *types.AnalysisResult) error {
	doc, err := json.Marshal(result)
	if err != nil {
		return s.wrap(fmt.Errorf("encode document: %w", err))
	}

	var counts types.SentimentCounts
	if result.SentimentDistribution != nil {
		counts = *result.SentimentDistribution
	}
	var usage types.TokenUsage
	if result.TokenUsage != nil {
		usage = *result.TokenUsage
	}
	overall, summary := "", result.OverallSummary
	if result.Trend != nil {
		overall = string(result.Trend.OverallSentiment)
	}
	analyzedAt := time.Now()
	if result.AnalyzedAt != nil {
		analyzedAt = *result.AnalyzedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.wrap(fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO analysis_results
		(session_id, keyword, search_type, sources, total_articles, positive, negative, neutral,
		 overall_sentiment, overall_summary, total_tokens, estimated_cost, analyzed_at, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET document = excluded.document`),
		result.SessionID, result.Keyword, string(result.SearchType), strings.Join(result.Sources, ","),
		result.TotalArticles, counts.Positive, counts.Negative, counts.Neutral,
		overall, summary, usage.TotalTokens, usage.EstimatedCost,
		analyzedAt.UTC().Format(time.RFC3339), string(doc),
	)
	if err != nil {
		return s.wrap(fmt.Errorf("insert result: %w", err))
	}

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM analysis_articles WHERE session_id = ?`), result.SessionID); err != nil {
		return s.wrap(fmt.Errorf("clear articles: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO analysis_articles
		(session_id, url, source, matched_keyword, title, sentiment, confidence, comment_count, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, url) DO NOTHING`))
	if err != nil {
		return s.wrap(fmt.Errorf("prepare: %w", err))
	}
	defer stmt.Close()

	for _, a := range result.Articles {
		var label sql.NullString
		var confidence sql.NullFloat64
		if a.Sentiment != nil {
			label = sql.NullString{String: string(a.Sentiment.Label), Valid: true}
			confidence = sql.NullFloat64{Float64: a.Sentiment.Confidence, Valid: true}
		}
		var published sql.NullString
		if a.PublishedAt != nil {
			published = sql.NullString{String: a.PublishedAt.UTC().Format(time.RFC3339), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, result.SessionID, a.URL, string(a.Source), a.MatchedKeyword,
			a.Title, label, confidence, a.CommentCount, published); err != nil {
			return s.wrap(fmt.Errorf("insert article: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return s.wrap(fmt.Errorf("commit: %w", err))
	}
	s.logger.Debug("result stored", "session", result.SessionID, "articles", len(result.Articles))
	return nil
}

// Get loads the stored document of one session.
func (s *SQLStore) Get(ctx context.Context, sessionID string) (*types.AnalysisResult, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT document FROM analysis_results WHERE session_id = ?`), sessionID).Scan(&doc)
	if err != nil {
		return nil, s.wrap(err)
	}
	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(doc), &result); err != nil {
		return nil, s.wrap(fmt.Errorf("decode document: %w", err))
	}
	return &result, nil
}

// ArticleCount returns the number of article rows stored for a session.
func (s *SQLStore) ArticleCount(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM analysis_articles WHERE session_id = ?`), sessionID).Scan(&n)
	if err != nil {
		return 0, s.wrap(err)
	}
	return n, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *SQLStore) wrap(err error) error {
	return &types.StorageError{Backend: string(s.dialect), Err: err}
}

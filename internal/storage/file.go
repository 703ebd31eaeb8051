package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/IshaanNene/NewsPulse/internal/types"
)

// --- JSON Storage ---

// JSONStore buffers results and writes them as one JSON array on Close.
type JSONStore struct {
	path    string
	results []*types.AnalysisResult
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewJSONStore creates a new JSON file store.
func NewJSONStore(outputPath string, logger *slog.Logger) (*JSONStore, error) {
	if err := ensureDir(outputPath); err != nil {
		return nil, err
	}
	return &JSONStore{
		path:    outputPath,
		results: make([]*types.AnalysisResult, 0),
		logger:  logger.With("component", "json_storage"),
	}, nil
}

func (s *JSONStore) Name() string { return "json" }

func (s *JSONStore) Save(ctx context.Context, result *types.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	s.logger.Debug("result buffered", "session", result.SessionID, "total", len(s.results))
	return nil
}

func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return &types.StorageError{Backend: "json", Err: fmt.Errorf("create output file: %w", err)}
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.results); err != nil {
		return &types.StorageError{Backend: "json", Err: fmt.Errorf("encode JSON: %w", err)}
	}

	s.logger.Info("JSON written", "path", s.path, "results", len(s.results))
	return nil
}

// --- JSONL Storage ---

// JSONLStore appends one result per line as it is saved.
type JSONLStore struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLStore opens outputPath for appending.
func NewJSONLStore(outputPath string, logger *slog.Logger) (*JSONLStore, error) {
	if err := ensureDir(outputPath); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, &types.StorageError{Backend: "jsonl", Err: fmt.Errorf("open output file: %w", err)}
	}

	return &JSONLStore{
		path:   outputPath,
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger.With("component", "jsonl_storage"),
	}, nil
}

func (s *JSONLStore) Name() string { return "jsonl" }

func (s *JSONLStore) Save(ctx context.Context, result *types.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(result); err != nil {
		return &types.StorageError{Backend: "jsonl", Err: fmt.Errorf("encode JSONL: %w", err)}
	}
	s.count++
	return nil
}

func (s *JSONLStore) Close() error {
	s.logger.Info("JSONL written", "path", s.path, "results", s.count)
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// --- CSV Storage ---

var csvHeaders = []string{
	"session_id", "keyword", "matched_keyword", "source", "url", "title",
	"sentiment", "confidence", "comment_count", "published_at", "analyzed_at",
}

// CSVStore writes one row per analysed article.
type CSVStore struct {
	path   string
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewCSVStore creates a CSV store. A header row is written to new files.
func NewCSVStore(outputPath string, logger *slog.Logger) (*CSVStore, error) {
	if err := ensureDir(outputPath); err != nil {
		return nil, err
	}

	_, statErr := os.Stat(outputPath)
	f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Err: fmt.Errorf("open output file: %w", err)}
	}

	s := &CSVStore{
		path:   outputPath,
		file:   f,
		writer: csv.NewWriter(f),
		logger: logger.With("component", "csv_storage"),
	}
	if os.IsNotExist(statErr) {
		if err := s.writer.Write(csvHeaders); err != nil {
			f.Close()
			return nil, &types.StorageError{Backend: "csv", Err: fmt.Errorf("write CSV header: %w", err)}
		}
		s.writer.Flush()
	}
	return s, nil
}

func (s *CSVStore) Name() string { return "csv" }

func (s *CSVStore) Save(ctx context.Context, result *types.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	analyzedAt := ""
	if result.AnalyzedAt != nil {
		analyzedAt = result.AnalyzedAt.Format(time.RFC3339)
	}

	for _, a := range result.Articles {
		label, confidence := "", ""
		if a.Sentiment != nil {
			label = string(a.Sentiment.Label)
			confidence = strconv.FormatFloat(a.Sentiment.Confidence, 'f', 3, 64)
		}
		published := ""
		if a.PublishedAt != nil {
			published = a.PublishedAt.Format(time.RFC3339)
		}
		row := []string{
			result.SessionID, result.Keyword, a.MatchedKeyword, string(a.Source), a.URL,
			strings.ReplaceAll(a.Title, "\n", " "), label, confidence,
			strconv.Itoa(a.CommentCount), published, analyzedAt,
		}
		if err := s.writer.Write(row); err != nil {
			return &types.StorageError{Backend: "csv", Err: fmt.Errorf("write CSV row: %w", err)}
		}
		s.count++
	}

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return &types.StorageError{Backend: "csv", Err: err}
	}
	return nil
}

func (s *CSVStore) Close() error {
	s.logger.Info("CSV written", "path", s.path, "rows", s.count)
	if s.writer != nil {
		s.writer.Flush()
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// NewFileStore creates the file-based store for storageType at path.
func NewFileStore(storageType, path string, logger *slog.Logger) (ResultStore, error) {
	if path == "" {
		path = filepath.Join("output", "results."+storageType)
	}
	switch storageType {
	case "json":
		return NewJSONStore(path, logger)
	case "jsonl":
		return NewJSONLStore(path, logger)
	case "csv":
		return NewCSVStore(path, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &types.StorageError{Backend: "file", Err: fmt.Errorf("create output dir: %w", err)}
	}
	return nil
}

package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/NewsPulse/internal/types"
)

// MongoStore writes results to a MongoDB collection, one document per
// session keyed by session id.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	mu         sync.Mutex
	count      int
	logger     *slog.Logger
}

// NewMongoStore connects to uri and verifies the connection.
func NewMongoStore(uri, database, collection string, logger *slog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("connect: %w", err)}
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("ping: %w", err)}
	}

	coll := client.Database(database).Collection(collection)
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "keyword", Value: 1}, {Key: "stored_at", Value: -1}}},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("create indexes: %w", err)}
	}

	return &MongoStore{
		client:     client,
		collection: coll,
		logger:     logger.With("component", "mongo_storage"),
	}, nil
}

// mongoDocument is the stored shape: the result inlined next to the time it
// was written, so sessions for a keyword can be listed newest first.
type mongoDocument struct {
	types.AnalysisResult `bson:",inline"`
	StoredAt             time.Time `bson:"stored_at"`
}

func (s *MongoStore) Name() string { return "mongodb" }

func (s *MongoStore) Save(ctx context.Context, result *types.AnalysisResult) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	filter := bson.M{"session_id": result.SessionID}
	opts := options.Replace().SetUpsert(true)
	doc := mongoDocument{AnalysisResult: *result, StoredAt: time.Now().UTC()}
	if _, err := s.collection.ReplaceOne(ctx, filter, doc, opts); err != nil {
		return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("upsert: %w", err)}
	}

	s.mu.Lock()
	s.count++
	total := s.count
	s.mu.Unlock()
	s.logger.Debug("result stored in mongodb", "session", result.SessionID, "total", total)
	return nil
}

func (s *MongoStore) Close() error {
	s.logger.Info("mongodb storage closing", "total_results", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// MultiStore writes every result to several backends, e.g. "jsonl,sqlite".
type MultiStore struct {
	backends []ResultStore
	logger   *slog.Logger
}

// NewMultiStore creates a store that fans out to multiple backends.
func NewMultiStore(backends []ResultStore, logger *slog.Logger) *MultiStore {
	return &MultiStore{
		backends: backends,
		logger:   logger.With("component", "multi_storage"),
	}
}

func (s *MultiStore) Name() string { return "multi" }

// Save tries every backend even after a failure and returns the first error.
func (s *MultiStore) Save(ctx context.Context, result *types.AnalysisResult) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Save(ctx, result); err != nil {
			s.logger.Error("backend save failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *MultiStore) Close() error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Package mongodb implements the collection-manager contract on top of the
// official MongoDB driver.
package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/nimburion/docmap/pkg/document"
	"github.com/nimburion/docmap/pkg/manager"
	"github.com/nimburion/docmap/pkg/observability/logger"
	"github.com/nimburion/docmap/pkg/query"
)

// expireAtField is the document field carrying the expiration timestamp for
// inserts with a ttl. A TTL index on this field is the operator's concern;
// the manager does not create indexes.
const expireAtField = "expireAt"

// Config holds MongoDB manager configuration.
type Config struct {
	URL              string
	Database         string
	ConnectTimeout   time.Duration
	OperationTimeout time.Duration
}

// Manager provides MongoDB-backed collection access.
type Manager struct {
	client   *mongo.Client
	database string
	logger   logger.Logger
	timeout  time.Duration
	mu       sync.RWMutex
	closed   bool
}

// NewManager initializes a MongoDB manager and verifies connectivity via ping.
// It does not create collections or indexes.
func NewManager(cfg Config, log logger.Logger) (*Manager, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("mongodb URL is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongodb database is required")
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 5 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.Info("MongoDB manager initialized", "database", cfg.Database)
	return &Manager{
		client:   client,
		database: cfg.Database,
		logger:   log,
		timeout:  cfg.OperationTimeout,
	}, nil
}

func (m *Manager) collection(name string) *mongo.Collection {
	return m.client.Database(m.database).Collection(name)
}

// Insert stores a new document, appending the expiration timestamp when a
// positive ttl is given.
func (m *Manager) Insert(ctx context.Context, doc document.Document, ttl time.Duration) (document.Document, error) {
	if err := m.checkOpen(); err != nil {
		return document.Document{}, err
	}
	opCtx, cancel := m.withOperationTimeout(ctx)
	defer cancel()

	stored := doc.Clone()
	if ttl > 0 {
		stored.Append(expireAtField, time.Now().UTC().Add(ttl))
	}

	res, err := m.collection(doc.Collection).InsertOne(opCtx, toBSON(stored))
	if err != nil {
		return document.Document{}, fmt.Errorf("mongodb insert failed: %w", err)
	}
	if !stored.Has("_id") && res.InsertedID != nil {
		stored.Append("_id", fromBSONValue(res.InsertedID))
	}
	return stored, nil
}

// Update replaces the stored document matching the given one's key field
// (its first field).
func (m *Manager) Update(ctx context.Context, doc document.Document) (document.Document, error) {
	if err := m.checkOpen(); err != nil {
		return document.Document{}, err
	}
	if doc.Len() == 0 {
		return document.Document{}, fmt.Errorf("update requires a non-empty document")
	}
	opCtx, cancel := m.withOperationTimeout(ctx)
	defer cancel()

	key := doc.Fields[0]
	filter := bson.M{key.Name: toBSONValue(key.Value)}
	res, err := m.collection(doc.Collection).ReplaceOne(opCtx, filter, toBSON(doc))
	if err != nil {
		return document.Document{}, fmt.Errorf("mongodb update failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return document.Document{}, fmt.Errorf("%w: no document with %s=%v in %q",
			manager.ErrNotFound, key.Name, key.Value, doc.Collection)
	}
	return doc.Clone(), nil
}

// Delete removes every document matching the descriptor.
func (m *Manager) Delete(ctx context.Context, q query.DeleteQuery) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	opCtx, cancel := m.withOperationTimeout(ctx)
	defer cancel()

	filter, err := toFilter(q.Condition)
	if err != nil {
		return err
	}
	if _, err := m.collection(q.Collection).DeleteMany(opCtx, filter); err != nil {
		return fmt.Errorf("mongodb delete failed: %w", err)
	}
	return nil
}

// Select returns a cursor-backed stream of matching documents. The stream
// reads lazily from the cursor and must be closed by the consumer.
func (m *Manager) Select(ctx context.Context, q query.Query) (document.Stream, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}

	filter, err := toFilter(q.Condition)
	if err != nil {
		return nil, err
	}

	opts := options.Find()
	if len(q.Sorts) > 0 {
		sort := bson.D{}
		for _, s := range q.Sorts {
			dir := 1
			if s.Direction == query.SortDesc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: s.Field, Value: dir})
		}
		opts.SetSort(sort)
	}
	if q.Offset > 0 {
		opts.SetSkip(q.Offset)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	// The cursor outlives this call; the caller's context governs iteration.
	cur, err := m.collection(q.Collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb select failed: %w", err)
	}
	return &cursorStream{ctx: ctx, cur: cur, collection: q.Collection}, nil
}

// Count returns the number of documents matching the descriptor's predicate.
func (m *Manager) Count(ctx context.Context, q query.Query) (int64, error) {
	if err := m.checkOpen(); err != nil {
		return 0, err
	}
	opCtx, cancel := m.withOperationTimeout(ctx)
	defer cancel()

	filter, err := toFilter(q.Condition)
	if err != nil {
		return 0, err
	}
	n, err := m.collection(q.Collection).CountDocuments(opCtx, filter)
	if err != nil {
		return 0, fmt.Errorf("mongodb count failed: %w", err)
	}
	return n, nil
}

// Close disconnects from MongoDB.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to close mongodb connection: %w", err)
	}
	return nil
}

// Ping verifies connectivity to the primary.
func (m *Manager) Ping(ctx context.Context) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	ctx, cancel := m.withOperationTimeout(ctx)
	defer cancel()
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongodb ping failed: %w", err)
	}
	return nil
}

func (m *Manager) checkOpen() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return manager.ErrClosed
	}
	return nil
}

func (m *Manager) withOperationTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.timeout)
}

type cursorStream struct {
	ctx        context.Context
	cur        *mongo.Cursor
	collection string
	doc        document.Document
	err        error
	done       bool
}

func (s *cursorStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}
	if !s.cur.Next(s.ctx) {
		s.err = s.cur.Err()
		s.done = true
		return false
	}
	var raw bson.D
	if err := s.cur.Decode(&raw); err != nil {
		s.err = err
		s.done = true
		return false
	}
	s.doc = fromBSON(raw, s.collection)
	return true
}

func (s *cursorStream) Document() document.Document {
	return s.doc
}

func (s *cursorStream) Err() error {
	return s.err
}

func (s *cursorStream) Close() error {
	s.done = true
	return s.cur.Close(s.ctx)
}

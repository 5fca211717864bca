// Package dynamodb implements the collection-manager contract on top of
// Amazon DynamoDB. Each collection maps to a table whose partition key is the
// configured key attribute.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/nimburion/docmap/pkg/document"
	"github.com/nimburion/docmap/pkg/manager"
	"github.com/nimburion/docmap/pkg/observability/logger"
	"github.com/nimburion/docmap/pkg/query"
)

// Config holds DynamoDB manager configuration.
type Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// KeyAttribute is the partition key attribute every table shares.
	// Defaults to "_id".
	KeyAttribute string
	// TTLAttribute is the epoch-seconds attribute registered with the
	// tables' time-to-live setting. Defaults to "ttl".
	TTLAttribute     string
	OperationTimeout time.Duration
}

// Manager provides DynamoDB-backed collection access.
type Manager struct {
	client       *dynamodb.Client
	logger       logger.Logger
	keyAttribute string
	ttlAttribute string
	timeout      time.Duration
	now          func() time.Time
	mu           sync.RWMutex
	closed       bool
}

// NewManager builds a DynamoDB client with optional custom endpoint and
// verifies connectivity. It does not create tables or throughput policies.
func NewManager(cfg Config, log logger.Logger) (*Manager, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("aws region is required")
	}
	if cfg.KeyAttribute == "" {
		cfg.KeyAttribute = "_id"
	}
	if cfg.TTLAttribute == "" {
		cfg.TTLAttribute = "ttl"
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 5 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	var opts []func(*dynamodb.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	m := &Manager{
		client:       dynamodb.NewFromConfig(awsCfg, opts...),
		logger:       log,
		keyAttribute: cfg.KeyAttribute,
		ttlAttribute: cfg.TTLAttribute,
		timeout:      cfg.OperationTimeout,
		now:          time.Now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OperationTimeout)
	defer cancel()
	if _, err := m.client.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)}); err != nil {
		return nil, fmt.Errorf("dynamodb ping failed: %w", err)
	}

	log.Info("DynamoDB manager initialized", "region", cfg.Region, "endpoint", cfg.Endpoint)
	return m, nil
}

// Insert stores a new item. A document without the key attribute gets a
// generated one. With a positive ttl the item carries the epoch-seconds
// expiration attribute; expiration itself is DynamoDB's TTL sweep, and
// reads additionally filter expired items since the sweep is lazy.
func (m *Manager) Insert(ctx context.Context, doc document.Document, ttl time.Duration) (document.Document, error) {
	if err := m.checkOpen(); err != nil {
		return document.Document{}, err
	}
	opCtx, cancel := m.withOperationTimeout(ctx)
	defer cancel()

	stored := doc.Clone()
	if !stored.Has(m.keyAttribute) {
		stored.Append(m.keyAttribute, uuid.NewString())
	}
	if ttl > 0 {
		stored.Append(m.ttlAttribute, m.now().Add(ttl).Unix())
	}

	item, err := toItem(stored)
	if err != nil {
		return document.Document{}, err
	}
	_, err = m.client.PutItem(opCtx, &dynamodb.PutItemInput{
		TableName: aws.String(doc.Collection),
		Item:      item,
	})
	if err != nil {
		return document.Document{}, fmt.Errorf("dynamodb insert failed: %w", err)
	}
	return stored, nil
}

// Update replaces the stored item matching the document's key field (its
// first field). The write is conditional on the item existing.
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
	item, err := toItem(doc)
	if err != nil {
		return document.Document{}, err
	}

	_, err = m.client.PutItem(opCtx, &dynamodb.PutItemInput{
		TableName:                aws.String(doc.Collection),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_exists(#k)"),
		ExpressionAttributeNames: map[string]string{"#k": key.Name},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return document.Document{}, fmt.Errorf("%w: no item with %s=%v in %q",
				manager.ErrNotFound, key.Name, key.Value, doc.Collection)
		}
		return document.Document{}, fmt.Errorf("dynamodb update failed: %w", err)
	}
	return doc.Clone(), nil
}

// Delete scans for matching items and removes them one by one.
func (m *Manager) Delete(ctx context.Context, q query.DeleteQuery) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	opCtx, cancel := m.withOperationTimeout(ctx)
	defer cancel()

	docs, err := m.scan(opCtx, q.Collection, q.Condition)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		keyValue, ok := doc.Get(m.keyAttribute)
		if !ok {
			continue
		}
		av, err := toAttribute(keyValue)
		if err != nil {
			return err
		}
		_, err = m.client.DeleteItem(opCtx, &dynamodb.DeleteItemInput{
			TableName: aws.String(q.Collection),
			Key:       map[string]types.AttributeValue{m.keyAttribute: av},
		})
		if err != nil {
			return fmt.Errorf("dynamodb delete failed: %w", err)
		}
	}
	return nil
}

// Select scans the table with the compiled filter, then sorts and windows
// client side since a scan has no server-side ordering. The full result set
// is materialized before the stream is returned.
func (m *Manager) Select(ctx context.Context, q query.Query) (document.Stream, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	opCtx, cancel := m.withOperationTimeout(ctx)
	defer cancel()

	docs, err := m.scan(opCtx, q.Collection, q.Condition)
	if err != nil {
		return nil, err
	}

	sortDocs(docs, q.Sorts)

	if q.Offset > 0 {
		if q.Offset >= int64(len(docs)) {
			docs = nil
		} else {
			docs = docs[q.Offset:]
		}
	}
	if q.Limit > 0 && q.Limit < int64(len(docs)) {
		docs = docs[:q.Limit]
	}
	return document.NewSliceStream(docs), nil
}

// Count returns the number of items matching the descriptor's predicate.
func (m *Manager) Count(ctx context.Context, q query.Query) (int64, error) {
	if err := m.checkOpen(); err != nil {
		return 0, err
	}
	opCtx, cancel := m.withOperationTimeout(ctx)
	defer cancel()

	docs, err := m.scan(opCtx, q.Collection, q.Condition)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

// Close marks the manager closed. The underlying SDK client holds no
// connection state to release.
func (m *Manager) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Manager) scan(ctx context.Context, table string, cond *query.Condition) ([]document.Document, error) {
	filter, err := compileFilter(cond)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.ScanInput{TableName: aws.String(table)}
	if !filter.empty() {
		input.FilterExpression = aws.String(filter.expr)
		input.ExpressionAttributeNames = filter.names
		input.ExpressionAttributeValues = filter.values
	}

	now := m.now().Unix()
	var out []document.Document
	for {
		page, err := m.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("dynamodb scan failed: %w", err)
		}
		for _, item := range page.Items {
			if m.expired(item, now) {
				continue
			}
			doc, err := fromItem(item, table, m.keyAttribute)
			if err != nil {
				return nil, err
			}
			out = append(out, doc)
		}
		if page.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
	return out, nil
}

// expired reports whether the item's TTL attribute is in the past. DynamoDB
// removes expired items lazily, so they can still show up in scans.
func (m *Manager) expired(item map[string]types.AttributeValue, now int64) bool {
	av, ok := item[m.ttlAttribute]
	if !ok {
		return false
	}
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	var epoch int64
	if _, err := fmt.Sscanf(n.Value, "%d", &epoch); err != nil {
		return false
	}
	return epoch <= now
}

// Ping verifies connectivity to the service endpoint.
func (m *Manager) Ping(ctx context.Context) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	ctx, cancel := m.withOperationTimeout(ctx)
	defer cancel()
	if _, err := m.client.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)}); err != nil {
		return fmt.Errorf("dynamodb ping failed: %w", err)
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

func sortDocs(docs []document.Document, sorts []query.Sort) {
	if len(sorts) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, s := range sorts {
			vi, _ := docs[i].Get(s.Field)
			vj, _ := docs[j].Get(s.Field)
			cmp, ok := compareValues(vi, vj)
			if !ok || cmp == 0 {
				continue
			}
			if s.Direction == query.SortDesc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// compareValues orders the value types the item codec produces: int64,
// float64, string and bool. Timestamps come back as RFC 3339 strings, which
// order correctly as text.
func compareValues(a, b any) (int, bool) {
	if na, ok := toFloat(a); ok {
		if nb, ok := toFloat(b); ok {
			switch {
			case na < nb:
				return -1, true
			case na > nb:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	switch va := a.(type) {
	case string:
		vb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(va, vb), true
	case bool:
		vb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case va == vb:
			return 0, true
		case vb:
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

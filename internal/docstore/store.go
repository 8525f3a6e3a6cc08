package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ponmo-books/ponmo/internal/id"
	"github.com/ponmo-books/ponmo/internal/model"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidScope is returned for operations without an owning scope.
	ErrInvalidScope = errors.New("invalid scope")
)

// Reserved fields maintained by the store on every document.
const (
	FieldID        = "id"
	FieldUserID    = "user_id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Document is a stored JSON object. Numbers decode as json.Number.
type Document map[string]any

// Decode unmarshals the document into v.
func (d Document) Decode(v any) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}
	return nil
}

// ID returns the document id.
func (d Document) ID() string {
	s, _ := d[FieldID].(string)
	return s
}

// DecodeAll decodes a slice of documents into typed values.
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := d.Decode(&v); err != nil {
			return nil, fmt.Errorf("document %s: %w", d.ID(), err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Store hands out scoped collections over a Backend.
type Store struct {
	backend Backend
	now     func() time.Time
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides document id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New creates a Store.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
		newID:   id.NewDocumentID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewMemory creates a Store over a fresh MemoryBackend.
func NewMemory(opts ...Option) *Store {
	return New(NewMemoryBackend(), opts...)
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Collection returns the named collection owned by scope.
func (s *Store) Collection(scope model.Scope, name string) *Collection {
	return &Collection{store: s, scope: string(scope), name: name}
}

// Collection is a set of documents belonging to one scope.
type Collection struct {
	store *Store
	scope string
	name  string
}

func (c *Collection) check() error {
	if c.scope == "" {
		return ErrInvalidScope
	}
	return nil
}

// Create stores v as a new document and returns its id. The id, owner and
// timestamps are assigned by the store and override any values in v.
func (c *Collection) Create(ctx context.Context, v any) (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}
	doc, err := toDocument(v)
	if err != nil {
		return "", err
	}

	docID := c.store.newID()
	now := c.store.now().UTC()
	doc[FieldID] = docID
	doc[FieldUserID] = c.scope
	doc[FieldCreatedAt] = now
	doc[FieldUpdatedAt] = now

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding %s document: %w", c.name, err)
	}
	if err := c.store.backend.Put(ctx, c.scope, c.name, docID, data); err != nil {
		return "", fmt.Errorf("creating %s document: %w", c.name, err)
	}
	return docID, nil
}

// GetByID returns the document with the given id.
func (c *Collection) GetByID(ctx context.Context, docID string) (Document, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	data, err := c.store.backend.Get(ctx, c.scope, c.name, docID)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

// Get decodes the document with the given id into v.
func (c *Collection) Get(ctx context.Context, docID string, v any) error {
	doc, err := c.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	return doc.Decode(v)
}

// GetAll returns the documents matching every filter of q.
func (c *Collection) GetAll(ctx context.Context, q Query) ([]Document, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	filters, err := normalizeFilters(q.Filters)
	if err != nil {
		return nil, err
	}

	var docs []Document
	err = c.store.backend.Scan(ctx, c.scope, c.name, func(_ string, data []byte) error {
		doc, err := parse(data)
		if err != nil {
			return err
		}
		if matchesAll(doc, filters) {
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.name, err)
	}

	if q.OrderBy != "" {
		sortDocuments(docs, q.OrderBy, q.Desc)
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

// Search returns documents whose field equals value.
func (c *Collection) Search(ctx context.Context, field string, value any) ([]Document, error) {
	return c.GetAll(ctx, Query{Filters: []Filter{Eq(field, value)}})
}

// Count returns the number of documents matching filters.
func (c *Collection) Count(ctx context.Context, filters ...Filter) (int, error) {
	docs, err := c.GetAll(ctx, Query{Filters: filters})
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Update merges partial into the document. It reports false when the
// document does not exist. Reserved fields other than updated_at cannot
// be changed.
func (c *Collection) Update(ctx context.Context, docID string, partial map[string]any) (bool, error) {
	patch, err := toDocument(partial)
	if err != nil {
		return false, err
	}
	err = c.Modify(ctx, docID, func(doc Document) error {
		for k, v := range patch {
			switch k {
			case FieldID, FieldUserID, FieldCreatedAt:
				continue
			}
			doc[k] = v
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Modify applies fn to the document atomically. An error from fn aborts
// the write and is returned unchanged.
func (c *Collection) Modify(ctx context.Context, docID string, fn func(doc Document) error) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.store.backend.Update(ctx, c.scope, c.name, docID, func(current []byte) ([]byte, error) {
		doc, err := parse(current)
		if err != nil {
			return nil, err
		}
		if err := fn(doc); err != nil {
			return nil, err
		}
		doc[FieldID] = docID
		doc[FieldUserID] = c.scope
		doc[FieldUpdatedAt] = c.store.now().UTC()
		return json.Marshal(doc)
	})
}

// Delete removes the document. It reports false when nothing was deleted.
func (c *Collection) Delete(ctx context.Context, docID string) (bool, error) {
	if err := c.check(); err != nil {
		return false, err
	}
	err := c.store.backend.Delete(ctx, c.scope, c.name, docID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("deleting %s document: %w", c.name, err)
	}
	return true, nil
}

func toDocument(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	doc, err := parse(data)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("document must be a JSON object")
	}
	return doc, nil
}

func parse(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}

package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Rrens/movie-catalog/internal/store"
)

const defaultScanLimit = 100

// Store is an in-process document store. Scan reads records in key order and
// applies Limit before the filter, like a hosted key-value scan does.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]store.Document
}

// New creates an empty store
func New() *Store {
	return &Store{collections: make(map[string]map[string]store.Document)}
}

func (s *Store) Get(ctx context.Context, collection, key string) (store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyDocument(doc), nil
}

func (s *Store) Put(ctx context.Context, collection string, doc store.Document) error {
	key := store.Key(doc)
	if key == "" {
		return errors.New("document has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		c = make(map[string]store.Document)
		s.collections[collection] = c
	}
	c[key] = copyDocument(doc)
	return nil
}

func (s *Store) Scan(ctx context.Context, in store.ScanInput) (*store.ScanOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.collections[in.Collection]
	keys := make([]string, 0, len(c))
	for k := range c {
		if k > in.Cursor {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	limit := in.Limit
	if limit <= 0 {
		limit = defaultScanLimit
	}

	out := &store.ScanOutput{Items: []store.Document{}}
	for i, k := range keys {
		if i == limit {
			out.NextCursor = keys[i-1]
			break
		}
		out.ScannedCount++
		doc := c[k]
		if in.Filter.Matches(doc) {
			out.Items = append(out.Items, copyDocument(doc))
		}
	}
	out.Count = len(out.Items)

	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Seed bulk-loads documents, used for local runs and tests
func (s *Store) Seed(collection string, docs ...store.Document) error {
	for _, d := range docs {
		if err := s.Put(context.Background(), collection, d); err != nil {
			return err
		}
	}
	return nil
}

func copyDocument(doc store.Document) store.Document {
	out := make(store.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

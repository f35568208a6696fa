package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Rrens/movie-catalog/internal/store"
)

const defaultScanLimit = 100

// DocumentStore implements store.Gateway on a single JSONB documents table
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new PostgreSQL store gateway
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) Get(ctx context.Context, collection, key string) (store.Document, error) {
	query := `
		SELECT body
		FROM documents
		WHERE collection = $1 AND key = $2
	`

	var body []byte
	err := s.db.Pool.QueryRow(ctx, query, collection, key).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return decodeBody(body)
}

func (s *DocumentStore) Put(ctx context.Context, collection string, doc store.Document) error {
	key := store.Key(doc)
	if key == "" {
		return errors.New("document has no id")
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, key, body, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (collection, key)
		DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()
	`

	if _, err := s.db.Pool.Exec(ctx, query, collection, key, body); err != nil {
		return fmt.Errorf("failed to put document: %w", err)
	}
	return nil
}

func (s *DocumentStore) Scan(ctx context.Context, in store.ScanInput) (*store.ScanOutput, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultScanLimit
	}

	query, args := buildScanQuery(in, limit)

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan documents: %w", err)
	}
	defer rows.Close()

	out := &store.ScanOutput{Items: []store.Document{}}
	var lastKey string
	for rows.Next() {
		var key string
		var body []byte
		if err := rows.Scan(&key, &body); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc, err := decodeBody(body)
		if err != nil {
			return nil, err
		}
		lastKey = key
		out.Items = append(out.Items, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	out.Count = len(out.Items)
	out.ScannedCount = out.Count
	if out.Count == limit {
		out.NextCursor = lastKey
	}

	return out, nil
}

func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func buildScanQuery(in store.ScanInput, limit int) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT key, body FROM documents WHERE collection = $1 AND key > $2")
	args := []any{in.Collection, in.Cursor}

	if in.Filter != nil {
		// ? is list membership for arrays, the LIKE covers scalar strings
		args = append(args, in.Filter.Attribute, in.Filter.Contains)
		sb.WriteString(" AND ((jsonb_typeof(body->$3::text) = 'array' AND body->$3::text ? $4::text)")
		sb.WriteString(" OR (jsonb_typeof(body->$3::text) = 'string' AND strpos(body->>$3::text, $4::text) > 0))")
	}

	args = append(args, limit)
	fmt.Fprintf(&sb, " ORDER BY key LIMIT $%d", len(args))

	return sb.String(), args
}

func decodeBody(body []byte) (store.Document, error) {
	var doc store.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

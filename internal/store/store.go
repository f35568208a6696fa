// Package store defines the document store contract shared by the
// registration flow and the catalog query engine.
package store

import (
	"context"
	"errors"
	"strings"
)

// KeyAttribute is the attribute every document is keyed by
const KeyAttribute = "id"

// ErrNotFound is returned by Get when no document has the requested key
var ErrNotFound = errors.New("document not found")

// Document is a schemaless record
type Document = map[string]any

// Filter is the single predicate a scan supports: the attribute contains the
// value (list membership for list attributes, substring for strings).
type Filter struct {
	Attribute string
	Contains  string
}

// ScanInput describes one scan page
type ScanInput struct {
	Collection string
	Filter     *Filter
	// Limit caps the records read by this call, zero means driver default
	Limit int
	// Cursor continues a previous scan; empty starts from the beginning
	Cursor string
}

// ScanOutput is one scan page. Items are in no particular order.
type ScanOutput struct {
	Items        []Document
	Count        int
	ScannedCount int
	NextCursor   string
}

// Gateway is the document store contract
type Gateway interface {
	Get(ctx context.Context, collection, key string) (Document, error)
	Put(ctx context.Context, collection string, doc Document) error
	Scan(ctx context.Context, in ScanInput) (*ScanOutput, error)
	Ping(ctx context.Context) error
}

// Key returns the document key or an empty string
func Key(doc Document) string {
	if k, ok := doc[KeyAttribute].(string); ok {
		return k
	}
	return ""
}

// Matches evaluates a filter against a document in memory
func (f *Filter) Matches(doc Document) bool {
	if f == nil {
		return true
	}
	switch v := doc[f.Attribute].(type) {
	case []string:
		for _, s := range v {
			if s == f.Contains {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == f.Contains {
				return true
			}
		}
	case string:
		return strings.Contains(v, f.Contains)
	}
	return false
}

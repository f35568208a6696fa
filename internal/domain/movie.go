package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Sort keys accepted by the catalog
const (
	SortByTitle       = "title"
	SortByRating      = "rating"
	SortByReleaseDate = "releaseDate"
)

// Movie is a read-only view over a catalog document. The typed fields drive
// filtering and ordering; Attributes is the document as stored and is what
// gets rendered to clients.
type Movie struct {
	ID          string
	Title       string
	Genres      []string
	Rating      float64
	ReleaseDate time.Time
	Attributes  map[string]any
}

// MarshalJSON renders the stored document unchanged
func (m Movie) MarshalJSON() ([]byte, error) {
	if m.Attributes != nil {
		return json.Marshal(m.Attributes)
	}
	return json.Marshal(map[string]any{
		"id":          m.ID,
		"title":       m.Title,
		"genres":      m.Genres,
		"rating":      m.Rating,
		"releaseDate": m.ReleaseDate,
	})
}

// UnmarshalJSON rebuilds a movie from a rendered document
func (m *Movie) UnmarshalJSON(data []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*m = MovieFromDocument(doc)
	return nil
}

// MovieFromDocument extracts the typed fields from a stored document.
// Missing or malformed attributes decode to zero values.
func MovieFromDocument(doc map[string]any) Movie {
	m := Movie{Attributes: doc}
	m.ID = stringAttr(doc["id"])
	m.Title = stringAttr(doc["title"])
	m.Rating = numberAttr(doc["rating"])
	m.ReleaseDate = dateAttr(doc["releaseDate"])

	switch g := doc["genres"].(type) {
	case []string:
		m.Genres = g
	case []any:
		for _, v := range g {
			if s, ok := v.(string); ok {
				m.Genres = append(m.Genres, s)
			}
		}
	case string:
		m.Genres = []string{g}
	}

	return m
}

func stringAttr(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case nil:
		return ""
	default:
		b, _ := json.Marshal(s)
		return strings.Trim(string(b), `"`)
	}
}

func numberAttr(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

func dateAttr(v any) time.Time {
	switch d := v.(type) {
	case time.Time:
		return d
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// QueryRequest is one catalog listing request after defaults were applied
type QueryRequest struct {
	Page   int    `validate:"gte=1"`
	Limit  int    `validate:"gte=1"`
	Genre  string `validate:"max=100"`
	SortBy string `validate:"oneof=title rating releaseDate"`
}

// QueryResult is one page of the filtered and sorted catalog
type QueryResult struct {
	Movies     []Movie `json:"movies"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalCount int     `json:"totalCount"`
	TotalPages int     `json:"totalPages"`
}

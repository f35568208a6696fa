package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Rrens/movie-catalog/internal/config"
	"github.com/Rrens/movie-catalog/internal/domain"
	"github.com/Rrens/movie-catalog/internal/metrics"
	"github.com/Rrens/movie-catalog/internal/store"
)

const genresAttribute = "genres"

// QueryCache caches listing pages
type QueryCache interface {
	Get(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error)
	Set(ctx context.Context, req domain.QueryRequest, result *domain.QueryResult) error
}

// CatalogService answers movie lookups and paginated listings over a store
// that can only scan
type CatalogService struct {
	store      store.Gateway
	collection string
	cfg        config.CatalogConfig
	cache      QueryCache
	metrics    metrics.Recorder
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(
	storeGateway store.Gateway,
	collection string,
	cfg config.CatalogConfig,
	cache QueryCache,
	recorder metrics.Recorder,
) *CatalogService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &CatalogService{
		store:      storeGateway,
		collection: collection,
		cfg:        cfg,
		cache:      cache,
		metrics:    recorder,
	}
}

// ParseQuery builds a QueryRequest from raw query-string values. Missing,
// non-numeric or non-positive page and limit fall back to the defaults and
// limit is capped at the configured maximum.
func (s *CatalogService) ParseQuery(page, limit, genre, sortBy string) (domain.QueryRequest, error) {
	req := domain.QueryRequest{
		Page:   positiveOr(page, 1),
		Limit:  positiveOr(limit, s.cfg.DefaultLimit),
		Genre:  strings.TrimSpace(genre),
		SortBy: sortBy,
	}
	if req.SortBy == "" {
		req.SortBy = domain.SortByReleaseDate
	}
	if req.Limit > s.cfg.MaxLimit {
		req.Limit = s.cfg.MaxLimit
	}

	if err := validateInput(req); err != nil {
		return domain.QueryRequest{}, err
	}
	return req, nil
}

func positiveOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// Get returns one movie by id
func (s *CatalogService) Get(ctx context.Context, movieID string) (*domain.Movie, error) {
	if strings.TrimSpace(movieID) == "" {
		return nil, domain.NewValidationError("movieId is required")
	}

	doc, err := s.store.Get(ctx, s.collection, movieID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.NewNotFoundError("Movie not found")
		}
		return nil, domain.NewUpstreamStoreError("Error retrieving movie details", err)
	}

	movie := domain.MovieFromDocument(doc)
	return &movie, nil
}

// Query returns one page of the filtered and sorted catalog
func (s *CatalogService) Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	if err := validateInput(req); err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, req)
		if err != nil {
			log.Warn().Err(err).Msg("catalog cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	var filter *store.Filter
	if req.Genre != "" {
		filter = &store.Filter{Attribute: genresAttribute, Contains: req.Genre}
	}

	var (
		docs       []store.Document
		totalCount int
		err        error
	)
	if s.cfg.LegacyPagination {
		docs, totalCount, err = s.scanOnce(ctx, filter, req.Limit)
	} else {
		docs, err = s.scanAll(ctx, filter)
		totalCount = len(docs)
	}
	if err != nil {
		return nil, domain.NewUpstreamStoreError("Error retrieving movies", err)
	}

	movies := make([]domain.Movie, len(docs))
	for i, d := range docs {
		movies[i] = domain.MovieFromDocument(d)
	}
	SortMovies(movies, req.SortBy)

	result := &domain.QueryResult{
		Movies:     paginate(movies, req.Page, req.Limit),
		Page:       req.Page,
		Limit:      req.Limit,
		TotalCount: totalCount,
		TotalPages: totalPages(totalCount, req.Limit),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, req, result); err != nil {
			log.Warn().Err(err).Msg("catalog cache write failed")
		}
	}

	return result, nil
}

// scanAll follows the store cursor until the collection is exhausted or more
// than the scan ceiling has matched
func (s *CatalogService) scanAll(ctx context.Context, filter *store.Filter) ([]store.Document, error) {
	var (
		docs      []store.Document
		cursor    string
		pages     int
		scanned   int
		truncated bool
	)

	for {
		out, err := s.store.Scan(ctx, store.ScanInput{
			Collection: s.collection,
			Filter:     filter,
			Limit:      s.cfg.ScanBatchSize,
			Cursor:     cursor,
		})
		if err != nil {
			return nil, err
		}
		pages++
		scanned += out.ScannedCount
		docs = append(docs, out.Items...)

		// an exact fit is not truncation
		if len(docs) > s.cfg.ScanCeiling {
			truncated = true
			docs = docs[:s.cfg.ScanCeiling]
			break
		}
		if out.NextCursor == "" || out.NextCursor == cursor {
			break
		}
		cursor = out.NextCursor
	}

	s.metrics.RecordCatalogScan(pages, scanned, truncated)
	if truncated {
		log.Warn().
			Int("ceiling", s.cfg.ScanCeiling).
			Int("pages", pages).
			Msg("catalog scan truncated at ceiling")
	}

	return docs, nil
}

// scanOnce issues a single scan capped at limit records, the behavior older
// clients were built against: later pages are usually empty and totalCount
// only covers the records read.
func (s *CatalogService) scanOnce(ctx context.Context, filter *store.Filter, limit int) ([]store.Document, int, error) {
	out, err := s.store.Scan(ctx, store.ScanInput{
		Collection: s.collection,
		Filter:     filter,
		Limit:      limit,
	})
	if err != nil {
		return nil, 0, err
	}
	s.metrics.RecordCatalogScan(1, out.ScannedCount, false)
	return out.Items, out.Count, nil
}

// SortMovies orders movies by sortBy with id ascending as tie-breaker:
// title ascending by English collation, rating descending, release date
// most recent first
func SortMovies(movies []domain.Movie, sortBy string) {
	var compare func(a, b *domain.Movie) int

	switch sortBy {
	case domain.SortByTitle:
		// collators are not safe for concurrent use
		col := collate.New(language.English, collate.Loose)
		compare = func(a, b *domain.Movie) int {
			return col.CompareString(a.Title, b.Title)
		}
	case domain.SortByRating:
		compare = func(a, b *domain.Movie) int {
			switch {
			case a.Rating > b.Rating:
				return -1
			case a.Rating < b.Rating:
				return 1
			}
			return 0
		}
	default:
		compare = func(a, b *domain.Movie) int {
			switch {
			case a.ReleaseDate.After(b.ReleaseDate):
				return -1
			case a.ReleaseDate.Before(b.ReleaseDate):
				return 1
			}
			return 0
		}
	}

	sort.SliceStable(movies, func(i, j int) bool {
		if c := compare(&movies[i], &movies[j]); c != 0 {
			return c < 0
		}
		return movies[i].ID < movies[j].ID
	})
}

func paginate(movies []domain.Movie, page, limit int) []domain.Movie {
	offset := (page - 1) * limit
	if offset >= len(movies) {
		return []domain.Movie{}
	}
	end := offset + limit
	if end > len(movies) {
		end = len(movies)
	}
	return movies[offset:end]
}

func totalPages(totalCount, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (totalCount + limit - 1) / limit
}

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/movie-catalog/internal/config"
	"github.com/Rrens/movie-catalog/internal/domain"
	"github.com/Rrens/movie-catalog/internal/metrics"
	"github.com/Rrens/movie-catalog/internal/store"
	"github.com/Rrens/movie-catalog/internal/store/memory"
)

func testCatalogConfig() config.CatalogConfig {
	return config.CatalogConfig{
		DefaultLimit:  20,
		MaxLimit:      100,
		ScanBatchSize: 4,
		ScanCeiling:   1000,
	}
}

func seedCatalog(t *testing.T, docs ...store.Document) *memory.Store {
	t.Helper()
	st := memory.New()
	require.NoError(t, st.Seed("movies", docs...))
	return st
}

// generatedCatalog returns n movies with repeating ratings and dates so
// that ties are exercised
func generatedCatalog(n int) []store.Document {
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	genres := []string{"drama", "action", "comedy"}
	docs := make([]store.Document, n)
	for i := 0; i < n; i++ {
		docs[i] = store.Document{
			"id":          fmt.Sprintf("m%03d", i),
			"title":       fmt.Sprintf("Title %c", 'Z'-rune(i%26)),
			"rating":      float64(i % 7),
			"releaseDate": base.AddDate(0, i%5, 0).Format("2006-01-02"),
			"genres":      []any{genres[i%3]},
		}
	}
	return docs
}

func movieIDs(movies []domain.Movie) []string {
	ids := make([]string, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
	}
	return ids
}

func TestCatalogService_QueryExamples(t *testing.T) {
	st := seedCatalog(t,
		store.Document{"id": "1", "title": "A", "rating": 9, "genres": []any{"drama"}},
		store.Document{"id": "2", "title": "B", "rating": 7, "genres": []any{"action"}},
	)
	svc := NewCatalogService(st, "movies", testCatalogConfig(), nil, nil)
	ctx := context.Background()

	result, err := svc.Query(ctx, domain.QueryRequest{Page: 1, Limit: 10, SortBy: domain.SortByRating})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, movieIDs(result.Movies))
	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, 1, result.TotalPages)

	result, err = svc.Query(ctx, domain.QueryRequest{Page: 1, Limit: 10, Genre: "action", SortBy: domain.SortByReleaseDate})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, movieIDs(result.Movies))
	assert.Equal(t, 1, result.TotalCount)
}

func TestCatalogService_QueryOrdering(t *testing.T) {
	st := seedCatalog(t, generatedCatalog(30)...)
	svc := NewCatalogService(st, "movies", testCatalogConfig(), nil, nil)
	ctx := context.Background()

	tests := []struct {
		sortBy  string
		ordered func(a, b domain.Movie) bool
	}{
		{domain.SortByRating, func(a, b domain.Movie) bool { return a.Rating >= b.Rating }},
		{domain.SortByReleaseDate, func(a, b domain.Movie) bool { return !a.ReleaseDate.Before(b.ReleaseDate) }},
		{domain.SortByTitle, func(a, b domain.Movie) bool { return a.Title <= b.Title }},
	}

	for _, tt := range tests {
		t.Run(tt.sortBy, func(t *testing.T) {
			var all []domain.Movie
			for page := 1; page <= 4; page++ {
				result, err := svc.Query(ctx, domain.QueryRequest{Page: page, Limit: 8, SortBy: tt.sortBy})
				require.NoError(t, err)

				assert.LessOrEqual(t, len(result.Movies), 8)
				assert.Equal(t, 30, result.TotalCount)
				assert.Equal(t, 4, result.TotalPages)
				all = append(all, result.Movies...)
			}

			require.Len(t, all, 30)
			for i := 1; i < len(all); i++ {
				assert.True(t, tt.ordered(all[i-1], all[i]),
					"%s out of order at %d: %s before %s", tt.sortBy, i, all[i-1].ID, all[i].ID)
			}
		})
	}
}

func TestCatalogService_QueryPastLastPage(t *testing.T) {
	st := seedCatalog(t, generatedCatalog(5)...)
	svc := NewCatalogService(st, "movies", testCatalogConfig(), nil, nil)

	result, err := svc.Query(context.Background(), domain.QueryRequest{Page: 3, Limit: 5, SortBy: domain.SortByRating})
	require.NoError(t, err)
	assert.Empty(t, result.Movies)
	assert.NotNil(t, result.Movies)
	assert.Equal(t, 5, result.TotalCount)
	assert.Equal(t, 1, result.TotalPages)
}

func TestCatalogService_QueryIdempotent(t *testing.T) {
	st := seedCatalog(t, generatedCatalog(20)...)
	svc := NewCatalogService(st, "movies", testCatalogConfig(), nil, nil)
	req := domain.QueryRequest{Page: 2, Limit: 6, Genre: "drama", SortBy: domain.SortByRating}

	first, err := svc.Query(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Query(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, movieIDs(first.Movies), movieIDs(second.Movies))
	assert.Equal(t, first.TotalCount, second.TotalCount)
}

func TestCatalogService_LegacyPagination(t *testing.T) {
	st := seedCatalog(t, generatedCatalog(25)...)
	cfg := testCatalogConfig()
	cfg.LegacyPagination = true
	svc := NewCatalogService(st, "movies", cfg, nil, nil)
	ctx := context.Background()

	first, err := svc.Query(ctx, domain.QueryRequest{Page: 1, Limit: 10, SortBy: domain.SortByRating})
	require.NoError(t, err)
	assert.Len(t, first.Movies, 10)
	assert.Equal(t, 10, first.TotalCount)

	second, err := svc.Query(ctx, domain.QueryRequest{Page: 2, Limit: 10, SortBy: domain.SortByRating})
	require.NoError(t, err)
	assert.Empty(t, second.Movies)
}

func TestCatalogService_ScanCeiling(t *testing.T) {
	st := seedCatalog(t, generatedCatalog(20)...)
	cfg := testCatalogConfig()
	cfg.ScanCeiling = 5
	recorder := &scanRecorder{}
	svc := NewCatalogService(st, "movies", cfg, nil, recorder)

	result, err := svc.Query(context.Background(), domain.QueryRequest{Page: 1, Limit: 10, SortBy: domain.SortByRating})
	require.NoError(t, err)
	assert.Equal(t, 5, result.TotalCount)
	assert.Len(t, result.Movies, 5)
	assert.True(t, recorder.truncated)
}

func TestCatalogService_QueryStoreFailure(t *testing.T) {
	st := new(MockStoreGateway)
	st.On("Scan", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	svc := NewCatalogService(st, "movies", testCatalogConfig(), nil, nil)

	_, err := svc.Query(context.Background(), domain.QueryRequest{Page: 1, Limit: 10, SortBy: domain.SortByTitle})
	require.Error(t, err)

	appErr, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindUpstreamStore, appErr.Kind)
	assert.Equal(t, "Error retrieving movies", appErr.Message)
}

func TestCatalogService_QueryUsesCache(t *testing.T) {
	ctx := context.Background()
	req := domain.QueryRequest{Page: 1, Limit: 10, SortBy: domain.SortByRating}

	t.Run("hit skips the store", func(t *testing.T) {
		st := new(MockStoreGateway)
		cache := new(MockQueryCache)
		cached := &domain.QueryResult{Movies: []domain.Movie{}, Page: 1, Limit: 10}
		cache.On("Get", ctx, req).Return(cached, nil)

		svc := NewCatalogService(st, "movies", testCatalogConfig(), cache, nil)
		result, err := svc.Query(ctx, req)
		require.NoError(t, err)
		assert.Same(t, cached, result)
		st.AssertNotCalled(t, "Scan", mock.Anything, mock.Anything)
	})

	t.Run("miss populates the cache", func(t *testing.T) {
		st := seedCatalog(t, generatedCatalog(3)...)
		cache := new(MockQueryCache)
		cache.On("Get", ctx, req).Return(nil, nil)
		cache.On("Set", ctx, req, mock.AnythingOfType("*domain.QueryResult")).Return(nil)

		svc := NewCatalogService(st, "movies", testCatalogConfig(), cache, nil)
		result, err := svc.Query(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 3, result.TotalCount)
		cache.AssertExpectations(t)
	})

	t.Run("cache errors are not fatal", func(t *testing.T) {
		st := seedCatalog(t, generatedCatalog(3)...)
		cache := new(MockQueryCache)
		cache.On("Get", ctx, req).Return(nil, errors.New("redis down"))
		cache.On("Set", ctx, req, mock.Anything).Return(errors.New("redis down"))

		svc := NewCatalogService(st, "movies", testCatalogConfig(), cache, nil)
		result, err := svc.Query(ctx, req)
		require.NoError(t, err)
		assert.Len(t, result.Movies, 3)
	})
}

func TestCatalogService_Get(t *testing.T) {
	st := seedCatalog(t, store.Document{"id": "tt01", "title": "Heat", "director": "Michael Mann"})
	svc := NewCatalogService(st, "movies", testCatalogConfig(), nil, nil)
	ctx := context.Background()

	movie, err := svc.Get(ctx, "tt01")
	require.NoError(t, err)
	assert.Equal(t, "Heat", movie.Title)
	assert.Equal(t, "Michael Mann", movie.Attributes["director"])

	_, err = svc.Get(ctx, "missing")
	require.Error(t, err)
	appErr, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindNotFound, appErr.Kind)
	assert.Equal(t, "Movie not found", appErr.Message)

	_, err = svc.Get(ctx, "  ")
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestCatalogService_GetStoreFailure(t *testing.T) {
	st := new(MockStoreGateway)
	st.On("Get", mock.Anything, "movies", "tt01").Return(nil, errors.New("timeout"))
	svc := NewCatalogService(st, "movies", testCatalogConfig(), nil, nil)

	_, err := svc.Get(context.Background(), "tt01")
	assert.True(t, domain.IsKind(err, domain.KindUpstreamStore))
}

func TestCatalogService_ParseQuery(t *testing.T) {
	svc := NewCatalogService(memory.New(), "movies", testCatalogConfig(), nil, nil)

	tests := []struct {
		name                       string
		page, limit, genre, sortBy string
		want                       domain.QueryRequest
		wantErr                    bool
	}{
		{
			name: "defaults",
			want: domain.QueryRequest{Page: 1, Limit: 20, SortBy: domain.SortByReleaseDate},
		},
		{
			name: "explicit values", page: "3", limit: "5", genre: " drama ", sortBy: "title",
			want: domain.QueryRequest{Page: 3, Limit: 5, Genre: "drama", SortBy: domain.SortByTitle},
		},
		{
			name: "non-numeric falls back", page: "abc", limit: "-4",
			want: domain.QueryRequest{Page: 1, Limit: 20, SortBy: domain.SortByReleaseDate},
		},
		{
			name: "limit capped", limit: "500",
			want: domain.QueryRequest{Page: 1, Limit: 100, SortBy: domain.SortByReleaseDate},
		},
		{
			name: "unknown sort", sortBy: "director", wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ParseQuery(tt.page, tt.limit, tt.genre, tt.sortBy)
			if tt.wantErr {
				assert.True(t, domain.IsKind(err, domain.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortMovies_TitleCollation(t *testing.T) {
	movies := []domain.Movie{
		{ID: "3", Title: "charlie"},
		{ID: "1", Title: "Beta"},
		{ID: "2", Title: "alpha"},
		{ID: "0", Title: "alpha"},
	}
	SortMovies(movies, domain.SortByTitle)
	assert.Equal(t, []string{"0", "2", "1", "3"}, movieIDs(movies))
}

type scanRecorder struct {
	metrics.Nop
	pages     int
	truncated bool
}

func (r *scanRecorder) RecordCatalogScan(pages, scanned int, truncated bool) {
	r.pages = pages
	r.truncated = truncated
}

func TestCatalogService_ScanCeilingExactFit(t *testing.T) {
	st := new(MockStoreGateway)
	// the store reports a cursor on every full batch, even the last one
	st.On("Scan", mock.Anything, mock.MatchedBy(func(in store.ScanInput) bool { return in.Cursor == "" })).
		Return(&store.ScanOutput{
			Items:      []store.Document{{"id": "a"}, {"id": "b"}},
			Count:      2,
			NextCursor: "b",
		}, nil)
	st.On("Scan", mock.Anything, mock.MatchedBy(func(in store.ScanInput) bool { return in.Cursor == "b" })).
		Return(&store.ScanOutput{Items: []store.Document{}}, nil)

	cfg := testCatalogConfig()
	cfg.ScanBatchSize = 2
	cfg.ScanCeiling = 2
	recorder := &scanRecorder{}
	svc := NewCatalogService(st, "movies", cfg, nil, recorder)

	result, err := svc.Query(context.Background(), domain.QueryRequest{Page: 1, Limit: 10, SortBy: domain.SortByRating})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, 2, recorder.pages)
	assert.False(t, recorder.truncated)
	st.AssertExpectations(t)
}

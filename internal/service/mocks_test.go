package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Rrens/movie-catalog/internal/domain"
	"github.com/Rrens/movie-catalog/internal/identity"
	"github.com/Rrens/movie-catalog/internal/store"
)

// MockIdentityGateway mocks identity.Gateway
type MockIdentityGateway struct {
	mock.Mock
}

func (m *MockIdentityGateway) SignUp(ctx context.Context, creds domain.Credentials, attrs identity.Attributes) error {
	args := m.Called(ctx, creds, attrs)
	return args.Error(0)
}

func (m *MockIdentityGateway) Authenticate(ctx context.Context, creds domain.Credentials) (*domain.SessionTokens, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionTokens), args.Error(1)
}

// MockStoreGateway mocks store.Gateway
type MockStoreGateway struct {
	mock.Mock
}

func (m *MockStoreGateway) Get(ctx context.Context, collection, key string) (store.Document, error) {
	args := m.Called(ctx, collection, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(store.Document), args.Error(1)
}

func (m *MockStoreGateway) Put(ctx context.Context, collection string, doc store.Document) error {
	args := m.Called(ctx, collection, doc)
	return args.Error(0)
}

func (m *MockStoreGateway) Scan(ctx context.Context, in store.ScanInput) (*store.ScanOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.ScanOutput), args.Error(1)
}

func (m *MockStoreGateway) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockOrphanLedger mocks OrphanLedger
type MockOrphanLedger struct {
	mock.Mock
}

func (m *MockOrphanLedger) RecordOrphan(ctx context.Context, email, userID string, cause error) error {
	args := m.Called(ctx, email, userID, cause)
	return args.Error(0)
}

// MockQueryCache mocks QueryCache
type MockQueryCache struct {
	mock.Mock
}

func (m *MockQueryCache) Get(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueryResult), args.Error(1)
}

func (m *MockQueryCache) Set(ctx context.Context, req domain.QueryRequest, result *domain.QueryResult) error {
	args := m.Called(ctx, req, result)
	return args.Error(0)
}

// Package mocks provides testify mocks of the application ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lexivault/application/ports"
	"lexivault/domain/core/entities"
	"lexivault/domain/core/valueobjects"
	"lexivault/domain/events"
)

type MockRelationStore struct {
	mock.Mock
}

func (m *MockRelationStore) TryCreateEdge(ctx context.Context, pair valueobjects.WordPair) (ports.CreateResult, error) {
	args := m.Called(ctx, pair)
	return args.Get(0).(ports.CreateResult), args.Error(1)
}

func (m *MockRelationStore) RemoveEdge(ctx context.Context, pair valueobjects.WordPair) (ports.RemoveResult, error) {
	args := m.Called(ctx, pair)
	return args.Get(0).(ports.RemoveResult), args.Error(1)
}

func (m *MockRelationStore) NeighborsOf(ctx context.Context, id valueobjects.WordID) ([]valueobjects.WordID, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]valueobjects.WordID), args.Error(1)
}

func (m *MockRelationStore) RemoveAllEdgesTouching(ctx context.Context, id valueobjects.WordID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockRelationStore) AllEdges(ctx context.Context, ids []valueobjects.WordID) ([]valueobjects.WordPair, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]valueobjects.WordPair), args.Error(1)
}

type MockWordStore struct {
	mock.Mock
}

func (m *MockWordStore) Get(ctx context.Context, id valueobjects.WordID) (*entities.Word, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Word), args.Error(1)
}

func (m *MockWordStore) GetMany(ctx context.Context, ids []valueobjects.WordID) ([]*entities.Word, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Word), args.Error(1)
}

func (m *MockWordStore) ListByUser(ctx context.Context, userID valueobjects.UserID) ([]*entities.Word, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Word), args.Error(1)
}

func (m *MockWordStore) GetVault(ctx context.Context, id valueobjects.VaultID) (*entities.Vault, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Vault), args.Error(1)
}

func (m *MockWordStore) GetVaultOwner(ctx context.Context, id valueobjects.VaultID) (valueobjects.UserID, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(valueobjects.UserID), args.Error(1)
}

type MockChangeNotifier struct {
	mock.Mock
}

func (m *MockChangeNotifier) Invalidate(ctx context.Context, scope ports.InvalidationScope) error {
	args := m.Called(ctx, scope)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

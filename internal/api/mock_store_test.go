package api_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrijs2005/guildstore/internal/models"
)

// MockStore is a mock implementation of api.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateContainer(ctx context.Context, name string) (*models.Container, error) {
	args := m.Called(ctx, name)
	c, _ := args.Get(0).(*models.Container)
	return c, args.Error(1)
}

func (m *MockStore) GetContainer(ctx context.Context, id string) (*models.Container, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Container)
	return c, args.Error(1)
}

func (m *MockStore) ListContainers(ctx context.Context) ([]*models.Container, error) {
	args := m.Called(ctx)
	cs, _ := args.Get(0).([]*models.Container)
	return cs, args.Error(1)
}

func (m *MockStore) RenameContainer(ctx context.Context, id, name string) (*models.Container, error) {
	args := m.Called(ctx, id, name)
	c, _ := args.Get(0).(*models.Container)
	return c, args.Error(1)
}

func (m *MockStore) DeleteContainer(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) CreateBox(ctx context.Context, containerID, name string) (*models.Box, error) {
	args := m.Called(ctx, containerID, name)
	b, _ := args.Get(0).(*models.Box)
	return b, args.Error(1)
}

func (m *MockStore) GetBox(ctx context.Context, id string) (*models.Box, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*models.Box)
	return b, args.Error(1)
}

func (m *MockStore) ListBoxes(ctx context.Context, containerID string) ([]*models.Box, error) {
	args := m.Called(ctx, containerID)
	bs, _ := args.Get(0).([]*models.Box)
	return bs, args.Error(1)
}

func (m *MockStore) RenameBox(ctx context.Context, id, name string) (*models.Box, error) {
	args := m.Called(ctx, id, name)
	b, _ := args.Get(0).(*models.Box)
	return b, args.Error(1)
}

func (m *MockStore) DeleteBox(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) CreateCollection(ctx context.Context, boxID, name string, content []byte, isPublic bool) (*models.Collection, error) {
	args := m.Called(ctx, boxID, name, content, isPublic)
	c, _ := args.Get(0).(*models.Collection)
	return c, args.Error(1)
}

func (m *MockStore) GetCollection(ctx context.Context, boxID, id string) (*models.Collection, error) {
	args := m.Called(ctx, boxID, id)
	c, _ := args.Get(0).(*models.Collection)
	return c, args.Error(1)
}

func (m *MockStore) ListCollections(ctx context.Context, boxID string) ([]*models.Collection, error) {
	args := m.Called(ctx, boxID)
	cs, _ := args.Get(0).([]*models.Collection)
	return cs, args.Error(1)
}

func (m *MockStore) UpdateCollection(ctx context.Context, boxID, id string, upd models.CollectionUpdate) (*models.Collection, error) {
	args := m.Called(ctx, boxID, id, upd)
	c, _ := args.Get(0).(*models.Collection)
	return c, args.Error(1)
}

func (m *MockStore) DeleteCollection(ctx context.Context, boxID, id string) error {
	return m.Called(ctx, boxID, id).Error(0)
}

package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"saga-server/internal/models"
	"saga-server/internal/repository"
)

// MockSessionRepository is a mock type for the SessionRepository type
type MockSessionRepository struct {
	mock.Mock
}

func (_m *MockSessionRepository) Save(ctx context.Context, snapshot models.GameState) error {
	ret := _m.Called(ctx, snapshot)
	return ret.Error(0)
}

func (_m *MockSessionRepository) Load(ctx context.Context, sessionID uuid.UUID) (*models.GameState, error) {
	ret := _m.Called(ctx, sessionID)

	var r0 *models.GameState
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.GameState)
	}
	return r0, ret.Error(1)
}

func (_m *MockSessionRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	ret := _m.Called(ctx, sessionID)
	return ret.Error(0)
}

var _ repository.SessionRepository = (*MockSessionRepository)(nil)

// MockLegendRepository is a mock type for the LegendRepository type
type MockLegendRepository struct {
	mock.Mock
}

func (_m *MockLegendRepository) Create(ctx context.Context, legend *models.Legend) error {
	ret := _m.Called(ctx, legend)
	return ret.Error(0)
}

func (_m *MockLegendRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Legend, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.Legend
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Legend)
	}
	return r0, ret.Error(1)
}

func (_m *MockLegendRepository) List(ctx context.Context, limit int, offset int) ([]*models.Legend, error) {
	ret := _m.Called(ctx, limit, offset)

	var r0 []*models.Legend
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*models.Legend)
	}
	return r0, ret.Error(1)
}

var _ repository.LegendRepository = (*MockLegendRepository)(nil)

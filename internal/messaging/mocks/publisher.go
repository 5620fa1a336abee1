package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"saga-server/internal/messaging"
)

// MockClientUpdatePublisher is a mock type for the ClientUpdatePublisher type
type MockClientUpdatePublisher struct {
	mock.Mock
}

func (_m *MockClientUpdatePublisher) PublishClientUpdate(ctx context.Context, payload messaging.ClientUpdatePayload) error {
	ret := _m.Called(ctx, payload)
	return ret.Error(0)
}

var _ messaging.ClientUpdatePublisher = (*MockClientUpdatePublisher)(nil)

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"saga-server/internal/clients"
	"saga-server/internal/models"
)

// MockNarrativeClient is a mock type for the NarrativeClient type
type MockNarrativeClient struct {
	mock.Mock
}

func (_m *MockNarrativeClient) StreamTurn(ctx context.Context, req clients.TurnRequest, onFragment func(string) error) (*models.TurnResponse, error) {
	ret := _m.Called(ctx, req, onFragment)

	var r0 *models.TurnResponse
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.TurnResponse)
	}
	return r0, ret.Error(1)
}

func (_m *MockNarrativeClient) GenerateShortText(ctx context.Context, kind clients.ShortTextKind, contextText string) (string, error) {
	ret := _m.Called(ctx, kind, contextText)
	return ret.String(0), ret.Error(1)
}

var _ clients.NarrativeClient = (*MockNarrativeClient)(nil)

// MockSpeechClient is a mock type for the SpeechClient type
type MockSpeechClient struct {
	mock.Mock
}

func (_m *MockSpeechClient) GenerateSpeech(ctx context.Context, text string, reference string) (string, error) {
	ret := _m.Called(ctx, text, reference)
	return ret.String(0), ret.Error(1)
}

var _ clients.SpeechClient = (*MockSpeechClient)(nil)

// MockImageClient is a mock type for the ImageClient type
type MockImageClient struct {
	mock.Mock
}

func (_m *MockImageClient) GenerateImage(ctx context.Context, prompt string, reference string) (string, error) {
	ret := _m.Called(ctx, prompt, reference)
	return ret.String(0), ret.Error(1)
}

var _ clients.ImageClient = (*MockImageClient)(nil)

package sideeffects

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"saga-server/internal/clients"
	clientmocks "saga-server/internal/clients/mocks"
	"saga-server/internal/engine"
	"saga-server/internal/messaging"
	messagingmocks "saga-server/internal/messaging/mocks"
	"saga-server/internal/models"
)

type fakePatcher struct {
	applied []models.EntryPatch
	accept  bool
}

func (f *fakePatcher) PatchEntry(_ uuid.UUID, patch models.EntryPatch) bool {
	if f.accept {
		f.applied = append(f.applied, patch)
	}
	return f.accept
}

type legendRecorderSpy struct {
	called chan string
}

func (l *legendRecorderSpy) RecordLegend(_ context.Context, _ uuid.UUID, titleHint string) {
	l.called <- titleHint
}

func newDispatch(patcher EntryPatcher) Dispatch {
	return Dispatch{
		SessionID: uuid.New(),
		EntryID:   uuid.New(),
		Patcher:   patcher,
	}
}

func TestSpeechEffectPatchesAndPublishes(t *testing.T) {
	speech := new(clientmocks.MockSpeechClient)
	publisher := new(messagingmocks.MockClientUpdatePublisher)
	patcher := &fakePatcher{accept: true}
	d := newDispatch(patcher)

	speech.On("GenerateSpeech", mock.Anything, "The dragon roars.", d.EntryID.String()).
		Return("/media/"+d.EntryID.String()+".mp3", nil)
	publisher.On("PublishClientUpdate", mock.Anything, mock.MatchedBy(func(p messaging.ClientUpdatePayload) bool {
		return p.Type == messaging.ClientUpdateEntryPatched && p.EntryID != nil && *p.EntryID == d.EntryID
	})).Return(nil)

	p := NewPipeline(speech, nil, nil, nil, publisher, time.Second, zap.NewNop())
	p.Run(d, []engine.SideEffectRequest{{Kind: engine.SideEffectSpeech, Text: "The dragon roars."}})
	p.Wait()

	speech.AssertExpectations(t)
	publisher.AssertExpectations(t)
	require.Len(t, patcher.applied, 1)
	assert.NotNil(t, patcher.applied[0].VoiceURL)
	require.NotNil(t, patcher.applied[0].IsPlaying)
	assert.True(t, *patcher.applied[0].IsPlaying)
}

func TestSpeechEffectSkipsPatchOnEmptyURL(t *testing.T) {
	speech := new(clientmocks.MockSpeechClient)
	publisher := new(messagingmocks.MockClientUpdatePublisher)
	patcher := &fakePatcher{accept: true}
	d := newDispatch(patcher)

	// Too-short text is reported as an empty URL, not an error.
	speech.On("GenerateSpeech", mock.Anything, "Hm.", d.EntryID.String()).Return("", nil)

	p := NewPipeline(speech, nil, nil, nil, publisher, time.Second, zap.NewNop())
	p.Run(d, []engine.SideEffectRequest{{Kind: engine.SideEffectSpeech, Text: "Hm."}})
	p.Wait()

	speech.AssertExpectations(t)
	publisher.AssertNotCalled(t, "PublishClientUpdate", mock.Anything, mock.Anything)
	assert.Empty(t, patcher.applied)
}

func TestSceneImageEffect(t *testing.T) {
	narrative := new(clientmocks.MockNarrativeClient)
	images := new(clientmocks.MockImageClient)
	publisher := new(messagingmocks.MockClientUpdatePublisher)
	patcher := &fakePatcher{accept: true}
	d := newDispatch(patcher)

	narrative.On("GenerateShortText", mock.Anything, clients.ShortTextScenePrompt, "A ruined tower at dusk.").
		Return("ruined tower, dusk, oil painting", nil)
	images.On("GenerateImage", mock.Anything, "ruined tower, dusk, oil painting", d.EntryID.String()).
		Return("/media/"+d.EntryID.String()+".png", nil)
	publisher.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

	p := NewPipeline(nil, images, narrative, nil, publisher, time.Second, zap.NewNop())
	p.Run(d, []engine.SideEffectRequest{{Kind: engine.SideEffectSceneImage, Text: "A ruined tower at dusk."}})
	p.Wait()

	narrative.AssertExpectations(t)
	images.AssertExpectations(t)
	require.Len(t, patcher.applied, 1)
	assert.NotNil(t, patcher.applied[0].ImageURL)
}

func TestFailedPatchDropsResultSilently(t *testing.T) {
	speech := new(clientmocks.MockSpeechClient)
	publisher := new(messagingmocks.MockClientUpdatePublisher)
	d := newDispatch(&fakePatcher{accept: false})

	speech.On("GenerateSpeech", mock.Anything, mock.Anything, mock.Anything).Return("/media/x.mp3", nil)

	p := NewPipeline(speech, nil, nil, nil, publisher, time.Second, zap.NewNop())
	p.Run(d, []engine.SideEffectRequest{{Kind: engine.SideEffectSpeech, Text: "Anything at all here."}})
	p.Wait()

	publisher.AssertNotCalled(t, "PublishClientUpdate", mock.Anything, mock.Anything)
}

func TestGenerationFailureNeverPropagates(t *testing.T) {
	speech := new(clientmocks.MockSpeechClient)
	patcher := &fakePatcher{accept: true}
	d := newDispatch(patcher)

	speech.On("GenerateSpeech", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("tts unavailable"))

	p := NewPipeline(speech, nil, nil, nil, messaging.NopPublisher{}, time.Second, zap.NewNop())
	p.Run(d, []engine.SideEffectRequest{{Kind: engine.SideEffectSpeech, Text: "Plenty of text here."}})
	p.Wait()

	assert.Empty(t, patcher.applied)
}

func TestLegendEffectDelegatesToRecorder(t *testing.T) {
	spy := &legendRecorderSpy{called: make(chan string, 1)}
	d := newDispatch(nil)

	p := NewPipeline(nil, nil, nil, spy, messaging.NopPublisher{}, time.Second, zap.NewNop())
	p.Run(d, []engine.SideEffectRequest{{Kind: engine.SideEffectLegendTitle, Text: "Thus ends the tale."}})
	p.Wait()

	select {
	case hint := <-spy.called:
		assert.Equal(t, "Thus ends the tale.", hint)
	default:
		t.Fatal("legend recorder was never called")
	}
}

func TestUnconfiguredClientsAreSkipped(t *testing.T) {
	d := newDispatch(&fakePatcher{accept: true})

	p := NewPipeline(nil, nil, nil, nil, nil, time.Second, zap.NewNop())
	p.Run(d, []engine.SideEffectRequest{
		{Kind: engine.SideEffectSpeech, Text: "no speech client"},
		{Kind: engine.SideEffectSceneImage, Text: "no image client"},
		{Kind: engine.SideEffectLegendTitle, Text: "no recorder"},
	})
	p.Wait()
}

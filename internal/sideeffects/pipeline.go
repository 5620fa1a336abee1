// Package sideeffects runs detached media generation after a turn has
// already been committed and answered. Failures here degrade the
// experience (a missing voice line, no scene image) but never the turn.
package sideeffects

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"saga-server/internal/clients"
	"saga-server/internal/engine"
	"saga-server/internal/messaging"
	"saga-server/internal/models"
)

var (
	sideEffectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_side_effects_total",
			Help: "Total side-effect executions by kind and status.",
		},
		[]string{"kind", "status"},
	)
	sideEffectDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saga_side_effect_duration_seconds",
			Help:    "Histogram of side-effect execution durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

// EntryPatcher applies a late patch to a story entry. It reports false
// when the entry no longer exists, in which case the result is discarded.
type EntryPatcher interface {
	PatchEntry(entryID uuid.UUID, patch models.EntryPatch) bool
}

// LegendRecorder persists a finished adventure as a legend.
type LegendRecorder interface {
	RecordLegend(ctx context.Context, sessionID uuid.UUID, titleHint string)
}

// Dispatch carries everything one batch of side effects needs.
type Dispatch struct {
	SessionID uuid.UUID
	EntryID   uuid.UUID
	Patcher   EntryPatcher
}

// Pipeline fans side-effect requests out to worker goroutines. Every
// request is independent; one failure never blocks or cancels another.
type Pipeline struct {
	speech    clients.SpeechClient
	images    clients.ImageClient
	narrative clients.NarrativeClient
	legends   LegendRecorder
	publisher messaging.ClientUpdatePublisher
	timeout   time.Duration
	logger    *zap.Logger

	wg sync.WaitGroup
}

func NewPipeline(
	speech clients.SpeechClient,
	images clients.ImageClient,
	narrative clients.NarrativeClient,
	legends LegendRecorder,
	publisher messaging.ClientUpdatePublisher,
	timeout time.Duration,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		speech:    speech,
		images:    images,
		narrative: narrative,
		legends:   legends,
		publisher: publisher,
		timeout:   timeout,
		logger:    logger.Named("SideEffectPipeline"),
	}
}

// Run launches one goroutine per request and returns immediately.
func (p *Pipeline) Run(d Dispatch, effects []engine.SideEffectRequest) {
	for _, effect := range effects {
		effect := effect
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.execute(d, effect)
		}()
	}
}

// Wait blocks until all in-flight side effects finish. Used on shutdown.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) execute(d Dispatch, effect engine.SideEffectRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	log := p.logger.With(
		zap.String("session_id", d.SessionID.String()),
		zap.String("entry_id", d.EntryID.String()),
		zap.String("kind", string(effect.Kind)))

	startTime := time.Now()
	var err error
	switch effect.Kind {
	case engine.SideEffectSpeech:
		err = p.runSpeech(ctx, d, effect.Text, log)
	case engine.SideEffectSceneImage:
		err = p.runSceneImage(ctx, d, effect.Text, log)
	case engine.SideEffectLegendTitle:
		err = p.runLegend(ctx, d, effect.Text, log)
	default:
		log.Warn("Unknown side-effect kind, skipping")
		sideEffectsTotal.WithLabelValues(string(effect.Kind), "unknown").Inc()
		return
	}
	sideEffectDuration.WithLabelValues(string(effect.Kind)).Observe(time.Since(startTime).Seconds())

	if err != nil {
		log.Warn("Side effect failed, degrading silently", zap.Error(err))
		sideEffectsTotal.WithLabelValues(string(effect.Kind), "error").Inc()
		return
	}
	sideEffectsTotal.WithLabelValues(string(effect.Kind), "success").Inc()
}

func (p *Pipeline) runSpeech(ctx context.Context, d Dispatch, text string, log *zap.Logger) error {
	if p.speech == nil {
		log.Debug("Speech client not configured, skipping")
		return nil
	}
	audioURL, err := p.speech.GenerateSpeech(ctx, text, d.EntryID.String())
	if err != nil {
		return err
	}
	if audioURL == "" {
		return nil
	}
	// Speech is only requested when auto-play is on, so the landed
	// audio starts playing right away.
	playing := true
	p.patchAndPublish(ctx, d, models.EntryPatch{VoiceURL: &audioURL, IsPlaying: &playing}, log)
	return nil
}

func (p *Pipeline) runSceneImage(ctx context.Context, d Dispatch, text string, log *zap.Logger) error {
	if p.images == nil || p.narrative == nil {
		log.Debug("Image generation not configured, skipping")
		return nil
	}
	prompt, err := p.narrative.GenerateShortText(ctx, clients.ShortTextScenePrompt, text)
	if err != nil {
		return err
	}
	imageURL, err := p.images.GenerateImage(ctx, prompt, d.EntryID.String())
	if err != nil {
		return err
	}
	p.patchAndPublish(ctx, d, models.EntryPatch{ImageURL: &imageURL}, log)
	return nil
}

func (p *Pipeline) runLegend(ctx context.Context, d Dispatch, titleHint string, log *zap.Logger) error {
	if p.legends == nil {
		log.Debug("Legend recorder not configured, skipping")
		return nil
	}
	p.legends.RecordLegend(ctx, d.SessionID, titleHint)
	return nil
}

// patchAndPublish applies the late patch and tells the realtime gateway.
// A false return from the patcher means the entry was removed while the
// effect ran; the generated media is simply dropped.
func (p *Pipeline) patchAndPublish(ctx context.Context, d Dispatch, patch models.EntryPatch, log *zap.Logger) {
	if d.Patcher == nil || !d.Patcher.PatchEntry(d.EntryID, patch) {
		log.Debug("Entry gone before patch arrived, dropping result")
		return
	}
	if p.publisher == nil {
		return
	}
	entryID := d.EntryID
	err := p.publisher.PublishClientUpdate(ctx, messaging.ClientUpdatePayload{
		SessionID: d.SessionID,
		Type:      messaging.ClientUpdateEntryPatched,
		EntryID:   &entryID,
		Patch:     &patch,
	})
	if err != nil {
		log.Warn("Failed to publish entry patch", zap.Error(err))
	}
}

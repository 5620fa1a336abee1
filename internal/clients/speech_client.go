package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Voice lines shorter than this are noise (a lone "Yes." or an ellipsis)
// and are skipped rather than synthesized.
const minSpeechTextLength = 10

var (
	ErrSpeechGenerationFailed = errors.New("speech generation failed")
	ErrMediaSaveFailed        = errors.New("failed to save media file")
)

// SpeechClient turns narration text into a playable audio URL.
type SpeechClient interface {
	// GenerateSpeech synthesizes text and returns a public URL for the
	// stored audio file. It returns an empty URL with a nil error when the
	// text is too short to be worth voicing.
	GenerateSpeech(ctx context.Context, text string, reference string) (string, error)
}

// MediaConfig locates the shared media volume and its public mount.
type MediaConfig struct {
	SavePath      string
	PublicBaseURL string
	Voice         string
	Timeout       time.Duration
}

type openAISpeechClient struct {
	client *openaigo.Client
	cfg    MediaConfig
	logger *zap.Logger
}

func NewOpenAISpeechClient(client *openaigo.Client, cfg MediaConfig, logger *zap.Logger) (SpeechClient, error) {
	if cfg.SavePath == "" {
		return nil, errors.New("media save path (MEDIA_SAVE_PATH) is not configured")
	}
	if cfg.PublicBaseURL == "" {
		return nil, errors.New("media public base URL (MEDIA_PUBLIC_BASE_URL) is not configured")
	}
	return &openAISpeechClient{
		client: client,
		cfg:    cfg,
		logger: logger.Named("SpeechClient"),
	}, nil
}

func (c *openAISpeechClient) GenerateSpeech(ctx context.Context, text string, reference string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minSpeechTextLength {
		c.logger.Debug("Skipping speech synthesis for short text", zap.Int("length", len(trimmed)))
		return "", nil
	}
	if reference == "" {
		return "", fmt.Errorf("%w: reference is required but empty", ErrMediaSaveFailed)
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	voice := openaigo.SpeechVoice(c.cfg.Voice)
	if voice == "" {
		voice = openaigo.VoiceAlloy
	}

	resp, err := c.client.CreateSpeech(requestCtx, openaigo.CreateSpeechRequest{
		Model:          openaigo.TTSModel1,
		Input:          trimmed,
		Voice:          voice,
		ResponseFormat: openaigo.SpeechResponseFormatMp3,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSpeechGenerationFailed, err)
	}
	defer resp.Close()

	audioData, err := io.ReadAll(resp)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read audio stream: %v", ErrSpeechGenerationFailed, err)
	}
	if len(audioData) == 0 {
		return "", fmt.Errorf("%w: API returned empty audio", ErrSpeechGenerationFailed)
	}

	fileName := fmt.Sprintf("%s.mp3", reference)
	filePath := filepath.Join(c.cfg.SavePath, fileName)
	if err := os.WriteFile(filePath, audioData, 0644); err != nil {
		c.logger.Error("Failed to save audio file", zap.String("path", filePath), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrMediaSaveFailed, err)
	}

	audioURL := joinMediaURL(c.cfg.PublicBaseURL, fileName)
	c.logger.Info("Speech audio stored",
		zap.String("path", filePath),
		zap.Int("size_bytes", len(audioData)),
		zap.String("url", audioURL))
	return audioURL, nil
}

func joinMediaURL(baseURL, fileName string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + fileName
}

package clients

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// The image API rejects very long prompts, so anything over this limit is
// truncated before sending.
const maxImagePromptLength = 900

var ErrImageGenerationFailed = errors.New("image generation failed")

// ImageClient renders a scene illustration and returns its public URL.
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string, reference string) (string, error)
}

type openAIImageClient struct {
	client      *openaigo.Client
	cfg         MediaConfig
	styleSuffix string
	logger      *zap.Logger
}

func NewOpenAIImageClient(client *openaigo.Client, cfg MediaConfig, styleSuffix string, logger *zap.Logger) (ImageClient, error) {
	if cfg.SavePath == "" {
		return nil, errors.New("media save path (MEDIA_SAVE_PATH) is not configured")
	}
	if cfg.PublicBaseURL == "" {
		return nil, errors.New("media public base URL (MEDIA_PUBLIC_BASE_URL) is not configured")
	}
	return &openAIImageClient{
		client:      client,
		cfg:         cfg,
		styleSuffix: styleSuffix,
		logger:      logger.Named("ImageClient"),
	}, nil
}

func (c *openAIImageClient) GenerateImage(ctx context.Context, prompt string, reference string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt is empty", ErrImageGenerationFailed)
	}
	if reference == "" {
		return "", fmt.Errorf("%w: reference is required but empty", ErrMediaSaveFailed)
	}

	fullPrompt := prompt + c.styleSuffix
	if len(fullPrompt) > maxImagePromptLength {
		fullPrompt = fullPrompt[:maxImagePromptLength]
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	startTime := time.Now()
	resp, err := c.client.CreateImage(requestCtx, openaigo.ImageRequest{
		Prompt:         fullPrompt,
		Model:          openaigo.CreateImageModelDallE3,
		Size:           openaigo.CreateImageSize1024x1024,
		ResponseFormat: openaigo.CreateImageResponseFormatB64JSON,
		N:              1,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageGenerationFailed, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", fmt.Errorf("%w: API returned no image data", ErrImageGenerationFailed)
	}

	imageData, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return "", fmt.Errorf("%w: failed to decode image payload: %v", ErrImageGenerationFailed, err)
	}

	fileName := fmt.Sprintf("%s.png", reference)
	filePath := filepath.Join(c.cfg.SavePath, fileName)
	if err := os.WriteFile(filePath, imageData, 0644); err != nil {
		c.logger.Error("Failed to save image file", zap.String("path", filePath), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrMediaSaveFailed, err)
	}

	imageURL := joinMediaURL(c.cfg.PublicBaseURL, fileName)
	c.logger.Info("Scene image stored",
		zap.String("path", filePath),
		zap.Int("size_bytes", len(imageData)),
		zap.Duration("took", time.Since(startTime)),
		zap.String("url", imageURL))
	return imageURL, nil
}

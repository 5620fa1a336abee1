package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	openaigo "github.com/sashabaranov/go-openai"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"saga-server/internal/models"
)

// ErrAIGenerationFailed wraps every narrative-service failure.
var ErrAIGenerationFailed = errors.New("AI text generation failed")

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_ai_requests_total",
			Help: "Total number of requests to the narrative AI.",
		},
		[]string{"model", "kind", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saga_ai_request_duration_seconds",
			Help:    "Histogram of narrative AI request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model", "kind"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saga_ai_completion_tokens",
			Help:    "Histogram of completion token counts (exact or estimated).",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model"},
	)
)

// NarrativeClient is the narrative-service collaborator: one streamed turn
// plus ancillary short-text generation.
type NarrativeClient interface {
	// StreamTurn sends a turn request and invokes onFragment for each
	// narrative text fragment in transport order. It returns the final
	// structured payload once the stream completes; a nil payload with a
	// non-nil error means the caller should take the fallback path.
	StreamTurn(ctx context.Context, req TurnRequest, onFragment func(string) error) (*models.TurnResponse, error)

	// GenerateShortText produces a legend title, scene-image prompt or
	// antagonist profile.
	GenerateShortText(ctx context.Context, kind ShortTextKind, contextText string) (string, error)
}

// AIConfig selects and tunes the narrative backend.
type AIConfig struct {
	ClientType string // "openai" or "ollama"
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
}

// NewNarrativeClient builds the configured backend.
func NewNarrativeClient(cfg AIConfig, logger *zap.Logger) (NarrativeClient, error) {
	switch strings.ToLower(cfg.ClientType) {
	case "openai":
		openaiConfig := openaigo.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			openaiConfig.BaseURL = cfg.BaseURL
		}
		openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		logger.Info("Using OpenAI narrative client",
			zap.String("baseURL", cfg.BaseURL), zap.String("model", cfg.Model))
		return &openAINarrativeClient{
			client: openaigo.NewClientWithConfig(openaiConfig),
			model:  cfg.Model,
			logger: logger.Named("NarrativeClient"),
		}, nil
	case "ollama":
		return newOllamaNarrativeClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown AI client type: %q", cfg.ClientType)
	}
}

// --- OpenAI implementation ---

type openAINarrativeClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

func (c *openAINarrativeClient) StreamTurn(ctx context.Context, req TurnRequest, onFragment func(string) error) (*models.TurnResponse, error) {
	userPrompt, err := buildTurnUserPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}

	request := openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleSystem, Content: buildTurnSystemPrompt()},
			{Role: openaigo.ChatMessageRoleUser, Content: userPrompt},
		},
		Stream: true,
	}

	startTime := time.Now()
	stream, err := c.client.CreateChatCompletionStream(ctx, request)
	if err != nil {
		aiRequestsTotal.WithLabelValues(c.model, "turn", "error_stream_init").Inc()
		return nil, fmt.Errorf("%w: failed to open stream: %v", ErrAIGenerationFailed, err)
	}
	defer stream.Close()

	var splitter markerSplitter
	var narrative strings.Builder
	emit := func(fragment string) {
		narrative.WriteString(fragment)
		if onFragment == nil {
			return
		}
		if cbErr := onFragment(fragment); cbErr != nil {
			c.logger.Warn("Fragment handler failed; continuing stream", zap.Error(cbErr))
		}
	}

	completionTokens := 0
	for {
		response, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			aiRequestsTotal.WithLabelValues(c.model, "turn", "error_stream_read").Inc()
			return nil, fmt.Errorf("%w: stream read failed: %v", ErrAIGenerationFailed, recvErr)
		}
		if response.Usage != nil && response.Usage.CompletionTokens > 0 {
			completionTokens = response.Usage.CompletionTokens
		}
		if len(response.Choices) == 0 {
			continue
		}
		if fragment := splitter.feed(response.Choices[0].Delta.Content); fragment != "" {
			emit(fragment)
		}
	}
	duration := time.Since(startTime)

	remainder, stateBlock := splitter.finish()
	if remainder != "" {
		emit(remainder)
	}

	resp, parseErr := parseTurnResponse(stateBlock, narrative.String())
	if parseErr != nil {
		aiRequestsTotal.WithLabelValues(c.model, "turn", "error_parse").Inc()
		return nil, fmt.Errorf("%w: %v", ErrAIGenerationFailed, parseErr)
	}

	c.observeCompletion("turn", duration, completionTokens, resp.Narrative)
	return resp, nil
}

func (c *openAINarrativeClient) GenerateShortText(ctx context.Context, kind ShortTextKind, contextText string) (string, error) {
	instruction, ok := shortTextInstructions[kind]
	if !ok {
		return "", fmt.Errorf("%w: unknown short-text kind %q", ErrAIGenerationFailed, kind)
	}

	startTime := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleSystem, Content: shortTextSystemPrompt},
			{Role: openaigo.ChatMessageRoleUser, Content: instruction + "\n\n" + contextText},
		},
		MaxTokens: 120,
	})
	duration := time.Since(startTime)

	if err != nil {
		aiRequestsTotal.WithLabelValues(c.model, string(kind), "error").Inc()
		return "", fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		aiRequestsTotal.WithLabelValues(c.model, string(kind), "error_empty_response").Inc()
		return "", fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}

	aiRequestsTotal.WithLabelValues(c.model, string(kind), "success").Inc()
	aiRequestDuration.WithLabelValues(c.model, string(kind)).Observe(duration.Seconds())
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// observeCompletion records metrics, estimating tokens via tiktoken when
// the stream carried no usage block.
func (c *openAINarrativeClient) observeCompletion(kind string, duration time.Duration, completionTokens int, narrative string) {
	aiRequestsTotal.WithLabelValues(c.model, kind, "success_stream").Inc()
	aiRequestDuration.WithLabelValues(c.model, kind).Observe(duration.Seconds())

	if completionTokens == 0 {
		if tke, err := tiktoken.EncodingForModel(c.model); err == nil {
			completionTokens = len(tke.Encode(narrative, nil, nil))
		}
	}
	if completionTokens > 0 {
		aiCompletionTokens.WithLabelValues(c.model).Observe(float64(completionTokens))
	}
}

// --- Ollama implementation ---

type ollamaNarrativeClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func newOllamaNarrativeClient(cfg AIConfig, logger *zap.Logger) (NarrativeClient, error) {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/v1")
	baseURL = strings.TrimSuffix(baseURL, "/")
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Ollama base URL %q: %w", baseURL, err)
	}

	logger.Info("Using Ollama narrative client",
		zap.String("baseURL", baseURL), zap.String("model", cfg.Model))
	return &ollamaNarrativeClient{
		client:  api.NewClient(parsedURL, &http.Client{Timeout: cfg.Timeout}),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger.Named("NarrativeClient"),
	}, nil
}

func (c *ollamaNarrativeClient) StreamTurn(ctx context.Context, req TurnRequest, onFragment func(string) error) (*models.TurnResponse, error) {
	userPrompt, err := buildTurnUserPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}

	streaming := true
	request := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: buildTurnSystemPrompt()},
			{Role: "user", Content: userPrompt},
		},
		Stream: &streaming,
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var splitter markerSplitter
	var narrative strings.Builder
	emit := func(fragment string) {
		narrative.WriteString(fragment)
		if onFragment == nil {
			return
		}
		if cbErr := onFragment(fragment); cbErr != nil {
			c.logger.Warn("Fragment handler failed; continuing stream", zap.Error(cbErr))
		}
	}

	startTime := time.Now()
	err = c.client.Chat(requestCtx, request, func(resp api.ChatResponse) error {
		if resp.Message.Content == "" {
			return nil
		}
		if fragment := splitter.feed(resp.Message.Content); fragment != "" {
			emit(fragment)
		}
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		aiRequestsTotal.WithLabelValues(c.model, "turn", "error_stream").Inc()
		return nil, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}

	remainder, stateBlock := splitter.finish()
	if remainder != "" {
		emit(remainder)
	}

	resp, parseErr := parseTurnResponse(stateBlock, narrative.String())
	if parseErr != nil {
		aiRequestsTotal.WithLabelValues(c.model, "turn", "error_parse").Inc()
		return nil, fmt.Errorf("%w: %v", ErrAIGenerationFailed, parseErr)
	}

	aiRequestsTotal.WithLabelValues(c.model, "turn", "success_stream").Inc()
	aiRequestDuration.WithLabelValues(c.model, "turn").Observe(duration.Seconds())
	return resp, nil
}

func (c *ollamaNarrativeClient) GenerateShortText(ctx context.Context, kind ShortTextKind, contextText string) (string, error) {
	instruction, ok := shortTextInstructions[kind]
	if !ok {
		return "", fmt.Errorf("%w: unknown short-text kind %q", ErrAIGenerationFailed, kind)
	}

	streaming := false
	request := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: shortTextSystemPrompt},
			{Role: "user", Content: instruction + "\n\n" + contextText},
		},
		Stream: &streaming,
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var final api.ChatResponse
	err := c.client.Chat(requestCtx, request, func(resp api.ChatResponse) error {
		final = resp
		return nil
	})
	if err != nil {
		aiRequestsTotal.WithLabelValues(c.model, string(kind), "error").Inc()
		return "", fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	if final.Message.Content == "" {
		aiRequestsTotal.WithLabelValues(c.model, string(kind), "error_empty_response").Inc()
		return "", fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}

	aiRequestsTotal.WithLabelValues(c.model, string(kind), "success").Inc()
	return strings.TrimSpace(final.Message.Content), nil
}

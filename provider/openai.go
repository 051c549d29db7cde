package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/ZaguanLabs/packlate"
	"github.com/sashabaranov/go-openai"
)

const (
	// OpenAIName identifies the OpenAI backend.
	OpenAIName = "openai"

	// OpenAICharLimit is the default source length limit for OpenAI.
	OpenAICharLimit = 4000
)

// OpenAIBackend implements Backend using OpenAI's chat completions API. Each
// session keeps its own message history so continuation requests see the
// truncated reply.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	charLimit   int
	prompt      string
}

// OpenAIConfig holds configuration for the OpenAI backend.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.3)
	BaseURL     string  // Custom base URL (optional)
	MaxTokens   int     // Reply length cap; zero leaves it to the API
	CharLimit   int     // Source length limit (default: 4000)
	Context     string  // Subject matter hint for the system prompt
	HTTPClient  *http.Client
}

// NewOpenAIBackend creates a new OpenAI backend.
func NewOpenAIBackend(cfg OpenAIConfig) *OpenAIBackend {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	charLimit := cfg.CharLimit
	if charLimit == 0 {
		charLimit = OpenAICharLimit
	}

	return &OpenAIBackend{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
		maxTokens:   cfg.MaxTokens,
		charLimit:   charLimit,
		prompt:      packlate.SystemPrompt(cfg.Context),
	}
}

// Name implements Backend.
func (p *OpenAIBackend) Name() string { return OpenAIName }

// CharLimit implements Backend.
func (p *OpenAIBackend) CharLimit() int { return p.charLimit }

// OpenSession implements Backend. No request is made until the first Send.
func (p *OpenAIBackend) OpenSession(ctx context.Context) (Session, error) {
	return &openAISession{
		backend: p,
		history: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.prompt},
		},
	}, nil
}

type openAISession struct {
	backend *OpenAIBackend
	mu      sync.Mutex
	history []openai.ChatCompletionMessage
}

func (s *openAISession) Send(ctx context.Context, text string) (Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text}
	messages := append(s.history[:len(s.history):len(s.history)], user)

	resp, err := s.backend.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.backend.model,
		Messages:    messages,
		Temperature: s.backend.temperature,
		MaxTokens:   s.backend.maxTokens,
	})
	if err != nil {
		return Reply{}, classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return Reply{}, &packlate.ProviderError{
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}

	choice := resp.Choices[0]
	s.history = append(messages, choice.Message)

	return Reply{
		Text:      choice.Message.Content,
		Truncated: choice.FinishReason == openai.FinishReasonLength,
	}, nil
}

// Close drops the history; OpenAI holds no server-side conversation state.
func (s *openAISession) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	return nil
}

func classifyOpenAIError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if status == http.StatusTooManyRequests {
		return &packlate.RateLimitError{Backend: OpenAIName, Cause: err}
	}

	return &packlate.ProviderError{
		Message:   "OpenAI API call failed",
		Cause:     err,
		Retryable: isRetryableStatus(status) || (status == 0 && isTransient(err)),
	}
}

func isRetryableStatus(status int) bool {
	return status == http.StatusRequestTimeout || status >= http.StatusInternalServerError
}

// isTransient matches network failures that carry no HTTP status.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "connection refused", "connection reset", "temporary", "eof"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

var _ Backend = (*OpenAIBackend)(nil)

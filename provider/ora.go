package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/ZaguanLabs/packlate"
	"github.com/google/uuid"
)

const (
	// OraName identifies the Ora backend.
	OraName = "ora"

	// OraCharLimit is the default source length limit for Ora.
	OraCharLimit = 1000

	oraDefaultBaseURL = "https://ora.sh"
	oraSlug           = "gpt-3.5"
	oraDescription    = "ChatGPT Openai Language Model"
	oraModel          = "gpt-3.5-turbo"
	oraProvider       = "OPEN_AI"
)

// OraBackend implements Backend using the ora.sh assistant API. The assistant
// carrying the system prompt is created once, on the first OpenSession, and
// shared by every session of the backend.
type OraBackend struct {
	baseURL   string
	client    *http.Client
	charLimit int
	prompt    string
	userAgent string

	mu        sync.Mutex
	chatbotID string
	createdBy string
}

// OraConfig holds configuration for the Ora backend.
type OraConfig struct {
	BaseURL    string       // Default: https://ora.sh
	HTTPClient *http.Client // Default: http.DefaultClient
	CharLimit  int          // Source length limit (default: 1000)
	Context    string       // Subject matter hint for the system prompt
}

// NewOraBackend creates a new Ora backend.
func NewOraBackend(cfg OraConfig) *OraBackend {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = oraDefaultBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	charLimit := cfg.CharLimit
	if charLimit == 0 {
		charLimit = OraCharLimit
	}

	return &OraBackend{
		baseURL:   baseURL,
		client:    client,
		charLimit: charLimit,
		prompt:    packlate.SystemPrompt(cfg.Context),
		userAgent: packlate.UserAgent(),
	}
}

// Name implements Backend.
func (p *OraBackend) Name() string { return OraName }

// CharLimit implements Backend.
func (p *OraBackend) CharLimit() int { return p.charLimit }

type oraAssistantRequest struct {
	Prompt      string `json:"prompt"`
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type oraAssistantResponse struct {
	ID        string `json:"id"`
	CreatedBy string `json:"createdBy"`
	Error     string `json:"error"`
}

type oraConversationRequest struct {
	ChatbotID      string `json:"chatbotId"`
	Input          string `json:"input"`
	UserID         string `json:"userId"`
	Model          string `json:"model"`
	Provider       string `json:"provider"`
	IncludeHistory bool   `json:"includeHistory"`
}

type oraConversationResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// OpenSession implements Backend.
func (p *OraBackend) OpenSession(ctx context.Context) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.chatbotID == "" {
		var resp oraAssistantResponse
		err := p.post(ctx, "/api/assistant", oraAssistantRequest{
			Prompt:      p.prompt,
			UserID:      "auto:" + uuid.NewString(),
			Name:        oraSlug,
			Description: oraDescription,
		}, &resp)
		if err != nil {
			return nil, err
		}
		if resp.ID == "" {
			return nil, &packlate.ProviderError{Message: "ora returned no assistant id"}
		}
		p.chatbotID, p.createdBy = resp.ID, resp.CreatedBy
	}

	return &oraSession{backend: p, chatbotID: p.chatbotID, userID: p.createdBy}, nil
}

type oraSession struct {
	backend   *OraBackend
	chatbotID string
	userID    string
}

// Send implements Session. Ora does not report truncation.
func (s *oraSession) Send(ctx context.Context, text string) (Reply, error) {
	var resp oraConversationResponse
	err := s.backend.post(ctx, "/api/conversation", oraConversationRequest{
		ChatbotID:      s.chatbotID,
		Input:          text,
		UserID:         s.userID,
		Model:          oraModel,
		Provider:       oraProvider,
		IncludeHistory: false,
	}, &resp)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: resp.Response}, nil
}

// Close implements Session. Ora conversations hold no per-session state.
func (s *oraSession) Close(ctx context.Context) error {
	return nil
}

func (p *OraBackend) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &packlate.ProviderError{Message: "encoding ora request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &packlate.ProviderError{Message: "building ora request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Origin", p.baseURL)
	req.Header.Set("Referer", p.baseURL+"/")

	resp, err := p.client.Do(req)
	if err != nil {
		return &packlate.ProviderError{
			Message:   "ora request failed",
			Cause:     err,
			Retryable: ctx.Err() == nil,
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &packlate.ProviderError{Message: "reading ora response", Cause: err, Retryable: true}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return &packlate.RateLimitError{Backend: OraName, Cause: oraStatusError(resp.StatusCode, data)}
	}
	if resp.StatusCode != http.StatusOK {
		return &packlate.ProviderError{
			Message:   "ora returned an error",
			Cause:     oraStatusError(resp.StatusCode, data),
			Retryable: isRetryableStatus(resp.StatusCode),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &packlate.ProviderError{Message: "decoding ora response", Cause: err}
	}
	return nil
}

func oraStatusError(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return fmt.Errorf("status %d: %s", status, payload.Error)
	}
	return fmt.Errorf("status %d", status)
}

var _ Backend = (*OraBackend)(nil)

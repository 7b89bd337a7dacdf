// internal/assistant/ollama.go
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/gridcast/internal/logging"
)

// Ollama implements Provider against an Ollama /api/chat endpoint.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
	options map[string]any
}

// NewOllama builds a provider for the host at baseURL using model.
func NewOllama(baseURL, model string, timeout time.Duration) *Ollama {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		options: map[string]any{"temperature": 0.2},
	}
}

// Model returns the configured model name.
func (o *Ollama) Model() string { return o.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatPayload struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResult struct {
	Model   string      `json:"model"`
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// Reply sends a non-streaming chat request and returns the message content.
func (o *Ollama) Reply(ctx context.Context, req Request) (Reply, error) {
	if o.baseURL == "" {
		return Reply{}, errors.New("assistant host url is not configured")
	}
	messages := []chatMessage{}
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Message})

	body, err := json.Marshal(chatPayload{Model: o.model, Messages: messages, Stream: false, Options: o.options})
	if err != nil {
		return Reply{}, err
	}
	logging.LogRequest("GRIDCAST->LLM", o.baseURL, "/api/chat", body)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return Reply{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return Reply{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, err
	}
	logging.LogRequest("LLM->GRIDCAST", o.baseURL, "/api/chat", respBody)

	if resp.StatusCode != http.StatusOK {
		return Reply{}, fmt.Errorf("ollama: /api/chat returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var out chatResult
	if err := json.Unmarshal(respBody, &out); err != nil {
		return Reply{}, fmt.Errorf("ollama: decode response: %w", err)
	}
	if out.Error != "" {
		return Reply{}, fmt.Errorf("ollama: %s", out.Error)
	}
	model := out.Model
	if model == "" {
		model = o.model
	}
	return Reply{Content: out.Message.Content, Model: model}, nil
}

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tchow/agentdash/internal/config"
	"github.com/tchow/agentdash/internal/logging"
)

var agentLog = logging.ForComponent(logging.CompAgent)

// historyCap bounds the conversation context resent with every request.
const historyCap = 50

// Ollama is a chat adapter for a local Ollama server. The full
// conversation is resent on each request (the /api/chat endpoint is
// stateless).
type Ollama struct {
	statusTracker

	name   string
	host   string
	model  string
	client *http.Client

	histMu  sync.Mutex
	history []ollamaMessage
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// NewOllama builds an adapter from an agent config entry.
func NewOllama(cfg config.AgentConfig) *Ollama {
	host := strings.TrimSuffix(cfg.Host, "/")
	if host == "" {
		host = "http://localhost:11434"
	}
	return &Ollama{
		name:   cfg.Name,
		host:   host,
		model:  cfg.Model,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *Ollama) Name() string { return o.name }

// Connect verifies the server is reachable by listing models.
func (o *Ollama) Connect(ctx context.Context) error {
	o.set(StatusConnecting, "")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.host+"/api/tags", nil)
	if err != nil {
		o.set(StatusError, err.Error())
		return fmt.Errorf("ollama connect: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		o.set(StatusError, err.Error())
		return fmt.Errorf("ollama connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("ollama returned %s", resp.Status)
		o.set(StatusError, msg)
		return fmt.Errorf("ollama connect: %s", msg)
	}

	o.set(StatusConnected, "")
	agentLog.Info("agent_connected", slog.String("agent", o.name), slog.String("host", o.host))
	return nil
}

// SendMessage appends the user message to the conversation, posts the
// whole exchange, and returns the assistant reply.
func (o *Ollama) SendMessage(ctx context.Context, text string) (string, error) {
	if status, _ := o.get(); status != StatusConnected {
		return "", ErrNotConnected
	}

	o.histMu.Lock()
	o.history = append(o.history, ollamaMessage{Role: "user", Content: text})
	if len(o.history) > historyCap {
		o.history = o.history[len(o.history)-historyCap:]
	}
	messages := make([]ollamaMessage, len(o.history))
	copy(messages, o.history)
	o.histMu.Unlock()

	body, err := json.Marshal(ollamaChatRequest{Model: o.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("ollama send: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama send: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		o.set(StatusError, err.Error())
		return "", fmt.Errorf("ollama send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := fmt.Sprintf("ollama returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
		return "", fmt.Errorf("ollama send: %s", msg)
	}

	var chat ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("ollama decode: %w", err)
	}

	o.histMu.Lock()
	o.history = append(o.history, chat.Message)
	o.histMu.Unlock()

	return chat.Message.Content, nil
}

// Disconnect drops the connection state; the HTTP client is stateless.
func (o *Ollama) Disconnect() {
	o.set(StatusDisconnected, "")
}

// Status implements Agent.
func (o *Ollama) Status() (Status, string) { return o.get() }

// New builds an adapter for a configured agent. Unknown types are an
// error so typos in config.toml surface immediately.
func New(cfg config.AgentConfig) (Agent, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "ollama":
		return NewOllama(cfg), nil
	default:
		return nil, fmt.Errorf("unknown agent type %q", cfg.Type)
	}
}

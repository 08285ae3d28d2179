package agent

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
)

// ErrNotConnected is returned when a message is sent before Connect
// succeeded.
var ErrNotConnected = errors.New("agent not connected")

// Status describes an agent's connection state.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Agent is a chat backend the dashboard can talk to. Implementations
// must be safe for concurrent use.
type Agent interface {
	// Name returns the user-assigned agent name.
	Name() string

	// Connect probes the backend and transitions to connected.
	Connect(ctx context.Context) error

	// SendMessage sends one user message and returns the reply.
	SendMessage(ctx context.Context, text string) (string, error)

	// Status returns the current connection state plus the last error
	// message when the state is StatusError.
	Status() (Status, string)

	// Disconnect releases the connection. Safe to call repeatedly.
	Disconnect()
}

// statusTracker is the shared state-machine embedded by adapters.
type statusTracker struct {
	mu      sync.RWMutex
	status  Status
	lastErr string
}

func (t *statusTracker) set(s Status, errMsg string) {
	t.mu.Lock()
	t.status = s
	t.lastErr = errMsg
	t.mu.Unlock()
}

func (t *statusTracker) get() (Status, string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status, t.lastErr
}

// NewMessageID returns a random 16-byte hex id for history records.
func NewMessageID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("agent: rand failed: %v", err))
	}
	return hex.EncodeToString(b[:])
}

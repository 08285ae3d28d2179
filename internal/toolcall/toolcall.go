// Package toolcall lets agents run local tools. Each tool describes
// itself with a JSON schema an agent can advertise, and executes with
// JSON parameters.
package toolcall

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Schema describes a tool to the model that may call it.
type Schema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Request names a tool and carries its parameters.
type Request struct {
	Name       string          `json:"name"`
	Parameters json.RawMessage `json:"parameters"`
}

// Result is the outcome of one tool execution. Output is always
// populated; Error holds a short reason when Success is false.
type Result struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

// Tool is a callable capability.
type Tool interface {
	Schema() Schema
	Execute(ctx context.Context, params json.RawMessage) (Result, error)
}

// Registry maps tool names to implementations.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	r.tools[tool.Schema().Name] = tool
	r.mu.Unlock()
}

// Schemas lists every registered tool, sorted by name for stable output.
func (r *Registry) Schemas() []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schemas := make([]Schema, 0, len(r.tools))
	for _, tool := range r.tools {
		schemas = append(schemas, tool.Schema())
	}
	sort.Slice(schemas, func(i, j int) bool { return schemas[i].Name < schemas[j].Name })
	return schemas
}

// Execute dispatches a request to the named tool.
func (r *Registry) Execute(ctx context.Context, req Request) (Result, error) {
	r.mu.RLock()
	tool, ok := r.tools[req.Name]
	r.mu.RUnlock()
	if !ok {
		return Result{}, fmt.Errorf("unknown tool %q", req.Name)
	}
	return tool.Execute(ctx, req.Parameters)
}

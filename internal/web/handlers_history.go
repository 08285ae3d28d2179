package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// historyMessage is the wire form of a stored chat message.
type historyMessage struct {
	ID        string    `json:"id"`
	Agent     string    `json:"agent"`
	Content   string    `json:"content"`
	Direction string    `json:"direction"`
	Timestamp time.Time `json:"timestamp"`
}

// handleHistory returns recent messages, newest last.
// Query: agent (optional filter), limit (default 50, max 500).
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	if s.store == nil {
		writeAPIError(w, http.StatusNotFound, "HISTORY_DISABLED", "history is not enabled")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer")
			return
		}
		if n > 500 {
			n = 500
		}
		limit = n
	}

	messages, err := s.store.Recent(r.URL.Query().Get("agent"), limit)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load history")
		return
	}

	out := make([]historyMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, historyMessage{
			ID:        m.ID,
			Agent:     m.AgentName,
			Content:   m.Content,
			Direction: string(m.Direction),
			Timestamp: m.Timestamp,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"messages": out})
}

// handleHistorySearch fuzzy-matches message content.
// Query: q (required), limit (default 20).
func (s *Server) handleHistorySearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	if s.store == nil {
		writeAPIError(w, http.StatusNotFound, "HISTORY_DISABLED", "history is not enabled")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "q parameter is required")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := s.store.Search(query, limit)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "search failed")
		return
	}

	type searchHit struct {
		historyMessage
		Score int `json:"score"`
	}
	out := make([]searchHit, 0, len(results))
	for _, res := range results {
		out = append(out, searchHit{
			historyMessage: historyMessage{
				ID:        res.Message.ID,
				Agent:     res.Message.AgentName,
				Content:   res.Message.Content,
				Direction: string(res.Message.Direction),
				Timestamp: res.Message.Timestamp,
			},
			Score: res.Score,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"results": out})
}

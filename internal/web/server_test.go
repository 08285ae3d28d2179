package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tchow/agentdash/internal/history"
)

func newTestServer(t *testing.T, cfg Config, store *history.Store) *httptest.Server {
	t.Helper()
	s := NewServer(cfg, store)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func seedStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	base := time.Now().Add(-time.Minute)
	for i, content := range []string{"hello there", "general question", "terminal multiplexer tips"} {
		require.NoError(t, store.Save(history.Message{
			ID:        string(rune('a' + i)),
			AgentName: "assistant",
			Content:   content,
			Direction: history.DirectionReceived,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}
	return store
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
}

func TestHealthzMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)

	resp, err := http.Post(ts.URL+"/healthz", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHistoryRequiresToken(t *testing.T) {
	ts := newTestServer(t, Config{Token: "sekret"}, seedStore(t))

	resp, err := http.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/history", nil)
	req.Header.Set("Authorization", "Bearer sekret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/history?token=sekret")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHistoryReturnsMessages(t *testing.T) {
	ts := newTestServer(t, Config{}, seedStore(t))

	resp, err := http.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Messages []historyMessage `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Messages, 3)
	assert.Equal(t, "hello there", body.Messages[0].Content)
	assert.Equal(t, "assistant", body.Messages[0].Agent)
}

func TestHistoryLimitValidation(t *testing.T) {
	ts := newTestServer(t, Config{}, seedStore(t))

	resp, err := http.Get(ts.URL + "/api/history?limit=0")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/history?limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Messages []historyMessage `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Messages, 2)
}

func TestHistoryDisabled(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)

	resp, err := http.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHistorySearch(t *testing.T) {
	ts := newTestServer(t, Config{}, seedStore(t))

	resp, err := http.Get(ts.URL + "/api/history/search?q=terminal")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Results []struct {
			Content string `json:"content"`
			Score   int    `json:"score"`
		} `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Results)
	assert.Equal(t, "terminal multiplexer tips", body.Results[0].Content)
}

func TestHistorySearchRequiresQuery(t *testing.T) {
	ts := newTestServer(t, Config{}, seedStore(t))

	resp, err := http.Get(ts.URL + "/api/history/search")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDefaultListenAddr(t *testing.T) {
	s := NewServer(Config{}, nil)
	assert.Equal(t, "127.0.0.1:8640", s.Addr())
}

//go:build !windows

package web

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialWS(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/terminal" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(wsServerMessage) bool) wsServerMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var msg wsServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func TestTerminalWSStreamsOutput(t *testing.T) {
	ts := newTestServer(t, Config{Command: "printf 'hello ws\\n'; sleep 0.3"}, nil)
	conn := dialWS(t, ts, "")

	status := readUntil(t, conn, func(m wsServerMessage) bool { return m.Type == "status" })
	assert.Equal(t, "connected", status.Event)

	output := readUntil(t, conn, func(m wsServerMessage) bool { return m.Type == "output" })
	var text strings.Builder
	for _, sp := range output.Spans {
		text.WriteString(sp.Text)
	}
	assert.Contains(t, text.String(), "hello ws")
}

func TestTerminalWSSessionClosed(t *testing.T) {
	ts := newTestServer(t, Config{Command: "true"}, nil)
	conn := dialWS(t, ts, "")

	msg := readUntil(t, conn, func(m wsServerMessage) bool {
		return m.Type == "status" && m.Event == "session_closed"
	})
	assert.Equal(t, "session_closed", msg.Event)
}

func TestTerminalWSInput(t *testing.T) {
	ts := newTestServer(t, Config{Command: "cat"}, nil)
	conn := dialWS(t, ts, "")

	readUntil(t, conn, func(m wsServerMessage) bool { return m.Event == "connected" })

	require.NoError(t, conn.WriteJSON(wsClientMessage{Type: "input", Data: "echoed\n"}))

	output := readUntil(t, conn, func(m wsServerMessage) bool { return m.Type == "output" })
	var text strings.Builder
	for _, sp := range output.Spans {
		text.WriteString(sp.Text)
	}
	assert.Contains(t, text.String(), "echoed")
}

func TestTerminalWSPing(t *testing.T) {
	ts := newTestServer(t, Config{Command: "sleep 5"}, nil)
	conn := dialWS(t, ts, "")

	require.NoError(t, conn.WriteJSON(wsClientMessage{Type: "ping"}))
	msg := readUntil(t, conn, func(m wsServerMessage) bool { return m.Event == "pong" })
	assert.Equal(t, "status", msg.Type)
}

func TestTerminalWSReadOnlyRejectsInput(t *testing.T) {
	ts := newTestServer(t, Config{Command: "sleep 5", ReadOnly: true}, nil)
	conn := dialWS(t, ts, "")

	require.NoError(t, conn.WriteJSON(wsClientMessage{Type: "input", Data: "nope\n"}))
	msg := readUntil(t, conn, func(m wsServerMessage) bool { return m.Type == "error" })
	assert.Equal(t, "READ_ONLY", msg.Code)
}

func TestTerminalWSResizeBounds(t *testing.T) {
	ts := newTestServer(t, Config{Command: "sleep 5"}, nil)
	conn := dialWS(t, ts, "")

	readUntil(t, conn, func(m wsServerMessage) bool { return m.Event == "connected" })

	// 65537 would wrap to 1 in the uint16 winsize field
	for _, size := range []struct{ cols, rows int }{
		{65537, 24},
		{80, 65537},
		{0, 24},
		{80, -1},
	} {
		require.NoError(t, conn.WriteJSON(wsClientMessage{Type: "resize", Cols: size.cols, Rows: size.rows}))
		msg := readUntil(t, conn, func(m wsServerMessage) bool { return m.Type == "error" })
		assert.Equal(t, "INVALID_REQUEST", msg.Code, "cols=%d rows=%d", size.cols, size.rows)
	}

	require.NoError(t, conn.WriteJSON(wsClientMessage{Type: "resize", Cols: 120, Rows: 40}))
	require.NoError(t, conn.WriteJSON(wsClientMessage{Type: "ping"}))
	msg := readUntil(t, conn, func(m wsServerMessage) bool { return m.Event == "pong" || m.Type == "error" })
	assert.Equal(t, "pong", msg.Event)
}

func TestTerminalWSUnknownMessage(t *testing.T) {
	ts := newTestServer(t, Config{Command: "sleep 5"}, nil)
	conn := dialWS(t, ts, "")

	require.NoError(t, conn.WriteJSON(wsClientMessage{Type: "teleport"}))
	msg := readUntil(t, conn, func(m wsServerMessage) bool { return m.Type == "error" })
	assert.Equal(t, "UNSUPPORTED_MESSAGE", msg.Code)
}

func TestTerminalWSRejectsBadToken(t *testing.T) {
	ts := newTestServer(t, Config{Command: "sleep 5", Token: "sekret"}, nil)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/terminal"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, 401, resp.StatusCode)

	conn := dialWS(t, ts, "?token=sekret")
	msg := readUntil(t, conn, func(m wsServerMessage) bool { return m.Type == "status" })
	assert.Equal(t, "connected", msg.Event)
}

package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tchow/agentdash/internal/term"
)

type wsClientMessage struct {
	Type string `json:"type"` // ping, input, resize
	Data string `json:"data,omitempty"`
	Cols int    `json:"cols,omitempty"`
	Rows int    `json:"rows,omitempty"`
}

type wsServerMessage struct {
	Type    string    `json:"type"` // status, error, output
	Event   string    `json:"event,omitempty"`
	Code    string    `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
	Spans   []wsSpan  `json:"spans,omitempty"`
	Time    time.Time `json:"time,omitempty"`
}

// wsSpan is the wire form of a styled terminal run.
type wsSpan struct {
	Text      string `json:"text"`
	FG        string `json:"fg,omitempty"`
	BG        string `json:"bg,omitempty"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
}

func toWireSpans(spans []term.Span) []wsSpan {
	out := make([]wsSpan, 0, len(spans))
	for _, sp := range spans {
		ws := wsSpan{
			Text:      sp.Text,
			Bold:      sp.Style.Bold,
			Italic:    sp.Style.Italic,
			Underline: sp.Style.Underline,
		}
		if sp.Style.FG != term.Default {
			ws.FG = sp.Style.FG.String()
		}
		if sp.Style.BG != term.Default {
			ws.BG = sp.Style.BG.String()
		}
		out = append(out, ws)
	}
	return out
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     allowWSOrigin,
}

func allowWSOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil || originURL.Host == "" {
		return false
	}
	return strings.EqualFold(originURL.Host, r.Host)
}

// wsConnWriter serializes websocket writes; gorilla allows only one
// concurrent writer per connection.
type wsConnWriter struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newWSConnWriter(conn *websocket.Conn) *wsConnWriter {
	return &wsConnWriter{conn: conn}
}

func (w *wsConnWriter) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.conn.WriteJSON(v)
}

// inputBurst bounds how fast a browser can push keystrokes at the PTY.
const (
	inputRate  = rate.Limit(100)
	inputBurst = 200
)

// handleTerminalWS spawns a dedicated shell session for each websocket
// client and streams its styled output until either side closes.
func (s *Server) handleTerminalWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	writer := newWSConnWriter(conn)

	sess, err := term.Spawn(s.cfg.Command, s.sessionSize())
	if err != nil {
		webLog.Error("ws_spawn_failed", slog.String("error", err.Error()))
		_ = writer.WriteJSON(wsServerMessage{
			Type:    "error",
			Code:    "SPAWN_FAILED",
			Message: "failed to start terminal session",
			Time:    time.Now().UTC(),
		})
		return
	}
	defer sess.Close()

	_ = writer.WriteJSON(wsServerMessage{
		Type:  "status",
		Event: "connected",
		Time:  time.Now().UTC(),
	})

	// stream PTY output to the client
	go func() {
		for {
			select {
			case line, ok := <-sess.Lines():
				if !ok {
					_ = writer.WriteJSON(wsServerMessage{
						Type:  "status",
						Event: "session_closed",
						Time:  time.Now().UTC(),
					})
					_ = conn.Close()
					return
				}
				msg := wsServerMessage{Type: "output", Time: time.Now().UTC()}
				if line.Stderr != "" {
					msg.Type = "error"
					msg.Code = "SESSION_ERROR"
					msg.Message = line.Stderr
				} else {
					msg.Spans = toWireSpans(line.Spans)
				}
				if err := writer.WriteJSON(msg); err != nil {
					return
				}
			case <-s.baseCtx.Done():
				_ = conn.Close()
				return
			}
		}
	}()

	limiter := rate.NewLimiter(inputRate, inputBurst)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				webLog.Warn("websocket_closed_unexpectedly", slog.String("error", err.Error()))
			}
			return
		}

		var msg wsClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			_ = writer.WriteJSON(wsServerMessage{
				Type:    "error",
				Code:    "INVALID_MESSAGE",
				Message: "invalid json payload",
				Time:    time.Now().UTC(),
			})
			continue
		}

		switch msg.Type {
		case "ping":
			_ = writer.WriteJSON(wsServerMessage{
				Type:  "status",
				Event: "pong",
				Time:  time.Now().UTC(),
			})

		case "input":
			if s.cfg.ReadOnly {
				_ = writer.WriteJSON(wsServerMessage{
					Type:    "error",
					Code:    "READ_ONLY",
					Message: "input is disabled in read-only mode",
					Time:    time.Now().UTC(),
				})
				continue
			}
			if !limiter.Allow() {
				_ = writer.WriteJSON(wsServerMessage{
					Type:    "error",
					Code:    "RATE_LIMITED",
					Message: "input rate limit exceeded",
					Time:    time.Now().UTC(),
				})
				continue
			}
			if err := sess.Send(msg.Data); err != nil {
				_ = writer.WriteJSON(wsServerMessage{
					Type:    "error",
					Code:    "INPUT_WRITE_FAILED",
					Message: "failed to send input to terminal",
					Time:    time.Now().UTC(),
				})
			}

		case "resize":
			// bounds match the uint16 winsize fields; 65537 must not
			// wrap to 1
			if msg.Cols < 1 || msg.Rows < 1 || msg.Cols > 65535 || msg.Rows > 65535 {
				_ = writer.WriteJSON(wsServerMessage{
					Type:    "error",
					Code:    "INVALID_REQUEST",
					Message: "cols and rows must be between 1 and 65535",
					Time:    time.Now().UTC(),
				})
				continue
			}
			if err := sess.Resize(term.Size{Rows: uint16(msg.Rows), Cols: uint16(msg.Cols)}); err != nil {
				_ = writer.WriteJSON(wsServerMessage{
					Type:    "error",
					Code:    "RESIZE_FAILED",
					Message: "failed to resize terminal",
					Time:    time.Now().UTC(),
				})
			}

		default:
			_ = writer.WriteJSON(wsServerMessage{
				Type:    "error",
				Code:    "UNSUPPORTED_MESSAGE",
				Message: "supported message types: ping,input,resize",
				Time:    time.Now().UTC(),
			})
		}
	}
}

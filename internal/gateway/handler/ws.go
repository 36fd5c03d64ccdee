package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"storyboarder/internal/gateway/session"
	"storyboarder/internal/workflow"
)

const (
	streamWriteWait = 10 * time.Second
	streamPongWait  = 60 * time.Second
	streamPingEvery = (streamPongWait * 9) / 10
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// SessionSource resolves sessions by id.
type SessionSource interface {
	Get(ctx context.Context, id string) (*workflow.Session, error)
}

// SnapshotFeed delivers session snapshots by session id.
type SnapshotFeed interface {
	Subscribe(topic string) (<-chan workflow.Snapshot, func())
}

type streamInbound struct {
	Type string `json:"type"`
}

type streamOutbound struct {
	Type      string             `json:"type"`
	SessionID string             `json:"sessionId,omitempty"`
	Session   *workflow.Snapshot `json:"session,omitempty"`
	Code      string             `json:"code,omitempty"`
	Message   string             `json:"message,omitempty"`
}

// SessionStreamHandler pushes a snapshot to the client on every change of
// one session.
type SessionStreamHandler struct {
	sessions SessionSource
	feed     SnapshotFeed
	logger   *slog.Logger
}

func NewSessionStreamHandler(sessions SessionSource, feed SnapshotFeed, logger *slog.Logger) *SessionStreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStreamHandler{sessions: sessions, feed: feed, logger: logger}
}

func (h *SessionStreamHandler) HandleSessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	s, err := h.sessions.Get(r.Context(), sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(streamPongWait)); err != nil {
		h.logger.Warn("session ws set read deadline failed", "session_id", sessionID, "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	// Subscribe before the first snapshot so no change falls in between.
	events, unsubscribe := h.feed.Subscribe(sessionID)
	defer unsubscribe()

	writeCh := make(chan streamOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(streamPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	first := s.Snapshot()
	pushStream(writeCh, streamOutbound{Type: "subscribed", SessionID: sessionID})
	pushStream(writeCh, streamOutbound{Type: "snapshot", SessionID: sessionID, Session: &first})

	go func() {
		last := first.Version
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-events:
				if !ok {
					return
				}
				if snap.Version <= last {
					continue
				}
				last = snap.Version
				pushStream(writeCh, streamOutbound{Type: "snapshot", SessionID: sessionID, Session: &snap})
			}
		}
	}()

	for {
		var in streamInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushStream(writeCh, streamOutbound{Type: "pong"})
		case "":
			pushStream(writeCh, streamOutbound{Type: "error", Code: "invalid_argument", Message: "type is required"})
		default:
			pushStream(writeCh, streamOutbound{Type: "error", Code: "invalid_argument", Message: "unsupported type: " + in.Type})
		}
	}
}

// pushStream never blocks; a full queue loses its oldest message.
func pushStream(writeCh chan streamOutbound, out streamOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}

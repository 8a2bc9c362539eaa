package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jwebster45206/deadtown/internal/logger"
	"github.com/jwebster45206/deadtown/internal/sessions"
	core "github.com/jwebster45206/deadtown/pkg/events"
	"github.com/jwebster45206/deadtown/pkg/game"
)

const (
	topicSnapshot core.Topic = "snapshot"
	topicError    core.Topic = "error"

	msgTick    = "tick"
	msgInspect = "inspect"

	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = 54 * time.Second
	wsMaxMessageSize = 4096
	wsSendBuffer     = 64
)

// wsMessage is what a client sends:
// {"type":"tick","data":{"dx":1,"dy":0,"interact":false}}
// {"type":"dialogChoice","data":{"actionId":"enter"}}
// {"type":"inspect","data":{"index":0}}
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type inspectRequest struct {
	Index int `json:"index"`
}

// WSHandler relays a live game's events over a WebSocket and feeds client
// input back into the session.
type WSHandler struct {
	manager  *sessions.Manager
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewWSHandler(manager *sessions.Manager, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// wsClient is subscribed to the session channel. HandleEvent runs under the
// session lock, so it must never block.
type wsClient struct {
	send    chan []byte
	done    chan struct{}
	dropped atomic.Uint64
	logger  *slog.Logger
}

func (c *wsClient) HandleEvent(ev core.Event) {
	c.push(ev)
}

func (c *wsClient) push(ev core.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		c.logger.Error("Failed to marshal websocket event", "type", ev.Topic, "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		c.dropped.Add(1)
		c.logger.Warn("Websocket client too slow, dropping event", "type", ev.Topic)
	}
}

func (c *wsClient) reject(msg string) {
	c.push(core.Event{Topic: topicError, Payload: ErrorResponse{Error: msg}})
}

// ServeHTTP handles GET /v1/games/{id}/ws
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSuffix(strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/games"), "/"), "/ws")
	gameID, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid game ID format")
		return
	}
	if _, live, err := h.manager.Snapshot(r.Context(), gameID); err != nil || !live {
		h.writeError(w, http.StatusNotFound, "Game not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "game_id", gameID, "error", err)
		return
	}

	connLog := logger.WithGameID(h.logger, gameID.String()).With("remote_addr", r.RemoteAddr)
	client := &wsClient{
		send:   make(chan []byte, wsSendBuffer),
		done:   make(chan struct{}),
		logger: connLog,
	}

	ctx := context.Background()
	_, err = h.manager.Do(ctx, gameID, func(s *game.Session) error {
		client.push(core.Event{Topic: topicSnapshot, Payload: s.Snapshot()})
		s.Events().SubscribeAll(client, core.PresentationTopics...)
		return nil
	})
	if err != nil {
		connLog.Warn("Game vanished before websocket subscribe", "error", err)
		_ = conn.Close()
		return
	}
	connLog.Info("Websocket connection established")

	go h.writePump(conn, client)
	h.readPump(ctx, conn, client, gameID)

	if _, err := h.manager.Do(ctx, gameID, func(s *game.Session) error {
		s.Events().UnsubscribeAll(client)
		return nil
	}); err != nil && !errors.Is(err, sessions.ErrNotFound) {
		connLog.Warn("Failed to unsubscribe websocket client", "error", err)
	}
	close(client.done)
	connLog.Info("Websocket connection closed", "dropped", client.dropped.Load())
}

func (h *WSHandler) readPump(ctx context.Context, conn *websocket.Conn, c *wsClient, id uuid.UUID) {
	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("Websocket read error", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reject("Invalid message")
			continue
		}
		if !h.dispatch(ctx, c, id, msg) {
			return
		}
	}
}

// dispatch applies one client message. It returns false once the game is gone.
func (h *WSHandler) dispatch(ctx context.Context, c *wsClient, id uuid.UUID, msg wsMessage) bool {
	var fn func(s *game.Session) error

	switch msg.Type {
	case msgTick:
		var in game.Input
		if err := decodeData(msg.Data, &in); err != nil {
			c.reject("Invalid tick")
			return true
		}
		fn = func(s *game.Session) error { return s.Tick(in) }

	case string(core.TopicDialogChoice):
		var req ChooseRequest
		if err := decodeData(msg.Data, &req); err != nil || req.ActionID == "" {
			c.reject("dialogChoice needs an actionId")
			return true
		}
		fn = func(s *game.Session) error {
			s.Choose(req.ActionID)
			return nil
		}

	case msgInspect:
		var req inspectRequest
		if err := decodeData(msg.Data, &req); err != nil {
			c.reject("Invalid inspect")
			return true
		}
		fn = func(s *game.Session) error { return s.InspectItem(req.Index) }

	default:
		c.reject(fmt.Sprintf("Unknown message type %q", msg.Type))
		return true
	}

	if _, err := h.manager.Do(ctx, id, fn); err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			c.reject("Game not found")
			return false
		}
		c.reject(err.Error())
	}
	return true
}

func (h *WSHandler) writePump(conn *websocket.Conn, c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("Websocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (h *WSHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}

func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

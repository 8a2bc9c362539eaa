package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jwebster45206/deadtown/internal/sessions"
	"github.com/jwebster45206/deadtown/internal/storage"
	core "github.com/jwebster45206/deadtown/pkg/events"
	"github.com/jwebster45206/deadtown/pkg/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func setupWS(t *testing.T) (*httptest.Server, *sessions.Manager) {
	t.Helper()
	store := storage.NewMemoryStorage("", nil)
	manager := sessions.NewManager(store, game.Options{}, nil)
	games := NewGamesHandler(manager, store, outbreak(t), testLogger()).
		WithWebSocket(NewWSHandler(manager, testLogger()))
	srv := httptest.NewServer(games)
	t.Cleanup(srv.Close)
	return srv, manager
}

func wsURL(srv *httptest.Server, id uuid.UUID) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/games/" + id.String() + "/ws"
}

func readWS(t *testing.T, conn *websocket.Conn) wsEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev wsEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

// readUntil returns every event type read up to and including want.
func readUntil(t *testing.T, conn *websocket.Conn, want string) ([]string, wsEvent) {
	t.Helper()
	var seen []string
	for i := 0; i < 20; i++ {
		ev := readWS(t, conn)
		seen = append(seen, ev.Type)
		if ev.Type == want {
			return seen, ev
		}
	}
	t.Fatalf("never received %s, saw %v", want, seen)
	return nil, wsEvent{}
}

func sendWS(t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(wsMessage{Type: msgType, Data: raw}))
}

func handlerCount(t *testing.T, m *sessions.Manager, id uuid.UUID) int {
	t.Helper()
	var n int
	_, err := m.Do(context.Background(), id, func(s *game.Session) error {
		n = s.Events().HandlerCount(core.TopicPlayerMove)
		return nil
	})
	require.NoError(t, err)
	return n
}

func TestWSHandler_RelaysEventsAndInput(t *testing.T) {
	srv, manager := setupWS(t)
	created, err := manager.Create(context.Background(), outbreak(t))
	require.NoError(t, err)
	baseline := handlerCount(t, manager, created.ID)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, created.ID), nil)
	require.NoError(t, err)

	first := readWS(t, conn)
	assert.Equal(t, string(topicSnapshot), first.Type)
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(first.Data, &snap))
	assert.Equal(t, created.ID, snap.ID)
	assert.Equal(t, baseline+1, handlerCount(t, manager, created.ID))

	sendWS(t, conn, msgTick, game.Input{DX: -100, DY: 50})
	move := readWS(t, conn)
	assert.Equal(t, string(core.TopicPlayerMove), move.Type)
	assert.JSONEq(t, `{"x":300,"y":350}`, string(move.Data))
	prompt := readWS(t, conn)
	assert.Equal(t, string(core.TopicShowInteractPrompt), prompt.Type)
	assert.JSONEq(t, `{"name":"Key"}`, string(prompt.Data))

	sendWS(t, conn, msgTick, game.Input{Interact: true})
	_, shown := readUntil(t, conn, string(core.TopicShowDialog))
	var dialog core.ShowDialog
	require.NoError(t, json.Unmarshal(shown.Data, &dialog))
	assert.Contains(t, dialog.Body, "small key")

	sendWS(t, conn, string(core.TopicDialogChoice), core.ChoiceRelay{ActionID: "pickup"})
	seen, _ := readUntil(t, conn, string(core.TopicHideDialog))
	assert.Contains(t, seen, string(core.TopicInventoryChanged))
	assert.Contains(t, seen, string(core.TopicFlagSet))

	sendWS(t, conn, "moonwalk", nil)
	rejected := readWS(t, conn)
	assert.Equal(t, string(topicError), rejected.Type)
	assert.Contains(t, string(rejected.Data), "moonwalk")

	sendWS(t, conn, msgInspect, inspectRequest{Index: 4})
	rejected = readWS(t, conn)
	assert.Equal(t, string(topicError), rejected.Type)

	got, _, err := manager.Snapshot(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, got.Inventory, 1)
	assert.Equal(t, "Key", got.Inventory[0].Name)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return handlerCount(t, manager, created.ID) == baseline
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWSHandler_UnknownGame(t *testing.T) {
	srv, _ := setupWS(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, uuid.New()), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

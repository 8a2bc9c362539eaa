package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	core "github.com/jwebster45206/deadtown/pkg/events"
	"github.com/jwebster45206/deadtown/pkg/game"
)

const (
	topicSnapshot = "snapshot"
	topicError    = "error"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// Event is one presentation event with its payload decoded into the core
// payload type for its topic.
type Event struct {
	Type string
	Data any
}

type wireEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// decodeEvent turns a wire message from the websocket relay into an Event.
func decodeEvent(w wireEvent) (Event, error) {
	var data any
	switch w.Type {
	case topicSnapshot:
		data = &game.Snapshot{}
	case topicError:
		data = &ErrorResponse{}
	case string(core.TopicGameStarted):
		data = &core.GameStarted{}
	case string(core.TopicShowInteractPrompt):
		data = &core.InteractPrompt{}
	case string(core.TopicHideInteractPrompt), string(core.TopicHideDialog):
		return Event{Type: w.Type, Data: core.Empty{}}, nil
	case string(core.TopicShowDialog):
		data = &core.ShowDialog{}
	case string(core.TopicUpdateHealth):
		data = &core.HealthUpdate{}
	case string(core.TopicInventoryChanged):
		data = &core.InventoryChanged{}
	case string(core.TopicFlagSet):
		data = &core.FlagSet{}
	case string(core.TopicPlayerMove):
		data = &core.PlayerMove{}
	default:
		return Event{}, fmt.Errorf("unknown event type %q", w.Type)
	}

	if len(w.Data) > 0 {
		if err := json.Unmarshal(w.Data, data); err != nil {
			return Event{}, fmt.Errorf("failed to decode %s: %w", w.Type, err)
		}
	}
	return Event{Type: w.Type, Data: deref(data)}, nil
}

// deref hands the UI the same value types the in-process channel publishes.
func deref(v any) any {
	switch p := v.(type) {
	case *game.Snapshot:
		return *p
	case *ErrorResponse:
		return *p
	case *core.GameStarted:
		return *p
	case *core.InteractPrompt:
		return *p
	case *core.ShowDialog:
		return *p
	case *core.HealthUpdate:
		return *p
	case *core.InventoryChanged:
		return *p
	case *core.FlagSet:
		return *p
	case *core.PlayerMove:
		return *p
	}
	return v
}

// remoteBackend plays a game hosted by the API over its websocket relay.
type remoteBackend struct {
	conn   *websocket.Conn
	mu     sync.Mutex // serializes writes
	events chan Event
	done   chan struct{}
	once   sync.Once
}

func dialRemote(client *http.Client, baseURL, scenarioFile string) (*remoteBackend, error) {
	snap, err := createGame(client, baseURL, scenarioFile)
	if err != nil {
		return nil, err
	}

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/v1/games/" + snap.ID.String() + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open websocket: %w", err)
	}

	b := &remoteBackend{
		conn:   conn,
		events: make(chan Event, localEventBuffer),
		done:   make(chan struct{}),
	}
	go b.readLoop()
	return b, nil
}

func (b *remoteBackend) readLoop() {
	defer close(b.events)
	for {
		var w wireEvent
		if err := b.conn.ReadJSON(&w); err != nil {
			return
		}
		ev, err := decodeEvent(w)
		if err != nil {
			ev = Event{Type: topicError, Data: ErrorResponse{Error: err.Error()}}
		}
		select {
		case b.events <- ev:
		case <-b.done:
			return
		}
	}
}

func (b *remoteBackend) send(msgType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return b.conn.WriteJSON(wireEvent{Type: msgType, Data: raw})
}

func (b *remoteBackend) Tick(in game.Input) error {
	return b.send("tick", in)
}

func (b *remoteBackend) Choose(actionID string) error {
	return b.send(string(core.TopicDialogChoice), core.ChoiceRelay{ActionID: actionID})
}

func (b *remoteBackend) Inspect(index int) error {
	return b.send("inspect", map[string]int{"index": index})
}

func (b *remoteBackend) Events() <-chan Event {
	return b.events
}

func (b *remoteBackend) Close() error {
	var err error
	b.once.Do(func() {
		close(b.done)
		b.mu.Lock()
		_ = b.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		b.mu.Unlock()
		err = b.conn.Close()
	})
	return err
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func createGame(client *http.Client, baseURL string, scenarioFile string) (*game.Snapshot, error) {
	jsonData, err := json.Marshal(map[string]string{"scenario": scenarioFile})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/games",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to create game: %s", errorResp.Error)
	}

	var snap game.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse game response: %w", err)
	}
	return &snap, nil
}

func listScenarios(client *http.Client, baseURL string) ([]string, map[string]string, error) {
	resp, err := client.Get(baseURL + "/v1/scenarios")
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var scenarioMap map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&scenarioMap); err != nil {
		return nil, nil, err
	}

	names := make([]string, 0, len(scenarioMap))
	for name := range scenarioMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, scenarioMap, nil
}

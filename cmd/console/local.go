package main

import (
	"log/slog"

	core "github.com/jwebster45206/deadtown/pkg/events"
	"github.com/jwebster45206/deadtown/pkg/game"
	"github.com/jwebster45206/deadtown/pkg/scenario"
)

const localEventBuffer = 256

// localBackend runs a session in this process. The UI is its only caller, so
// no locking is needed.
type localBackend struct {
	session *game.Session
	events  chan Event
	handler *core.Func
}

func newLocalBackend(sc *scenario.Scenario, opts game.Options, logger *slog.Logger) (*localBackend, error) {
	s, err := game.NewSession(sc, opts, logger)
	if err != nil {
		return nil, err
	}
	s.Start()

	b := &localBackend{
		session: s,
		events:  make(chan Event, localEventBuffer),
	}
	b.push(Event{Type: topicSnapshot, Data: s.Snapshot()})
	b.handler = core.NewFunc(func(ev core.Event) {
		b.push(Event{Type: string(ev.Topic), Data: ev.Payload})
	})
	s.Events().SubscribeAll(b.handler, core.PresentationTopics...)
	return b, nil
}

func (b *localBackend) push(ev Event) {
	select {
	case b.events <- ev:
	default:
		// UI is not draining; drop
	}
}

func (b *localBackend) Tick(in game.Input) error {
	return b.session.Tick(in)
}

func (b *localBackend) Choose(actionID string) error {
	b.session.Choose(actionID)
	return nil
}

func (b *localBackend) Inspect(index int) error {
	return b.session.InspectItem(index)
}

func (b *localBackend) Events() <-chan Event {
	return b.events
}

func (b *localBackend) Close() error {
	if b.handler != nil {
		b.session.Events().UnsubscribeAll(b.handler)
		b.handler = nil
		close(b.events)
	}
	return nil
}

package proximity

import (
	"log/slog"
	"math"

	applog "github.com/jwebster45206/deadtown/internal/logger"
	"github.com/jwebster45206/deadtown/pkg/events"
	"github.com/jwebster45206/deadtown/pkg/world"
)

// DefaultItemRange is how close, in world units, the avatar must be to an item.
const DefaultItemRange = 70.0

// Candidate is the interactable the player can currently engage.
type Candidate struct {
	ID       string
	Name     string
	Kind     world.Kind
	Distance float64
}

// Detector picks the single nearest eligible interactable once per tick and
// publishes prompt changes.
//
// Precedence: a doorway whose zone contains the avatar always wins over any
// in-range item. Among several doorways (or several items) the nearest wins;
// equal distances resolve to the earlier-registered object.
type Detector struct {
	registry  *world.Registry
	events    *events.Channel
	logger    *slog.Logger
	itemRange float64

	current *Candidate
}

func NewDetector(registry *world.Registry, ch *events.Channel, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Detector{
		registry:  registry,
		events:    ch,
		logger:    logger,
		itemRange: DefaultItemRange,
	}
}

// WithItemRange overrides the item pickup range.
// Returns the Detector for method chaining
func (d *Detector) WithItemRange(r float64) *Detector {
	if r > 0 {
		d.itemRange = r
	}
	return d
}

func (d *Detector) ItemRange() float64 {
	return d.itemRange
}

// Current returns the candidate chosen by the last tick.
func (d *Detector) Current() (Candidate, bool) {
	if d.current == nil {
		return Candidate{}, false
	}
	return *d.current, true
}

// Tick re-evaluates the candidate for avatar. A nil avatar (not spawned yet)
// does nothing.
func (d *Detector) Tick(avatar *world.Vec2) {
	if avatar == nil {
		return
	}

	next := d.nearestItem(*avatar)
	if door := d.nearestDoorway(*avatar); door != nil {
		next = door
	}

	d.update(next)
}

// Reset forgets the current candidate without publishing.
func (d *Detector) Reset() {
	d.current = nil
}

func (d *Detector) nearestItem(avatar world.Vec2) *Candidate {
	var best *Candidate
	for _, obj := range d.registry.Items() {
		dist := avatar.Distance(obj.Position)
		if dist >= d.itemRange {
			continue
		}
		if best == nil || dist < best.Distance {
			best = candidateOf(obj, dist)
		}
	}
	return best
}

func (d *Detector) nearestDoorway(avatar world.Vec2) *Candidate {
	var best *Candidate
	for _, obj := range d.registry.Doorways() {
		dist := avatar.Distance(obj.Position)
		if dist >= obj.Radius {
			continue
		}
		if best == nil || dist < best.Distance {
			best = candidateOf(obj, dist)
		}
	}
	return best
}

func (d *Detector) update(next *Candidate) {
	switch {
	case next == nil && d.current == nil:
		return
	case next == nil:
		d.logger.Debug("Interactable out of range", "id", d.current.ID)
		d.current = nil
		d.publish(events.TopicHideInteractPrompt, events.Empty{})
	case d.current != nil && d.current.ID == next.ID:
		// Same candidate; keep the fresh distance but stay quiet
		d.current = next
	default:
		d.logger.Debug("Interactable in range", "id", next.ID, "kind", next.Kind, "distance", math.Round(next.Distance))
		d.current = next
		d.publish(events.TopicShowInteractPrompt, events.InteractPrompt{Name: next.Name})
	}
}

func (d *Detector) publish(topic events.Topic, payload any) {
	if d.events != nil {
		d.events.Publish(topic, payload)
	}
}

func candidateOf(obj world.Object, dist float64) *Candidate {
	return &Candidate{ID: obj.ID, Name: obj.Name, Kind: obj.Kind, Distance: dist}
}

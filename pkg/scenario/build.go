package scenario

import (
	"fmt"

	"github.com/jwebster45206/deadtown/pkg/dialog"
	"github.com/jwebster45206/deadtown/pkg/inventory"
	"github.com/jwebster45206/deadtown/pkg/world"
)

// World is a scenario instantiated for one session. Each call to Build
// returns fresh state, so sessions never share a registry.
type World struct {
	Registry *world.Registry
	Library  *dialog.Library
	Effects  map[string]inventory.Effect
}

// Build validates the scenario and turns it into live world state.
func (s *Scenario) Build() (*World, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	lib := dialog.NewLibrary(s.Speaker)
	for _, n := range s.Nodes {
		if err := lib.Add(n); err != nil {
			return nil, fmt.Errorf("failed to add dialog node: %w", err)
		}
	}

	reg := world.NewRegistry()
	for _, b := range s.Buildings {
		radius := b.DoorRadius
		if radius == 0 {
			radius = DefaultDoorRadius
		}
		if err := reg.Add(world.Object{
			ID:       b.ID,
			Kind:     world.KindDoorway,
			Name:     b.Name,
			Position: b.DoorPosition(),
			Radius:   radius,
		}); err != nil {
			return nil, err
		}
		if b.Dialog != "" {
			if err := lib.BindDoorway(b.Name, b.Dialog); err != nil {
				return nil, err
			}
		}
		if b.Location != "" {
			if err := lib.BindLocation(b.Name, b.Location); err != nil {
				return nil, err
			}
		}
	}

	for _, it := range s.Items {
		if err := reg.Add(world.Object{
			ID:          it.ID,
			Kind:        world.KindItem,
			Name:        it.Name,
			Description: it.Description,
			Position:    it.Position,
			Item:        &inventory.Item{Name: it.Name, Description: it.Description, Image: it.Image},
		}); err != nil {
			return nil, err
		}
		if it.Dialog != "" {
			if err := lib.BindItem(it.Name, it.Dialog); err != nil {
				return nil, err
			}
		}
	}

	if err := lib.Validate(); err != nil {
		return nil, err
	}

	effects := make(map[string]inventory.Effect, len(s.Effects))
	for name, e := range s.Effects {
		effects[name] = e
	}

	return &World{Registry: reg, Library: lib, Effects: effects}, nil
}

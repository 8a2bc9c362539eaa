package scenario

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jwebster45206/deadtown/pkg/dialog"
	"github.com/jwebster45206/deadtown/pkg/inventory"
	"github.com/jwebster45206/deadtown/pkg/world"
)

//go:embed outbreak.json
var outbreakJSON []byte

// Door placement on a building edge.
const (
	DoorAuto   = ""
	DoorTop    = "top"
	DoorBottom = "bottom"
)

// DefaultDoorRadius approximates a 40x40 door zone overlapped by a 32px avatar.
const DefaultDoorRadius = 36.0

// Buildings whose top edge sits below this line get their door on top.
const doorTopLine = 300.0

// Building is a rectangular structure with one doorway.
type Building struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	X          float64 `json:"x"` // top-left corner
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Door       string  `json:"door,omitempty"`        // top, bottom, or empty to pick from Y
	DoorRadius float64 `json:"door_radius,omitempty"` // defaults to DefaultDoorRadius
	Dialog     string  `json:"dialog,omitempty"`      // root node shown at the doorway
	Location   string  `json:"location,omitempty"`    // node shown after going inside
}

// DoorPosition returns the center of the building's doorway.
func (b Building) DoorPosition() world.Vec2 {
	x := b.X + b.Width/2
	switch b.Door {
	case DoorTop:
		return world.Vec2{X: x, Y: b.Y}
	case DoorBottom:
		return world.Vec2{X: x, Y: b.Y + b.Height}
	}
	if b.Y > doorTopLine {
		return world.Vec2{X: x, Y: b.Y}
	}
	return world.Vec2{X: x, Y: b.Y + b.Height}
}

// ItemPlacement is an item lying in the world at start.
type ItemPlacement struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Image       string     `json:"image,omitempty"`
	Position    world.Vec2 `json:"position"`
	Dialog      string     `json:"dialog,omitempty"` // root node shown when approached
}

// Scenario is the authored content of one playable world.
type Scenario struct {
	Name        string                      `json:"name"`
	Speaker     string                      `json:"speaker,omitempty"`
	StartHealth int                         `json:"start_health"`
	Spawn       world.Vec2                  `json:"spawn"`
	Bounds      world.Bounds                `json:"bounds"`
	ItemRange   float64                     `json:"item_range,omitempty"`
	Buildings   []Building                  `json:"buildings"`
	Items       []ItemPlacement             `json:"items"`
	Effects     map[string]inventory.Effect `json:"effects,omitempty"` // item name -> use effect
	Nodes       []dialog.Node               `json:"nodes"`
}

// Decode strictly parses a scenario document. Unknown fields are errors.
func Decode(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}
	return &s, nil
}

// LoadFile reads, decodes and validates a scenario file.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Default returns the built-in city scenario.
func Default() (*Scenario, error) {
	s, err := Decode(bytes.NewReader(outbreakJSON))
	if err != nil {
		return nil, fmt.Errorf("embedded scenario: %w", err)
	}
	return s, nil
}

package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jwebster45206/deadtown/pkg/dialog"
	"github.com/jwebster45206/deadtown/pkg/state"
	"github.com/jwebster45206/deadtown/pkg/textfilter"
)

var ErrInvalid = errors.New("invalid scenario")

type validator struct {
	errors []string
	nodes  map[string]bool
	ids    map[string]string // object id -> what declared it
}

func (v *validator) addf(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) validateIDFormat(what, id string) {
	if !textfilter.ValidKey(id) {
		v.addf("%s '%s' must be lowercase snake_case (e.g., %s)", what, id, textfilter.Key(id))
	}
}

func (v *validator) validateNodeRef(what, id string) {
	if id != "" && !v.nodes[id] {
		v.addf("%s refers to unknown dialog node '%s'", what, id)
	}
}

// validateHealthDelta keeps authored deltas within one full health bar.
func (v *validator) validateHealthDelta(what string, delta int) {
	limit := state.MaxHealth - state.MinHealth
	if delta > limit || delta < -limit {
		v.addf("%s %d must be between %d and %d", what, delta, -limit, limit)
	}
}

func (v *validator) claimID(what, id string) {
	v.validateIDFormat(what+" ID", id)
	if prev, ok := v.ids[id]; ok {
		v.addf("%s ID '%s' is already used by %s", what, id, prev)
		return
	}
	v.ids[id] = what
}

// Validate checks the scenario for everything Build and the dialog engine
// rely on. All problems are reported together.
func (s *Scenario) Validate() error {
	v := &validator{
		nodes: make(map[string]bool, len(s.Nodes)),
		ids:   make(map[string]string),
	}

	if strings.TrimSpace(s.Name) == "" {
		v.addf("scenario name is required")
	}
	if s.StartHealth <= state.MinHealth || s.StartHealth > state.MaxHealth {
		v.addf("start_health %d must be in (%d, %d]", s.StartHealth, state.MinHealth, state.MaxHealth)
	}
	if s.Bounds.Width <= 0 || s.Bounds.Height <= 0 {
		v.addf("bounds must have a positive width and height")
	} else if s.Bounds.Clamp(s.Spawn) != s.Spawn {
		v.addf("spawn (%.0f, %.0f) is outside the world bounds", s.Spawn.X, s.Spawn.Y)
	}
	if s.ItemRange < 0 {
		v.addf("item_range must not be negative")
	}

	for _, n := range s.Nodes {
		if v.nodes[n.ID] {
			v.addf("dialog node '%s' is declared twice", n.ID)
		}
		v.nodes[n.ID] = true
	}
	for _, n := range s.Nodes {
		v.validateNode(n)
	}

	itemNames := make(map[string]bool)
	for _, b := range s.Buildings {
		v.claimID("building", b.ID)
		if b.Name == "" {
			v.addf("building '%s' has no name", b.ID)
		}
		if b.Width <= 0 || b.Height <= 0 {
			v.addf("building '%s' must have a positive width and height", b.ID)
		}
		switch b.Door {
		case DoorAuto, DoorTop, DoorBottom:
		default:
			v.addf("building '%s' door must be '%s' or '%s', got '%s'", b.ID, DoorTop, DoorBottom, b.Door)
		}
		if b.DoorRadius < 0 {
			v.addf("building '%s' door_radius must not be negative", b.ID)
		}
		v.validateNodeRef(fmt.Sprintf("building '%s' dialog", b.ID), b.Dialog)
		v.validateNodeRef(fmt.Sprintf("building '%s' location", b.ID), b.Location)
	}
	for _, it := range s.Items {
		v.claimID("item", it.ID)
		if it.Name == "" {
			v.addf("item '%s' has no name", it.ID)
		}
		if s.Bounds.Width > 0 && s.Bounds.Clamp(it.Position) != it.Position {
			v.addf("item '%s' is outside the world bounds", it.ID)
		}
		v.validateNodeRef(fmt.Sprintf("item '%s' dialog", it.ID), it.Dialog)
		itemNames[it.Name] = true
	}
	for _, n := range s.Nodes {
		for _, c := range n.Choices {
			if c.Outcome.Grant != nil {
				itemNames[c.Outcome.Grant.Name] = true
			}
		}
	}
	for _, n := range s.Nodes {
		for _, c := range n.Choices {
			for _, name := range c.RequiresItem {
				if !itemNames[name] {
					v.addf("node '%s' choice '%s' requires item '%s', which the scenario never provides", n.ID, c.Action, name)
				}
			}
		}
	}
	for name, e := range s.Effects {
		v.validateHealthDelta(fmt.Sprintf("effect for '%s' health", name), e.Health)
		if !itemNames[name] {
			v.addf("effect for '%s' does not match any item in the scenario", name)
		}
		if e.Health == 0 && !e.Consumes && e.Message == "" {
			v.addf("effect for '%s' does nothing", name)
		}
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("%w:\n%s", ErrInvalid, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *validator) validateNode(n dialog.Node) {
	v.validateIDFormat("dialog node ID", n.ID)
	if err := n.Validate(); err != nil {
		v.addf("dialog node '%s': %v", n.ID, err)
	}
	for _, c := range n.Choices {
		where := fmt.Sprintf("node '%s' choice '%s'", n.ID, c.Action)
		v.validateIDFormat(where+" action", c.Action)
		if c.Text == "" {
			v.addf("%s has no text", where)
		}
		v.validateNodeRef(where, c.Outcome.Next)
		v.validateHealthDelta(where+" health", c.Outcome.Health)
		if c.Outcome.Flag != "" {
			v.validateIDFormat(where+" flag", c.Outcome.Flag)
		}
		for _, f := range c.Requires {
			v.validateIDFormat(where+" required flag", f)
		}
		for _, f := range c.Excludes {
			v.validateIDFormat(where+" excluded flag", f)
		}
		if c.Outcome.Grant != nil && c.Outcome.Grant.Name == "" {
			v.addf("%s grants an item with no name", where)
		}
		if c.Outcome.Grant != nil && c.Outcome.Kind != dialog.OutcomeSearch {
			v.addf("%s grants an item but its outcome is '%s', not 'search'", where, c.Outcome.Kind)
		}
	}
}

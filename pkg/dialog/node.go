package dialog

import (
	"errors"
	"fmt"

	"github.com/jwebster45206/deadtown/pkg/events"
)

var (
	ErrNoChoices       = errors.New("dialog node has no choices")
	ErrUnknownChoice   = errors.New("unknown choice id")
	ErrUnknownKind     = errors.New("unknown interactable kind")
	ErrUnknownNode     = errors.New("unknown dialog node")
	ErrDuplicateNode   = errors.New("duplicate dialog node")
	ErrDuplicateChoice = errors.New("duplicate choice id")
)

// Choice is one player-selectable option.
type Choice struct {
	Text     string   `json:"text"`
	Action   string   `json:"action"`
	Outcome  Outcome  `json:"outcome"`
	Requires []string `json:"requires,omitempty"` // every flag must be set
	Excludes []string `json:"excludes,omitempty"` // no flag may be set

	RequiresItem []string `json:"requires_item,omitempty"` // every item must be carried
}

// Node is one screen of dialog.
type Node struct {
	ID      string   `json:"id,omitempty"`
	Speaker string   `json:"speaker,omitempty"`
	Body    string   `json:"text"`
	Choices []Choice `json:"choices"`
}

// Validate checks that the node can be shown.
func (n Node) Validate() error {
	if len(n.Choices) == 0 {
		return fmt.Errorf("%w: %q", ErrNoChoices, n.ID)
	}
	seen := make(map[string]bool, len(n.Choices))
	for i, c := range n.Choices {
		if c.Action == "" {
			return fmt.Errorf("node %q choice %d has no action id", n.ID, i)
		}
		if seen[c.Action] {
			return fmt.Errorf("%w: %q in node %q", ErrDuplicateChoice, c.Action, n.ID)
		}
		seen[c.Action] = true
		if c.Outcome.Kind == OutcomeCustom && c.Outcome.Custom == "" {
			return fmt.Errorf("node %q choice %q: custom outcome needs a handler name", n.ID, c.Action)
		}
	}
	return nil
}

// Choice returns the choice with the given action id.
func (n Node) Choice(action string) (Choice, bool) {
	for _, c := range n.Choices {
		if c.Action == action {
			return c, true
		}
	}
	return Choice{}, false
}

// FlagView is what choice gating needs to know about narrative flags.
type FlagView interface {
	HasFlag(name string) bool
}

// Carried is what choice gating needs to know about the inventory.
type Carried interface {
	Has(name string) bool
}

// Available reports whether the choice's flag and item gates are satisfied.
func (c Choice) Available(flags FlagView, items Carried) bool {
	for _, name := range c.RequiresItem {
		if items == nil || !items.Has(name) {
			return false
		}
	}
	if flags == nil {
		return len(c.Requires) == 0
	}
	for _, f := range c.Requires {
		if !flags.HasFlag(f) {
			return false
		}
	}
	for _, f := range c.Excludes {
		if flags.HasFlag(f) {
			return false
		}
	}
	return true
}

// Gated returns a copy of n holding only the choices available under flags
// and items. If nothing survives, a plain OK choice that closes the dialog is
// added.
func (n Node) Gated(flags FlagView, items Carried) Node {
	out := n
	out.Choices = make([]Choice, 0, len(n.Choices))
	for _, c := range n.Choices {
		if c.Available(flags, items) {
			out.Choices = append(out.Choices, c)
		}
	}
	if len(out.Choices) == 0 {
		out.Choices = append(out.Choices, Choice{Text: "OK", Action: "ok", Outcome: Close()})
	}
	return out
}

// Payload converts the node into the showDialog event payload.
func (n Node) Payload() events.ShowDialog {
	choices := make([]events.DialogChoice, len(n.Choices))
	for i, c := range n.Choices {
		choices[i] = events.DialogChoice{Text: c.Text, ActionID: c.Action}
	}
	return events.ShowDialog{
		Speaker: n.Speaker,
		Body:    n.Body,
		Choices: choices,
	}
}

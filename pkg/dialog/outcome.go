package dialog

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/deadtown/pkg/inventory"
)

// OutcomeKind is the tag of an Outcome.
type OutcomeKind int

const (
	OutcomeClose OutcomeKind = iota
	OutcomeContinue
	OutcomePickup
	OutcomeEnterLocation
	OutcomeSearch
	OutcomeCustom
	OutcomeUseItem
	OutcomeDropItem
)

var outcomeNames = map[OutcomeKind]string{
	OutcomeClose:         "close",
	OutcomeContinue:      "continue",
	OutcomePickup:        "pickup",
	OutcomeEnterLocation: "enter_location",
	OutcomeSearch:        "search",
	OutcomeCustom:        "custom",
	OutcomeUseItem:       "use_item",
	OutcomeDropItem:      "drop_item",
}

// Content authors may write these instead of the canonical names.
var outcomeAliases = map[string]OutcomeKind{
	"cancel": OutcomeClose,
	"enter":  OutcomeEnterLocation,
	"use":    OutcomeUseItem,
	"drop":   OutcomeDropItem,
}

func (k OutcomeKind) String() string {
	if s, ok := outcomeNames[k]; ok {
		return s
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

func (k OutcomeKind) MarshalText() ([]byte, error) {
	s, ok := outcomeNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown outcome kind %d", int(k))
	}
	return []byte(s), nil
}

// UnmarshalText resolves an authored outcome name. Hyphens and underscores
// are interchangeable.
func (k *OutcomeKind) UnmarshalText(text []byte) error {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(string(text))), "-", "_")
	for kind, s := range outcomeNames {
		if s == name {
			*k = kind
			return nil
		}
	}
	if kind, ok := outcomeAliases[name]; ok {
		*k = kind
		return nil
	}
	return fmt.Errorf("unknown outcome kind %q", string(text))
}

// Outcome is the side-effect contract bound to a choice.
type Outcome struct {
	Kind   OutcomeKind     `json:"kind"`
	Next   string          `json:"next,omitempty"`   // node to chain to
	Grant  *inventory.Item `json:"grant,omitempty"`  // search: item materialized into the inventory
	Flag   string          `json:"flag,omitempty"`   // narrative flag latched on success
	Health int             `json:"health,omitempty"` // health delta applied on success
	Custom string          `json:"custom,omitempty"` // custom handler name
}

func Close() Outcome {
	return Outcome{Kind: OutcomeClose}
}

func Continue(next string) Outcome {
	return Outcome{Kind: OutcomeContinue, Next: next}
}

func Pickup() Outcome {
	return Outcome{Kind: OutcomePickup}
}

func EnterLocation() Outcome {
	return Outcome{Kind: OutcomeEnterLocation}
}

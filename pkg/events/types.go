package events

// Topic names an event stream on the Channel
type Topic string

const (
	TopicGameStarted        Topic = "gameStarted"
	TopicShowInteractPrompt Topic = "showInteractPrompt"
	TopicHideInteractPrompt Topic = "hideInteractPrompt"
	TopicShowDialog         Topic = "showDialog"
	TopicHideDialog         Topic = "hideDialog"
	TopicDialogChoice       Topic = "dialogChoice" // presentation -> core
	TopicUpdateHealth       Topic = "updateHealth"
	TopicInventoryChanged   Topic = "inventoryChanged"
	TopicFlagSet            Topic = "flagSet"
	TopicPlayerMove         Topic = "playerMove"
)

// PresentationTopics lists every topic the core publishes for the presentation layer.
var PresentationTopics = []Topic{
	TopicGameStarted,
	TopicShowInteractPrompt,
	TopicHideInteractPrompt,
	TopicShowDialog,
	TopicHideDialog,
	TopicUpdateHealth,
	TopicInventoryChanged,
	TopicFlagSet,
	TopicPlayerMove,
}

// Event is a single published message
type Event struct {
	Topic   Topic `json:"type"`
	Payload any   `json:"data,omitempty"`
}

// GameStarted is the initial snapshot sent when a session starts.
type GameStarted struct {
	Health int `json:"health"`
}

type InteractPrompt struct {
	Name string `json:"name"`
}

// Empty is the payload of hide events.
type Empty struct{}

// DialogChoice is one selectable option as the presentation layer sees it.
type DialogChoice struct {
	Text     string `json:"text"`
	ActionID string `json:"actionId"`
}

// ShowDialog asks the presentation layer to render a dialog box.
type ShowDialog struct {
	Speaker string         `json:"speaker,omitempty"`
	Body    string         `json:"body"`
	Choices []DialogChoice `json:"choices"`
}

// ChoiceRelay carries the player's selected action back into the core.
type ChoiceRelay struct {
	ActionID string `json:"actionId"`
}

type HealthUpdate struct {
	Health int `json:"health"`
}

// ItemView is the presentation copy of an inventory slot.
type ItemView struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

type InventoryChanged struct {
	Items []ItemView `json:"items"`
}

type FlagSet struct {
	Name string `json:"name"`
}

type PlayerMove struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

package main

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	core "github.com/jwebster45206/deadtown/pkg/events"
	"github.com/jwebster45206/deadtown/pkg/game"
	"github.com/jwebster45206/deadtown/pkg/inventory"
	"github.com/jwebster45206/deadtown/pkg/state"
	"github.com/jwebster45206/deadtown/pkg/textfilter"
)

const (
	healthBarWidth = 20
	minPanelWidth  = 30
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config  *ConsoleConfig
	backend Backend

	logViewport viewport.Model
	log         []string
	ready       bool
	width       int
	height      int
	status      string
	ended       bool

	scenario  string
	health    int
	avatar    core.PlayerMove
	prompt    string
	inventory []core.ItemView
	flags     []string
	dialog    *core.ShowDialog
	selected  int
}

type eventMsg struct {
	event Event
}

type backendClosedMsg struct{}

type backendErrMsg struct {
	err error
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	selectedChoiceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func NewConsoleUI(cfg *ConsoleConfig, backend Backend) ConsoleUI {
	vp := viewport.New(minPanelWidth, 10)
	vp.MouseWheelEnabled = true

	return ConsoleUI{
		config:      cfg,
		backend:     backend,
		logViewport: vp,
		health:      state.MaxHealth,
	}
}

func waitForEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return backendClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return waitForEvent(m.backend.Events())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logViewport.Width = max(minPanelWidth, msg.Width-4)
		m.logViewport.Height = max(3, msg.Height/3)
		m.ready = true
		m.refreshLog()
		return m, nil

	case eventMsg:
		m.apply(msg.event)
		return m, waitForEvent(m.backend.Events())

	case backendClosedMsg:
		m.ended = true
		m.status = "Connection to the game closed. Press q to quit."
		return m, nil

	case backendErrMsg:
		m.addLog(errorStyle.Render("Error: " + msg.err.Error()))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

func (m ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	}
	if m.ended {
		return m, nil
	}

	if m.dialog != nil {
		switch key {
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.dialog.Choices)-1 {
				m.selected++
			}
		case "enter", " ":
			if len(m.dialog.Choices) > 0 {
				return m, m.call(func() error {
					return m.backend.Choose(m.dialog.Choices[m.selected].ActionID)
				})
			}
		case "c":
			if err := clipboard.WriteAll(m.dialogText()); err != nil {
				m.status = "Could not copy: " + err.Error()
			} else {
				m.status = "Dialog copied to clipboard"
			}
		default:
			if n, ok := digit(key); ok && n <= len(m.dialog.Choices) {
				action := m.dialog.Choices[n-1].ActionID
				return m, m.call(func() error { return m.backend.Choose(action) })
			}
		}
		return m, nil
	}

	step := m.config.Step
	switch key {
	case "up", "w":
		return m, m.move(0, -step)
	case "down", "s":
		return m, m.move(0, step)
	case "left", "a":
		return m, m.move(-step, 0)
	case "right", "d":
		return m, m.move(step, 0)
	case "e", " ", "enter":
		return m, m.call(func() error { return m.backend.Tick(game.Input{Interact: true}) })
	default:
		if n, ok := digit(key); ok && n <= len(m.inventory) {
			return m, m.call(func() error { return m.backend.Inspect(n - 1) })
		}
	}
	return m, nil
}

func (m ConsoleUI) move(dx, dy float64) tea.Cmd {
	return m.call(func() error { return m.backend.Tick(game.Input{DX: dx, DY: dy}) })
}

// call runs fn and reports a failure back into the update loop.
func (m ConsoleUI) call(fn func() error) tea.Cmd {
	if err := fn(); err != nil {
		return func() tea.Msg { return backendErrMsg{err: err} }
	}
	return nil
}

func digit(key string) (int, bool) {
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return int(key[0] - '0'), true
	}
	return 0, false
}

// apply folds one presentation event into the model.
func (m *ConsoleUI) apply(ev Event) {
	switch d := ev.Data.(type) {
	case game.Snapshot:
		m.scenario = d.Scenario
		m.health = d.Health
		if d.Avatar != nil {
			m.avatar = core.PlayerMove{X: d.Avatar.X, Y: d.Avatar.Y}
		}
		m.prompt = d.Prompt
		m.inventory = d.Inventory
		m.flags = d.Flags
		m.dialog = d.Dialog
		m.selected = 0
		m.addLog(titleStyle.Render(strings.ToUpper(d.Scenario)) + " Use the arrow keys to move, E to interact.")
	case core.GameStarted:
		m.health = d.Health
	case core.PlayerMove:
		m.avatar = d
	case core.InteractPrompt:
		m.prompt = d.Name
	case core.ShowDialog:
		m.dialog = &d
		m.selected = 0
		m.addLog(m.formatDialog(d))
	case core.HealthUpdate:
		if d.Health < m.health {
			m.addLog(warnStyle.Render(fmt.Sprintf("Health dropped to %d", d.Health)))
		} else {
			m.addLog(narratorStyle.Render(fmt.Sprintf("Health restored to %d", d.Health)))
		}
		m.health = d.Health
	case core.InventoryChanged:
		m.inventory = d.Items
	case core.FlagSet:
		m.flags = append(m.flags, d.Name)
		m.addLog(promptStyle.Render("Noted: " + textfilter.DisplayName(d.Name)))
	case ErrorResponse:
		m.addLog(errorStyle.Render(d.Error))
	case core.Empty:
		switch ev.Type {
		case string(core.TopicHideInteractPrompt):
			m.prompt = ""
		case string(core.TopicHideDialog):
			m.dialog = nil
			m.selected = 0
		}
	}
}

func (m *ConsoleUI) addLog(line string) {
	m.log = append(m.log, line)
	m.refreshLog()
}

func (m *ConsoleUI) refreshLog() {
	m.logViewport.SetContent(strings.Join(m.log, "\n"))
	m.logViewport.GotoBottom()
}

func (m ConsoleUI) wrapWidth() int {
	return max(minPanelWidth, m.width-10)
}

func (m ConsoleUI) formatDialog(d core.ShowDialog) string {
	body := wordwrap.String(d.Body, m.wrapWidth())
	if d.Speaker == "" {
		return body
	}
	return speakerStyle.Render(d.Speaker+": ") + body
}

func (m ConsoleUI) dialogText() string {
	if m.dialog == nil {
		return ""
	}
	if m.dialog.Speaker == "" {
		return m.dialog.Body
	}
	return m.dialog.Speaker + ": " + m.dialog.Body
}

func renderHealthBar(health int) string {
	filled := health * healthBarWidth / state.MaxHealth
	color := lipgloss.Color("86")
	switch {
	case health <= 25:
		color = lipgloss.Color("196")
	case health <= 50:
		color = lipgloss.Color("214")
	}
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		promptStyle.Render(strings.Repeat("░", healthBarWidth-filled))
	return fmt.Sprintf("Health %s %3d", bar, health)
}

func (m ConsoleUI) renderHUD() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("DEADTOWN"))
	if m.scenario != "" {
		b.WriteString(promptStyle.Render(" · " + m.scenario))
	}
	b.WriteString("\n")
	b.WriteString(renderHealthBar(m.health))
	b.WriteString(promptStyle.Render(fmt.Sprintf("   (%.0f, %.0f)", m.avatar.X, m.avatar.Y)))
	if m.prompt != "" && m.dialog == nil {
		b.WriteString("   " + narratorStyle.Render("[E] "+m.prompt))
	}
	return b.String()
}

func (m ConsoleUI) renderInventory() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Inventory %d/%d\n", len(m.inventory), inventory.MaxCapacity))
	if len(m.inventory) == 0 {
		b.WriteString(promptStyle.Render("empty"))
	}
	for i, it := range m.inventory {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%d %s", i+1, it.Name))
	}
	return panelStyle.Render(b.String())
}

func (m ConsoleUI) renderDialog() string {
	d := m.dialog
	var b strings.Builder
	if d.Speaker != "" {
		b.WriteString(speakerStyle.Render(d.Speaker) + "\n\n")
	}
	b.WriteString(wordwrap.String(d.Body, m.wrapWidth()-6) + "\n\n")
	for i, c := range d.Choices {
		line := fmt.Sprintf("%d. %s", i+1, c.Text)
		if i == m.selected {
			b.WriteString(selectedChoiceStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString(choiceStyle.Render("  "+line) + "\n")
		}
	}
	b.WriteString(promptStyle.Render("\n↑/↓ select · enter choose · c copy"))
	return dialogStyle.Width(max(minPanelWidth, m.width-4)).Render(b.String())
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "Loading..."
	}

	sections := []string{m.renderHUD(), m.renderInventory()}
	if m.dialog != nil {
		sections = append(sections, m.renderDialog())
	}
	sections = append(sections, m.logViewport.View())

	footer := "arrows/WASD move · E interact · 1-9 inspect item · q quit"
	if m.status != "" {
		footer = m.status
	}
	sections = append(sections, promptStyle.Render(footer))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

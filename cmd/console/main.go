package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/deadtown/internal/config"
	"github.com/jwebster45206/deadtown/internal/logger"
	"github.com/jwebster45206/deadtown/pkg/game"
	"github.com/jwebster45206/deadtown/pkg/scenario"
)

// Backend is where the game actually runs: in this process, or behind the API.
type Backend interface {
	Tick(in game.Input) error
	Choose(actionID string) error
	Inspect(index int) error
	// Events delivers presentation events; it is closed when the game ends.
	Events() <-chan Event
	Close() error
}

type ConsoleConfig struct {
	APIBaseURL string // empty runs the game in-process
	Timeout    time.Duration
	Step       float64
}

func main() {
	appCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	cfg := &ConsoleConfig{
		APIBaseURL: os.Getenv("API_BASE_URL"),
		Timeout:    30 * time.Second,
		Step:       10,
	}

	var backend Backend
	if cfg.APIBaseURL != "" {
		backend, err = connectRemote(cfg)
	} else {
		backend, err = startLocal(appCfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start game: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = backend.Close()
	}()

	p := tea.NewProgram(NewConsoleUI(cfg, backend), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func startLocal(appCfg *config.Config) (Backend, error) {
	sc, err := scenario.Default()
	if appCfg.ScenarioFile != "" {
		sc, err = scenario.LoadFile(appCfg.ScenarioFile)
	}
	if err != nil {
		return nil, err
	}
	// Anything logged to stdout would tear the alt screen
	return newLocalBackend(sc, game.Options{ItemRange: appCfg.ItemRange}, logger.Discard())
}

func connectRemote(cfg *ConsoleConfig) (Backend, error) {
	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	if !testConnection(client, cfg.APIBaseURL) {
		return nil, fmt.Errorf("could not connect to API at %s; please ensure the API is running", cfg.APIBaseURL)
	}

	orderedNames, scenarioMap, err := listScenarios(client, cfg.APIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}

	scenarioFile := ""
	if len(orderedNames) > 0 {
		fmt.Println("Available Scenarios:")
		fmt.Println("  0 - Built-in default")
		for i := range orderedNames {
			fmt.Printf("  %d - %s (%s)\n", i+1, orderedNames[i], scenarioMap[orderedNames[i]])
		}
		fmt.Print("\nSelect a scenario by number: ")

		var choice int
		if _, err := fmt.Scanf("%d", &choice); err != nil || choice < 0 || choice > len(orderedNames) {
			return nil, fmt.Errorf("invalid selection")
		}
		if choice > 0 {
			scenarioFile = scenarioMap[orderedNames[choice-1]]
		}
	}

	return dialRemote(client, cfg.APIBaseURL, scenarioFile)
}

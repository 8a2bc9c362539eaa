package storage

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/deadtown/pkg/scenario"
)

// Scenario operations (filesystem-backed)

type scenarioDir struct {
	dir    string
	logger *slog.Logger
}

func (d scenarioDir) list() (map[string]string, error) {
	scenarios := make(map[string]string)

	err := filepath.WalkDir(d.dir, func(path string, e fs.DirEntry, err error) error {
		if err != nil || e.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		s, err := scenario.LoadFile(path)
		if err != nil {
			d.logger.Warn("Skipping invalid scenario file", "path", path, "error", err)
			return nil
		}

		scenarios[s.Name] = filepath.Base(path)
		return nil
	})
	if err != nil {
		d.logger.Error("Failed to walk scenarios directory", "error", err)
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}

	return scenarios, nil
}

func (d scenarioDir) get(filename string) (*scenario.Scenario, error) {
	if filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, filename)
	}

	path := filepath.Join(d.dir, filename)
	d.logger.Debug("Loading scenario", "filename", filename, "full_path", path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, filename)
	}
	return scenario.LoadFile(path)
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const tinyTown = `{
  "name": "Tiny Town",
  "start_health": 100,
  "spawn": {"x": 50, "y": 50},
  "bounds": {"width": 200, "height": 200},
  "buildings": [
    {"id": "shed", "name": "Shed", "x": 10, "y": 10, "width": 40, "height": 20}
  ],
  "items": [
    {"id": "rope", "name": "Rope", "description": "A coil of rope.", "position": {"x": 100, "y": 100}}
  ],
  "nodes": []
}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"valid", "tiny_town.json", tinyTown, ""},
		{"experimental prefix", "x.tiny_town.json", tinyTown, ""},
		{"wrong extension", "tiny_town.yaml", tinyTown, ".json extension"},
		{"kebab filename", "tiny-town.json", tinyTown, "snake_case"},
		{"broken json", "tiny_town.json", `{"name": `, "invalid JSON"},
		{"unknown field", "tiny_town.json", strings.Replace(tinyTown, `"name": "Tiny Town",`, `"name": "Tiny Town", "zombies": 3,`, 1), "strict JSON"},
		{"invalid content", "tiny_town.json", strings.Replace(tinyTown, `"start_health": 100`, `"start_health": 0`, 1), "validation errors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.body)
			var out bytes.Buffer
			err := validateFile(&out, path)

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !strings.Contains(out.String(), "Tiny Town: 2 objects") {
					t.Errorf("summary missing from output: %q", out.String())
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

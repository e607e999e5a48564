package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/anima2d/engine/core"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadApplicationConfig(t *testing.T) {
	path := writeConfig(t, `
fps_cap = 30

[window]
name = "Sidescroller"
width = 800
vsync = false

[physics]
gravity = 0.002

[log]
level = "debug"

[debug]
show_hitboxes = true
`)
	config, err := LoadApplicationConfig(path)
	if err != nil {
		t.Fatalf("LoadApplicationConfig: %v", err)
	}

	defaults := DefaultApplicationConfig()
	if config.Window.Name != "Sidescroller" || config.Window.StartWidth != 800 {
		t.Errorf("window = %+v", config.Window)
	}
	if config.Window.StartHeight != defaults.Window.StartHeight {
		t.Errorf("height = %d, want default %d", config.Window.StartHeight, defaults.Window.StartHeight)
	}
	if config.FPSCap != 30 || config.Window.VSync {
		t.Errorf("fps cap = %d vsync = %t", config.FPSCap, config.Window.VSync)
	}
	if config.Physics.Gravity != 0.002 {
		t.Errorf("gravity = %v", config.Physics.Gravity)
	}
	if config.LogLevel() != core.DebugLevel {
		t.Errorf("log level = %s", config.LogLevel())
	}
	if !config.Debug.ShowHitboxes || config.Debug.ShowStats {
		t.Errorf("debug = %+v", config.Debug)
	}
	if config.Assets != defaults.Assets {
		t.Errorf("assets = %+v, want defaults", config.Assets)
	}
}

func TestLoadApplicationConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "[window\nname = 1"},
		{"wrong type", "[window]\nwidth = \"wide\""},
		{"zero height", "[window]\nheight = 0"},
		{"no images dir", "[assets]\nimages_dir = \"\""},
		{"no textures", "[assets]\nmax_textures = 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadApplicationConfig(writeConfig(t, tt.body)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}

	if _, err := LoadApplicationConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("missing file loaded")
	}
}

func TestFrameBudget(t *testing.T) {
	tests := []struct {
		vsync bool
		cap   uint32
		want  float64
	}{
		{true, 60, 0},
		{false, 0, 0},
		{false, 50, 20},
		{false, 100, 10},
	}
	for _, tt := range tests {
		config := DefaultApplicationConfig()
		config.Window.VSync = tt.vsync
		config.FPSCap = tt.cap
		if got := config.FrameBudgetMs(); got != tt.want {
			t.Errorf("vsync=%t cap=%d: budget = %v, want %v", tt.vsync, tt.cap, got, tt.want)
		}
	}
}

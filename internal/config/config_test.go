package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CALLSIM_SEED", "CALLSIM_MODE", "CALLSIM_DEBUG", "CALLSIM_DARK_MODE"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Simulation.Mode != ModeAutoAgent {
		t.Errorf("expected Mode=auto_agent, got %s", cfg.Simulation.Mode)
	}
	if cfg.UI.Theme != ThemeAuto {
		t.Errorf("expected Theme=auto, got %s", cfg.UI.Theme)
	}
	if cfg.Logging.DebugMode {
		t.Error("debug mode should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	sim := cfg.Simulation
	want := map[string][2]time.Duration{
		"init":       {sim.GetInitDelay(), 1500 * time.Millisecond},
		"reset init": {sim.GetResetInitDelay(), 1000 * time.Millisecond},
		"intro":      {sim.GetIntroDelay(), 1000 * time.Millisecond},
		"reply min":  {sim.GetReplyDelayMin(), 1500 * time.Millisecond},
		"reply max":  {sim.GetReplyDelayMax(), 2500 * time.Millisecond},
	}
	for name, pair := range want {
		if pair[0] != pair[1] {
			t.Errorf("%s delay = %v, want %v", name, pair[0], pair[1])
		}
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := DefaultPath(t.TempDir())

	cfg := DefaultConfig()
	cfg.Simulation.Seed = 7
	cfg.Simulation.Mode = ModeHumanAgent
	cfg.Simulation.ReplyDelayMin = "200ms"
	cfg.Simulation.ReplyDelayMax = "400ms"
	cfg.Logging.Categories = map[string]bool{"ui": false}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(".callsim", "config.yaml")) {
		t.Errorf("unexpected default path %s", path)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Simulation.Seed != 7 {
		t.Errorf("expected Seed=7, got %d", loaded.Simulation.Seed)
	}
	if loaded.Simulation.Mode != ModeHumanAgent {
		t.Errorf("expected Mode=human_agent, got %s", loaded.Simulation.Mode)
	}
	if got := loaded.Simulation.GetReplyDelayMax(); got != 400*time.Millisecond {
		t.Errorf("expected reply max 400ms, got %v", got)
	}
	if loaded.Logging.IsCategoryEnabled("ui") {
		t.Error("ui category should be disabled (debug mode off)")
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Simulation.GetInitDelay() != 1500*time.Millisecond {
		t.Errorf("expected default init delay, got %v", cfg.Simulation.GetInitDelay())
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("simulation:\n  seed: 99\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Simulation.Seed != 99 {
		t.Errorf("expected Seed=99, got %d", cfg.Simulation.Seed)
	}
	if cfg.Simulation.ReplyDelayMin != "1500ms" {
		t.Errorf("default reply_delay_min lost: %q", cfg.Simulation.ReplyDelayMin)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("simulation: [oops"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unparseable delay", func(c *Config) { c.Simulation.InitDelay = "soon" }, "init_delay"},
		{"negative delay", func(c *Config) { c.Simulation.IntroDelay = "-1s" }, "out of range"},
		{"delay too long", func(c *Config) { c.Simulation.ReplyDelayMax = "11s" }, "out of range"},
		{"empty reply window", func(c *Config) { c.Simulation.ReplyDelayMin = "2500ms" }, "must be below"},
		{"bad mode", func(c *Config) { c.Simulation.Mode = "robot" }, "simulation.mode"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging level"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui theme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoggingSettings(t *testing.T) {
	lc := LoggingConfig{Level: "debug", DebugMode: true, JSONFormat: true, Categories: map[string]bool{"ui": false}}
	s := lc.Settings()
	if !s.DebugMode || s.Level != "debug" || !s.JSONFormat || s.Categories["ui"] {
		t.Errorf("unexpected settings %+v", s)
	}
	if lc.IsCategoryEnabled("ui") {
		t.Error("ui should be disabled")
	}
	if !lc.IsCategoryEnabled("engine") {
		t.Error("unlisted category should be enabled in debug mode")
	}
}

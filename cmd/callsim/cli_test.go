package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"callsim/internal/config"
	"callsim/internal/conversation"
	"callsim/internal/scenario"
)

// setupCLI points the globals at a fresh workspace and captures output.
func setupCLI(t *testing.T) (*cobra.Command, *bytes.Buffer, string) {
	t.Helper()
	logger = zap.NewNop()

	for _, key := range []string{"CALLSIM_SEED", "CALLSIM_MODE", "CALLSIM_DEBUG", "CALLSIM_DARK_MODE"} {
		t.Setenv(key, "")
	}

	ws := t.TempDir()
	workspace = ws
	t.Cleanup(func() {
		workspace = ""
		replayReport = false
		replayRaw = false
		replayLive = false
		configForce = false
		chatMode = ""
		chatSeed = 0
	})

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	return cmd, &out, ws
}

func TestReplayBuiltins(t *testing.T) {
	cmd, out, _ := setupCLI(t)

	if err := runReplay(cmd, nil); err != nil {
		t.Fatalf("runReplay failed: %v\n%s", err, out.String())
	}

	want := fmt.Sprintf("All %d scenarios passed", len(scenario.Builtins()))
	if !strings.Contains(out.String(), want) {
		t.Errorf("expected %q in output:\n%s", want, out.String())
	}
	if strings.Contains(out.String(), "FAIL") {
		t.Errorf("unexpected failure:\n%s", out.String())
	}
}

func TestReplayRawReport(t *testing.T) {
	cmd, out, _ := setupCLI(t)
	replayReport = true
	replayRaw = true

	if err := runReplay(cmd, []string{"happy-path"}); err != nil {
		t.Fatalf("runReplay failed: %v", err)
	}
	for _, want := range []string{"# happy-path", "Plan confirmed active", "## Transcript"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in report:\n%s", want, out.String())
		}
	}
}

func TestReplayLive(t *testing.T) {
	cmd, out, ws := setupCLI(t)

	cfg := config.DefaultConfig()
	cfg.Simulation.InitDelay = "1ms"
	cfg.Simulation.ResetInitDelay = "1ms"
	cfg.Simulation.IntroDelay = "1ms"
	cfg.Simulation.ReplyDelayMin = "1ms"
	cfg.Simulation.ReplyDelayMax = "3ms"
	if err := cfg.Save(config.DefaultPath(ws)); err != nil {
		t.Fatal(err)
	}
	replayLive = true

	if err := runReplay(cmd, []string{"happy-path"}); err != nil {
		t.Fatalf("live replay failed: %v\n%s", err, out.String())
	}
	for _, want := range []string{"── happy-path ──", "Agent  Hello, thank you for calling", "PASS  happy-path"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in output:\n%s", want, out.String())
		}
	}
}

func TestReplayFailingFile(t *testing.T) {
	cmd, out, ws := setupCLI(t)

	path := filepath.Join(ws, "stuck.yaml")
	data := "name: stuck\nagent_replies: [\"Good morning!\"]\nexpect:\n  state: completed\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	err := runReplay(cmd, []string{path})
	if err == nil {
		t.Fatal("expected failing scenario to return an error")
	}
	if !strings.Contains(err.Error(), "1 of 1 scenarios failed") {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "FAIL  stuck") {
		t.Errorf("expected FAIL line:\n%s", out.String())
	}
}

func TestReplayUnknownScenario(t *testing.T) {
	cmd, _, _ := setupCLI(t)
	if err := runReplay(cmd, []string{"nope"}); err == nil {
		t.Error("expected error for unknown scenario")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	cmd, out, ws := setupCLI(t)

	if err := configInitCmd.RunE(cmd, nil); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := os.Stat(config.DefaultPath(ws)); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	if err := configInitCmd.RunE(cmd, nil); err == nil {
		t.Error("expected second init without --force to fail")
	}
	configForce = true
	if err := configInitCmd.RunE(cmd, nil); err != nil {
		t.Errorf("init --force failed: %v", err)
	}

	out.Reset()
	if err := configShowCmd.RunE(cmd, nil); err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out.String(), "reply_delay_min: 1500ms") {
		t.Errorf("unexpected config output:\n%s", out.String())
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	_, _, ws := setupCLI(t)

	cfg := config.DefaultConfig()
	cfg.Simulation.ReplyDelayMin = "3s"
	if err := cfg.Save(config.DefaultPath(ws)); err != nil {
		t.Fatal(err)
	}
	if _, _, err := loadConfig(); err == nil {
		t.Error("expected reply_delay_min above reply_delay_max to be rejected")
	}
}

func TestScenariosCmd(t *testing.T) {
	cmd, out, _ := setupCLI(t)

	if err := scenariosCmd.RunE(cmd, nil); err != nil {
		t.Fatalf("scenarios failed: %v", err)
	}
	for _, s := range scenario.Builtins() {
		if !strings.Contains(out.String(), s.Name) {
			t.Errorf("missing %s in listing", s.Name)
		}
	}

	out.Reset()
	scenariosYAML = true
	defer func() { scenariosYAML = false }()
	if err := scenariosCmd.RunE(cmd, nil); err != nil {
		t.Fatalf("scenarios --yaml failed: %v", err)
	}
	if _, err := scenario.Parse(out.Bytes()); err != nil {
		t.Errorf("--yaml output does not parse: %v", err)
	}
}

func TestChatOptions(t *testing.T) {
	setupCLI(t)

	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&chatMode, "mode", "", "")
	cmd.Flags().Uint64Var(&chatSeed, "seed", 0, "")

	cfg := config.DefaultConfig()
	cfg.Simulation.IntroDelay = "250ms"

	opts := chatOptions(cmd, cfg)
	if opts.Mode != conversation.ModeAutoAgent {
		t.Errorf("mode = %s, want config default", opts.Mode)
	}
	if opts.Timings.IntroDelay != 250*time.Millisecond {
		t.Errorf("intro delay = %v", opts.Timings.IntroDelay)
	}

	if err := cmd.Flags().Set("mode", "human_agent"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("seed", "9"); err != nil {
		t.Fatal(err)
	}
	opts = chatOptions(cmd, cfg)
	if opts.Mode != conversation.ModeHumanAgent || opts.Seed != 9 {
		t.Errorf("flags not applied: mode=%s seed=%d", opts.Mode, opts.Seed)
	}
}

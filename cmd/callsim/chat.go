package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"callsim/cmd/callsim/chat"
	"callsim/cmd/callsim/ui"
	"callsim/internal/config"
	"callsim/internal/conversation"
	"callsim/internal/logging"
)

var (
	chatMode string
	chatSeed uint64
)

// chatOptions merges config and root flags into chat options.
func chatOptions(cmd *cobra.Command, cfg *config.Config) chat.Options {
	mode := cfg.Simulation.Mode
	if cmd.Flags().Changed("mode") {
		mode = chatMode
	}
	seed := cfg.Simulation.Seed
	if cmd.Flags().Changed("seed") {
		seed = chatSeed
	}
	return chat.Options{
		Timings:     timingsFrom(cfg.Simulation),
		Mode:        conversation.ParseMode(mode),
		Seed:        seed,
		Styles:      ui.NewStyles(ui.ThemeByName(cfg.UI.Theme)),
		ShowSignals: cfg.UI.ShowSignals,
	}
}

func runInteractiveChat(cmd *cobra.Command) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("mode") && chatMode != config.ModeAutoAgent && chatMode != config.ModeHumanAgent {
		return fmt.Errorf("invalid --mode %q (valid: %s, %s)", chatMode, config.ModeAutoAgent, config.ModeHumanAgent)
	}

	model, err := chat.New(chatOptions(cmd, cfg))
	if err != nil {
		return err
	}
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logging.BootError("chat exited with error: %v", err)
		return fmt.Errorf("chat failed: %w", err)
	}
	return nil
}

// Command callsim simulates a customer-support call between an automated
// caller and a support agent.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"callsim/internal/config"
	"callsim/internal/conversation"
	"callsim/internal/logging"
)

var (
	// Global flags
	verbose   bool
	workspace string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "callsim",
	Short: "callsim - scripted support-call simulator",
	Long: `callsim plays a bot calling a support line on behalf of a customer.

The bot walks a fixed script: introduction, queue verification,
authentication and plan inquiry. Each agent reply moves the call forward.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip logger init for interactive mode (it has its own UI)
		if cmd.Use == "callsim" && cmd.CalledAs() == "callsim" {
			return nil
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch interactive chat
		return runInteractiveChat(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory holding .callsim/ (default: current directory)")

	rootCmd.Flags().StringVar(&chatMode, "mode", "", "Who you play: auto_agent (you are the bot) or human_agent (you are the agent)")
	rootCmd.Flags().Uint64Var(&chatSeed, "seed", 0, "Seed for agent replies and typing delays (0 = random)")

	rootCmd.AddCommand(
		replayCmd,
		scenariosCmd,
		configCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveWorkspace returns the --workspace flag or the current directory.
func resolveWorkspace() (string, error) {
	if workspace != "" {
		return workspace, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return cwd, nil
}

// loadConfig loads and validates the workspace config and starts file logging.
func loadConfig() (*config.Config, string, error) {
	ws, err := resolveWorkspace()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(config.DefaultPath(ws))
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config %s: %w", config.DefaultPath(ws), err)
	}
	if err := logging.Initialize(ws, cfg.Logging.Settings()); err != nil {
		return nil, "", err
	}
	logging.Boot("config loaded from %s (mode=%s)", config.DefaultPath(ws), cfg.Simulation.Mode)
	return cfg, ws, nil
}

// timingsFrom maps the simulation config onto engine timings.
func timingsFrom(s config.SimulationConfig) conversation.Timings {
	return conversation.Timings{
		InitDelay:      s.GetInitDelay(),
		ResetInitDelay: s.GetResetInitDelay(),
		IntroDelay:     s.GetIntroDelay(),
		ReplyDelayMin:  s.GetReplyDelayMin(),
		ReplyDelayMax:  s.GetReplyDelayMax(),
	}
}

// cliLogger returns the zap logger, or a no-op one before PersistentPreRunE ran.
func cliLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

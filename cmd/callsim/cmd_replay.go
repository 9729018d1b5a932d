package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"callsim/cmd/callsim/ui"
	"callsim/internal/report"
	"callsim/internal/scenario"
	"callsim/internal/types"
)

var (
	replaySeed     uint64
	replayReport   bool
	replayRaw      bool
	replayParallel int
	replayLive     bool
)

// replayCmd runs scripted calls on a virtual clock
var replayCmd = &cobra.Command{
	Use:   "replay [scenario-name | file.yaml]",
	Short: "Replay scripted calls and check their outcomes",
	Long: `Replays scenarios against the conversation engine on a virtual clock.

With no argument every built-in scenario runs. A name selects a built-in
scenario; a path loads scenarios from a YAML file. Each replay is audited for
illegal state transitions. The command fails if any scenario fails.

With --live the call runs at configured pacing on the wall clock and each
message is printed as it is spoken.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().Uint64Var(&replaySeed, "seed", scenario.DefaultSeed, "Seed for agent replies and typing delays")
	replayCmd.Flags().BoolVar(&replayReport, "report", false, "Print a call report for every scenario")
	replayCmd.Flags().BoolVar(&replayRaw, "raw", false, "Print reports as markdown instead of rendering them")
	replayCmd.Flags().IntVarP(&replayParallel, "parallel", "p", 4, "Maximum concurrent replays")
	replayCmd.Flags().BoolVar(&replayLive, "live", false, "Replay one scenario at a time in real time, printing messages as they arrive")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	scenarios := scenario.Builtins()
	if len(args) == 1 {
		scenarios, err = scenario.Resolve(args[0])
		if err != nil {
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runner := scenario.Runner{
		Timings:  timingsFrom(cfg.Simulation),
		Seed:     replaySeed,
		Parallel: replayParallel,
	}
	cliLogger().Info("Replaying scenarios", zap.Int("count", len(scenarios)), zap.Uint64("seed", replaySeed))

	out := cmd.OutOrStdout()
	var results []scenario.Result
	if replayLive {
		results, err = runLive(ctx, runner, scenarios, out)
	} else {
		results, err = runner.RunAll(ctx, scenarios)
	}
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}

	dark := ui.ThemeByName(cfg.UI.Theme).IsDark
	failed := 0
	for _, res := range results {
		mark := "PASS"
		if !res.Passed() {
			mark = "FAIL"
			failed++
		}
		fmt.Fprintf(out, "%s  %-20s %-20s %v\n", mark, res.Scenario.Name, res.Snapshot.State, res.Elapsed)
		for _, f := range res.Failures {
			fmt.Fprintf(out, "      - %s\n", f)
		}
		for _, v := range res.Violations {
			fmt.Fprintf(out, "      - illegal transition %s\n", v)
		}

		if replayReport {
			sum := report.Summarize(res.Scenario.Name, res.Snapshot)
			sum.Failures = res.Failures
			sum.Violations = res.Violations
			md := sum.Markdown()
			if replayRaw {
				fmt.Fprintln(out, md)
				continue
			}
			rendered, err := report.Render(md, 100, dark)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, rendered)
		}
	}

	cliLogger().Info("Replay finished", zap.Int("passed", len(results)-failed), zap.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
	}
	fmt.Fprintf(out, "\nAll %d scenarios passed\n", len(results))
	return nil
}

// runLive replays scenarios one after another on the wall clock.
func runLive(ctx context.Context, runner scenario.Runner, scenarios []scenario.Scenario, out io.Writer) ([]scenario.Result, error) {
	results := make([]scenario.Result, 0, len(scenarios))
	for _, s := range scenarios {
		fmt.Fprintf(out, "── %s ──\n", s.Name)
		res, err := runner.RunLive(ctx, s, func(m types.Message) {
			fmt.Fprintf(out, "[%s] %-6s %s\n", m.Timestamp.Format("15:04:05"), m.Role.DisplayName(), m.Content)
		})
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

package scenario

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"callsim/internal/chance"
	"callsim/internal/clock"
	"callsim/internal/conversation"
	"callsim/internal/ids"
	"callsim/internal/logging"
	"callsim/internal/mangle"
	"callsim/internal/types"
)

// DefaultSeed is used when a runner is given seed 0, so replays are
// reproducible unless a seed is chosen explicitly.
const DefaultSeed uint64 = 1

// Epoch is the virtual start time of every replay.
var Epoch = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

// maxCallbacks bounds a single settle; a call fires a handful per step.
const maxCallbacks = 1000

// Runner replays scenarios.
type Runner struct {
	Timings conversation.Timings
	Seed    uint64
	// Parallel caps concurrent replays in RunAll; <= 0 means no cap.
	Parallel int
}

// Result is the outcome of one replay.
type Result struct {
	Scenario   Scenario
	Snapshot   conversation.Snapshot
	Violations []mangle.Violation
	Failures   []string
	// Elapsed is virtual time from construction until the call went quiet.
	Elapsed time.Duration
}

// Passed reports whether every expectation held and the audit was clean.
func (r Result) Passed() bool {
	return len(r.Failures) == 0 && len(r.Violations) == 0
}

// Run replays s on a fresh engine and virtual clock.
func (r Runner) Run(ctx context.Context, s Scenario) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	auditor, err := mangle.NewAuditor()
	if err != nil {
		return Result{}, err
	}

	seed := r.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	vc := clock.NewVirtual(Epoch)
	engine := conversation.New(conversation.Options{
		Clock:   vc,
		IDs:     ids.NewSequence(s.Name),
		Rand:    chance.NewSeeded(seed),
		Timings: r.Timings,
		Mode:    s.ScenarioMode(),
		Auditor: auditor,
	})

	log := logging.Get(logging.CategoryScenario)
	log.Info("replay %s (mode=%s seed=%d)", s.Name, s.ScenarioMode(), seed)

	settle := func() error {
		if n := vc.RunUntilIdle(maxCallbacks); n >= maxCallbacks && vc.Pending() > 0 {
			return fmt.Errorf("scenario %s: call did not settle after %d callbacks", s.Name, n)
		}
		return nil
	}

	if err := settle(); err != nil {
		return Result{}, err
	}
	steps := s.Steps()
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if engine.State().IsTerminal() {
			log.Info("replay %s: call completed, %d step(s) not delivered", s.Name, len(steps)-i)
			break
		}
		if err := engine.SendMessage(step); err != nil {
			return Result{}, fmt.Errorf("scenario %s step %d: %w", s.Name, i+1, err)
		}
		if s.ResetAfter == i+1 {
			log.Info("replay %s: reset after step %d in %s", s.Name, i+1, engine.State())
			engine.Reset()
		}
		if err := settle(); err != nil {
			return Result{}, err
		}
	}

	res := Result{
		Scenario: s,
		Snapshot: engine.Snapshot(),
		Elapsed:  vc.Now().Sub(Epoch),
	}
	res.Failures = Check(s.Expect, res.Snapshot)
	res.Violations, err = auditor.Violations()
	if err != nil {
		return Result{}, err
	}

	if res.Passed() {
		log.Info("replay %s passed in %v virtual", s.Name, res.Elapsed)
	} else {
		log.Warn("replay %s failed: %s", s.Name, strings.Join(res.Failures, "; "))
	}
	return res, nil
}

// RunAll replays every scenario concurrently. Results keep the input order.
// The first error cancels the remaining replays.
func (r Runner) RunAll(ctx context.Context, scenarios []Scenario) ([]Result, error) {
	results := make([]Result, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	if r.Parallel > 0 {
		g.SetLimit(r.Parallel)
	}
	for i, s := range scenarios {
		g.Go(func() error {
			res, err := r.Run(gctx, s)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Check compares snap against e and describes every mismatch. A completed
// call must also end on one of the bot's closing lines.
func Check(e Expect, snap conversation.Snapshot) []string {
	var failures []string
	fail := func(format string, args ...interface{}) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	if e.State != "" && string(snap.State) != e.State {
		fail("state = %s, want %s", snap.State, e.State)
	}
	if e.AgentName != nil && snap.Context.AgentName != *e.AgentName {
		fail("agent_name = %q, want %q", snap.Context.AgentName, *e.AgentName)
	}
	if e.IsRightQueue != nil && snap.Context.IsRightQueue != *e.IsRightQueue {
		fail("is_right_queue = %t, want %t", snap.Context.IsRightQueue, *e.IsRightQueue)
	}
	if e.IsAuthenticated != nil && snap.Context.IsAuthenticated != *e.IsAuthenticated {
		fail("is_authenticated = %t, want %t", snap.Context.IsAuthenticated, *e.IsAuthenticated)
	}
	if e.TransferNumber != "" && snap.Context.TransferNumber != e.TransferNumber {
		fail("transfer_number = %q, want %q", snap.Context.TransferNumber, e.TransferNumber)
	}
	if e.Messages > 0 && len(snap.Messages) != e.Messages {
		fail("messages = %d, want %d", len(snap.Messages), e.Messages)
	}

	var bot []string
	agents := 0
	for _, m := range snap.Messages {
		switch m.Role {
		case types.RoleBot:
			bot = append(bot, m.Content)
		case types.RoleAgent:
			agents++
		}
	}
	if snap.State.IsTerminal() {
		if len(bot) == 0 || !conversation.IsClosingScript(bot[len(bot)-1]) {
			fail("call completed without a closing line")
		}
	}
	if e.AgentMessages != nil && agents != *e.AgentMessages {
		fail("agent messages = %d, want %d", agents, *e.AgentMessages)
	}
	if e.LastBot != "" {
		want := ResolveScript(e.LastBot)
		if len(bot) == 0 {
			fail("no bot message, want last %q", want)
		} else if got := bot[len(bot)-1]; got != want {
			fail("last bot = %q, want %q", got, want)
		}
	}
	for _, inc := range e.BotIncludes {
		if !anyContains(bot, ResolveScript(inc)) {
			fail("no bot message contains %q", ResolveScript(inc))
		}
	}
	for _, exc := range e.BotExcludes {
		if anyContains(bot, ResolveScript(exc)) {
			fail("a bot message contains %q", ResolveScript(exc))
		}
	}
	return failures
}

func anyContains(msgs []string, sub string) bool {
	for _, m := range msgs {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

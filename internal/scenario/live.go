package scenario

import (
	"context"
	"fmt"
	"time"

	"callsim/internal/chance"
	"callsim/internal/clock"
	"callsim/internal/conversation"
	"callsim/internal/ids"
	"callsim/internal/logging"
	"callsim/internal/mangle"
	"callsim/internal/types"
)

// RunLive replays s in real time on a clock.Loop, handing every transcript
// message to onMessage as it is published. Each step is submitted as soon as
// the engine accepts input again.
func (r Runner) RunLive(ctx context.Context, s Scenario, onMessage func(types.Message)) (Result, error) {
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
	loop := clock.NewLoop()
	defer loop.Close()

	engine := conversation.New(conversation.Options{
		Clock:   loop,
		IDs:     ids.NewSequence(s.Name),
		Rand:    chance.NewSeeded(seed),
		Timings: r.Timings,
		Mode:    s.ScenarioMode(),
		Auditor: auditor,
	})

	log := logging.Get(logging.CategoryScenario)
	log.Info("live replay %s (mode=%s seed=%d)", s.Name, s.ScenarioMode(), seed)

	steps := s.Steps()
	var (
		next    int
		seen    int
		posted  bool
		stepErr error
	)

	submit := func() {
		posted = false
		if stepErr != nil || next >= len(steps) || !engine.Snapshot().CanSend() {
			return
		}
		step := steps[next]
		next++
		if err := engine.SendMessage(step); err != nil {
			stepErr = fmt.Errorf("scenario %s step %d: %w", s.Name, next, err)
			return
		}
		if s.ResetAfter == next {
			log.Info("live replay %s: reset after step %d in %s", s.Name, next, engine.State())
			engine.Reset()
		}
	}

	unsubscribe := engine.Subscribe(func(snap conversation.Snapshot) {
		// A reset clears the transcript.
		if len(snap.Messages) < seen {
			seen = 0
		}
		for ; seen < len(snap.Messages); seen++ {
			if onMessage != nil {
				onMessage(snap.Messages[seen])
			}
		}
		if snap.CanSend() && next < len(steps) && !posted && stepErr == nil {
			posted = true
			loop.Post(submit)
		}
	})
	defer unsubscribe()

	start := time.Now()
	if err := loop.RunUntilIdle(ctx); err != nil {
		return Result{}, err
	}
	if stepErr != nil {
		return Result{}, stepErr
	}

	res := Result{
		Scenario: s,
		Snapshot: engine.Snapshot(),
		Elapsed:  time.Since(start),
	}
	res.Failures = Check(s.Expect, res.Snapshot)
	res.Violations, err = auditor.Violations()
	if err != nil {
		return Result{}, err
	}
	log.Info("live replay %s finished in %v (passed=%t)", s.Name, res.Elapsed, res.Passed())
	return res, nil
}

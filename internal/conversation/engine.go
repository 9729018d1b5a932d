// Package conversation implements the call's state machine: it picks the
// bot's scripted utterances, interprets agent replies and schedules the
// simulated typing delays.
//
// The engine is single-threaded. Every method and every scheduled callback
// must run on the same event loop; the clock decides which loop that is.
// Callbacks carry the session epoch they were scheduled in and do nothing once
// a reset has started a newer session.
package conversation

import (
	"slices"
	"strings"
	"time"

	"callsim/internal/chance"
	"callsim/internal/clock"
	"callsim/internal/ids"
	"callsim/internal/logging"
	"callsim/internal/transcript"
	"callsim/internal/types"
)

// Mode selects who the person at the keyboard plays.
type Mode string

const (
	// ModeAutoAgent: submissions are the bot's voice and the agent replies
	// automatically from its pool.
	ModeAutoAgent Mode = "auto_agent"
	// ModeHumanAgent: submissions are the agent's replies and the bot follows
	// the script in response.
	ModeHumanAgent Mode = "human_agent"
)

// ParseMode converts a textual mode; unknown values fall back to auto.
func ParseMode(s string) Mode {
	if Mode(s) == ModeHumanAgent {
		return ModeHumanAgent
	}
	return ModeAutoAgent
}

// Timings are the simulated latencies of a session.
type Timings struct {
	InitDelay      time.Duration // fresh start: until the system notice
	ResetInitDelay time.Duration // reset: until the system notice
	IntroDelay     time.Duration // system notice -> bot introduction
	ReplyDelayMin  time.Duration // inclusive lower bound of a typing delay
	ReplyDelayMax  time.Duration // exclusive upper bound of a typing delay
}

// DefaultTimings returns the standard call pacing.
func DefaultTimings() Timings {
	return Timings{
		InitDelay:      1500 * time.Millisecond,
		ResetInitDelay: 1000 * time.Millisecond,
		IntroDelay:     1000 * time.Millisecond,
		ReplyDelayMin:  1500 * time.Millisecond,
		ReplyDelayMax:  2500 * time.Millisecond,
	}
}

// Auditor observes every state change. Implementations must not call back
// into the engine.
type Auditor interface {
	RecordTransition(epoch uint64, from, to types.ConversationState)
}

// Options wires the engine's capabilities. Zero fields get defaults:
// a real-time clock.Loop is NOT created implicitly, so Clock is required.
type Options struct {
	Clock   clock.Clock
	IDs     ids.Source
	Rand    chance.Source
	Timings Timings
	Mode    Mode
	Pools   Pools
	Auditor Auditor
}

// Snapshot is everything a UI needs to render the call.
type Snapshot struct {
	Messages          []types.Message
	IsAgentTyping     bool
	IsInitializing    bool
	IsFollowUpPending bool
	State             types.ConversationState
	Context           types.ConversationContext
	Epoch             uint64
	Mode              Mode
}

// CanSend reports whether a UI should take a submission now. A completed
// call takes no more input, so the bot's closing line stays the last one.
func (s Snapshot) CanSend() bool {
	return !s.IsInitializing && !s.IsAgentTyping && !s.IsFollowUpPending && !s.State.IsTerminal()
}

// LastBotMessage returns the most recent bot utterance.
func (s Snapshot) LastBotMessage() (types.Message, bool) {
	return transcript.Snapshot{Messages: s.Messages}.LastOf(types.RoleBot)
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// Engine drives one simulated call at a time.
type Engine struct {
	clock   clock.Clock
	rand    chance.Source
	timings Timings
	mode    Mode
	pools   Pools
	auditor Auditor

	store *transcript.Store

	state           types.ConversationState
	ctx             types.ConversationContext
	epoch           uint64
	followUpPending bool

	subs      []subscriber
	nextSubID int
	depth     int
	dirty     bool
}

// New builds an engine and starts its first session. The first system notice
// and the bot's introduction arrive through the clock.
func New(opts Options) *Engine {
	if opts.Clock == nil {
		panic("conversation: Options.Clock is required")
	}
	if opts.IDs == nil {
		opts.IDs = ids.UUID{}
	}
	if opts.Rand == nil {
		opts.Rand = chance.NewSeeded(0)
	}
	if opts.Timings == (Timings{}) {
		opts.Timings = DefaultTimings()
	}
	if opts.Mode == "" {
		opts.Mode = ModeAutoAgent
	}
	if opts.Pools == nil {
		opts.Pools = DefaultPools()
	}

	e := &Engine{
		clock:   opts.Clock,
		rand:    opts.Rand,
		timings: opts.Timings,
		mode:    opts.Mode,
		pools:   opts.Pools,
		auditor: opts.Auditor,
		store:   transcript.New(opts.Clock, opts.IDs),
	}
	e.store.Subscribe(func(transcript.Snapshot) { e.changed() })
	e.startSession(false)
	return e
}

// Snapshot returns the current view of the call.
func (e *Engine) Snapshot() Snapshot {
	ts := e.store.Snapshot()
	return Snapshot{
		Messages:          ts.Messages,
		IsAgentTyping:     ts.IsAgentTyping,
		IsInitializing:    ts.IsInitializing,
		IsFollowUpPending: e.followUpPending,
		State:             e.state,
		Context:           e.ctx,
		Epoch:             e.epoch,
		Mode:              e.mode,
	}
}

// State returns the current conversation state.
func (e *Engine) State() types.ConversationState { return e.state }

// Context returns the current conversation context.
func (e *Engine) Context() types.ConversationContext { return e.ctx }

// Epoch returns the current session number; it increases on every reset.
func (e *Engine) Epoch() uint64 { return e.epoch }

// Mode returns the active input mode.
func (e *Engine) Mode() Mode { return e.mode }

// SetMode switches the input mode. It applies from the next submission.
func (e *Engine) SetMode(m Mode) {
	if m == e.mode {
		return
	}
	logging.Session("mode %s -> %s", e.mode, m)
	e.mutate(func() {
		e.mode = m
		e.dirty = true
	})
}

// Subscribe registers fn to receive a snapshot after every change and
// returns a function that removes it.
func (e *Engine) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	e.nextSubID++
	id := e.nextSubID
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// Reset abandons the current session and starts a new one. Callbacks still
// scheduled for the old session become no-ops.
func (e *Engine) Reset() {
	e.startSession(true)
}

// SendMessage handles a submission from the UI. In auto-agent mode the text
// is recorded as the bot's utterance and an agent reply is scheduled; in
// human-agent mode it is treated as the agent's reply.
func (e *Engine) SendMessage(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if e.mode == ModeHumanAgent {
		return e.ReceiveAgentReply(text)
	}
	if err := e.checkReady(); err != nil {
		return err
	}

	log := logging.ForSession(logging.CategoryEngine, e.epoch).WithField("state", string(e.state))

	e.mutate(func() {
		e.appendMessage(types.RoleBot, text)
		if e.state.IsTerminal() {
			log.Info("submission recorded after completion; no agent reply")
			return
		}
		e.store.SetAgentTyping(true)
	})
	if e.state.IsTerminal() {
		return nil
	}

	delay := e.replyDelay()
	log.Debug("agent reply in %v", delay)
	e.after(delay, func() {
		reply := chance.Pick(e.rand, e.pools.For(e.state))
		e.mutate(func() {
			e.store.SetAgentTyping(false)
			if reply == "" {
				log.Warn("no agent reply pool for state %s", e.state)
				return
			}
			e.handleAgentReply(reply)
		})
	})
	return nil
}

// ReceiveAgentReply records text as the agent's utterance and runs the
// transition function on it immediately.
func (e *Engine) ReceiveAgentReply(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if err := e.checkReady(); err != nil {
		return err
	}
	e.mutate(func() { e.handleAgentReply(text) })
	return nil
}

func (e *Engine) checkReady() error {
	switch {
	case e.store.IsInitializing():
		return ErrInitializing
	case e.store.IsAgentTyping():
		return ErrAgentTyping
	case e.followUpPending:
		return ErrFollowUpPending
	}
	return nil
}

// handleAgentReply must run inside mutate.
func (e *Engine) handleAgentReply(text string) {
	e.appendMessage(types.RoleAgent, text)

	out := Transition(e.state, e.ctx, text)
	log := logging.ForSession(logging.CategoryEngine, e.epoch).
		WithField("state", string(e.state)).
		WithField("reason", string(out.Reason))
	logging.PerceptionDebug("%q -> %s", text, out.Reason)

	if out.Context != e.ctx {
		e.ctx = out.Context
		e.dirty = true
	}
	if out.Effect == nil {
		log.Info("agent reply handled; bot stays silent")
		return
	}

	effect := *out.Effect
	e.followUpPending = true
	e.dirty = true
	delay := e.replyDelay()
	log.Info("bot follow-up in %v -> %s", delay, effect.Next)

	e.after(delay, func() {
		e.mutate(func() {
			e.followUpPending = false
			e.dirty = true
			if e.state.IsTerminal() {
				log.Warn("dropping follow-up: call already completed")
				return
			}
			e.appendMessage(types.RoleBot, effect.Say)
			e.setState(effect.Next)
		})
	})
}

func (e *Engine) startSession(reset bool) {
	e.mutate(func() {
		e.epoch++
		e.state = types.StateIntroduction
		e.ctx = types.NewConversationContext()
		e.followUpPending = false
		e.dirty = true
		e.store.SetAgentTyping(false)
		e.store.SetInitializing(true)
		e.store.Clear()
	})

	notice, delay := InitNotice, e.timings.InitDelay
	if reset {
		notice, delay = ResetNotice, e.timings.ResetInitDelay
	}
	logging.Session("session %d started (reset=%t)", e.epoch, reset)

	e.after(delay, func() {
		e.mutate(func() { e.appendMessage(types.RoleSystem, notice) })
		e.after(e.timings.IntroDelay, func() {
			e.mutate(func() {
				e.appendMessage(types.RoleBot, IntroScript)
				e.store.SetInitializing(false)
			})
		})
	})
}

// after schedules fn on the clock, bound to the current session epoch.
func (e *Engine) after(d time.Duration, fn func()) {
	epoch := e.epoch
	e.clock.Schedule(d, func() {
		if e.epoch != epoch {
			logging.EngineDebug("stale callback from session %d ignored (current %d)", epoch, e.epoch)
			return
		}
		fn()
	})
}

func (e *Engine) replyDelay() time.Duration {
	return e.rand.Delay(e.timings.ReplyDelayMin, e.timings.ReplyDelayMax)
}

func (e *Engine) appendMessage(role types.Role, content string) {
	msg, err := e.store.Append(role, content)
	if err != nil {
		logging.EngineError("append %s message: %v", role, err)
		return
	}
	logging.TranscriptDebug("%s %s: %s", msg.ID, role, content)
}

func (e *Engine) setState(next types.ConversationState) {
	from := e.state
	if from == next {
		return
	}
	if !types.CanTransition(from, next) {
		logging.EngineError("refusing transition %s -> %s", from, next)
		return
	}
	e.state = next
	e.dirty = true
	logging.Engine("session %d: %s -> %s", e.epoch, from, next)
	if e.auditor != nil {
		e.auditor.RecordTransition(e.epoch, from, next)
	}
}

// mutate batches every change made by fn into one published snapshot.
func (e *Engine) mutate(fn func()) {
	e.depth++
	e.store.Batch(fn)
	e.depth--
	if e.depth == 0 && e.dirty {
		e.dirty = false
		e.publish()
	}
}

func (e *Engine) changed() {
	if e.depth > 0 {
		e.dirty = true
		return
	}
	e.publish()
}

func (e *Engine) publish() {
	if len(e.subs) == 0 {
		return
	}
	snap := e.Snapshot()
	// Observers may unsubscribe while being notified.
	for _, s := range slices.Clone(e.subs) {
		s.fn(snap)
	}
}

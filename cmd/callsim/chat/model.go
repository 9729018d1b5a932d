// Package chat is the interactive terminal front end of callsim.
//
// The conversation engine runs on a clock.Queue: every callback it schedules
// is drained into a tea.Tick command and executed back inside Update, so the
// engine only ever sees the bubbletea event loop.
package chat

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"callsim/cmd/callsim/ui"
	"callsim/internal/chance"
	"callsim/internal/clock"
	"callsim/internal/conversation"
	"callsim/internal/ids"
	"callsim/internal/logging"
	"callsim/internal/mangle"
)

// ViewMode selects the main pane.
type ViewMode int

const (
	ChatView ViewMode = iota
	ReportView
)

// Options configures a chat session.
type Options struct {
	Timings     conversation.Timings
	Mode        conversation.Mode
	Seed        uint64
	Styles      ui.Styles
	ShowSignals bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// firedMsg carries a deferred engine callback back into Update.
type firedMsg struct {
	fn func()
}

// session owns the engine and the state its subscription updates. It is
// shared by every copy of the Model.
type session struct {
	engine      *conversation.Engine
	queue       *clock.Queue
	auditor     *mangle.Auditor
	latest      conversation.Snapshot
	updates     int
	unsubscribe func()
}

// Model is the bubbletea model for one simulated call.
type Model struct {
	sess *session

	input    textinput.Model
	viewport viewport.Model
	reportVP viewport.Model
	spinner  spinner.Model
	styles   ui.Styles

	viewMode    ViewMode
	showSignals bool
	status      string
	err         error

	width  int
	height int
	ready  bool

	// tick arms a host timer for a deferred engine callback.
	tick func(d time.Duration, fn func()) tea.Cmd
}

// New builds the model and starts the engine's first session.
func New(opts Options) (Model, error) {
	auditor, err := mangle.NewAuditor()
	if err != nil {
		return Model{}, fmt.Errorf("failed to create transition auditor: %w", err)
	}

	q := clock.NewQueue(opts.Now)
	sess := &session{queue: q, auditor: auditor}
	sess.engine = conversation.New(conversation.Options{
		Clock:   q,
		IDs:     ids.UUID{},
		Rand:    chance.NewSeeded(opts.Seed),
		Timings: opts.Timings,
		Mode:    opts.Mode,
		Auditor: auditor,
	})
	sess.latest = sess.engine.Snapshot()
	sess.unsubscribe = sess.engine.Subscribe(func(s conversation.Snapshot) {
		sess.latest = s
		sess.updates++
	})

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 500
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	styles := opts.Styles
	if styles.Theme == (ui.Theme{}) {
		styles = ui.DefaultStyles()
	}
	sp.Style = styles.Spinner
	ti.PromptStyle = styles.Prompt

	m := Model{
		sess:        sess,
		input:       ti,
		spinner:     sp,
		styles:      styles,
		showSignals: opts.ShowSignals,
		tick:        fireAfter,
	}
	m.input.Placeholder = m.placeholder()

	logging.UI("chat session started (mode=%s seed=%d)", sess.latest.Mode, opts.Seed)
	return m, nil
}

func fireAfter(d time.Duration, fn func()) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return firedMsg{fn: fn} })
}

// Init starts the cursor, the spinner and the engine's startup timers.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.drain())
}

// drain arms a tick for everything the engine scheduled since the last drain.
func (m Model) drain() tea.Cmd {
	items := m.sess.queue.Drain()
	if len(items) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(items))
	for _, d := range items {
		cmds = append(cmds, m.tick(d.Delay, d.Fn))
	}
	return tea.Batch(cmds...)
}

// Snapshot returns the latest engine snapshot the model has seen.
func (m Model) Snapshot() conversation.Snapshot {
	return m.sess.latest
}

// Close detaches the model from its engine.
func (m Model) Close() {
	if m.sess.unsubscribe != nil {
		m.sess.unsubscribe()
		m.sess.unsubscribe = nil
	}
}

func (m Model) placeholder() string {
	snap := m.sess.latest
	switch {
	case snap.IsInitializing:
		return "Connecting..."
	case snap.IsAgentTyping:
		return "Waiting for the agent..."
	case snap.Mode == conversation.ModeHumanAgent:
		return "Reply as the agent (/help for commands)"
	}
	return "Speak as the bot (/help for commands)"
}

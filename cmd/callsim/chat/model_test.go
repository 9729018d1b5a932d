package chat

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callsim/cmd/callsim/ui"
	"callsim/internal/conversation"
	"callsim/internal/types"
)

var start = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

// harness fires deferred engine callbacks in order instead of arming timers.
type harness struct {
	t       *testing.T
	m       Model
	pending []func()
}

func newHarness(t *testing.T, mode conversation.Mode) *harness {
	t.Helper()
	m, err := New(Options{
		Mode:   mode,
		Seed:   7,
		Styles: ui.NewStyles(ui.LightTheme()),
		Now:    func() time.Time { return start },
	})
	require.NoError(t, err)

	h := &harness{t: t}
	m.tick = func(_ time.Duration, fn func()) tea.Cmd {
		h.pending = append(h.pending, fn)
		return nil
	}
	h.m = m
	h.m.Init()
	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	t.Cleanup(h.m.Close)
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

func (h *harness) settle() {
	for len(h.pending) > 0 {
		fn := h.pending[0]
		h.pending = h.pending[1:]
		h.send(firedMsg{fn: fn})
	}
}

func (h *harness) enter(line string) tea.Cmd {
	h.m.input.SetValue(line)
	return h.send(tea.KeyMsg{Type: tea.KeyEnter})
}

func (h *harness) lastBot() string {
	msg, ok := h.m.Snapshot().LastBotMessage()
	require.True(h.t, ok)
	return msg.Content
}

func TestStartup(t *testing.T) {
	h := newHarness(t, conversation.ModeHumanAgent)
	assert.True(t, h.m.Snapshot().IsInitializing)
	assert.Contains(t, h.m.View(), "connecting")

	h.settle()
	snap := h.m.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, conversation.InitNotice, snap.Messages[0].Content)
	assert.Equal(t, conversation.IntroScript, snap.Messages[1].Content)
	assert.False(t, snap.IsInitializing)

	view := h.m.View()
	assert.Contains(t, view, "callsim")
	assert.Contains(t, view, types.StateIntroduction.Label())
}

func TestHumanAgentTurn(t *testing.T) {
	h := newHarness(t, conversation.ModeHumanAgent)
	h.settle()

	h.enter("Hi, this is Alex speaking.")
	snap := h.m.Snapshot()
	assert.True(t, snap.IsFollowUpPending)
	assert.Empty(t, h.m.input.Value())

	h.enter("Hello?")
	assert.ErrorIs(t, h.m.err, conversation.ErrFollowUpPending)
	assert.Equal(t, "Hello?", h.m.input.Value(), "rejected input stays in the box")

	h.settle()
	snap = h.m.Snapshot()
	assert.Equal(t, types.StateQueueVerification, snap.State)
	assert.Equal(t, "Alex", snap.Context.AgentName)
	assert.Equal(t, conversation.QueueScript("Alex"), h.lastBot())
}

func TestAutoAgentTurn(t *testing.T) {
	h := newHarness(t, conversation.ModeAutoAgent)
	h.settle()

	h.enter("Hello, anyone there?")
	snap := h.m.Snapshot()
	assert.True(t, snap.IsAgentTyping)
	assert.Contains(t, h.m.View(), "agent is typing")

	h.settle()
	snap = h.m.Snapshot()
	assert.False(t, snap.IsAgentTyping)
	assert.Equal(t, types.StateQueueVerification, snap.State)
	assert.NotEmpty(t, snap.Context.AgentName)
	assert.Equal(t, conversation.QueueScript(snap.Context.AgentName), h.lastBot())
}

func TestSubmitWhileInitializing(t *testing.T) {
	h := newHarness(t, conversation.ModeAutoAgent)
	h.enter("too early")
	assert.ErrorIs(t, h.m.err, conversation.ErrInitializing)
	assert.Equal(t, "Still connecting, please wait", h.m.status)
}

func TestSubmitAfterCompletion(t *testing.T) {
	h := newHarness(t, conversation.ModeHumanAgent)
	h.settle()
	h.enter("Riley speaking.")
	h.settle()
	h.enter("Let me transfer you: 555 000 1111")
	h.settle()
	require.Equal(t, types.StateCompleted, h.m.Snapshot().State)
	before := len(h.m.Snapshot().Messages)

	h.enter("One more thing?")
	assert.Equal(t, "Call complete, /reset to start a new call", h.m.status)
	assert.Equal(t, "One more thing?", h.m.input.Value())
	assert.Len(t, h.m.Snapshot().Messages, before)
	assert.Equal(t, conversation.CloseTransferScript("555 000 1111"), h.lastBot())
}

func TestModeCommand(t *testing.T) {
	h := newHarness(t, conversation.ModeAutoAgent)

	h.enter("/mode")
	assert.Equal(t, conversation.ModeHumanAgent, h.m.Snapshot().Mode)

	h.enter("/mode auto")
	assert.Equal(t, conversation.ModeAutoAgent, h.m.Snapshot().Mode)

	h.enter("/mode robot")
	assert.Contains(t, h.m.status, "Unknown mode")
	assert.Equal(t, conversation.ModeAutoAgent, h.m.Snapshot().Mode)
}

func TestResetDropsPendingFollowUp(t *testing.T) {
	h := newHarness(t, conversation.ModeHumanAgent)
	h.settle()
	h.enter("Hi, this is Alex speaking.")

	h.enter("/reset")
	h.settle()

	snap := h.m.Snapshot()
	assert.Equal(t, uint64(2), snap.Epoch)
	assert.Equal(t, types.StateIntroduction, snap.State)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, conversation.ResetNotice, snap.Messages[0].Content)
	assert.Equal(t, conversation.IntroScript, snap.Messages[1].Content)
}

func TestReportView(t *testing.T) {
	h := newHarness(t, conversation.ModeHumanAgent)
	h.settle()

	h.enter("/report")
	require.Nil(t, h.m.err)
	assert.Equal(t, ReportView, h.m.viewMode)
	assert.Positive(t, h.m.reportVP.TotalLineCount())

	h.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ChatView, h.m.viewMode)
}

func TestQuitCommand(t *testing.T) {
	h := newHarness(t, conversation.ModeHumanAgent)
	cmd := h.enter("/quit")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t, conversation.ModeHumanAgent)
	h.enter("/dance")
	assert.Contains(t, h.m.status, "Unknown command /dance")

	h.enter("/help")
	assert.Equal(t, helpText, h.m.status)
}

func TestSignalsPanel(t *testing.T) {
	h := newHarness(t, conversation.ModeHumanAgent)
	h.settle()
	h.m.showSignals = true
	h.enter("Hi, this is Alex speaking.")
	assert.Contains(t, h.m.View(), "name=Alex")
}

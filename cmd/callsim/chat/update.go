package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"callsim/internal/conversation"
	"callsim/internal/logging"
	"callsim/internal/report"
)

const helpText = "/reset  restart the call · /mode  switch who you play · /report  call summary · /signals  toggle signal panel · /quit"

// Update handles input, engine callbacks and window changes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.Close()
			return m, tea.Quit
		case tea.KeyEsc:
			if m.viewMode == ReportView {
				m.viewMode = ChatView
				return m, nil
			}
			m.Close()
			return m, tea.Quit
		}

		if m.viewMode == ReportView {
			m.reportVP, vpCmd = m.reportVP.Update(msg)
			return m, vpCmd
		}

		switch msg.Type {
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)
		h := max(msg.Height-m.chromeHeight(), 3)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, h)
			m.reportVP = viewport.New(msg.Width, msg.Height-2)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = h
			m.reportVP.Width = msg.Width
			m.reportVP.Height = msg.Height - 2
		}
		m.refresh()
		return m, nil

	case firedMsg:
		msg.fn()
		m.refresh()
		return m, m.drain()

	case spinner.TickMsg:
		m.spinner, spCmd = m.spinner.Update(msg)
		return m, spCmd
	}

	m.input, tiCmd = m.input.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

// submit routes the input line to a slash command or the engine.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if strings.HasPrefix(text, "/") {
		m.input.Reset()
		return m.command(text)
	}

	if m.sess.engine.State().IsTerminal() {
		m.status = "Call complete, /reset to start a new call"
		return m, nil
	}
	if err := m.sess.engine.SendMessage(text); err != nil {
		m.err = err
		m.status = describeRejection(err)
		logging.UIDebug("submission rejected: %v", err)
		return m, nil
	}
	m.err = nil
	m.status = ""
	m.input.Reset()
	m.refresh()
	return m, m.drain()
}

func (m Model) command(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		m.Close()
		return m, tea.Quit

	case "/reset":
		m.sess.engine.Reset()
		m.err = nil
		m.status = "Call reset"
		m.refresh()
		return m, m.drain()

	case "/mode":
		next := conversation.ModeHumanAgent
		if m.sess.engine.Mode() == conversation.ModeHumanAgent {
			next = conversation.ModeAutoAgent
		}
		if len(fields) > 1 {
			switch fields[1] {
			case "auto", string(conversation.ModeAutoAgent):
				next = conversation.ModeAutoAgent
			case "human", string(conversation.ModeHumanAgent):
				next = conversation.ModeHumanAgent
			default:
				m.status = "Unknown mode " + fields[1] + " (auto, human)"
				return m, nil
			}
		}
		m.sess.engine.SetMode(next)
		m.status = "Mode: " + modeLabel(next)
		m.refresh()
		return m, nil

	case "/report":
		out, err := m.renderReport()
		if err != nil {
			m.err = err
			m.status = "Report failed: " + err.Error()
			return m, nil
		}
		m.reportVP.SetContent(out)
		m.reportVP.GotoTop()
		m.viewMode = ReportView
		return m, nil

	case "/signals":
		m.showSignals = !m.showSignals
		return m, func() tea.Msg { return tea.WindowSizeMsg{Width: m.width, Height: m.height} }

	case "/help":
		m.status = helpText
		return m, nil
	}

	m.status = "Unknown command " + fields[0] + " (try /help)"
	return m, nil
}

func (m Model) renderReport() (string, error) {
	sum := report.Summarize("Call report", m.sess.latest)
	violations, err := m.sess.auditor.Violations()
	if err != nil {
		return "", err
	}
	sum.Violations = violations
	return report.Render(sum.Markdown(), m.width-4, m.styles.Theme.IsDark)
}

// refresh re-renders the transcript after the engine may have changed.
func (m *Model) refresh() {
	m.input.Placeholder = m.placeholder()
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func describeRejection(err error) string {
	switch {
	case errors.Is(err, conversation.ErrInitializing):
		return "Still connecting, please wait"
	case errors.Is(err, conversation.ErrAgentTyping):
		return "The agent is typing"
	case errors.Is(err, conversation.ErrFollowUpPending):
		return "The bot is about to speak"
	}
	return err.Error()
}

func modeLabel(mode conversation.Mode) string {
	if mode == conversation.ModeHumanAgent {
		return "you are the agent"
	}
	return "you are the bot"
}

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"callsim/internal/perception"
	"callsim/internal/types"
)

// chromeHeight is the number of rows outside the transcript viewport.
func (m Model) chromeHeight() int {
	h := 1 + 1 + 1 + 1 + 1 // header, divider, activity, input, status
	if m.showSignals {
		h += 4
	}
	return h
}

// View renders the model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.viewMode == ReportView {
		footer := m.styles.Footer.Render("esc back · ↑/↓ scroll")
		return lipgloss.JoinVertical(lipgloss.Left, m.reportVP.View(), footer)
	}

	sections := []string{
		m.renderHeader(),
		m.styles.RenderDivider(m.width),
		m.styles.Content.Render(m.viewport.View()),
	}
	if m.showSignals {
		sections = append(sections, m.renderSignals())
	}
	sections = append(sections,
		m.renderActivity(),
		m.input.View(),
		m.renderStatus(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	snap := m.sess.latest
	title := m.styles.Header.Render("callsim")
	agent := snap.Context.AgentName
	if agent == "" {
		agent = "unknown agent"
	}
	info := m.styles.Muted.Render(fmt.Sprintf(" session %d · %s · %s", snap.Epoch, agent, modeLabel(snap.Mode)))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, " ", m.styles.StateBadge(snap.State), info)
}

func (m Model) renderTranscript() string {
	snap := m.sess.latest
	width := max(m.viewport.Width-4, 20)
	var b strings.Builder
	for i, msg := range snap.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		ts := m.styles.Timestamp.Render(msg.Timestamp.Format("15:04:05"))
		if msg.Role == types.RoleSystem {
			b.WriteString(ts + " " + m.styles.SystemLine.Width(width).Render(msg.Content))
			b.WriteString("\n")
			continue
		}
		b.WriteString(ts + " " + m.styles.Label(msg.Role) + "\n")
		b.WriteString(m.styles.MessageBody.Width(width).Render(msg.Content))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderActivity() string {
	snap := m.sess.latest
	switch {
	case snap.IsInitializing:
		return m.spinner.View() + m.styles.Muted.Render(" connecting")
	case snap.IsAgentTyping:
		return m.spinner.View() + m.styles.Muted.Render(" agent is typing")
	case snap.IsFollowUpPending:
		return m.spinner.View() + m.styles.Muted.Render(" bot is responding")
	case snap.State.IsTerminal():
		return m.styles.Success.Render("Call complete") + m.styles.Muted.Render(" · /report for a summary, /reset to start over")
	}
	return ""
}

// renderSignals shows what the extractors see in the last agent utterance.
func (m Model) renderSignals() string {
	snap := m.sess.latest
	body := m.styles.Muted.Render("no agent reply yet")
	for i := len(snap.Messages) - 1; i >= 0; i-- {
		if snap.Messages[i].Role == types.RoleAgent {
			body = perception.Analyze(snap.Messages[i].Content).String()
			break
		}
	}
	ctx := snap.Context
	line := fmt.Sprintf("queue=%t member=%s authenticated=%t", ctx.IsRightQueue, ctx.MemberID, ctx.IsAuthenticated)
	if ctx.TransferNumber != "" {
		line += " transfer=" + ctx.TransferNumber
	}
	content := m.styles.Title.Render("Signals") + " " + body + "\n" + m.styles.Muted.Render(line)
	return m.styles.Panel.Width(max(m.width-2, 20)).Render(content)
}

func (m Model) renderStatus() string {
	if m.status == "" {
		return m.styles.Footer.Render("enter send · /help · esc quit")
	}
	if m.err != nil {
		return m.styles.Warning.Render(m.status)
	}
	return m.styles.Info.Render(m.status)
}

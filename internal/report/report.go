// Package report summarises a call as markdown and renders it for the
// terminal with glamour.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"callsim/internal/conversation"
	"callsim/internal/mangle"
	"callsim/internal/types"
)

// Outcome classifies how a call ended.
type Outcome string

const (
	OutcomeConfirmed       Outcome = "plan_confirmed"
	OutcomeTransferred     Outcome = "transferred"
	OutcomeTransferUnknown Outcome = "transfer_unknown"
	OutcomeInProgress      Outcome = "in_progress"
)

// Summary is the structured form of a report.
type Summary struct {
	Title             string
	Outcome           Outcome
	State             types.ConversationState
	Context           types.ConversationContext
	Epoch             uint64
	Messages          []types.Message
	Violations        []mangle.Violation
	Failures          []string
	GeneratedAt       time.Time
	IncludeTranscript bool
}

// Summarize builds a summary from an engine snapshot.
func Summarize(title string, snap conversation.Snapshot) Summary {
	return Summary{
		Title:             title,
		Outcome:           outcomeOf(snap),
		State:             snap.State,
		Context:           snap.Context,
		Epoch:             snap.Epoch,
		Messages:          snap.Messages,
		IncludeTranscript: true,
	}
}

func outcomeOf(snap conversation.Snapshot) Outcome {
	if !snap.State.IsTerminal() {
		return OutcomeInProgress
	}
	switch {
	case snap.Context.TransferNumber != "":
		return OutcomeTransferred
	case !snap.Context.IsRightQueue:
		return OutcomeTransferUnknown
	}
	return OutcomeConfirmed
}

// Describe returns a one-line description of the outcome.
func (s Summary) Describe() string {
	switch s.Outcome {
	case OutcomeConfirmed:
		return "Plan confirmed active"
	case OutcomeTransferred:
		return "Transferred to the coverage department at " + s.Context.TransferNumber
	case OutcomeTransferUnknown:
		return "Wrong queue, no transfer number given"
	}
	return "In progress: " + s.State.Label()
}

// Markdown renders the summary as a markdown document.
func (s Summary) Markdown() string {
	var b strings.Builder

	title := s.Title
	if title == "" {
		title = "Call report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "**Outcome:** %s\n\n", s.Describe())

	b.WriteString("| Field | Value |\n|---|---|\n")
	row := func(k, v string) { fmt.Fprintf(&b, "| %s | %s |\n", k, escapeCell(v)) }
	row("State", s.State.Label())
	row("Session", fmt.Sprintf("%d", s.Epoch))
	row("Agent", orDash(s.Context.AgentName))
	row("Right queue", yesNo(s.Context.IsRightQueue))
	row("Member ID", orDash(s.Context.MemberID))
	row("Authenticated", yesNo(s.Context.IsAuthenticated))
	row("Transfer number", orDash(s.Context.TransferNumber))
	if !s.GeneratedAt.IsZero() {
		row("Generated", s.GeneratedAt.Format(time.RFC3339))
	}
	b.WriteString("\n")

	if len(s.Failures) > 0 {
		b.WriteString("## Failed expectations\n\n")
		for _, f := range s.Failures {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}
	if len(s.Violations) > 0 {
		b.WriteString("## Illegal transitions\n\n")
		for _, v := range s.Violations {
			fmt.Fprintf(&b, "- %s\n", v)
		}
		b.WriteString("\n")
	}

	if s.IncludeTranscript && len(s.Messages) > 0 {
		b.WriteString("## Transcript\n\n")
		b.WriteString("| # | Time | Speaker | Message |\n|---|---|---|---|\n")
		for i, m := range s.Messages {
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n",
				i+1, m.Timestamp.Format("15:04:05.000"), m.Role.DisplayName(), escapeCell(m.Content))
		}
	}
	return b.String()
}

// Render converts markdown for a terminal of the given width. Dark selects
// glamour's auto style; otherwise the light style is used.
func Render(markdown string, width int, dark bool) (string, error) {
	if width <= 0 {
		width = 80
	}
	style := glamour.WithStylePath("light")
	if dark {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return out, nil
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// Package perception turns an agent's free-text reply into the handful of
// signals the conversation engine branches on. Every function is pure and
// total: text that matches nothing yields the zero answer, never an error.
package perception

import (
	"regexp"
	"strings"
)

var (
	// "name is X" is matched against the original text so X keeps its case.
	nameIsPattern   = regexp.MustCompile(`(?i)name is (\w+)`)
	speakingPattern = regexp.MustCompile(`(?i)(\w+) speaking`)
	// The name after "I'm" must be capitalised, and capitalised words that
	// usually follow "I'm" in a sentence are still not names.
	introducedPattern = regexp.MustCompile(`\b(?i:i'm|i am) ([A-Z]\w*)`)
	notNames          = map[string]bool{
		"Sorry": true, "Afraid": true, "Not": true, "Just": true, "Here": true,
		"Sure": true, "Glad": true, "Happy": true, "Going": true, "Still": true,
		"Calling": true, "Checking": true, "Looking": true, "Unable": true,
	}
	transferPattern  = regexp.MustCompile(`\d{3}-\d{3}-\d{4}|\d{3}\.\d{3}\.\d{4}|\d{3} \d{3} \d{4}|\d{10}`)
	moreIdentityKeys = []string{"also", "additional", "date of birth"}
	verifiedKeys     = []string{"verified", "confirmed"}
)

// ExtractAgentName returns the agent's self-introduced name. "name is X"
// takes precedence over "X speaking", which takes precedence over "I'm X".
func ExtractAgentName(text string) (string, bool) {
	for _, p := range []*regexp.Regexp{nameIsPattern, speakingPattern} {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	for _, m := range introducedPattern.FindAllStringSubmatch(text, -1) {
		if !notNames[m[1]] {
			return m[1], true
		}
	}
	return "", false
}

// IsRightQueue reports whether the agent confirmed the caller is in the right
// queue. Any reply that does not mention a transfer counts as confirmation.
func IsRightQueue(text string) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, "right") ||
		strings.Contains(t, "yes") ||
		!strings.Contains(t, "transfer")
}

// ExtractTransferNumber returns the first ten-digit phone number, written as
// 3-3-4 digits with one consistent separator (-, . or space) or none.
func ExtractTransferNumber(text string) (string, bool) {
	m := transferPattern.FindString(text)
	return m, m != ""
}

// NeedsMoreIdentity reports whether the agent asked for more identifying details.
func NeedsMoreIdentity(text string) bool {
	return containsAny(strings.ToLower(text), moreIdentityKeys)
}

// IsVerified reports whether the agent confirmed the caller's identity.
func IsVerified(text string) bool {
	return containsAny(strings.ToLower(text), verifiedKeys)
}

// IsPlanActive reports whether the agent said the plan is active.
func IsPlanActive(text string) bool {
	return strings.Contains(strings.ToLower(text), "active")
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

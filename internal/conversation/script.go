package conversation

import (
	"fmt"
	"strings"
)

// Bot utterances. The bot speaks for John Doe, whose member ID is fixed.
const (
	IntroScript = "Hello, I'm calling on behalf of John Doe. I'd like to inquire about his insurance coverage. May I know your name please?"

	AuthScript = "I understand you need to verify the identity. The member ID is JD123456. Do you need any additional information to authenticate?"

	AuthFollowUpScript = "The date of birth is January 15, 1980."

	InquiryScript = "Great, thank you for verifying. I'd like to know if the plan is currently active."

	CloseTransferUnknownScript = "Thank you for the information. I'll try to reach the correct department."

	CloseConfirmedScript = "Thank you for confirming the plan is active. That's all I needed to know for now."
)

// System notices posted during startup.
const (
	InitNotice  = "Customer support chat initialized. Bot will act on behalf of the customer."
	ResetNotice = "Chat reset. Starting new conversation."
)

// QueueScript thanks the agent by name and asks about the queue.
func QueueScript(agentName string) string {
	return fmt.Sprintf("Thank you, %s. I want to confirm if I'm in the right queue to inquire about insurance coverage details?", agentName)
}

// CloseTransferScript closes the call with the number the agent gave.
func CloseTransferScript(number string) string {
	return closeTransferPrefix + number + closeTransferSuffix
}

const (
	closeTransferPrefix = "I'll call the coverage department at "
	closeTransferSuffix = ". Thank you for your assistance."
)

// IsClosingScript reports whether text is one of the utterances that end a call.
func IsClosingScript(text string) bool {
	if text == CloseTransferUnknownScript || text == CloseConfirmedScript {
		return true
	}
	return len(text) > len(closeTransferPrefix)+len(closeTransferSuffix) &&
		strings.HasPrefix(text, closeTransferPrefix) &&
		strings.HasSuffix(text, closeTransferSuffix)
}

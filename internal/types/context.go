package types

// DefaultMemberID is the scripted customer's member identifier.
const DefaultMemberID = "JD123456"

// ConversationContext holds the variables the engine learns during a call.
type ConversationContext struct {
	AgentName       string `json:"agent_name" yaml:"agent_name"`
	IsRightQueue    bool   `json:"is_right_queue" yaml:"is_right_queue"`
	MemberID        string `json:"member_id" yaml:"member_id"`
	IsAuthenticated bool   `json:"is_authenticated" yaml:"is_authenticated"`
	TransferNumber  string `json:"transfer_number,omitempty" yaml:"transfer_number,omitempty"`
}

// NewConversationContext returns the context of a fresh session.
func NewConversationContext() ConversationContext {
	return ConversationContext{MemberID: DefaultMemberID}
}

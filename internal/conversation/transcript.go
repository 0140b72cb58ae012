package conversation

import "strings"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Transcript is the ordered list of turns of a session.
type Transcript []Turn

// Append returns t with a new turn added.
func (t Transcript) Append(role Role, content string) Transcript {
	return append(t, Turn{Role: role, Content: content})
}

// Flatten renders the transcript as "<role>: <content>" lines in order.
func (t Transcript) Flatten() string {
	lines := make([]string, 0, len(t))
	for _, turn := range t {
		lines = append(lines, string(turn.Role)+": "+turn.Content)
	}
	return strings.Join(lines, "\n")
}

func (t Transcript) clone() Transcript {
	if t == nil {
		return Transcript{}
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

package codey

// Role represents the sender of a message or turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

package models

import "strings"

// Role of a chat message author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation. Some callers label the author with
// Type instead of Role; Normalize folds both into Role.
type Message struct {
	Role    string `json:"role,omitempty"`
	Type    string `json:"type,omitempty"`
	Content string `json:"content"`
}

// System and User build canonical messages.
func System(content string) Message { return Message{Role: string(RoleSystem), Content: content} }
func User(content string) Message   { return Message{Role: string(RoleUser), Content: content} }

// Normalize returns the canonical {role, content} form of m. Role falls back
// to Type and then to "user"; values are lower-cased and anything outside
// system/user/assistant becomes "user".
func Normalize(m Message) Message {
	role := strings.TrimSpace(m.Role)
	if role == "" {
		role = strings.TrimSpace(m.Type)
	}
	switch r := Role(strings.ToLower(role)); r {
	case RoleSystem, RoleUser, RoleAssistant:
		role = string(r)
	default:
		role = string(RoleUser)
	}
	return Message{Role: role, Content: m.Content}
}

// NormalizeAll normalizes every message, preserving order.
func NormalizeAll(in []Message) []Message {
	out := make([]Message, 0, len(in))
	for _, m := range in {
		out = append(out, Normalize(m))
	}
	return out
}

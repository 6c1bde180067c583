package internal

import (
	"fmt"
	"time"
)

// Role is the authorization role carried by a session user
type Role string

const (
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// ParseRole validates a role name
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleManager, RoleEmployee:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q (expected manager or employee)", ErrInvalidRole, s)
	}
}

// MessageRole identifies who authored a message
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// User is the authenticated session record
type User struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	FullName        string `json:"fullName"`
	Email           string `json:"email,omitempty"`
	Role            Role   `json:"role"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// RegisteredUser is a locally recorded registration. It never becomes a session.
type RegisteredUser struct {
	ID              string `json:"id"`
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Role            Role   `json:"role"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// Dialog is a conversation thread owned by one user
type Dialog struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	UserID    string    `json:"userId" yaml:"user_id"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// Message is one immutable turn in a dialog
type Message struct {
	ID        string      `json:"id" yaml:"id"`
	DialogID  string      `json:"dialogId" yaml:"dialog_id"`
	Content   string      `json:"content" yaml:"content"`
	Role      MessageRole `json:"role" yaml:"role"`
	Timestamp time.Time   `json:"timestamp" yaml:"timestamp"`
}

// DialogWithMessages is a dialog merged with its ordered transcript
type DialogWithMessages struct {
	Dialog   `yaml:",inline"`
	Messages []Message `json:"messages" yaml:"messages"`
}

// DialogUpdate holds the mutable dialog fields; nil fields are left untouched.
type DialogUpdate struct {
	Title *string
}

// AddMessageResult reports the outcome of DialogStore.AddMessage
type AddMessageResult struct {
	CreatedNewDialog bool
	DialogID         string
	Message          *Message
}

const (
	maxTitleLength = 50
	titleEllipsis  = "..."
)

// DialogTitle derives a dialog title from the first user message.
func DialogTitle(initialMessage string) string {
	runes := []rune(initialMessage)
	if len(runes) <= maxTitleLength {
		return initialMessage
	}
	return string(runes[:maxTitleLength]) + titleEllipsis
}

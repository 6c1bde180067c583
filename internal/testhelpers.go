package internal

import (
	"sync"
	"time"
)

// CreateTestDialog creates a dialog with a user question and an assistant answer
func CreateTestDialog(id string) *DialogWithMessages {
	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	return &DialogWithMessages{
		Dialog: Dialog{
			ID:        id,
			Title:     "Test Conversation",
			UserID:    "user-1",
			CreatedAt: created,
			UpdatedAt: created.Add(time.Second),
		},
		Messages: []Message{
			{
				ID:        id + "-m1",
				DialogID:  id,
				Content:   "How many orders shipped today?",
				Role:      MessageRoleUser,
				Timestamp: created,
			},
			{
				ID:        id + "-m2",
				DialogID:  id,
				Content:   `{"count":42}`,
				Role:      MessageRoleAssistant,
				Timestamp: created.Add(time.Second),
			},
		},
	}
}

// CreateTestDialogWithMessages creates a dialog with custom messages
func CreateTestDialogWithMessages(id string, messages []Message) *DialogWithMessages {
	return &DialogWithMessages{
		Dialog: Dialog{
			ID:     id,
			Title:  "Test Conversation",
			UserID: "user-1",
		},
		Messages: messages,
	}
}

// NewTestClock returns a clock that starts at start and advances one
// millisecond per call, so consecutive timestamps are strictly increasing.
func NewTestClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Millisecond)
		return t
	}
}

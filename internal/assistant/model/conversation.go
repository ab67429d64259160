package model

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
)

type ConversationRepository interface {
	// AddMessage appends a message to the transcript of the given conversation
	AddMessage(ctx context.Context, conversationID string, message *schema.Message) error

	// LoadHistory retrieves the transcript for a conversation
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory removes the transcript for a conversation
	ClearHistory(ctx context.Context, conversationID string) error

	// GetMessageCount returns the number of messages in the transcript
	GetMessageCount(ctx context.Context, conversationID string) (int, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}

// Message Extra keys set on transcript entries.
const (
	ExtraFlow = "flow"
	ExtraStep = "step"
)

type TurnType string

const (
	TurnUser   TurnType = "user"
	TurnSystem TurnType = "system"
)

// ConversationTurn is one entry of the in-memory dialogue history.
type ConversationTurn struct {
	Type      TurnType  `json:"type"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Flow      FlowName  `json:"flow,omitempty"`
	Step      Step      `json:"step,omitempty"`
}

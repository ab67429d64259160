package session

import (
	"context"

	"github.com/cloudwego/eino/schema"
	"github.com/vaanisewa-core/server/internal/assistant/model"
	logx "github.com/vaanisewa-core/server/pkg/logger"
)

const defaultRecentTurns = 20

// Transcript mirrors a session's turns into a ConversationRepository as eino
// messages. Writes are best effort: a failed write is logged and the turn
// goes on. A nil repository turns every call into a no-op.
type Transcript struct {
	repo     model.ConversationRepository
	id       string
	maxTurns int
}

func NewTranscript(repo model.ConversationRepository, conversationID string, maxTurns int) *Transcript {
	if maxTurns <= 0 {
		maxTurns = defaultRecentTurns
	}
	return &Transcript{repo: repo, id: conversationID, maxTurns: maxTurns}
}

func (t *Transcript) RecordUser(ctx context.Context, content string, flow model.FlowName, step model.Step) {
	t.add(ctx, schema.UserMessage(content), flow, step)
}

func (t *Transcript) RecordAssistant(ctx context.Context, content string, flow model.FlowName, step model.Step) {
	t.add(ctx, schema.AssistantMessage(content, nil), flow, step)
}

// RecordEvent stores a non-spoken event such as a payment callback.
func (t *Transcript) RecordEvent(ctx context.Context, content string, flow model.FlowName, step model.Step) {
	t.add(ctx, schema.SystemMessage(content), flow, step)
}

func (t *Transcript) add(ctx context.Context, msg *schema.Message, flow model.FlowName, step model.Step) {
	if t.repo == nil || msg.Content == "" {
		return
	}
	msg.Extra = map[string]any{
		model.ExtraFlow: string(flow),
		model.ExtraStep: string(step),
	}
	if err := t.repo.AddMessage(ctx, t.id, msg); err != nil {
		logx.Warn().Err(err).Str("conversation_id", t.id).Str("role", string(msg.Role)).Msg("failed to mirror transcript message")
	}
}

// Recent returns the newest messages, oldest first.
func (t *Transcript) Recent(ctx context.Context) ([]*schema.Message, error) {
	if t.repo == nil {
		return nil, nil
	}
	history, err := t.repo.LoadHistory(ctx, t.id)
	if err != nil {
		return nil, err
	}
	return trimTail(history.Messages, t.maxTurns), nil
}

func (t *Transcript) Clear(ctx context.Context) error {
	if t.repo == nil {
		return nil
	}
	return t.repo.ClearHistory(ctx, t.id)
}

func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	source := messages
	if len(messages) > maxTurns {
		source = messages[len(messages)-maxTurns:]
	}
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}

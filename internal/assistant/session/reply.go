package session

import (
	"strings"

	"github.com/vaanisewa-core/server/internal/assistant/model"
)

// Reply is everything a host shows or speaks after one turn. Messages holds
// each spoken response in order; Text joins them.
type Reply struct {
	Text          string                `json:"text"`
	Messages      []string              `json:"messages"`
	Flow          model.FlowName        `json:"flow,omitempty"`
	Step          model.Step            `json:"step,omitempty"`
	Action        model.Action          `json:"action,omitempty"`
	Navigation    string                `json:"navigation,omitempty"`
	RequiresInput bool                  `json:"requires_input"`
	Completed     bool                  `json:"completed"`
	Error         string                `json:"error,omitempty"`
	User          *model.User           `json:"user,omitempty"`
	Payment       *model.PaymentRequest `json:"payment,omitempty"`
	Order         *model.OrderReceipt   `json:"order,omitempty"`
	Book          *model.Book           `json:"book,omitempty"`
}

type replyBuilder struct {
	reply Reply
}

func (b *replyBuilder) add(res model.FlowResult) {
	if res.Response != "" {
		b.reply.Messages = append(b.reply.Messages, res.Response)
	}
	if res.Action != model.ActionNone {
		b.reply.Action = res.Action
	}
	if res.Navigation != "" {
		b.reply.Navigation = res.Navigation
	}
	if res.Error != "" {
		b.reply.Error = res.Error
	}
	if res.Payment != nil {
		b.reply.Payment = res.Payment
	}
	if res.Order != nil {
		b.reply.Order = res.Order
	}
	if res.Book != nil {
		b.reply.Book = res.Book
	}
	b.reply.RequiresInput = res.RequiresInput
	b.reply.Completed = res.Completed
}

// build stamps the reply with where the conversation ended up.
func (b *replyBuilder) build(s *Session) Reply {
	r := b.reply
	r.Text = strings.Join(r.Messages, " ")
	r.Flow = s.manager.CurrentFlow()
	if st := s.manager.FlowState(); st != nil {
		r.Step = st.CurrentStep()
	}
	if s.user != nil {
		u := *s.user
		r.User = &u
	}
	return r
}

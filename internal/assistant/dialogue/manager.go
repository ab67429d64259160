// Package dialogue routes each user turn to the active conversational flow.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vaanisewa-core/server/internal/assistant/flows"
	"github.com/vaanisewa-core/server/internal/assistant/model"
	"github.com/vaanisewa-core/server/internal/assistant/parser"
	logx "github.com/vaanisewa-core/server/pkg/logger"
)

const (
	DefaultMaxHistory   = 100
	DefaultHistoryLimit = 10
	redacted            = "[redacted]"
)

var (
	ErrUnregisteredFlow = errors.New("flow not registered")
	ErrNotInCheckout    = errors.New("not in checkout flow")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrNotLoggedIn      = errors.New("user not logged in")
	ErrCannotRollback   = errors.New("cannot rollback further")
	ErrFlowPanic        = errors.New("flow panicked")
)

const (
	apologyMessage     = "Sorry, something went wrong. Please try again."
	unknownFlowMessage = "Something went wrong. Please say sign up, log in, or browse books."
	nothingToCancel    = "Nothing to cancel. Say sign up, log in, or browse books."
	guestPrompt        = "Please say: sign up, log in, or browse books to continue."
	memberPrompt       = "Say browse books, view cart, or view orders."
)

// Flow is one registered conversational task.
type Flow interface {
	InitialState() model.FlowState
	Handle(ctx context.Context, input string, state model.FlowState, tc model.TurnContext) (model.FlowResult, error)
}

// Manager holds the active flow and its state for a single conversation.
// It is not safe for concurrent use; the owner serializes turns.
type Manager struct {
	flows       map[model.FlowName]Flow
	current     model.FlowName
	state       model.FlowState
	history     []model.ConversationTurn
	maxHistory  int
	turnTimeout time.Duration
	now         func() time.Time
}

func New(cfg model.DialogueConfig) *Manager {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultMaxHistory
	}
	return &Manager{
		flows:       make(map[model.FlowName]Flow),
		maxHistory:  cfg.MaxHistory,
		turnTimeout: cfg.TurnTimeout,
		now:         time.Now,
	}
}

func (m *Manager) RegisterFlow(name model.FlowName, flow Flow) {
	m.flows[name] = flow
}

// StartFlow replaces the active flow with name. A nil seed starts from the
// flow's initial state; either way the step is reset to init.
func (m *Manager) StartFlow(name model.FlowName, seed model.FlowState) error {
	flow, ok := m.flows[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnregisteredFlow, name)
	}
	if seed == nil {
		seed = flow.InitialState()
	}
	if m.current != "" && m.current != name {
		logx.Debug().Str("from", string(m.current)).Str("to", string(name)).Msg("flow replaced")
	}
	m.current = name
	m.state = seed.WithStep(model.StepInit)
	logx.Debug().Str("flow", string(name)).Msg("flow started")
	return nil
}

// ResumeFlow makes name active with a previously captured state, keeping its step.
func (m *Manager) ResumeFlow(name model.FlowName, state model.FlowState) error {
	if _, ok := m.flows[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnregisteredFlow, name)
	}
	if state == nil {
		return fmt.Errorf("resume %s: nil state", name)
	}
	m.current = name
	m.state = state
	return nil
}

func (m *Manager) EndFlow() {
	if m.current != "" {
		logx.Debug().Str("flow", string(m.current)).Msg("flow ended")
	}
	m.current = ""
	m.state = nil
}

func (m *Manager) CurrentFlow() model.FlowName { return m.current }

func (m *Manager) FlowState() model.FlowState { return m.state }

func (m *Manager) InFlow() bool { return m.current != "" }

func (m *Manager) step() model.Step {
	if m.state == nil {
		return ""
	}
	return m.state.CurrentStep()
}

// ProcessInput runs one user turn. Cancel is checked before help, and help
// before the active flow. It never fails: flow errors and panics become a
// spoken apology.
func (m *Manager) ProcessInput(ctx context.Context, input string, tc model.TurnContext) model.FlowResult {
	m.Record(model.TurnUser, input)

	if parser.IsCancel(input) {
		return m.reply(m.cancel(tc))
	}
	if parser.IsHelp(input) {
		return m.reply(model.FlowResult{Response: m.help(), State: m.state, RequiresInput: true})
	}

	if !m.InFlow() {
		var name model.FlowName
		switch parser.ParseIntent(input).Intent {
		case model.IntentSignup:
			name = model.FlowSignup
		case model.IntentLogin:
			name = model.FlowLogin
		case model.IntentBrowse:
			name = model.FlowBrowse
		default:
			prompt := guestPrompt
			if tc.LoggedIn() {
				prompt = memberPrompt
			}
			return m.reply(model.FlowResult{Response: prompt, RequiresInput: true})
		}
		if err := m.StartFlow(name, nil); err != nil {
			logx.Error().Err(err).Msg("cannot start flow")
			return m.reply(m.unknownFlow())
		}
	}

	return m.reply(m.dispatch(ctx, input, tc))
}

// Continue advances the active flow without user input, for steps that
// announced work in progress.
func (m *Manager) Continue(ctx context.Context, tc model.TurnContext) (model.FlowResult, bool) {
	if !m.InFlow() {
		return model.FlowResult{}, false
	}
	return m.reply(m.dispatch(ctx, "", tc)), true
}

func (m *Manager) dispatch(ctx context.Context, input string, tc model.TurnContext) model.FlowResult {
	flow, ok := m.flows[m.current]
	if !ok {
		logx.Error().Str("flow", string(m.current)).Msg("active flow has no handler")
		return m.unknownFlow()
	}

	if m.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.turnTimeout)
		defer cancel()
	}

	res, err := invoke(ctx, flow, input, m.state, tc)
	if err != nil {
		logx.Error().Err(err).Str("flow", string(m.current)).Str("step", string(m.step())).Msg("flow turn failed")
		return model.FlowResult{Response: apologyMessage, Error: err.Error(), State: m.state}
	}

	if res.State != nil && !res.Completed {
		m.state = res.State
	}
	if res.Completed {
		m.EndFlow()
	}
	return res
}

func invoke(ctx context.Context, flow Flow, input string, state model.FlowState, tc model.TurnContext) (res model.FlowResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrFlowPanic, r)
		}
	}()
	return flow.Handle(ctx, input, state, tc)
}

func (m *Manager) cancel(tc model.TurnContext) model.FlowResult {
	if !m.InFlow() {
		return model.FlowResult{Response: nothingToCancel, RequiresInput: true}
	}
	name := m.current
	m.EndFlow()
	logx.Info().Str("flow", string(name)).Msg("flow cancelled")

	next := "Say sign up, log in, or browse books."
	if tc.LoggedIn() {
		next = "Say browse books, view cart, or view orders."
	}
	return model.FlowResult{
		Response:  fmt.Sprintf("%s cancelled. %s", name.Title(), next),
		Completed: true,
	}
}

func (m *Manager) unknownFlow() model.FlowResult {
	m.EndFlow()
	return model.FlowResult{Response: unknownFlowMessage, RequiresInput: true}
}

// reply records the response of a finished turn.
func (m *Manager) reply(res model.FlowResult) model.FlowResult {
	if res.Response != "" {
		m.Record(model.TurnSystem, res.Response)
	}
	return res
}

// Redact hides what the user says while a password is being collected.
func (m *Manager) Redact(input string) string {
	if m.step() == flows.StepCollectPassword && input != "" {
		return redacted
	}
	return input
}

// Record appends a turn to the history. User turns are redacted.
func (m *Manager) Record(kind model.TurnType, content string) {
	if kind == model.TurnUser {
		content = m.Redact(content)
	}
	m.history = append(m.history, model.ConversationTurn{
		Type:      kind,
		Content:   content,
		Timestamp: m.now().UTC(),
		Flow:      m.current,
		Step:      m.step(),
	})
	if len(m.history) > m.maxHistory {
		keep := max(1, m.maxHistory/2)
		m.history = append([]model.ConversationTurn(nil), m.history[len(m.history)-keep:]...)
	}
}

// History returns up to limit of the most recent turns, oldest first.
func (m *Manager) History(limit int) []model.ConversationTurn {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	start := max(len(m.history)-limit, 0)
	return append([]model.ConversationTurn(nil), m.history[start:]...)
}

func (m *Manager) ClearHistory() {
	m.history = nil
}

// StartCheckout begins the checkout flow for a non-empty cart and a signed-in user.
func (m *Manager) StartCheckout(items []model.CartItem, total float64, userID string) error {
	if len(items) == 0 {
		return ErrEmptyCart
	}
	if userID == "" {
		return ErrNotLoggedIn
	}
	return m.StartFlow(model.FlowCheckout, flows.CheckoutState{
		CartItems: items,
		Total:     total,
		UserID:    userID,
	})
}

func (m *Manager) checkoutState() (flows.CheckoutState, error) {
	if m.current != model.FlowCheckout {
		return flows.CheckoutState{}, ErrNotInCheckout
	}
	st, ok := m.state.(flows.CheckoutState)
	if !ok {
		return flows.CheckoutState{}, fmt.Errorf("%w: state %T", ErrNotInCheckout, m.state)
	}
	return st, nil
}

// HandlePaymentResponse feeds the payment widget's outcome into the active
// checkout. The next turn verifies or reports it.
func (m *Manager) HandlePaymentResponse(status model.PaymentStatus, data model.PaymentData) error {
	st, err := m.checkoutState()
	if err != nil {
		return err
	}
	next, err := flows.ApplyPayment(st, status, data)
	if err != nil {
		return err
	}
	m.state = next
	logx.Info().Str("status", string(status)).Str("orderID", next.OrderID).Msg("payment response received")
	return nil
}

// RollbackCheckout steps the checkout back once. When it cannot go further
// back the flow is ended.
func (m *Manager) RollbackCheckout() (model.Step, error) {
	st, err := m.checkoutState()
	if err != nil {
		return "", err
	}
	prev, ok := flows.RollbackCheckout(st)
	if !ok {
		m.EndFlow()
		return "", ErrCannotRollback
	}
	m.state = prev
	return prev.Step, nil
}

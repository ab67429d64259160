// Package session hosts one voice conversation: it owns the dialogue manager,
// applies the actions flows ask for and mirrors the transcript to Redis.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/vaanisewa-core/server/internal/assistant/dialogue"
	"github.com/vaanisewa-core/server/internal/assistant/flows"
	"github.com/vaanisewa-core/server/internal/assistant/model"
	"github.com/vaanisewa-core/server/internal/assistant/navigation"
)

const defaultMaxAutoSteps = 4

type Deps struct {
	Catalog model.CatalogService
	Cart    model.CartStore
	Auth    model.AuthService
	Orders  model.OrderService

	// Transcripts is optional; without it nothing is mirrored.
	Transcripts model.ConversationRepository
}

type Config struct {
	Dialogue model.DialogueConfig
	PerPage  int
	Payment  model.PaymentConfig
	Links    navigation.Links
}

type Session struct {
	ID string

	mu           sync.Mutex
	manager      *dialogue.Manager
	cart         model.CartStore
	orders       model.OrderService
	links        navigation.Links
	transcript   *Transcript
	user         *model.User
	pending      *model.PaymentRequest
	maxAutoSteps int

	pipeline compose.Runnable[TurnInput, Reply]
	observer callbacks.Handler
}

func New(ctx context.Context, deps Deps, cfg Config) (*Session, error) {
	if deps.Catalog == nil || deps.Cart == nil || deps.Auth == nil || deps.Orders == nil {
		return nil, fmt.Errorf("session: missing collaborator")
	}
	if cfg.Dialogue.MaxAutoSteps <= 0 {
		cfg.Dialogue.MaxAutoSteps = defaultMaxAutoSteps
	}

	id := uuid.NewString()
	m := dialogue.New(cfg.Dialogue)
	m.RegisterFlow(model.FlowSignup, flows.NewSignupFlow(deps.Auth))
	m.RegisterFlow(model.FlowLogin, flows.NewLoginFlow(deps.Auth))
	m.RegisterFlow(model.FlowBrowse, flows.NewBrowseFlow(deps.Catalog, cfg.PerPage, cfg.Links))
	m.RegisterFlow(model.FlowDetails, flows.NewDetailsFlow(deps.Cart, cfg.Links))
	m.RegisterFlow(model.FlowCart, flows.NewCartFlow(deps.Cart, cfg.Links))
	m.RegisterFlow(model.FlowCheckout, flows.NewCheckoutFlow(deps.Cart, deps.Orders, cfg.Links, flows.CheckoutOptions{
		MaxRetries: cfg.Payment.MaxRetries,
		KeyID:      cfg.Payment.KeyID,
		Currency:   cfg.Payment.Currency,
	}))

	s := &Session{
		ID:           id,
		manager:      m,
		cart:         deps.Cart,
		orders:       deps.Orders,
		links:        cfg.Links,
		transcript:   NewTranscript(deps.Transcripts, id, cfg.Dialogue.MaxHistory),
		maxAutoSteps: cfg.Dialogue.MaxAutoSteps,
		observer:     newTurnObserver(id),
	}

	pipeline, err := buildPipeline(ctx, s)
	if err != nil {
		return nil, err
	}
	s.pipeline = pipeline
	return s, nil
}

// Handle runs one spoken turn.
func (s *Session) Handle(ctx context.Context, transcript string) (Reply, error) {
	return s.run(ctx, TurnInput{Kind: KindTranscript, Transcript: transcript})
}

// PaymentCallback delivers the payment widget's outcome. A successful
// payment is verified in the same call.
func (s *Session) PaymentCallback(ctx context.Context, status model.PaymentStatus, data model.PaymentData) (Reply, error) {
	return s.run(ctx, TurnInput{Kind: KindPayment, Payment: &PaymentEvent{Status: status, Data: data}})
}

func (s *Session) run(ctx context.Context, in TurnInput) (Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.Invoke(ctx, in, compose.WithCallbacks(s.observer))
}

// Welcome greets the user at the start of the conversation.
func (s *Session) Welcome(ctx context.Context) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	text := "Welcome to Vaani Sewa. Say sign up to create an account, log in to access your account, or browse books to see available titles."
	if s.user != nil {
		text = fmt.Sprintf("Welcome back, %s. Say browse books to see available titles, or help for more options.", s.user.FullName)
	}
	s.manager.Record(model.TurnSystem, text)
	s.transcript.RecordAssistant(ctx, text, "", "")
	return Reply{Text: text, Messages: []string{text}, RequiresInput: true, Navigation: s.links.Store()}
}

func (s *Session) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// PendingPayment is the payment request opened by the checkout, if any.
func (s *Session) PendingPayment() *model.PaymentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	p := *s.pending
	return &p
}

func (s *Session) History(limit int) []model.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.History(limit)
}

func (s *Session) CurrentFlow() model.FlowName {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.CurrentFlow()
}

// Transcript returns the mirrored transcript.
func (s *Session) Transcript() *Transcript {
	return s.transcript
}

// Close drops the mirrored transcript.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manager.EndFlow()
	s.manager.ClearHistory()
	return s.transcript.Clear(ctx)
}

func (s *Session) turnContext() model.TurnContext {
	return model.TurnContext{User: s.user}
}

package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaanisewa-core/server/internal/assistant/catalog"
	"github.com/vaanisewa-core/server/internal/assistant/flows"
	"github.com/vaanisewa-core/server/internal/assistant/model"
	"github.com/vaanisewa-core/server/internal/assistant/navigation"
	"github.com/vaanisewa-core/server/internal/assistant/payments"
	"github.com/vaanisewa-core/server/internal/assistant/repo"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	mr          *miniredis.Miniredis
	cart        *repo.RedisCartStore
	users       *repo.RedisUserStore
	gateway     *payments.Gateway
	transcripts *repo.RedisConversationRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return &fixture{
		mr:          mr,
		cart:        repo.NewRedisCartStore(rdb),
		users:       repo.NewRedisUserStore(rdb, bcrypt.MinCost),
		gateway:     payments.NewGateway(repo.NewRedisOrderStore(rdb, time.Hour), model.PaymentConfig{KeyID: "key_test", KeySecret: "secret"}),
		transcripts: repo.NewRedisConversationRepository(rdb, time.Hour, 200),
	}
}

func (fx *fixture) session(t *testing.T) *Session {
	t.Helper()
	s, err := New(context.Background(), Deps{
		Catalog:     catalog.New(catalog.DefaultBooks),
		Cart:        fx.cart,
		Auth:        fx.users,
		Orders:      fx.gateway,
		Transcripts: fx.transcripts,
	}, Config{
		PerPage: 5,
		Payment: model.PaymentConfig{KeyID: "key_test", MaxRetries: 3},
		Links:   navigation.New("https://shop.test/"),
	})
	require.NoError(t, err)
	return s
}

// talk runs the inputs in order and returns the last reply.
func talk(t *testing.T, s *Session, inputs ...string) Reply {
	t.Helper()
	var r Reply
	for _, in := range inputs {
		var err error
		r, err = s.Handle(context.Background(), in)
		require.NoError(t, err)
	}
	return r
}

func signIn(s *Session) {
	s.user = &model.User{ID: "u1", FullName: "Asha Rao", Email: "asha@example.com"}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(context.Background(), Deps{}, Config{})
	assert.Error(t, err)
}

func TestWelcome(t *testing.T) {
	fx := newFixture(t)
	s := fx.session(t)

	r := s.Welcome(context.Background())
	assert.Equal(t, "Welcome to Vaani Sewa. Say sign up to create an account, log in to access your account, or browse books to see available titles.", r.Text)
	assert.True(t, r.RequiresInput)

	signIn(s)
	r = s.Welcome(context.Background())
	assert.Equal(t, "Welcome back, Asha Rao. Say browse books to see available titles, or help for more options.", r.Text)
}

func TestCheckoutShortcutWithEmptyCart(t *testing.T) {
	fx := newFixture(t)
	s := fx.session(t)
	signIn(s)

	r := talk(t, s, "checkout")
	assert.Equal(t, "Your cart is empty. Say browse books and add items to your cart before checkout.", r.Text)
	assert.Empty(t, r.Flow)
	assert.Empty(t, s.CurrentFlow())
}

func TestCheckoutShortcutChecksCartBeforeLogin(t *testing.T) {
	fx := newFixture(t)
	s := fx.session(t)

	r := talk(t, s, "checkout")
	assert.Equal(t, emptyCartCheckout, r.Text)

	require.NoError(t, fx.cart.AddItem(context.Background(), model.GuestCartOwner, catalog.DefaultBooks[0], 1))
	r = talk(t, s, "checkout")
	assert.Equal(t, "Please log in to checkout. Say log in to continue.", r.Text)
	assert.Empty(t, s.CurrentFlow())
}

func TestBrowseDetailsAddToCart(t *testing.T) {
	fx := newFixture(t)
	s := fx.session(t)

	r := talk(t, s, "browse books")
	assert.Equal(t, model.FlowBrowse, r.Flow)
	assert.Equal(t, flows.StepBrowsing, r.Step)

	talk(t, s, "next")
	r = talk(t, s, "item 1")
	assert.Equal(t, model.FlowDetails, r.Flow)
	assert.Equal(t, "https://shop.test/book/6", r.Navigation)

	r = talk(t, s, "add to cart")
	assert.Equal(t, model.ActionItemAdded, r.Action)
	require.NotNil(t, r.Book)
	assert.Equal(t, "Malgudi Days", r.Book.Name)

	sum, err := fx.cart.Summary(context.Background(), model.GuestCartOwner)
	require.NoError(t, err)
	require.Len(t, sum.Items, 1)
	assert.Equal(t, "6", sum.Items[0].ID)
	assert.Equal(t, 1, sum.Items[0].Quantity)
}

func TestBackReturnsToTheSamePage(t *testing.T) {
	fx := newFixture(t)
	s := fx.session(t)

	talk(t, s, "browse books", "next", "item 2")
	r := talk(t, s, "back")

	assert.Equal(t, model.FlowBrowse, r.Flow)
	assert.Equal(t, flows.StepBrowsing, r.Step)
	require.Len(t, r.Messages, 2)
	assert.Equal(t, "Returning to book list.", r.Messages[0])

	st, ok := s.manager.FlowState().(flows.BrowseState)
	require.True(t, ok)
	assert.Equal(t, 2, st.CurrentPage)
}

func TestChooseQuantityHandsOffToCart(t *testing.T) {
	fx := newFixture(t)
	s := fx.session(t)

	talk(t, s, "browse books", "item 1")
	r := talk(t, s, "buy several copies")
	assert.Equal(t, model.FlowCart, r.Flow)
	assert.Equal(t, flows.StepCollectQuantity, r.Step)
	assert.Equal(t, "Adding Godaan to cart. How many copies? Say a number from 1 to 10.", r.Messages[len(r.Messages)-1])

	talk(t, s, "three", "yes")
	sum, err := fx.cart.Summary(context.Background(), model.GuestCartOwner)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.ItemCount)
}

func TestViewCartShortcutFromBrowse(t *testing.T) {
	fx := newFixture(t)
	s := fx.session(t)
	require.NoError(t, fx.cart.AddItem(context.Background(), model.GuestCartOwner, catalog.DefaultBooks[0], 2))

	talk(t, s, "browse books")
	r := talk(t, s, "view cart")
	assert.Equal(t, model.FlowCart, r.Flow)
	assert.Equal(t, flows.StepViewingCart, r.Step)
	assert.Equal(t, "https://shop.test/cart", r.Navigation)

	// the interrupted browse state is not carried into the cart
	_, browsing := s.manager.FlowState().(flows.BrowseState)
	assert.False(t, browsing)
}

func TestCancelEndsBrowsing(t *testing.T) {
	fx := newFixture(t)
	s := fx.session(t)

	talk(t, s, "browse books")
	r := talk(t, s, "cancel")
	assert.Equal(t, "Browsing cancelled. Say sign up, log in, or browse books.", r.Text)
	assert.True(t, r.Completed)
	assert.Empty(t, s.CurrentFlow())
}

func TestLoginAndLogout(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.users.Signup(context.Background(), "Asha Rao", "asha@example.com", "secret123")
	require.NoError(t, err)
	s := fx.session(t)

	r := talk(t, s, "log in", "asha at example dot com", "correct", "secret123", "correct")
	require.NotNil(t, r.User)
	assert.Equal(t, "asha@example.com", r.User.Email)
	assert.Equal(t, []string{
		"Logging in with asha@example.com. Please wait.",
		"Login successful! Welcome back, Asha Rao. Say browse books to continue.",
	}, r.Messages)
	assert.Empty(t, r.Flow)

	r = talk(t, s, "log out")
	assert.Equal(t, "Goodbye, Asha Rao. You have been logged out.", r.Text)
	assert.Nil(t, r.User)
	assert.Nil(t, s.User())
}

func TestTranscriptIsMirroredAndRedacted(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.users.Signup(context.Background(), "Asha Rao", "asha@example.com", "secret123")
	require.NoError(t, err)
	s := fx.session(t)

	talk(t, s, "log in", "asha at example dot com", "correct", "secret123")

	h, err := fx.transcripts.LoadHistory(context.Background(), s.ID)
	require.NoError(t, err)
	require.Len(t, h.Messages, 8)

	var redacted *schema.Message
	for _, m := range h.Messages {
		assert.NotContains(t, m.Content, "secret123")
		if m.Role == schema.User && m.Extra[model.ExtraStep] == string(flows.StepCollectPassword) {
			redacted = m
		}
	}
	require.NotNil(t, redacted)
	assert.Equal(t, "[redacted]", redacted.Content)
	assert.Equal(t, string(model.FlowLogin), redacted.Extra[model.ExtraFlow])

	for _, turn := range s.History(20) {
		assert.NotContains(t, turn.Content, "secret123")
	}

	recent, err := s.Transcript().Recent(context.Background())
	require.NoError(t, err)
	assert.Len(t, recent, 8)

	require.NoError(t, s.Close(context.Background()))
	n, err := fx.transcripts.GetMessageCount(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// readyToPay takes a signed-in session with a seeded cart to the payment window.
func readyToPay(t *testing.T, fx *fixture, s *Session) Reply {
	t.Helper()
	signIn(s)
	require.NoError(t, fx.cart.AddItem(context.Background(), "u1", catalog.DefaultBooks[0], 2))

	r := talk(t, s, "checkout")
	require.Equal(t, model.FlowCheckout, r.Flow)
	require.Equal(t, flows.StepReviewOrder, r.Step)

	r = talk(t, s, "yes", "confirm", "12 MG Road, Bengaluru", "correct")
	require.Equal(t, flows.StepAwaitPayment, r.Step)
	require.Equal(t, model.ActionOpenPayment, r.Action)
	require.NotNil(t, r.Payment)
	return r
}

func TestCheckoutPaymentCallback(t *testing.T) {
	fx := newFixture(t)
	s := fx.session(t)

	r := readyToPay(t, fx, s)
	assert.Equal(t, int64(70000), r.Payment.Amount)
	assert.Equal(t, "https://shop.test/payment", r.Navigation)
	require.NotNil(t, s.PendingPayment())
	assert.Equal(t, r.Payment.OrderID, s.PendingPayment().OrderID)

	r, err := s.PaymentCallback(context.Background(), model.PaymentSuccess, fx.gateway.Complete(r.Payment.OrderID))
	require.NoError(t, err)
	assert.Equal(t, "Payment received. Verifying now.", r.Messages[0])
	assert.Equal(t, model.ActionPaymentSuccess, r.Action)
	require.NotNil(t, r.Order)
	assert.Empty(t, r.Flow)
	assert.Nil(t, s.PendingPayment())

	sum, err := fx.cart.Summary(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, sum.ItemCount)

	r = talk(t, s, "view orders")
	assert.Equal(t, "You have 1 order. Order 1: Godaan for 700 rupees. Say browse books to continue shopping.", r.Text)
	assert.Equal(t, "https://shop.test/orders", r.Navigation)
}

func TestPaymentCancelledThenRetry(t *testing.T) {
	fx := newFixture(t)
	s := fx.session(t)
	first := readyToPay(t, fx, s)

	r, err := s.PaymentCallback(context.Background(), model.PaymentCancelled, model.PaymentData{})
	require.NoError(t, err)
	assert.Equal(t, "Payment window closed. Say retry to try again, or view cart to modify your order.", r.Text)
	assert.Equal(t, flows.StepError, r.Step)

	r = talk(t, s, "retry")
	assert.Equal(t, model.ActionOpenPayment, r.Action)
	require.NotNil(t, r.Payment)
	assert.NotEqual(t, first.Payment.OrderID, r.Payment.OrderID)
	assert.Equal(t, flows.StepAwaitPayment, r.Step)
}

func TestStepBackThroughCheckout(t *testing.T) {
	fx := newFixture(t)
	s := fx.session(t)
	readyToPay(t, fx, s)
	require.NotNil(t, s.PendingPayment())

	r := talk(t, s, "previous step")
	assert.Equal(t, flows.StepConfirmTotal, r.Step)
	assert.Equal(t, []string{
		"Going back one step.",
		"Please say confirm to proceed with payment, or cancel to go back.",
	}, r.Messages)
	assert.Nil(t, s.PendingPayment())

	r = talk(t, s, "step back")
	assert.Equal(t, flows.StepReviewOrder, r.Step)
	assert.Equal(t, "Please say yes to confirm order, or no to modify.", r.Messages[1])

	r = talk(t, s, "step back")
	assert.Equal(t, checkoutUnwound, r.Text)
	assert.True(t, r.Completed)
	assert.Empty(t, s.CurrentFlow())

	sum, err := fx.cart.Summary(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.ItemCount)
}

func TestStepBackOutsideCheckoutIsOrdinaryInput(t *testing.T) {
	fx := newFixture(t)
	s := fx.session(t)

	talk(t, s, "browse books")
	r := talk(t, s, "step back")
	assert.Equal(t, model.FlowBrowse, r.Flow)
	assert.NotContains(t, r.Text, steppingBack)
}

func TestPaymentCallbackWithoutCheckout(t *testing.T) {
	fx := newFixture(t)
	s := fx.session(t)

	r, err := s.PaymentCallback(context.Background(), model.PaymentSuccess, model.PaymentData{OrderID: "order_x"})
	require.NoError(t, err)
	assert.Equal(t, "There is no payment in progress. Say view cart to start checkout.", r.Text)
	assert.NotEmpty(t, r.Error)
}

func TestViewOrdersRequiresLogin(t *testing.T) {
	fx := newFixture(t)
	s := fx.session(t)

	r := talk(t, s, "view orders")
	assert.Equal(t, "Please log in to view your orders. Say log in to continue.", r.Text)

	signIn(s)
	r = talk(t, s, "show my orders")
	assert.Equal(t, "You have no orders yet. Say browse books to start shopping.", r.Text)
}

func TestHostTurnsAreInHistory(t *testing.T) {
	fx := newFixture(t)
	s := fx.session(t)

	talk(t, s, "view orders")
	h := s.History(10)
	require.Len(t, h, 2)
	assert.Equal(t, model.TurnUser, h[0].Type)
	assert.Equal(t, "view orders", h[0].Content)
	assert.Equal(t, model.TurnSystem, h[1].Type)
	assert.True(t, strings.HasPrefix(h[1].Content, "Please log in"))
}

func TestTrimTail(t *testing.T) {
	msgs := []*schema.Message{schema.UserMessage("a"), schema.UserMessage("b"), schema.UserMessage("c")}
	assert.Len(t, trimTail(msgs, 5), 3)

	got := trimTail(msgs, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Content)
}

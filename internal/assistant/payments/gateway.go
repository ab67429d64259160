// Package payments is a local stand-in for a hosted payment gateway. Orders
// are created in Redis and payments are verified with an HMAC-SHA256
// signature over "orderID|paymentID", the scheme hosted gateways use.
package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vaanisewa-core/server/internal/assistant/model"
	errx "github.com/vaanisewa-core/server/internal/core/error"
	logx "github.com/vaanisewa-core/server/pkg/logger"
)

type OrderStore interface {
	SavePending(ctx context.Context, order model.Order) error
	Pending(ctx context.Context, orderID string) (model.Order, error)
	Record(ctx context.Context, rec model.OrderRecord) error
	List(ctx context.Context, userID string) ([]model.OrderRecord, error)
}

type Gateway struct {
	store OrderStore
	cfg   model.PaymentConfig
	now   func() time.Time
}

var _ model.OrderService = (*Gateway)(nil)

func NewGateway(store OrderStore, cfg model.PaymentConfig) *Gateway {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &Gateway{store: store, cfg: cfg, now: time.Now}
}

// CreateOrder registers a pending order for amount rupees. The stored amount
// is in paise.
func (g *Gateway) CreateOrder(ctx context.Context, amount float64, userID string) (model.Order, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return model.Order{}, errx.Validation(errors.New("non-positive amount"), "Invalid amount")
	}

	id := shortID()
	order := model.Order{
		ID:        "order_" + id,
		Amount:    int64(math.Round(amount)) * 100,
		Currency:  g.cfg.Currency,
		Receipt:   "receipt_" + id,
		UserID:    userID,
		CreatedAt: g.now().UTC(),
	}
	if err := g.store.SavePending(ctx, order); err != nil {
		return model.Order{}, err
	}

	logx.Info().Str("orderID", order.ID).Int64("amount", order.Amount).Str("userID", userID).Msg("order created")
	return order, nil
}

// Sign computes the signature a successful payment carries.
func (g *Gateway) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(g.cfg.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Complete plays the payment widget: it pays orderID and returns what the
// widget hands back on success.
func (g *Gateway) Complete(orderID string) model.PaymentData {
	paymentID := "pay_" + shortID()
	return model.PaymentData{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: g.Sign(orderID, paymentID),
	}
}

func (g *Gateway) VerifyPayment(ctx context.Context, req model.VerifyRequest) (model.OrderRecord, error) {
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return model.OrderRecord{}, errx.Validation(errors.New("missing verification parameters"), "Missing payment verification parameters")
	}

	order, err := g.store.Pending(ctx, req.OrderID)
	if err != nil {
		return model.OrderRecord{}, err
	}
	if order.UserID != "" && req.UserID != "" && order.UserID != req.UserID {
		return model.OrderRecord{}, errx.Unauthorized(errors.New("order owner mismatch"), "Payment verification failed")
	}

	expected := g.Sign(req.OrderID, req.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(req.Signature)) {
		logx.Warn().Str("orderID", req.OrderID).Msg("payment signature mismatch")
		return model.OrderRecord{}, errx.Validation(model.ErrInvalidSignature, "Invalid signature")
	}

	rec := model.OrderRecord{
		OrderID:            req.OrderID,
		PaymentID:          req.PaymentID,
		UserID:             firstNonEmpty(req.UserID, order.UserID),
		BookNames:          firstNonEmpty(req.BookNames, "Multiple items"),
		TransactionDetails: firstNonEmpty(req.TransactionDetails, "Voice order"),
		DeliveryAddress:    firstNonEmpty(req.DeliveryAddress, "Address pending"),
		Amount:             order.Amount,
		Currency:           order.Currency,
		PaidAt:             g.now().UTC(),
	}
	if err := g.store.Record(ctx, rec); err != nil {
		return model.OrderRecord{}, err
	}

	logx.Info().Str("orderID", rec.OrderID).Str("paymentID", rec.PaymentID).Msg("payment verified")
	return rec, nil
}

func (g *Gateway) ListOrders(ctx context.Context, userID string) ([]model.OrderRecord, error) {
	if userID == "" {
		return nil, errx.Validation(errors.New("missing user id"), "User ID is required")
	}
	return g.store.List(ctx, userID)
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package model

import (
	"context"
	"time"
)

type PaymentStatus string

const (
	PaymentSuccess   PaymentStatus = "success"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Order is a pending order created with the payment gateway. Amount is in minor units.
type Order struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Receipt   string    `json:"receipt"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentRequest is what the payment widget needs to open.
type PaymentRequest struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
}

// PaymentData is returned by the payment widget on success.
type PaymentData struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

type VerifyRequest struct {
	OrderID            string
	PaymentID          string
	Signature          string
	UserID             string
	BookNames          string
	TransactionDetails string
	DeliveryAddress    string
}

// OrderRecord is a verified, paid order.
type OrderRecord struct {
	OrderID            string    `json:"order_id"`
	PaymentID          string    `json:"payment_id"`
	UserID             string    `json:"user_id"`
	BookNames          string    `json:"book_names"`
	TransactionDetails string    `json:"transaction_details"`
	DeliveryAddress    string    `json:"delivery_address"`
	Amount             int64     `json:"amount"`
	Currency           string    `json:"currency"`
	PaidAt             time.Time `json:"paid_at"`
}

// OrderReceipt is handed to the host after a successful payment.
type OrderReceipt struct {
	OrderID         string     `json:"order_id"`
	PaymentID       string     `json:"payment_id"`
	Items           []CartItem `json:"items"`
	Total           float64    `json:"total"`
	DeliveryAddress string     `json:"delivery_address"`
}

type OrderService interface {
	CreateOrder(ctx context.Context, amount float64, userID string) (Order, error)
	VerifyPayment(ctx context.Context, req VerifyRequest) (OrderRecord, error)
	ListOrders(ctx context.Context, userID string) ([]OrderRecord, error)
}

// AngelaMos | 2026
// gateway.go

package gateway

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
)

const (
	ModeLive = "live"
	ModeMock = "mock"
)

// Gateway creates hosted-checkout sessions and authenticates the
// processor's asynchronous notifications.
type Gateway interface {
	CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error)
	VerifySignature(n *Notification) bool
	Status(ctx context.Context, orderID string) (*TransactionStatus, error)
	Mode() string
}

type TransactionRequest struct {
	OrderID       string
	Amount        int64
	ProductID     string
	ProductName   string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

type Transaction struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type TransactionStatus struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status,omitempty"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type,omitempty"`
}

// Notification is the webhook payload posted by the processor.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
	TransactionTime   string `json:"transaction_time,omitempty"`
}

// Outcome classifies a notification into the order transition it asks for.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeIgnore  Outcome = "ignore"
)

func (n *Notification) Outcome() Outcome {
	switch n.TransactionStatus {
	case "settlement", "capture":
		if n.FraudStatus == "" || n.FraudStatus == "accept" {
			return OutcomeSuccess
		}
		return OutcomeIgnore
	case "expire", "cancel":
		return OutcomeFailure
	default:
		return OutcomeIgnore
	}
}

// Sign returns the hex SHA-512 of order_id + status_code + gross_amount +
// server key, the digest the processor places in signature_key.
func Sign(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func VerifySignature(n *Notification, serverKey string) bool {
	if n == nil || n.SignatureKey == "" {
		return false
	}
	expected := Sign(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) == 1
}

// FormatAmount renders an integer amount the way the processor echoes
// gross_amount back in notifications.
func FormatAmount(amount int64) string {
	return strconv.FormatInt(amount, 10) + ".00"
}

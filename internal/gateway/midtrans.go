// AngelaMos | 2026
// midtrans.go

package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/carterperez-dev/ea-marketplace/internal/config"
	"github.com/carterperez-dev/ea-marketplace/internal/core"
)

const customField = "mql5-marketplace"

var enabledPayments = []snap.SnapPaymentType{
	"credit_card",
	"bca_va",
	"bni_va",
	"bri_va",
	"permata_va",
	"other_va",
	"gopay",
	"shopeepay",
}

type Midtrans struct {
	snap        snap.Client
	core        coreapi.Client
	serverKey   string
	frontendURL string
	pageExpiry  time.Duration
}

func NewMidtrans(cfg config.PaymentConfig) *Midtrans {
	env := midtrans.Sandbox
	if cfg.Production {
		env = midtrans.Production
	}

	m := &Midtrans{
		serverKey:   cfg.ServerKey,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		pageExpiry:  cfg.PageExpiry,
	}
	m.snap.New(cfg.ServerKey, env)
	m.core.New(cfg.ServerKey, env)

	return m
}

func (m *Midtrans) Mode() string {
	return ModeLive
}

func (m *Midtrans) CreateTransaction(
	_ context.Context,
	req TransactionRequest,
) (*Transaction, error) {
	resp, merr := m.snap.CreateTransaction(m.snapRequest(req))
	if merr != nil {
		return nil, fmt.Errorf("create snap transaction: %w: %s", core.ErrGateway, merr.GetMessage())
	}

	return &Transaction{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

func (m *Midtrans) snapRequest(req TransactionRequest) *snap.Request {
	items := []midtrans.ItemDetails{{
		ID:    req.ProductID,
		Name:  truncate(req.ProductName, 50),
		Price: req.Amount,
		Qty:   1,
	}}

	minutes := int64(m.pageExpiry / time.Minute)
	if minutes <= 0 {
		minutes = 60
	}

	return &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.Amount,
		},
		CreditCard: &snap.CreditCardDetails{Secure: true},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		},
		Items:           &items,
		EnabledPayments: enabledPayments,
		Callbacks: &snap.Callbacks{
			Finish: m.frontendURL + "/payment/success",
		},
		Expiry: &snap.ExpiryDetails{
			Unit:     "minute",
			Duration: minutes,
		},
		CustomField1: customField,
	}
}

func (m *Midtrans) VerifySignature(n *Notification) bool {
	return VerifySignature(n, m.serverKey)
}

func (m *Midtrans) Status(_ context.Context, orderID string) (*TransactionStatus, error) {
	resp, merr := m.core.CheckTransaction(orderID)
	if merr != nil {
		if merr.StatusCode == 404 {
			return nil, fmt.Errorf("check transaction: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("check transaction: %w: %s", core.ErrGateway, merr.GetMessage())
	}

	return &TransactionStatus{
		OrderID:           resp.OrderID,
		TransactionID:     resp.TransactionID,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
		StatusCode:        resp.StatusCode,
		GrossAmount:       resp.GrossAmount,
		PaymentType:       resp.PaymentType,
	}, nil
}

// truncate keeps item names inside the processor's 50 character limit.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

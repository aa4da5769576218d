// AngelaMos | 2026
// mock.go

package gateway

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Mock fabricates checkout sessions locally so the order flow can run
// without processor credentials. Its notifications are signed with the
// configured server key, so the webhook path is exercised unchanged.
type Mock struct {
	serverKey   string
	frontendURL string
	now         func() time.Time
}

func NewMock(serverKey, frontendURL string) *Mock {
	return &Mock{
		serverKey:   serverKey,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

func (m *Mock) Mode() string {
	return ModeMock
}

func (m *Mock) CreateTransaction(
	_ context.Context,
	req TransactionRequest,
) (*Transaction, error) {
	suffix, err := randomBase36(9)
	if err != nil {
		return nil, fmt.Errorf("mock token: %w", err)
	}

	token := "mock_token_" + strconv.FormatInt(m.now().UnixMilli(), 10) + "_" + suffix

	q := url.Values{}
	q.Set("token", token)
	q.Set("order_id", req.OrderID)

	return &Transaction{
		Token:       token,
		RedirectURL: m.frontendURL + "/payment/mock?" + q.Encode(),
	}, nil
}

func (m *Mock) VerifySignature(n *Notification) bool {
	return VerifySignature(n, m.serverKey)
}

func (m *Mock) Status(_ context.Context, orderID string) (*TransactionStatus, error) {
	return &TransactionStatus{
		OrderID:           orderID,
		TransactionID:     "mock_" + orderID,
		TransactionStatus: "settlement",
		FraudStatus:       "accept",
		StatusCode:        "200",
		PaymentType:       "mock",
	}, nil
}

// Notify builds a signed notification for a mock payment outcome.
func (m *Mock) Notify(orderID string, amount int64, transactionStatus string) *Notification {
	statusCode := "200"
	if transactionStatus == "expire" || transactionStatus == "cancel" {
		statusCode = "202"
	}

	gross := FormatAmount(amount)
	n := &Notification{
		OrderID:           orderID,
		StatusCode:        statusCode,
		GrossAmount:       gross,
		TransactionStatus: transactionStatus,
		TransactionID:     "mock_" + orderID,
		PaymentType:       "mock",
		TransactionTime:   m.now().UTC().Format(time.DateTime),
	}
	if transactionStatus == "settlement" || transactionStatus == "capture" {
		n.FraudStatus = "accept"
	}
	n.SignatureKey = Sign(orderID, statusCode, gross, m.serverKey)

	return n
}

func randomBase36(n int) (string, error) {
	var b strings.Builder
	max := big.NewInt(36)
	for range n {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteString(strconv.FormatInt(v.Int64(), 36))
	}
	return b.String(), nil
}

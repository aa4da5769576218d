// AngelaMos | 2026
// service_test.go

package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
	"github.com/carterperez-dev/ea-marketplace/internal/events"
	"github.com/carterperez-dev/ea-marketplace/internal/gateway"
	"github.com/carterperez-dev/ea-marketplace/internal/order"
)

func TestCreateTransactionOpensPendingOrder(t *testing.T) {
	h := newHarness()

	res, err := h.svc.CreateTransaction(context.Background(), CreateTransactionInput{
		ProductID:     "ea-scalping-master-001",
		CustomerEmail: "Buyer@Example.com",
		CustomerName:  "Budi",
	})
	require.NoError(t, err)

	assert.True(t, order.IsValidID(res.OrderID))
	assert.True(t, strings.HasPrefix(res.TransactionToken, "mock_token_"))
	assert.NotEmpty(t, res.RedirectURL)

	o, err := h.svc.Status(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, buyerEmail, o.UserID)
	assert.Equal(t, int64(99000), o.Amount)
	assert.Empty(t, o.LicenseKey)

	require.Len(t, h.notifier.adminOrders, 1)
	assert.Equal(t, res.OrderID, h.notifier.adminOrders[0].OrderID)
	assert.Equal(t, []string{events.OrderCreated}, h.publisher.types())
}

func TestCreateTransactionValidation(t *testing.T) {
	h := newHarness()

	_, err := h.svc.CreateTransaction(context.Background(), CreateTransactionInput{
		ProductID:    "ea-scalping-master-001",
		CustomerName: "Budi",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestCreateTransactionUnknownOrInactiveProduct(t *testing.T) {
	h := newHarness()

	for _, id := range []string{"does-not-exist", "ea-draft-999"} {
		_, err := h.svc.CreateTransaction(context.Background(), CreateTransactionInput{
			ProductID:     id,
			CustomerEmail: buyerEmail,
			CustomerName:  "Budi",
		})
		require.Error(t, err)

		var appErr *core.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "Product not found", appErr.Message)
	}

	all, _ := h.orders.List(context.Background())
	assert.Empty(t, all)
}

func TestCreateTransactionGatewayFailureLeavesPending(t *testing.T) {
	h := newHarness()
	h.svc.gateway = failingGateway{h.gw}

	_, err := h.svc.CreateTransaction(context.Background(), CreateTransactionInput{
		ProductID:     "ea-scalping-master-001",
		CustomerEmail: buyerEmail,
		CustomerName:  "Budi",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrGateway)

	all, _ := h.orders.List(context.Background())
	require.Len(t, all, 1)
	assert.Equal(t, order.StatusPending, all[0].Status)
	assert.Empty(t, h.notifier.adminOrders)
}

func TestCreateTransactionSurvivesAdminNotifyFailure(t *testing.T) {
	h := newHarness()
	h.notifier.adminErr = errors.New("telegram down")

	id := h.createOrder(buyerEmail)
	assert.NotEmpty(t, id)
}

func TestPriceSnapshot(t *testing.T) {
	h := newHarness()
	id := h.createOrder(buyerEmail)

	h.products.setPrice("ea-scalping-master-001", 499000)

	o, err := h.svc.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(99000), o.Amount)

	require.NoError(t, h.svc.HandleNotification(context.Background(), h.gw.Notify(id, 99000, "settlement")))

	o, err = h.svc.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, o.Status)
	assert.Equal(t, int64(99000), o.Amount)
}

func TestSettlementCompletesOrder(t *testing.T) {
	h := newHarness()
	id := h.createOrder(buyerEmail)

	require.NoError(t, h.svc.HandleNotification(context.Background(), h.notification(id, "settlement")))

	o, err := h.svc.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, o.Status)
	assert.Equal(t, "mock_"+id, o.PaymentID)
	require.NotNil(t, o.CompletedAt)
	assert.True(t, strings.HasPrefix(o.LicenseKey, "EA-buyer@ex-ea-scalp-"))

	l, err := h.licenses.GetByOrderID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, o.LicenseKey, l.LicenseKey)
	assert.Equal(t, "active", l.Status)

	assert.Equal(t, []string{"555000:" + o.LicenseKey}, h.notifier.userNotices)
	require.Len(t, h.notifier.files, 1)
	assert.Equal(t, "/data/compiled/scalping.ex5", h.notifier.files[0].path)
	assert.Contains(t, h.notifier.files[0].caption, o.LicenseKey)
	assert.Equal(t, []string{events.OrderCreated, events.OrderCompleted}, h.publisher.types())
	assert.Empty(t, h.notifier.alerts)
}

func TestTamperedSignatureChangesNothing(t *testing.T) {
	h := newHarness()
	id := h.createOrder(buyerEmail)

	n := h.notification(id, "settlement")
	n.SignatureKey = strings.Repeat("0", 128)

	err := h.svc.HandleNotification(context.Background(), n)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)

	o, _ := h.svc.Status(context.Background(), id)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Zero(t, h.licenses.count())
}

func TestExpireFailsOrder(t *testing.T) {
	h := newHarness()
	id := h.createOrder(buyerEmail)

	require.NoError(t, h.svc.HandleNotification(context.Background(), h.notification(id, "expire")))

	o, _ := h.svc.Status(context.Background(), id)
	assert.Equal(t, order.StatusFailed, o.Status)
	assert.Empty(t, o.LicenseKey)
	assert.Nil(t, o.CompletedAt)
	assert.Zero(t, h.licenses.count())
	assert.Empty(t, h.notifier.userNotices)
}

func TestIgnoredStatusesAreNoOps(t *testing.T) {
	h := newHarness()
	id := h.createOrder(buyerEmail)

	for _, status := range []string{"pending", "deny", "refund"} {
		n := h.gw.Notify(id, 99000, status)
		require.NoError(t, h.svc.HandleNotification(context.Background(), n))
	}

	challenged := h.gw.Notify(id, 99000, "capture")
	challenged.FraudStatus = "challenge"
	challenged.SignatureKey = gateway.Sign(id, challenged.StatusCode, challenged.GrossAmount, testServerKey)
	require.NoError(t, h.svc.HandleNotification(context.Background(), challenged))

	o, _ := h.svc.Status(context.Background(), id)
	assert.Equal(t, order.StatusPending, o.Status)
}

func TestTerminalStatesAreExclusive(t *testing.T) {
	h := newHarness()

	completed := h.createOrder(buyerEmail)
	failed := h.createOrder(buyerEmail)

	require.NoError(t, h.svc.HandleNotification(context.Background(), h.notification(completed, "settlement")))
	require.NoError(t, h.svc.HandleNotification(context.Background(), h.notification(completed, "expire")))
	require.NoError(t, h.svc.HandleNotification(context.Background(), h.notification(failed, "cancel")))
	require.NoError(t, h.svc.HandleNotification(context.Background(), h.notification(failed, "settlement")))

	all, _ := h.orders.List(context.Background())
	for _, o := range all {
		assert.Equal(t, o.Status == order.StatusCompleted, o.LicenseKey != "", o.ID)
		assert.Equal(t, o.Status == order.StatusCompleted, o.CompletedAt != nil, o.ID)
	}

	c, _ := h.svc.Status(context.Background(), completed)
	f, _ := h.svc.Status(context.Background(), failed)
	assert.Equal(t, order.StatusCompleted, c.Status)
	assert.Equal(t, order.StatusFailed, f.Status)
	assert.Equal(t, 1, h.licenses.count())
}

func TestConcurrentDuplicateWebhooksMintOneLicense(t *testing.T) {
	h := newHarness()
	h.svc.deduper = NopDeduper{}
	id := h.createOrder(buyerEmail)
	n := h.notification(id, "settlement")

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dup := *n
			assert.NoError(t, h.svc.HandleNotification(context.Background(), &dup))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, h.licenses.count())
	assert.Len(t, h.notifier.userNotices, 1)
	assert.Len(t, h.notifier.files, 1)
}

func TestDedupeDropsRetriesBeforeStore(t *testing.T) {
	h := newHarness()
	id := h.createOrder(buyerEmail)
	n := h.notification(id, "settlement")

	require.NoError(t, h.svc.HandleNotification(context.Background(), n))
	require.NoError(t, h.svc.HandleNotification(context.Background(), n))

	assert.Len(t, h.notifier.userNotices, 1)
}

func TestDedupeErrorFailsOpen(t *testing.T) {
	h := newHarness()
	h.deduper.err = errors.New("redis down")
	id := h.createOrder(buyerEmail)

	require.NoError(t, h.svc.HandleNotification(context.Background(), h.notification(id, "settlement")))

	o, _ := h.svc.Status(context.Background(), id)
	assert.Equal(t, order.StatusCompleted, o.Status)
}

func TestDedupeReleasedWhenProcessingFails(t *testing.T) {
	h := newHarness()

	n := h.gw.Notify(order.NewID(), 99000, "settlement")
	require.NoError(t, h.svc.HandleNotification(context.Background(), n))

	assert.Empty(t, h.deduper.seen)
	require.Len(t, h.notifier.alerts, 1)
	assert.Contains(t, h.notifier.alerts[0], "notification processing failed")
}

func TestStaleClaimExpiresForRetries(t *testing.T) {
	h := newHarness()
	id := h.createOrder(buyerEmail)
	n := h.notification(id, "settlement")

	// A claim taken by a process that died before applying the notification.
	first, err := h.deduper.FirstDelivery(context.Background(), id, "success")
	require.NoError(t, err)
	require.True(t, first)

	require.NoError(t, h.svc.HandleNotification(context.Background(), n))
	o, _ := h.svc.Status(context.Background(), id)
	assert.Equal(t, order.StatusPending, o.Status)

	h.deduper.advance(defaultInflightTTL + time.Second)

	require.NoError(t, h.svc.HandleNotification(context.Background(), n))
	o, _ = h.svc.Status(context.Background(), id)
	assert.Equal(t, order.StatusCompleted, o.Status)
	assert.Equal(t, 1, h.licenses.count())
}

func TestConfirmedClaimOutlivesInflightWindow(t *testing.T) {
	h := newHarness()
	id := h.createOrder(buyerEmail)
	n := h.notification(id, "settlement")

	require.NoError(t, h.svc.HandleNotification(context.Background(), n))
	assert.Equal(t, h.deduper.clock.Add(defaultDedupeTTL), h.deduper.seen[dedupeKey(id, "success")])

	h.deduper.advance(time.Hour)
	require.NoError(t, h.svc.HandleNotification(context.Background(), n))

	assert.Len(t, h.notifier.userNotices, 1)
}

func TestSettlementAfterSweepAlertsOperator(t *testing.T) {
	h := newHarness()
	id := h.createOrder(buyerEmail)

	swept, err := h.svc.SweepExpired(context.Background(), h.orders.clock.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, swept)

	require.NoError(t, h.svc.HandleNotification(context.Background(), h.notification(id, "settlement")))

	o, _ := h.svc.Status(context.Background(), id)
	assert.Equal(t, order.StatusFailed, o.Status)
	assert.Zero(t, h.licenses.count())
	assert.Empty(t, h.notifier.userNotices)

	require.Len(t, h.notifier.alerts, 1)
	assert.Contains(t, h.notifier.alerts[0], id)
	assert.Contains(t, h.notifier.alerts[0], "mock_"+id)
	assert.Contains(t, h.notifier.alerts[0], "manual reconciliation")
}

func TestSettlementLosingRaceToFailureAlertsOperator(t *testing.T) {
	h := newHarness()
	id := h.createOrder(buyerEmail)

	h.orders.beforeTransition = func(orderID string) {
		moved, err := h.svc.failOrder(context.Background(), orderID, "sweeper")
		require.NoError(t, err)
		require.True(t, moved)
	}

	require.NoError(t, h.svc.HandleNotification(context.Background(), h.notification(id, "settlement")))

	o, _ := h.svc.Status(context.Background(), id)
	assert.Equal(t, order.StatusFailed, o.Status)
	assert.Zero(t, h.licenses.count())
	require.Len(t, h.notifier.alerts, 1)
	assert.Contains(t, h.notifier.alerts[0], "manual reconciliation")
}

func TestRepeatedSettlementOnCompletedOrderIsQuiet(t *testing.T) {
	h := newHarness()
	h.svc.deduper = NopDeduper{}
	id := h.createOrder(buyerEmail)
	n := h.notification(id, "settlement")

	require.NoError(t, h.svc.HandleNotification(context.Background(), n))
	require.NoError(t, h.svc.HandleNotification(context.Background(), n))

	assert.Equal(t, 1, h.licenses.count())
	assert.Empty(t, h.notifier.alerts)
}

func TestEffectFailuresAreIsolated(t *testing.T) {
	h := newHarness()
	h.licenses.createErr = errors.New("sheet write failed")
	h.notifier.userErr = errors.New("chat blocked")
	id := h.createOrder(buyerEmail)

	require.NoError(t, h.svc.HandleNotification(context.Background(), h.notification(id, "settlement")))

	o, _ := h.svc.Status(context.Background(), id)
	assert.Equal(t, order.StatusCompleted, o.Status)
	assert.Len(t, h.notifier.files, 1)
	assert.Contains(t, h.publisher.types(), events.OrderCompleted)
	assert.Len(t, h.notifier.alerts, 2)
}

func TestDeliverySkippedWithoutTelegram(t *testing.T) {
	h := newHarness()
	id := h.createOrder("nochat@example.com")

	require.NoError(t, h.svc.HandleNotification(context.Background(), h.notification(id, "settlement")))

	assert.Empty(t, h.notifier.userNotices)
	assert.Empty(t, h.notifier.files)
	assert.Empty(t, h.notifier.alerts)
	assert.Equal(t, 1, h.licenses.count())
}

func TestRunEffectsRecoversPanics(t *testing.T) {
	h := newHarness()

	ran := false
	results := h.svc.runEffects(context.Background(), "ORDER-x", []effect{
		{name: "boom", run: func(context.Context) error { panic("bad") }},
		{name: "after", run: func(context.Context) error { ran = true; return nil }},
	})

	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.True(t, ran)
}

func TestSweepExpiredFailsStalePending(t *testing.T) {
	h := newHarness()
	stale := h.createOrder(buyerEmail)
	done := h.createOrder(buyerEmail)
	require.NoError(t, h.svc.HandleNotification(context.Background(), h.notification(done, "settlement")))

	cutoff := h.orders.clock.Add(time.Hour)
	n, err := h.svc.SweepExpired(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	o, _ := h.svc.Status(context.Background(), stale)
	assert.Equal(t, order.StatusFailed, o.Status)

	c, _ := h.svc.Status(context.Background(), done)
	assert.Equal(t, order.StatusCompleted, c.Status)
}

func TestMockCompleteRequiresMockGateway(t *testing.T) {
	h := newHarness()
	id := h.createOrder(buyerEmail)

	o, err := h.svc.MockComplete(context.Background(), id, "")
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, o.Status)

	_, err = h.svc.MockComplete(context.Background(), id, "bogus")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	live := NewService(Deps{
		Orders:   h.orders,
		Gateway:  gateway.NewMidtrans(testPaymentConfig()),
		Notifier: h.notifier,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	_, err = live.MockComplete(context.Background(), id, "settlement")
	assert.ErrorIs(t, err, core.ErrForbidden)
}

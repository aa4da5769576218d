// AngelaMos | 2026
// fakes_test.go

package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/carterperez-dev/ea-marketplace/internal/config"
	"github.com/carterperez-dev/ea-marketplace/internal/core"
	"github.com/carterperez-dev/ea-marketplace/internal/events"
	"github.com/carterperez-dev/ea-marketplace/internal/gateway"
	"github.com/carterperez-dev/ea-marketplace/internal/license"
	"github.com/carterperez-dev/ea-marketplace/internal/notify"
	"github.com/carterperez-dev/ea-marketplace/internal/order"
	"github.com/carterperez-dev/ea-marketplace/internal/product"
)

const testServerKey = "SB-Mid-server-test"

type memOrders struct {
	mu     sync.Mutex
	orders map[string]*order.Order
	clock  time.Time

	// beforeTransition runs once, ahead of the next Transition, to stage a
	// competing writer.
	beforeTransition func(id string)
}

func newMemOrders() *memOrders {
	return &memOrders{
		orders: make(map[string]*order.Order),
		clock:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memOrders) Create(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; ok {
		return core.ErrDuplicateKey
	}
	m.clock = m.clock.Add(time.Second)
	o.CreatedAt = m.clock
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("get order: %w", core.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	all, _ := m.List(ctx)
	var out []order.Order
	for _, o := range all {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrders) List(context.Context) ([]order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]order.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memOrders) Transition(
	_ context.Context,
	id, from, to string,
	patch order.Patch,
) (*order.Order, error) {
	m.mu.Lock()
	hook := m.beforeTransition
	m.beforeTransition = nil
	m.mu.Unlock()
	if hook != nil {
		hook(id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("transition: %w", core.ErrNotFound)
	}
	next := *o
	if err := next.Apply(from, to, patch); err != nil {
		return nil, err
	}
	m.orders[id] = &next
	cp := next
	return &cp, nil
}

func (m *memOrders) ListPendingBefore(_ context.Context, cutoff time.Time) ([]order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []order.Order
	for _, o := range m.orders {
		if o.Status == order.StatusPending && o.CreatedAt.Before(cutoff) {
			out = append(out, *o)
		}
	}
	return out, nil
}

type memLicenses struct {
	mu        sync.Mutex
	byOrder   map[string]license.License
	createErr error
}

func newMemLicenses() *memLicenses {
	return &memLicenses{byOrder: make(map[string]license.License)}
}

func (m *memLicenses) Create(_ context.Context, l *license.License) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.byOrder[l.OrderID]; ok {
		return core.ErrDuplicateKey
	}
	m.byOrder[l.OrderID] = *l
	return nil
}

func (m *memLicenses) GetByID(context.Context, string) (*license.License, error) {
	return nil, core.ErrNotFound
}

func (m *memLicenses) GetByOrderID(_ context.Context, orderID string) (*license.License, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byOrder[orderID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &l, nil
}

func (m *memLicenses) ListByUser(context.Context, string) ([]license.License, error) {
	return nil, nil
}

func (m *memLicenses) List(context.Context) ([]license.License, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]license.License, 0, len(m.byOrder))
	for _, l := range m.byOrder {
		out = append(out, l)
	}
	return out, nil
}

func (m *memLicenses) UpdateStatus(context.Context, string, string) (*license.License, error) {
	return nil, core.ErrNotFound
}

func (m *memLicenses) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byOrder)
}

type fakeProducts struct {
	mu       sync.Mutex
	products map[string]product.Product
}

func newFakeProducts(ps ...product.Product) *fakeProducts {
	f := &fakeProducts{products: make(map[string]product.Product)}
	for _, p := range ps {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProducts) Get(_ context.Context, id string) (*product.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProducts) GetActive(ctx context.Context, id string) (*product.Product, error) {
	p, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, core.ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) setPrice(id string, price int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.products[id]
	p.Price = price
	f.products[id] = p
}

type fakeChats map[string]string

func (f fakeChats) TelegramChatID(_ context.Context, email string) (string, error) {
	id, ok := f[email]
	if !ok {
		return "", core.ErrNotFound
	}
	return id, nil
}

type sentFile struct {
	chatID, path, caption string
}

type fakeNotifier struct {
	mu          sync.Mutex
	adminOrders []notify.OrderSummary
	userNotices []string
	files       []sentFile
	alerts      []string

	adminErr error
	userErr  error
	fileErr  error
}

func (f *fakeNotifier) SendMessage(context.Context, string, string) error { return nil }

func (f *fakeNotifier) SendFile(_ context.Context, chatID, path, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fileErr != nil {
		return f.fileErr
	}
	f.files = append(f.files, sentFile{chatID, path, caption})
	return nil
}

func (f *fakeNotifier) NotifyAdminNewOrder(_ context.Context, s notify.OrderSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adminErr != nil {
		return f.adminErr
	}
	f.adminOrders = append(f.adminOrders, s)
	return nil
}

func (f *fakeNotifier) NotifyUserPaymentSuccess(
	_ context.Context,
	chatID string,
	_ notify.OrderSummary,
	key string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userErr != nil {
		return f.userErr
	}
	f.userNotices = append(f.userNotices, chatID+":"+key)
	return nil
}

func (f *fakeNotifier) Alert(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, text)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, e events.OrderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

// memDeduper mirrors RedisDeduper: a claim lives for inflight until
// confirmed, then for ttl.
type memDeduper struct {
	mu       sync.Mutex
	seen     map[string]time.Time
	err      error
	clock    time.Time
	inflight time.Duration
	ttl      time.Duration
}

func newMemDeduper() *memDeduper {
	return &memDeduper{
		seen:     map[string]time.Time{},
		clock:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		inflight: defaultInflightTTL,
		ttl:      defaultDedupeTTL,
	}
}

func (d *memDeduper) advance(by time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clock = d.clock.Add(by)
}

func (d *memDeduper) FirstDelivery(_ context.Context, orderID, outcome string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	key := dedupeKey(orderID, outcome)
	if until, ok := d.seen[key]; ok && d.clock.Before(until) {
		return false, nil
	}
	d.seen[key] = d.clock.Add(d.inflight)
	return true, nil
}

func (d *memDeduper) Confirm(_ context.Context, orderID, outcome string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	key := dedupeKey(orderID, outcome)
	if _, ok := d.seen[key]; ok {
		d.seen[key] = d.clock.Add(d.ttl)
	}
	return nil
}

func (d *memDeduper) Release(_ context.Context, orderID, outcome string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, dedupeKey(orderID, outcome))
	return nil
}

type failingGateway struct {
	*gateway.Mock
}

func (failingGateway) CreateTransaction(context.Context, gateway.TransactionRequest) (*gateway.Transaction, error) {
	return nil, fmt.Errorf("snap: %w", core.ErrGateway)
}

type harness struct {
	svc       *Service
	orders    *memOrders
	licenses  *memLicenses
	products  *fakeProducts
	notifier  *fakeNotifier
	publisher *fakePublisher
	deduper   *memDeduper
	gw        *gateway.Mock
}

const buyerEmail = "buyer@example.com"

func newHarness() *harness {
	h := &harness{
		orders:   newMemOrders(),
		licenses: newMemLicenses(),
		products: newFakeProducts(
			product.Product{
				ID:           "ea-scalping-master-001",
				Name:         "Scalping Master EA",
				Price:        99000,
				Status:       product.StatusActive,
				CompiledPath: "/data/compiled/scalping.ex5",
			},
			product.Product{
				ID:     "ea-draft-999",
				Name:   "Draft EA",
				Price:  10000,
				Status: product.StatusPending,
			},
		),
		notifier:  &fakeNotifier{},
		publisher: &fakePublisher{},
		deduper:   newMemDeduper(),
		gw:        gateway.NewMock(testServerKey, "http://localhost:3000"),
	}

	h.svc = NewService(Deps{
		Orders:    h.orders,
		Licenses:  h.licenses,
		Products:  h.products,
		Users:     fakeChats{buyerEmail: "555000"},
		Gateway:   h.gw,
		Notifier:  h.notifier,
		Publisher: h.publisher,
		Deduper:   h.deduper,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return h
}

func (h *harness) createOrder(email string) string {
	res, err := h.svc.CreateTransaction(context.Background(), CreateTransactionInput{
		ProductID:     "ea-scalping-master-001",
		CustomerEmail: email,
		CustomerName:  "Budi",
	})
	if err != nil {
		panic(err)
	}
	return res.OrderID
}

func (h *harness) notification(orderID, status string) *gateway.Notification {
	o, err := h.orders.GetByID(context.Background(), orderID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		panic(err)
	}
	amount := int64(99000)
	if o != nil {
		amount = o.Amount
	}
	return h.gw.Notify(orderID, amount, status)
}

func testPaymentConfig() config.PaymentConfig {
	return config.PaymentConfig{
		ServerKey:   testServerKey,
		FrontendURL: "http://localhost:3000",
	}
}

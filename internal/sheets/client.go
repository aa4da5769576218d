// AngelaMos | 2026
// client.go

package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carterperez-dev/ea-marketplace/internal/config"
	"github.com/carterperez-dev/ea-marketplace/internal/core"
)

// backend is the spreadsheet surface the client needs.
type backend interface {
	tabs(ctx context.Context) (map[string]int64, error)
	addTab(ctx context.Context, title string) (int64, error)
	get(ctx context.Context, rng string) ([][]any, error)
	append(ctx context.Context, rng string, rows [][]any) error
	update(ctx context.Context, rng string, rows [][]any) error
	deleteRow(ctx context.Context, sheetID int64, rowNum int) error
}

// Client owns the spreadsheet connection. It is constructed explicitly,
// reports readiness, and serializes writes per tab.
type Client struct {
	cfg    config.SheetsConfig
	logger *slog.Logger

	mu       sync.RWMutex
	api      backend
	sheetIDs map[string]int64
	headers  map[string][]string

	ready    atomic.Bool
	tabLocks map[string]*sync.Mutex
}

func NewClient(cfg config.SheetsConfig, logger *slog.Logger) *Client {
	return newClient(cfg, nil, logger)
}

func newClient(cfg config.SheetsConfig, api backend, logger *slog.Logger) *Client {
	c := &Client{
		cfg:      cfg,
		logger:   logger,
		api:      api,
		tabLocks: make(map[string]*sync.Mutex, len(allTabs)),
	}
	for _, s := range allTabs {
		c.tabLocks[s.name] = &sync.Mutex{}
	}
	return c
}

func (c *Client) Name() string {
	return "sheets"
}

func (c *Client) IsReady() bool {
	return c.ready.Load()
}

// Connect loads the spreadsheet layout and creates any missing tab with its
// header row. The client is ready only after Connect succeeds.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.RLock()
	api := c.api
	c.mu.RUnlock()

	if api == nil {
		if !c.cfg.Enabled() {
			return fmt.Errorf("connect sheets: no credentials: %w", core.ErrStoreUnavailable)
		}
		g, err := newGoogleBackend(ctx, c.cfg)
		if err != nil {
			return fmt.Errorf("connect sheets: %w", err)
		}
		api = g
	}

	ids, err := api.tabs(ctx)
	if err != nil {
		return fmt.Errorf("load spreadsheet: %w", err)
	}

	headers := make(map[string][]string, len(allTabs))
	for _, s := range allTabs {
		id, ok := ids[s.name]
		if !ok {
			id, err = api.addTab(ctx, s.name)
			if err != nil {
				return fmt.Errorf("create tab %s: %w", s.name, err)
			}
			ids[s.name] = id
			c.logger.Info("created sheet tab", "tab", s.name)
		}

		h, err := c.ensureHeader(ctx, api, s)
		if err != nil {
			return err
		}
		headers[s.name] = h
	}

	c.mu.Lock()
	c.api = api
	c.sheetIDs = ids
	c.headers = headers
	c.mu.Unlock()

	c.ready.Store(true)
	c.logger.Info("sheets store connected", "tabs", len(ids))

	return nil
}

func (c *Client) ensureHeader(ctx context.Context, api backend, s schema) ([]string, error) {
	values, err := api.get(ctx, s.name+"!1:1")
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", s.name, err)
	}

	if len(values) > 0 && len(values[0]) > 0 {
		return cellsToStrings(values[0]), nil
	}

	row := make([]any, len(s.headers))
	for i, h := range s.headers {
		row[i] = h
	}
	if err := api.update(ctx, s.name+"!A1", [][]any{row}); err != nil {
		return nil, fmt.Errorf("write %s header: %w", s.name, err)
	}

	return append([]string(nil), s.headers...), nil
}

// Run retries Connect until it succeeds or ctx ends.
func (c *Client) Run(ctx context.Context) {
	interval := c.cfg.ReconnectInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !c.IsReady() {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Connect(ctx); err != nil {
				c.logger.Warn("sheets reconnect failed", "error", err)
			}
		}
	}
}

func (c *Client) Ping(ctx context.Context) error {
	api, err := c.backend()
	if err != nil {
		return err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if _, err := api.tabs(ctx); err != nil {
		return fmt.Errorf("sheets ping: %w", err)
	}
	return nil
}

func (c *Client) backend() (backend, error) {
	if !c.IsReady() {
		return nil, fmt.Errorf("sheets: %w", core.ErrStoreUnavailable)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.api, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.RequestTimeout)
}

// lock serializes read-modify-write cycles on one tab.
func (c *Client) lock(tab string) func() {
	m := c.tabLocks[tab]
	m.Lock()
	return m.Unlock
}

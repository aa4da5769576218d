// AngelaMos | 2026
// table.go

package sheets

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
)

type schema struct {
	name    string
	headers []string
}

var (
	usersTab = schema{"Users", []string{
		"id", "email", "password", "role", "telegram_id", "created_at", "status", "full_name",
	}}
	productsTab = schema{"Products", []string{
		"id", "name", "description", "price", "file_path", "compiled_path", "status", "created_at", "admin_id",
	}}
	ordersTab = schema{"Orders", []string{
		"id", "user_id", "product_id", "amount", "status", "payment_id", "license_key", "created_at", "completed_at",
	}}
	licensesTab = schema{"Licenses", []string{
		"id", "user_id", "product_id", "license_key", "status", "expires_at", "created_at", "activations", "order_id",
	}}

	allTabs = []schema{usersTab, productsTab, ordersTab, licensesTab}
)

type record map[string]string

// row is a record plus its 1-based sheet row number.
type row struct {
	num int
	rec record
}

func (c *Client) tabHeaders(tab string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers[tab]
}

func (c *Client) readAll(ctx context.Context, s schema) ([]row, error) {
	api, err := c.backend()
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	values, err := api.get(ctx, s.name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", s.name, core.ErrStore, err)
	}
	if len(values) == 0 {
		return nil, nil
	}

	header := cellsToStrings(values[0])
	rows := make([]row, 0, len(values)-1)
	for i, cells := range values[1:] {
		rec := make(record, len(header))
		for j, h := range header {
			if j < len(cells) {
				rec[h] = strings.TrimSpace(fmt.Sprint(cells[j]))
			}
		}
		if rec["id"] == "" {
			continue
		}
		rows = append(rows, row{num: i + 2, rec: rec})
	}

	return rows, nil
}

func (c *Client) find(ctx context.Context, s schema, column, value string) (*row, error) {
	rows, err := c.readAll(ctx, s)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].rec[column] == value {
			return &rows[i], nil
		}
	}
	return nil, fmt.Errorf("%s %s=%s: %w", s.name, column, value, core.ErrNotFound)
}

func (c *Client) appendRow(ctx context.Context, s schema, rec record) error {
	api, err := c.backend()
	if err != nil {
		return err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := api.append(ctx, s.name+"!A1", [][]any{c.cells(s, rec)}); err != nil {
		return fmt.Errorf("append %s: %w: %w", s.name, core.ErrStore, err)
	}
	return nil
}

// writeRow rewrites an existing row. Columns outside the schema keep the
// values last read from the sheet.
func (c *Client) writeRow(ctx context.Context, s schema, current *row, rec record) error {
	api, err := c.backend()
	if err != nil {
		return err
	}

	merged := maps.Clone(current.rec)
	if merged == nil {
		merged = make(record, len(rec))
	}
	maps.Copy(merged, rec)

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rng := s.name + "!A" + strconv.Itoa(current.num)
	if err := api.update(ctx, rng, [][]any{c.cells(s, merged)}); err != nil {
		return fmt.Errorf("update %s row %d: %w: %w", s.name, current.num, core.ErrStore, err)
	}
	return nil
}

func (c *Client) removeRow(ctx context.Context, s schema, num int) error {
	api, err := c.backend()
	if err != nil {
		return err
	}

	c.mu.RLock()
	sheetID := c.sheetIDs[s.name]
	c.mu.RUnlock()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := api.deleteRow(ctx, sheetID, num); err != nil {
		return fmt.Errorf("delete %s row %d: %w: %w", s.name, num, core.ErrStore, err)
	}
	return nil
}

// cells lays a record out against the tab's live header, so reordered or
// extra columns survive.
func (c *Client) cells(s schema, rec record) []any {
	header := c.tabHeaders(s.name)
	if len(header) == 0 {
		header = s.headers
	}
	out := make([]any, len(header))
	for i, h := range header {
		out[i] = rec[h]
	}
	return out
}

func cellsToStrings(cells []any) []string {
	out := make([]string, len(cells))
	for i, v := range cells {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimePtr(s string) *time.Time {
	t := parseTime(s)
	if t.IsZero() {
		return nil
	}
	return &t
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// parseInt accepts "99000" and "99000.00" alike.
func parseInt(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

// AngelaMos | 2026
// memory_test.go

package sheets

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"sync"

	"github.com/carterperez-dev/ea-marketplace/internal/config"
)

// memBackend keeps each tab as a grid of cells addressed the way the
// Sheets API addresses them.
type memBackend struct {
	mu     sync.Mutex
	grids  map[string][][]any
	ids    map[string]int64
	nextID int64
	down   bool
}

func newMemBackend() *memBackend {
	return &memBackend{grids: map[string][][]any{}, ids: map[string]int64{}}
}

var errDown = errors.New("sheets api unavailable")

var rangePattern = regexp.MustCompile(`^([^!]+)(?:!([A-Z]+)?(\d+)?(?::\d+)?)?$`)

func parseRange(rng string) (tab string, rowNum int) {
	m := rangePattern.FindStringSubmatch(rng)
	if m == nil {
		return rng, 0
	}
	n, _ := strconv.Atoi(m[3])
	return m[1], n
}

func (m *memBackend) tabs(context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, errDown
	}
	out := make(map[string]int64, len(m.ids))
	for k, v := range m.ids {
		out[k] = v
	}
	return out, nil
}

func (m *memBackend) addTab(_ context.Context, title string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.ids[title] = m.nextID
	m.grids[title] = nil
	return m.nextID, nil
}

func (m *memBackend) get(_ context.Context, rng string) ([][]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, errDown
	}
	tab, rowNum := parseRange(rng)
	grid := m.grids[tab]
	if rowNum > 0 {
		if rowNum > len(grid) {
			return nil, nil
		}
		return [][]any{append([]any(nil), grid[rowNum-1]...)}, nil
	}
	out := make([][]any, len(grid))
	for i, r := range grid {
		out[i] = append([]any(nil), r...)
	}
	return out, nil
}

func (m *memBackend) append(_ context.Context, rng string, rows [][]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errDown
	}
	tab, _ := parseRange(rng)
	m.grids[tab] = append(m.grids[tab], rows...)
	return nil
}

func (m *memBackend) update(_ context.Context, rng string, rows [][]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errDown
	}
	tab, rowNum := parseRange(rng)
	for i, r := range rows {
		idx := rowNum - 1 + i
		for len(m.grids[tab]) <= idx {
			m.grids[tab] = append(m.grids[tab], nil)
		}
		m.grids[tab][idx] = r
	}
	return nil
}

func (m *memBackend) deleteRow(_ context.Context, sheetID int64, rowNum int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for tab, id := range m.ids {
		if id == sheetID {
			g := m.grids[tab]
			m.grids[tab] = append(g[:rowNum-1], g[rowNum:]...)
			return nil
		}
	}
	return errors.New("unknown sheet")
}

func (m *memBackend) setDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down = down
}

func connectedClient(mb *memBackend) *Client {
	c := newClient(config.SheetsConfig{}, mb, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := c.Connect(context.Background()); err != nil {
		panic(err)
	}
	return c
}

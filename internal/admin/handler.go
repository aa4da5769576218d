// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
	"github.com/carterperez-dev/ea-marketplace/internal/order"
)

type UserCounter interface {
	CountUsers(ctx context.Context) (int, error)
}

type ProductCounter interface {
	CountByStatus(ctx context.Context) (total, active int, err error)
}

type OrderLister interface {
	List(ctx context.Context) ([]order.Order, error)
}

type Handler struct {
	users      UserCounter
	products   ProductCounter
	orders     OrderLister
	storeName  string
	storePing  func(ctx context.Context) error
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	redisPing  func(ctx context.Context) error
}

type HandlerConfig struct {
	Users      UserCounter
	Products   ProductCounter
	Orders     OrderLister
	StoreName  string
	StorePing  func(ctx context.Context) error
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	RedisPing  func(ctx context.Context) error
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		users:      cfg.Users,
		products:   cfg.Products,
		orders:     cfg.Orders,
		storeName:  cfg.StoreName,
		storePing:  cfg.StorePing,
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		redisPing:  cfg.RedisPing,
	}
}

// RegisterRoutes mounts on a router that already enforces the admin role.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.GetStats)
	r.Get("/stats/db", h.GetDatabaseStats)
	r.Get("/stats/redis", h.GetRedisStats)
	r.Get("/stats/runtime", h.GetRuntimeStats)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	market, err := h.marketStats(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	market.System = SystemStatus{
		Store: StoreStatus{
			Driver:  h.storeName,
			Healthy: ping(ctx, h.storePing),
			Pool:    h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: ping(ctx, h.redisPing),
			Stats:   h.getRedisStats(),
		},
		Runtime: readRuntimeStats(),
	}

	core.Data(w, market)
}

func (h *Handler) marketStats(ctx context.Context) (MarketStats, error) {
	var stats MarketStats

	users, err := h.users.CountUsers(ctx)
	if err != nil {
		return stats, err
	}

	total, active, err := h.products.CountByStatus(ctx)
	if err != nil {
		return stats, err
	}

	orders, err := h.orders.List(ctx)
	if err != nil {
		return stats, err
	}

	stats.TotalUsers = users
	stats.TotalProducts = total
	stats.ActiveProducts = active

	for i := range orders {
		switch orders[i].Status {
		case order.StatusCompleted:
			stats.TotalSales += orders[i].Amount
			stats.CompletedOrders++
		case order.StatusPending:
			stats.PendingOrders++
		}
	}

	return stats, nil
}

func ping(ctx context.Context, fn func(context.Context) error) bool {
	if fn == nil {
		return false
	}
	return fn(ctx) == nil
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getDBStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getRedisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, readRuntimeStats())
}

func readRuntimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

// MarketStats keeps the camelCase keys the admin dashboard reads.
type MarketStats struct {
	TotalUsers      int          `json:"totalUsers"`
	TotalProducts   int          `json:"totalProducts"`
	ActiveProducts  int          `json:"activeProducts"`
	TotalSales      int64        `json:"totalSales"`
	PendingOrders   int          `json:"pendingOrders"`
	CompletedOrders int          `json:"completedOrders"`
	System          SystemStatus `json:"system"`
}

type SystemStatus struct {
	Store   StoreStatus  `json:"store"`
	Redis   RedisStatus  `json:"redis"`
	Runtime RuntimeStats `json:"runtime"`
}

type StoreStatus struct {
	Driver  string       `json:"driver"`
	Healthy bool         `json:"healthy"`
	Pool    *DBPoolStats `json:"pool,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}

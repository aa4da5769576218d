// AngelaMos | 2026
// fallback.go

package product

import (
	"time"
)

// SampleCatalog is served while the store is unreachable so the storefront
// never renders empty. None of these carry a compiled file, so a purchase
// completed against them mints a license but delivers nothing.
func SampleCatalog(now time.Time) []Product {
	return []Product{
		{
			ID:          "ea-scalping-master-001",
			Name:        "Scalping Master EA",
			Description: "Advanced scalping strategy for EURUSD with high win rate and low drawdown",
			Price:       99000,
			Status:      StatusActive,
			CreatedAt:   now,
		},
		{
			ID:          "ea-trend-following-002",
			Name:        "Trend Following Pro",
			Description: "Multi-timeframe trend following system with risk management",
			Price:       149000,
			Status:      StatusActive,
			CreatedAt:   now,
		},
		{
			ID:          "ea-grid-recovery-003",
			Name:        "Grid Recovery EA",
			Description: "Safe grid trading with recovery mechanisms",
			Price:       199000,
			Status:      StatusActive,
			CreatedAt:   now,
		},
		{
			ID:          "ea-news-trading-004",
			Name:        "News Trading Bot",
			Description: "Automated news trading with economic calendar integration",
			Price:       179000,
			Status:      StatusActive,
			CreatedAt:   now,
		},
		{
			ID:          "ea-ai-pattern-005",
			Name:        "AI Pattern EA",
			Description: "Machine learning pattern recognition for forex trading",
			Price:       299000,
			Status:      StatusActive,
			CreatedAt:   now,
		},
		{
			ID:          "ea-martingale-safe-006",
			Name:        "Martingale Safe",
			Description: "Conservative martingale strategy with strict risk control",
			Price:       129000,
			Status:      StatusActive,
			CreatedAt:   now,
		},
	}
}

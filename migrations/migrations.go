// AngelaMos | 2026
// migrations.go

// Package migrations embeds the Postgres schema applied at startup by the
// postgres store driver.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

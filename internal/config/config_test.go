// AngelaMos | 2026
// config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const baseYAML = `
redis:
  url: redis://localhost:6379/0
jwt:
  secret: test-secret
payment:
  mock_mode: true
`

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, StoreDriverSheets, c.Store.Driver)
	assert.Equal(t, 5000, c.Server.Port)
	assert.Equal(t, time.Hour, c.Payment.CookieTTL)
	assert.Equal(t, 24*time.Hour, c.Payment.PendingTTL)
	assert.Equal(t, "midtrans_transaction", c.Payment.CookieName)
	assert.Equal(t, 15*time.Minute, c.RateLimit.Window)
	assert.True(t, c.Payment.MockMode)
	assert.False(t, c.Sheets.Enabled())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("MIDTRANS_MOCK_MODE", "false")
	t.Setenv("MIDTRANS_SERVER_KEY", "SB-Mid-server-abc")
	t.Setenv("SPREADSHEET_ID", "sheet-1")
	t.Setenv("GOOGLE_CREDENTIALS_FILE", "/etc/creds.json")

	c, err := load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, 8081, c.Server.Port)
	assert.False(t, c.Payment.MockMode)
	assert.Equal(t, "SB-Mid-server-abc", c.Payment.ServerKey)
	assert.True(t, c.Sheets.Enabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing jwt secret",
			yaml: `
redis:
  url: redis://localhost:6379/0
payment:
  mock_mode: true
`,
			wantErr: "JWT_SECRET is required",
		},
		{
			name: "live gateway without server key",
			yaml: `
redis:
  url: redis://localhost:6379/0
jwt:
  secret: s
`,
			wantErr: "MIDTRANS_SERVER_KEY is required",
		},
		{
			name:    "postgres without url",
			yaml:    baseYAML + "store:\n  driver: postgres\n",
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "unknown driver",
			yaml:    baseYAML + "store:\n  driver: mongo\n",
			wantErr: "unknown store driver",
		},
		{
			name: "pending ttl inside payment page lifetime",
			yaml: `
redis:
  url: redis://localhost:6379/0
jwt:
  secret: test-secret
payment:
  mock_mode: true
  page_expiry: 60m
  pending_ttl: 30m
`,
			wantErr: "PENDING_ORDER_TTL (30m0s) must exceed payment.page_expiry (1h0m0s)",
		},
		{
			name:    "events without brokers",
			yaml:    baseYAML + "events:\n  enabled: true\n",
			wantErr: "KAFKA_BROKERS is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPendingTTLZeroDisablesSweepCheck(t *testing.T) {
	t.Setenv("PENDING_ORDER_TTL", "0s")

	c, err := load(writeConfig(t, baseYAML))
	require.NoError(t, err)
	assert.Zero(t, c.Payment.PendingTTL)
}

func TestServerAddress(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 5000}
	assert.Equal(t, "127.0.0.1:5000", s.Address())
}

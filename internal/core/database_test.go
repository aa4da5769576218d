// AngelaMos | 2026
// database_test.go

package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJitteredStaysWithinSeventh(t *testing.T) {
	base := time.Hour
	for range 100 {
		got := jittered(base)
		assert.GreaterOrEqual(t, got, base)
		assert.Less(t, got, base+base/7)
	}

	assert.Equal(t, time.Duration(0), jittered(0))
}

func TestDatabaseNotReadyWithoutPool(t *testing.T) {
	var d *Database
	assert.False(t, d.IsReady())
	assert.False(t, (&Database{}).IsReady())
}

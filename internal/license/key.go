// AngelaMos | 2026
// key.go

package license

import (
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	keyPrefix       = "EA"
	segmentLen      = 8
	randomLen       = 13
	base36Digits    = "0123456789abcdefghijklmnopqrstuvwxyz"
	rejectAtOrAbove = 252 // largest multiple of 36 below 256
)

// KeyGenerator mints display license keys of the form
// EA-<user8>-<product8>-<random base36>-<BASE36 unix millis>. The key is a
// reference string, not a proof of purchase.
type KeyGenerator struct {
	now    func() time.Time
	random io.Reader
}

func NewKeyGenerator() *KeyGenerator {
	return &KeyGenerator{now: time.Now, random: rand.Reader}
}

func (g *KeyGenerator) Generate(userID, productID string) (string, error) {
	suffix, err := randomBase36(g.random, randomLen)
	if err != nil {
		return "", fmt.Errorf("generate license key: %w", err)
	}

	stamp := strings.ToUpper(strconv.FormatInt(g.now().UnixMilli(), 36))

	return strings.Join([]string{
		keyPrefix,
		prefix(userID, segmentLen),
		prefix(productID, segmentLen),
		suffix,
		stamp,
	}, "-"), nil
}

// prefix cuts on rune boundaries so multi-byte emails never split.
func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func randomBase36(r io.Reader, n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)

	for len(out) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= rejectAtOrAbove {
				continue
			}
			out = append(out, base36Digits[b%36])
			if len(out) == n {
				break
			}
		}
	}

	return string(out), nil
}

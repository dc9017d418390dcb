package storagekey

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyOnce sync.Once
	entropy     *ulid.MonotonicEntropy
)

func newEntropy() *ulid.MonotonicEntropy {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = ulid.Monotonic(rand.New(source), 0)
	})
	return entropy
}

// New returns a blob-storage key of the form "<folder>/<ulid>.<ext>".
// ULIDs carry a millisecond timestamp prefix followed by random entropy, so
// keys sort by upload time and never collide for identical content.
func New(folder, ext string) string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s/%s.%s", folder, strings.ToLower(id.String()), ext)
}

// Parse extracts and validates the ULID portion of a storage key.
func Parse(key string) (ulid.ULID, error) {
	base := key
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndex(base, "."); idx >= 0 {
		base = base[:idx]
	}
	return ulid.Parse(base)
}

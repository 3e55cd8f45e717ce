package cloudvar_client

import (
	"math"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff"
)

// maxBackoffExponent caps reconnect delay growth: once the attempt
// count saturates, every delay stays below (2^5 - 1) seconds.
const maxBackoffExponent = 5

// ReconnectBackoff produces the session's reconnect delays using full
// jitter: random(0,1) * (2^min(attempts,5) - 1) seconds, with no retry
// limit. It implements backoff.BackOff, so policies built from the
// same package (backoff.WithMaxRetries, backoff.NewExponentialBackOff)
// can be substituted through Options.
//
// It is not safe for concurrent use; the session's manager goroutine
// is its only caller.
type ReconnectBackoff struct {
	attempts int
	rng      *rand.Rand
}

var _ backoff.BackOff = (*ReconnectBackoff)(nil)

// NewReconnectBackoff seeds the jitter source. A nil rng falls back to
// a time-seeded source.
func NewReconnectBackoff(rng *rand.Rand) *ReconnectBackoff {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ReconnectBackoff{attempts: 1, rng: rng}
}

// NextBackOff returns the delay before the next connection attempt and
// advances the attempt counter.
func (b *ReconnectBackoff) NextBackOff() time.Duration {
	exp := b.attempts
	if exp > maxBackoffExponent {
		exp = maxBackoffExponent
	}
	b.attempts++
	ceiling := (math.Pow(2, float64(exp)) - 1) * float64(time.Second)
	return time.Duration(b.rng.Float64() * ceiling)
}

// Reset marks a successful open. The open itself counts as attempt
// one, so the delay after a later drop starts from the one-second
// window again.
func (b *ReconnectBackoff) Reset() {
	b.attempts = 1
}

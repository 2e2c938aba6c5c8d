package chat

import (
	"math/rand/v2"
	"time"
)

// DefaultFeedbackPool is the celebration set shown after a reply.
var DefaultFeedbackPool = []string{"⭐", "🌟", "💫", "✨", "🎉", "👏", "🤗", "💖"}

// DefaultFeedbackTTL is how long a celebration token stays visible.
const DefaultFeedbackTTL = 3 * time.Second

// Feedback is one emitted celebration token.
type Feedback struct {
	Token      string    `json:"token"`
	Generation uint64    `json:"-"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Emitter holds at most one active token. It belongs to a single session and
// is not safe for concurrent use.
type Emitter struct {
	pool    []string
	ttl     time.Duration
	intN    func(n int) int
	now     func() time.Time
	current Feedback
	active  bool
}

// NewEmitter builds an emitter. An empty pool or non-positive ttl selects the
// defaults; a nil src uses the global generator.
func NewEmitter(pool []string, ttl time.Duration, src rand.Source) *Emitter {
	if len(pool) == 0 {
		pool = DefaultFeedbackPool
	}
	if ttl <= 0 {
		ttl = DefaultFeedbackTTL
	}

	intN := rand.IntN
	if src != nil {
		intN = rand.New(src).IntN
	}

	return &Emitter{
		pool: append([]string(nil), pool...),
		ttl:  ttl,
		intN: intN,
		now:  time.Now,
	}
}

// TTL is the lifetime of each token.
func (e *Emitter) TTL() time.Duration {
	return e.ttl
}

// Emit replaces any active token with a uniformly chosen one and restarts the
// expiry clock.
func (e *Emitter) Emit() Feedback {
	e.current = Feedback{
		Token:      e.pool[e.intN(len(e.pool))],
		Generation: e.current.Generation + 1,
		ExpiresAt:  e.now().Add(e.ttl),
	}
	e.active = true
	return e.current
}

// Expire clears the token emitted as generation. It reports false when a newer
// token has replaced it or nothing is active.
func (e *Emitter) Expire(generation uint64) bool {
	if !e.active || e.current.Generation != generation {
		return false
	}
	e.active = false
	return true
}

// Current returns the visible token, if any.
func (e *Emitter) Current() (string, bool) {
	if !e.active || !e.now().Before(e.current.ExpiresAt) {
		return "", false
	}
	return e.current.Token, true
}

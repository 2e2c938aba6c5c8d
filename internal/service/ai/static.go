package ai

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/edubridge/tutor/backend/internal/analysis/topic"
)

// Default simulated thinking time of the static responder.
const (
	DefaultMinDelay = time.Second
	DefaultMaxDelay = 3 * time.Second
)

// StaticResponder answers from the keyword tables after a simulated delay
// drawn uniformly from [minDelay, maxDelay].
type StaticResponder struct {
	selector *topic.Selector
	minDelay time.Duration
	maxDelay time.Duration
	int64N   func(n int64) int64
}

// NewStaticResponder builds a responder over selector, or the bundled tables
// when selector is nil. maxDelay below minDelay is raised to minDelay.
func NewStaticResponder(selector *topic.Selector, minDelay, maxDelay time.Duration) *StaticResponder {
	if selector == nil {
		selector = topic.DefaultSelector()
	}
	if minDelay < 0 {
		minDelay = 0
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &StaticResponder{
		selector: selector,
		minDelay: minDelay,
		maxDelay: maxDelay,
		int64N:   rand.Int64N,
	}
}

// Respond waits out the delay and returns the canned reply. Cancelling ctx
// abandons the wait.
func (r *StaticResponder) Respond(ctx context.Context, q Query) (*Reply, error) {
	q = q.withDefaults()

	if delay := r.delay(); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return r.answer(q), nil
}

func (r *StaticResponder) answer(q Query) *Reply {
	return newReply(q, r.selector.Select(q.Utterance, q.Language), staticConfidence, SourceStatic)
}

func (r *StaticResponder) delay() time.Duration {
	span := r.maxDelay - r.minDelay
	if span <= 0 {
		return r.minDelay
	}
	return r.minDelay + time.Duration(r.int64N(int64(span)+1))
}

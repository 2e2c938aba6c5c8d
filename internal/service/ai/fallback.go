package ai

import (
	"context"
	"errors"
	"time"

	"github.com/edubridge/tutor/backend/internal/metrics"
	"github.com/edubridge/tutor/backend/pkg/log"
)

// primaryShare is the part of the caller's remaining time the primary may
// use. The rest is kept so the static answer still lands before the deadline.
const primaryShare = 0.8

// FallbackResponder tries the primary collaborator and answers from the
// static tables when it fails. The student never sees the failure.
type FallbackResponder struct {
	primary  Responder
	fallback *StaticResponder
	metrics  *metrics.Metrics
}

// NewFallbackResponder wraps primary. The static fallback answers without
// the simulated delay because the primary already took its time.
func NewFallbackResponder(primary Responder, static *StaticResponder, m *metrics.Metrics) *FallbackResponder {
	if static == nil {
		static = NewStaticResponder(nil, 0, 0)
	}
	return &FallbackResponder{primary: primary, fallback: static, metrics: m}
}

// Respond returns the primary's reply, or the static reply on any failure of
// the primary, a hung primary included. When ctx carries a deadline the
// primary gets only part of the remaining time. Only the end of ctx itself
// skips the fallback.
func (r *FallbackResponder) Respond(ctx context.Context, q Query) (*Reply, error) {
	q = q.withDefaults()

	primaryCtx, cancel := primaryContext(ctx)
	reply, err := r.primary.Respond(primaryCtx, q)
	cancel()
	if err == nil {
		return reply, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	reason := "error"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timeout"
	case errors.Is(err, ErrNetworkFailure):
		reason = "network"
	}
	r.metrics.Fallback(reason)
	log.Warnw("primary responder failed, using static tables", "reason", reason, "error", err)

	fallback := r.fallback.answer(q)
	fallback.Source = SourceFallback
	return fallback, nil
}

func primaryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return context.WithCancel(ctx)
	}
	budget := time.Duration(float64(time.Until(deadline)) * primaryShare)
	return context.WithTimeout(ctx, budget)
}

package ai

import (
	"context"
	"time"

	"github.com/edubridge/tutor/backend/internal/metrics"
	"github.com/edubridge/tutor/backend/internal/model/chat"
)

// Service is the reply collaborator sessions talk to.
type Service struct {
	responder Responder
	metrics   *metrics.Metrics
}

// NewService wraps responder with metrics.
func NewService(responder Responder, m *metrics.Metrics) *Service {
	return &Service{responder: responder, metrics: m}
}

// Respond answers q and records the latency and source.
func (s *Service) Respond(ctx context.Context, q Query) (*Reply, error) {
	q = q.withDefaults()
	start := time.Now()

	reply, err := s.responder.Respond(ctx, q)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveReply(string(q.Language), reply.Source, time.Since(start))
	return reply, nil
}

// Reply answers a session utterance with the tutoring defaults.
func (s *Service) Reply(ctx context.Context, utterance string, lang chat.Language) (string, error) {
	reply, err := s.Respond(ctx, NewQuery(utterance, lang))
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

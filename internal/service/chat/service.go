package chat

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edubridge/tutor/backend/internal/metrics"
	"github.com/edubridge/tutor/backend/internal/model/chat"
	"github.com/edubridge/tutor/backend/pkg/log"
)

// Options tunes the sessions a Service creates. Zero values select defaults.
type Options struct {
	FeedbackPool   []string
	FeedbackTTL    time.Duration
	FeedbackSource rand.Source
	ReplyTimeout   time.Duration
	Metrics        *metrics.Metrics
}

// Service keeps the running sessions in memory.
type Service struct {
	mu      sync.RWMutex
	loops   map[string]*Loop
	replier Replier
	opts    Options
}

// NewService builds a registry whose sessions answer through replier.
func NewService(replier Replier, opts Options) *Service {
	return &Service{
		loops:   make(map[string]*Loop),
		replier: replier,
		opts:    opts,
	}
}

// CreateSession opens a session in lang. An empty code selects English.
func (s *Service) CreateSession(ctx context.Context, lang chat.Language) (chat.Snapshot, error) {
	if lang == "" {
		lang = chat.English
	}
	if !lang.Supported() {
		return chat.Snapshot{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	emitter := NewEmitter(s.opts.FeedbackPool, s.opts.FeedbackTTL, s.opts.FeedbackSource)
	session := NewSession(uuid.NewString(), lang, emitter)
	loop := newLoop(session, s.replier, s.opts.Metrics, s.opts.ReplyTimeout)

	s.mu.Lock()
	s.loops[loop.ID()] = loop
	s.mu.Unlock()

	s.opts.Metrics.SessionOpened()
	log.Infow("session created", "session", loop.ID(), "language", lang)

	return loop.Snapshot(ctx)
}

// Get returns the loop for a session.
func (s *Service) Get(sessionID string) (*Loop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loop, ok := s.loops[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return loop, nil
}

// Submit forwards text to the session.
func (s *Service) Submit(ctx context.Context, sessionID, text string) (chat.Message, error) {
	loop, err := s.Get(sessionID)
	if err != nil {
		return chat.Message{}, err
	}
	return loop.Submit(ctx, text)
}

// ChangeLanguage switches the session's active language.
func (s *Service) ChangeLanguage(ctx context.Context, sessionID string, lang chat.Language) (chat.Snapshot, error) {
	loop, err := s.Get(sessionID)
	if err != nil {
		return chat.Snapshot{}, err
	}
	return loop.ChangeLanguage(ctx, lang)
}

// Snapshot returns a copy of the session.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (chat.Snapshot, error) {
	loop, err := s.Get(sessionID)
	if err != nil {
		return chat.Snapshot{}, err
	}
	return loop.Snapshot(ctx)
}

// End removes the session and stops its loop. A pending reply is cancelled.
func (s *Service) End(sessionID string) error {
	s.mu.Lock()
	loop, ok := s.loops[sessionID]
	delete(s.loops, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	loop.Close()
	s.opts.Metrics.SessionClosed()
	log.Infow("session ended", "session", sessionID)
	return nil
}

// Count reports the number of open sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.loops)
}

// Reap ends every session idle for longer than idle and returns how many it
// ended.
func (s *Service) Reap(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	s.mu.RLock()
	stale := make([]string, 0)
	for id, loop := range s.loops {
		if loop.LastActive().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()

	reaped := 0
	for _, id := range stale {
		if err := s.End(id); err == nil {
			reaped++
		}
	}
	return reaped
}

// Shutdown ends all sessions.
func (s *Service) Shutdown() {
	s.mu.Lock()
	loops := s.loops
	s.loops = make(map[string]*Loop)
	s.mu.Unlock()

	for _, loop := range loops {
		loop.Close()
		s.opts.Metrics.SessionClosed()
	}
}

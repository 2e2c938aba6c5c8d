package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edubridge/tutor/backend/internal/metrics"
	"github.com/edubridge/tutor/backend/internal/model/chat"
	"github.com/edubridge/tutor/backend/pkg/log"
)

// Replier computes the assistant's answer to one utterance.
type Replier interface {
	Reply(ctx context.Context, utterance string, lang chat.Language) (string, error)
}

// EventType names what changed in a session.
type EventType string

const (
	EventSnapshot        EventType = "snapshot"
	EventMessage         EventType = "message"
	EventReply           EventType = "reply"
	EventFeedback        EventType = "feedback"
	EventFeedbackCleared EventType = "feedback_cleared"
	EventNotice          EventType = "notice"
	EventLanguage        EventType = "language"
	EventSpeech          EventType = "speech"
	EventClosed          EventType = "closed"
)

// Event is published to subscribers after every change. Snapshot reflects the
// session immediately after the change.
type Event struct {
	Type      EventType     `json:"type"`
	SessionID string        `json:"sessionId"`
	Message   *chat.Message `json:"message,omitempty"`
	Feedback  string        `json:"feedback,omitempty"`
	Notice    *chat.Notice  `json:"notice,omitempty"`
	Snapshot  chat.Snapshot `json:"snapshot"`
}

const (
	mailboxSize    = 32
	subscriberSize = 16
)

// Loop owns a Session on a dedicated goroutine. Commands, reply completions
// and feedback expiry are all delivered through its mailbox, so the session is
// never touched from two goroutines.
type Loop struct {
	id        string
	session   *Session
	replier   Replier
	metrics   *metrics.Metrics
	timeout   time.Duration
	afterFunc func(time.Duration, func()) *time.Timer

	mailbox   chan func()
	done      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	// loop goroutine only
	seq           uint64
	cancelPending context.CancelFunc
	expiry        *time.Timer

	subMu     sync.Mutex
	subs      map[uint64]chan Event
	nextSub   uint64
	subClosed bool

	lastActive atomic.Int64
}

func newLoop(session *Session, replier Replier, m *metrics.Metrics, timeout time.Duration) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		id:        session.ID(),
		session:   session,
		replier:   replier,
		metrics:   m,
		timeout:   timeout,
		afterFunc: time.AfterFunc,
		mailbox:   make(chan func(), mailboxSize),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		subs:      make(map[uint64]chan Event),
	}
	l.touch()
	go l.run()
	return l
}

func (l *Loop) ID() string {
	return l.id
}

// LastActive is when the session last received a command.
func (l *Loop) LastActive() time.Time {
	return time.Unix(0, l.lastActive.Load())
}

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Close cancels any pending reply, notifies subscribers and stops the loop.
// It blocks until the loop goroutine has exited and is safe to call twice.
func (l *Loop) Close() {
	l.closeOnce.Do(l.cancel)
	<-l.done
}

// Submit appends a user message and starts computing the reply.
func (l *Loop) Submit(ctx context.Context, text string) (chat.Message, error) {
	var (
		msg chat.Message
		err error
	)
	if doErr := l.do(ctx, func() { msg, err = l.submit(text) }); doErr != nil {
		return chat.Message{}, doErr
	}
	return msg, err
}

// ChangeLanguage switches the active language of the session.
func (l *Loop) ChangeLanguage(ctx context.Context, lang chat.Language) (chat.Snapshot, error) {
	var (
		snapshot chat.Snapshot
		err      error
	)
	doErr := l.do(ctx, func() {
		if err = l.session.ChangeLanguage(lang); err != nil {
			return
		}
		snapshot = l.publish(Event{Type: EventLanguage})
	})
	if doErr != nil {
		return chat.Snapshot{}, doErr
	}
	return snapshot, err
}

// SetListening records the recognition toggle reported by the client.
func (l *Loop) SetListening(ctx context.Context, listening bool) error {
	return l.do(ctx, func() {
		l.session.SetListening(listening)
		l.publish(Event{Type: EventSpeech})
	})
}

// RecognitionFailed reports a speech-to-text failure. Only the listening flag
// changes.
func (l *Loop) RecognitionFailed(ctx context.Context, cause error) (chat.Notice, error) {
	var notice chat.Notice
	err := l.do(ctx, func() {
		notice = l.session.RecognitionFailed(cause)
		l.publishNotice(notice)
	})
	return notice, err
}

// SpeechStarted reports that the client began speaking a reply.
func (l *Loop) SpeechStarted(ctx context.Context) error {
	return l.do(ctx, func() {
		l.session.SpeechStarted()
		l.publish(Event{Type: EventSpeech})
	})
}

// SpeechEnded reports that playback finished.
func (l *Loop) SpeechEnded(ctx context.Context) error {
	return l.do(ctx, func() {
		l.session.SpeechEnded()
		l.publish(Event{Type: EventSpeech})
	})
}

// SpeechFailed reports a text-to-speech failure.
func (l *Loop) SpeechFailed(ctx context.Context, cause error) (chat.Notice, error) {
	var notice chat.Notice
	err := l.do(ctx, func() {
		notice = l.session.SpeechFailed(cause)
		l.publishNotice(notice)
	})
	return notice, err
}

// Snapshot returns a copy of the session.
func (l *Loop) Snapshot(ctx context.Context) (chat.Snapshot, error) {
	var snapshot chat.Snapshot
	err := l.do(ctx, func() { snapshot = l.session.Snapshot() })
	return snapshot, err
}

// Subscribe returns a stream of session events and a func that ends the
// subscription. Slow subscribers miss events rather than stall the session.
// The channel is closed when the session ends.
func (l *Loop) Subscribe() (<-chan Event, func()) {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	ch := make(chan Event, subscriberSize)
	if l.subClosed {
		close(ch)
		return ch, func() {}
	}

	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch

	return ch, func() {
		l.subMu.Lock()
		defer l.subMu.Unlock()
		if sub, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(sub)
		}
	}
}

func (l *Loop) run() {
	defer l.shutdown()
	for {
		select {
		case fn := <-l.mailbox:
			fn()
		case <-l.ctx.Done():
			return
		}
	}
}

func (l *Loop) shutdown() {
	if l.cancelPending != nil {
		l.cancelPending()
		l.cancelPending = nil
	}
	if l.expiry != nil {
		l.expiry.Stop()
	}

	closed := Event{Type: EventClosed, SessionID: l.id, Snapshot: l.session.Snapshot()}

	l.subMu.Lock()
	for id, ch := range l.subs {
		select {
		case ch <- closed:
		default:
		}
		close(ch)
		delete(l.subs, id)
	}
	l.subClosed = true
	l.subMu.Unlock()

	close(l.done)
}

// do runs fn on the loop goroutine and waits for it to finish. If ctx ends
// before fn is reached, fn is skipped and ctx.Err() is returned, so an error
// always means nothing changed.
func (l *Loop) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	ran := false
	if !l.post(func() {
		defer close(finished)
		if ctx.Err() != nil {
			return
		}
		ran = true
		fn()
	}) {
		return ErrSessionClosed
	}
	l.touch()

	select {
	case <-finished:
	case <-l.done:
		select {
		case <-finished:
		default:
			return ErrSessionClosed
		}
	}
	if !ran {
		return ctx.Err()
	}
	return nil
}

// post enqueues fn without waiting. It reports false once the loop is stopping.
func (l *Loop) post(fn func()) bool {
	select {
	case <-l.ctx.Done():
		return false
	default:
	}

	select {
	case l.mailbox <- fn:
		return true
	case <-l.ctx.Done():
		return false
	}
}

func (l *Loop) touch() {
	l.lastActive.Store(time.Now().UnixNano())
}

func (l *Loop) submit(text string) (chat.Message, error) {
	msg, err := l.session.Submit(text)
	if err != nil {
		l.metrics.SubmitRejected(rejectReason(err))
		return chat.Message{}, err
	}
	l.publish(Event{Type: EventMessage, Message: &msg})

	l.seq++
	seq := l.seq
	lang := l.session.Language()

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if l.timeout > 0 {
		ctx, cancel = context.WithTimeout(l.ctx, l.timeout)
	} else {
		ctx, cancel = context.WithCancel(l.ctx)
	}
	l.cancelPending = cancel

	go func() {
		reply, err := l.replier.Reply(ctx, text, lang)
		l.post(func() { l.complete(seq, reply, err) })
	}()

	return msg, nil
}

// complete applies a reply result. Results for anything but the current
// request are dropped.
func (l *Loop) complete(seq uint64, reply string, err error) {
	if seq != l.seq || l.session.State() != chat.StateAwaitingReply {
		return
	}
	if l.cancelPending != nil {
		l.cancelPending()
		l.cancelPending = nil
	}

	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty reply")
	}
	if err != nil {
		log.Warnw("reply failed", "session", l.id, "error", err)
		notice, nErr := l.session.ReplyFailed(err.Error())
		if nErr != nil {
			return
		}
		l.publishNotice(notice)
		return
	}

	msg, feedback, err := l.session.ReplyComputed(reply)
	if err != nil {
		return
	}
	l.publish(Event{Type: EventReply, Message: &msg})
	l.publish(Event{Type: EventFeedback, Feedback: feedback.Token})
	l.metrics.FeedbackEmitted()
	l.scheduleExpiry(feedback)
}

func (l *Loop) scheduleExpiry(feedback Feedback) {
	if l.expiry != nil {
		l.expiry.Stop()
	}
	generation := feedback.Generation
	l.expiry = l.afterFunc(l.session.Feedback().TTL(), func() {
		l.post(func() {
			if l.session.ExpireFeedback(generation) {
				l.publish(Event{Type: EventFeedbackCleared})
			}
		})
	})
}

func (l *Loop) publishNotice(notice chat.Notice) {
	l.metrics.Notice(string(notice.Kind))
	l.publish(Event{Type: EventNotice, Notice: &notice})
}

// publish fills in the session fields and fans the event out. It returns the
// snapshot it attached.
func (l *Loop) publish(ev Event) chat.Snapshot {
	ev.SessionID = l.id
	ev.Snapshot = l.session.Snapshot()

	l.subMu.Lock()
	defer l.subMu.Unlock()
	for _, ch := range l.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev.Snapshot
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrReplyPending):
		return "reply_pending"
	case errors.Is(err, ErrEmptyMessage):
		return "empty"
	default:
		return "other"
	}
}

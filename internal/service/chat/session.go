package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edubridge/tutor/backend/internal/model/chat"
)

// Session is the state machine behind one tutoring conversation:
//
//	idle|ready --Submit--> awaiting_reply --ReplyComputed|ReplyFailed--> ready
//
// ChangeLanguage and the speech callbacks are valid in every state. A Session
// has a single owner and performs no locking; Loop is that owner at runtime.
type Session struct {
	id         string
	state      chat.State
	transcript []chat.Message
	language   chat.Language
	listening  bool
	speaking   bool
	loading    bool
	feedback   *Emitter
	createdAt  time.Time
	now        func() time.Time
	newID      func() string
}

// NewSession opens a session whose transcript holds only the welcome message.
func NewSession(id string, lang chat.Language, feedback *Emitter) *Session {
	if feedback == nil {
		feedback = NewEmitter(nil, 0, nil)
	}

	s := &Session{
		id:       id,
		state:    chat.StateIdle,
		language: lang.OrDefault(),
		feedback: feedback,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	s.createdAt = s.now().UTC()
	s.transcript = append(make([]chat.Message, 0, 16), chat.Message{
		ID:        s.newID(),
		Text:      chat.WelcomeText(s.language),
		IsUser:    false,
		Timestamp: s.createdAt,
		Language:  s.language,
	})
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() chat.State {
	return s.state
}

// Language is the active language.
func (s *Session) Language() chat.Language {
	return s.language
}

// Feedback exposes the session's emitter.
func (s *Session) Feedback() *Emitter {
	return s.feedback
}

// Submit appends the user's message and waits for a reply. Only one reply may
// be outstanding; a second submit is refused without touching the transcript.
func (s *Session) Submit(text string) (chat.Message, error) {
	if s.state == chat.StateAwaitingReply {
		return chat.Message{}, ErrReplyPending
	}
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, ErrEmptyMessage
	}

	msg := s.appendMessage(text, true)
	s.loading = true
	s.state = chat.StateAwaitingReply
	return msg, nil
}

// ReplyComputed appends the assistant reply in the active language and emits a
// celebration token.
func (s *Session) ReplyComputed(text string) (chat.Message, Feedback, error) {
	if s.state != chat.StateAwaitingReply {
		return chat.Message{}, Feedback{}, fmt.Errorf("%w: reply computed while %s", ErrInvalidTransition, s.state)
	}

	msg := s.appendMessage(text, false)
	s.loading = false
	s.state = chat.StateReady
	return msg, s.feedback.Emit(), nil
}

// ReplyFailed abandons the pending reply. The transcript is left as is and the
// caller receives the notice to surface.
func (s *Session) ReplyFailed(reason string) (chat.Notice, error) {
	if s.state != chat.StateAwaitingReply {
		return chat.Notice{}, fmt.Errorf("%w: reply failed while %s", ErrInvalidTransition, s.state)
	}

	s.loading = false
	s.state = chat.StateReady
	return s.notice(chat.NoticeReplyFailure, reason), nil
}

// ChangeLanguage switches the active language and rewrites the welcome message
// in place. Nothing is appended and earlier replies are not revisited.
func (s *Session) ChangeLanguage(lang chat.Language) error {
	if !lang.Supported() {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	s.language = lang
	if len(s.transcript) > 0 {
		welcome := s.transcript[0]
		welcome.Text = chat.WelcomeText(lang)
		welcome.Language = lang
		s.transcript[0] = welcome
	}
	return nil
}

// SetListening mirrors the browser's recognition state.
func (s *Session) SetListening(listening bool) {
	s.listening = listening
}

// RecognitionFailed ends listening and returns the notice for err.
func (s *Session) RecognitionFailed(err error) chat.Notice {
	s.listening = false
	return s.notice(speechNoticeKind(err, chat.NoticeRecognitionFailure), errorText(err))
}

// SpeechStarted marks text-to-speech playback as running.
func (s *Session) SpeechStarted() {
	s.speaking = true
}

// SpeechEnded marks playback as finished.
func (s *Session) SpeechEnded() {
	s.speaking = false
}

// SpeechFailed ends playback and returns the notice for err.
func (s *Session) SpeechFailed(err error) chat.Notice {
	s.speaking = false
	return s.notice(speechNoticeKind(err, chat.NoticeSynthesisFailure), errorText(err))
}

// ExpireFeedback clears the token of the given generation.
func (s *Session) ExpireFeedback(generation uint64) bool {
	return s.feedback.Expire(generation)
}

// Snapshot copies the session so it can leave the owning goroutine.
func (s *Session) Snapshot() chat.Snapshot {
	token, _ := s.feedback.Current()
	return chat.Snapshot{
		ID:             s.id,
		State:          s.state,
		Transcript:     append([]chat.Message(nil), s.transcript...),
		ActiveLanguage: s.language,
		IsListening:    s.listening,
		IsSpeaking:     s.speaking,
		IsLoading:      s.loading,
		ActiveFeedback: token,
		CreatedAt:      s.createdAt,
	}
}

func (s *Session) appendMessage(text string, isUser bool) chat.Message {
	msg := chat.Message{
		ID:        s.newID(),
		Text:      text,
		IsUser:    isUser,
		Timestamp: s.now().UTC(),
		Language:  s.language,
	}
	s.transcript = append(s.transcript, msg)
	return msg
}

func (s *Session) notice(kind chat.NoticeKind, detail string) chat.Notice {
	return chat.Notice{
		Kind:    kind,
		Message: chat.NoticeMessage(kind),
		Detail:  detail,
		At:      s.now().UTC(),
	}
}

// speechNoticeKind keeps unsupported-capability reports distinct and files
// everything else under the bridge direction that failed.
func speechNoticeKind(err error, fallback chat.NoticeKind) chat.NoticeKind {
	if kind := chat.NoticeKindFor(err); kind != chat.NoticeReplyFailure {
		return kind
	}
	return fallback
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

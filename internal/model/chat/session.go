package chat

import (
	"errors"
	"time"
)

// State is the position of a session in its reply cycle.
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingReply State = "awaiting_reply"
	StateReady         State = "ready"
)

// Speech bridge failures reported by the browser. None of them is fatal.
var (
	ErrUnsupportedCapability = errors.New("speech capability unsupported")
	ErrRecognitionFailure    = errors.New("speech recognition failed")
	ErrSynthesisFailure      = errors.New("speech synthesis failed")
)

// NoticeKind classifies a transient user-visible notice.
type NoticeKind string

const (
	NoticeUnsupportedCapability NoticeKind = "unsupported_capability"
	NoticeRecognitionFailure    NoticeKind = "recognition_failure"
	NoticeSynthesisFailure      NoticeKind = "synthesis_failure"
	NoticeReplyFailure          NoticeKind = "reply_failure"
)

// Notice is surfaced to the user once and never stored in the transcript.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	Detail  string     `json:"detail,omitempty"`
	At      time.Time  `json:"at"`
}

var noticeMessages = map[NoticeKind]string{
	NoticeUnsupportedCapability: "Your browser doesn't support voice input or output.",
	NoticeRecognitionFailure:    "Couldn't capture voice. Please try again!",
	NoticeSynthesisFailure:      "Couldn't speak the text. Please try again!",
	NoticeReplyFailure:          "Couldn't get an answer right now. Please ask again!",
}

// NoticeMessage is the user-facing text for a notice kind.
func NoticeMessage(kind NoticeKind) string {
	if msg, ok := noticeMessages[kind]; ok {
		return msg
	}
	return noticeMessages[NoticeReplyFailure]
}

// NoticeKindFor maps a speech bridge error onto the notice shown to the user.
func NoticeKindFor(err error) NoticeKind {
	switch {
	case errors.Is(err, ErrUnsupportedCapability):
		return NoticeUnsupportedCapability
	case errors.Is(err, ErrSynthesisFailure):
		return NoticeSynthesisFailure
	case errors.Is(err, ErrRecognitionFailure):
		return NoticeRecognitionFailure
	default:
		return NoticeReplyFailure
	}
}

// Snapshot is a detached copy of a session, safe to hand to observers.
type Snapshot struct {
	ID             string    `json:"id"`
	State          State     `json:"state"`
	Transcript     []Message `json:"transcript"`
	ActiveLanguage Language  `json:"activeLanguage"`
	IsListening    bool      `json:"isListening"`
	IsSpeaking     bool      `json:"isSpeaking"`
	IsLoading      bool      `json:"isLoading"`
	ActiveFeedback string    `json:"activeFeedback,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

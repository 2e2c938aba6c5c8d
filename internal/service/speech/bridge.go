package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/edubridge/tutor/backend/internal/analysis/tone"
	"github.com/edubridge/tutor/backend/internal/model/chat"
	speechmodel "github.com/edubridge/tutor/backend/internal/model/speech"
)

// Session is the part of a running session the speech bridge drives.
type Session interface {
	Submit(ctx context.Context, text string) (chat.Message, error)
	SetListening(ctx context.Context, listening bool) error
	RecognitionFailed(ctx context.Context, cause error) (chat.Notice, error)
	SpeechStarted(ctx context.Context) error
	SpeechEnded(ctx context.Context) error
	SpeechFailed(ctx context.Context, cause error) (chat.Notice, error)
}

// ErrUnknownPlayback is returned for synthesizer events other than start, end
// and error.
var ErrUnknownPlayback = errors.New("unknown playback event")

// Playback events reported by the browser's synthesizer.
const (
	PlaybackStart = "start"
	PlaybackEnd   = "end"
	PlaybackError = "error"
)

// Browser error codes meaning the capability itself is missing, as opposed
// to a single attempt failing.
var unsupportedCodes = map[string]struct{}{
	"unsupported":            {},
	"not-supported":          {},
	"service-not-allowed":    {},
	"language-not-supported": {},
	"language-unavailable":   {},
	"synthesis-unavailable":  {},
	"voice-unavailable":      {},
}

// Instruction asks the browser to read a reply aloud.
type Instruction struct {
	MessageID string                   `json:"messageId"`
	Text      string                   `json:"text"`
	Voice     speechmodel.VoiceProfile `json:"voice"`
	Tone      tone.Decision            `json:"tone"`
}

// Failure converts a browser error code into an error under direction,
// which is chat.ErrRecognitionFailure or chat.ErrSynthesisFailure.
func Failure(direction error, code string) error {
	code = strings.ToLower(strings.TrimSpace(code))
	if _, ok := unsupportedCodes[code]; ok {
		return fmt.Errorf("%w: %s", chat.ErrUnsupportedCapability, code)
	}
	if code == "" {
		return direction
	}
	return fmt.Errorf("%w: %s", direction, code)
}

// Transcript submits recognised speech. Listening ends either way; an empty
// transcript counts as a recognition failure.
func Transcript(ctx context.Context, s Session, text string) (chat.Message, *chat.Notice, error) {
	if strings.TrimSpace(text) == "" {
		notice, err := s.RecognitionFailed(ctx, Failure(chat.ErrRecognitionFailure, "no-speech"))
		if err != nil {
			return chat.Message{}, nil, err
		}
		return chat.Message{}, &notice, nil
	}

	if err := s.SetListening(ctx, false); err != nil {
		return chat.Message{}, nil, err
	}
	msg, err := s.Submit(ctx, text)
	return msg, nil, err
}

// RecognitionError reports a failed recognition attempt.
func RecognitionError(ctx context.Context, s Session, code string) (chat.Notice, error) {
	return s.RecognitionFailed(ctx, Failure(chat.ErrRecognitionFailure, code))
}

// Playback applies a synthesizer event. A notice is returned for errors.
func Playback(ctx context.Context, s Session, event, code string) (*chat.Notice, error) {
	switch event {
	case PlaybackStart:
		return nil, s.SpeechStarted(ctx)
	case PlaybackEnd:
		return nil, s.SpeechEnded(ctx)
	case PlaybackError:
		notice, err := s.SpeechFailed(ctx, Failure(chat.ErrSynthesisFailure, code))
		if err != nil {
			return nil, err
		}
		return &notice, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownPlayback, event)
	}
}

// Speak builds the instruction for an assistant message answering utterance.
// User messages are never spoken.
func Speak(msg chat.Message, utterance string) (Instruction, bool) {
	if msg.IsUser || strings.TrimSpace(msg.Text) == "" {
		return Instruction{}, false
	}
	return Instruction{
		MessageID: msg.ID,
		Text:      msg.Text,
		Voice:     speechmodel.ResolveProfile(msg.Language),
		Tone:      tone.Analyze(utterance, msg.Text),
	}, true
}

// LastUtterance returns the newest user message before the final entry of
// transcript, which is the reply being spoken.
func LastUtterance(transcript []chat.Message) string {
	for i := len(transcript) - 2; i >= 0; i-- {
		if transcript[i].IsUser {
			return transcript[i].Text
		}
	}
	return ""
}

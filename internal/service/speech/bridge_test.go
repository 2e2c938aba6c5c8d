package speech_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubridge/tutor/backend/internal/analysis/tone"
	"github.com/edubridge/tutor/backend/internal/model/chat"
	chatservice "github.com/edubridge/tutor/backend/internal/service/chat"
	"github.com/edubridge/tutor/backend/internal/service/speech"
)

type echoReplier struct{}

func (echoReplier) Reply(_ context.Context, utterance string, _ chat.Language) (string, error) {
	return "echo: " + utterance, nil
}

func openSession(t *testing.T) (*chatservice.Service, *chatservice.Loop) {
	t.Helper()
	svc := chatservice.NewService(echoReplier{}, chatservice.Options{})
	t.Cleanup(svc.Shutdown)

	snap, err := svc.CreateSession(context.Background(), chat.Tamil)
	require.NoError(t, err)
	loop, err := svc.Get(snap.ID)
	require.NoError(t, err)
	return svc, loop
}

func TestFailureClassification(t *testing.T) {
	err := speech.Failure(chat.ErrRecognitionFailure, "not-supported")
	assert.ErrorIs(t, err, chat.ErrUnsupportedCapability)
	assert.Equal(t, chat.NoticeUnsupportedCapability, chat.NoticeKindFor(err))

	err = speech.Failure(chat.ErrSynthesisFailure, "interrupted")
	assert.ErrorIs(t, err, chat.ErrSynthesisFailure)

	assert.Equal(t, chat.ErrRecognitionFailure, speech.Failure(chat.ErrRecognitionFailure, ""))
}

func TestTranscriptSubmitsAndStopsListening(t *testing.T) {
	_, loop := openSession(t)
	ctx := context.Background()
	require.NoError(t, loop.SetListening(ctx, true))

	msg, notice, err := speech.Transcript(ctx, loop, "மின்சாரம் என்றால் என்ன?")
	require.NoError(t, err)
	assert.Nil(t, notice)
	assert.True(t, msg.IsUser)
	assert.Equal(t, "மின்சாரம் என்றால் என்ன?", msg.Text)

	// The echo reply may already have landed; only the user entry is fixed.
	snap, err := loop.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, snap.IsListening)
	require.GreaterOrEqual(t, len(snap.Transcript), 2)
	assert.Equal(t, msg.ID, snap.Transcript[1].ID)
	assert.True(t, snap.Transcript[1].IsUser)
}

func TestEmptyTranscriptIsRecognitionFailure(t *testing.T) {
	_, loop := openSession(t)
	ctx := context.Background()
	require.NoError(t, loop.SetListening(ctx, true))

	_, notice, err := speech.Transcript(ctx, loop, "  ")
	require.NoError(t, err)
	require.NotNil(t, notice)
	assert.Equal(t, chat.NoticeRecognitionFailure, notice.Kind)

	snap, err := loop.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, snap.IsListening)
	assert.Len(t, snap.Transcript, 1)
	assert.Equal(t, chat.StateIdle, snap.State)
}

func TestPlaybackEvents(t *testing.T) {
	_, loop := openSession(t)
	ctx := context.Background()

	_, err := speech.Playback(ctx, loop, speech.PlaybackStart, "")
	require.NoError(t, err)
	snap, _ := loop.Snapshot(ctx)
	assert.True(t, snap.IsSpeaking)

	notice, err := speech.Playback(ctx, loop, speech.PlaybackError, "voice-unavailable")
	require.NoError(t, err)
	require.NotNil(t, notice)
	assert.Equal(t, chat.NoticeUnsupportedCapability, notice.Kind)
	snap, _ = loop.Snapshot(ctx)
	assert.False(t, snap.IsSpeaking)

	_, err = speech.Playback(ctx, loop, "pause", "")
	assert.Error(t, err)
}

func TestRecognitionErrorNeverTouchesTranscript(t *testing.T) {
	_, loop := openSession(t)
	ctx := context.Background()

	notice, err := speech.RecognitionError(ctx, loop, "network")
	require.NoError(t, err)
	assert.Equal(t, chat.NoticeRecognitionFailure, notice.Kind)
	assert.Equal(t, chat.NoticeMessage(chat.NoticeRecognitionFailure), notice.Message)

	snap, _ := loop.Snapshot(ctx)
	assert.Len(t, snap.Transcript, 1)
}

func TestSpeakOnlyAssistantMessages(t *testing.T) {
	_, ok := speech.Speak(chat.Message{Text: "hi", IsUser: true}, "")
	assert.False(t, ok)

	instr, ok := speech.Speak(chat.Message{ID: "m1", Text: "வணக்கம்", Language: chat.Tamil}, "")
	require.True(t, ok)
	assert.Equal(t, "ta-IN", instr.Voice.Tag)
	assert.Equal(t, "m1", instr.MessageID)
	assert.Equal(t, tone.Neutral, instr.Tone.Tone)

	instr, ok = speech.Speak(chat.Message{ID: "m2", Text: "Let's look at it again.", Language: chat.English}, "this is too hard")
	require.True(t, ok)
	assert.Equal(t, tone.Encouraging, instr.Tone.Tone)
}

func TestLastUtterance(t *testing.T) {
	transcript := []chat.Message{
		{Text: "welcome"},
		{Text: "first", IsUser: true},
		{Text: "answer"},
		{Text: "second", IsUser: true},
		{Text: "answer two"},
	}
	assert.Equal(t, "second", speech.LastUtterance(transcript))
	assert.Equal(t, "", speech.LastUtterance(transcript[:1]))
}

func TestClosedSessionSurfacesError(t *testing.T) {
	svc, loop := openSession(t)
	require.NoError(t, svc.End(loop.ID()))

	_, err := speech.RecognitionError(context.Background(), loop, "aborted")
	assert.True(t, errors.Is(err, chatservice.ErrSessionClosed))
}

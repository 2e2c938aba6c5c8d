package speech

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubridge/tutor/backend/internal/model/chat"
)

type wireMessage struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId"`
	Data      map[string]any `json:"data"`
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/sessions/" + sessionID + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil collects message types until want arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) ([]string, wireMessage) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var seen []string
	for {
		var msg wireMessage
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %q after %v", want, seen)
		seen = append(seen, msg.Type)
		if msg.Type == want {
			return seen, msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": msgType, "data": data}))
}

func TestWebSocketTextRoundTripWithSpeech(t *testing.T) {
	svc, router := newRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	snap, err := svc.CreateSession(t.Context(), chat.English)
	require.NoError(t, err)

	conn := dial(t, server, snap.ID)
	_, first := readUntil(t, conn, "snapshot")
	assert.Equal(t, snap.ID, first.SessionID)

	send(t, conn, "text", TextMessage{Text: "How do plants grow?"})

	_, speak := readUntil(t, conn, "speak")
	assert.Equal(t, "echo: How do plants grow?", speak.Data["text"])
	voice, ok := speak.Data["voice"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "en-US", voice["tag"])
	toneData, ok := speak.Data["tone"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, toneData["tone"])

	readUntil(t, conn, "feedback")

	current, err := svc.Snapshot(t.Context(), snap.ID)
	require.NoError(t, err)
	require.Len(t, current.Transcript, 3)
	assert.True(t, current.Transcript[1].IsUser)
}

func TestWebSocketTranscriptAndPlayback(t *testing.T) {
	svc, router := newRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	snap, err := svc.CreateSession(t.Context(), chat.Hindi)
	require.NoError(t, err)

	conn := dial(t, server, snap.ID)
	readUntil(t, conn, "snapshot")

	send(t, conn, "listening", ListeningMessage{Listening: true})
	readUntil(t, conn, "speech")

	send(t, conn, "transcript", TextMessage{Text: ""})
	_, notice := readUntil(t, conn, "notice")
	inner, ok := notice.Data["notice"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(chat.NoticeRecognitionFailure), inner["kind"])

	send(t, conn, "tts", TTSMessage{Event: "start"})
	readUntil(t, conn, "speech")
	current, err := svc.Snapshot(t.Context(), snap.ID)
	require.NoError(t, err)
	assert.True(t, current.IsSpeaking)
	assert.False(t, current.IsListening)

	send(t, conn, "synthesis_error", ErrorMessage{Code: "voice-unavailable"})
	_, notice = readUntil(t, conn, "notice")
	inner, ok = notice.Data["notice"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(chat.NoticeUnsupportedCapability), inner["kind"])

	current, err = svc.Snapshot(t.Context(), snap.ID)
	require.NoError(t, err)
	assert.False(t, current.IsSpeaking)
	assert.Len(t, current.Transcript, 1)
}

func TestWebSocketConfigSwitchesLanguageAndMutesSpeech(t *testing.T) {
	svc, router := newRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	snap, err := svc.CreateSession(t.Context(), chat.English)
	require.NoError(t, err)

	conn := dial(t, server, snap.ID)
	readUntil(t, conn, "snapshot")

	mute := false
	send(t, conn, "config", ConfigMessage{Language: "ta", Speak: &mute})
	_, cfg := readUntil(t, conn, "config")
	assert.Equal(t, false, cfg.Data["speak"])

	current, err := svc.Snapshot(t.Context(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.Tamil, current.ActiveLanguage)
	assert.Equal(t, chat.WelcomeText(chat.Tamil), current.Transcript[0].Text)

	send(t, conn, "text", TextMessage{Text: "Count to three"})
	seen, _ := readUntil(t, conn, "feedback")
	assert.NotContains(t, seen, "speak")
}

func TestWebSocketReportsErrors(t *testing.T) {
	svc, router := newRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	snap, err := svc.CreateSession(t.Context(), chat.English)
	require.NoError(t, err)

	conn := dial(t, server, snap.ID)
	readUntil(t, conn, "snapshot")

	send(t, conn, "text", TextMessage{Text: "   "})
	_, msg := readUntil(t, conn, "error")
	assert.EqualValues(t, http.StatusBadRequest, msg.Data["status"])

	send(t, conn, "config", ConfigMessage{Language: "fr"})
	_, msg = readUntil(t, conn, "error")
	assert.EqualValues(t, http.StatusBadRequest, msg.Data["status"])

	send(t, conn, "dance", map[string]any{})
	_, msg = readUntil(t, conn, "error")
	assert.EqualValues(t, http.StatusBadRequest, msg.Data["status"])
}

func TestWebSocketClosesWhenSessionEnds(t *testing.T) {
	svc, router := newRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	snap, err := svc.CreateSession(t.Context(), chat.English)
	require.NoError(t, err)

	conn := dial(t, server, snap.ID)
	readUntil(t, conn, "snapshot")

	require.NoError(t, svc.End(snap.ID))
	readUntil(t, conn, "closed")
}

func TestWebSocketUnknownSession(t *testing.T) {
	_, router := newRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/sessions/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

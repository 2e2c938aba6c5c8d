package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubridge/tutor/backend/internal/model/chat"
	chatservice "github.com/edubridge/tutor/backend/internal/service/chat"
)

// blockingReplier never answers until the request context ends.
type blockingReplier struct{}

func (blockingReplier) Reply(ctx context.Context, _ string, _ chat.Language) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func setupRouter(t *testing.T) (*chi.Mux, *chatservice.Service) {
	t.Helper()
	svc := chatservice.NewService(blockingReplier{}, chatservice.Options{})
	t.Cleanup(svc.Shutdown)

	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)
	return r, svc
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func createSession(t *testing.T, r http.Handler, body string) chat.Snapshot {
	t.Helper()
	rr := do(r, http.MethodPost, "/sessions", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var snap chat.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	return snap
}

func TestCreateSession(t *testing.T) {
	r, _ := setupRouter(t)

	snap := createSession(t, r, `{"language":"ta-IN"}`)
	assert.Equal(t, chat.Tamil, snap.ActiveLanguage)
	require.Len(t, snap.Transcript, 1)
	assert.Equal(t, chat.WelcomeText(chat.Tamil), snap.Transcript[0].Text)

	snap = createSession(t, r, ``)
	assert.Equal(t, chat.English, snap.ActiveLanguage)
}

func TestCreateSessionWithEmptyBody(t *testing.T) {
	r, _ := setupRouter(t)

	snap := createSession(t, r, "")
	assert.Equal(t, chat.English, snap.ActiveLanguage)

	// Chunked uploads report an unknown length.
	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(""))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(r, http.MethodPost, "/sessions", `{"language":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateSessionUnsupportedLanguage(t *testing.T) {
	r, _ := setupRouter(t)

	rr := do(r, http.MethodPost, "/sessions", `{"language":"fr"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSubmitStatuses(t *testing.T) {
	r, _ := setupRouter(t)
	snap := createSession(t, r, `{"language":"en"}`)
	path := "/sessions/" + snap.ID + "/messages"

	rr := do(r, http.MethodPost, path, `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(r, http.MethodPost, path, `{"text":"What is electricity?"}`)
	require.Equal(t, http.StatusAccepted, rr.Code)
	var msg chat.Message
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &msg))
	assert.True(t, msg.IsUser)

	rr = do(r, http.MethodPost, path, `{"text":"again"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(r, http.MethodGet, "/sessions/"+snap.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got chat.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Len(t, got.Transcript, 2)
	assert.True(t, got.IsLoading)

	rr = do(r, http.MethodPost, "/sessions/missing/messages", `{"text":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestChangeLanguage(t *testing.T) {
	r, _ := setupRouter(t)
	snap := createSession(t, r, `{"language":"en"}`)
	path := "/sessions/" + snap.ID + "/language"

	rr := do(r, http.MethodPut, path, `{"language":"hi"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var got chat.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, chat.Hindi, got.ActiveLanguage)
	assert.Equal(t, chat.WelcomeText(chat.Hindi), got.Transcript[0].Text)
	assert.Len(t, got.Transcript, 1)

	rr = do(r, http.MethodPut, path, `{"language":"klingon"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEndSession(t *testing.T) {
	r, svc := setupRouter(t)
	snap := createSession(t, r, `{}`)

	rr := do(r, http.MethodDelete, "/sessions/"+snap.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 0, svc.Count())

	rr = do(r, http.MethodGet, "/sessions/"+snap.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

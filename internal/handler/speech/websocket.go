package speech

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/edubridge/tutor/backend/internal/handler/session"
	"github.com/edubridge/tutor/backend/internal/model/chat"
	chatservice "github.com/edubridge/tutor/backend/internal/service/chat"
	speechsvc "github.com/edubridge/tutor/backend/internal/service/speech"
	"github.com/edubridge/tutor/backend/pkg/log"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

var errInvalidPayload = errors.New("invalid message payload")

// Inbound message types sent by the browser.
const (
	inText             = "text"
	inTranscript       = "transcript"
	inListening        = "listening"
	inRecognitionError = "recognition_error"
	inSynthesisError   = "synthesis_error"
	inTTS              = "tts"
	inConfig           = "config"
)

// Outbound message types that are not session events.
const (
	outSpeak  = "speak"
	outError  = "error"
	outConfig = "config"
)

// WebSocketHandler bridges the browser's speech APIs to a session.
type WebSocketHandler struct {
	sessions *chatservice.Service
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates the websocket bridge.
func NewWebSocketHandler(sessions *chatservice.Service) *WebSocketHandler {
	return &WebSocketHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes mounts the websocket endpoint.
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TextMessage carries typed text or a recognised transcript.
type TextMessage struct {
	Text string `json:"text"`
}

// ListeningMessage toggles the microphone state.
type ListeningMessage struct {
	Listening bool `json:"listening"`
}

// ErrorMessage reports a browser speech error code.
type ErrorMessage struct {
	Code string `json:"code"`
}

// TTSMessage reports a synthesizer event: start, end or error.
type TTSMessage struct {
	Event string `json:"event"`
	Code  string `json:"code,omitempty"`
}

// ConfigMessage changes the session language or the auto-speak toggle.
type ConfigMessage struct {
	Language string `json:"language"`
	Speak    *bool  `json:"speak,omitempty"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// connection serialises writes; gorilla allows one concurrent writer.
type connection struct {
	conn      *websocket.Conn
	sessionID string
	loop      *chatservice.Loop
	speak     atomic.Bool
	writeMu   sync.Mutex
}

func (c *connection) send(msgType string, data interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(outgoingMessage{
		Type:      msgType,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

func (c *connection) sendError(message string, status int) {
	if err := c.send(outError, map[string]any{"message": message, "status": status}); err != nil {
		log.Warnw("websocket write error failed", "session", c.sessionID, "error", err)
	}
}

func (c *connection) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	loop, err := h.sessions.Get(sessionID)
	if err != nil {
		http.Error(w, err.Error(), session.StatusFor(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnw("websocket upgrade failed", "session", sessionID, "error", err)
		return
	}
	defer conn.Close()

	c := &connection{conn: conn, sessionID: sessionID, loop: loop}
	c.speak.Store(true)
	log.Infow("websocket connected", "session", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe := loop.Subscribe()
	defer unsubscribe()

	snapshot, err := loop.Snapshot(ctx)
	if err != nil {
		c.sendError(err.Error(), session.StatusFor(err))
		return
	}
	if err := c.send(string(chatservice.EventSnapshot), snapshot); err != nil {
		return
	}

	go h.forward(ctx, cancel, c, events)
	go h.pingLoop(ctx, c)

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnw("websocket read error", "session", sessionID, "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		h.handleMessage(ctx, c, &msg)

		if ctx.Err() != nil {
			return
		}
	}
}

// forward relays session events and adds speak instructions for replies.
func (h *WebSocketHandler) forward(ctx context.Context, cancel context.CancelFunc, c *connection, events <-chan chatservice.Event) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				_ = c.conn.Close()
				return
			}
			if err := c.send(string(ev.Type), ev); err != nil {
				return
			}
			if ev.Type == chatservice.EventReply && ev.Message != nil && c.speak.Load() {
				if instr, ok := speechsvc.Speak(*ev.Message, speechsvc.LastUtterance(ev.Snapshot.Transcript)); ok {
					if err := c.send(outSpeak, instr); err != nil {
						return
					}
				}
			}
			if ev.Type == chatservice.EventClosed {
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, c *connection, msg *inboundMessage) {
	var err error
	switch msg.Type {
	case inText:
		var text TextMessage
		if err = decode(msg.Data, &text); err == nil {
			_, err = c.loop.Submit(ctx, text.Text)
		}
	case inTranscript:
		var text TextMessage
		if err = decode(msg.Data, &text); err == nil {
			_, _, err = speechsvc.Transcript(ctx, c.loop, text.Text)
		}
	case inListening:
		var listening ListeningMessage
		if err = decode(msg.Data, &listening); err == nil {
			err = c.loop.SetListening(ctx, listening.Listening)
		}
	case inRecognitionError:
		var report ErrorMessage
		if err = decode(msg.Data, &report); err == nil {
			_, err = speechsvc.RecognitionError(ctx, c.loop, report.Code)
		}
	case inSynthesisError:
		var report ErrorMessage
		if err = decode(msg.Data, &report); err == nil {
			_, err = speechsvc.Playback(ctx, c.loop, speechsvc.PlaybackError, report.Code)
		}
	case inTTS:
		var tts TTSMessage
		if err = decode(msg.Data, &tts); err == nil {
			_, err = speechsvc.Playback(ctx, c.loop, tts.Event, tts.Code)
		}
	case inConfig:
		err = h.applyConfig(ctx, c, msg.Data)
	default:
		c.sendError("unsupported message type: "+msg.Type, http.StatusBadRequest)
		return
	}

	if err != nil {
		c.sendError(err.Error(), statusFor(err))
	}
}

func statusFor(err error) int {
	if errors.Is(err, errInvalidPayload) || errors.Is(err, speechsvc.ErrUnknownPlayback) {
		return http.StatusBadRequest
	}
	return session.StatusFor(err)
}

func (h *WebSocketHandler) applyConfig(ctx context.Context, c *connection, raw json.RawMessage) error {
	var cfg ConfigMessage
	if err := decode(raw, &cfg); err != nil {
		return err
	}

	if cfg.Language != "" {
		lang, ok := chat.ParseLanguage(cfg.Language)
		if !ok {
			return chatservice.ErrUnsupportedLanguage
		}
		if _, err := c.loop.ChangeLanguage(ctx, lang); err != nil {
			return err
		}
	}
	if cfg.Speak != nil {
		c.speak.Store(*cfg.Speak)
	}

	log.Infow("websocket config applied", "session", c.sessionID, "language", cfg.Language, "speak", c.speak.Load())
	return c.send(outConfig, map[string]any{"speak": c.speak.Load()})
}

func decode(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return errInvalidPayload
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errInvalidPayload
	}
	return nil
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, c *connection) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

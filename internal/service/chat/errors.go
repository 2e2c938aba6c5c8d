package chat

import "errors"

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionClosed       = errors.New("session closed")
	ErrEmptyMessage        = errors.New("message text is required")
	ErrReplyPending        = errors.New("a reply is already pending")
	ErrInvalidTransition   = errors.New("invalid session transition")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

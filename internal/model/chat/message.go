package chat

import "time"

// Message is one transcript entry. Entries are immutable once appended; the
// only exception is the welcome message, which follows the active language.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
	Language  Language  `json:"language"`
}

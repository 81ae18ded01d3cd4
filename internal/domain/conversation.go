package domain

import "time"

// Conversation is a single persisted chat turn. Records are append-only:
// one is written per successful turn and never updated or deleted.
// AIResponse is the tag-stripped text shown to the user, including any
// appended fallback notice.
type Conversation struct {
	Owner       string
	UserMessage string
	AIResponse  string
	Timestamp   time.Time
}

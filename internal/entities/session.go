package entities

import "time"

// Message roles in a chat session.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is the unit of sync between the local cache and the remote
// store. PendingUserQuestion and KnownModel carry clarification state across
// turns and live only in the local cache.
type ChatSession struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	AgentID             string    `json:"agent_id"`
	Title               string    `json:"title"`
	LastMessageAt       time.Time `json:"last_message_at"`
	Preview             string    `json:"preview"`
	IsArchived          bool      `json:"is_archived"`
	Messages            []Message `json:"messages"`
	PendingUserQuestion string    `json:"pending_user_question,omitempty"`
	KnownModel          string    `json:"known_model,omitempty"`
}

// QuotaWindow is one user's rolling 24h consumption record.
type QuotaWindow struct {
	UserID      string    `json:"user_id"`
	WindowStart time.Time `json:"window_start"`
	Used        int       `json:"used"`
}

// QuotaStatus is the read-model handed to callers before and after a charge.
// Limit and Remaining use the Unlimited sentinel for uncapped plans; ResetAt
// is zero when nothing has been consumed yet.
type QuotaStatus struct {
	Plan              string    `json:"plan"`
	Limit             int       `json:"limit"`
	Used              int       `json:"used"`
	Remaining         int       `json:"remaining"`
	IsBlocked         bool      `json:"is_blocked"`
	ResetAt           time.Time `json:"reset_at,omitempty"`
	SecondsUntilReset int64     `json:"seconds_until_reset"`
}

// AskContext parameterizes a retrieval query.
type AskContext struct {
	SystemInstruction string
	BrandFilter       string
	History           []Message
}

// Answer is the retrieval backend's reply for one question.
type Answer struct {
	Text           string
	DocumentsFound int
}

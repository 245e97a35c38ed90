package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is the title of a conversation before its first user message.
const DefaultTitle = "New Chat"

const (
	provisionalConversationPrefix = "local-"
	provisionalMessagePrefix      = "temp-"
	messageIDPrefix               = "msg-"
)

// Conversation is an ordered log of messages with a mutable title.
//
// Key is a process-local surrogate identifier that stays stable when the
// public ID is swapped from provisional to confirmed, so in-flight
// reconciliation can always find the same conversation. It is minted on
// creation and on snapshot load, and is never serialized.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Key string `json:"-"`
}

// NewConversation mints a provisional conversation with a fresh surrogate key.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        NewProvisionalConversationID(),
		Title:     DefaultTitle,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
		Key:       NewKey(),
	}
}

// NewKey mints a surrogate key.
func NewKey() string {
	return uuid.NewString()
}

// NewProvisionalConversationID mints a conversation id that has not been
// acknowledged by the remote service.
func NewProvisionalConversationID() string {
	return provisionalConversationPrefix + uuid.NewString()
}

// NewProvisionalMessageID mints a message id for an optimistic local insert.
func NewProvisionalMessageID() string {
	return provisionalMessagePrefix + uuid.NewString()
}

// NewMessageID mints a non-provisional message id for locally finalized
// entries (assistant replies produced without a remote confirmation step).
func NewMessageID() string {
	return messageIDPrefix + uuid.NewString()
}

// IsProvisionalConversationID reports whether id was minted locally and is
// still awaiting remote confirmation.
func IsProvisionalConversationID(id string) bool {
	return strings.HasPrefix(id, provisionalConversationPrefix)
}

// IsProvisionalMessageID reports whether id marks an optimistic local insert.
func IsProvisionalMessageID(id string) bool {
	return strings.HasPrefix(id, provisionalMessagePrefix)
}

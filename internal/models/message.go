package models

import (
	"time"
)

// Role identifies the author side of a message. The set is closed;
// anything outside it is rejected at the validation boundary.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant:
		return true
	}
	return false
}

// ContentKind identifies what a message carries.
type ContentKind string

const (
	KindText  ContentKind = "text"
	KindFile  ContentKind = "file"
	KindImage ContentKind = "image"
)

// Valid reports whether k is one of the known content kinds.
func (k ContentKind) Valid() bool {
	switch k {
	case KindText, KindFile, KindImage:
		return true
	}
	return false
}

// Attachment is an immutable file reference carried by a message.
// Data is the transient upload payload; it never survives serialization
// and must not be relied upon after a reload.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
	Data []byte `json:"-"`
}

// Message is one entry in a conversation log.
type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversationId"`
	Role           Role         `json:"role"`
	Kind           ContentKind  `json:"type"`
	Content        string       `json:"content"`
	Provider       Provider     `json:"provider,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// Draft is the caller-supplied input for appending a message.
type Draft struct {
	Content     string
	Role        Role
	Provider    Provider
	Attachments []Attachment
}

package snapshot

import (
	"time"

	"pulse-chat/internal/models"
)

// State is the serialized shape of everything the state manager persists:
// the conversation list, the active selection and the provider choice.
// Transient data (attachment payload handles, surrogate keys) is excluded
// by the models' own serialization rules.
type State struct {
	Conversations        []models.Conversation `json:"conversations"`
	ActiveConversationID string                `json:"activeConversationId,omitempty"`
	Provider             models.Provider       `json:"selectedProvider"`
	SavedAt              time.Time             `json:"savedAt"`
}

// Store is the durable key-value capability behind the state manager.
// Load returns (nil, nil) when no snapshot has ever been written.
type Store interface {
	Load() (*State, error)
	Save(state *State) error
	Close() error
}

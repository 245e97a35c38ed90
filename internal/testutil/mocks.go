package testutil

import (
	"context"
	"errors"
	"sync"

	"pulse-chat/internal/gateway"
	"pulse-chat/internal/models"
	"pulse-chat/internal/remote"
	"pulse-chat/internal/snapshot"
)

// MockStore is a mock implementation of snapshot.Store for testing. It
// records every saved state in memory.
type MockStore struct {
	mu sync.Mutex

	LoadFunc func() (*snapshot.State, error)
	SaveFunc func(state *snapshot.State) error

	saved []*snapshot.State
}

func (m *MockStore) Load() (*snapshot.State, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return nil, nil
}

func (m *MockStore) Save(state *snapshot.State) error {
	m.mu.Lock()
	m.saved = append(m.saved, state)
	m.mu.Unlock()

	if m.SaveFunc != nil {
		return m.SaveFunc(state)
	}
	return nil
}

func (m *MockStore) Close() error {
	return nil
}

// SaveCount returns the number of Save calls so far.
func (m *MockStore) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

// LastSaved returns the most recently saved state, or nil.
func (m *MockStore) LastSaved() *snapshot.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return nil
	}
	return m.saved[len(m.saved)-1]
}

// MockGenerator is a mock implementation of gateway.Generator for testing
type MockGenerator struct {
	GenerateTextFunc     func(ctx context.Context, provider models.Provider, req gateway.TextRequest) (*gateway.TextResponse, error)
	GenerateWithFileFunc func(ctx context.Context, provider models.Provider, req gateway.FileRequest) (*gateway.TextResponse, error)
	GenerateImageFunc    func(ctx context.Context, req gateway.ImageRequest) (*gateway.ImageResponse, error)
}

func (m *MockGenerator) GenerateText(ctx context.Context, provider models.Provider, req gateway.TextRequest) (*gateway.TextResponse, error) {
	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, provider, req)
	}
	return nil, errors.New("not implemented")
}

func (m *MockGenerator) GenerateWithFile(ctx context.Context, provider models.Provider, req gateway.FileRequest) (*gateway.TextResponse, error) {
	if m.GenerateWithFileFunc != nil {
		return m.GenerateWithFileFunc(ctx, provider, req)
	}
	return nil, errors.New("not implemented")
}

func (m *MockGenerator) GenerateImage(ctx context.Context, req gateway.ImageRequest) (*gateway.ImageResponse, error) {
	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

// MockService is a mock implementation of remote.Service for testing
type MockService struct {
	ListConversationsFunc  func(ctx context.Context) ([]models.Conversation, error)
	CreateConversationFunc func(ctx context.Context, title string) (*models.Conversation, error)
	DeleteConversationFunc func(ctx context.Context, id string) error
	SendMessageFunc        func(ctx context.Context, req remote.SendMessageRequest) (*remote.SendMessageResult, error)
}

func (m *MockService) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	if m.ListConversationsFunc != nil {
		return m.ListConversationsFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *MockService) CreateConversation(ctx context.Context, title string) (*models.Conversation, error) {
	if m.CreateConversationFunc != nil {
		return m.CreateConversationFunc(ctx, title)
	}
	return nil, errors.New("not implemented")
}

func (m *MockService) DeleteConversation(ctx context.Context, id string) error {
	if m.DeleteConversationFunc != nil {
		return m.DeleteConversationFunc(ctx, id)
	}
	return errors.New("not implemented")
}

func (m *MockService) SendMessage(ctx context.Context, req remote.SendMessageRequest) (*remote.SendMessageResult, error) {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

// MockTokenSource is a mock implementation of auth.TokenSource for testing
type MockTokenSource struct {
	TokenFunc func() (string, bool)
}

func (m *MockTokenSource) Token() (string, bool) {
	if m.TokenFunc != nil {
		return m.TokenFunc()
	}
	return "", false
}

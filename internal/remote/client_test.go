package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pulse-chat/internal/auth"
	"pulse-chat/internal/models"
)

type staticToken string

func (s staticToken) Token() (string, bool) {
	return string(s), s != ""
}

func TestListConversations_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/conversations" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization: got %q", got)
		}
		json.NewEncoder(w).Encode([]models.Conversation{
			{ID: "conv-1", Title: "First", Messages: []models.Message{{ID: "msg-1", Content: "hi"}}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, staticToken("tok"))
	conversations, err := client.ListConversations(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conversations) != 1 || conversations[0].ID != "conv-1" {
		t.Errorf("conversations: %+v", conversations)
	}
	if len(conversations[0].Messages) != 1 {
		t.Error("nested messages should be decoded")
	}
}

func TestCreateConversation_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/conversations" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		var payload struct {
			Title string `json:"title"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		if payload.Title != "New Chat" {
			t.Errorf("title: got %q", payload.Title)
		}
		json.NewEncoder(w).Encode(models.Conversation{ID: "conv-42", Title: payload.Title})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, staticToken("tok"))
	conv, err := client.CreateConversation(context.Background(), "New Chat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.ID != "conv-42" {
		t.Errorf("id: got %s", conv.ID)
	}
}

func TestDeleteConversation_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/conversations/conv-1" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, staticToken("tok"))
	if err := client.DeleteConversation(context.Background(), "conv-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSendMessage_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/messages" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		var req SendMessageRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Content != "hello" || req.Provider != models.ProviderClaude || req.ConversationID != "conv-1" {
			t.Errorf("request: %+v", req)
		}
		json.NewEncoder(w).Encode(SendMessageResult{
			UserMessage: models.Message{ID: "msg-1", Role: models.RoleUser, Content: req.Content},
			AIMessage:   models.Message{ID: "msg-2", Role: models.RoleAssistant, Content: "hi"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, staticToken("tok"))
	result, err := client.SendMessage(context.Background(), SendMessageRequest{
		Content:        "hello",
		Kind:           models.KindText,
		Provider:       models.ProviderClaude,
		ConversationID: "conv-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.UserMessage.ID != "msg-1" || result.AIMessage.Content != "hi" {
		t.Errorf("result: %+v", result)
	}
}

func TestDo_NoCredentialShortCircuits(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, staticToken(""))
	_, err := client.ListConversations(context.Background())
	if !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
	if called {
		t.Error("no network attempt may happen without a credential")
	}
}

func TestDo_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, staticToken("tok"))
	if _, err := client.ListConversations(context.Background()); err == nil {
		t.Error("expected error for non-success status")
	}
}

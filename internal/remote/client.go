package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"pulse-chat/internal/auth"
	"pulse-chat/internal/logger"
	"pulse-chat/internal/models"
)

// SendMessageRequest is the payload of the combined send-and-receive round trip.
type SendMessageRequest struct {
	Content        string              `json:"content"`
	Kind           models.ContentKind  `json:"type"`
	Provider       models.Provider     `json:"model"`
	ConversationID string              `json:"conversationId"`
	Attachments    []models.Attachment `json:"attachments,omitempty"`
}

// SendMessageResult carries the persisted user message and the generated reply.
type SendMessageResult struct {
	UserMessage models.Message `json:"userMessage"`
	AIMessage   models.Message `json:"aiMessage"`
}

// Service is the boundary contract of the remote conversation service.
// Every call fails fast with auth.ErrNotAuthenticated when no credential
// is available; any non-success HTTP response is a uniform failure.
type Service interface {
	ListConversations(ctx context.Context) ([]models.Conversation, error)
	CreateConversation(ctx context.Context, title string) (*models.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResult, error)
}

// Client talks to the remote conversation service over HTTP with a bearer
// credential on every request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     auth.TokenSource
}

var _ Service = (*Client)(nil)

// NewClient creates a conversation service client. A nil httpClient falls
// back to http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client, tokens auth.TokenSource) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     tokens,
	}
}

// ListConversations fetches the user's conversations with nested messages.
func (c *Client) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	body, err := c.do(ctx, http.MethodGet, "/conversations", nil)
	if err != nil {
		return nil, err
	}

	var conversations []models.Conversation
	if err := json.Unmarshal(body, &conversations); err != nil {
		return nil, fmt.Errorf("error decoding conversations: %w", err)
	}

	logger.Log.WithField("count", len(conversations)).Debug("Fetched remote conversations")
	return conversations, nil
}

// CreateConversation registers a conversation and returns its confirmed form.
func (c *Client) CreateConversation(ctx context.Context, title string) (*models.Conversation, error) {
	payload := struct {
		Title string `json:"title"`
	}{Title: title}

	body, err := c.do(ctx, http.MethodPost, "/conversations", payload)
	if err != nil {
		return nil, err
	}

	var conversation models.Conversation
	if err := json.Unmarshal(body, &conversation); err != nil {
		return nil, fmt.Errorf("error decoding conversation: %w", err)
	}

	logger.Log.WithField("conversation_id", conversation.ID).Debug("Remote conversation created")
	return &conversation, nil
}

// DeleteConversation removes a conversation on the remote side.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/conversations/"+id, nil)
	return err
}

// SendMessage performs the send-and-receive round trip: the service persists
// the user message, generates the reply, and returns both confirmed entries.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/messages", req)
	if err != nil {
		return nil, err
	}

	var result SendMessageResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("error decoding message result: %w", err)
	}

	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	token, ok := c.tokens.Token()
	if !ok {
		// Short-circuit locally, no network attempt.
		return nil, auth.ErrNotAuthenticated
	}

	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("error marshaling request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Log.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
	}).Debug("Calling conversation service")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("conversation service returned status %d: %s", resp.StatusCode, string(body))
	}
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	return body, nil
}

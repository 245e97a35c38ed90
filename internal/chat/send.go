package chat

import (
	"context"
	"path"
	"time"

	"github.com/sirupsen/logrus"

	"pulse-chat/internal/gateway"
	"pulse-chat/internal/logger"
	"pulse-chat/internal/models"
	"pulse-chat/internal/remote"
	"pulse-chat/pkg/validation"
)

const titleMaxRunes = 30

// Fixed transcript strings. Failures become part of the conversation so
// they survive reloads alongside ordinary assistant replies.
const (
	generationFailedText = "Sorry, I encountered an error while processing your request. Please try again."
	imageFailedText      = "Sorry, I encountered an error while generating the image. Please try again."
	imagePromptMissing   = "Please describe the image you want me to generate, e.g. /image a red fox in the snow."
	imagePlaceholderText = "..."
)

// AppendMessage appends a provisional message from draft to the target
// conversation, derives the title on a first user message, persists the
// snapshot and returns the inserted message, all synchronously. For user
// messages the generation round trip then runs in the background: the reply
// (or a fixed error notice) is appended on completion, and the user's own
// message is never retracted.
//
// An empty conversationID with an empty list creates a conversation
// implicitly. An unknown id is absorbed silently, mirroring mid-flight
// deletion semantics.
func (m *Manager) AppendMessage(conversationID string, draft models.Draft) (*models.Message, error) {
	if err := m.validator.ValidateDraft(draft); err != nil {
		return nil, err
	}

	m.mu.Lock()

	var conv *models.Conversation
	implicitCreate := false
	if conversationID == "" && len(m.conversations) == 0 {
		conv = m.createLocked()
		implicitCreate = true
	} else {
		idx := m.findByIDLocked(conversationID)
		if idx < 0 {
			m.mu.Unlock()
			logger.Log.WithField("conversation_id", conversationID).Warn("Dropping message for unknown conversation")
			return nil, nil
		}
		conv = m.conversations[idx]
	}

	provider := draft.Provider
	if provider == "" {
		provider = m.provider
	}

	now := time.Now()
	msg := models.Message{
		ID:             models.NewProvisionalMessageID(),
		ConversationID: conv.ID,
		Role:           draft.Role,
		Kind:           draftKind(draft),
		Content:        draft.Content,
		Provider:       provider,
		Attachments:    draft.Attachments,
		CreatedAt:      now,
	}

	firstMessage := len(conv.Messages) == 0
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = now
	if firstMessage && draft.Role == models.RoleUser && draft.Content != "" {
		conv.Title = deriveTitle(draft.Content)
	}
	m.commitLocked()

	if draft.Role != models.RoleUser {
		m.mu.Unlock()
		m.notify()
		out := msg
		return &out, nil
	}

	imagePrompt, isImage := validation.ParseImageCommand(draft.Content)
	switch {
	case isImage && imagePrompt == "":
		// Validation failure: resolved synchronously, no dispatch, busy
		// flags untouched.
		m.appendAssistantLocked(conv, imagePromptMissing, models.KindText, provider)
	case isImage:
		m.busy = true
		m.generatingImage = true
		placeholder := m.appendAssistantLocked(conv, imagePlaceholderText, models.KindImage, provider)
		m.inflight.Add(1)
		go m.generateImage(conv.Key, placeholder.ID, imagePrompt)
	default:
		m.busy = true
		m.dispatchTextLocked(conv, msg)
	}

	convKey, convTitle := conv.Key, conv.Title
	m.mu.Unlock()
	m.notify()

	if implicitCreate {
		m.confirmCreate(convKey, convTitle)
	}

	out := msg
	return &out, nil
}

// dispatchTextLocked picks the outbound path for a plain user message:
// file-capable endpoint for document attachments, the remote send round trip
// under PolicyRemote with a credential, the gateway JSON shape otherwise.
func (m *Manager) dispatchTextLocked(conv *models.Conversation, msg models.Message) {
	if doc := documentAttachment(msg.Attachments); doc != nil {
		att := *doc
		m.inflight.Add(1)
		go m.generateWithFile(conv.Key, msg.Provider, msg.Content, att)
		return
	}

	if m.policy == PolicyRemote && m.svc != nil {
		if _, ok := m.tokens.Token(); ok {
			req := remote.SendMessageRequest{
				Content:        msg.Content,
				Kind:           msg.Kind,
				Provider:       msg.Provider,
				ConversationID: conv.ID,
				Attachments:    msg.Attachments,
			}
			m.inflight.Add(1)
			go m.sendRemote(conv.Key, msg.ID, req)
			return
		}
		logger.Log.Debug("No credential, generating via gateway")
	}

	var history []gateway.Turn
	if msg.Provider.SupportsHistory() {
		history = historyTurns(conv, msg.ID)
	}
	m.inflight.Add(1)
	go m.generateText(conv.Key, msg.Provider, msg.Content, history)
}

// generateText runs the plain JSON round trip.
func (m *Manager) generateText(key string, provider models.Provider, prompt string, history []gateway.Turn) {
	defer m.inflight.Done()

	resp, err := m.gw.GenerateText(context.Background(), provider, gateway.TextRequest{
		Prompt:      prompt,
		Temperature: m.temperature,
		History:     history,
	})

	if err != nil {
		m.settleFailure(key, provider, generationFailedText, err)
		return
	}
	m.settleReply(key, provider, resp.Text)
}

// generateWithFile runs the multipart round trip. A missing payload handle
// (an attachment restored from a snapshot) fails the dispatch like any
// other generation failure.
func (m *Manager) generateWithFile(key string, provider models.Provider, prompt string, att models.Attachment) {
	defer m.inflight.Done()

	if err := m.validator.ValidateUploadable(att); err != nil {
		m.settleFailure(key, provider, generationFailedText, err)
		return
	}

	resp, err := m.gw.GenerateWithFile(context.Background(), provider, gateway.FileRequest{
		Prompt:      prompt,
		Temperature: m.temperature,
		FileName:    att.Name,
		FileType:    att.Type,
		Payload:     att.Data,
	})

	if err != nil {
		m.settleFailure(key, provider, generationFailedText, err)
		return
	}
	m.settleReply(key, provider, resp.Text)
}

// sendRemote runs the combined send-and-receive round trip against the
// conversation service and reconciles both confirmed entries.
func (m *Manager) sendRemote(key, provisionalID string, req remote.SendMessageRequest) {
	defer m.inflight.Done()

	result, err := m.svc.SendMessage(context.Background(), req)
	if err != nil {
		m.settleFailure(key, req.Provider, generationFailedText, err)
		return
	}

	m.mu.Lock()
	m.busy = false

	idx := m.findByKeyLocked(key)
	if idx < 0 {
		// Conversation deleted mid-flight; complete harmlessly.
		m.mu.Unlock()
		m.notify()
		return
	}
	conv := m.conversations[idx]

	userMsg := result.UserMessage
	if userMsg.Kind == "" {
		userMsg.Kind = models.KindText
	}
	userMsg.ConversationID = conv.ID

	// Replace the provisional entry by identity, never by position, so a
	// concurrent send's entry is left alone.
	replaced := false
	for i := range conv.Messages {
		if conv.Messages[i].ID == provisionalID {
			conv.Messages[i] = userMsg
			replaced = true
			break
		}
	}
	if !replaced {
		conv.Messages = append(conv.Messages, userMsg)
	}

	aiMsg := result.AIMessage
	if aiMsg.Kind == "" {
		aiMsg.Kind = models.KindText
	}
	aiMsg.ConversationID = conv.ID
	conv.Messages = append(conv.Messages, aiMsg)
	conv.UpdatedAt = time.Now()

	m.commitLocked()
	m.mu.Unlock()
	m.notify()
}

// generateImage fills the placeholder inserted by AppendMessage: the image
// reference on success, the image error notice on failure.
func (m *Manager) generateImage(key, placeholderID, prompt string) {
	defer m.inflight.Done()

	resp, err := m.gw.GenerateImage(context.Background(), gateway.ImageRequest{Prompt: prompt})

	m.mu.Lock()
	m.busy = false
	m.generatingImage = false

	idx := m.findByKeyLocked(key)
	if idx < 0 {
		m.mu.Unlock()
		m.notify()
		return
	}
	conv := m.conversations[idx]

	for i := range conv.Messages {
		if conv.Messages[i].ID != placeholderID {
			continue
		}
		if err != nil {
			logger.Log.WithError(err).Warn("Image generation failed")
			conv.Messages[i].Content = imageFailedText
			conv.Messages[i].Kind = models.KindText
		} else {
			ref := resp.Ref()
			conv.Messages[i].Content = ""
			conv.Messages[i].Attachments = []models.Attachment{{
				ID:   models.NewKey(),
				Name: path.Base(ref),
				Type: "image/png",
				URL:  ref,
			}}
		}
		conv.UpdatedAt = time.Now()
		break
	}

	m.commitLocked()
	m.mu.Unlock()
	m.notify()
}

// settleReply appends the assistant reply, clearing the busy flag. It
// no-ops when the conversation was deleted mid-flight.
func (m *Manager) settleReply(key string, provider models.Provider, text string) {
	m.mu.Lock()
	m.busy = false

	idx := m.findByKeyLocked(key)
	if idx >= 0 {
		conv := m.conversations[idx]
		m.appendAssistantLocked(conv, text, models.KindText, provider)
	}

	m.mu.Unlock()
	m.notify()
}

// settleFailure appends the fixed error notice instead of a reply.
func (m *Manager) settleFailure(key string, provider models.Provider, notice string, err error) {
	logger.Log.WithError(err).WithFields(logrus.Fields{
		"provider": provider,
	}).Warn("Generation failed")

	m.settleReply(key, provider, notice)
}

// appendAssistantLocked appends a locally finalized assistant message and
// persists.
func (m *Manager) appendAssistantLocked(conv *models.Conversation, content string, kind models.ContentKind, provider models.Provider) *models.Message {
	now := time.Now()
	conv.Messages = append(conv.Messages, models.Message{
		ID:             models.NewMessageID(),
		ConversationID: conv.ID,
		Role:           models.RoleAssistant,
		Kind:           kind,
		Content:        content,
		Provider:       provider,
		CreatedAt:      now,
	})
	conv.UpdatedAt = now
	m.commitLocked()
	return &conv.Messages[len(conv.Messages)-1]
}

// deriveTitle truncates the first user message to the title length,
// rune-safe, marking truncation with an ellipsis.
func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleMaxRunes {
		return content
	}
	return string(runes[:titleMaxRunes]) + "..."
}

// draftKind classifies the draft content.
func draftKind(draft models.Draft) models.ContentKind {
	if len(draft.Attachments) > 0 {
		return models.KindFile
	}
	return models.KindText
}

// documentAttachment returns the first attachment needing the out-of-band
// upload shape, or nil.
func documentAttachment(attachments []models.Attachment) *models.Attachment {
	for i := range attachments {
		if validation.IsDocumentType(attachments[i].Type) {
			return &attachments[i]
		}
	}
	return nil
}

// historyTurns converts prior messages (excluding the one being sent and
// unfilled placeholders) into gateway history turns.
func historyTurns(conv *models.Conversation, excludeID string) []gateway.Turn {
	turns := make([]gateway.Turn, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		if msg.ID == excludeID || msg.Content == "" || msg.Content == imagePlaceholderText {
			continue
		}
		turns = append(turns, gateway.Turn{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return turns
}

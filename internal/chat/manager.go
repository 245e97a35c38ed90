package chat

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"pulse-chat/internal/auth"
	"pulse-chat/internal/gateway"
	"pulse-chat/internal/logger"
	"pulse-chat/internal/models"
	"pulse-chat/internal/remote"
	"pulse-chat/internal/snapshot"
	"pulse-chat/pkg/validation"
)

// Policy selects the persistence discipline for conversation lifecycle
// operations. Exactly one policy applies for the lifetime of a Manager;
// mixing them per-call is not supported.
type Policy string

const (
	// PolicyLocal keeps all conversation state local; only generation
	// requests leave the process.
	PolicyLocal Policy = "local"
	// PolicyRemote additionally confirms creates, deletes and text sends
	// against the remote conversation service when a credential is
	// available. Without one the remote leg is skipped.
	PolicyRemote Policy = "remote"
)

const defaultTemperature = 0.7

// Options configures a Manager.
type Options struct {
	Policy      Policy
	Temperature float64
}

// Manager owns the in-memory authoritative conversation state: the ordered
// conversation list, the active selection and the provider choice. All state
// transitions are serialized under one mutex; concurrency arises only from
// overlapping in-flight network operations, whose completions re-enter the
// lock to reconcile.
//
// Managers are constructed explicitly and passed to their consumer; there is
// no package-level instance.
type Manager struct {
	mu              sync.Mutex
	conversations   []*models.Conversation
	activeID        string
	provider        models.Provider
	busy            bool
	generatingImage bool

	store     snapshot.Store
	gw        gateway.Generator
	svc       remote.Service
	tokens    auth.TokenSource
	validator *validation.DraftValidator

	policy      Policy
	temperature float64

	inflight sync.WaitGroup
	updates  chan struct{}
}

// New creates a Manager. svc may be nil when opts.Policy is PolicyLocal.
func New(store snapshot.Store, gw gateway.Generator, svc remote.Service, tokens auth.TokenSource, opts Options) *Manager {
	if opts.Policy == "" {
		opts.Policy = PolicyLocal
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if tokens == nil {
		tokens = auth.Anonymous{}
	}

	return &Manager{
		conversations: []*models.Conversation{},
		provider:      models.DefaultProvider,
		store:         store,
		gw:            gw,
		svc:           svc,
		tokens:        tokens,
		validator:     validation.NewDraftValidator(),
		policy:        opts.Policy,
		temperature:   opts.Temperature,
		updates:       make(chan struct{}, 1),
	}
}

// Initialize restores state from the snapshot store. When the snapshot holds
// conversations they become authoritative and no remote fetch happens. An
// empty or absent snapshot triggers a background fetch from the remote
// service, but only under PolicyRemote with a live credential. Initialize
// never blocks on the network; fetch failures are logged and leave state as
// established here.
func (m *Manager) Initialize(ctx context.Context) {
	m.mu.Lock()

	state, err := m.store.Load()
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to load snapshot, starting empty")
	}

	if state != nil {
		m.adoptLocked(state.Conversations, state.ActiveConversationID, state.Provider)
	}

	restored := len(m.conversations)
	m.mu.Unlock()
	m.notify()

	if restored > 0 {
		logger.Log.WithField("conversations", restored).Info("Restored state from snapshot")
		return
	}

	if m.policy != PolicyRemote || m.svc == nil {
		return
	}
	if _, ok := m.tokens.Token(); !ok {
		logger.Log.Debug("No credential, skipping remote conversation fetch")
		return
	}

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()

		conversations, err := m.svc.ListConversations(ctx)
		if err != nil {
			logger.Log.WithError(err).Warn("Remote conversation fetch failed")
			return
		}

		m.mu.Lock()
		if len(m.conversations) == 0 {
			m.adoptLocked(conversations, "", m.provider)
			m.commitLocked()
		}
		m.mu.Unlock()
		m.notify()
	}()
}

// adoptLocked installs a loaded conversation list, minting fresh surrogate
// keys and repairing the active selection and provider choice.
func (m *Manager) adoptLocked(conversations []models.Conversation, activeID string, provider models.Provider) {
	m.conversations = make([]*models.Conversation, 0, len(conversations))
	for i := range conversations {
		conv := conversations[i]
		conv.Key = models.NewKey()
		if conv.Messages == nil {
			conv.Messages = []models.Message{}
		}
		m.conversations = append(m.conversations, &conv)
	}

	m.activeID = ""
	if activeID != "" && m.findByIDLocked(activeID) >= 0 {
		m.activeID = activeID
	}

	if provider.Valid() {
		m.provider = provider
	}
}

// CreateConversation inserts a provisional conversation at the front of the
// list, makes it active and persists the snapshot. Under PolicyRemote a
// background confirmation swaps the provisional id in place on success, or
// removes the entry (clearing the selection if it pointed there) on failure.
// The provisional conversation is returned immediately.
func (m *Manager) CreateConversation() models.Conversation {
	m.mu.Lock()
	conv := m.createLocked()
	out := cloneConversation(conv)
	m.mu.Unlock()
	m.notify()

	m.confirmCreate(conv.Key, conv.Title)
	return out
}

// createLocked mints and inserts the provisional conversation.
func (m *Manager) createLocked() *models.Conversation {
	conv := models.NewConversation()
	m.conversations = append([]*models.Conversation{conv}, m.conversations...)
	m.activeID = conv.ID
	m.commitLocked()

	logger.Log.WithField("conversation_id", conv.ID).Debug("Created provisional conversation")
	return conv
}

// confirmCreate runs the remote confirmation leg when policy and credential
// allow it.
func (m *Manager) confirmCreate(key, title string) {
	if m.policy != PolicyRemote || m.svc == nil {
		return
	}
	if _, ok := m.tokens.Token(); !ok {
		logger.Log.Debug("No credential, keeping conversation local")
		return
	}

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()

		confirmed, err := m.svc.CreateConversation(context.Background(), title)

		m.mu.Lock()
		idx := m.findByKeyLocked(key)
		if idx < 0 {
			// Deleted before confirmation settled.
			m.mu.Unlock()
			logger.Log.Debug("Conversation gone before create confirmation")
			return
		}

		conv := m.conversations[idx]
		if err != nil {
			// Roll back the optimistic insert.
			m.conversations = append(m.conversations[:idx], m.conversations[idx+1:]...)
			if m.activeID == conv.ID {
				m.activeID = ""
			}
			m.commitLocked()
			m.mu.Unlock()
			m.notify()
			logger.Log.WithError(err).Warn("Conversation create failed, rolled back")
			return
		}

		// Swap the provisional id in place. Messages appended against the
		// provisional id stay attached through the surrogate key.
		oldID := conv.ID
		conv.ID = confirmed.ID
		for i := range conv.Messages {
			conv.Messages[i].ConversationID = confirmed.ID
		}
		if m.activeID == oldID {
			m.activeID = confirmed.ID
		}
		m.commitLocked()
		m.mu.Unlock()
		m.notify()

		logger.Log.WithFields(logrus.Fields{
			"provisional_id": oldID,
			"confirmed_id":   confirmed.ID,
		}).Debug("Conversation confirmed")
	}()
}

// DeleteConversation removes the matching conversation immediately and
// repairs the active selection (first element, or none). An unknown id is a
// no-op. Under PolicyRemote a background delete is issued for confirmed ids;
// its failure is logged only and never resurfaces the conversation.
func (m *Manager) DeleteConversation(id string) {
	m.mu.Lock()
	idx := m.findByIDLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return
	}

	m.conversations = append(m.conversations[:idx], m.conversations[idx+1:]...)
	if m.activeID == id {
		if len(m.conversations) > 0 {
			m.activeID = m.conversations[0].ID
		} else {
			m.activeID = ""
		}
	}
	m.commitLocked()
	m.mu.Unlock()
	m.notify()

	if m.policy != PolicyRemote || m.svc == nil || models.IsProvisionalConversationID(id) {
		return
	}

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		if err := m.svc.DeleteConversation(context.Background(), id); err != nil {
			// Fire-and-forget: the local state already reflects the delete.
			logger.Log.WithError(err).WithField("conversation_id", id).Warn("Remote delete failed")
		}
	}()
}

// SetActiveConversation sets the selection unconditionally. A transiently
// dangling id is permitted while a create is in flight.
func (m *Manager) SetActiveConversation(id string) {
	m.mu.Lock()
	m.activeID = id
	m.commitLocked()
	m.mu.Unlock()
	m.notify()
}

// SetProvider changes the process-wide provider selection. Unknown
// providers are ignored.
func (m *Manager) SetProvider(p models.Provider) {
	if !p.Valid() {
		logger.Log.WithField("provider", p).Warn("Ignoring unknown provider")
		return
	}
	m.mu.Lock()
	m.provider = p
	m.commitLocked()
	m.mu.Unlock()
	m.notify()
}

// SetLoading sets the busy flag.
func (m *Manager) SetLoading(loading bool) {
	m.mu.Lock()
	m.busy = loading
	m.mu.Unlock()
	m.notify()
}

// SetGeneratingImage sets the image-generation refinement flag.
func (m *Manager) SetGeneratingImage(generating bool) {
	m.mu.Lock()
	m.generatingImage = generating
	m.mu.Unlock()
	m.notify()
}

// Conversations returns a copy of the conversation list for rendering.
func (m *Manager) Conversations() []models.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Conversation, 0, len(m.conversations))
	for _, conv := range m.conversations {
		out = append(out, cloneConversation(conv))
	}
	return out
}

// ActiveConversationID returns the current selection, or "" for none.
func (m *Manager) ActiveConversationID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

// ActiveConversation returns a copy of the selected conversation.
func (m *Manager) ActiveConversation() (models.Conversation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.findByIDLocked(m.activeID)
	if idx < 0 {
		return models.Conversation{}, false
	}
	return cloneConversation(m.conversations[idx]), true
}

// SelectedProvider returns the current provider choice.
func (m *Manager) SelectedProvider() models.Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.provider
}

// Busy reports whether a generation round trip is in flight.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// GeneratingImage reports whether an image generation is in flight.
func (m *Manager) GeneratingImage() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generatingImage
}

// Updates returns a coalescing signal channel that fires after state
// changes; consumers re-read the state on receipt.
func (m *Manager) Updates() <-chan struct{} {
	return m.updates
}

// Wait blocks until all in-flight background operations have settled.
func (m *Manager) Wait() {
	m.inflight.Wait()
}

// commitLocked is the single explicit persistence step: it serializes the
// committed state and writes it through to the snapshot store. Save errors
// are logged, never propagated; the in-memory state stays authoritative.
func (m *Manager) commitLocked() {
	state := &snapshot.State{
		Conversations:        make([]models.Conversation, 0, len(m.conversations)),
		ActiveConversationID: m.activeID,
		Provider:             m.provider,
	}
	for _, conv := range m.conversations {
		state.Conversations = append(state.Conversations, cloneConversation(conv))
	}

	if err := m.store.Save(state); err != nil {
		logger.Log.WithError(err).Error("Failed to persist snapshot")
	}
}

func (m *Manager) notify() {
	select {
	case m.updates <- struct{}{}:
	default:
	}
}

func (m *Manager) findByIDLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, conv := range m.conversations {
		if conv.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) findByKeyLocked(key string) int {
	for i, conv := range m.conversations {
		if conv.Key == key {
			return i
		}
	}
	return -1
}

// cloneConversation copies a conversation deeply enough that callers cannot
// mutate manager-owned state through it.
func cloneConversation(conv *models.Conversation) models.Conversation {
	out := *conv
	out.Messages = make([]models.Message, len(conv.Messages))
	copy(out.Messages, conv.Messages)
	for i := range out.Messages {
		if len(out.Messages[i].Attachments) > 0 {
			atts := make([]models.Attachment, len(out.Messages[i].Attachments))
			copy(atts, out.Messages[i].Attachments)
			out.Messages[i].Attachments = atts
		}
	}
	return out
}

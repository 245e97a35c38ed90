package validation

import (
	"errors"
	"fmt"
	"strings"

	"pulse-chat/internal/models"
)

// ImageCommand is the leading slash token that diverts a message to image
// generation.
const ImageCommand = "/image"

// DraftValidator validates message drafts before dispatch
type DraftValidator struct{}

// NewDraftValidator creates a new DraftValidator
func NewDraftValidator() *DraftValidator {
	return &DraftValidator{}
}

// ValidateDraft validates a message draft
func (v *DraftValidator) ValidateDraft(draft models.Draft) error {
	if strings.TrimSpace(draft.Content) == "" && len(draft.Attachments) == 0 {
		return errors.New("message cannot be empty")
	}

	if !draft.Role.Valid() {
		return fmt.Errorf("role must be one of: user, assistant; got %q", draft.Role)
	}

	if draft.Provider != "" && !draft.Provider.Valid() {
		return fmt.Errorf("unknown provider %q", draft.Provider)
	}

	return nil
}

// ValidateTemperature validates the temperature parameter
func (v *DraftValidator) ValidateTemperature(temperature float64) error {
	if temperature < 0 || temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %.2f", temperature)
	}
	return nil
}

// ValidateUploadable checks that a document attachment still carries the
// transient payload handle required to re-upload it. Payload handles do not
// survive a reload.
func (v *DraftValidator) ValidateUploadable(att models.Attachment) error {
	if !IsDocumentType(att.Type) {
		return nil
	}
	if len(att.Data) == 0 {
		return fmt.Errorf("attachment %s has no payload available for upload", att.Name)
	}
	return nil
}

// IsDocumentType reports whether a MIME type requires the out-of-band
// file upload shape (PDF and plain text documents).
func IsDocumentType(mimeType string) bool {
	return mimeType == "application/pdf" || strings.HasPrefix(mimeType, "text/")
}

// ParseImageCommand checks content for the leading /image token and returns
// the remaining prompt. ok is true whenever the token is present, even if
// the prompt after it is empty.
func ParseImageCommand(content string) (prompt string, ok bool) {
	trimmed := strings.TrimSpace(content)
	if trimmed != ImageCommand && !strings.HasPrefix(trimmed, ImageCommand+" ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, ImageCommand)), true
}

package validation

import (
	"testing"

	"pulse-chat/internal/models"
)

func TestValidateDraft(t *testing.T) {
	validator := NewDraftValidator()

	tests := []struct {
		name    string
		draft   models.Draft
		wantErr bool
	}{
		{
			name:    "valid text draft",
			draft:   models.Draft{Content: "hello", Role: models.RoleUser, Provider: models.ProviderLlama},
			wantErr: false,
		},
		{
			name:    "empty content",
			draft:   models.Draft{Content: "", Role: models.RoleUser},
			wantErr: true,
		},
		{
			name:    "whitespace only content",
			draft:   models.Draft{Content: "   \n\t  ", Role: models.RoleUser},
			wantErr: true,
		},
		{
			name: "empty content with attachment is valid",
			draft: models.Draft{
				Role:        models.RoleUser,
				Attachments: []models.Attachment{{ID: "att-1", Name: "a.pdf", Type: "application/pdf"}},
			},
			wantErr: false,
		},
		{
			name:    "invalid role",
			draft:   models.Draft{Content: "hello", Role: "system"},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			draft:   models.Draft{Content: "hello", Role: models.RoleUser, Provider: "bard"},
			wantErr: true,
		},
		{
			name:    "empty provider is allowed",
			draft:   models.Draft{Content: "hello", Role: models.RoleUser},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateDraft(tt.draft)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDraft() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTemperature(t *testing.T) {
	validator := NewDraftValidator()

	tests := []struct {
		name        string
		temperature float64
		wantErr     bool
	}{
		{"zero", 0, false},
		{"typical", 0.7, false},
		{"maximum", 2, false},
		{"negative", -0.1, true},
		{"too high", 2.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateTemperature(tt.temperature)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTemperature(%v) error = %v, wantErr %v", tt.temperature, err, tt.wantErr)
			}
		})
	}
}

func TestValidateUploadable(t *testing.T) {
	validator := NewDraftValidator()

	tests := []struct {
		name    string
		att     models.Attachment
		wantErr bool
	}{
		{
			name:    "document with payload",
			att:     models.Attachment{Name: "a.pdf", Type: "application/pdf", Data: []byte("%PDF")},
			wantErr: false,
		},
		{
			name:    "document without payload",
			att:     models.Attachment{Name: "a.pdf", Type: "application/pdf"},
			wantErr: true,
		},
		{
			name:    "image needs no payload",
			att:     models.Attachment{Name: "a.png", Type: "image/png"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateUploadable(tt.att)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUploadable() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsDocumentType(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{"application/pdf", true},
		{"text/plain", true},
		{"text/markdown", true},
		{"image/png", false},
		{"application/json", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsDocumentType(tt.mimeType); got != tt.want {
			t.Errorf("IsDocumentType(%q) = %v, want %v", tt.mimeType, got, tt.want)
		}
	}
}

func TestParseImageCommand(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantPrompt string
		wantOK     bool
	}{
		{"command with prompt", "/image a red fox", "a red fox", true},
		{"bare command", "/image", "", true},
		{"command with trailing space", "/image   ", "", true},
		{"leading whitespace", "  /image a red fox", "a red fox", true},
		{"plain message", "tell me about foxes", "", false},
		{"command as prefix of a word", "/imagemagick tips", "", false},
		{"command mid-message", "use /image here", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, ok := ParseImageCommand(tt.content)
			if prompt != tt.wantPrompt || ok != tt.wantOK {
				t.Errorf("ParseImageCommand(%q) = (%q, %v), want (%q, %v)", tt.content, prompt, ok, tt.wantPrompt, tt.wantOK)
			}
		})
	}
}

package models

import "testing"

func TestProvider_Valid(t *testing.T) {
	for _, p := range Providers() {
		if !p.Valid() {
			t.Errorf("%s should be valid", p)
		}
	}
	if Provider("bard").Valid() {
		t.Error("unknown provider should be invalid")
	}
	if Provider("").Valid() {
		t.Error("empty provider should be invalid")
	}
}

func TestProvider_Capabilities(t *testing.T) {
	tests := []struct {
		provider Provider
		files    bool
		history  bool
	}{
		{ProviderLlama, false, false},
		{ProviderGPT, true, true},
		{ProviderClaude, true, true},
	}

	for _, tt := range tests {
		if got := tt.provider.SupportsFiles(); got != tt.files {
			t.Errorf("%s.SupportsFiles() = %v, want %v", tt.provider, got, tt.files)
		}
		if got := tt.provider.SupportsHistory(); got != tt.history {
			t.Errorf("%s.SupportsHistory() = %v, want %v", tt.provider, got, tt.history)
		}
	}
}

func TestDefaultProvider(t *testing.T) {
	if DefaultProvider != ProviderLlama {
		t.Errorf("default provider: got %s", DefaultProvider)
	}
}

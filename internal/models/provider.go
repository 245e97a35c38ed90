package models

// Provider identifies a generation backend.
type Provider string

const (
	ProviderLlama  Provider = "llama"
	ProviderGPT    Provider = "gpt"
	ProviderClaude Provider = "claude"
)

// DefaultProvider is the cold-start selection.
const DefaultProvider = ProviderLlama

// Providers lists all known providers in display order.
func Providers() []Provider {
	return []Provider{ProviderClaude, ProviderGPT, ProviderLlama}
}

// Valid reports whether p is one of the known providers.
func (p Provider) Valid() bool {
	switch p {
	case ProviderLlama, ProviderGPT, ProviderClaude:
		return true
	}
	return false
}

// SupportsFiles reports whether p accepts file-augmented prompts.
// Llama only takes the plain JSON shape.
func (p Provider) SupportsFiles() bool {
	return p == ProviderGPT || p == ProviderClaude
}

// SupportsHistory reports whether prior turns should be sent along
// with the prompt. Llama keeps its own server-side history.
func (p Provider) SupportsHistory() bool {
	return p == ProviderGPT || p == ProviderClaude
}

package llm

import (
	"fmt"
	"strings"

	"github.com/distillabs/distill/internal/common"
)

// Provider identifies one of the supported language-model backends.
type Provider int

// Supported providers.
const (
	ProviderOpenAI Provider = iota
	ProviderAnthropic
	ProviderGemini
)

// String returns the provider's canonical name.
func (p Provider) String() string {
	switch p {
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderGemini:
		return "gemini"
	default:
		return fmt.Sprintf("provider(%d)", int(p))
	}
}

// modelPrefixes maps model identifier prefixes onto providers. Resolution
// is total: an identifier matching none of these fails before any network
// attempt.
var modelPrefixes = []struct {
	prefix   string
	provider Provider
}{
	{"gpt-", ProviderOpenAI},
	{"chatgpt-", ProviderOpenAI},
	{"o1-", ProviderOpenAI},
	{"o3-", ProviderOpenAI},
	{"claude-", ProviderAnthropic},
	{"gemini-", ProviderGemini},
}

// ResolveProvider maps a model identifier onto its provider by prefix.
func ResolveProvider(model string) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(model))
	for _, m := range modelPrefixes {
		if strings.HasPrefix(name, m.prefix) {
			return m.provider, nil
		}
	}
	return 0, fmt.Errorf("%w: model %q matches no known provider", common.ErrUnknownProvider, model)
}

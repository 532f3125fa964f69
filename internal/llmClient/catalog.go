package llmclient

import (
	"fmt"
	"sort"
	"strings"
)

// Provider names accepted by FactoryFor.
const (
	ProviderGemini = "gemini"
	ProviderFake   = "fake"
)

// ProviderConfig selects and parameterizes a provider.
type ProviderConfig struct {
	Provider string
	Model    string
	BaseURL  string
}

// FactoryFor resolves a provider name to a client factory.
func FactoryFor(cfg ProviderConfig) (Factory, error) {
	switch normalizeProvider(cfg.Provider) {
	case ProviderGemini:
		return GeminiFactory(cfg.Model, GeminiOptions{BaseURL: cfg.BaseURL}), nil
	case ProviderFake:
		return FakeFactory(), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q (known: %s)", cfg.Provider, strings.Join(Providers(), ", "))
	}
}

// Providers lists the registered provider names.
func Providers() []string {
	out := []string{ProviderGemini, ProviderFake}
	sort.Strings(out)
	return out
}

func normalizeProvider(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return ProviderGemini
	}
	return p
}

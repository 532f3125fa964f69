package llmclient

import (
	"context"
	"encoding/json"
	"strings"
)

// FakeClient returns a deterministic payload for offline runs and demos.
// It echoes the code found between the first pair of ``` fences in the prompt.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

// FakeFactory ignores the credential.
func FakeFactory() Factory {
	return func(context.Context, string) (LLMClient, error) { return NewFakeClient(), nil }
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, schema *Schema) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	obj := map[string]any{
		"improvedCode": fencedBlock(prompt),
		"explanation":  "Offline mode: the code was returned unchanged.",
		"keyChanges":   []string{"No changes (fake model)"},
	}
	b, _ := json.Marshal(obj)
	return json.RawMessage(b), nil
}

func fencedBlock(prompt string) string {
	const fence = "```"
	start := strings.Index(prompt, fence)
	if start < 0 {
		return ""
	}
	rest := prompt[start+len(fence):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	end := strings.LastIndex(rest, fence)
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

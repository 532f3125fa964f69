package llm

import (
	"context"
	"encoding/json"

	llmclient "codecraft/internal/llmClient"
)

// PromptHook defines callbacks around LLM requests.
type PromptHook interface {
	Before(ctx context.Context, requestID, prompt string)
	After(ctx context.Context, requestID string, raw json.RawMessage, err error)
}

type ctxKeyHook struct{}
type ctxKeyRequestID struct{}

// WithRequestID attaches a request id to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID{}, id)
}

// RequestIDFrom returns the request id stored in the context, or "unknown".
func RequestIDFrom(ctx context.Context) string {
	if id, ok := LookupRequestID(ctx); ok {
		return id
	}
	return "unknown"
}

// LookupRequestID reports the request id, if one was attached.
func LookupRequestID(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(ctxKeyRequestID{}).(string)
	return s, ok && s != ""
}

// WithPromptHook attaches a PromptHook to the context. Middlewares that call
// HookFrom(ctx) can use this to invoke Before/After around requests.
func WithPromptHook(ctx context.Context, hook PromptHook) context.Context {
	return context.WithValue(ctx, ctxKeyHook{}, hook)
}

// HookFrom returns the hook stored in the context.
func HookFrom(ctx context.Context) PromptHook {
	if v := ctx.Value(ctxKeyHook{}); v != nil {
		if h, ok := v.(PromptHook); ok {
			return h
		}
	}
	return nil
}

// WithHooks calls a PromptHook around GenerateJSON. The hook from the
// context wins; fallback is used when the context carries none.
func WithHooks(fallback PromptHook) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &hooked{next: next, fallback: fallback}
	}
}

type hooked struct {
	next     llmclient.LLMClient
	fallback PromptHook
}

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }

func (h *hooked) GenerateJSON(ctx context.Context, prompt string, schema *llmclient.Schema) (json.RawMessage, error) {
	hook := HookFrom(ctx)
	if hook == nil {
		hook = h.fallback
	}
	id := RequestIDFrom(ctx)
	if hook != nil {
		hook.Before(ctx, id, prompt)
	}
	raw, err := h.next.GenerateJSON(ctx, prompt, schema)
	if hook != nil {
		hook.After(ctx, id, raw, err)
	}
	return raw, err
}

package llm

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	llmclient "codecraft/internal/llmClient"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns
// (rate limiting, logging, hooks, etc.).
type Middleware func(llmclient.LLMClient) llmclient.LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.LLMClient, mws ...Middleware) llmclient.LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		out = mws[i](out)
	}
	return out
}

// WrapFactory applies the middlewares to every client the factory builds.
func WrapFactory(f llmclient.Factory, mws ...Middleware) llmclient.Factory {
	return func(ctx context.Context, apiKey string) (llmclient.LLMClient, error) {
		cli, err := f(ctx, apiKey)
		if err != nil {
			return nil, err
		}
		return Wrap(cli, mws...), nil
	}
}

// -------- Rate Limiting --------

// RateLimit limits request rate with a token bucket.
// If rps <= 0, the middleware is a no-op.
func RateLimit(rps float64, burst int) Middleware {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	// One limiter shared by every client built through the same middleware.
	lim := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &rateLimited{next: next, lim: lim}
	}
}

type rateLimited struct {
	next llmclient.LLMClient
	lim  *rate.Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error { return c.next.Close() }
func (c *rateLimited) GenerateJSON(ctx context.Context, prompt string, schema *llmclient.Schema) (json.RawMessage, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return nil, err
	}
	return c.next.GenerateJSON(ctx, prompt, schema)
}

// -------- Timeout --------

// Timeout bounds each call. d <= 0 disables it.
func Timeout(d time.Duration) Middleware {
	if d <= 0 {
		return nil
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &timed{next: next, d: d}
	}
}

type timed struct {
	next llmclient.LLMClient
	d    time.Duration
}

func (t *timed) Name() string { return t.next.Name() }
func (t *timed) Close() error { return t.next.Close() }
func (t *timed) GenerateJSON(ctx context.Context, prompt string, schema *llmclient.Schema) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.GenerateJSON(ctx, prompt, schema)
}

// -------- Logging --------

// WithLogging logs request size, latency and errors. A nil logger disables it.
func WithLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		return nil
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &logging{next: next, log: logger.Named("llm")}
	}
}

type logging struct {
	next llmclient.LLMClient
	log  *zap.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) GenerateJSON(ctx context.Context, prompt string, schema *llmclient.Schema) (json.RawMessage, error) {
	start := time.Now()
	fields := []zap.Field{
		zap.String("model", l.next.Name()),
		zap.String("request_id", RequestIDFrom(ctx)),
		zap.Int("prompt_bytes", len(prompt)),
	}
	l.log.Debug("LLM request", fields...)
	raw, err := l.next.GenerateJSON(ctx, prompt, schema)
	fields = append(fields, zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		l.log.Warn("LLM error", append(fields, zap.Error(err))...)
		return raw, err
	}
	l.log.Info("LLM response", append(fields, zap.Int("response_bytes", len(raw)))...)
	return raw, nil
}

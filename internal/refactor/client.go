package refactor

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	llmclient "codecraft/internal/llmClient"
)

// Refactorer is the contract the orchestrator and the RPC layer depend on.
type Refactorer interface {
	Refactor(ctx context.Context, req Request) (Result, error)
}

// Client turns a Request into one model call and validates the answer.
type Client struct {
	apiKey  string
	factory llmclient.Factory
	log     *zap.Logger

	mu  sync.Mutex
	cli llmclient.LLMClient
}

// NewClient wires the credential and the model client factory. The factory
// is invoked lazily on the first request and its client reused afterwards.
func NewClient(apiKey string, factory llmclient.Factory, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		factory: factory,
		log:     logger.Named("refactor"),
	}
}

// Refactor validates req, sends the prompt with the response schema, and
// decodes the result. Nothing is retried.
func (c *Client) Refactor(ctx context.Context, req Request) (Result, error) {
	if c.apiKey == "" {
		return Result{}, ErrMissingCredential
	}
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	cli, err := c.model(ctx)
	if err != nil {
		return Result{}, err
	}

	raw, err := cli.GenerateJSON(ctx, BuildPrompt(req), ResponseSchema())
	if err != nil {
		if errors.Is(err, llmclient.ErrEmptyResponse) {
			return Result{}, ErrNoResponse
		}
		return Result{}, err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return Result{}, ErrNoResponse
	}

	res, err := DecodeResult(string(raw))
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			c.log.Error("Failed to parse JSON response",
				zap.String("detail", pe.Detail()),
				zap.String("raw", pe.Raw))
		}
		return Result{}, err
	}
	return res, nil
}

// Close releases the cached model client, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cli == nil {
		return nil
	}
	err := c.cli.Close()
	c.cli = nil
	return err
}

func (c *Client) model(ctx context.Context) (llmclient.LLMClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cli != nil {
		return c.cli, nil
	}
	if c.factory == nil {
		return nil, errors.New("refactor: no model client configured")
	}
	cli, err := c.factory(ctx, c.apiKey)
	if err != nil {
		if errors.Is(err, llmclient.ErrMissingAPIKey) {
			return nil, ErrMissingCredential
		}
		return nil, err
	}
	c.cli = cli
	return cli, nil
}

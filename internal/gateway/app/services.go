package app

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"codecraft/internal/artifact"
	"codecraft/internal/gateway/config"
	"codecraft/internal/history"
	"codecraft/internal/llm"
	llmclient "codecraft/internal/llmClient"
	"codecraft/internal/refactor"
)

// Services are the long-lived dependencies shared by the server and the CLI.
type Services struct {
	Refactor *refactor.Client
	History  history.Store
	// Archive is nil when prompt archiving is disabled.
	Archive artifact.Store
}

func NewServices(cfg *config.Config, log *zap.Logger) (*Services, error) {
	if log == nil {
		log = zap.NewNop()
	}
	factory, err := llmclient.FactoryFor(llmclient.ProviderConfig{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	archive, err := artifact.Open(cfg.Artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize archive store: %w", err)
	}
	var hooks llm.Middleware
	if archive != nil {
		hooks = llm.WithHooks(artifact.NewArchiveHook(archive, log.Named("archive")))
		log.Info("Prompt archive enabled", zap.String("backend", cfg.Artifact.Backend))
	}

	// Outermost first: the log line covers time spent waiting for the limiter.
	factory = llm.WrapFactory(factory,
		llm.WithLogging(log),
		llm.RateLimit(cfg.LLM.RPS, cfg.LLM.Burst),
		llm.Timeout(cfg.LLM.Timeout),
		hooks,
	)

	hist, err := history.Open(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	log.Info("History store ready",
		zap.String("backend", cfg.History.Backend),
		zap.Int("capacity", cfg.History.Capacity))

	if cfg.APIKey == "" && cfg.LLM.Provider != llmclient.ProviderFake {
		log.Warn("GEMINI_API_KEY is not set; refactor requests will fail until it is configured")
	}

	return &Services{
		Refactor: refactor.NewClient(cfg.APIKey, factory, log),
		History:  hist,
		Archive:  archive,
	}, nil
}

func (s *Services) Close() error {
	return errors.Join(s.Refactor.Close(), s.History.Close())
}

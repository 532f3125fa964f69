package app

import (
	"context"
	"errors"
	"net"

	"go.uber.org/zap"

	"codecraft/internal/catalog"
	"codecraft/internal/gateway/config"
	"codecraft/internal/gateway/handler"
	"codecraft/internal/gateway/handler/rpc"
	"codecraft/internal/gateway/server"
	"codecraft/internal/gateway/service/session"
	"codecraft/internal/history"
	"codecraft/internal/orchestrator"
	"codecraft/internal/view"
)

type App struct {
	server   *server.Server
	services *Services
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	svcs, err := NewServices(cfg, log)
	if err != nil {
		return nil, err
	}

	cat := catalog.Default()
	recorder := history.Recorder{Store: svcs.History}
	sessions := session.New(cfg.Session.Capacity, cfg.Session.TTL,
		func() *orchestrator.Orchestrator {
			return orchestrator.New(svcs.Refactor,
				orchestrator.WithRecorder(recorder),
				orchestrator.WithLogger(log))
		},
		session.WithSecureCookie(!cfg.IsLocal()),
	)

	pageHandler := handler.NewPageHandler(sessions, cat, view.NewHighlighter(cat, view.DefaultStyle), log.Named("page"))
	eventsHandler := handler.NewEventsHandler(sessions, log.Named("events"))
	refactorHandler := rpc.NewRefactorHandler(svcs.Refactor, svcs.History, svcs.Archive, cat, log)

	mux := server.NewMux(pageHandler, eventsHandler, refactorHandler, log)
	return &App{
		server:   server.New(cfg.Port, mux, log),
		services: svcs,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

// Serve is Start on an existing listener.
func (a *App) Serve(ln net.Listener) error {
	return a.server.Serve(ln)
}

func (a *App) Shutdown(ctx context.Context) error {
	return errors.Join(a.server.Shutdown(ctx), a.services.Close())
}

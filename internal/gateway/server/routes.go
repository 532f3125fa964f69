package server

import (
	"net/http"

	"go.uber.org/zap"

	"codecraft/internal/gateway/handler"
	"codecraft/internal/gateway/handler/rpc"
	"codecraft/internal/gateway/middleware"
)

func NewMux(
	pageHandler *handler.PageHandler,
	eventsHandler *handler.EventsHandler,
	refactorHandler *rpc.RefactorHandler,
	log *zap.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// RPC. Cross-origin access is limited to the stateless API; the page
	// routes act on the session cookie.
	rpcPath, rpcHandler := rpc.NewRefactorServiceHandler(refactorHandler)
	mux.Handle(rpcPath, middleware.CORS(rpcHandler))

	// Page
	pageHandler.Register(mux)
	eventsHandler.Register(mux)
	mux.HandleFunc("GET /healthz", handler.HandleHealth)

	return middleware.AccessLog(log)(mux)
}

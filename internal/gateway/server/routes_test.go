package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"codecraft/internal/gateway/handler"
	"codecraft/internal/gateway/handler/rpc"
	"codecraft/internal/gateway/service/session"
	"codecraft/internal/orchestrator"
)

func newTestMux() http.Handler {
	reg := session.New(4, time.Minute, func() *orchestrator.Orchestrator { return orchestrator.New(nil) })
	return NewMux(
		handler.NewPageHandler(reg, nil, nil, nil),
		handler.NewEventsHandler(reg, nil),
		rpc.NewRefactorHandler(nil, nil, nil, nil, nil),
		nil,
	)
}

func TestCORSOnlyOnRPC(t *testing.T) {
	mux := newTestMux()

	preflight := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Origin", "https://elsewhere.example")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight(http.MethodOptions, rpc.ListOptionsProcedure)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://elsewhere.example", rec.Header().Get("Access-Control-Allow-Origin"))

	for _, path := range []string{"/refactor", "/dismiss"} {
		rec := preflight(http.MethodOptions, path)
		assert.NotEqual(t, http.StatusNoContent, rec.Code, path)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), path)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"), path)
	}
	rec = preflight(http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

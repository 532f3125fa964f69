package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"codecraft/internal/gateway/service/session"
	"codecraft/internal/orchestrator"
)

const (
	eventsWriteWait = 10 * time.Second
	eventsPongWait  = 60 * time.Second
	eventsPingEvery = (eventsPongWait * 9) / 10
)

var eventsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type stateEvent struct {
	Phase   orchestrator.Phase `json:"phase"`
	Version uint64             `json:"version"`
}

// EventsHandler pushes the session's state version so open pages know when
// to reload.
type EventsHandler struct {
	sessions *session.Registry
	log      *zap.Logger
}

func NewEventsHandler(sessions *session.Registry, log *zap.Logger) *EventsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventsHandler{sessions: sessions, log: log}
}

func (h *EventsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /events", h.HandleEvents)
}

func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	id, o, created := h.sessions.Acquire(session.IDFrom(r))
	var header http.Header
	if created {
		header = http.Header{"Set-Cookie": {h.sessions.Cookie(id).String()}}
	}
	conn, err := eventsUpgrader.Upgrade(w, r, header)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(eventsPongWait)); err != nil {
		h.log.Warn("events ws set read deadline failed", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	})

	updates := o.Subscribe(ctx)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		ticker := time.NewTicker(eventsPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-updates:
				if !ok {
					return
				}
				if err := conn.SetWriteDeadline(time.Now().Add(eventsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(stateEvent{Phase: snap.Phase(), Version: snap.Version}); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(eventsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Inbound frames carry nothing; reading keeps pong and close handling alive.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			cancel()
			<-writerDone
			return
		}
	}
}

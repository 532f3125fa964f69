package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"codecraft/internal/catalog"
	"codecraft/internal/gateway/service/session"
	"codecraft/internal/llm"
	"codecraft/internal/refactor"
	"codecraft/internal/view"
)

// PageHandler serves the form and its two actions for the caller's session.
type PageHandler struct {
	sessions *session.Registry
	cat      *catalog.Catalog
	hl       *view.Highlighter
	css      string
	log      *zap.Logger
}

func NewPageHandler(sessions *session.Registry, cat *catalog.Catalog, hl *view.Highlighter, log *zap.Logger) *PageHandler {
	if cat == nil {
		cat = catalog.Default()
	}
	if hl == nil {
		hl = view.NewHighlighter(cat, view.DefaultStyle)
	}
	if log == nil {
		log = zap.NewNop()
	}
	css, err := hl.CSS()
	if err != nil {
		log.Warn("Highlight stylesheet unavailable", zap.Error(err))
	}
	return &PageHandler{sessions: sessions, cat: cat, hl: hl, css: css, log: log}
}

// Register mounts the page routes on mux.
func (h *PageHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.HandlePage)
	mux.HandleFunc("POST /refactor", h.HandleRefactor)
	mux.HandleFunc("POST /dismiss", h.HandleDismiss)
}

func (h *PageHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	o := h.sessions.FromRequest(w, r)
	snap := o.Snapshot()

	data := view.PageData{
		State:        snap,
		Tab:          view.ParseTab(r.URL.Query().Get("tab")),
		Languages:    h.cat.Labels(),
		Code:         h.cat.Placeholder,
		Language:     h.cat.DefaultLanguage,
		Focus:        refactor.FocusReadability,
		HighlightCSS: h.css,
	}
	if req := snap.Request; req != nil {
		data.Code, data.Language = req.Code, req.Language
		if req.Focus.Valid() {
			data.Focus = req.Focus
		}
	}
	if snap.Result != nil && data.Tab == view.TabCode {
		html, err := h.hl.Highlight(snap.Result.ImprovedCode, snap.ResultLanguage)
		if err != nil {
			h.log.Warn("Highlight failed", zap.String("language", snap.ResultLanguage), zap.Error(err))
		} else {
			data.HighlightedCode = html
		}
	}

	w.Header().Set("Cache-Control", "no-store")
	templ.Handler(view.Page(data)).ServeHTTP(w, r)
}

// HandleRefactor starts a request for the session and redirects back to the
// page. A submit that arrives while a request is in flight is ignored.
func (h *PageHandler) HandleRefactor(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	req := refactor.Request{
		Code:     r.PostForm.Get("code"),
		Language: strings.TrimSpace(r.PostForm.Get("language")),
	}
	// An unknown focus stays zero and fails validation inside the client,
	// which reports it through the error banner like any other failure.
	if f, err := refactor.ParseFocus(r.PostForm.Get("focus")); err == nil {
		req.Focus = f
	}

	o := h.sessions.FromRequest(w, r)
	if o.Begin(req) {
		// The call outlives this request; closing the tab does not cancel it.
		ctx := llm.WithRequestID(context.WithoutCancel(r.Context()), uuid.NewString())
		go func() { _ = o.Run(ctx, req) }()
	} else {
		h.log.Debug("Submit ignored while loading")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *PageHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	h.sessions.FromRequest(w, r).Dismiss()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

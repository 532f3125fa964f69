package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"codecraft/internal/artifact"
	"codecraft/internal/catalog"
	"codecraft/internal/history"
	"codecraft/internal/llm"
	"codecraft/internal/refactor"
)

// RefactorHandler serves codecraft.v1.RefactorService. Calls are stateless;
// nothing here touches the per-session orchestrators.
type RefactorHandler struct {
	svc     refactor.Refactorer
	history history.Store
	archive artifact.Store
	cat     *catalog.Catalog
	log     *zap.Logger
}

// NewRefactorHandler accepts nil history and archive stores (feature disabled).
func NewRefactorHandler(svc refactor.Refactorer, store history.Store, archive artifact.Store, cat *catalog.Catalog, log *zap.Logger) *RefactorHandler {
	if cat == nil {
		cat = catalog.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RefactorHandler{svc: svc, history: store, archive: archive, cat: cat, log: log.Named("rpc")}
}

func (h *RefactorHandler) Refactor(ctx context.Context, req *connect.Request[RefactorRequest]) (*connect.Response[RefactorResponse], error) {
	in := req.Msg
	focus := refactor.FocusReadability
	if strings.TrimSpace(in.Focus) != "" {
		f, err := refactor.ParseFocus(in.Focus)
		if err != nil {
			return nil, toConnectError(err)
		}
		focus = f
	}
	r := refactor.Request{Code: in.Code, Language: strings.TrimSpace(in.Language), Focus: focus}

	id := uuid.NewString()
	ctx = llm.WithRequestID(ctx, id)
	res, err := h.svc.Refactor(ctx, r)
	if err != nil {
		h.log.Warn("Refactor failed", zap.String("request_id", id), zap.Error(err))
		return nil, toConnectError(err)
	}

	out := &RefactorResponse{Result: res}
	if h.history != nil {
		if err := (history.Recorder{Store: h.history}).Record(ctx, r, res); err != nil {
			h.log.Error("Failed to record result", zap.String("request_id", id), zap.Error(err))
		} else {
			out.HistoryID = id
		}
	}
	return connect.NewResponse(out), nil
}

func (h *RefactorHandler) ListHistory(ctx context.Context, req *connect.Request[ListHistoryRequest]) (*connect.Response[ListHistoryResponse], error) {
	if req.Msg.Limit < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("limit must not be negative"))
	}
	out := &ListHistoryResponse{Items: []history.Item{}}
	if h.history == nil {
		return connect.NewResponse(out), nil
	}
	items, err := h.history.List(ctx, req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(err)
	}
	out.Items = items
	return connect.NewResponse(out), nil
}

func (h *RefactorHandler) GetHistory(ctx context.Context, req *connect.Request[GetHistoryRequest]) (*connect.Response[history.Item], error) {
	id := strings.TrimSpace(req.Msg.ID)
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("id is required"))
	}
	if h.history == nil {
		return nil, toConnectError(history.ErrNotFound)
	}
	item, err := h.history.Get(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&item), nil
}

// GetArchive returns the prompt and model output stored for a request id.
// History ids are request ids, so any recorded item can be looked up here.
func (h *RefactorHandler) GetArchive(ctx context.Context, req *connect.Request[GetArchiveRequest]) (*connect.Response[GetArchiveResponse], error) {
	id := strings.TrimSpace(req.Msg.ID)
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("id is required"))
	}
	if h.archive == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, fmt.Errorf("archive is disabled"))
	}
	paths, err := h.archive.List(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	if len(paths) == 0 {
		return nil, toConnectError(fmt.Errorf("request %s: %w", id, artifact.ErrNotFound))
	}
	out := &GetArchiveResponse{ID: id, Files: make([]ArchiveFile, 0, len(paths))}
	for _, p := range paths {
		b, err := h.archive.Get(ctx, id, p)
		if err != nil {
			return nil, toConnectError(err)
		}
		out.Files = append(out.Files, ArchiveFile{Path: p, Content: string(b)})
	}
	return connect.NewResponse(out), nil
}

func (h *RefactorHandler) ListOptions(context.Context, *connect.Request[ListOptionsRequest]) (*connect.Response[ListOptionsResponse], error) {
	out := &ListOptionsResponse{
		Languages:       h.cat.Labels(),
		DefaultLanguage: h.cat.DefaultLanguage,
		Placeholder:     h.cat.Placeholder,
	}
	for _, f := range refactor.Focuses() {
		out.Focuses = append(out.Focuses, FocusOption{Name: f.String(), Label: f.Label()})
	}
	return connect.NewResponse(out), nil
}

// toConnectError maps domain failures onto connect codes. The message text
// is kept as is so callers see the same string the page would show.
func toConnectError(err error) error {
	var ce *connect.Error
	switch {
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, refactor.ErrInvalidRequest):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, refactor.ErrMissingCredential):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, refactor.ErrNoResponse):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, refactor.ErrParseResponse):
		return connect.NewError(connect.CodeDataLoss, err)
	case errors.Is(err, history.ErrNotFound), errors.Is(err, artifact.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	default:
		return connect.NewError(connect.CodeUnknown, err)
	}
}

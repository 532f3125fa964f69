package artifact

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const writeTimeout = 10 * time.Second

// ArchiveHook writes every prompt and its outcome to a Store. It satisfies
// llm.PromptHook. Write failures are logged and never reach the caller.
type ArchiveHook struct {
	store Store
	log   *zap.Logger
}

func NewArchiveHook(store Store, log *zap.Logger) *ArchiveHook {
	if log == nil {
		log = zap.NewNop()
	}
	return &ArchiveHook{store: store, log: log}
}

func (h *ArchiveHook) Before(ctx context.Context, requestID, prompt string) {
	h.put(ctx, requestID, PromptFile, []byte(prompt))
}

func (h *ArchiveHook) After(ctx context.Context, requestID string, raw json.RawMessage, err error) {
	if err != nil {
		h.put(ctx, requestID, ErrorFile, []byte(err.Error()))
		return
	}
	h.put(ctx, requestID, ResponseFile, raw)
}

func (h *ArchiveHook) put(ctx context.Context, requestID, path string, content []byte) {
	if h == nil || h.store == nil {
		return
	}
	// The model call may have ended because ctx expired; the archive still
	// gets written.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := h.store.Put(wctx, requestID, path, content); err != nil {
		h.log.Warn("archive write failed",
			zap.String("request_id", requestID),
			zap.String("path", path),
			zap.Error(err))
	}
}

package httpapi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"vagahunter-engine/internal/poll"
)

type ScrapeHandler struct {
	Poller  Poller
	BaseCtx context.Context
}

func (h ScrapeHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Poller.Status())
}

// Run starts the watch queries in the background.
func (h ScrapeHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Poller.Status().Running {
		WriteJSON(w, http.StatusOK, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	ctx := h.BaseCtx
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		added, err := h.Poller.RunOnce(ctx)
		if err != nil && !errors.Is(err, poll.ErrAlreadyRunning) {
			zap.L().Warn("manual run failed", zap.Error(err))
			return
		}
		zap.L().Info("manual run finished", zap.Int("added", added))
	}()

	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

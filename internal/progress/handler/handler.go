package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vetting/internal/progress/models"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/platform/httputil"
	"vetting/pkg/requestcontext"
)

type Service interface {
	Stats(ctx context.Context, caller id.Caller) (*models.Stats, error)
	Progress(ctx context.Context, caller id.Caller, userID id.UserID) (*models.Progress, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/me/verification/progress", h.HandleMyProgress)
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/stats", h.HandleStats)
	r.Get("/admin/users/{id}/progress", h.HandleUserProgress)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.Stats(ctx, requestcontext.Caller(ctx))
	if err != nil {
		h.fail(w, r, "failed to load stats", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) HandleMyProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)
	h.writeProgress(w, r, caller, caller.UserID)
}

func (h *Handler) HandleUserProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeProgress(w, r, requestcontext.Caller(r.Context()), userID)
}

func (h *Handler) writeProgress(w http.ResponseWriter, r *http.Request, caller id.Caller, userID id.UserID) {
	p, err := h.service.Progress(r.Context(), caller, userID)
	if err != nil {
		h.fail(w, r, "failed to load progress", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"user_id", requestcontext.UserID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

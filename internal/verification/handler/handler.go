package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vetting/internal/verification/export"
	"vetting/internal/verification/models"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/platform/httputil"
	request "vetting/pkg/platform/middleware/request"
	"vetting/pkg/requestcontext"
)

type Service interface {
	Submit(ctx context.Context, caller id.Caller, userID id.UserID, req *models.SubmitRequest) (*models.Record, error)
	Approve(ctx context.Context, caller id.Caller, verificationID id.VerificationID, note string) (*models.Record, error)
	Reject(ctx context.Context, caller id.Caller, verificationID id.VerificationID, reason string) (*models.Record, error)
	RequestInfo(ctx context.Context, caller id.Caller, verificationID id.VerificationID, reason string) (*models.Record, error)
	BulkAction(ctx context.Context, caller id.Caller, ids []string, action, reason string) (*models.BulkResult, error)
	GetMine(ctx context.Context, caller id.Caller) (*models.Record, error)
	Get(ctx context.Context, caller id.Caller, verificationID id.VerificationID) (*models.Record, error)
	History(ctx context.Context, caller id.Caller, verificationID id.VerificationID) ([]models.AuditLogEntry, error)
	List(ctx context.Context, caller id.Caller, filter models.ListFilter) (*models.Page, error)
	Export(ctx context.Context, caller id.Caller, filter models.ListFilter, w io.Writer) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the caller's own verification endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me/verification", h.HandleGetMine)
	r.With(request.ContentTypeJSON).Post("/me/verification/submit", h.HandleSubmit)
}

// RegisterAdmin mounts the review endpoints. The router is expected to carry
// the admin role check.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/verifications", h.HandleList)
	r.Get("/admin/verifications/export", h.HandleExport)
	r.Get("/admin/verifications/{id}", h.HandleGet)
	r.Get("/admin/verifications/{id}/history", h.HandleHistory)

	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		r.Post("/admin/verifications/bulk", h.HandleBulk)
		r.Post("/admin/verifications/{id}/approve", h.HandleApprove)
		r.Post("/admin/verifications/{id}/reject", h.HandleReject)
		r.Post("/admin/verifications/{id}/request-info", h.HandleRequestInfo)
	})
}

func (h *Handler) HandleGetMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	record, err := h.service.GetMine(ctx, requestcontext.Caller(ctx))
	if err != nil {
		h.fail(w, r, "failed to load verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &RecordResponse{Verification: record})
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)
	if err := caller.RequireAuthenticated(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.SubmitRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	record, err := h.service.Submit(ctx, caller, caller.UserID, req)
	if err != nil {
		h.fail(w, r, "failed to submit verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &RecordResponse{Verification: record})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := h.service.List(ctx, requestcontext.Caller(ctx), filter)
	if err != nil {
		h.fail(w, r, "failed to list verifications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// HandleExport buffers the workbook so a failure can still be reported as
// JSON.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := h.service.Export(ctx, requestcontext.Caller(ctx), filter, &buf); err != nil {
		h.fail(w, r, "failed to export verifications", err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="verifications.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vid, ok := verificationID(w, r)
	if !ok {
		return
	}
	record, err := h.service.Get(ctx, requestcontext.Caller(ctx), vid)
	if err != nil {
		h.fail(w, r, "failed to load verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &RecordResponse{Verification: record})
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vid, ok := verificationID(w, r)
	if !ok {
		return
	}
	entries, err := h.service.History(ctx, requestcontext.Caller(ctx), vid)
	if err != nil {
		h.fail(w, r, "failed to load verification history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &HistoryResponse{Entries: entries})
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, h.service.Approve)
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, h.service.Reject)
}

func (h *Handler) HandleRequestInfo(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, h.service.RequestInfo)
}

type decisionFunc func(ctx context.Context, caller id.Caller, verificationID id.VerificationID, reason string) (*models.Record, error)

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request, decide decisionFunc) {
	ctx := r.Context()
	vid, ok := verificationID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.DecisionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	record, err := decide(ctx, requestcontext.Caller(ctx), vid, req.Reason)
	if err != nil {
		h.fail(w, r, "verification decision failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &RecordResponse{Verification: record})
}

func (h *Handler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.BulkActionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	result, err := h.service.BulkAction(ctx, requestcontext.Caller(ctx), req.IDs, req.Action, req.Reason)
	if err != nil {
		h.fail(w, r, "bulk verification action failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func parseFilter(r *http.Request) (models.ListFilter, error) {
	q := r.URL.Query()
	var filter models.ListFilter
	if raw := q.Get("status"); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeBadRequest, "limit must be a number")
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, dErrors.New(dErrors.CodeBadRequest, "offset must be a non-negative number")
		}
		filter.Offset = n
	}
	return filter, nil
}

func verificationID(w http.ResponseWriter, r *http.Request) (id.VerificationID, bool) {
	vid, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.VerificationID{}, false
	}
	return vid, true
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

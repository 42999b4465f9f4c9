package handler

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vetting/internal/sections/models"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/platform/httputil"
	request "vetting/pkg/platform/middleware/request"
	"vetting/pkg/requestcontext"
)

// maxUploadBytes caps a single document image.
const maxUploadBytes = 10 << 20

type Service interface {
	Completeness(ctx context.Context, userID id.UserID, userType id.UserType) (*models.Sections, models.Completeness, error)
	Get(ctx context.Context, userID id.UserID) (*models.Sections, error)
	SavePersonalInfo(ctx context.Context, userID id.UserID, req *models.PersonalInfoRequest) (*models.PersonalInfo, error)
	SaveEducation(ctx context.Context, userID id.UserID, req *models.EducationRequest) (*models.Education, error)
	ReplaceJobHistory(ctx context.Context, userID id.UserID, req *models.JobHistoryRequest) ([]models.JobEntry, error)
	SaveDocumentDraft(ctx context.Context, userID id.UserID, draft models.DocumentDraft) (*models.IdentityDocument, error)
	RemoveDocumentImage(ctx context.Context, userID id.UserID, side models.Side) (*models.IdentityDocument, error)
	UploadDocumentImage(ctx context.Context, userID id.UserID, side models.Side, contentType string, body io.Reader) (string, error)
}

type UserTypes interface {
	UserType(ctx context.Context, userID id.UserID) (id.UserType, error)
}

type Handler struct {
	service Service
	users   UserTypes
	logger  *slog.Logger
}

func New(service Service, users UserTypes, logger *slog.Logger) *Handler {
	return &Handler{service: service, users: users, logger: logger}
}

// Register mounts the caller's own section endpoints. Uploads carry image
// bodies and are mounted outside the JSON content-type check.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me/sections", h.HandleGetSections)
	r.Get("/me/sections/personal-info", h.HandleGetPersonalInfo)
	r.Delete("/me/sections/document/{side}", h.HandleRemoveImage)
	r.Post("/me/sections/document/{side}/upload", h.HandleUpload)

	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		r.Put("/me/sections/personal-info", h.HandleSavePersonalInfo)
		r.Put("/me/sections/education", h.HandleSaveEducation)
		r.Put("/me/sections/job-history", h.HandleReplaceJobHistory)
		r.Put("/me/sections/document", h.HandleSaveDocument)
	})
}

func (h *Handler) HandleGetSections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	userType, err := h.users.UserType(ctx, userID)
	if err != nil {
		h.fail(w, r, "failed to resolve user type", err)
		return
	}
	sections, completeness, err := h.service.Completeness(ctx, userID, userType)
	if err != nil {
		h.fail(w, r, "failed to load sections", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &SectionsResponse{
		UserType:     userType,
		Sections:     sections,
		Completeness: completeness,
	})
}

func (h *Handler) HandleGetPersonalInfo(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	sections, err := h.service.Get(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "failed to load personal info", err)
		return
	}
	if sections.PersonalInfo == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "personal info not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sections.PersonalInfo)
}

func (h *Handler) HandleSavePersonalInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.PersonalInfoRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	info, err := h.service.SavePersonalInfo(ctx, userID, req)
	if err != nil {
		h.fail(w, r, "failed to save personal info", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) HandleSaveEducation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.EducationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	edu, err := h.service.SaveEducation(ctx, userID, req)
	if err != nil {
		h.fail(w, r, "failed to save education", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, edu)
}

func (h *Handler) HandleReplaceJobHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.JobHistoryRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	jobs, err := h.service.ReplaceJobHistory(ctx, userID, req)
	if err != nil {
		h.fail(w, r, "failed to save job history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &JobHistoryResponse{Jobs: jobs})
}

func (h *Handler) HandleSaveDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	draft, ok := httputil.DecodeAndPrepare[models.DocumentDraft](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	doc, err := h.service.SaveDocumentDraft(ctx, userID, *draft)
	if err != nil {
		h.fail(w, r, "failed to save document draft", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) HandleRemoveImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	side, err := models.ParseSide(chi.URLParam(r, "side"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	doc, err := h.service.RemoveDocumentImage(r.Context(), userID, side)
	if err != nil {
		h.fail(w, r, "failed to remove document image", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &DocumentResponse{Document: doc})
}

// HandleUpload accepts either a multipart form with a "file" part or a raw
// image body.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	side, err := models.ParseSide(chi.URLParam(r, "side"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	body, contentType, err := uploadBody(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer body.Close()

	url, err := h.service.UploadDocumentImage(ctx, userID, side, contentType, body)
	if err != nil {
		h.fail(w, r, "failed to upload document image", err)
		return
	}
	h.logger.InfoContext(ctx, "document image uploaded",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID,
		"side", side,
	)
	httputil.WriteJSON(w, http.StatusCreated, &UploadResponse{Side: side, URL: url})
}

func uploadBody(r *http.Request) (io.ReadCloser, string, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "Content-Type header required")
	}
	if mediaType != "multipart/form-data" {
		return r.Body, mediaType, nil
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "file part required")
	}
	partType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil {
		_ = file.Close()
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "file Content-Type required")
	}
	return file, partType, nil
}

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	caller := requestcontext.Caller(r.Context())
	if err := caller.RequireAuthenticated(); err != nil {
		httputil.WriteError(w, err)
		return id.UserID{}, false
	}
	return caller.UserID, true
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

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vetting/internal/sections/models"
	"vetting/internal/wizard"
	id "vetting/pkg/domain"
	dErrors "vetting/pkg/domain-errors"
	"vetting/pkg/platform/httputil"
	"vetting/pkg/requestcontext"
)

type UserTypes interface {
	UserType(ctx context.Context, userID id.UserID) (id.UserType, error)
}

type Handler struct {
	sections      wizard.SectionService
	verification  wizard.VerificationService
	users         UserTypes
	logger        *slog.Logger
	autosaveDelay time.Duration
}

type Option func(*Handler)

// WithAutosaveDelay sets the debounce delay of the controllers the handler
// builds.
func WithAutosaveDelay(d time.Duration) Option {
	return func(h *Handler) {
		h.autosaveDelay = d
	}
}

func New(sections wizard.SectionService, verification wizard.VerificationService, users UserTypes, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{sections: sections, verification: verification, users: users, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/me/verification/wizard", h.HandleResume)
}

type Response struct {
	Steps        []wizard.Step       `json:"steps"`
	State        wizard.State        `json:"state"`
	CanContinue  bool                `json:"can_continue"`
	Completeness models.Completeness `json:"completeness"`
}

// HandleResume returns the wizard seeded from saved sections and positioned
// at the first incomplete step.
func (h *Handler) HandleResume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)
	if err := caller.RequireAuthenticated(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	userType, err := h.users.UserType(ctx, caller.UserID)
	if err != nil {
		h.fail(w, r, "failed to resolve user type", err)
		return
	}

	gateway := wizard.NewLocalGateway(caller, h.sections, h.verification)
	opts := []wizard.ControllerOption{wizard.WithControllerLogger(h.logger)}
	if h.autosaveDelay > 0 {
		opts = append(opts, wizard.WithAutosaveDelay(h.autosaveDelay))
	}
	ctrl := wizard.NewController(ctx, userType, gateway, opts...)
	defer ctrl.Close()

	completeness, err := ctrl.Resume(ctx)
	if err != nil {
		h.fail(w, r, "failed to resume wizard", err)
		return
	}
	state := ctrl.State()
	httputil.WriteJSON(w, http.StatusOK, &Response{
		Steps:        state.Steps(),
		State:        state,
		CanContinue:  wizard.CanContinue(state),
		Completeness: completeness,
	})
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

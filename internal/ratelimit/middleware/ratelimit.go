package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"vetting/internal/ratelimit/metrics"
	"vetting/internal/ratelimit/models"
	"vetting/pkg/platform/httputil"
	"vetting/pkg/requestcontext"
)

type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

type Middleware struct {
	store    BucketStore
	limits   map[models.EndpointClass]models.Limit
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns every check into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithLimit overrides the budget for one class.
func WithLimit(class models.EndpointClass, limit models.Limit) Option {
	return func(m *Middleware) {
		m.limits[class] = limit
	}
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

func New(store BucketStore, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:  store,
		limits: models.DefaultLimits(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// ClassifyFunc picks the budget for a request. ok=false leaves the request
// unbudgeted.
type ClassifyFunc func(r *http.Request) (class models.EndpointClass, ok bool)

// RateLimit budgets requests of class per authenticated caller, or per client
// IP when no caller is present. Store failures let the request through.
func (m *Middleware) RateLimit(class models.EndpointClass) func(http.Handler) http.Handler {
	return m.RateLimitBy(func(*http.Request) (models.EndpointClass, bool) { return class, true })
}

// RateLimitBy is RateLimit with the class chosen per request.
func (m *Middleware) RateLimitBy(classify ClassifyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m.disabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class, ok := classify(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			limit, ok := m.limits[class]
			if !ok || limit.Requests <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			if m.allow(w, r, class, limit) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// allow writes the 429 response itself when the request is denied.
func (m *Middleware) allow(w http.ResponseWriter, r *http.Request, class models.EndpointClass, limit models.Limit) bool {
	ctx := r.Context()
	key := bucketKey(ctx, class)

	result, err := m.store.Allow(ctx, key, limit.Requests, limit.Window)
	if err != nil {
		m.metrics.IncrementStoreErrors()
		m.logger.ErrorContext(ctx, "failed to check rate limit",
			"request_id", requestcontext.RequestID(ctx),
			"class", string(class),
			"error", err,
		)
		return true
	}

	addRateLimitHeaders(w, result)
	if !result.Allowed {
		m.metrics.IncrementDenied(class)
		m.logger.WarnContext(ctx, "rate limit exceeded",
			"request_id", requestcontext.RequestID(ctx),
			"class", string(class),
			"key", key,
		)
		writeRateLimitExceeded(w, result)
		return false
	}
	return true
}

func bucketKey(ctx context.Context, class models.EndpointClass) string {
	if userID := requestcontext.UserID(ctx); !userID.IsNil() {
		return "user:" + userID.String() + ":" + string(class)
	}
	return "ip:" + requestcontext.ClientIP(ctx) + ":" + string(class)
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}

package testutil

import (
	"context"
	"net/http"
	"time"

	id "vetting/pkg/domain"
	"vetting/pkg/requestcontext"
)

// WithCaller places caller in the request context, as the auth middleware would.
func WithCaller(req *http.Request, caller id.Caller) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// WithUser authenticates the request as a plain user. An invalid UUID leaves
// the request anonymous.
func WithUser(req *http.Request, userID string) *http.Request {
	parsed, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	return WithCaller(req, id.Caller{UserID: parsed, Role: id.RoleUser})
}

// WithAdmin authenticates the request as an admin. An invalid UUID leaves the
// request anonymous.
func WithAdmin(req *http.Request, userID string) *http.Request {
	parsed, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	return WithCaller(req, id.Caller{UserID: parsed, Role: id.RoleAdmin})
}

// WithRequestTime pins requestcontext.Now for the request.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}

package admin

import (
	"log/slog"
	"net/http"

	"vetting/pkg/platform/httputil"
	"vetting/pkg/requestcontext"
)

// RequireAdmin rejects callers without the admin role. It must run after the
// auth middleware has placed the caller in the context.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			caller := requestcontext.Caller(ctx)
			if err := caller.RequireAdmin(); err != nil {
				logger.WarnContext(ctx, "admin route denied",
					"request_id", requestcontext.RequestID(ctx),
					"user_id", caller.UserID.String(),
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

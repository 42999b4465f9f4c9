package httpserver

import (
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 120 * time.Second
	// uploads stream document images through the read timeout
	readTimeout = 60 * time.Second
	// writes get headroom past the handler timeout so its 503 still reaches the client
	writeSlack = 5 * time.Second
)

type Option func(*http.Server)

// WithRequestTimeout sizes the write timeout for handlers bounded by d.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *http.Server) {
		if d > 0 {
			s.WriteTimeout = d + writeSlack
		}
	}
}

func New(addr string, handler http.Handler, opts ...Option) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      30*time.Second + writeSlack,
		IdleTimeout:       idleTimeout,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

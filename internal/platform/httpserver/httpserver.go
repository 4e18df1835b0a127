package httpserver

import (
	"net/http"
	"time"
)

// New builds the ops HTTP server. The surface is small read-only queries, so
// read and write timeouts are tight; idle keep-alives get a longer leash for
// scrapers polling /metrics.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
}

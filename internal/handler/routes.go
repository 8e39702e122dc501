package handler

import "net/http"

// Routes builds the API mux wrapped in the standard middleware.
// metricsHandler may be nil to leave /metrics unmounted.
func Routes(h *Handler, contact *ContactHandler, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.Health)
	// Registered without a method so the handler can answer other verbs
	// with the JSON envelope instead of the mux's plain-text 405.
	mux.HandleFunc("/api/contact", contact.Contact)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
	return Chain(mux, RequestLogger, SecurityHeaders, h.CORS)
}

package http

import (
	"log/slog"
	"net/http"
	"time"

	mw "github.com/setrow/taskboard-backend/internal/adapters/primary/http/middleware"
	"github.com/setrow/taskboard-backend/internal/realtime"
)

// StreamHandler serves the server-sent-events stream. Each connection gets
// its own registry listener and sees every event published while it is
// connected, in publish order, with no replay of earlier events.
type StreamHandler struct {
	registry  *realtime.Registry
	keepAlive time.Duration
	logger    *slog.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(registry *realtime.Registry, keepAlive time.Duration, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		registry:  registry,
		keepAlive: keepAlive,
		logger:    logger.With("handler", "stream"),
	}
}

// ServeHTTP handles GET /events
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("response writer does not support flushing",
			"request_id", GetRequestID(r.Context()),
		)
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "Streaming unsupported",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Info("event stream opened",
		"user_id", claims.UserID,
		"request_id", GetRequestID(r.Context()),
	)

	session := realtime.NewSession(h.registry, w, flusher, h.keepAlive, h.logger)
	session.Run(r.Context())

	h.logger.Info("event stream closed",
		"user_id", claims.UserID,
		"request_id", GetRequestID(r.Context()),
	)
}

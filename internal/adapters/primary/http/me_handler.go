package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	mw "github.com/setrow/taskboard-backend/internal/adapters/primary/http/middleware"
	"github.com/setrow/taskboard-backend/internal/core/ports"
)

// MeHandler handles HTTP requests for the authenticated user.
type MeHandler struct {
	userService  ports.UserService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewMeHandler creates a new MeHandler.
func NewMeHandler(
	userService ports.UserService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *MeHandler {
	return &MeHandler{
		userService:  userService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "me"),
	}
}

// RegisterRoutes registers the /me routes.
func (h *MeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleGetMe)
}

// HandleGetMe handles GET /me.
func (h *MeHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	user, err := h.userService.GetUser(r.Context(), claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	})
}

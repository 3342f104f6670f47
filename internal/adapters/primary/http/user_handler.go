package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/setrow/taskboard-backend/internal/adapters/primary/validation"
	"github.com/setrow/taskboard-backend/internal/core/domain"
	"github.com/setrow/taskboard-backend/internal/core/ports"
)

// UserHandler handles HTTP requests for users
type UserHandler struct {
	userService  ports.UserService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	userService ports.UserService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		userService:  userService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "user"),
	}
}

// RegisterRoutes sets up the routing for the user endpoints.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListUsers)
	r.Delete("/{userID}", h.HandleDeleteUser)
}

func toUserDTOs(users []*domain.User) []UserDTO {
	response := make([]UserDTO, 0, len(users))
	for _, user := range users {
		response = append(response, UserDTO{
			ID:        user.ID,
			Username:  user.Username,
			CreatedAt: user.CreatedAt.Format(time.RFC3339),
		})
	}
	return response
}

// HandleListUsers handles GET /users
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toUserDTOs(users))
}

// HandleDeleteUser handles DELETE /users/{userID}
func (h *UserHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := h.parseUserID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.userService.DeleteUser(r.Context(), userID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("user deleted", "user_id", userID)

	WriteNoContent(w)
}

// parseUserID extracts and validates the user ID from the URL
func (h *UserHandler) parseUserID(r *http.Request) (int64, error) {
	userIDStr := chi.URLParam(r, "userID")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID <= 0 {
		v := validation.NewValidator()
		v.Custom("userID", false, "Invalid user ID")
		return 0, v.Errors()
	}
	return userID, nil
}

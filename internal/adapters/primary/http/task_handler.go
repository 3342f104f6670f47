package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/setrow/taskboard-backend/internal/adapters/primary/validation"
	"github.com/setrow/taskboard-backend/internal/core/domain"
	"github.com/setrow/taskboard-backend/internal/core/ports"
)

const dueDateLayout = "2006-01-02"

// TaskHandler handles HTTP requests for tasks
type TaskHandler struct {
	taskService  ports.TaskService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(
	taskService ports.TaskService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *TaskHandler {
	return &TaskHandler{
		taskService:  taskService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "task"),
	}
}

// RegisterRoutes sets up the routing for all task endpoints.
func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListTasks)
	r.Post("/", h.HandleCreateTask)

	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", h.HandleGetTask)
		r.Patch("/", h.HandleUpdateTask)
		r.Delete("/", h.HandleDeleteTask)
	})
}

// --- Request/Response DTOs ---

// CreateTaskRequest defines the expected JSON body for creating a task
type CreateTaskRequest struct {
	Title          string  `json:"title"`
	AssignedUserID *int64  `json:"assigned_user_id"`
	DueDate        *string `json:"due_date"`
}

// Validate validates the create task request
func (r *CreateTaskRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("title", r.Title).
		MaxLength("title", r.Title, domain.MaxTitleLength)

	if r.DueDate != nil {
		_, err := time.Parse(dueDateLayout, *r.DueDate)
		v.Custom("due_date", err == nil, "Must be a date in YYYY-MM-DD format")
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateTaskRequest defines the expected JSON body for a partial task update.
// Raw fields distinguish an absent key from an explicit null: absent leaves
// the field unchanged, null clears it.
type UpdateTaskRequest struct {
	Title          *string         `json:"title"`
	Completed      *bool           `json:"completed"`
	AssignedUserID json.RawMessage `json:"assigned_user_id"`
	DueDate        json.RawMessage `json:"due_date"`
}

// TaskDTO defines the JSON response for tasks.
type TaskDTO struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Completed        bool    `json:"completed"`
	AssignedUserID   *int64  `json:"assigned_user_id"`
	AssignedUsername *string `json:"assigned_username"`
	CreatedAt        string  `json:"created_at"`
	CompletedAt      *string `json:"completed_at"`
	DueDate          *string `json:"due_date"`
}

func toTaskDTO(task *domain.Task) TaskDTO {
	var completedAt *string
	if task.CompletedAt != nil {
		value := task.CompletedAt.Format(time.RFC3339)
		completedAt = &value
	}

	var dueDate *string
	if task.DueDate != nil {
		value := task.DueDate.Format(dueDateLayout)
		dueDate = &value
	}

	return TaskDTO{
		ID:               task.ID,
		Title:            task.Title,
		Completed:        task.Completed,
		AssignedUserID:   task.AssignedUserID,
		AssignedUsername: task.AssignedUsername,
		CreatedAt:        task.CreatedAt.Format(time.RFC3339),
		CompletedAt:      completedAt,
		DueDate:          dueDate,
	}
}

func toTaskDTOs(tasks []*domain.Task) []TaskDTO {
	response := make([]TaskDTO, 0, len(tasks))
	for _, task := range tasks {
		response = append(response, toTaskDTO(task))
	}
	return response
}

// --- Handlers ---

// HandleListTasks handles GET /tasks
func (h *TaskHandler) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.ListTasks(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toTaskDTOs(tasks))
}

// HandleCreateTask handles POST /tasks
func (h *TaskHandler) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[CreateTaskRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var dueDate *time.Time
	if req.DueDate != nil {
		parsed, _ := time.Parse(dueDateLayout, *req.DueDate)
		dueDate = &parsed
	}

	params := ports.CreateTaskParams{
		Title:          req.Title,
		AssignedUserID: req.AssignedUserID,
		DueDate:        dueDate,
	}

	task, err := h.taskService.CreateTask(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("task created", "task_id", task.ID)

	WriteCreated(w, toTaskDTO(task))
}

// HandleGetTask handles GET /tasks/{taskID}
func (h *TaskHandler) HandleGetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := h.parseTaskID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	task, err := h.taskService.GetTask(r.Context(), taskID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toTaskDTO(task))
}

// HandleUpdateTask handles PATCH /tasks/{taskID}
func (h *TaskHandler) HandleUpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := h.parseTaskID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateTaskRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateTaskParams{
		TaskID:    taskID,
		Title:     req.Title,
		Completed: req.Completed,
	}

	v := validation.NewValidator()

	if req.AssignedUserID != nil {
		params.Assignee.Set = true
		if !isJSONNull(req.AssignedUserID) {
			var userID int64
			if err := json.Unmarshal(req.AssignedUserID, &userID); err != nil {
				v.Custom("assigned_user_id", false, "Must be a user ID or null")
			} else {
				params.Assignee.UserID = &userID
			}
		}
	}

	if req.DueDate != nil {
		params.DueDate.Set = true
		if !isJSONNull(req.DueDate) {
			var dateStr string
			if err := json.Unmarshal(req.DueDate, &dateStr); err != nil {
				v.Custom("due_date", false, "Must be a date string or null")
			} else if parsed, err := time.Parse(dueDateLayout, dateStr); err != nil {
				v.Custom("due_date", false, "Must be a date in YYYY-MM-DD format")
			} else {
				params.DueDate.Date = &parsed
			}
		}
	}

	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("task updated", "task_id", taskID)

	WriteJSON(w, http.StatusOK, toTaskDTO(task))
}

// HandleDeleteTask handles DELETE /tasks/{taskID}
func (h *TaskHandler) HandleDeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := h.parseTaskID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), taskID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("task deleted", "task_id", taskID)

	WriteNoContent(w)
}

// --- Helper methods ---

// parseTaskID extracts and validates the task ID from the URL
func (h *TaskHandler) parseTaskID(r *http.Request) (int64, error) {
	taskIDStr := chi.URLParam(r, "taskID")
	taskID, err := strconv.ParseInt(taskIDStr, 10, 64)
	if err != nil || taskID <= 0 {
		v := validation.NewValidator()
		v.Custom("taskID", false, "Invalid task ID")
		return 0, v.Errors()
	}
	return taskID, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

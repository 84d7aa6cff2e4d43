package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/services"
)

const maxTitleLength = 255

type taskResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newTaskResponse(task *models.Task) taskResponse {
	return taskResponse{
		ID:        task.ID,
		UserID:    task.UserID,
		Title:     task.Title,
		Completed: task.Completed,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}

type taskListResponse struct {
	Items  []taskResponse `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func (h *handlerImpl) HandleListTasks(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	params := services.ListTasksParams{UserID: userID}

	if raw, exists := c.GetQuery("completed"); exists && raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			h.logger.Error().
				Str("completed", raw).
				Msg("invalid completed filter")
			abort(c, http.StatusBadRequest, codeValidationError, "completed must be a boolean")
			return
		}
		params.Completed = &completed
	}
	if raw, exists := c.GetQuery("limit"); exists && raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			abort(c, http.StatusBadRequest, codeValidationError, "limit must be a non-negative integer")
			return
		}
		params.Limit = limit
	}
	if raw, exists := c.GetQuery("offset"); exists && raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			abort(c, http.StatusBadRequest, codeValidationError, "offset must be a non-negative integer")
			return
		}
		params.Offset = offset
	}

	page, err := h.tasks.ListTasks(c, params)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		abortInternal(c)
		return
	}

	items := make([]taskResponse, len(page.Items))
	for i, task := range page.Items {
		items[i] = newTaskResponse(task)
	}

	c.JSON(http.StatusOK, taskListResponse{
		Items:  items,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

type createTaskRequest struct {
	Title string `json:"title" binding:"required"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, http.StatusBadRequest, codeValidationError, "invalid request body")
		return
	}

	title, ok := h.validTitle(c, req.Title)
	if !ok {
		return
	}

	task, err := h.tasks.CreateTask(c, userID, title)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		abortInternal(c)
		return
	}

	c.JSON(http.StatusCreated, newTaskResponse(task))
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	taskID := c.Param("id")
	task, err := h.tasks.GetTask(c, userID, taskID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			abort(c, http.StatusNotFound, codeTaskNotFound, "the requested task does not exist")
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to get task")
		abortInternal(c)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

type updateTaskRequest struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, http.StatusBadRequest, codeValidationError, "invalid request body")
		return
	}

	if req.Title != nil {
		title, ok := h.validTitle(c, *req.Title)
		if !ok {
			return
		}
		req.Title = &title
	}

	task, err := h.tasks.UpdateTask(c, services.UpdateTaskParams{
		ID:        c.Param("id"),
		UserID:    userID,
		Title:     req.Title,
		Completed: req.Completed,
	})
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			abort(c, http.StatusNotFound, codeTaskNotFound, "the requested task does not exist")
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to update task")
		abortInternal(c)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	taskID := c.Param("id")
	err := h.tasks.DeleteTask(c, userID, taskID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			abort(c, http.StatusNotFound, codeTaskNotFound, "the requested task does not exist")
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to delete task")
		abortInternal(c)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleToggleTask(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	taskID := c.Param("id")
	task, err := h.tasks.ToggleTask(c, userID, taskID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			abort(c, http.StatusNotFound, codeTaskNotFound, "the requested task does not exist")
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to toggle task")
		abortInternal(c)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

// validTitle trims the incoming title and rejects blank or oversized
// values. Persisted titles are never empty.
func (h *handlerImpl) validTitle(c *gin.Context, raw string) (string, bool) {
	title := strings.TrimSpace(raw)
	if title == "" {
		abortWithDetails(c, http.StatusBadRequest, codeValidationError,
			"title cannot be empty or whitespace only",
			map[string]any{"field": "title"})
		return "", false
	}
	if len(title) > maxTitleLength {
		abortWithDetails(c, http.StatusBadRequest, codeValidationError,
			"title is too long",
			map[string]any{"field": "title", "max_length": maxTitleLength})
		return "", false
	}
	return title, true
}

package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/models"
)

// DefaultListLimit caps a task page when the caller doesn't ask for one.
const DefaultListLimit = 100

type taskServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, userID, title string) (*models.Task, error) {
	now := time.Now()
	task := &models.Task{
		UserID:    userID,
		Title:     title,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return nil, err
	}
	task.ID = taskUUID.String()

	const insertTaskQuery = `
INSERT INTO tasks (id,
                   user_id,
                   title,
                   completed,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertTaskQuery,
		task.ID,
		task.UserID,
		task.Title,
		task.Completed,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, params ListTasksParams) (*TaskPage, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultListLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	// The completed filter is applied as "$2 IS NULL OR completed = $2"
	// so one statement serves both the filtered and unfiltered list.
	const countTasksQuery = `
SELECT count(*)
FROM tasks
WHERE user_id = $1 AND
      ($2::boolean IS NULL OR completed = $2)
`
	var total int
	err := s.pgPool.QueryRow(
		ctx,
		countTasksQuery,
		params.UserID,
		params.Completed,
	).Scan(&total)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to count tasks")
		return nil, err
	}

	const selectTasksQuery = `
SELECT id,
       title,
       completed,
       created_at,
       updated_at
FROM tasks
WHERE user_id = $1 AND
      ($2::boolean IS NULL OR completed = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`
	rows, err := s.pgPool.Query(
		ctx,
		selectTasksQuery,
		params.UserID,
		params.Completed,
		params.Limit,
		params.Offset,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks by user id")
		return nil, err
	}
	defer rows.Close()

	items := make([]*models.Task, 0, params.Limit)
	for rows.Next() {
		task := &models.Task{UserID: params.UserID}
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Completed,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		items = append(items, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(items)).
		Int("total", total).
		Str("user_id", params.UserID).
		Msg("selected tasks by user id")

	return &TaskPage{
		Items:  items,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task := &models.Task{
		ID:     taskID,
		UserID: userID,
	}

	const selectTaskQuery = `
SELECT title,
       completed,
       created_at,
       updated_at
FROM tasks
WHERE id = $1 AND user_id = $2
`
	err := s.pgPool.QueryRow(
		ctx,
		selectTaskQuery,
		task.ID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("task_id", task.ID).
				Str("user_id", task.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to select task")
		return nil, err
	}

	return task, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	task := &models.Task{
		ID:        params.ID,
		UserID:    params.UserID,
		UpdatedAt: time.Now(),
	}

	const updateTaskQuery = `
UPDATE tasks
SET title = coalesce($1, title),
    completed = coalesce($2, completed),
    updated_at = $3
WHERE id = $4 AND user_id = $5
RETURNING title, completed, created_at
`
	err := s.pgPool.QueryRow(
		ctx,
		updateTaskQuery,
		params.Title,
		params.Completed,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.Completed,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("task_id", task.ID).
				Str("user_id", task.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) ToggleTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task := &models.Task{
		ID:        taskID,
		UserID:    userID,
		UpdatedAt: time.Now(),
	}

	const toggleTaskQuery = `
UPDATE tasks
SET completed = NOT completed,
    updated_at = $1
WHERE id = $2 AND user_id = $3
RETURNING title, completed, created_at
`
	err := s.pgPool.QueryRow(
		ctx,
		toggleTaskQuery,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.Completed,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("task_id", task.ID).
				Str("user_id", task.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to toggle task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Bool("completed", task.Completed).
		Msg("toggled task")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, userID, taskID string) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1 AND user_id = $2
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteTaskQuery,
		taskID,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to delete task")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Error().
			Str("task_id", taskID).
			Str("user_id", userID).
			Msg("task not found")
		return ErrTaskNotFound
	}

	s.logger.Info().
		Str("task_id", taskID).
		Str("user_id", userID).
		Msg("deleted task")
	return nil
}

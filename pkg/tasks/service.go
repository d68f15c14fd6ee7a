package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kanbanhq/taskboard/pkg/auth"
)

// Sentinel errors surfaced by the task service. The *NotMember errors are
// validation failures, not authorization denials: they map to 400, not 403.
var (
	ErrNotFound          = errors.New("task not found")
	ErrInvalidStatus     = errors.New("invalid task status")
	ErrInvalidPriority   = errors.New("invalid task priority")
	ErrAssigneeNotMember = errors.New("assignee must be owner or member of the board")
	ErrReviewerNotMember = errors.New("reviewer must be owner or member of the board")
)

// Service defines task operations
type Service interface {
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*Task, error)
	GetTask(ctx context.Context, id int64) (*Task, error)
	ListForUser(ctx context.Context, userID int64) ([]*Task, error)
	ListForBoard(ctx context.Context, boardID int64) ([]*Task, error)
	ListAssignedTo(ctx context.Context, userID int64) ([]*Task, error)
	ListReviewing(ctx context.Context, userID int64) ([]*Task, error)
	UpdateTask(ctx context.Context, id int64, req *UpdateTaskRequest) (*Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// PostgresService implements the Service interface using PostgreSQL
type PostgresService struct {
	db *sql.DB
}

// NewPostgresService creates a new PostgresService
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{db: db}
}

const taskSelect = `
	SELECT t.id, t.board_id, t.title, t.description, t.status, t.priority, t.due_date,
	       t.created_at, t.updated_at,
	       a.id, a.email, a.fullname,
	       r.id, r.email, r.fullname,
	       (SELECT COUNT(*) FROM comments c WHERE c.task_id = t.id) AS comments_count
	FROM tasks t
	LEFT JOIN users a ON a.id = t.assignee_id
	LEFT JOIN users r ON r.id = t.reviewer_id
`

// CreateTask creates a task on a board. The caller is responsible for
// authorizing access to the board; this method validates the field values
// and the board membership of assignee and reviewer.
func (s *PostgresService) CreateTask(ctx context.Context, req *CreateTaskRequest) (*Task, error) {
	status := req.Status
	if status == "" {
		status = StatusToDo
	}
	priority := req.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}

	if err := s.validateParticipants(ctx, req.BoardID, req.AssigneeID, req.ReviewerID); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO tasks (board_id, title, description, status, priority, assignee_id, reviewer_id, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		req.BoardID, req.Title, req.Description, status, priority,
		nullableID(req.AssigneeID), nullableID(req.ReviewerID), nullableDate(req.DueDate),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.GetTask(ctx, id)
}

// GetTask retrieves a task with its assignee, reviewer, and comment count
func (s *PostgresService) GetTask(ctx context.Context, id int64) (*Task, error) {
	row := s.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = $1`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// ListForUser returns every task visible to the user. The filter must match
// the read authorization predicate exactly.
func (s *PostgresService) ListForUser(ctx context.Context, userID int64) ([]*Task, error) {
	query := taskSelect + `
		WHERE EXISTS (SELECT 1 FROM boards b WHERE b.id = t.board_id AND b.owner_id = $1)
		   OR EXISTS (SELECT 1 FROM board_members m WHERE m.board_id = t.board_id AND m.user_id = $1)
		ORDER BY t.created_at ASC
	`
	return s.listTasks(ctx, query, userID)
}

// ListForBoard returns every task on a board, oldest first
func (s *PostgresService) ListForBoard(ctx context.Context, boardID int64) ([]*Task, error) {
	query := taskSelect + ` WHERE t.board_id = $1 ORDER BY t.created_at ASC`
	return s.listTasks(ctx, query, boardID)
}

// ListAssignedTo returns tasks where the user is the assignee
func (s *PostgresService) ListAssignedTo(ctx context.Context, userID int64) ([]*Task, error) {
	query := taskSelect + ` WHERE t.assignee_id = $1 ORDER BY t.created_at ASC`
	return s.listTasks(ctx, query, userID)
}

// ListReviewing returns tasks where the user is the reviewer
func (s *PostgresService) ListReviewing(ctx context.Context, userID int64) ([]*Task, error) {
	query := taskSelect + ` WHERE t.reviewer_id = $1 ORDER BY t.created_at ASC`
	return s.listTasks(ctx, query, userID)
}

// UpdateTask applies a partial update and returns the updated task
func (s *PostgresService) UpdateTask(ctx context.Context, id int64, req *UpdateTaskRequest) (*Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil && !req.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if req.Priority != nil && !req.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	// Participant changes are validated against the task's own board.
	if err := s.validateParticipants(ctx, task.BoardID, req.AssigneeID, req.ReviewerID); err != nil {
		return nil, err
	}

	query := `
		UPDATE tasks SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			status = COALESCE($4, status),
			priority = COALESCE($5, priority),
			assignee_id = CASE WHEN $6::bigint IS NULL THEN assignee_id WHEN $6 = 0 THEN NULL ELSE $6 END,
			reviewer_id = CASE WHEN $7::bigint IS NULL THEN reviewer_id WHEN $7 = 0 THEN NULL ELSE $7 END,
			due_date = COALESCE($8, due_date),
			updated_at = NOW()
		WHERE id = $1
	`
	_, err = s.db.ExecContext(ctx, query, id,
		req.Title, req.Description, (*string)(req.Status), (*string)(req.Priority),
		req.AssigneeID, req.ReviewerID, nullableDate(req.DueDate),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.GetTask(ctx, id)
}

// DeleteTask deletes a task; its comments cascade
func (s *PostgresService) DeleteTask(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// validateParticipants checks that assignee and reviewer, when set, are the
// board's owner or one of its members
func (s *PostgresService) validateParticipants(ctx context.Context, boardID int64, assigneeID, reviewerID *int64) error {
	if assigneeID != nil && *assigneeID != 0 {
		ok, err := s.isOwnerOrMember(ctx, boardID, *assigneeID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAssigneeNotMember
		}
	}
	if reviewerID != nil && *reviewerID != 0 {
		ok, err := s.isOwnerOrMember(ctx, boardID, *reviewerID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrReviewerNotMember
		}
	}
	return nil
}

func (s *PostgresService) isOwnerOrMember(ctx context.Context, boardID, userID int64) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM boards WHERE id = $1 AND owner_id = $2)
		    OR EXISTS (SELECT 1 FROM board_members WHERE board_id = $1 AND user_id = $2)
	`
	var ok bool
	if err := s.db.QueryRowContext(ctx, query, boardID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check board membership: %w", err)
	}
	return ok, nil
}

func (s *PostgresService) listTasks(ctx context.Context, query string, args ...interface{}) ([]*Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var result []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		result = append(result, task)
	}

	return result, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row scanner) (*Task, error) {
	task := &Task{}
	var dueDate sql.NullTime
	var assigneeID, reviewerID sql.NullInt64
	var assigneeEmail, assigneeName, reviewerEmail, reviewerName sql.NullString

	err := row.Scan(
		&task.ID, &task.BoardID, &task.Title, &task.Description,
		&task.Status, &task.Priority, &dueDate,
		&task.CreatedAt, &task.UpdatedAt,
		&assigneeID, &assigneeEmail, &assigneeName,
		&reviewerID, &reviewerEmail, &reviewerName,
		&task.CommentsCount,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		task.DueDate = &Date{dueDate.Time}
	}
	if assigneeID.Valid {
		task.Assignee = userFromNullable(assigneeID, assigneeEmail, assigneeName)
	}
	if reviewerID.Valid {
		task.Reviewer = userFromNullable(reviewerID, reviewerEmail, reviewerName)
	}

	return task, nil
}

// nullableID converts a *int64 to a sql value, treating both nil and 0 as NULL
func nullableID(id *int64) sql.NullInt64 {
	if id == nil || *id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func userFromNullable(id sql.NullInt64, email, fullname sql.NullString) *auth.User {
	return &auth.User{ID: id.Int64, Email: email.String, Fullname: fullname.String}
}

func nullableDate(d *Date) interface{} {
	if d == nil {
		return nil
	}
	return d.Time
}

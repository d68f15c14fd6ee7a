// Package comments implements the comment repository: discussion entries
// attached to tasks, authored by users, deletable only by their author.
package comments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a comment does not exist
var ErrNotFound = errors.New("comment not found")

// Comment is a user's note on a task. The author is fixed at creation.
type Comment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"-"`
	AuthorID  int64     `json:"-"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Service defines comment operations
type Service interface {
	CreateComment(ctx context.Context, taskID, authorID int64, content string) (*Comment, error)
	GetComment(ctx context.Context, taskID, commentID int64) (*Comment, error)
	ListForTask(ctx context.Context, taskID int64) ([]*Comment, error)
	DeleteComment(ctx context.Context, taskID, commentID int64) error
}

// PostgresService implements the Service interface using PostgreSQL
type PostgresService struct {
	db *sql.DB
}

// NewPostgresService creates a new PostgresService
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{db: db}
}

// CreateComment adds a comment to a task
func (s *PostgresService) CreateComment(ctx context.Context, taskID, authorID int64, content string) (*Comment, error) {
	comment := &Comment{TaskID: taskID, AuthorID: authorID, Content: content}
	query := `
		INSERT INTO comments (task_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query, taskID, authorID, content).
		Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	// Resolve author fullname for the response payload
	err = s.db.QueryRowContext(ctx, `SELECT fullname FROM users WHERE id = $1`, authorID).
		Scan(&comment.Author)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve comment author: %w", err)
	}

	return comment, nil
}

// GetComment retrieves a comment scoped to its task. The task scoping means a
// comment id paired with the wrong task resolves to not-found.
func (s *PostgresService) GetComment(ctx context.Context, taskID, commentID int64) (*Comment, error) {
	query := `
		SELECT c.id, c.task_id, c.author_id, u.fullname, c.content, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.id = $1 AND c.task_id = $2
	`
	comment := &Comment{}
	err := s.db.QueryRowContext(ctx, query, commentID, taskID).Scan(
		&comment.ID, &comment.TaskID, &comment.AuthorID,
		&comment.Author, &comment.Content, &comment.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return comment, nil
}

// ListForTask returns a task's comments, newest first
func (s *PostgresService) ListForTask(ctx context.Context, taskID int64) ([]*Comment, error) {
	query := `
		SELECT c.id, c.task_id, c.author_id, u.fullname, c.content, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.task_id = $1
		ORDER BY c.created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var result []*Comment
	for rows.Next() {
		comment := &Comment{}
		if err := rows.Scan(
			&comment.ID, &comment.TaskID, &comment.AuthorID,
			&comment.Author, &comment.Content, &comment.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		result = append(result, comment)
	}

	return result, rows.Err()
}

// DeleteComment deletes a comment scoped to its task
func (s *PostgresService) DeleteComment(ctx context.Context, taskID, commentID int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM comments WHERE id = $1 AND task_id = $2`, commentID, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
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

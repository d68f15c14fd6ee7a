package boards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Sentinel errors surfaced by the board service
var (
	ErrNotFound       = errors.New("board not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrOwnerImmutable = errors.New("cannot remove board owner")
)

// Service defines board and membership operations
type Service interface {
	CreateBoard(ctx context.Context, board *Board, memberIDs []int64) error
	GetBoard(ctx context.Context, id int64) (*Board, error)
	ListBoards(ctx context.Context, userID int64) ([]*Summary, error)
	UpdateBoard(ctx context.Context, id int64, req *UpdateBoardRequest) error
	DeleteBoard(ctx context.Context, id int64) error

	ListMembers(ctx context.Context, boardID int64) ([]*Member, error)
	AddMember(ctx context.Context, boardID, userID int64, addedBy int64) error
	RemoveMember(ctx context.Context, boardID, userID int64) error

	IsOwnerOrMember(ctx context.Context, boardID, userID int64) (bool, error)
}

// PostgresService implements the Service interface using PostgreSQL
type PostgresService struct {
	db *sql.DB
}

// NewPostgresService creates a new PostgresService
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{db: db}
}

// CreateBoard creates a board owned by board.OwnerID with the given initial
// member set. The owner is never stored in the member relation.
func (s *PostgresService) CreateBoard(ctx context.Context, board *Board, memberIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO boards (title, owner_id)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, query, board.Title, board.OwnerID).
		Scan(&board.ID, &board.CreatedAt, &board.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	if err := replaceMembers(ctx, tx, board.ID, board.OwnerID, memberIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// GetBoard retrieves a board by ID
func (s *PostgresService) GetBoard(ctx context.Context, id int64) (*Board, error) {
	query := `
		SELECT id, title, owner_id, created_at, updated_at
		FROM boards
		WHERE id = $1
	`
	board := &Board{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&board.ID, &board.Title, &board.OwnerID, &board.CreatedAt, &board.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	return board, nil
}

// ListBoards returns summaries of every board visible to the user, i.e.
// boards the user owns or is a member of. This filter must match the read
// authorization predicate exactly.
func (s *PostgresService) ListBoards(ctx context.Context, userID int64) ([]*Summary, error) {
	query := `
		SELECT b.id, b.title, b.owner_id,
		       (SELECT COUNT(*) FROM board_members m WHERE m.board_id = b.id) AS member_count,
		       (SELECT COUNT(*) FROM tasks t WHERE t.board_id = b.id) AS ticket_count,
		       (SELECT COUNT(*) FROM tasks t WHERE t.board_id = b.id AND t.status = 'to-do') AS tasks_to_do_count,
		       (SELECT COUNT(*) FROM tasks t WHERE t.board_id = b.id AND t.priority = 'high') AS tasks_high_prio_count
		FROM boards b
		WHERE b.owner_id = $1
		   OR EXISTS (SELECT 1 FROM board_members m WHERE m.board_id = b.id AND m.user_id = $1)
		ORDER BY b.created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	var summaries []*Summary
	for rows.Next() {
		summary := &Summary{}
		if err := rows.Scan(
			&summary.ID, &summary.Title, &summary.OwnerID,
			&summary.MemberCount, &summary.TicketCount,
			&summary.TasksToDoCount, &summary.TasksHighPrioCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan board summary: %w", err)
		}
		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}

// UpdateBoard applies a partial update. A non-nil Members list replaces the
// member set wholesale; the owner is excluded from the stored relation.
func (s *PostgresService) UpdateBoard(ctx context.Context, id int64, req *UpdateBoardRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var ownerID int64
	err = tx.QueryRowContext(ctx, `SELECT owner_id FROM boards WHERE id = $1 FOR UPDATE`, id).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock board: %w", err)
	}

	if req.Title != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE boards SET title = $1, updated_at = NOW() WHERE id = $2`,
			*req.Title, id,
		)
		if err != nil {
			return fmt.Errorf("failed to update board title: %w", err)
		}
	}

	if req.Members != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM board_members WHERE board_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear members: %w", err)
		}
		if err := replaceMembers(ctx, tx, id, ownerID, req.Members); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteBoard deletes a board; tasks, comments, and membership rows cascade
func (s *PostgresService) DeleteBoard(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
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

// ListMembers retrieves all members of a board with their user details
func (s *PostgresService) ListMembers(ctx context.Context, boardID int64) ([]*Member, error) {
	query := `
		SELECT m.id, m.board_id, m.user_id, m.added_by, m.created_at, u.email, u.fullname
		FROM board_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.board_id = $1
		ORDER BY m.created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		member := &Member{}
		var addedBy sql.NullInt64
		if err := rows.Scan(
			&member.ID, &member.BoardID, &member.UserID,
			&addedBy, &member.CreatedAt, &member.Email, &member.Fullname,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if addedBy.Valid {
			member.AddedBy = &addedBy.Int64
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

// AddMember adds a user to a board. Adding an existing member, or the owner,
// succeeds without effect.
func (s *PostgresService) AddMember(ctx context.Context, boardID, userID int64, addedBy int64) error {
	board, err := s.GetBoard(ctx, boardID)
	if err != nil {
		return err
	}
	if board.OwnerID == userID {
		// Owner visibility is implicit; nothing to store.
		return nil
	}

	exists, err := s.userExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrMemberNotFound
	}

	query := `
		INSERT INTO board_members (board_id, user_id, added_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (board_id, user_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, boardID, userID, addedBy); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

// RemoveMember removes a user from a board. The owner cannot be removed.
func (s *PostgresService) RemoveMember(ctx context.Context, boardID, userID int64) error {
	board, err := s.GetBoard(ctx, boardID)
	if err != nil {
		return err
	}
	if board.OwnerID == userID {
		return ErrOwnerImmutable
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM board_members WHERE board_id = $1 AND user_id = $2`,
		boardID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMemberNotFound
	}

	return nil
}

// IsOwnerOrMember evaluates the visibility predicate against current state
func (s *PostgresService) IsOwnerOrMember(ctx context.Context, boardID, userID int64) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM boards WHERE id = $1 AND owner_id = $2)
		    OR EXISTS (SELECT 1 FROM board_members WHERE board_id = $1 AND user_id = $2)
	`
	var visible bool
	if err := s.db.QueryRowContext(ctx, query, boardID, userID).Scan(&visible); err != nil {
		return false, fmt.Errorf("failed to check board membership: %w", err)
	}
	return visible, nil
}

func (s *PostgresService) userExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND is_active = true)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// replaceMembers inserts the given member set for a board inside tx. Every
// referenced user must exist; the owner is skipped rather than stored.
func replaceMembers(ctx context.Context, tx *sql.Tx, boardID, ownerID int64, memberIDs []int64) error {
	ids := make([]int64, 0, len(memberIDs))
	seen := make(map[int64]bool)
	for _, id := range memberIDs {
		if id == ownerID || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}

	var known int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE id = ANY($1) AND is_active = true`,
		pq.Array(ids),
	).Scan(&known)
	if err != nil {
		return fmt.Errorf("failed to validate members: %w", err)
	}
	if known != len(ids) {
		return ErrMemberNotFound
	}

	query := `
		INSERT INTO board_members (board_id, user_id, added_by)
		SELECT $1, unnest($2::bigint[]), $3
		ON CONFLICT (board_id, user_id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query, boardID, pq.Array(ids), ownerID); err != nil {
		return fmt.Errorf("failed to insert members: %w", err)
	}

	return nil
}

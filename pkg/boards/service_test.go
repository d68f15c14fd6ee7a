package boards

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockService(t *testing.T) (*PostgresService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewPostgresService(db), mock, func() { db.Close() }
}

func TestCreateBoard(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO boards`).
		WithArgs("Engineering", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(10, now, now))
	mock.ExpectCommit()

	board := &Board{Title: "Engineering", OwnerID: 1}
	err := svc.CreateBoard(context.Background(), board, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), board.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBoardWithMembers(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO boards`).
		WithArgs("Engineering", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(10, now, now))
	// The owner id and the duplicate are filtered before validation
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WithArgs(pq.Array([]int64{2, 3})).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(`INSERT INTO board_members`).
		WithArgs(int64(10), pq.Array([]int64{2, 3}), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	board := &Board{Title: "Engineering", OwnerID: 1}
	err := svc.CreateBoard(context.Background(), board, []int64{2, 1, 3, 2})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBoardUnknownMember(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO boards`).
		WithArgs("Engineering", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(10, now, now))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WithArgs(pq.Array([]int64{2, 99})).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	board := &Board{Title: "Engineering", OwnerID: 1}
	err := svc.CreateBoard(context.Background(), board, []int64{2, 99})
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestGetBoard(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, title, owner_id, created_at, updated_at`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "owner_id", "created_at", "updated_at"}).
			AddRow(10, "Engineering", 1, now, now))

	board, err := svc.GetBoard(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Engineering", board.Title)
	assert.Equal(t, int64(1), board.OwnerID)
}

func TestGetBoardNotFound(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT id, title, owner_id, created_at, updated_at`).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GetBoard(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListBoards(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT b.id, b.title, b.owner_id`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "owner_id", "member_count", "ticket_count", "tasks_to_do_count", "tasks_high_prio_count",
		}).
			AddRow(10, "Engineering", 1, 2, 5, 3, 1).
			AddRow(20, "Design", 7, 0, 0, 0, 0))

	summaries, err := svc.ListBoards(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 2, summaries[0].MemberCount)
	assert.Equal(t, 3, summaries[0].TasksToDoCount)
	assert.Equal(t, 1, summaries[0].TasksHighPrioCount)
	// A freshly created board has an empty member set
	assert.Equal(t, 0, summaries[1].MemberCount)
}

func TestUpdateBoardTitle(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT owner_id FROM boards`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))
	mock.ExpectExec(`UPDATE boards SET title`).
		WithArgs("Renamed", int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	title := "Renamed"
	err := svc.UpdateBoard(context.Background(), 10, &UpdateBoardRequest{Title: &title})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBoardReplacesMembers(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT owner_id FROM boards`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))
	mock.ExpectExec(`DELETE FROM board_members WHERE board_id`).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WithArgs(pq.Array([]int64{4})).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`INSERT INTO board_members`).
		WithArgs(int64(10), pq.Array([]int64{4}), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.UpdateBoard(context.Background(), 10, &UpdateBoardRequest{Members: []int64{4}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBoardNotFound(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT owner_id FROM boards`).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	title := "Renamed"
	err := svc.UpdateBoard(context.Background(), 404, &UpdateBoardRequest{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBoard(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM boards`).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.DeleteBoard(context.Background(), 10))
}

func TestDeleteBoardNotFound(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM boards`).
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, svc.DeleteBoard(context.Background(), 404), ErrNotFound)
}

func TestListMembers(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(`SELECT m.id, m.board_id, m.user_id`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "user_id", "added_by", "created_at", "email", "fullname"}).
			AddRow(1, 10, 2, 1, now, "bob@example.com", "Bob").
			AddRow(2, 10, 3, nil, now, "carol@example.com", "Carol"))

	members, err := svc.ListMembers(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "bob@example.com", members[0].Email)
	require.NotNil(t, members[0].AddedBy)
	assert.Equal(t, int64(1), *members[0].AddedBy)
	assert.Nil(t, members[1].AddedBy)
}

func TestAddMember(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, title, owner_id`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "owner_id", "created_at", "updated_at"}).
			AddRow(10, "Engineering", 1, now, now))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM users`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(`INSERT INTO board_members`).
		WithArgs(int64(10), int64(2), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.AddMember(context.Background(), 10, 2, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddMemberOwnerIsNoOp(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, title, owner_id`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "owner_id", "created_at", "updated_at"}).
			AddRow(10, "Engineering", 1, now, now))

	// No insert is issued for the owner
	require.NoError(t, svc.AddMember(context.Background(), 10, 1, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddMemberUnknownUser(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, title, owner_id`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "owner_id", "created_at", "updated_at"}).
			AddRow(10, "Engineering", 1, now, now))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM users`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	assert.ErrorIs(t, svc.AddMember(context.Background(), 10, 99, 1), ErrMemberNotFound)
}

func TestRemoveMember(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, title, owner_id`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "owner_id", "created_at", "updated_at"}).
			AddRow(10, "Engineering", 1, now, now))
	mock.ExpectExec(`DELETE FROM board_members`).
		WithArgs(int64(10), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.RemoveMember(context.Background(), 10, 2))
}

func TestRemoveMemberOwnerImmutable(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, title, owner_id`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "owner_id", "created_at", "updated_at"}).
			AddRow(10, "Engineering", 1, now, now))

	assert.ErrorIs(t, svc.RemoveMember(context.Background(), 10, 1), ErrOwnerImmutable)
}

func TestRemoveMemberNotAMember(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, title, owner_id`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "owner_id", "created_at", "updated_at"}).
			AddRow(10, "Engineering", 1, now, now))
	mock.ExpectExec(`DELETE FROM board_members`).
		WithArgs(int64(10), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, svc.RemoveMember(context.Background(), 10, 5), ErrMemberNotFound)
}

func TestIsOwnerOrMember(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(10), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"visible"}).AddRow(true))

	visible, err := svc.IsOwnerOrMember(context.Background(), 10, 2)
	require.NoError(t, err)
	assert.True(t, visible)
}

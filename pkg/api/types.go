package api

import (
	"github.com/kanbanhq/taskboard/pkg/auth"
	"github.com/kanbanhq/taskboard/pkg/boards"
	"github.com/kanbanhq/taskboard/pkg/tasks"
)

// RegistrationRequest is the payload for POST /api/registration
type RegistrationRequest struct {
	Email            string `json:"email"`
	Fullname         string `json:"fullname"`
	Password         string `json:"password"`
	RepeatedPassword string `json:"repeated_password"`
}

// LoginRequest is the payload for POST /api/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by registration and login
type TokenResponse struct {
	Token    string `json:"token"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	UserID   int64  `json:"user_id"`
}

// CreateBoardRequest is the payload for POST /api/boards
type CreateBoardRequest struct {
	Title   string  `json:"title"`
	Members []int64 `json:"members"`
}

// BoardDetail is the single-board representation with members and tasks
type BoardDetail struct {
	ID      int64         `json:"id"`
	Title   string        `json:"title"`
	OwnerID int64         `json:"owner_id"`
	Members []*auth.User  `json:"members"`
	Tasks   []*tasks.Task `json:"tasks"`
}

// MemberRequest is the payload for add_member and remove_member
type MemberRequest struct {
	MemberID int64 `json:"member_id"`
}

// CreateCommentRequest is the payload for POST /api/tasks/{task_id}/comments
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// newBoardDetail assembles the board detail payload
func newBoardDetail(board *boards.Board, members []*boards.Member, boardTasks []*tasks.Task) *BoardDetail {
	users := make([]*auth.User, 0, len(members))
	for _, m := range members {
		users = append(users, m.User())
	}
	if boardTasks == nil {
		boardTasks = []*tasks.Task{}
	}
	return &BoardDetail{
		ID:      board.ID,
		Title:   board.Title,
		OwnerID: board.OwnerID,
		Members: users,
		Tasks:   boardTasks,
	}
}

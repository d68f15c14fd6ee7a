package boards

import (
	"time"

	"github.com/kanbanhq/taskboard/pkg/auth"
)

// Board is a collaborative workspace containing tasks. The owner is tracked
// separately from the member set so that "the owner cannot be removed" stays
// an explicit check instead of a side effect of set arithmetic.
type Board struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the list-view representation with aggregate counts
type Summary struct {
	ID                 int64  `json:"id"`
	Title              string `json:"title"`
	OwnerID            int64  `json:"owner_id"`
	MemberCount        int    `json:"member_count"`
	TicketCount        int    `json:"ticket_count"`
	TasksToDoCount     int    `json:"tasks_to_do_count"`
	TasksHighPrioCount int    `json:"tasks_high_prio_count"`
}

// Member is a user's membership row on a board
type Member struct {
	ID        int64     `json:"id"`
	BoardID   int64     `json:"board_id"`
	UserID    int64     `json:"user_id"`
	AddedBy   *int64    `json:"added_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Denormalized user fields, populated on reads
	Email    string `json:"email,omitempty"`
	Fullname string `json:"fullname,omitempty"`
}

// User converts the membership row to its user representation
func (m *Member) User() *auth.User {
	return &auth.User{ID: m.UserID, Email: m.Email, Fullname: m.Fullname}
}

// UpdateBoardRequest carries a partial board update. Nil fields are left
// unchanged; a non-nil Members replaces the member set wholesale.
type UpdateBoardRequest struct {
	Title   *string `json:"title,omitempty"`
	Members []int64 `json:"members,omitempty"`
}

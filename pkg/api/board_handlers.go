package api

import (
	"net/http"

	"github.com/kanbanhq/taskboard/pkg/authz"
	"github.com/kanbanhq/taskboard/pkg/boards"
	"github.com/kanbanhq/taskboard/pkg/httputil"
	"github.com/kanbanhq/taskboard/pkg/middleware"
)

// ListBoards lists boards visible to the authenticated user, with counts
func (s *Server) ListBoards(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)

	summaries, err := s.boards.ListBoards(r.Context(), authCtx.UserID())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if summaries == nil {
		summaries = []*boards.Summary{}
	}

	httputil.WriteSuccess(w, summaries)
}

// CreateBoard creates a board owned by the authenticated user
func (s *Server) CreateBoard(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)

	var req CreateBoardRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Title, "title") {
		return
	}

	board := &boards.Board{
		Title:   req.Title,
		OwnerID: authCtx.UserID(),
	}
	if err := s.boards.CreateBoard(r.Context(), board, req.Members); err != nil {
		writeServiceError(w, err)
		return
	}

	detail, err := s.boardDetail(r, board)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteCreated(w, detail)
}

// GetBoard returns a board with its members and tasks
func (s *Server) GetBoard(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	boardID, ok := httputil.ParsePathInt64OrError(w, r, "board_id")
	if !ok {
		return
	}

	decision, err := s.checker.AuthorizeBoard(r.Context(), authCtx.UserID(), authz.OpRead, boardID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if !s.writeDecision(w, "board", authz.OpRead, decision) {
		return
	}

	board, err := s.boards.GetBoard(r.Context(), boardID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	detail, err := s.boardDetail(r, board)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteSuccess(w, detail)
}

// UpdateBoard applies a partial update; owner only
func (s *Server) UpdateBoard(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	boardID, ok := httputil.ParsePathInt64OrError(w, r, "board_id")
	if !ok {
		return
	}

	decision, err := s.checker.AuthorizeBoard(r.Context(), authCtx.UserID(), authz.OpUpdate, boardID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if !s.writeDecision(w, "board", authz.OpUpdate, decision) {
		return
	}

	var req boards.UpdateBoardRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Title != nil && *req.Title == "" {
		httputil.WriteValidationError(w, "title must not be empty")
		return
	}

	if err := s.boards.UpdateBoard(r.Context(), boardID, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	board, err := s.boards.GetBoard(r.Context(), boardID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	detail, err := s.boardDetail(r, board)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteSuccess(w, detail)
}

// DeleteBoard deletes a board; its tasks, comments, and membership cascade
func (s *Server) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	boardID, ok := httputil.ParsePathInt64OrError(w, r, "board_id")
	if !ok {
		return
	}

	decision, err := s.checker.AuthorizeBoard(r.Context(), authCtx.UserID(), authz.OpDelete, boardID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if !s.writeDecision(w, "board", authz.OpDelete, decision) {
		return
	}

	if err := s.boards.DeleteBoard(r.Context(), boardID); err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

// AddMember adds a user to the board's member set; owner only
func (s *Server) AddMember(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	boardID, ok := httputil.ParsePathInt64OrError(w, r, "board_id")
	if !ok {
		return
	}

	decision, err := s.checker.AuthorizeBoard(r.Context(), authCtx.UserID(), authz.OpManageMembers, boardID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if !s.writeDecision(w, "board", authz.OpManageMembers, decision) {
		return
	}

	var req MemberRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.MemberID == 0 {
		httputil.WriteValidationError(w, "member_id is required")
		return
	}

	if err := s.boards.AddMember(r.Context(), boardID, req.MemberID, authCtx.UserID()); err != nil {
		writeServiceError(w, err)
		return
	}

	members, err := s.boards.ListMembers(r.Context(), boardID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if members == nil {
		members = []*boards.Member{}
	}

	httputil.WriteSuccess(w, members)
}

// RemoveMember removes a user from the board's member set; owner only.
// The owner itself can never be removed.
func (s *Server) RemoveMember(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	boardID, ok := httputil.ParsePathInt64OrError(w, r, "board_id")
	if !ok {
		return
	}

	decision, err := s.checker.AuthorizeBoard(r.Context(), authCtx.UserID(), authz.OpManageMembers, boardID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if !s.writeDecision(w, "board", authz.OpManageMembers, decision) {
		return
	}

	var req MemberRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.MemberID == 0 {
		httputil.WriteValidationError(w, "member_id is required")
		return
	}

	if err := s.boards.RemoveMember(r.Context(), boardID, req.MemberID); err != nil {
		writeServiceError(w, err)
		return
	}

	members, err := s.boards.ListMembers(r.Context(), boardID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if members == nil {
		members = []*boards.Member{}
	}

	httputil.WriteSuccess(w, members)
}

// boardDetail loads the members and tasks for the full board payload
func (s *Server) boardDetail(r *http.Request, board *boards.Board) (*BoardDetail, error) {
	members, err := s.boards.ListMembers(r.Context(), board.ID)
	if err != nil {
		return nil, err
	}

	boardTasks, err := s.tasks.ListForBoard(r.Context(), board.ID)
	if err != nil {
		return nil, err
	}

	return newBoardDetail(board, members, boardTasks), nil
}

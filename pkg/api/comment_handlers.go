package api

import (
	"net/http"

	"github.com/kanbanhq/taskboard/pkg/authz"
	"github.com/kanbanhq/taskboard/pkg/comments"
	"github.com/kanbanhq/taskboard/pkg/httputil"
	"github.com/kanbanhq/taskboard/pkg/middleware"
)

// ListComments lists a task's comments, newest first
func (s *Server) ListComments(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	taskID, ok := httputil.ParsePathInt64OrError(w, r, "task_id")
	if !ok {
		return
	}

	decision, _, err := s.checker.AuthorizeTaskComments(r.Context(), authCtx.UserID(), authz.OpRead, taskID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if !s.writeDecision(w, "comment", authz.OpRead, decision) {
		return
	}

	list, err := s.comments.ListForTask(r.Context(), taskID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []*comments.Comment{}
	}

	httputil.WriteSuccess(w, list)
}

// CreateComment adds a comment to a task, authored by the caller
func (s *Server) CreateComment(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	taskID, ok := httputil.ParsePathInt64OrError(w, r, "task_id")
	if !ok {
		return
	}

	decision, _, err := s.checker.AuthorizeTaskComments(r.Context(), authCtx.UserID(), authz.OpCreate, taskID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if !s.writeDecision(w, "comment", authz.OpCreate, decision) {
		return
	}

	var req CreateCommentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Content, "content") {
		return
	}

	comment, err := s.comments.CreateComment(r.Context(), taskID, authCtx.UserID(), req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteCreated(w, comment)
}

// DeleteComment deletes a comment; only its author may do so
func (s *Server) DeleteComment(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	taskID, ok := httputil.ParsePathInt64OrError(w, r, "task_id")
	if !ok {
		return
	}
	commentID, ok := httputil.ParsePathInt64OrError(w, r, "comment_id")
	if !ok {
		return
	}

	decision, _, err := s.checker.AuthorizeCommentDelete(r.Context(), authCtx.UserID(), taskID, commentID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if !s.writeDecision(w, "comment", authz.OpDelete, decision) {
		return
	}

	if err := s.comments.DeleteComment(r.Context(), taskID, commentID); err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

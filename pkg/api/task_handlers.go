package api

import (
	"net/http"

	"github.com/kanbanhq/taskboard/pkg/authz"
	"github.com/kanbanhq/taskboard/pkg/httputil"
	"github.com/kanbanhq/taskboard/pkg/middleware"
	"github.com/kanbanhq/taskboard/pkg/tasks"
)

// ListTasks lists every task on boards visible to the authenticated user
func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)

	list, err := s.tasks.ListForUser(r.Context(), authCtx.UserID())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []*tasks.Task{}
	}

	httputil.WriteSuccess(w, list)
}

// ListAssignedTasks lists tasks assigned to the authenticated user
func (s *Server) ListAssignedTasks(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)

	list, err := s.tasks.ListAssignedTo(r.Context(), authCtx.UserID())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []*tasks.Task{}
	}

	httputil.WriteSuccess(w, list)
}

// ListReviewingTasks lists tasks the authenticated user is reviewing
func (s *Server) ListReviewingTasks(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)

	list, err := s.tasks.ListReviewing(r.Context(), authCtx.UserID())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []*tasks.Task{}
	}

	httputil.WriteSuccess(w, list)
}

// CreateTask creates a task on a board the user can access. The referenced
// board is authorized before any field validation runs, so a missing board
// is 404 and an inaccessible one 403 regardless of payload problems.
func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)

	var req tasks.CreateTaskRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	decision, err := s.checker.AuthorizeTaskCreate(r.Context(), authCtx.UserID(), req.BoardID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if !s.writeDecision(w, "board", authz.OpCreate, decision) {
		return
	}

	if !httputil.RequireNonEmpty(w, req.Title, "title") {
		return
	}

	task, err := s.tasks.CreateTask(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteCreated(w, task)
}

// GetTask returns a single task
func (s *Server) GetTask(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	taskID, ok := httputil.ParsePathInt64OrError(w, r, "task_id")
	if !ok {
		return
	}

	decision, task, err := s.checker.AuthorizeTask(r.Context(), authCtx.UserID(), authz.OpRead, taskID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if !s.writeDecision(w, "task", authz.OpRead, decision) {
		return
	}

	httputil.WriteSuccess(w, task)
}

// UpdateTask applies a partial update to a task
func (s *Server) UpdateTask(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	taskID, ok := httputil.ParsePathInt64OrError(w, r, "task_id")
	if !ok {
		return
	}

	decision, _, err := s.checker.AuthorizeTask(r.Context(), authCtx.UserID(), authz.OpUpdate, taskID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if !s.writeDecision(w, "task", authz.OpUpdate, decision) {
		return
	}

	var req tasks.UpdateTaskRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Title != nil && *req.Title == "" {
		httputil.WriteValidationError(w, "title must not be empty")
		return
	}

	task, err := s.tasks.UpdateTask(r.Context(), taskID, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteSuccess(w, task)
}

// DeleteTask deletes a task; its comments cascade
func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	taskID, ok := httputil.ParsePathInt64OrError(w, r, "task_id")
	if !ok {
		return
	}

	decision, _, err := s.checker.AuthorizeTask(r.Context(), authCtx.UserID(), authz.OpDelete, taskID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if !s.writeDecision(w, "task", authz.OpDelete, decision) {
		return
	}

	if err := s.tasks.DeleteTask(r.Context(), taskID); err != nil {
		writeServiceError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

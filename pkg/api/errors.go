package api

import (
	"errors"
	"net/http"

	"github.com/kanbanhq/taskboard/pkg/auth"
	"github.com/kanbanhq/taskboard/pkg/authz"
	"github.com/kanbanhq/taskboard/pkg/boards"
	"github.com/kanbanhq/taskboard/pkg/comments"
	"github.com/kanbanhq/taskboard/pkg/httputil"
	"github.com/kanbanhq/taskboard/pkg/tasks"
)

// writeDecision maps an authorization decision to its HTTP status and reports
// whether the handler may proceed. Every denial goes through here so missing
// and hidden entities are indistinguishable only where they must be: a denied
// entity the caller cannot see reads as 403, a missing one as 404.
func (s *Server) writeDecision(w http.ResponseWriter, entity string, op authz.Operation, decision authz.Decision) bool {
	if s.metrics != nil {
		s.metrics.RecordAuthzDecision(entity, string(op), decision.String())
	}

	switch decision {
	case authz.Allow:
		return true
	case authz.NotFound:
		httputil.WriteNotFoundError(w, entity+" not found")
		return false
	default:
		httputil.WriteForbidden(w, "access denied")
		return false
	}
}

// writeServiceError maps repository and validation errors to HTTP statuses.
// Not-found sentinels share the 404 path with authorization denials so the
// two sources are indistinguishable on the wire.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, boards.ErrNotFound),
		errors.Is(err, tasks.ErrNotFound),
		errors.Is(err, comments.ErrNotFound),
		errors.Is(err, boards.ErrMemberNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		httputil.WriteNotFoundError(w, err.Error())
	case errors.Is(err, boards.ErrOwnerImmutable),
		errors.Is(err, tasks.ErrInvalidStatus),
		errors.Is(err, tasks.ErrInvalidPriority),
		errors.Is(err, tasks.ErrAssigneeNotMember),
		errors.Is(err, tasks.ErrReviewerNotMember),
		errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, auth.ErrInvalidCredentials):
		httputil.WriteValidationError(w, err.Error())
	default:
		httputil.WriteInternalError(w, err)
	}
}

// Package api provides the HTTP REST API server for the taskboard service.
//
// # Overview
//
// This package implements the HTTP layer that exposes boards, tasks, and
// comments as RESTful endpoints, together with the account endpoints for
// registration, login, logout, profile, and email lookup.
//
// # Architecture
//
// The API is built on gorilla/mux and organized into domain-specific handler
// groups on a single Server:
//
//   - Accounts: registration, login, logout, profile, email-check
//   - Boards: CRUD plus add_member/remove_member, owner-gated
//   - Tasks: CRUD plus assigned-to-me and reviewing views
//   - Comments: list/create per task, author-gated deletion
//
// Every handler on a protected route resolves the caller through the bearer
// token middleware and asks the authorization checker for a decision before
// touching the entity. Decisions map to HTTP statuses in exactly one place
// (see errors.go), so a missing entity is always a 404 and a hidden one
// always a 403, no matter which handler was hit.
//
// # Key Types
//
// Server coordinates the services behind the handlers:
//
//	server := api.NewServer(authSvc, boardSvc, taskSvc, commentSvc, checker, logger)
//	http.ListenAndServe(":8080", server.Handler())
//
// # Related Packages
//
//   - pkg/authz: the decision core handlers consult
//   - pkg/middleware: bearer token authentication and rate limiting
//   - pkg/httputil: JSON helpers shared by all handlers
package api

package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kanbanhq/taskboard/pkg/auth"
	"github.com/kanbanhq/taskboard/pkg/authz"
	"github.com/kanbanhq/taskboard/pkg/boards"
	"github.com/kanbanhq/taskboard/pkg/comments"
	"github.com/kanbanhq/taskboard/pkg/middleware"
	"github.com/kanbanhq/taskboard/pkg/observability"
	"github.com/kanbanhq/taskboard/pkg/tasks"
)

// Server is the HTTP API server. Handlers delegate domain operations to the
// services and every access decision to the authorization checker.
type Server struct {
	router *mux.Router

	auth     auth.Service
	boards   boards.Service
	tasks    tasks.Service
	comments comments.Service
	checker  *authz.Checker

	logger  *observability.Logger
	metrics *observability.Metrics

	rateLimiter *middleware.RateLimiter
	tracing     bool
}

// Option configures optional server behavior
type Option func(*Server)

// WithMetrics attaches Prometheus metrics to the server
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRateLimiter attaches a distributed rate limiter to protected routes
func WithRateLimiter(rl *middleware.RateLimiter) Option {
	return func(s *Server) { s.rateLimiter = rl }
}

// WithTracing wraps the router in an OpenTelemetry HTTP handler
func WithTracing() Option {
	return func(s *Server) { s.tracing = true }
}

// NewServer creates the API server and registers all routes
func NewServer(
	authService auth.Service,
	boardService boards.Service,
	taskService tasks.Service,
	commentService comments.Service,
	checker *authz.Checker,
	logger *observability.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		auth:     authService,
		boards:   boardService,
		tasks:    taskService,
		comments: commentService,
		checker:  checker,
		logger:   logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registerRoutes()
	return s
}

// Handler returns the root HTTP handler with tracing applied when enabled
func (s *Server) Handler() http.Handler {
	if s.tracing {
		return otelhttp.NewHandler(s.router, "taskboard-api")
	}
	return s.router
}

// Router exposes the underlying router, for tests and middleware wiring
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) registerRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/registration", s.Registration).Methods("POST")
	api.HandleFunc("/login", s.Login).Methods("POST")
	api.HandleFunc("/email-check", s.EmailCheck).Methods("GET")

	// Protected routes
	protected := api.NewRoute().Subrouter()
	authMW := middleware.NewAuthMiddleware(s.auth, false)
	protected.Use(authMW.Handler)
	if s.rateLimiter != nil {
		protected.Use(s.rateLimiter.Handler)
	}

	protected.HandleFunc("/logout", s.Logout).Methods("POST")
	protected.HandleFunc("/profile", s.Profile).Methods("GET")

	protected.HandleFunc("/boards", s.ListBoards).Methods("GET")
	protected.HandleFunc("/boards", s.CreateBoard).Methods("POST")
	protected.HandleFunc("/boards/{board_id}", s.GetBoard).Methods("GET")
	protected.HandleFunc("/boards/{board_id}", s.UpdateBoard).Methods("PATCH")
	protected.HandleFunc("/boards/{board_id}", s.DeleteBoard).Methods("DELETE")
	protected.HandleFunc("/boards/{board_id}/add_member", s.AddMember).Methods("POST")
	protected.HandleFunc("/boards/{board_id}/remove_member", s.RemoveMember).Methods("POST")

	protected.HandleFunc("/tasks", s.ListTasks).Methods("GET")
	protected.HandleFunc("/tasks", s.CreateTask).Methods("POST")
	protected.HandleFunc("/tasks/assigned-to-me", s.ListAssignedTasks).Methods("GET")
	protected.HandleFunc("/tasks/reviewing", s.ListReviewingTasks).Methods("GET")
	protected.HandleFunc("/tasks/{task_id}", s.GetTask).Methods("GET")
	protected.HandleFunc("/tasks/{task_id}", s.UpdateTask).Methods("PATCH")
	protected.HandleFunc("/tasks/{task_id}", s.DeleteTask).Methods("DELETE")

	protected.HandleFunc("/tasks/{task_id}/comments", s.ListComments).Methods("GET")
	protected.HandleFunc("/tasks/{task_id}/comments", s.CreateComment).Methods("POST")
	protected.HandleFunc("/tasks/{task_id}/comments/{comment_id}", s.DeleteComment).Methods("DELETE")
}

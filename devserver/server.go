/*
Package devserver is a reference implementation of the leave backend's REST
contract, backed by SQLite.

It exists so the client and engine can be exercised hermetically: integration
tests spin one up per test, and the leaved binary serves seeded demo data for
local development. It enforces the same workflow rules as the client (it calls
the same workflow package), making it the "backend authority" that the
two-phase engine defers to. It is not a production system: passwords are
stored as-is and the JWT secret is configuration.

ROUTES: exactly the consumed contract, nothing more.

	POST /api/auth/login
	GET  /api/leaves/types
	GET  /api/leaves/balance
	POST /api/leaves
	GET  /api/leaves/my
	PUT  /api/leaves/my/{id}/cancel
	GET  /api/leaves/approvals/history
	GET  /api/leaves/calendar/leave-availability
	GET  /api/manager/pending-requests
	PUT  /api/leaves/status/{id}
	GET  /api/team/my-team-balances
	GET  /api/admin/leave-requests/approvals-needed
	PUT  /api/admin/leave-requests/{id}/status
	GET|POST|PUT|DELETE /api/admin/users[/{id}]
	GET|POST|DELETE     /api/admin/leave-types[/{id}]
*/
package devserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/attendly/leavecore/devserver/store"
	"github.com/attendly/leavecore/workflow"
)

// Server holds the handler dependencies.
type Server struct {
	store  *store.Store
	secret []byte
	logger *slog.Logger
	now    func() time.Time
}

// New creates a server over the given store. secret signs the dev JWTs.
func New(st *store.Store, secret string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:  st,
		secret: []byte(secret),
		logger: logger.With(slog.String("component", "devserver")),
		now:    time.Now,
	}
}

// WithClock overrides the wall clock, for tests.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// Router assembles the chi router with the full route table.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Post("/api/auth/login", s.handleLogin)

	// Everything else needs a valid bearer token.
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Route("/api/leaves", func(r chi.Router) {
			r.Get("/types", s.handleListLeaveTypes)
			r.Get("/balance", s.handleMyBalances)
			r.Post("/", s.handleSubmitLeave)
			r.Get("/my", s.handleMyRequests)
			r.Put("/my/{id}/cancel", s.handleCancelRequest)
			r.Get("/approvals/history", s.handleApprovalHistory)
			r.Get("/calendar/leave-availability", s.handleCalendar)

			r.With(requireRole(workflow.RoleManager)).
				Put("/status/{id}", s.handleProcessRequest)
		})

		r.With(requireRole(workflow.RoleManager)).
			Get("/api/manager/pending-requests", s.handleManagerPending)
		r.With(requireRole(workflow.RoleManager)).
			Get("/api/team/my-team-balances", s.handleTeamBalances)

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(requireRole(workflow.RoleAdmin))

			r.Get("/leave-requests/approvals-needed", s.handleAdminPending)
			r.Put("/leave-requests/{id}/status", s.handleProcessRequest)

			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleCreateUser)
			r.Put("/users/{id}", s.handleUpdateUser)
			r.Delete("/users/{id}", s.handleDeleteUser)

			r.Get("/leave-types", s.handleListLeaveTypes)
			r.Post("/leave-types", s.handleCreateLeaveType)
			r.Delete("/leave-types/{id}", s.handleDeleteLeaveType)
		})
	})

	return r
}

// ListenAndServe runs the server until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("devserver listening", slog.String("addr", addr))
	return http.ListenAndServe(addr, s.Router())
}

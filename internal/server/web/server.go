// Package web serves the admin view: HTML pages listing sessions and
// orders, admin mutations (edit, delete, lock, block) and a JSON
// polling endpoint that reports a hash of a session's orders.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ordrebog/ordrebog/internal/logging"
	"github.com/ordrebog/ordrebog/internal/server/services"
)

//go:embed templates/*.html
var templateFS embed.FS

// Notifier posts announcements to the group chat. The bot implements
// it; a nil Notifier silently drops announcements.
type Notifier interface {
	Announce(text string)
}

// Server is the HTTP front end over the order ledger.
type Server struct {
	addr         string
	ledger       *services.Ledger
	stats        *services.Stats
	access       *services.Access
	audit        *services.Audit
	notifier     Notifier
	adminKeyHash string
	secretKey    string
	tokenTTL     time.Duration
	templates    *template.Template
	logger       logging.Logger
}

// Options collects the server's collaborators and settings.
type Options struct {
	Addr         string
	Ledger       *services.Ledger
	Stats        *services.Stats
	Access       *services.Access
	Audit        *services.Audit
	Notifier     Notifier
	AdminKeyHash string
	SecretKey    string
	TokenTTL     time.Duration
	Logger       logging.Logger
}

func NewServer(opts Options) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{
		addr:         opts.Addr,
		ledger:       opts.Ledger,
		stats:        opts.Stats,
		access:       opts.Access,
		audit:        opts.Audit,
		notifier:     opts.Notifier,
		adminKeyHash: opts.AdminKeyHash,
		secretKey:    opts.SecretKey,
		tokenTTL:     opts.TokenTTL,
		templates:    tmpl,
		logger:       opts.Logger.With("module", "web"),
	}, nil
}

// Routes builds the router. Split out from Run so tests can exercise
// handlers with httptest.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/admin", s.handleAdminLogin)
	r.Get("/logout", s.handleLogout)
	r.Get("/session/{name}", s.handleSession)
	r.Get("/session_data/{name}", s.handleSessionData)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAdmin)

		r.Post("/session/open", s.handleOpenSession)
		r.Post("/session/close", s.handleCloseSession)
		r.Post("/session/{name}/delete", s.handleDeleteSession)

		r.Get("/session/{name}/order/{id}/edit", s.handleEditOrderForm)
		r.Post("/session/{name}/order/{id}/edit", s.handleEditOrder)
		r.Post("/session/{name}/order/{id}/delete", s.handleDeleteOrder)

		r.Post("/session/{name}/user/{user}/lock", s.handleLockUser)
		r.Post("/session/{name}/user/{user}/unlock", s.handleUnlockUser)

		r.Get("/users", s.handleUsers)
		r.Post("/user/{id}/block", s.handleBlockUser)
		r.Post("/user/{id}/unblock", s.handleUnblockUser)
		r.Post("/user/{id}/reset_stats", s.handleResetStats)

		r.Get("/audit", s.handleAudit)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "web server started", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) announce(text string) {
	if s.notifier != nil {
		s.notifier.Announce(text)
	}
}

// Package httpapi exposes the JSON API over HTTP: health probe,
// registration and login, plus the embedded front end. It is the only
// transport; all failures coming out of the service layer are mapped to
// the error taxonomy's status codes here.
package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/cristobal22/comanda/internal/logging"
	"github.com/cristobal22/comanda/internal/server/models"
)

// UserService is the slice of the application service the HTTP layer needs.
type UserService interface {
	Register(ctx context.Context, email, password, role string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type Server struct {
	address    string
	logger     logging.Logger
	users      UserService
	conn       *sql.DB
	corsOrigin string
}

func NewServer(address string, l logging.Logger, us UserService, conn *sql.DB, corsOrigin string) *Server {
	return &Server{
		address:    address,
		logger:     l.With("module", "http_server"),
		users:      us,
		conn:       conn,
		corsOrigin: corsOrigin,
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

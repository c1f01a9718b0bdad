package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/cristobal22/comanda/internal/common"
	"github.com/cristobal22/comanda/internal/server/httpapi/web"
	"github.com/cristobal22/comanda/internal/server/shared/db"
)

const maxBodySize = 1 << 20 // 1MB

// User-facing messages, kept in the application's language.
const (
	msgFieldsRequired = "Email y contraseña son requeridos."
	msgRegistered     = "Usuario registrado."
	msgEmailTaken     = "El email ya está registrado."
	msgLoginOK        = "Inicio de sesión exitoso."
	msgBadCredentials = "Credenciales inválidas."
	msgInternal       = "Error interno del servidor."
	msgDBUnreachable  = "No se pudo conectar a la base de datos."
)

// Router assembles the route table. Exported so tests can drive the full
// middleware+handler stack through httptest.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware, s.corsMiddleware, s.loggingMiddleware)

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/auth/register", s.handleRegister).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost, http.MethodOptions)

	r.PathPrefix("/").Handler(web.Handler()).Methods(http.MethodGet)

	return r
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbTime, err := db.Now(ctx, s.conn)
	if err != nil {
		s.logger.Error(ctx, "health check failed", "error", err.Error())
		s.respondJSON(ctx, w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"message": msgDBUnreachable,
		})
		return
	}

	s.respondJSON(ctx, w, http.StatusOK, map[string]string{
		"status":  "ok",
		"db_time": dbTime.Format(time.RFC3339Nano),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := s.users.Register(ctx, req.Email, req.Password, req.Role)
	if err != nil {
		s.writeServiceError(ctx, w, err)
		return
	}

	s.logger.Info(ctx, "user registered", "email", user.Email, "role", user.Role)
	s.respondJSON(ctx, w, http.StatusCreated, map[string]any{
		"message": msgRegistered,
		"user":    userResponse{ID: user.ID, Email: user.Email, Role: user.Role},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := s.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		s.writeServiceError(ctx, w, err)
		return
	}

	s.respondJSON(ctx, w, http.StatusOK, map[string]string{
		"message": msgLoginOK,
		"token":   token,
	})
}

func (s *Server) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(r.Context(), w, http.StatusBadRequest, msgFieldsRequired)
		return credentialsRequest{}, false
	}
	return req, true
}

// writeServiceError maps service-layer sentinel errors to HTTP statuses.
// Internal details are logged, never returned to the caller.
func (s *Server) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		s.respondError(ctx, w, http.StatusBadRequest, msgFieldsRequired)
	case errors.Is(err, common.ErrorAlreadyExists):
		s.respondError(ctx, w, http.StatusConflict, msgEmailTaken)
	case errors.Is(err, common.ErrorUnauthorized):
		s.respondError(ctx, w, http.StatusUnauthorized, msgBadCredentials)
	default:
		s.logger.Error(ctx, "service error", "error", err.Error())
		s.respondError(ctx, w, http.StatusInternalServerError, msgInternal)
	}
}

func (s *Server) respondJSON(ctx context.Context, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error(ctx, "encode response failed",
			"request_id", RequestIDFrom(ctx), "error", err.Error())
	}
}

func (s *Server) respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	s.respondJSON(ctx, w, status, map[string]string{"message": message})
}

// Package services contains the application services orchestrating the
// credential and session-issuance flow: registration (hash then store) and
// login (verify then sign).
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cristobal22/comanda/internal/common"
	"github.com/cristobal22/comanda/internal/server/auth"
	"github.com/cristobal22/comanda/internal/server/config"
	"github.com/cristobal22/comanda/internal/server/models"
	"github.com/cristobal22/comanda/internal/server/repositories/repomanager"
)

// bcryptCost matches the cost factor the store's existing hashes were
// produced with.
const bcryptCost = 10

type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                    db,
		repomanager:           m,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Register hashes the password and inserts a new user record. The role
// defaults to config.DefaultRole when empty; no role validation is
// performed, it is a free-form label. The returned user carries no
// password hash.
func (s *UserService) Register(ctx context.Context, email, password, role string) (*models.User, error) {

	if email == "" || password == "" {
		return nil, common.ErrorValidation
	}

	if role == "" {
		role = config.DefaultRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, common.ErrorInternal
	}

	user.PasswordHash = ""
	return user, nil
}

// Login verifies the credentials and, on success, issues a signed session
// token embedding the user's id, email and role.
//
// An unknown email and a wrong password both yield common.ErrorUnauthorized
// so the response cannot be used to enumerate accounts.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {

	if email == "" || password == "" {
		return "", common.ErrorValidation
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}

	return token, nil
}

// Package services contains server-side business logic. SessionController
// registers accounts and turns verified credentials into session tokens.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/audit"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(claims auth.Claims) (string, time.Time, error)
}

type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

type LoginRequest struct {
	Email    string
	Password string
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

type SessionController struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	hasher      cryptox.Hasher
	tokens      TokenIssuer
	audit       audit.Log
	logger      logging.Logger
}

func NewSessionController(
	db dbx.DBTX,
	m repomanager.RepositoryManager,
	h cryptox.Hasher,
	t TokenIssuer,
	a audit.Log,
	l logging.Logger,
) *SessionController {
	return &SessionController{
		db:          db,
		repomanager: m,
		hasher:      h,
		tokens:      t,
		audit:       a,
		logger:      l.With("module", "session_controller"),
	}
}

// Register stores a new account. It never issues a token.
//
// Errors: common.ErrorEmailRequired, common.ErrorPasswordRequired,
// common.ErrorDuplicateEmail (with the store message), common.ErrorStoreUnavailable
// for other store failures, common.ErrorOccurred otherwise.
func (s *SessionController) Register(ctx context.Context, req RegisterRequest) (*models.Account, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, common.ErrorEmailRequired
	}
	if req.Password == "" {
		return nil, common.ErrorPasswordRequired
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, common.Occurred(fmt.Errorf("hashing password: %w", err))
	}

	account := &models.Account{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(req.Username),
		Email:        email,
		PasswordHash: hash,
	}

	created, err := s.repomanager.Accounts(s.db).Create(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateEmail) {
			s.logger.Info(ctx, "registration rejected: email taken", "email", email)
			return nil, err
		}
		s.logger.Error(ctx, "registration failed", "email", email, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}

	s.logger.Info(ctx, "account registered", "id", created.ID, "username", created.Username)
	return created, nil
}

// Login checks the credentials and issues a session token for the account's
// username. A successful login is recorded in the audit log without waiting
// for the write.
//
// Errors: common.ErrorInvalidEmail, common.ErrorInvalidPassword,
// common.ErrorOccurred for anything unexpected.
func (s *SessionController) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	email := strings.TrimSpace(req.Email)

	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidEmail
		}
		s.logger.Error(ctx, "account lookup failed", "email", email, "error", err)
		return nil, common.Occurred(err)
	}

	ok, err := s.hasher.Verify(req.Password, account.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "stored verifier unreadable", "id", account.ID, "error", err)
		return nil, common.Occurred(err)
	}
	if !ok {
		return nil, common.ErrorInvalidPassword
	}

	token, expiresAt, err := s.tokens.Issue(auth.Claims{Username: account.Username})
	if err != nil {
		s.logger.Error(ctx, "token signing failed", "id", account.ID, "error", err)
		return nil, common.Occurred(err)
	}

	s.audit.Record(ctx, account.Username, common.LoginThought)

	s.logger.Info(ctx, "login succeeded", "username", account.Username)
	return &Session{Token: token, Username: account.Username, ExpiresAt: expiresAt}, nil
}

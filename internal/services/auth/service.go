// Package auth handles account registration, login and token issuing.
// Registered users carry a signed bearer token; guests carry a
// client-held opaque id and no server-side state at all.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tallydeck/tallydeck/internal/dependencies/clock"
	"github.com/tallydeck/tallydeck/internal/model"
	"github.com/tallydeck/tallydeck/internal/storage"
)

// DefaultTokenTTL is how long issued tokens stay valid
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("token is invalid or expired")
	ErrUsernameExists     = errors.New("username is already taken")
)

// Service manages accounts and bearer tokens
type Service struct {
	storage  storage.Storage
	clock    clock.Clock
	secret   []byte
	tokenTTL time.Duration
	logger   *slog.Logger
}

// New creates an auth service signing tokens with the given secret
func New(storage storage.Storage, clock clock.Clock, secret []byte, tokenTTL time.Duration, logger *slog.Logger) *Service {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Service{
		storage:  storage,
		clock:    clock,
		secret:   secret,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// Register creates an account and returns it with a signed token
func (s *Service) Register(ctx context.Context, username, displayName, password string) (*model.Account, string, error) {
	if _, err := s.storage.GetAccountByUsername(ctx, username); err == nil {
		return nil, "", ErrUsernameExists
	} else if !errors.Is(err, model.ErrAccountNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	if displayName == "" {
		displayName = username
	}
	now := s.clock.Now()
	account := &model.Account{
		UserRef:      model.UserRef("u_" + uuid.NewString()),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.storage.SaveAccount(ctx, account); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(account.UserRef)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("account registered", slog.String("user_ref", string(account.UserRef)))
	return account, token, nil
}

// Login verifies credentials and returns the account with a fresh token
func (s *Service) Login(ctx context.Context, username, password string) (*model.Account, string, error) {
	account, err := s.storage.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(account.UserRef)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// NewGuestID mints a client-held guest identifier. The server records
// it only on roster entries the guest creates by joining.
func (s *Service) NewGuestID() string {
	return "g_" + uuid.NewString()
}

// issueToken signs an HS256 token with the account's user ref as subject
func (s *Service) issueToken(userRef model.UserRef) (string, error) {
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   string(userRef),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// VerifyToken resolves a bearer token back to the account's identity
func (s *Service) VerifyToken(ctx context.Context, tokenString string) (model.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil || !token.Valid {
		return model.Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return model.Identity{}, ErrInvalidToken
	}

	account, err := s.storage.GetAccount(ctx, model.UserRef(claims.Subject))
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return model.Identity{}, ErrInvalidToken
		}
		return model.Identity{}, err
	}

	return model.Identity{
		UserRef:     account.UserRef,
		DisplayName: account.DisplayName,
	}, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"budgetwise/internal/core"
	"budgetwise/internal/log"
	"budgetwise/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPasswordTooLong    = errors.New("password too long (max 72 bytes)")
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Currency string
}

// AuthService registers users and resolves the X-Username identity.
type AuthService struct {
	repo   *storage.SQLiteRepository
	cost   int
	logger *log.Logger
}

func NewAuthService(repo *storage.SQLiteRepository, logger *log.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		cost:   bcrypt.DefaultCost,
		logger: logger.WithComponent(log.ComponentAuth),
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (core.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return core.User{}, core.ErrMissingFields
	}
	if err := core.ValidateEmail(in.Email); err != nil {
		return core.User{}, err
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = core.DefaultCurrency
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return core.User{}, ErrPasswordTooLong
	}
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, core.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		Currency:     currency,
	})
	if errors.Is(err, storage.ErrConflict) {
		return core.User{}, ErrUserExists
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, user.ID, log.FieldUsername, user.Username)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (core.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return core.User{}, core.ErrMissingFields
	}

	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Failed login attempt", log.FieldUsername, user.Username)
		return core.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Authenticate resolves the user named by a request header.
func (s *AuthService) Authenticate(ctx context.Context, username string) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return core.User{}, ErrUnauthorized
	}
	user, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, ErrUnauthorized
	}
	if err != nil {
		return core.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

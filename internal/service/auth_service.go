package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"bookcatalog/internal/auth"
	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/metrics"
	"bookcatalog/internal/model"
	"bookcatalog/internal/repository"
)

// SignupInput carries a validated signup request.
type SignupInput struct {
	Name     string
	Email    string
	Role     model.Role
	Password string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// AuthService handles signup and login.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

type authService struct {
	userRepo   repository.UserRepository
	hasher     *auth.PasswordHasher
	jwtService *auth.JWTService
	metrics    *metrics.Metrics
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, hasher *auth.PasswordHasher, jwtService *auth.JWTService, m *metrics.Metrics) AuthService {
	return &authService{
		userRepo:   userRepo,
		hasher:     hasher,
		jwtService: jwtService,
		metrics:    m,
	}
}

// Signup creates a new identity with a hashed password. The returned user
// never carries the hash.
func (s *authService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	if !in.Role.IsValid() {
		return nil, apperrors.Validation("Role is required and must be ADMIN or USER.")
	}
	email := strings.TrimSpace(in.Email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrEmailExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check email existence: %w", err)
	}

	hashedPassword, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Role:         in.Role,
		PasswordHash: hashedPassword,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user.Sanitized(), nil
}

// Login verifies credentials and issues a token.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEmailNotRegistered
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwtService.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	if s.metrics != nil {
		s.metrics.TokensIssued.Inc()
	}

	return &LoginResult{
		User:      user.Sanitized(),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

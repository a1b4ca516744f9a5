package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/model"
	"bookcatalog/internal/repository"
)

// UserService resolves identities for the authorization chain.
type UserService interface {
	// Resolve loads the identity behind a verified token subject, without its password hash.
	Resolve(ctx context.Context, id string) (*model.User, error)
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService builds a UserService backed by the repository.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) Resolve(ctx context.Context, id string) (*model.User, error) {
	if !model.IsValidID(id) {
		return nil, apperrors.ErrUserNotFound
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user.Sanitized(), nil
}

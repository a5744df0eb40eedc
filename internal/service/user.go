package service

import (
	"context"
	"errors"
	"strings"

	"example.com/backstage/services/picking/internal/models"
	"example.com/backstage/services/picking/internal/repository"

	"github.com/google/uuid"
)

// UserService registers actors
type UserService interface {
	Register(ctx context.Context, req RegisterUserRequest) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type userService struct {
	repo repository.Repository
}

// NewUserService creates a new user service
func NewUserService(repo repository.Repository) UserService {
	return &userService{repo: repo}
}

func (s *userService) Register(ctx context.Context, req RegisterUserRequest) (*models.User, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user := &models.User{
		Email: normalizeEmail(req.Email),
		Name:  strings.TrimSpace(req.Name),
	}

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		_, err := tx.FindUserByEmail(ctx, user.Email)
		switch {
		case err == nil:
			return &AlreadyExistsError{Kind: "user", Key: user.Email}
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		return createErr(tx.CreateUser(ctx, user), "user", user.Email)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindUserByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "user", id.String())
	}
	return user, nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"storyhub/internal/models"
	"storyhub/internal/repository"
)

type UserService interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, userID string, req repository.UpdateProfileRequest) (*models.User, error)
	// ChangeRole sets a user's role. Authorization is the caller's job.
	ChangeRole(ctx context.Context, userID string, role models.Role) error
}

type userService struct {
	userRepo  repository.UserRepository
	publisher ChangePublisher
	log       zerolog.Logger
}

func NewUserService(userRepo repository.UserRepository, publisher ChangePublisher, log zerolog.Logger) UserService {
	return &userService{
		userRepo:  userRepo,
		publisher: publisher,
		log:       log,
	}
}

func (s *userService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListUsers(ctx)
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req repository.UpdateProfileRequest) (*models.User, error) {
	// get user by id
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.DisplayName = strings.TrimSpace(req.DisplayName)
	user.PhotoURL = req.PhotoURL
	user.Bio = req.Bio

	// update user
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, userID)
	return user, nil
}

func (s *userService) ChangeRole(ctx context.Context, userID string, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return err
	}

	s.log.Info().Str("user_id", userID).Str("role", string(role)).Msg("Роль пользователя изменена")
	s.publish(ctx, userID)
	return nil
}

func (s *userService) publish(ctx context.Context, userID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, userChange(userID)); err != nil {
		s.log.Warn().Err(err).Msg("Не удалось опубликовать изменение")
	}
}

// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/ea-marketplace/internal/auth"
	"github.com/carterperez-dev/ea-marketplace/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	nu auth.NewUser,
) (*auth.UserInfo, error) {
	role := nu.Role
	if role != RoleAdmin {
		role = RoleUser
	}

	user := &User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(nu.Email),
		PasswordHash: nu.PasswordHash,
		Role:         role,
		TelegramID:   nu.TelegramID,
		FullName:     nu.FullName,
		Status:       StatusActive,
	}

	exists, err := s.repo.ExistsByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	user.PasswordHash = passwordHash
	return s.repo.Update(ctx, user)
}

// TelegramChatID resolves the delivery destination for a purchaser. An
// empty result with a nil error means the user never linked Telegram.
func (s *Service) TelegramChatID(
	ctx context.Context,
	email string,
) (string, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(user.TelegramID), nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get profile: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

func (s *Service) UpdateProfile(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update profile: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.TelegramID != nil {
		user.TelegramID = strings.TrimSpace(*req.TelegramID)
	}
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) CountUsers(ctx context.Context) (int, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

func (s *Service) UpdateUserStatus(
	ctx context.Context,
	requesterID, targetID, status string,
) (*User, error) {
	if status != StatusActive && status != StatusSuspended {
		return nil, core.ValidationError(
			fmt.Sprintf("invalid user status %q", status),
		)
	}

	if requesterID == targetID && status != StatusActive {
		return nil, core.ForbiddenError("Cannot suspend your own account")
	}

	user, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if user.IsAdmin() && status == StatusSuspended {
		return nil, core.ForbiddenError("Admin accounts cannot be suspended")
	}

	user.Status = status

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		TelegramID:   u.TelegramID,
		FullName:     u.FullName,
		Status:       u.Status,
		CreatedAt:    u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)

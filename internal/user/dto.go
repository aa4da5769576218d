// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type UpdateProfileRequest struct {
	TelegramID *string `json:"telegram_id,omitempty" validate:"omitempty,max=64"`
	FullName   *string `json:"full_name,omitempty"   validate:"omitempty,max=100"`
}

type UpdateUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended"`
}

type UserResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	TelegramID string    `json:"telegram_id"`
	FullName   string    `json:"full_name"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type ProfileResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Profile UserResponse `json:"profile"`
}

type UserListResponse struct {
	Success bool           `json:"success"`
	Data    []UserResponse `json:"data"`
}

type UserDataResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    UserResponse `json:"data"`
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Role:       u.Role,
		TelegramID: u.TelegramID,
		FullName:   u.FullName,
		Status:     u.Status,
		CreatedAt:  u.CreatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}

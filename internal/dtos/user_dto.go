package dtos

import "github.com/justsurfingit/job-portal/internal/models"

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required,max=100"`
	Role     string `json:"role" binding:"required,oneof=job_seeker employer"`

	// Employers may create their company in the same call
	CompanyName string `json:"company_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type UpdateProfileRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=100"`
	Phone        *string `json:"phone"`
	AvatarURL    *string `json:"avatar_url"`
	ResumeURL    *string `json:"resume_url"`
	PrefectureID *uint   `json:"prefecture_id"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

type UserListQuery struct {
	Role    string `form:"role" binding:"omitempty,oneof=job_seeker employer admin"`
	Q       string `form:"q"`
	Page    int    `form:"page" binding:"omitempty,min=1"`
	PerPage int    `form:"per_page" binding:"omitempty,min=1"`
}

type SuspendRequest struct {
	Suspended *bool `json:"suspended" binding:"required"`
}

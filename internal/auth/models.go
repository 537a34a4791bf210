package auth

import "time"

type User struct {
	ID           string    `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Username string `form:"username" validate:"required,max=64"`
	Password string `form:"password" validate:"required,max=72"`
	Email    string `form:"email" validate:"omitempty,email"`
}

type LoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

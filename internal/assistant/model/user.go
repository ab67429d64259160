package model

import "context"

type User struct {
	ID       string `json:"id"`
	FullName string `json:"fullname"`
	Email    string `json:"email"`
}

type AuthService interface {
	Signup(ctx context.Context, fullName, email, password string) (User, error)
	Login(ctx context.Context, email, password string) (User, error)
}

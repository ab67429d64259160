package model

import "errors"

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrItemNotFound       = errors.New("cart item not found")
	ErrQuantityRange      = errors.New("quantity out of range")
	ErrInvalidSignature   = errors.New("invalid payment signature")
	ErrOrderNotFound      = errors.New("order not found")
)

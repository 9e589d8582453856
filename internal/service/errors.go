package service

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidProduct = errors.New("invalid product")
	ErrImageRequired  = errors.New("product image is required")
)

var (
	ErrMissingCustomer = errors.New("missing customer information")
	ErrEmptyOrder      = errors.New("cart is empty")
	ErrInvalidTotal    = errors.New("invalid total price")
	ErrInvalidLine     = errors.New("invalid order item")
)

var (
	ErrInvalidEmail  = errors.New("invalid email format")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUserNotFound  = errors.New("user not found")
	ErrBadPassword   = errors.New("invalid password")
	ErrEmptyPassword = errors.New("password is required")
	ErrInvalidToken  = errors.New("invalid session")
)

package entity

import "errors"

var (
	// Authentication errors
	ErrInvalidToken      = errors.New("token invalid")
	ErrWrongCredentials  = errors.New("wrong username or password")
	ErrAccountBlocked    = errors.New("account blocked")
	ErrEmailNotValidated = errors.New("account not verified")

	// Authorization errors
	ErrNotAllowed = errors.New("not authorized")

	// User errors
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrRoleCantChange    = errors.New("role can't be modified")
	ErrOneFieldAtATime   = errors.New("only one field can be updated at a time")

	// Sale errors
	ErrSoldOut               = errors.New("event sold out")
	ErrTryingToResellTooMany = errors.New("cannot resell that many tickets")
	ErrRemoveDependentFirst  = errors.New("cannot delete buyer when associated with ticket")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidEmail   = errors.New("invalid email address")
	ErrUnknownItem    = errors.New("not found")
)

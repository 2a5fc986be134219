package apperrors

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
	ErrBackendFailure = errors.New("routing backend failure")
	ErrNoRoute        = errors.New("no route found")
)

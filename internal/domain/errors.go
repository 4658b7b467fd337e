package domain

import "errors"

var (
	ErrConfig         = errors.New("configuration error")
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("not found")
	ErrSourceNotFound = errors.New("source not found")
)

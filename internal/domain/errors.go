package domain

import "errors"

var (
	ErrInsufficientData = errors.New("insufficient training data")
	ErrMovieNotFound    = errors.New("movie not found")
	ErrInvalidDateRange = errors.New("invalid date range")
)

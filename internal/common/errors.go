// Package common defines shared constants and sentinel errors used across
// filedrop components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Metadata / repository errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Upload validation errors.
	ErrorUnsupportedMediaType = errors.New("unsupported media type")
	ErrorFileTooLarge         = errors.New("file too large")

	// Backing-store I/O errors.
	ErrorUploadFailed = errors.New("upload failed")
	ErrorDeleteFailed = errors.New("delete failed")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)

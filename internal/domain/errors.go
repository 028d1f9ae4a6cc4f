// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates the request failed domain validation.
var ErrValidation = errors.New("validation failed")

// ErrForbidden indicates the caller does not own the targeted resource.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidSession indicates an unknown or expired session credential.
var ErrInvalidSession = errors.New("invalid session")

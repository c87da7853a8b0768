package auth

import "errors"

var (
	// ErrTokenMissing indicates no credential was presented.
	ErrTokenMissing = errors.New("auth: token missing")
	// ErrTokenMalformed indicates the token could not be parsed or its
	// claims failed validation.
	ErrTokenMalformed = errors.New("auth: token malformed")
	// ErrTokenExpired indicates the embedded expiry has passed.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrSignatureInvalid indicates the signature does not match
	// recomputation, including unexpected signing methods.
	ErrSignatureInvalid = errors.New("auth: token signature invalid")
)

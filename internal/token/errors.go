package token

import "errors"

var (
	// ErrTokenGeneration indicates token signing failed
	ErrTokenGeneration = errors.New("failed to generate token")

	// ErrInvalidToken indicates the token signature does not verify
	ErrInvalidToken = errors.New("invalid token signature")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("token expired")

	// ErrMalformedToken indicates the token could not be decoded
	ErrMalformedToken = errors.New("malformed token")

	// ErrRevokedToken indicates the token was revoked before expiry
	ErrRevokedToken = errors.New("token revoked")

	// ErrInvalidRefreshToken indicates the refresh token is invalid
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrExpiredRefreshToken indicates the refresh token has expired
	ErrExpiredRefreshToken = errors.New("refresh token expired")
)

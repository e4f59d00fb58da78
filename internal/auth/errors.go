package auth

import "errors"

var (
	// ErrNotConfigured indicates required provider settings are missing
	ErrNotConfigured = errors.New("oauth provider is not configured")

	// ErrUpstream indicates the provider returned an error or malformed body
	ErrUpstream = errors.New("identity provider error")

	// ErrNetwork indicates a transport-level failure reaching the provider
	ErrNetwork = errors.New("identity provider unreachable")
)

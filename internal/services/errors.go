package services

import "errors"

var (
	// ErrConfiguration indicates required settings for the operation are
	// missing; fatal to the request, never to the process.
	ErrConfiguration = errors.New("authentication is not configured")

	// ErrBadRequest indicates caller-supplied input is invalid
	ErrBadRequest = errors.New("invalid request")

	// ErrMissingCode indicates the callback carried no authorization code
	ErrMissingCode = errors.New("authorization code is required")

	// ErrInvalidState indicates the callback state was missing, expired,
	// already used, or never issued.
	ErrInvalidState = errors.New("state validation failed")

	// ErrIdentity indicates the provider profile had no usable subject
	ErrIdentity = errors.New("could not resolve identity")

	// ErrUnknownProvider indicates the requested provider is not registered
	ErrUnknownProvider = errors.New("unsupported provider")
)

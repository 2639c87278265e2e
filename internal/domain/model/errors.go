package model

import "errors"

var (
	// ErrAuthentication means the stored cookie or token was rejected upstream.
	ErrAuthentication = errors.New("authentication failed: credentials expired or invalid")
	// ErrMissingCredentials means the credential file lacks required values.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrNotFound means the requested user or article does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnverified means credentials are present but upstream gave no answer
	// that proves them valid or expired.
	ErrUnverified = errors.New("credentials could not be verified")
)

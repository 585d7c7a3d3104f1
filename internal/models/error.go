package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Authentication flow errors
	ErrEmailNotVerified  = errors.New("email address not verified")
	ErrStaleToken        = errors.New("password changed after token was issued")
	ErrTokenExpired      = errors.New("token has expired")
	ErrEmailSendFailed   = errors.New("sending email failed")
	ErrEmailTaken        = errors.New("email already registered to a verified account")
	ErrWrongPassword     = errors.New("current password is wrong")
)

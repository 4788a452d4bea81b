package auth

import "errors"

var (
	// ErrIncompleteSession is returned by Save for a session missing its
	// token, user ID or a valid role.
	ErrIncompleteSession = errors.New("session is incomplete")

	// ErrNoFirstAccess is returned when CreatePassword runs without a
	// pending first-access login.
	ErrNoFirstAccess = errors.New("no first-access login pending")

	ErrPasswordEmpty    = errors.New("password is empty")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordIsEmail  = errors.New("password must differ from email")

	// ErrResetNotRequested is returned by VerifyCode and Resend before any RequestReset.
	ErrResetNotRequested = errors.New("no password reset requested")

	// ErrResetCodeExpired is returned by VerifyCode once the countdown elapsed.
	ErrResetCodeExpired = errors.New("reset code expired")

	// ErrResetCodeActive is returned by RequestReset and Resend while a code is still valid.
	ErrResetCodeActive = errors.New("reset code still valid")

	// ErrResetCodeInvalid is returned when the backend rejects a code.
	ErrResetCodeInvalid = errors.New("reset code invalid")
)

package auth

import (
	"errors"
	"unicode/utf8"
)

// DefaultMinPasswordLength applies when no minimum is configured.
const DefaultMinPasswordLength = 6

// ValidateNewPassword checks a first-access password choice.
func ValidateNewPassword(password, confirm, email string, minLen int) error {
	if minLen <= 0 {
		minLen = DefaultMinPasswordLength
	}
	switch {
	case password == "" || confirm == "":
		return ErrPasswordEmpty
	case password != confirm:
		return ErrPasswordMismatch
	case utf8.RuneCountInString(password) < minLen:
		return ErrPasswordTooShort
	case email != "" && normaliseEmail(password) == normaliseEmail(email):
		return ErrPasswordIsEmail
	}
	return nil
}

// PasswordMessage maps a ValidateNewPassword error to the UI message.
func PasswordMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPasswordEmpty):
		return "Preencha todos os campos."
	case errors.Is(err, ErrPasswordMismatch):
		return "As senhas não coincidem."
	case errors.Is(err, ErrPasswordTooShort):
		return "A senha deve conter pelo menos 6 caracteres."
	case errors.Is(err, ErrPasswordIsEmail):
		return "A nova senha deve ser diferente do email."
	default:
		return MsgCreatePassword
	}
}

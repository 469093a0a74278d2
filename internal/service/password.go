package service

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PasswordMinLength - обязательная минимальная длина пароля.
const PasswordMinLength = 8

// PasswordSpecialChars - символы, которые считаются спецсимволами.
const PasswordSpecialChars = `!@#$%^&*(),.?":{}|<>`

// Сообщения валидатора паролей.
const (
	msgPasswordTooShort  = "This password is too short. It must contain at least 8 characters."
	msgPasswordTooSimple = `Password must contain at least 3 of: a lowercase letter, an uppercase letter, a digit, a special character (!@#$%^&*(),.?":{}|<>). Missing: `
)

// ValidatePassword проверяет правило: длина 8+ обязательна и пароль
// содержит не меньше трех классов из четырех (строчная, заглавная, цифра,
// спецсимвол). Возвращает текст ошибки или "".
func ValidatePassword(password string) string {
	lengthOK := utf8.RuneCountInString(password) >= PasswordMinLength
	if !lengthOK {
		return msgPasswordTooShort
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSpecialChars, r):
			special = true
		}
	}

	satisfied := 0
	var missing []string
	for _, c := range []struct {
		ok   bool
		name string
	}{
		{lower, "lowercase letter"},
		{upper, "uppercase letter"},
		{digit, "digit"},
		{special, "special character"},
	} {
		if c.ok {
			satisfied++
		} else {
			missing = append(missing, c.name)
		}
	}
	if satisfied < 3 {
		return msgPasswordTooSimple + strings.Join(missing, ", ")
	}
	return ""
}

package models

import "time"

// User - учетная запись. Вход выполняется по email.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Nickname     string    `db:"nickname" json:"nickname"`
	PasswordHash string    `db:"password_hash" json:"-"`
	ProfileImage *string   `db:"profile_image" json:"profile_image"`
	IsVerified   bool      `db:"is_verified" json:"-"`
	IsActive     bool      `db:"is_active" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}

// UserDetails is the public part of a user returned by the accounts API.
type UserDetails struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// Details returns the public representation.
func (u *User) Details() UserDetails {
	return UserDetails{ID: u.ID, Email: u.Email, Nickname: u.Nickname}
}

// Profile - пользователь вместе с его книгами.
type Profile struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	Nickname     string  `json:"nickname"`
	ProfileImage *string `json:"profile_image"`
	Books        []*Book `json:"books"`
}

// RegistrationInput - данные формы регистрации.
type RegistrationInput struct {
	Email     string
	Nickname  string
	Password1 string
	Password2 string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Access  string        `json:"access"`
	Refresh string        `json:"refresh"`
	User    UserDetails   `json:"user"`
	Tokens  *TokenDetails `json:"-"`
}

package models

import "time"

// User is the identity of a signed-in account. PasswordHash is only populated
// for credential checks and never leaves the process.
type User struct {
	ID           int64     `json:"id" db:"id"`
	WorkspaceID  int64     `json:"ws_id" db:"ws_id"`
	FullName     string    `json:"fullname" db:"fullname"`
	Email        string    `json:"email" db:"email"`
	PasswordHash *string   `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ChatUser is the public projection of a user shown to other workspace members.
type ChatUser struct {
	ID       int64  `json:"id" db:"id"`
	FullName string `json:"fullname" db:"fullname"`
	Email    string `json:"email" db:"email"`
}

type CreateUser struct {
	FullName  string `json:"fullname"`
	Email     string `json:"email"`
	Workspace string `json:"workspace"`
	Password  string `json:"password"`
}

type SigninUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

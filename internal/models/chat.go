package models

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type ChatType string

const (
	ChatTypeSingle         ChatType = "single"
	ChatTypeGroup          ChatType = "group"
	ChatTypePrivateChannel ChatType = "private_channel"
	ChatTypePublicChannel  ChatType = "public_channel"
)

type Chat struct {
	ID          int64     `json:"id" db:"id"`
	WorkspaceID int64     `json:"ws_id" db:"ws_id"`
	Name        *string   `json:"name,omitempty" db:"name"`
	Type        ChatType  `json:"type" db:"type"`
	Members     []int64   `json:"members" db:"members"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type CreateChat struct {
	Name    *string `json:"name,omitempty"`
	Members []int64 `json:"members"`
	Public  bool    `json:"public"`
}

type UpdateChat struct {
	Name    *string `json:"name,omitempty"`
	Members []int64 `json:"members,omitempty"`
}

type Message struct {
	ID        int64     `json:"id" db:"id"`
	ChatID    int64     `json:"chat_id" db:"chat_id"`
	SenderID  int64     `json:"sender_id" db:"sender_id"`
	Content   string    `json:"content" db:"content"`
	Files     []string  `json:"files" db:"files"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateMessage struct {
	Content string   `json:"content"`
	Files   []string `json:"files"`
}

type ListMessages struct {
	LastID *int64 `json:"last_id,omitempty"`
	Limit  int    `json:"limit"`
}

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nikhilbhutani/chatserver/internal/models"
	"github.com/nikhilbhutani/chatserver/internal/storage"
)

var (
	ErrInvalidChat    = errors.New("invalid chat")
	ErrInvalidMessage = errors.New("invalid message")
)

const (
	maxGroupMembers = 8
	MaxChatNameLen  = 64

	DefaultMessageLimit = 10
	MaxMessageLimit     = 100
)

// ChatTypeFor derives the chat kind from its name and membership. Named chats
// are channels, unnamed chats are direct or group conversations.
func ChatTypeFor(name *string, members []int64, public bool) (models.ChatType, error) {
	if len(members) < 2 {
		return "", fmt.Errorf("%w: chat must have at least 2 members", ErrInvalidChat)
	}
	seen := make(map[int64]struct{}, len(members))
	for _, id := range members {
		if _, dup := seen[id]; dup {
			return "", fmt.Errorf("%w: duplicate member %d", ErrInvalidChat, id)
		}
		seen[id] = struct{}{}
	}

	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return "", fmt.Errorf("%w: chat name must not be empty", ErrInvalidChat)
		}
		if utf8.RuneCountInString(*name) > MaxChatNameLen {
			return "", fmt.Errorf("%w: chat name must be at most %d characters", ErrInvalidChat, MaxChatNameLen)
		}
		if public {
			return models.ChatTypePublicChannel, nil
		}
		return models.ChatTypePrivateChannel, nil
	}

	switch {
	case len(members) == 2:
		return models.ChatTypeSingle, nil
	case len(members) <= maxGroupMembers:
		return models.ChatTypeGroup, nil
	default:
		return "", fmt.Errorf("%w: group chat with more than %d members must have a name", ErrInvalidChat, maxGroupMembers)
	}
}

// FileChecker reports whether an attachment blob is present.
type FileChecker interface {
	Exists(ctx context.Context, f storage.ChatFile) (bool, error)
}

// ValidateMessage checks a message before it is stored. Every attachment must
// be a well-formed file URL in the sender's workspace whose blob exists.
func ValidateMessage(ctx context.Context, files FileChecker, wsID int64, in models.CreateMessage) error {
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("%w: content must not be empty", ErrInvalidMessage)
	}
	for _, u := range in.Files {
		f, err := storage.ParseURL(u)
		if err != nil {
			return err
		}
		if f.WorkspaceID != wsID {
			return fmt.Errorf("%w: file %s does not belong to this workspace", ErrInvalidMessage, u)
		}
		ok, err := files.Exists(ctx, f)
		if err != nil {
			return fmt.Errorf("check file %s: %w", u, err)
		}
		if !ok {
			return fmt.Errorf("%w: file %s does not exist", ErrInvalidMessage, u)
		}
	}
	return nil
}

// ClampLimit applies the default and the ceiling to a page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultMessageLimit
	case limit > MaxMessageLimit:
		return MaxMessageLimit
	default:
		return limit
	}
}

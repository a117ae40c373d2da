package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/chatserver/internal/models"
)

type Service struct {
	db    *pgxpool.Pool
	files FileChecker
}

func NewService(db *pgxpool.Pool, files FileChecker) *Service {
	return &Service{db: db, files: files}
}

const chatColumns = "id, ws_id, name, type::text, members, created_at"

func scanChat(row pgx.Row) (*models.Chat, error) {
	var c models.Chat
	if err := row.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Type, &c.Members, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// IsChatMember answers the membership question for the chat guard. It always
// reads the database so membership changes apply to the next request.
func (s *Service) IsChatMember(ctx context.Context, chatID, userID int64) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM chats WHERE id = $1 AND $2 = ANY(members))",
		chatID, userID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check chat membership: %w", err)
	}
	return ok, nil
}

// List returns the chats in wsID that userID belongs to.
func (s *Service) List(ctx context.Context, wsID, userID int64) ([]models.Chat, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+chatColumns+" FROM chats WHERE ws_id = $1 AND $2 = ANY(members) ORDER BY id",
		wsID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	chats := []models.Chat{}
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, *c)
	}
	return chats, rows.Err()
}

func (s *Service) membersInWorkspace(ctx context.Context, wsID int64, members []int64) error {
	var n int
	if err := s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM users WHERE ws_id = $1 AND id = ANY($2)", wsID, members,
	).Scan(&n); err != nil {
		return fmt.Errorf("count chat members: %w", err)
	}
	if n != len(members) {
		return fmt.Errorf("%w: some members do not exist in this workspace", ErrInvalidChat)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, wsID int64, in models.CreateChat) (*models.Chat, error) {
	typ, err := ChatTypeFor(in.Name, in.Members, in.Public)
	if err != nil {
		return nil, err
	}
	if err := s.membersInWorkspace(ctx, wsID, in.Members); err != nil {
		return nil, err
	}

	c, err := scanChat(s.db.QueryRow(ctx,
		`INSERT INTO chats (ws_id, name, type, members) VALUES ($1, $2, $3::chat_type, $4) RETURNING `+chatColumns,
		wsID, in.Name, string(typ), in.Members,
	))
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return c, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*models.Chat, error) {
	c, err := scanChat(s.db.QueryRow(ctx, "SELECT "+chatColumns+" FROM chats WHERE id = $1", id))
	if err != nil {
		return nil, fmt.Errorf("get chat %d: %w", id, err)
	}
	return c, nil
}

// Update renames a chat or replaces its members. The type is derived again
// from the result, keeping the channel visibility it already had.
func (s *Service) Update(ctx context.Context, id int64, in models.UpdateChat) (*models.Chat, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, members := cur.Name, cur.Members
	if in.Name != nil {
		name = in.Name
	}
	if in.Members != nil {
		members = in.Members
	}

	typ, err := ChatTypeFor(name, members, cur.Type == models.ChatTypePublicChannel)
	if err != nil {
		return nil, err
	}
	if in.Members != nil {
		if err := s.membersInWorkspace(ctx, cur.WorkspaceID, members); err != nil {
			return nil, err
		}
	}

	c, err := scanChat(s.db.QueryRow(ctx,
		`UPDATE chats SET name = $1, type = $2::chat_type, members = $3 WHERE id = $4 RETURNING `+chatColumns,
		name, string(typ), members, id,
	))
	if err != nil {
		return nil, fmt.Errorf("update chat %d: %w", id, err)
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM chats WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete chat %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SendMessage stores a message after checking its attachments against the
// sender's workspace.
func (s *Service) SendMessage(ctx context.Context, chatID int64, sender models.User, in models.CreateMessage) (*models.Message, error) {
	if err := ValidateMessage(ctx, s.files, sender.WorkspaceID, in); err != nil {
		return nil, err
	}
	files := in.Files
	if files == nil {
		files = []string{}
	}

	var m models.Message
	err := s.db.QueryRow(ctx,
		`INSERT INTO messages (chat_id, sender_id, content, files) VALUES ($1, $2, $3, $4)
		 RETURNING id, chat_id, sender_id, content, files, created_at`,
		chatID, sender.ID, in.Content, files,
	).Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.Files, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &m, nil
}

// ListMessages pages backwards through a chat, newest first. LastID is
// exclusive.
func (s *Service) ListMessages(ctx context.Context, chatID int64, in models.ListMessages) ([]models.Message, error) {
	limit := ClampLimit(in.Limit)

	var lastID int64
	if in.LastID != nil {
		lastID = *in.LastID
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, chat_id, sender_id, content, files, created_at FROM messages
		 WHERE chat_id = $1 AND ($2::bigint = 0 OR id < $2::bigint)
		 ORDER BY id DESC LIMIT $3`,
		chatID, lastID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.Files, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

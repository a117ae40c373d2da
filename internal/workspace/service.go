package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/chatserver/internal/cache"
	"github.com/nikhilbhutani/chatserver/internal/models"
)

type Service struct {
	db       *pgxpool.Pool
	cache    *cache.Cache
	cacheTTL time.Duration
}

func NewService(db *pgxpool.Pool, c *cache.Cache, cacheTTL time.Duration) *Service {
	return &Service{db: db, cache: c, cacheTTL: cacheTTL}
}

const wsColumns = "id, name, owner_id, created_at"

func scanWorkspace(row pgx.Row) (*models.Workspace, error) {
	var ws models.Workspace
	if err := row.Scan(&ws.ID, &ws.Name, &ws.OwnerID, &ws.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &ws, nil
}

func (s *Service) Create(ctx context.Context, name string, ownerID int64) (*models.Workspace, error) {
	ws, err := scanWorkspace(s.db.QueryRow(ctx,
		`INSERT INTO workspaces (name, owner_id) VALUES ($1, $2) RETURNING `+wsColumns,
		name, ownerID,
	))
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return ws, nil
}

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// FindOrCreate returns the workspace called name, creating it with no owner
// when it is missing. Concurrent callers racing on a new name all get the
// same row. Run it on a transaction to tie the workspace to later writes.
func FindOrCreate(ctx context.Context, q Querier, name string) (*models.Workspace, error) {
	if _, err := q.Exec(ctx,
		"INSERT INTO workspaces (name, owner_id) VALUES ($1, 0) ON CONFLICT (name) DO NOTHING", name,
	); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	ws, err := scanWorkspace(q.QueryRow(ctx, "SELECT "+wsColumns+" FROM workspaces WHERE name = $1", name))
	if err != nil {
		return nil, fmt.Errorf("get workspace by name: %w", err)
	}
	return ws, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*models.Workspace, error) {
	ws, err := scanWorkspace(s.db.QueryRow(ctx,
		"SELECT "+wsColumns+" FROM workspaces WHERE id = $1", id,
	))
	if err != nil {
		return nil, fmt.Errorf("get workspace %d: %w", id, err)
	}
	return ws, nil
}

func (s *Service) GetByName(ctx context.Context, name string) (*models.Workspace, error) {
	ws, err := scanWorkspace(s.db.QueryRow(ctx,
		"SELECT "+wsColumns+" FROM workspaces WHERE name = $1", name,
	))
	if err != nil {
		return nil, fmt.Errorf("get workspace by name: %w", err)
	}
	return ws, nil
}

// UpdateOwner moves ownership to ownerID, who must already belong to the
// workspace.
func (s *Service) UpdateOwner(ctx context.Context, id, ownerID int64) (*models.Workspace, error) {
	ws, err := scanWorkspace(s.db.QueryRow(ctx,
		`UPDATE workspaces SET owner_id = $1
		 WHERE id = $2 AND (SELECT ws_id FROM users WHERE id = $1) = $2
		 RETURNING `+wsColumns,
		ownerID, id,
	))
	if err != nil {
		return nil, fmt.Errorf("update workspace owner: %w", err)
	}
	return ws, nil
}

func usersKey(wsID int64) string { return "ws:" + strconv.FormatInt(wsID, 10) + ":users" }

// ListChatUsers returns the members of a workspace ordered by id. Results are
// cached for cacheTTL and dropped by InvalidateUsers.
func (s *Service) ListChatUsers(ctx context.Context, wsID int64) ([]models.ChatUser, error) {
	var users []models.ChatUser
	found, err := s.cache.Get(ctx, usersKey(wsID), &users)
	if err != nil {
		slog.WarnContext(ctx, "workspace users cache read failed", "ws_id", wsID, "error", err)
	}
	if found {
		return users, nil
	}

	rows, err := s.db.Query(ctx,
		"SELECT id, fullname, email FROM users WHERE ws_id = $1 ORDER BY id", wsID,
	)
	if err != nil {
		return nil, fmt.Errorf("list workspace users: %w", err)
	}
	defer rows.Close()

	users = []models.ChatUser{}
	for rows.Next() {
		var u models.ChatUser
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email); err != nil {
			return nil, fmt.Errorf("scan workspace user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list workspace users: %w", err)
	}

	if err := s.cache.Set(ctx, usersKey(wsID), users, s.cacheTTL); err != nil {
		slog.WarnContext(ctx, "workspace users cache write failed", "ws_id", wsID, "error", err)
	}
	return users, nil
}

func (s *Service) InvalidateUsers(ctx context.Context, wsID int64) {
	if err := s.cache.Delete(ctx, usersKey(wsID)); err != nil {
		slog.WarnContext(ctx, "workspace users cache invalidation failed", "ws_id", wsID, "error", err)
	}
}

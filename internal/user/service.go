package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/chatserver/internal/auth"
	"github.com/nikhilbhutani/chatserver/internal/models"
	"github.com/nikhilbhutani/chatserver/internal/workspace"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid user input")
)

type Service struct {
	db         *pgxpool.Pool
	workspaces *workspace.Service
}

func NewService(db *pgxpool.Pool, workspaces *workspace.Service) *Service {
	return &Service{db: db, workspaces: workspaces}
}

const (
	uniqueViolation = "23505"
	stringTooLong   = "22001"
)

const userColumns = "id, ws_id, fullname, email, password_hash, created_at"

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.WorkspaceID, &u.FullName, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Limits match the column widths in the users and workspaces tables.
const (
	MaxFullNameLen  = 64
	MaxEmailLen     = 64
	MaxWorkspaceLen = 32
	MinPasswordLen  = 6
)

// ValidateCreate checks the signup payload before anything touches the database.
func ValidateCreate(in models.CreateUser) error {
	switch {
	case strings.TrimSpace(in.FullName) == "":
		return fmt.Errorf("%w: fullname is required", ErrInvalidInput)
	case utf8.RuneCountInString(in.FullName) > MaxFullNameLen:
		return fmt.Errorf("%w: fullname must be at most %d characters", ErrInvalidInput, MaxFullNameLen)
	case !strings.Contains(in.Email, "@"):
		return fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	case utf8.RuneCountInString(in.Email) > MaxEmailLen:
		return fmt.Errorf("%w: email must be at most %d characters", ErrInvalidInput, MaxEmailLen)
	case strings.TrimSpace(in.Workspace) == "":
		return fmt.Errorf("%w: workspace is required", ErrInvalidInput)
	case utf8.RuneCountInString(in.Workspace) > MaxWorkspaceLen:
		return fmt.Errorf("%w: workspace must be at most %d characters", ErrInvalidInput, MaxWorkspaceLen)
	case len(in.Password) < MinPasswordLen:
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLen)
	}
	return nil
}

// classifyPgError turns constraint failures caused by client input into the
// package's input errors.
func classifyPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == uniqueViolation && pgErr.ConstraintName == "users_email_key":
		return ErrEmailExists
	case pgErr.Code == stringTooLong:
		return fmt.Errorf("%w: value too long", ErrInvalidInput)
	}
	return err
}

// Create registers a user, joining the named workspace or creating it when it
// does not exist yet. The first user of a new workspace becomes its owner.
// The workspace and the user are written in one transaction, so a failed
// signup never leaves an ownerless workspace behind.
func (s *Service) Create(ctx context.Context, in models.CreateUser) (*models.User, error) {
	if err := ValidateCreate(in); err != nil {
		return nil, err
	}

	if _, err := s.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ws, err := workspace.FindOrCreate(ctx, tx, in.Workspace)
	if err != nil {
		return nil, classifyPgError(err)
	}

	u, err := scanUser(tx.QueryRow(ctx,
		`INSERT INTO users (ws_id, fullname, email, password_hash)
		 VALUES ($1, $2, $3, $4) RETURNING `+userColumns,
		ws.ID, in.FullName, in.Email, hash,
	))
	if err != nil {
		if err := classifyPgError(err); errors.Is(err, ErrEmailExists) || errors.Is(err, ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if ws.OwnerID == 0 {
		if _, err := tx.Exec(ctx,
			"UPDATE workspaces SET owner_id = $1 WHERE id = $2 AND owner_id = 0", u.ID, ws.ID,
		); err != nil {
			return nil, fmt.Errorf("set workspace owner: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.workspaces.InvalidateUsers(ctx, ws.ID)
	u.PasswordHash = nil
	return u, nil
}

// Verify checks an email/password pair. Unknown emails and wrong passwords
// produce the same error.
func (s *Service) Verify(ctx context.Context, in models.SigninUser) (*models.User, error) {
	u, err := s.GetByEmail(ctx, in.Email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := auth.VerifyPassword(in.Password, *u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	u.PasswordHash = nil
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	u.PasswordHash = nil
	return u, nil
}

// GetByEmail includes the password hash so Verify can check it.
func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

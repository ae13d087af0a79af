// Package store provides the SQLite-backed roster storage: member rosters,
// the running-character pool and command requests.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cexll/rivalsbot/internal/store/migrations"
)

// ErrNotFound is returned when the requested entry does not exist.
var ErrNotFound = errors.New("not found")

// ClassRoster is one class of a member's roster.
type ClassRoster struct {
	Class      Class
	Characters []string
}

// Request is a submitted command request.
type Request struct {
	ID           int64
	CommandName  string
	SlashCommand string
	Description  string
	RequestedBy  string
	CreatedAt    time.Time
}

// Store persists roster state in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite roster store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; avoids SQLITE_BUSY between pooled connections.
	sqlDB.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// AddCharacters adds names to a member's class and returns the formatted
// names actually inserted. Names whose normalized form is already present
// (or repeated in the input) are skipped.
func (s *Store) AddCharacters(ctx context.Context, userID, guildID string, class Class, names []string) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if !class.Valid() {
		return nil, fmt.Errorf("unknown class %q", class)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin add characters: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createdAt := toMillis(s.now())
	var added []string
	for _, raw := range names {
		name := FormatName(raw)
		key := NormalizeName(name)
		if key == "" {
			continue
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO roster_entries (user_id, guild_id, class, character, normalized, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			userID, guildID, string(class), name, key, createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("add character %q: %w", name, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			added = append(added, name)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add characters: %w", err)
	}
	return added, nil
}

// RemoveCharacter removes one character from a member's class.
func (s *Store) RemoveCharacter(ctx context.Context, userID, guildID string, class Class, name string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM roster_entries WHERE user_id = ? AND guild_id = ? AND class = ? AND normalized = ?`,
		userID, guildID, string(class), NormalizeName(name),
	)
	if err != nil {
		return fmt.Errorf("remove character %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove character %q: %w", name, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Roster returns a member's characters grouped by class in display order.
// Classes without characters are omitted.
func (s *Store) Roster(ctx context.Context, userID, guildID string) ([]ClassRoster, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT class, character FROM roster_entries
		 WHERE user_id = ? AND guild_id = ?
		 ORDER BY CASE class
		   WHEN 'tank' THEN 0
		   WHEN 'dps' THEN 1
		   WHEN 'healer' THEN 2
		   WHEN 'learning' THEN 3
		   ELSE 4 END,
		 created_at, rowid`,
		userID, guildID,
	)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	var out []ClassRoster
	for rows.Next() {
		var class, character string
		if err := rows.Scan(&class, &character); err != nil {
			return nil, fmt.Errorf("scan roster: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].Class != Class(class) {
			out = append(out, ClassRoster{Class: Class(class)})
		}
		last := &out[len(out)-1]
		last.Characters = append(last.Characters, character)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster: %w", err)
	}
	return out, nil
}

// AddRunningCharacter adds a character to the pool offered for a class. It
// reports false when the character was already pooled.
func (s *Store) AddRunningCharacter(ctx context.Context, class Class, name, addedBy string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	if !class.Valid() {
		return false, fmt.Errorf("unknown class %q", class)
	}
	formatted := FormatName(name)
	key := NormalizeName(formatted)
	if key == "" {
		return false, fmt.Errorf("character name is required")
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT OR IGNORE INTO running_characters (class, character, normalized, added_by, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(class), formatted, key, addedBy, toMillis(s.now()),
	)
	if err != nil {
		return false, fmt.Errorf("add running character %q: %w", formatted, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add running character %q: %w", formatted, err)
	}
	return n > 0, nil
}

// RunningPool returns the pooled characters for a class in insertion order.
func (s *Store) RunningPool(ctx context.Context, class Class) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT character FROM running_characters WHERE class = ? ORDER BY created_at, rowid`,
		string(class),
	)
	if err != nil {
		return nil, fmt.Errorf("query running pool: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan running pool: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate running pool: %w", err)
	}
	return out, nil
}

// CreateRequest stores a command request and returns its ID.
func (s *Store) CreateRequest(ctx context.Context, req Request) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	commandName := strings.TrimSpace(req.CommandName)
	description := strings.TrimSpace(req.Description)
	if commandName == "" || description == "" {
		return 0, fmt.Errorf("command name and description are required")
	}
	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO command_requests (command_name, slash_command, description, requested_by, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		commandName,
		strings.TrimSpace(req.SlashCommand),
		description,
		req.RequestedBy,
		toMillis(createdAt),
	)
	if err != nil {
		return 0, fmt.Errorf("create command request: %w", err)
	}
	return res.LastInsertId()
}

// ListRequests returns the most recent requests first.
func (s *Store) ListRequests(ctx context.Context, limit int) ([]Request, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, command_name, slash_command, description, requested_by, created_at
		 FROM command_requests ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query command requests: %w", err)
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		var r Request
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.CommandName, &r.SlashCommand, &r.Description, &r.RequestedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("scan command request: %w", err)
		}
		r.CreatedAt = fromMillis(createdAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate command requests: %w", err)
	}
	return out, nil
}

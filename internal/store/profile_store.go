package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"staff-portal/internal/config"
	"staff-portal/internal/db"
	"staff-portal/internal/models"
)

var ErrNotFound = errors.New("profile not found")

// ProfileStore keeps the role of each portal user. Postgres in production,
// SQLite for local runs and tests.
type ProfileStore struct {
	q    *db.Queries
	conn *sql.DB
	now  func() time.Time
}

// Open connects with the configured driver and creates the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*ProfileStore, error) {
	if cfg.Driver == "sqlite3" {
		if err := ensureDir(cfg.URL); err != nil {
			return nil, err
		}
	}
	conn, err := sql.Open(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite3" {
		// sqlite allows a single writer at a time
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	s := NewProfileStore(conn)
	if err := s.q.CreateSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

func NewProfileStore(conn *sql.DB) *ProfileStore {
	return &ProfileStore{q: db.New(conn), conn: conn, now: time.Now}
}

func (s *ProfileStore) Close() error { return s.conn.Close() }

func (s *ProfileStore) Ping(ctx context.Context) error { return s.conn.PingContext(ctx) }

// Role returns the stored role for userID. Users without a row, or with an
// unrecognized role, are staff.
func (s *ProfileStore) Role(ctx context.Context, userID string) (models.Role, error) {
	p, err := s.GetProfile(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return models.RoleStaff, nil
	}
	if err != nil {
		return "", err
	}
	return p.Role, nil
}

func (s *ProfileStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	row, err := s.q.GetProfile(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toModel(row), nil
}

func (s *ProfileStore) ListProfiles(ctx context.Context) ([]*models.Profile, error) {
	rows, err := s.q.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Profile, 0, len(rows))
	for _, r := range rows {
		out = append(out, toModel(r))
	}
	return out, nil
}

// SetRole creates or updates a profile. An empty email keeps the stored one.
func (s *ProfileStore) SetRole(ctx context.Context, id, email string, role models.Role) (*models.Profile, error) {
	if _, ok := models.ParseRole(string(role)); !ok {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	err := s.q.UpsertProfile(ctx, db.UpsertProfileParams{
		ID:        id,
		Email:     strings.TrimSpace(email),
		Role:      string(role),
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, id)
}

func toModel(p db.Profile) *models.Profile {
	role, ok := models.ParseRole(p.Role)
	if !ok {
		role = models.RoleStaff
	}
	return &models.Profile{ID: p.ID, Email: p.Email, Role: role, UpdatedAt: p.UpdatedAt}
}

func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}

package db

import (
	"context"
	"database/sql"
	"time"
)

type Profile struct {
	ID        string
	Email     string
	Role      string
	UpdatedAt time.Time
}

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries mirrors sqlc generated code. Statements use $n placeholders and
// upsert syntax shared by Postgres and SQLite.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const createProfiles = `CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL DEFAULT 'staff',
	updated_at TIMESTAMP NOT NULL
)`

func (q *Queries) CreateSchema(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, createProfiles)
	return err
}

const getProfile = `SELECT id, email, role, updated_at FROM profiles WHERE id = $1`

func (q *Queries) GetProfile(ctx context.Context, id string) (Profile, error) {
	var i Profile
	err := q.db.QueryRowContext(ctx, getProfile, id).Scan(&i.ID, &i.Email, &i.Role, &i.UpdatedAt)
	return i, err
}

const listProfiles = `SELECT id, email, role, updated_at FROM profiles ORDER BY email, id`

func (q *Queries) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := q.db.QueryContext(ctx, listProfiles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Profile
	for rows.Next() {
		var i Profile
		if err := rows.Scan(&i.ID, &i.Email, &i.Role, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertProfile = `INSERT INTO profiles (id, email, role, updated_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
	email = CASE WHEN excluded.email = '' THEN profiles.email ELSE excluded.email END,
	role = excluded.role,
	updated_at = excluded.updated_at`

type UpsertProfileParams struct {
	ID        string
	Email     string
	Role      string
	UpdatedAt time.Time
}

func (q *Queries) UpsertProfile(ctx context.Context, arg UpsertProfileParams) error {
	_, err := q.db.ExecContext(ctx, upsertProfile, arg.ID, arg.Email, arg.Role, arg.UpdatedAt)
	return err
}

package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/codewithme13/signai-server/pkg/utils"
)

// PostgresRepo stores users in the users table (see EnsureSchema).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

// EnsureSchema creates the users table and its indexes if absent.
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	username VARCHAR(50) NOT NULL,
	password_hash TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
	last_seen TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
	is_online BOOLEAN DEFAULT false
);
CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
CREATE INDEX IF NOT EXISTS idx_users_online ON users(is_online);
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Create inserts a new account. The uniqueness check runs inside the same
// transaction as the insert, so two racing registrations cannot both win.
func (r *PostgresRepo) Create(ctx context.Context, u User) (User, error) {
	const q = `
INSERT INTO users (id, username, password_hash, created_at, last_seen, is_online)
VALUES ($1, $2, $3, NOW(), NOW(), false)
RETURNING id, username, password_hash, is_online, created_at, last_seen
`
	var out User
	err := utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, u.Username).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrDuplicateUsername
		}
		return tx.QueryRowContext(ctx, q, u.ID, u.Username, u.PasswordHash).Scan(
			&out.ID,
			&out.Username,
			&out.PasswordHash,
			&out.IsOnline,
			&out.CreatedAt,
			&out.LastSeen,
		)
	})
	if err != nil {
		return User{}, err
	}
	return out, nil
}

func (r *PostgresRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	const q = `
SELECT id, username, password_hash, is_online, created_at, last_seen
FROM users
WHERE username = $1
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, username))
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (User, error) {
	const q = `
SELECT id, username, password_hash, is_online, created_at, last_seen
FROM users
WHERE id = $1
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) MarkOnline(ctx context.Context, id, username string) error {
	const q = `
INSERT INTO users (id, username, last_seen, is_online)
VALUES ($1, $2, NOW(), true)
ON CONFLICT (id) DO UPDATE
SET username = $2, last_seen = NOW(), is_online = true
`
	_, err := r.db.ExecContext(ctx, q, id, username)
	return err
}

func (r *PostgresRepo) SetOffline(ctx context.Context, id string) error {
	const q = `UPDATE users SET is_online = false, last_seen = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

func (r *PostgresRepo) ListOnline(ctx context.Context) ([]User, error) {
	const q = `
SELECT id, username, password_hash, is_online, created_at, last_seen
FROM users
WHERE is_online = true
ORDER BY last_seen DESC
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsOnline, &u.CreatedAt, &u.LastSeen); err != nil {
			return nil, err
		}
		u.PasswordHash = ""
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ResetPresence(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_online = false`)
	return err
}

func (r *PostgresRepo) scanOne(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsOnline, &u.CreatedAt, &u.LastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

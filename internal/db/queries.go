package db

import (
	"context"
	"database/sql"
)

// DBTX is the subset of *sql.DB and *sql.Tx the queries need.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the typed statements over the schema.
type Queries struct {
	db DBTX
}

// New binds the queries to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a copy bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Account struct {
	ID           string
	Username     string
	PasswordHash string
	Locked       bool
	CreatedAt    int64
}

type Session struct {
	SessionID string
	AccountID string
	ExpiresAt int64
	CreatedAt int64
}

const upsertAccount = `-- name: UpsertAccount :exec
INSERT INTO accounts (id, username, password_hash, locked, created_at)
VALUES (?, fold_username(?), ?, ?, ?)
ON CONFLICT(username) DO UPDATE SET
    password_hash = excluded.password_hash,
    locked = excluded.locked
`

type UpsertAccountParams struct {
	ID           string
	Username     string
	PasswordHash string
	Locked       bool
	CreatedAt    int64
}

// UpsertAccount inserts an account, or replaces the hash and lock flag of the
// existing account with the same username. The existing ID is kept.
func (q *Queries) UpsertAccount(ctx context.Context, arg UpsertAccountParams) error {
	_, err := q.db.ExecContext(ctx, upsertAccount,
		arg.ID,
		arg.Username,
		arg.PasswordHash,
		arg.Locked,
		arg.CreatedAt,
	)
	return err
}

const getAccountByUsername = `-- name: GetAccountByUsername :one
SELECT id, username, password_hash, locked, created_at FROM accounts
WHERE username = fold_username(?)
`

func (q *Queries) GetAccountByUsername(ctx context.Context, username string) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccountByUsername, username)
	var i Account
	err := row.Scan(&i.ID, &i.Username, &i.PasswordHash, &i.Locked, &i.CreatedAt)
	return i, err
}

const getAccountByID = `-- name: GetAccountByID :one
SELECT id, username, password_hash, locked, created_at FROM accounts
WHERE id = ?
`

func (q *Queries) GetAccountByID(ctx context.Context, id string) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccountByID, id)
	var i Account
	err := row.Scan(&i.ID, &i.Username, &i.PasswordHash, &i.Locked, &i.CreatedAt)
	return i, err
}

const setAccountLocked = `-- name: SetAccountLocked :execrows
UPDATE accounts SET locked = ? WHERE username = fold_username(?)
`

func (q *Queries) SetAccountLocked(ctx context.Context, username string, locked bool) (int64, error) {
	res, err := q.db.ExecContext(ctx, setAccountLocked, locked, username)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createSession = `-- name: CreateSession :exec
INSERT INTO sessions (session_id, account_id, expires_at, created_at)
VALUES (?, ?, ?, ?)
`

type CreateSessionParams struct {
	SessionID string
	AccountID string
	ExpiresAt int64
	CreatedAt int64
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) error {
	_, err := q.db.ExecContext(ctx, createSession,
		arg.SessionID,
		arg.AccountID,
		arg.ExpiresAt,
		arg.CreatedAt,
	)
	return err
}

const getValidSession = `-- name: GetValidSession :one
SELECT session_id, account_id, expires_at, created_at FROM sessions
WHERE session_id = ? AND expires_at > ?
`

// GetValidSession returns the session if it has not expired at now.
func (q *Queries) GetValidSession(ctx context.Context, sessionID string, now int64) (Session, error) {
	row := q.db.QueryRowContext(ctx, getValidSession, sessionID, now)
	var i Session
	err := row.Scan(&i.SessionID, &i.AccountID, &i.ExpiresAt, &i.CreatedAt)
	return i, err
}

const deleteSession = `-- name: DeleteSession :exec
DELETE FROM sessions WHERE session_id = ?
`

func (q *Queries) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := q.db.ExecContext(ctx, deleteSession, sessionID)
	return err
}

const deleteExpiredSessions = `-- name: DeleteExpiredSessions :execrows
DELETE FROM sessions WHERE expires_at <= ?
`

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredSessions, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

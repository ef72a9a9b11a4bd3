package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/productivefire/server/internal/auth/entity"
	"github.com/productivefire/server/internal/pkg/valueobject"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries holds every statement the store runs. Each method is one SQL
// statement; transactions are composed by DB.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const upsertCode = `
INSERT INTO auth_verification_codes (email, purpose, digest, issued_at, expires_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (email, purpose) DO UPDATE
SET digest = EXCLUDED.digest, issued_at = EXCLUDED.issued_at, expires_at = EXCLUDED.expires_at`

func (q *Queries) UpsertCode(ctx context.Context, c entity.VerificationCode) error {
	_, err := q.db.Exec(ctx, upsertCode, c.Email, c.Purpose, c.Digest, c.IssuedAt, c.ExpiresAt)
	return err
}

const getActiveCode = `
SELECT email, purpose, digest, issued_at, expires_at
FROM auth_verification_codes
WHERE email = $1 AND purpose = $2 AND expires_at > $3`

func (q *Queries) GetActiveCode(ctx context.Context, email string, p entity.Purpose, now time.Time) (entity.VerificationCode, error) {
	var c entity.VerificationCode
	err := q.db.QueryRow(ctx, getActiveCode, email, p, now).
		Scan(&c.Email, &c.Purpose, &c.Digest, &c.IssuedAt, &c.ExpiresAt)
	return c, err
}

const deleteExpiredCodesByPair = `
DELETE FROM auth_verification_codes WHERE email = $1 AND purpose = $2 AND expires_at <= $3`

func (q *Queries) DeleteExpiredCodesByPair(ctx context.Context, email string, p entity.Purpose, now time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteExpiredCodesByPair, email, p, now)
	return tag.RowsAffected(), err
}

const deleteExpiredCodes = `DELETE FROM auth_verification_codes WHERE expires_at <= $1`

func (q *Queries) DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteExpiredCodes, now)
	return tag.RowsAffected(), err
}

const deleteCodeByDigest = `
DELETE FROM auth_verification_codes WHERE email = $1 AND purpose = $2 AND digest = $3`

func (q *Queries) DeleteCodeByDigest(ctx context.Context, email string, p entity.Purpose, digest string) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteCodeByDigest, email, p, digest)
	return tag.RowsAffected(), err
}

const deleteCodesByEmail = `DELETE FROM auth_verification_codes WHERE email = $1`

func (q *Queries) DeleteCodesByEmail(ctx context.Context, email string) error {
	_, err := q.db.Exec(ctx, deleteCodesByEmail, email)
	return err
}

const insertUsedGrant = `
INSERT INTO auth_used_grants (id, email, used_at, expires_at) VALUES ($1, $2, $3, $4)`

func (q *Queries) InsertUsedGrant(ctx context.Context, id, email string, usedAt, expiresAt time.Time) error {
	_, err := q.db.Exec(ctx, insertUsedGrant, id, email, usedAt, expiresAt)
	return err
}

const deleteExpiredGrants = `DELETE FROM auth_used_grants WHERE expires_at <= $1`

func (q *Queries) DeleteExpiredGrants(ctx context.Context, now time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteExpiredGrants, now)
	return tag.RowsAffected(), err
}

const accountColumns = `id, name, email, password_hash, email_verified, avatar, settings, streak, join_date, last_login, created_at, updated_at`

func scanAccount(row pgx.Row) (entity.Account, error) {
	var (
		a        entity.Account
		settings valueobject.JSONMap
	)
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.EmailVerified, &a.Avatar,
		&settings, &a.Streak, &a.JoinDate, &a.LastLogin, &a.CreatedAt, &a.UpdatedAt)
	a.Settings = settings
	return a, err
}

func (q *Queries) GetAccountByEmail(ctx context.Context, email string) (entity.Account, error) {
	return scanAccount(q.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM auth_accounts WHERE email = $1`, email))
}

func (q *Queries) GetAccountByID(ctx context.Context, id int64) (entity.Account, error) {
	return scanAccount(q.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM auth_accounts WHERE id = $1`, id))
}

const insertAccount = `
INSERT INTO auth_accounts (id, name, email, password_hash, email_verified, settings, streak, join_date, last_login, created_at, updated_at)
VALUES ($1, $2, $3, $4, TRUE, $5, $6, $7, $7, $7, $7)`

func (q *Queries) InsertAccount(ctx context.Context, in entity.NewAccount) error {
	_, err := q.db.Exec(ctx, insertAccount, in.ID, in.Name, in.Email, in.PasswordHash, in.Settings, entity.DefaultStreak, in.Now)
	return err
}

const insertProgress = `
INSERT INTO auth_progress (account_id, streak, updated_at) VALUES ($1, $2, $3)`

func (q *Queries) InsertProgress(ctx context.Context, accountID int64, now time.Time) error {
	_, err := q.db.Exec(ctx, insertProgress, accountID, entity.DefaultStreak, now)
	return err
}

const updatePasswordByEmail = `
UPDATE auth_accounts SET password_hash = $2, updated_at = $3 WHERE email = $1`

func (q *Queries) UpdatePasswordByEmail(ctx context.Context, email, hash string, now time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, updatePasswordByEmail, email, hash, now)
	return tag.RowsAffected(), err
}

const updateLogin = `
UPDATE auth_accounts SET last_login = $2, streak = $3, updated_at = $2 WHERE id = $1`

func (q *Queries) UpdateLogin(ctx context.Context, id int64, at time.Time, streak int) (int64, error) {
	tag, err := q.db.Exec(ctx, updateLogin, id, at, streak)
	return tag.RowsAffected(), err
}

const updateProgressStreak = `
UPDATE auth_progress SET streak = $2, updated_at = $3 WHERE account_id = $1`

func (q *Queries) UpdateProgressStreak(ctx context.Context, id int64, streak int, now time.Time) error {
	_, err := q.db.Exec(ctx, updateProgressStreak, id, streak, now)
	return err
}

// updateProfile leaves a column untouched when its argument is NULL. An empty
// avatar string clears the avatar.
const updateProfile = `
UPDATE auth_accounts SET
    name = COALESCE($2, name),
    avatar = CASE WHEN $3::text IS NULL THEN avatar ELSE NULLIF($3::text, '') END,
    settings = COALESCE($4, settings),
    updated_at = $5
WHERE id = $1`

func (q *Queries) UpdateProfile(ctx context.Context, in entity.ProfileUpdate) (int64, error) {
	var settings any
	if in.Settings != nil {
		settings = in.Settings
	}
	tag, err := q.db.Exec(ctx, updateProfile, in.ID, in.Name, in.Avatar, settings, in.UpdatedAt)
	return tag.RowsAffected(), err
}

const getProgress = `
SELECT account_id, total_tasks, completed_tasks, dsa_problems, streak, completed_today, last_completed_at, updated_at
FROM auth_progress WHERE account_id = $1`

func (q *Queries) GetProgress(ctx context.Context, id int64) (entity.Progress, error) {
	var p entity.Progress
	err := q.db.QueryRow(ctx, getProgress, id).Scan(&p.AccountID, &p.TotalTasks, &p.CompletedTasks,
		&p.DSAProblems, &p.Streak, &p.CompletedToday, &p.LastCompletedAt, &p.UpdatedAt)
	return p, err
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/cine-reservas/internal/model"
	"github.com/iliyamo/cine-reservas/internal/utils"
)

// BotUsername is the reserved account name for the traffic
// simulator. The bot is a system account: it never expires and does
// not count against the live-user cap.
const BotUsername = "cinema_bot"

// botExpiry is far enough in the future that the sweeper never
// touches the bot account.
var botExpiry = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

// UserRepo manages the ephemeral demo accounts in the 'users' table.
// MaxLive caps how many unexpired non-bot accounts may exist at
// once; TTL is the account lifetime applied at registration.
type UserRepo struct {
	DB      *sql.DB
	MaxLive int
	TTL     time.Duration
}

// NewUserRepo returns a UserRepo with the given live-user cap and
// account TTL.
func NewUserRepo(db *sql.DB, maxLive int, ttl time.Duration) *UserRepo {
	return &UserRepo{DB: db, MaxLive: maxLive, TTL: ttl}
}

// Create registers a new ephemeral account. The username is
// normalized to lower case. The live-user count is read FOR UPDATE
// inside the same transaction as the insert so two concurrent
// registrations cannot both squeeze past the cap. Returns
// ErrCapacityFull when the cap is reached and ErrUsernameExists when
// the name is taken.
func (r *UserRepo) Create(ctx context.Context, username, password string, cost int) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || username == BotUsername {
		return model.User{}, ErrInvalidRequest
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var live int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE expires_at > UTC_TIMESTAMP() AND username <> ? FOR UPDATE`,
		BotUsername).Scan(&live)
	if err != nil {
		return model.User{}, err
	}
	if live >= r.MaxLive {
		return model.User{}, ErrCapacityFull
	}

	now := time.Now().UTC()
	expires := now.Add(r.TTL)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, expires_at) VALUES (?, ?, ?)`,
		username, hash, expires)
	if err != nil {
		if isDuplicateKey(err) {
			return model.User{}, ErrUsernameExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.User{}, err
	}
	committed = true
	return model.User{
		ID:           uint64(id),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		ExpiresAt:    expires,
	}, nil
}

// GetByID fetches a user by id. Returns ErrNotFound when absent.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, is_premium, created_at, expires_at
		 FROM users WHERE id = ? LIMIT 1`, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsPremium, &u.CreatedAt, &u.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, is_premium, created_at, expires_at
		 FROM users WHERE username = ? LIMIT 1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsPremium, &u.CreatedAt, &u.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// DeleteCascade removes a single user together with its reservations
// and frees the seats those reservations held, all in one
// transaction. Used by the lazy expiry path when an expired account
// is seen on an authenticated request.
func (r *UserRepo) DeleteCascade(ctx context.Context, userID uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := deleteUsersCascadeTx(ctx, tx, `u.id = ?`, userID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// SweepExpired deletes every expired account, cascading to
// reservations and freeing their seats. It returns the number of
// accounts removed. The whole sweep is one transaction so it cannot
// interleave with an in-flight reserve or cancel for the same user:
// one side or the other wins cleanly at the storage boundary.
func (r *UserRepo) SweepExpired(ctx context.Context) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var expired int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE expires_at <= UTC_TIMESTAMP()`).Scan(&expired)
	if err != nil {
		return 0, err
	}
	if expired == 0 {
		_ = tx.Rollback()
		return 0, nil
	}
	if err := deleteUsersCascadeTx(ctx, tx, `u.expires_at <= UTC_TIMESTAMP()`); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return expired, nil
}

// deleteUsersCascadeTx removes users matching the given predicate on
// alias u. Seats held by their reservations are flipped back to
// available first; the FK on reservations.user_id then cascades the
// reservation rows when the users are deleted.
func deleteUsersCascadeTx(ctx context.Context, tx *sql.Tx, cond string, args ...interface{}) error {
	free := `UPDATE seats s
	         JOIN reservations res ON res.seat_id = s.id
	         JOIN users u ON u.id = res.user_id
	         SET s.status = 'available'
	         WHERE ` + cond
	if _, err := tx.ExecContext(ctx, free, args...); err != nil {
		return err
	}
	del := `DELETE u FROM users u WHERE ` + cond
	_, err := tx.ExecContext(ctx, del, args...)
	return err
}

// EnsureBot creates the bot account when missing and returns its id.
// The bot never expires; its password is unusable for login on
// purpose (random, never shared).
func (r *UserRepo) EnsureBot(ctx context.Context, cost int) (uint64, error) {
	u, err := r.GetByUsername(ctx, BotUsername)
	if err == nil {
		return u.ID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}
	raw, err := utils.RandomHex(24)
	if err != nil {
		return 0, err
	}
	hash, err := utils.HashPassword(raw, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, expires_at) VALUES (?, ?, ?)`,
		BotUsername, hash, botExpiry)
	if err != nil {
		if isDuplicateKey(err) {
			// lost a startup race with another instance
			u, err2 := r.GetByUsername(ctx, BotUsername)
			if err2 != nil {
				return 0, err2
			}
			return u.ID, nil
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CountLive returns the number of unexpired non-bot accounts.
func (r *UserRepo) CountLive(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE expires_at > UTC_TIMESTAMP() AND username <> ?`,
		BotUsername).Scan(&n)
	return n, err
}

package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/railswap/train-seat-exchange/internal/model"
)

// UserRepo provides access to the users table. Accounts are created
// implicitly on first OTP login, so creation is an upsert keyed by
// phone number.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, phone, name, email, role, rating, total_ratings, total_exchanges, is_verified, is_active, created_at, updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var email sql.NullString
	err := row.Scan(&u.ID, &u.Phone, &u.Name, &email, &u.Role, &u.Rating,
		&u.TotalRatings, &u.TotalExchanges, &u.IsVerified, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if email.Valid {
		u.Email = email.String
	}
	return u, nil
}

// GetByID fetches a user by id. Returns ErrUserNotFound when no row
// exists.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// GetByPhone fetches a user by normalized phone number.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	phone = strings.TrimSpace(phone)
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE phone=? LIMIT 1", phone))
	if err == sql.ErrNoRows {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// EnsureByPhone returns the user for the given phone number, creating
// a fresh verified account when none exists yet. New accounts start
// with the USER role and an empty profile.
func (r *UserRepo) EnsureByPhone(ctx context.Context, phone string) (model.User, error) {
	phone = strings.TrimSpace(phone)
	u, err := r.GetByPhone(ctx, phone)
	if err == nil {
		return u, nil
	}
	if err != ErrUserNotFound {
		return model.User{}, err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (phone, name, role, is_verified, is_active) VALUES (?, '', ?, TRUE, TRUE)",
		phone, model.RoleUser)
	if err != nil {
		// A concurrent login may have inserted the row first; the
		// unique key on phone makes the re-read safe either way.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return r.GetByPhone(ctx, phone)
		}
		return model.User{}, err
	}
	return r.GetByPhone(ctx, phone)
}

// UpdateProfile sets the user's display name and optional email.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, email string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, email=NULLIF(?, ''), updated_at=NOW() WHERE id=?",
		name, email, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is 0 both for missing ids and no-op updates;
		// distinguish by re-reading.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// IncrementExchangesTx bumps the lifetime exchange counter for a user
// inside an existing transaction. Called exactly once per user per
// completed exchange; the caller guards against repeats.
func (r *UserRepo) IncrementExchangesTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET total_exchanges = total_exchanges + 1, updated_at=NOW() WHERE id=?", id)
	return err
}

package users

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"prato/internal/domain/accesscontrol"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository holds the pool directly (not a dbx.Querier) because the
// invitation flows are multi-statement and own their transactions.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func withTx(db *pgxpool.Pool, ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) GetByID(ctx context.Context, userID int64) (*User, error) {
	const q = `
		SELECT id, first_name, last_name, display_name, email, password, role, is_active, created_at, updated_at
		FROM users
		WHERE id = $1`

	user := &User{}
	err := r.db.QueryRow(ctx, q, userID).Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.DisplayName,
		&user.Email, &user.Password.hash, &user.Role, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	const q = `
		SELECT id, first_name, last_name, display_name, email, password, role, is_active, created_at, updated_at
		FROM users
		WHERE email = $1 AND is_active = true`

	user := &User{}
	err := r.db.QueryRow(ctx, q, email).Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.DisplayName,
		&user.Email, &user.Password.hash, &user.Role, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *Repository) create(ctx context.Context, tx pgx.Tx, user *User) error {
	const q = `
		INSERT INTO users (first_name, last_name, display_name, email, password, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	if user.Role == "" {
		user.Role = accesscontrol.RoleMember
	}

	err := tx.QueryRow(ctx, q,
		user.FirstName, user.LastName, user.DisplayName, user.Email,
		user.Password.hash, user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repository) CreateAndInvite(ctx context.Context, user *User, token string, invitationExp time.Duration) error {
	return withTx(r.db, ctx, func(tx pgx.Tx) error {
		if err := r.create(ctx, tx, user); err != nil {
			return err
		}
		return r.createInvitation(ctx, tx, token, invitationExp, user.ID)
	})
}

func (r *Repository) createInvitation(ctx context.Context, tx pgx.Tx, token string, exp time.Duration, userID int64) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO user_invitations (token, user_id, expiry) VALUES ($1, $2, $3)`,
		hashToken(token), userID, time.Now().Add(exp),
	)
	if err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

func (r *Repository) Activate(ctx context.Context, token string) error {
	return withTx(r.db, ctx, func(tx pgx.Tx) error {
		var userID int64
		err := tx.QueryRow(ctx,
			`SELECT u.id
			 FROM users u
			 JOIN user_invitations ui ON u.id = ui.user_id
			 WHERE ui.token = $1 AND ui.expiry > $2`,
			hashToken(token), time.Now(),
		).Scan(&userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lookup invitation: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE users SET is_active = true, updated_at = NOW() WHERE id = $1`, userID,
		); err != nil {
			return fmt.Errorf("activate user: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM user_invitations WHERE user_id = $1`, userID,
		); err != nil {
			return fmt.Errorf("clean invitations: %w", err)
		}
		return nil
	})
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func (r *Repository) Delete(ctx context.Context, userID int64) error {
	return withTx(r.db, ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_invitations WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("delete invitations: %w", err)
		}
		ct, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *Repository) SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET refresh_token = $1, updated_at = NOW() WHERE id = $2`,
		refreshToken, userID,
	)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (r *Repository) GetRefreshToken(ctx context.Context, userID int64) (string, error) {
	var refreshToken string
	err := r.db.QueryRow(ctx, `SELECT refresh_token FROM users WHERE id = $1`, userID).Scan(&refreshToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get refresh token: %w", err)
	}
	return refreshToken, nil
}

func (r *Repository) DeleteRefreshToken(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET refresh_token = '', updated_at = NOW() WHERE id = $1`, userID,
	)
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

func (r *Repository) UpdateProfile(ctx context.Context, userID int64, updates map[string]any) error {
	if len(updates) == 0 {
		return fmt.Errorf("no fields to update")
	}

	setClauses := []string{}
	args := []any{}
	i := 1
	for field, value := range updates {
		if !isValidProfileField(field) {
			return fmt.Errorf("invalid field name: %s", field)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, i))
		args = append(args, value)
		i++
	}
	args = append(args, userID)

	q := fmt.Sprintf("UPDATE users SET %s, updated_at = NOW() WHERE id = $%d",
		strings.Join(setClauses, ", "), i)

	ct, err := r.db.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isValidProfileField(field string) bool {
	valid := map[string]bool{
		"first_name":   true,
		"last_name":    true,
		"display_name": true,
	}
	return valid[field]
}

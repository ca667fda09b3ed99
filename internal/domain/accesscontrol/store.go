package accesscontrol

import (
	"context"
	"fmt"

	"prato/internal/infra/dbx"
)

type Store interface {
	SetUserRole(ctx context.Context, userID int64, role RoleName) error
	GetUserRole(ctx context.Context, userID int64) (RoleName, error)
	UserHasRole(ctx context.Context, userID int64, min RoleName) (bool, error)
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q}
}

func (r *Repository) SetUserRole(ctx context.Context, userID int64, role RoleName) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}

	ct, err := r.db.Exec(ctx,
		`UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`,
		role, userID,
	)
	if err != nil {
		return fmt.Errorf("set user role: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("user %d not found", userID)
	}
	return nil
}

func (r *Repository) GetUserRole(ctx context.Context, userID int64) (RoleName, error) {
	var role RoleName
	err := r.db.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		return RoleGuest, fmt.Errorf("get user role: %w", err)
	}
	return role, nil
}

func (r *Repository) UserHasRole(ctx context.Context, userID int64, min RoleName) (bool, error) {
	role, err := r.GetUserRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return role.AtLeast(min), nil
}

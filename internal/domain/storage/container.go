package storage

import (
	"context"
	"fmt"

	"prato/internal/domain/accesscontrol"
	"prato/internal/domain/applications"
	"prato/internal/domain/reports"
	"prato/internal/domain/restaurants"
	"prato/internal/domain/reviews"
	"prato/internal/domain/submissions"
	"prato/internal/domain/suggestions"
	"prato/internal/domain/users"
	"prato/internal/domain/votes"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Container struct {
	pool          *pgxpool.Pool // IMPORTANT: set the pool so WithModerationTx works
	Users         users.Store
	Restaurants   restaurants.Store
	Reviews       reviews.Store
	Suggestions   suggestions.Store
	Submissions   submissions.Store
	Reports       reports.Store
	Votes         votes.Store
	Applications  applications.Store
	AccessControl accesscontrol.Store
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		pool:          db,
		Users:         users.NewRepository(db),
		Restaurants:   restaurants.NewRepository(db),
		Reviews:       reviews.NewRepository(db),
		Suggestions:   suggestions.NewRepository(db),
		Submissions:   submissions.NewRepository(db),
		Reports:       reports.NewRepository(db),
		Votes:         votes.NewRepository(db),
		Applications:  applications.NewRepository(db),
		AccessControl: accesscontrol.NewRepository(db),
	}
}

// ModerationTx is a temporary, tx-scoped set of repos for atomic units of
// work: vote casts, diff applications, one-shot status resolutions.
type ModerationTx struct {
	Restaurants   restaurants.Store
	Reviews       reviews.Store
	Suggestions   suggestions.Store
	Submissions   submissions.Store
	Reports       reports.Store
	Votes         votes.Store
	Applications  applications.Store
	AccessControl accesscontrol.Store
}

// WithModerationTx runs a moderation unit-of-work atomically.
func (c *Container) WithModerationTx(ctx context.Context, fn func(m *ModerationTx) error) error {
	if c.pool == nil {
		return fmt.Errorf("storage container pool is nil (did you forget to set pool in NewContainer?)")
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx) // safe even if already committed
	}()

	m := &ModerationTx{
		Restaurants:   restaurants.NewRepository(tx),
		Reviews:       reviews.NewRepository(tx),
		Suggestions:   suggestions.NewRepository(tx),
		Submissions:   submissions.NewRepository(tx),
		Reports:       reports.NewRepository(tx),
		Votes:         votes.NewRepository(tx),
		Applications:  applications.NewRepository(tx),
		AccessControl: accesscontrol.NewRepository(tx),
	}

	if err := fn(m); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

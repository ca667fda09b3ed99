package applications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"prato/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, app *Application) error {
	const q = `
		INSERT INTO reviewer_applications (user_id, motivation)
		VALUES ($1, $2)
		RETURNING id, status, created_at`

	err := r.db.QueryRow(ctx, q, app.UserID, app.Motivation).
		Scan(&app.ID, &app.Status, &app.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePending
		}
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Application, error) {
	const q = `
		SELECT id, user_id, motivation, status, resolved_by, resolved_at, created_at
		FROM reviewer_applications
		WHERE id = $1`

	app := &Application{}
	err := r.db.QueryRow(ctx, q, id).Scan(
		&app.ID, &app.UserID, &app.Motivation, &app.Status,
		&app.ResolvedBy, &app.ResolvedAt, &app.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

func (r *Repository) List(ctx context.Context, f Filter) ([]*Application, error) {
	clauses := []string{}
	args := []any{}
	i := 1

	if f.Status != "" {
		clauses = append(clauses, fmt.Sprintf("status = $%d", i))
		args = append(args, f.Status)
		i++
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	q := fmt.Sprintf(`
		SELECT id, user_id, motivation, status, resolved_by, resolved_at, created_at
		FROM reviewer_applications
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, i, i+1)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []*Application
	for rows.Next() {
		app := &Application{}
		if err := rows.Scan(
			&app.ID, &app.UserID, &app.Motivation, &app.Status,
			&app.ResolvedBy, &app.ResolvedAt, &app.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func (r *Repository) MarkResolved(ctx context.Context, id int64, status Status, resolvedBy int64) error {
	const q = `
		UPDATE reviewer_applications
		SET status = $1, resolved_by = $2, resolved_at = NOW()
		WHERE id = $3 AND status = 'pending'`

	ct, err := r.db.Exec(ctx, q, status, resolvedBy, id)
	if err != nil {
		return fmt.Errorf("resolve application: %w", err)
	}
	if ct.RowsAffected() == 0 {
		var current Status
		err := r.db.QueryRow(ctx,
			`SELECT status FROM reviewer_applications WHERE id = $1`, id,
		).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("resolve application: %w", err)
		}
		return ErrAlreadyResolved
	}
	return nil
}

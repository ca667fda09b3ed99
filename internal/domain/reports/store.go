package reports

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

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q}
}

const reportColumns = `
	id, review_id, reporter_id, reason, status, created_at,
	resolved_by, resolved_at, action`

func scanReport(row pgx.Row, r *Report) error {
	return row.Scan(
		&r.ID, &r.ReviewID, &r.ReporterID, &r.Reason, &r.Status, &r.CreatedAt,
		&r.ResolvedBy, &r.ResolvedAt, &r.Action,
	)
}

func (repo *Repository) Create(ctx context.Context, r *Report) error {
	const q = `
		INSERT INTO reports (review_id, reporter_id, reason)
		VALUES ($1, $2, $3)
		RETURNING id, status, created_at`

	err := repo.db.QueryRow(ctx, q, r.ReviewID, r.ReporterID, r.Reason).
		Scan(&r.ID, &r.Status, &r.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePending
		}
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (repo *Repository) GetByID(ctx context.Context, id int64) (*Report, error) {
	return repo.get(ctx, id, false)
}

func (repo *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*Report, error) {
	return repo.get(ctx, id, true)
}

func (repo *Repository) get(ctx context.Context, id int64, forUpdate bool) (*Report, error) {
	q := fmt.Sprintf(`SELECT %s FROM reports WHERE id = $1`, reportColumns)
	if forUpdate {
		q += " FOR UPDATE"
	}

	var r Report
	if err := scanReport(repo.db.QueryRow(ctx, q, id), &r); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &r, nil
}

func (repo *Repository) List(ctx context.Context, f Filter) ([]Report, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 60 {
		f.Limit = 20
	}

	where := []string{"1=1"}
	args := []any{}
	arg := 1

	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", arg))
		args = append(args, string(*f.Status))
		arg++
	}

	q := fmt.Sprintf(`
		SELECT %s FROM reports
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		reportColumns, strings.Join(where, " AND "), arg, arg+1)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := repo.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var r Report
		if err := scanReport(rows, &r); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows reports: %w", err)
	}
	return out, nil
}

func (repo *Repository) MarkResolved(ctx context.Context, id, resolvedBy int64, action string) error {
	const q = `
		UPDATE reports
		SET status = 'resolved', resolved_by = $1, resolved_at = NOW(), action = $3
		WHERE id = $2 AND status = 'pending'`

	ct, err := repo.db.Exec(ctx, q, resolvedBy, id, action)
	if err != nil {
		return fmt.Errorf("resolve report: %w", err)
	}
	if ct.RowsAffected() == 0 {
		var status Status
		err := repo.db.QueryRow(ctx, `SELECT status FROM reports WHERE id = $1`, id).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrReportNotFound
		}
		if err != nil {
			return fmt.Errorf("resolve report: %w", err)
		}
		return ErrAlreadyResolved
	}
	return nil
}

package submissions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"prato/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q}
}

const submissionColumns = `
	id, ref_code, payload, submitted_by, status, submitted_at,
	resolved_by, resolved_at, resolver_comment`

func scanSubmission(row pgx.Row, s *Submission) error {
	return row.Scan(
		&s.ID, &s.RefCode, &s.Payload, &s.SubmittedBy, &s.Status, &s.SubmittedAt,
		&s.ResolvedBy, &s.ResolvedAt, &s.ResolverComment,
	)
}

func (r *Repository) Create(ctx context.Context, s *Submission) error {
	const q = `
		INSERT INTO submissions (payload, submitted_by)
		VALUES ($1, $2)
		RETURNING id, status, submitted_at`

	err := r.db.QueryRow(ctx, q, s.Payload, s.SubmittedBy).
		Scan(&s.ID, &s.Status, &s.SubmittedAt)
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

func (r *Repository) SetRefCode(ctx context.Context, id int64, code string) error {
	ct, err := r.db.Exec(ctx, `UPDATE submissions SET ref_code = $1 WHERE id = $2`, code, id)
	if err != nil {
		return fmt.Errorf("set submission ref_code: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Submission, error) {
	return r.get(ctx, id, false)
}

func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*Submission, error) {
	return r.get(ctx, id, true)
}

func (r *Repository) get(ctx context.Context, id int64, forUpdate bool) (*Submission, error) {
	q := fmt.Sprintf(`SELECT %s FROM submissions WHERE id = $1`, submissionColumns)
	if forUpdate {
		q += " FOR UPDATE"
	}

	var s Submission
	if err := scanSubmission(r.db.QueryRow(ctx, q, id), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return &s, nil
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Submission, error) {
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
		SELECT %s FROM submissions
		WHERE %s
		ORDER BY submitted_at DESC
		LIMIT $%d OFFSET $%d`,
		submissionColumns, strings.Join(where, " AND "), arg, arg+1)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var s Submission
		if err := scanSubmission(rows, &s); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows submissions: %w", err)
	}
	return out, nil
}

func (r *Repository) MarkResolved(ctx context.Context, id, resolvedBy int64, status Status, comment *string) error {
	const q = `
		UPDATE submissions
		SET status = $1, resolved_by = $2, resolved_at = NOW(), resolver_comment = $3
		WHERE id = $4 AND status IN ('pending', 'needs_changes')`

	ct, err := r.db.Exec(ctx, q, status, resolvedBy, comment, id)
	if err != nil {
		return fmt.Errorf("resolve submission: %w", err)
	}
	if ct.RowsAffected() == 0 {
		var current Status
		err := r.db.QueryRow(ctx, `SELECT status FROM submissions WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSubmissionNotFound
		}
		if err != nil {
			return fmt.Errorf("resolve submission: %w", err)
		}
		return ErrAlreadyResolved
	}
	return nil
}

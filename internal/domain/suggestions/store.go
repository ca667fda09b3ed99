package suggestions

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

const suggestionColumns = `
	id, restaurant_id, user_id, changes, rationale, status,
	upvotes, downvotes, created_at,
	resolved_by, resolved_at, rejection_reason`

func scanSuggestion(row pgx.Row, s *Suggestion) error {
	return row.Scan(
		&s.ID, &s.RestaurantID, &s.UserID, &s.Changes, &s.Rationale, &s.Status,
		&s.Upvotes, &s.Downvotes, &s.CreatedAt,
		&s.ResolvedBy, &s.ResolvedAt, &s.RejectionReason,
	)
}

func (r *Repository) Create(ctx context.Context, s *Suggestion) error {
	const q = `
		INSERT INTO edit_suggestions (restaurant_id, user_id, changes, rationale)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, upvotes, downvotes, created_at`

	err := r.db.QueryRow(ctx, q, s.RestaurantID, s.UserID, s.Changes, s.Rationale).
		Scan(&s.ID, &s.Status, &s.Upvotes, &s.Downvotes, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create edit_suggestion: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Suggestion, error) {
	return r.get(ctx, id, false)
}

func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*Suggestion, error) {
	return r.get(ctx, id, true)
}

func (r *Repository) get(ctx context.Context, id int64, forUpdate bool) (*Suggestion, error) {
	q := fmt.Sprintf(`SELECT %s FROM edit_suggestions WHERE id = $1`, suggestionColumns)
	if forUpdate {
		q += " FOR UPDATE"
	}

	var s Suggestion
	if err := scanSuggestion(r.db.QueryRow(ctx, q, id), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSuggestionNotFound
		}
		return nil, fmt.Errorf("get edit_suggestion: %w", err)
	}
	return &s, nil
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Suggestion, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 60 {
		f.Limit = 20
	}

	where := []string{"1=1"}
	args := []any{}
	arg := 1

	if f.RestaurantID != nil {
		where = append(where, fmt.Sprintf("restaurant_id = $%d", arg))
		args = append(args, *f.RestaurantID)
		arg++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", arg))
		args = append(args, string(*f.Status))
		arg++
	}

	q := fmt.Sprintf(`
		SELECT %s FROM edit_suggestions
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		suggestionColumns, strings.Join(where, " AND "), arg, arg+1)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list edit_suggestions: %w", err)
	}
	defer rows.Close()

	var out []Suggestion
	for rows.Next() {
		var s Suggestion
		if err := scanSuggestion(rows, &s); err != nil {
			return nil, fmt.Errorf("scan edit_suggestion: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows edit_suggestions: %w", err)
	}
	return out, nil
}

func (r *Repository) MarkApproved(ctx context.Context, id, resolvedBy int64) error {
	const q = `
		UPDATE edit_suggestions
		SET status = 'approved', resolved_by = $1, resolved_at = NOW()
		WHERE id = $2 AND status = 'pending'`

	return r.markResolved(ctx, q, id, resolvedBy)
}

func (r *Repository) MarkRejected(ctx context.Context, id, resolvedBy int64, reason string) error {
	const q = `
		UPDATE edit_suggestions
		SET status = 'rejected', resolved_by = $1, resolved_at = NOW(), rejection_reason = $3
		WHERE id = $2 AND status = 'pending'`

	return r.markResolved(ctx, q, id, resolvedBy, reason)
}

func (r *Repository) markResolved(ctx context.Context, q string, id, resolvedBy int64, extra ...any) error {
	args := append([]any{resolvedBy, id}, extra...)
	ct, err := r.db.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("resolve edit_suggestion: %w", err)
	}
	if ct.RowsAffected() == 0 {
		// Guard miss: either the row is gone or it was already resolved.
		var status Status
		err := r.db.QueryRow(ctx, `SELECT status FROM edit_suggestions WHERE id = $1`, id).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSuggestionNotFound
		}
		if err != nil {
			return fmt.Errorf("resolve edit_suggestion: %w", err)
		}
		return ErrAlreadyResolved
	}
	return nil
}

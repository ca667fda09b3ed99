package reviews

import (
	"context"
	"errors"
	"fmt"

	"prato/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q}
}

func (repo *Repository) Create(ctx context.Context, r *Review) error {
	const q = `
		INSERT INTO reviews (restaurant_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, upvotes, downvotes, is_hidden, created_at`

	err := repo.db.QueryRow(ctx, q, r.RestaurantID, r.UserID, r.Rating, r.Comment).
		Scan(&r.ID, &r.Upvotes, &r.Downvotes, &r.IsHidden, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (repo *Repository) GetByID(ctx context.Context, id int64) (*Review, error) {
	const q = `
		SELECT id, restaurant_id, user_id, rating, comment, upvotes, downvotes, is_hidden, created_at
		FROM reviews
		WHERE id = $1`

	var r Review
	err := repo.db.QueryRow(ctx, q, id).Scan(
		&r.ID, &r.RestaurantID, &r.UserID, &r.Rating, &r.Comment,
		&r.Upvotes, &r.Downvotes, &r.IsHidden, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &r, nil
}

func (repo *Repository) ListByRestaurant(ctx context.Context, restaurantID int64, includeHidden bool) ([]Review, error) {
	q := `
		SELECT r.id, r.restaurant_id, r.user_id, r.rating, r.comment,
		       r.upvotes, r.downvotes, r.is_hidden, r.created_at,
		       u.display_name
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.restaurant_id = $1`
	if !includeHidden {
		q += " AND NOT r.is_hidden"
	}
	q += " ORDER BY r.created_at DESC"

	rows, err := repo.db.Query(ctx, q, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var r Review
		if err := rows.Scan(
			&r.ID, &r.RestaurantID, &r.UserID, &r.Rating, &r.Comment,
			&r.Upvotes, &r.Downvotes, &r.IsHidden, &r.CreatedAt,
			&r.DisplayName,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows reviews: %w", err)
	}
	return out, nil
}

func (repo *Repository) Delete(ctx context.Context, id, userID int64) error {
	ct, err := repo.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (repo *Repository) SetHidden(ctx context.Context, id int64, hidden bool) error {
	ct, err := repo.db.Exec(ctx, `UPDATE reviews SET is_hidden = $1 WHERE id = $2`, hidden, id)
	if err != nil {
		return fmt.Errorf("set review hidden: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (repo *Repository) Stats(ctx context.Context, restaurantID int64) (int, float64, error) {
	var total int
	var average float64
	err := repo.db.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(rating), 0)
		 FROM reviews
		 WHERE restaurant_id = $1 AND NOT is_hidden`,
		restaurantID,
	).Scan(&total, &average)
	if err != nil {
		return 0, 0, fmt.Errorf("review stats: %w", err)
	}
	return total, average, nil
}

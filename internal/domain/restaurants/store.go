package restaurants

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

const restaurantColumns = `
	id, name, address, city, district,
	menu_price, price_range, food_type,
	whats_included, dishes, photos,
	cards_accepted, quick_service, group_friendly, parking,
	google_rating, google_reviews, description,
	restaurant_photo, menu_photo,
	status, submitted_by, submitted_at, approved_by, approved_at,
	created_at, updated_at`

func scanRestaurant(row pgx.Row, r *Restaurant) error {
	return row.Scan(
		&r.ID, &r.Name, &r.Address, &r.City, &r.District,
		&r.MenuPrice, &r.PriceRange, &r.FoodType,
		&r.WhatsIncluded, &r.Dishes, &r.Photos,
		&r.CardsAccepted, &r.QuickService, &r.GroupFriendly, &r.Parking,
		&r.GoogleRating, &r.GoogleReviews, &r.Description,
		&r.RestaurantPhoto, &r.MenuPhoto,
		&r.Status, &r.SubmittedBy, &r.SubmittedAt, &r.ApprovedBy, &r.ApprovedAt,
		&r.CreatedAt, &r.UpdatedAt,
	)
}

func (repo *Repository) Create(ctx context.Context, r *Restaurant) error {
	const q = `
		INSERT INTO restaurants (
			name, address, city, district,
			menu_price, price_range, food_type,
			whats_included, dishes, photos,
			cards_accepted, quick_service, group_friendly, parking,
			google_rating, google_reviews, description,
			restaurant_photo, menu_photo,
			status, submitted_by, approved_by, approved_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17,
			$18, $19,
			$20, $21, $22, $23
		)
		RETURNING id, submitted_at, created_at, updated_at`

	if r.WhatsIncluded == nil {
		r.WhatsIncluded = []string{}
	}
	if r.Dishes == nil {
		r.Dishes = []string{}
	}
	if r.Photos == nil {
		r.Photos = []string{}
	}

	err := repo.db.QueryRow(ctx, q,
		r.Name, r.Address, r.City, r.District,
		r.MenuPrice, r.PriceRange, r.FoodType,
		r.WhatsIncluded, r.Dishes, r.Photos,
		r.CardsAccepted, r.QuickService, r.GroupFriendly, r.Parking,
		r.GoogleRating, r.GoogleReviews, r.Description,
		r.RestaurantPhoto, r.MenuPhoto,
		r.Status, r.SubmittedBy, r.ApprovedBy, r.ApprovedAt,
	).Scan(&r.ID, &r.SubmittedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create restaurant: %w", err)
	}
	return nil
}

func (repo *Repository) GetByID(ctx context.Context, id int64) (*Restaurant, error) {
	return repo.get(ctx, id, false)
}

func (repo *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*Restaurant, error) {
	return repo.get(ctx, id, true)
}

func (repo *Repository) get(ctx context.Context, id int64, forUpdate bool) (*Restaurant, error) {
	q := fmt.Sprintf(`SELECT %s FROM restaurants WHERE id = $1`, restaurantColumns)
	if forUpdate {
		q += " FOR UPDATE"
	}

	var r Restaurant
	if err := scanRestaurant(repo.db.QueryRow(ctx, q, id), &r); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	return &r, nil
}

func (repo *Repository) Update(ctx context.Context, r *Restaurant) error {
	const q = `
		UPDATE restaurants SET
			name = $1, address = $2, city = $3, district = $4,
			menu_price = $5, price_range = $6, food_type = $7,
			whats_included = $8, dishes = $9, photos = $10,
			cards_accepted = $11, quick_service = $12, group_friendly = $13, parking = $14,
			google_rating = $15, google_reviews = $16, description = $17,
			restaurant_photo = $18, menu_photo = $19,
			updated_at = NOW()
		WHERE id = $20`

	ct, err := repo.db.Exec(ctx, q,
		r.Name, r.Address, r.City, r.District,
		r.MenuPrice, r.PriceRange, r.FoodType,
		r.WhatsIncluded, r.Dishes, r.Photos,
		r.CardsAccepted, r.QuickService, r.GroupFriendly, r.Parking,
		r.GoogleRating, r.GoogleReviews, r.Description,
		r.RestaurantPhoto, r.MenuPhoto,
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("update restaurant: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrRestaurantNotFound
	}
	return nil
}

func (repo *Repository) List(ctx context.Context, f Filter) ([]Restaurant, int, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 60 {
		f.Limit = 20
	}

	where := []string{"status = 'approved'"}
	args := []any{}
	arg := 1

	if f.City != nil {
		where = append(where, fmt.Sprintf("city = $%d", arg))
		args = append(args, *f.City)
		arg++
	}
	if f.District != nil {
		where = append(where, fmt.Sprintf("district = $%d", arg))
		args = append(args, *f.District)
		arg++
	}
	if f.FoodType != nil {
		where = append(where, fmt.Sprintf("food_type = $%d", arg))
		args = append(args, *f.FoodType)
		arg++
	}

	cond := strings.Join(where, " AND ")

	var total int
	countQ := fmt.Sprintf(`SELECT COUNT(*) FROM restaurants WHERE %s`, cond)
	if err := repo.db.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count restaurants: %w", err)
	}

	q := fmt.Sprintf(`
		SELECT %s FROM restaurants
		WHERE %s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d`,
		restaurantColumns, cond, arg, arg+1)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := repo.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	var out []Restaurant
	for rows.Next() {
		var r Restaurant
		if err := scanRestaurant(rows, &r); err != nil {
			return nil, 0, fmt.Errorf("scan restaurant: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows restaurants: %w", err)
	}

	return out, total, nil
}

func (repo *Repository) Delete(ctx context.Context, id int64) error {
	ct, err := repo.db.Exec(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrRestaurantNotFound
	}
	return nil
}

func (repo *Repository) AddPhotoURL(ctx context.Context, id int64, url string) error {
	ct, err := repo.db.Exec(ctx,
		`UPDATE restaurants SET photos = array_append(photos, $1), updated_at = NOW() WHERE id = $2`,
		url, id,
	)
	if err != nil {
		return fmt.Errorf("add photo url: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrRestaurantNotFound
	}
	return nil
}

func (repo *Repository) RemovePhotoURL(ctx context.Context, id int64, url string) error {
	ct, err := repo.db.Exec(ctx,
		`UPDATE restaurants SET photos = array_remove(photos, $1), updated_at = NOW() WHERE id = $2`,
		url, id,
	)
	if err != nil {
		return fmt.Errorf("remove photo url: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrRestaurantNotFound
	}
	return nil
}

package reviews

import (
	"context"
	"errors"
	"time"
)

var ErrReviewNotFound = errors.New("review not found")

// Review is a menu review. Upvotes/downvotes are a cache over the vote
// ledger and are only ever adjusted by the ledger's cast operation.
type Review struct {
	ID           int64     `json:"id"`
	RestaurantID int64     `json:"restaurant_id"`
	UserID       int64     `json:"user_id"`
	Rating       float64   `json:"rating"`
	Comment      string    `json:"comment"`
	Upvotes      int       `json:"upvotes"`
	Downvotes    int       `json:"downvotes"`
	IsHidden     bool      `json:"is_hidden"`
	CreatedAt    time.Time `json:"created_at"`

	// DisplayName of the author, joined in on reads.
	DisplayName string `json:"display_name,omitempty"`
}

type Store interface {
	Create(ctx context.Context, r *Review) error
	GetByID(ctx context.Context, id int64) (*Review, error)
	// ListByRestaurant returns visible reviews; hidden ones only show up
	// for reviewers browsing the report queue.
	ListByRestaurant(ctx context.Context, restaurantID int64, includeHidden bool) ([]Review, error)
	Delete(ctx context.Context, id, userID int64) error
	// SetHidden flips the visibility flag. Resolving a report with the
	// review_hidden action is the only caller.
	SetHidden(ctx context.Context, id int64, hidden bool) error
	Stats(ctx context.Context, restaurantID int64) (total int, average float64, err error)
}

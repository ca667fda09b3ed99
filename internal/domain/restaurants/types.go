package restaurants

import (
	"context"
	"errors"
	"time"
)

var ErrRestaurantNotFound = errors.New("restaurant not found")

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Restaurant is the canonical catalog entity. It is only ever mutated by
// an approved edit suggestion (via the diff-apply engine) or created from
// an approved submission.
type Restaurant struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	District string `json:"district"`

	MenuPrice  *float64 `json:"menu_price"`
	PriceRange string   `json:"price_range"`
	FoodType   string   `json:"food_type"`

	WhatsIncluded []string `json:"whats_included"`
	Dishes        []string `json:"dishes"`
	Photos        []string `json:"photos"`

	CardsAccepted bool `json:"cards_accepted"`
	QuickService  bool `json:"quick_service"`
	GroupFriendly bool `json:"group_friendly"`
	Parking       bool `json:"parking"`

	GoogleRating  *float64 `json:"google_rating,omitempty"`
	GoogleReviews *int64   `json:"google_reviews,omitempty"`
	Description   *string  `json:"description,omitempty"`

	RestaurantPhoto *string `json:"restaurant_photo,omitempty"`
	MenuPhoto       *string `json:"menu_photo,omitempty"`

	Status      Status     `json:"status"`
	SubmittedBy *int64     `json:"submitted_by,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	ApprovedBy  *int64     `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Filter struct {
	City     *string
	District *string
	FoodType *string
	Page     int
	Limit    int
}

type Store interface {
	Create(ctx context.Context, r *Restaurant) error
	GetByID(ctx context.Context, id int64) (*Restaurant, error)
	// GetByIDForUpdate locks the row for the duration of the enclosing
	// transaction; the diff-apply path uses it so concurrent approvals on
	// the same restaurant serialize.
	GetByIDForUpdate(ctx context.Context, id int64) (*Restaurant, error)
	// Update writes every editable column from the given entity state.
	// The diff-apply engine produces that state as a whole, so a partial
	// column list would reintroduce the staleness it exists to avoid.
	Update(ctx context.Context, r *Restaurant) error
	List(ctx context.Context, f Filter) ([]Restaurant, int, error)
	Delete(ctx context.Context, id int64) error
	AddPhotoURL(ctx context.Context, id int64, url string) error
	RemovePhotoURL(ctx context.Context, id int64, url string) error
}

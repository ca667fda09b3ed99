package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrAlreadyResolved means the submission reached a terminal status.
	// needs_changes is deliberately not terminal: a reviewer can still
	// approve or reject it later, or the author re-submits a fresh one.
	ErrAlreadyResolved = errors.New("submission already resolved")
)

type Status string

const (
	StatusPending      Status = "pending"
	StatusApproved     Status = "approved"
	StatusRejected     Status = "rejected"
	StatusNeedsChanges Status = "needs_changes"
)

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ValidDecision reports whether s is a status a reviewer may move a
// submission into.
func (s Status) ValidDecision() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusNeedsChanges
}

// Payload is the proposed restaurant carried by a submission. It is
// persisted verbatim as jsonb and only decoded into this shape when a
// reviewer approves.
type Payload struct {
	Name          string   `json:"name" validate:"required"`
	Address       string   `json:"address" validate:"required"`
	City          string   `json:"city" validate:"required"`
	District      string   `json:"district" validate:"required"`
	MenuPrice     *float64 `json:"menu_price"`
	PriceRange    string   `json:"price_range" validate:"required"`
	FoodType      string   `json:"food_type" validate:"required"`
	WhatsIncluded []string `json:"whats_included"`
	Dishes        []string `json:"dishes"`
	Photos        []string `json:"photos"`
	CardsAccepted bool     `json:"cards_accepted"`
	QuickService  bool     `json:"quick_service"`
	GroupFriendly bool     `json:"group_friendly"`
	Parking       bool     `json:"parking"`
	GoogleRating  *float64 `json:"google_rating,omitempty"`
	GoogleReviews *int64   `json:"google_reviews,omitempty"`
	Description   *string  `json:"description,omitempty"`
}

type Submission struct {
	ID          int64           `json:"id"`
	RefCode     string          `json:"ref_code"`
	Payload     json.RawMessage `json:"payload"`
	SubmittedBy *int64          `json:"submitted_by,omitempty"`
	Status      Status          `json:"status"`
	SubmittedAt time.Time       `json:"submitted_at"`

	ResolvedBy      *int64     `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolverComment *string    `json:"resolver_comment,omitempty"`
}

type Filter struct {
	Status *Status
	Page   int
	Limit  int
}

type Store interface {
	Create(ctx context.Context, s *Submission) error
	// SetRefCode stamps the public reference code once the row ID is
	// known; callers run it in the same transaction as Create.
	SetRefCode(ctx context.Context, id int64, code string) error
	GetByID(ctx context.Context, id int64) (*Submission, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*Submission, error)
	List(ctx context.Context, f Filter) ([]Submission, error)
	// MarkResolved moves a submission out of pending (or needs_changes).
	// The conditional update is the one-shot guard; a guard miss on an
	// existing row reports ErrAlreadyResolved.
	MarkResolved(ctx context.Context, id, resolvedBy int64, status Status, comment *string) error
}

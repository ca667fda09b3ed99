package suggestions

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrSuggestionNotFound = errors.New("edit suggestion not found")
	// ErrAlreadyResolved is returned when a resolution races another or a
	// caller retries one that already went through. Resolution is one-shot.
	ErrAlreadyResolved = errors.New("edit suggestion already resolved")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Suggestion is a proposed field-level edit to a restaurant. Changes are
// stored verbatim as submitted — even after approval — so the audit trail
// shows exactly what the author proposed, not what the engine coerced.
type Suggestion struct {
	ID           int64           `json:"id"`
	RestaurantID int64           `json:"restaurant_id"`
	UserID       int64           `json:"user_id"`
	Changes      json.RawMessage `json:"changes"`
	Rationale    string          `json:"rationale"`
	Status       Status          `json:"status"`
	Upvotes      int             `json:"upvotes"`
	Downvotes    int             `json:"downvotes"`
	CreatedAt    time.Time       `json:"created_at"`

	ResolvedBy      *int64     `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
}

type Filter struct {
	RestaurantID *int64
	Status       *Status
	Page         int
	Limit        int
}

type Store interface {
	Create(ctx context.Context, s *Suggestion) error
	GetByID(ctx context.Context, id int64) (*Suggestion, error)
	// GetByIDForUpdate locks the suggestion row so concurrent resolutions
	// serialize on it.
	GetByIDForUpdate(ctx context.Context, id int64) (*Suggestion, error)
	List(ctx context.Context, f Filter) ([]Suggestion, error)
	// MarkApproved and MarkRejected are conditional on status = 'pending';
	// they return ErrAlreadyResolved when the guard misses, which is how
	// the one-shot rule survives racing reviewers.
	MarkApproved(ctx context.Context, id, resolvedBy int64) error
	MarkRejected(ctx context.Context, id, resolvedBy int64, reason string) error
}

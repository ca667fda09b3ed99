package reports

import (
	"context"
	"errors"
	"time"
)

var (
	ErrReportNotFound  = errors.New("report not found")
	ErrAlreadyResolved = errors.New("report already resolved")
	// ErrDuplicatePending: one pending report per (review, reporter). A
	// new report is fine once the earlier one resolves.
	ErrDuplicatePending = errors.New("a pending report for this review already exists")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
)

// Action values are free text; these are the ones the dashboard offers.
const (
	ActionDismissed    = "dismissed"
	ActionReviewHidden = "review_hidden"
	ActionUserWarned   = "user_warned"
)

type Report struct {
	ID         int64     `json:"id"`
	ReviewID   int64     `json:"review_id"`
	ReporterID int64     `json:"reporter_id"`
	Reason     string    `json:"reason"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`

	ResolvedBy *int64     `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	Action     *string    `json:"action,omitempty"`
}

type Filter struct {
	Status *Status
	Page   int
	Limit  int
}

type Store interface {
	// Create fails with ErrDuplicatePending when the reporter already has
	// a pending report on the same review (backed by a partial unique
	// index, so the guard holds under concurrency too).
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id int64) (*Report, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*Report, error)
	List(ctx context.Context, f Filter) ([]Report, error)
	MarkResolved(ctx context.Context, id, resolvedBy int64, action string) error
}

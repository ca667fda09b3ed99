package applications

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("application not found")
	ErrAlreadyResolved  = errors.New("application already resolved")
	ErrDuplicatePending = errors.New("user already has a pending application")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Application is a member's request to be granted the reviewer role.
type Application struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Motivation string     `json:"motivation"`
	Status     Status     `json:"status"`
	ResolvedBy *int64     `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type Filter struct {
	Status string
	Page   int
	Limit  int
}

type Store interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id int64) (*Application, error)
	List(ctx context.Context, f Filter) ([]*Application, error)
	// MarkResolved flips a pending application to the given terminal
	// status exactly once.
	MarkResolved(ctx context.Context, id int64, status Status, resolvedBy int64) error
}

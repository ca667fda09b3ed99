package votes

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSubjectNotFound = errors.New("vote subject not found")
	ErrUnknownKind     = errors.New("unknown vote subject kind")
)

// SubjectKind selects which votable table a ballot belongs to.
type SubjectKind string

const (
	KindReview     SubjectKind = "review"
	KindSuggestion SubjectKind = "suggestion"
)

type Polarity string

const (
	PolarityUp   Polarity = "up"
	PolarityDown Polarity = "down"
	// PolarityNone is never stored; it reports "no vote" back to the caller.
	PolarityNone Polarity = "none"
)

func (p Polarity) Valid() bool {
	return p == PolarityUp || p == PolarityDown
}

// Vote is one ledger row. The ledger is the source of truth; the
// upvotes/downvotes columns on the subject are a cache derived from it.
type Vote struct {
	SubjectKind SubjectKind `json:"subject_kind"`
	SubjectID   int64       `json:"subject_id"`
	UserID      int64       `json:"user_id"`
	Polarity    Polarity    `json:"polarity"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Result is the refreshed counter state after a cast, plus the caller's
// resulting polarity (up, down, or none after a toggle-off).
type Result struct {
	SubjectID     int64    `json:"subject_id"`
	Upvotes       int      `json:"upvotes"`
	Downvotes     int      `json:"downvotes"`
	VoterPolarity Polarity `json:"voter_polarity"`
}

type Store interface {
	// Cast runs the toggle protocol: no prior vote creates one, a repeat
	// of the same polarity retracts it, the opposite polarity switches it.
	// Ledger write and counter adjustment happen against the same Querier,
	// so a caller running Cast inside a transaction gets both or neither.
	Cast(ctx context.Context, kind SubjectKind, subjectID, voterID int64, polarity Polarity) (*Result, error)

	// GetPolarity reports the voter's current polarity for a subject
	// (PolarityNone when no ledger row exists).
	GetPolarity(ctx context.Context, kind SubjectKind, subjectID, voterID int64) (Polarity, error)

	// CountByPolarity replays the ledger for one subject. Used by tests
	// and consistency checks, never by the request path.
	CountByPolarity(ctx context.Context, kind SubjectKind, subjectID int64) (up int, down int, err error)
}

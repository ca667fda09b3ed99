package votes

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

func (r *Repository) Cast(ctx context.Context, kind SubjectKind, subjectID, voterID int64, polarity Polarity) (*Result, error) {
	spec, err := subjectFor(kind)
	if err != nil {
		return nil, err
	}

	// Lock the subject row first so two racing casts on the same subject
	// serialize; the lock also doubles as the existence check.
	lockQ := fmt.Sprintf(
		`SELECT upvotes, downvotes FROM %s WHERE id = $1 %s FOR UPDATE`,
		spec.table, spec.visibleCond,
	)
	var up, down int
	if err := r.db.QueryRow(ctx, lockQ, subjectID).Scan(&up, &down); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("lock %s %d: %w", kind, subjectID, err)
	}

	var existing Polarity
	err = r.db.QueryRow(ctx,
		`SELECT polarity FROM votes WHERE subject_kind = $1 AND subject_id = $2 AND user_id = $3`,
		kind, subjectID, voterID,
	).Scan(&existing)
	hasVote := true
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("read vote: %w", err)
		}
		hasVote = false
	}

	var dUp, dDown int
	resulting := polarity

	switch {
	case !hasVote:
		_, err = r.db.Exec(ctx,
			`INSERT INTO votes (subject_kind, subject_id, user_id, polarity) VALUES ($1, $2, $3, $4)`,
			kind, subjectID, voterID, polarity,
		)
		if polarity == PolarityUp {
			dUp = 1
		} else {
			dDown = 1
		}

	case existing == polarity:
		// Same polarity twice retracts the vote.
		_, err = r.db.Exec(ctx,
			`DELETE FROM votes WHERE subject_kind = $1 AND subject_id = $2 AND user_id = $3`,
			kind, subjectID, voterID,
		)
		if polarity == PolarityUp {
			dUp = -1
		} else {
			dDown = -1
		}
		resulting = PolarityNone

	default:
		// Opposite polarity moves one unit across the counters.
		_, err = r.db.Exec(ctx,
			`UPDATE votes SET polarity = $4 WHERE subject_kind = $1 AND subject_id = $2 AND user_id = $3`,
			kind, subjectID, voterID, polarity,
		)
		if polarity == PolarityUp {
			dUp, dDown = 1, -1
		} else {
			dUp, dDown = -1, 1
		}
	}
	if err != nil {
		return nil, fmt.Errorf("write vote ledger: %w", err)
	}

	res := &Result{SubjectID: subjectID, VoterPolarity: resulting}
	counterQ := fmt.Sprintf(
		`UPDATE %s
		 SET upvotes = GREATEST(upvotes + $1, 0),
		     downvotes = GREATEST(downvotes + $2, 0)
		 WHERE id = $3
		 RETURNING upvotes, downvotes`,
		spec.table,
	)
	if err := r.db.QueryRow(ctx, counterQ, dUp, dDown, subjectID).Scan(&res.Upvotes, &res.Downvotes); err != nil {
		return nil, fmt.Errorf("adjust counters: %w", err)
	}

	return res, nil
}

func (r *Repository) GetPolarity(ctx context.Context, kind SubjectKind, subjectID, voterID int64) (Polarity, error) {
	if _, err := subjectFor(kind); err != nil {
		return PolarityNone, err
	}

	var p Polarity
	err := r.db.QueryRow(ctx,
		`SELECT polarity FROM votes WHERE subject_kind = $1 AND subject_id = $2 AND user_id = $3`,
		kind, subjectID, voterID,
	).Scan(&p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PolarityNone, nil
		}
		return PolarityNone, fmt.Errorf("read vote: %w", err)
	}
	return p, nil
}

func (r *Repository) CountByPolarity(ctx context.Context, kind SubjectKind, subjectID int64) (int, int, error) {
	if _, err := subjectFor(kind); err != nil {
		return 0, 0, err
	}

	var up, down int
	err := r.db.QueryRow(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE polarity = 'up'),
		   COUNT(*) FILTER (WHERE polarity = 'down')
		 FROM votes
		 WHERE subject_kind = $1 AND subject_id = $2`,
		kind, subjectID,
	).Scan(&up, &down)
	if err != nil {
		return 0, 0, fmt.Errorf("replay ledger: %w", err)
	}
	return up, down, nil
}

// Package moderation orchestrates the vote ledger, the diff-apply engine
// and the one-shot resolution workflows for submissions, suggestions and
// reports. Every mutating operation runs inside a single transaction so a
// status flip and its side effect commit or roll back together.
package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"prato/internal/diffapply"
	"prato/internal/domain/accesscontrol"
	"prato/internal/domain/applications"
	"prato/internal/domain/reports"
	"prato/internal/domain/restaurants"
	"prato/internal/domain/reviews"
	"prato/internal/domain/storage"
	"prato/internal/domain/submissions"
	"prato/internal/domain/suggestions"
	"prato/internal/domain/votes"

	"go.uber.org/zap"
)

// Runner supplies the transactional unit of work. *storage.Container
// satisfies it; tests swap in a fake that binds fake stores.
type Runner interface {
	WithModerationTx(ctx context.Context, fn func(m *storage.ModerationTx) error) error
}

type Service struct {
	store    Runner
	refCodes *submissions.RefCodeGenerator
	logger   *zap.SugaredLogger
}

func NewService(store Runner, refCodes *submissions.RefCodeGenerator, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, refCodes: refCodes, logger: logger}
}

// CastVote runs the toggle protocol for the caller on one subject and
// returns the refreshed counters plus the caller's resulting polarity.
func (s *Service) CastVote(ctx context.Context, id Identity, kind votes.SubjectKind, subjectID int64, polarity votes.Polarity) (*votes.Result, error) {
	if err := id.require(accesscontrol.RoleMember); err != nil {
		return nil, err
	}
	if !polarity.Valid() {
		return nil, fmt.Errorf("%w: polarity must be up or down", ErrInvalidInput)
	}

	var result *votes.Result
	err := s.store.WithModerationTx(ctx, func(m *storage.ModerationTx) error {
		var err error
		result, err = m.Votes.Cast(ctx, kind, subjectID, id.UserID, polarity)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, votes.ErrSubjectNotFound):
			return nil, ErrNotFound
		case errors.Is(err, votes.ErrUnknownKind):
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}
	return result, nil
}

// CreateSuggestion records a proposed field diff against a restaurant.
// The changes payload is parsed up front so malformed diffs fail here,
// not at approval time.
func (s *Service) CreateSuggestion(ctx context.Context, id Identity, restaurantID int64, changes json.RawMessage, rationale string) (*suggestions.Suggestion, error) {
	if err := id.require(accesscontrol.RoleMember); err != nil {
		return nil, err
	}
	set, err := diffapply.ParseChanges(changes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: changes payload is empty", ErrInvalidInput)
	}

	sugg := &suggestions.Suggestion{
		RestaurantID: restaurantID,
		UserID:       id.UserID,
		Changes:      changes,
		Rationale:    rationale,
	}
	err = s.store.WithModerationTx(ctx, func(m *storage.ModerationTx) error {
		if _, err := m.Restaurants.GetByID(ctx, restaurantID); err != nil {
			return err
		}
		return m.Suggestions.Create(ctx, sugg)
	})
	if err != nil {
		if errors.Is(err, restaurants.ErrRestaurantNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sugg, nil
}

type SuggestionDecision string

const (
	DecisionApprove SuggestionDecision = "approve"
	DecisionReject  SuggestionDecision = "reject"
)

// ResolveSuggestion finalizes a pending suggestion. Approval applies the
// stored diff to the restaurant and persists the new entity before the
// status flips, all in one transaction, so a coercion failure leaves the
// suggestion pending and the restaurant untouched.
func (s *Service) ResolveSuggestion(ctx context.Context, id Identity, suggestionID int64, decision SuggestionDecision, rejectionReason string) (*suggestions.Suggestion, error) {
	if err := id.require(accesscontrol.RoleReviewer); err != nil {
		return nil, err
	}
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, fmt.Errorf("%w: decision must be approve or reject", ErrInvalidInput)
	}

	var resolved *suggestions.Suggestion
	err := s.store.WithModerationTx(ctx, func(m *storage.ModerationTx) error {
		sugg, err := m.Suggestions.GetByIDForUpdate(ctx, suggestionID)
		if err != nil {
			return err
		}
		if sugg.Status != suggestions.StatusPending {
			return suggestions.ErrAlreadyResolved
		}

		if decision == DecisionApprove {
			if err := s.applySuggestion(ctx, m, sugg); err != nil {
				return err
			}
			if err := m.Suggestions.MarkApproved(ctx, suggestionID, id.UserID); err != nil {
				return err
			}
		} else {
			if err := m.Suggestions.MarkRejected(ctx, suggestionID, id.UserID, rejectionReason); err != nil {
				return err
			}
		}

		resolved, err = m.Suggestions.GetByID(ctx, suggestionID)
		return err
	})
	if err != nil {
		return nil, s.mapResolutionErr(err, suggestions.ErrSuggestionNotFound, suggestions.ErrAlreadyResolved)
	}
	s.logger.Infow("suggestion resolved", "suggestion_id", suggestionID, "decision", decision, "resolved_by", id.UserID)
	return resolved, nil
}

func (s *Service) applySuggestion(ctx context.Context, m *storage.ModerationTx, sugg *suggestions.Suggestion) error {
	restaurant, err := m.Restaurants.GetByIDForUpdate(ctx, sugg.RestaurantID)
	if err != nil {
		return err
	}

	set, err := diffapply.ParseChanges(sugg.Changes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	updated, applied, err := diffapply.Apply(restaurant, set)
	if err != nil {
		return err // *diffapply.ApplyError, rolls back the whole resolution
	}

	if err := m.Restaurants.Update(ctx, updated); err != nil {
		return err
	}
	s.logger.Infow("suggestion diff applied", "suggestion_id", sugg.ID, "restaurant_id", restaurant.ID, "fields", applied)
	return nil
}

// CreateSubmission stores a proposed restaurant and stamps its public
// reference code in the same transaction.
func (s *Service) CreateSubmission(ctx context.Context, id Identity, payload json.RawMessage) (*submissions.Submission, error) {
	var p submissions.Payload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if p.Name == "" || p.Address == "" || p.City == "" {
		return nil, fmt.Errorf("%w: name, address and city are required", ErrInvalidInput)
	}

	sub := &submissions.Submission{Payload: payload}
	if id.Authenticated() {
		uid := id.UserID
		sub.SubmittedBy = &uid
	}

	err := s.store.WithModerationTx(ctx, func(m *storage.ModerationTx) error {
		if err := m.Submissions.Create(ctx, sub); err != nil {
			return err
		}
		code, err := s.refCodes.Generate(sub.ID)
		if err != nil {
			return err
		}
		sub.RefCode = code
		return m.Submissions.SetRefCode(ctx, sub.ID, code)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ResolveSubmission moves a submission out of pending (or needs_changes).
// Approval constructs the restaurant from the stored payload and persists
// it before the status flips.
func (s *Service) ResolveSubmission(ctx context.Context, id Identity, submissionID int64, decision submissions.Status, comment *string) (*submissions.Submission, error) {
	if err := id.require(accesscontrol.RoleReviewer); err != nil {
		return nil, err
	}
	if !decision.ValidDecision() {
		return nil, fmt.Errorf("%w: decision must be approved, rejected or needs_changes", ErrInvalidInput)
	}

	var resolved *submissions.Submission
	err := s.store.WithModerationTx(ctx, func(m *storage.ModerationTx) error {
		sub, err := m.Submissions.GetByIDForUpdate(ctx, submissionID)
		if err != nil {
			return err
		}
		if sub.Status.Terminal() {
			return submissions.ErrAlreadyResolved
		}

		if decision == submissions.StatusApproved {
			if err := s.promoteSubmission(ctx, m, sub, id.UserID); err != nil {
				return err
			}
		}
		if err := m.Submissions.MarkResolved(ctx, submissionID, id.UserID, decision, comment); err != nil {
			return err
		}

		resolved, err = m.Submissions.GetByID(ctx, submissionID)
		return err
	})
	if err != nil {
		return nil, s.mapResolutionErr(err, submissions.ErrSubmissionNotFound, submissions.ErrAlreadyResolved)
	}
	s.logger.Infow("submission resolved", "submission_id", submissionID, "decision", decision, "resolved_by", id.UserID)
	return resolved, nil
}

func (s *Service) promoteSubmission(ctx context.Context, m *storage.ModerationTx, sub *submissions.Submission, approvedBy int64) error {
	var p submissions.Payload
	if err := json.Unmarshal(sub.Payload, &p); err != nil {
		return fmt.Errorf("%w: stored payload: %v", ErrInvalidInput, err)
	}

	r := &restaurants.Restaurant{
		Name:          p.Name,
		Address:       p.Address,
		City:          p.City,
		District:      p.District,
		MenuPrice:     p.MenuPrice,
		PriceRange:    p.PriceRange,
		FoodType:      p.FoodType,
		WhatsIncluded: p.WhatsIncluded,
		Dishes:        p.Dishes,
		Photos:        p.Photos,
		CardsAccepted: p.CardsAccepted,
		QuickService:  p.QuickService,
		GroupFriendly: p.GroupFriendly,
		Parking:       p.Parking,
		GoogleRating:  p.GoogleRating,
		GoogleReviews: p.GoogleReviews,
		Description:   p.Description,
		Status:        restaurants.StatusApproved,
		SubmittedBy:   sub.SubmittedBy,
		ApprovedBy:    &approvedBy,
	}
	return m.Restaurants.Create(ctx, r)
}

// CreateReport files a report against a review. At most one pending
// report per (review, reporter).
func (s *Service) CreateReport(ctx context.Context, id Identity, reviewID int64, reason string) (*reports.Report, error) {
	if err := id.require(accesscontrol.RoleMember); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}

	report := &reports.Report{
		ReviewID:   reviewID,
		ReporterID: id.UserID,
		Reason:     reason,
	}
	err := s.store.WithModerationTx(ctx, func(m *storage.ModerationTx) error {
		if _, err := m.Reviews.GetByID(ctx, reviewID); err != nil {
			return err
		}
		return m.Reports.Create(ctx, report)
	})
	if err != nil {
		switch {
		case errors.Is(err, reports.ErrDuplicatePending):
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		case isNotFound(err):
			return nil, ErrNotFound
		}
		return nil, err
	}
	return report, nil
}

// ResolveReport closes a report with a free-text action. review_hidden is
// the only action with a side effect: it hides the reported review in the
// same transaction.
func (s *Service) ResolveReport(ctx context.Context, id Identity, reportID int64, action string) (*reports.Report, error) {
	if err := id.require(accesscontrol.RoleReviewer); err != nil {
		return nil, err
	}
	if action == "" {
		return nil, fmt.Errorf("%w: action is required", ErrInvalidInput)
	}

	var resolved *reports.Report
	err := s.store.WithModerationTx(ctx, func(m *storage.ModerationTx) error {
		report, err := m.Reports.GetByIDForUpdate(ctx, reportID)
		if err != nil {
			return err
		}
		if report.Status != reports.StatusPending {
			return reports.ErrAlreadyResolved
		}

		if action == reports.ActionReviewHidden {
			if err := m.Reviews.SetHidden(ctx, report.ReviewID, true); err != nil {
				return err
			}
		}
		if err := m.Reports.MarkResolved(ctx, reportID, id.UserID, action); err != nil {
			return err
		}

		resolved, err = m.Reports.GetByID(ctx, reportID)
		return err
	})
	if err != nil {
		return nil, s.mapResolutionErr(err, reports.ErrReportNotFound, reports.ErrAlreadyResolved)
	}
	s.logger.Infow("report resolved", "report_id", reportID, "action", action, "resolved_by", id.UserID)
	return resolved, nil
}

// ApplyForReviewer records a member's request for the reviewer role.
func (s *Service) ApplyForReviewer(ctx context.Context, id Identity, motivation string) (*applications.Application, error) {
	if err := id.require(accesscontrol.RoleMember); err != nil {
		return nil, err
	}
	if id.Role.AtLeast(accesscontrol.RoleReviewer) {
		return nil, fmt.Errorf("%w: caller already holds the reviewer role", ErrConflict)
	}

	app := &applications.Application{UserID: id.UserID, Motivation: motivation}
	err := s.store.WithModerationTx(ctx, func(m *storage.ModerationTx) error {
		return m.Applications.Create(ctx, app)
	})
	if err != nil {
		if errors.Is(err, applications.ErrDuplicatePending) {
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return nil, err
	}
	return app, nil
}

// ResolveApplication is admin-only. Approval grants the reviewer role in
// the same transaction as the status flip.
func (s *Service) ResolveApplication(ctx context.Context, id Identity, applicationID int64, decision applications.Status) (*applications.Application, error) {
	if err := id.require(accesscontrol.RoleAdmin); err != nil {
		return nil, err
	}
	if decision != applications.StatusApproved && decision != applications.StatusRejected {
		return nil, fmt.Errorf("%w: decision must be approved or rejected", ErrInvalidInput)
	}

	var resolved *applications.Application
	err := s.store.WithModerationTx(ctx, func(m *storage.ModerationTx) error {
		app, err := m.Applications.GetByID(ctx, applicationID)
		if err != nil {
			return err
		}
		if err := m.Applications.MarkResolved(ctx, applicationID, decision, id.UserID); err != nil {
			return err
		}
		if decision == applications.StatusApproved {
			if err := m.AccessControl.SetUserRole(ctx, app.UserID, accesscontrol.RoleReviewer); err != nil {
				return err
			}
		}
		resolved, err = m.Applications.GetByID(ctx, applicationID)
		return err
	})
	if err != nil {
		return nil, s.mapResolutionErr(err, applications.ErrNotFound, applications.ErrAlreadyResolved)
	}
	s.logger.Infow("reviewer application resolved", "application_id", applicationID, "decision", decision, "resolved_by", id.UserID)
	return resolved, nil
}

// mapResolutionErr translates store sentinels into the service's error
// kinds; apply failures and unexpected errors pass through untouched.
func (s *Service) mapResolutionErr(err, notFound, alreadyResolved error) error {
	switch {
	case errors.Is(err, notFound):
		return ErrNotFound
	case errors.Is(err, alreadyResolved):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case isNotFound(err):
		return ErrNotFound
	}
	return err
}

func isNotFound(err error) bool {
	for _, sentinel := range []error{
		restaurants.ErrRestaurantNotFound,
		reviews.ErrReviewNotFound,
		suggestions.ErrSuggestionNotFound,
		submissions.ErrSubmissionNotFound,
		reports.ErrReportNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

package moderation

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"prato/internal/diffapply"
	"prato/internal/domain/accesscontrol"
	"prato/internal/domain/applications"
	"prato/internal/domain/reports"
	"prato/internal/domain/restaurants"
	"prato/internal/domain/reviews"
	"prato/internal/domain/submissions"
	"prato/internal/domain/suggestions"
	"prato/internal/domain/votes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

var (
	member   = Identity{UserID: 10, Role: accesscontrol.RoleMember}
	member2  = Identity{UserID: 11, Role: accesscontrol.RoleMember}
	reviewer = Identity{UserID: 20, Role: accesscontrol.RoleReviewer}
	admin    = Identity{UserID: 30, Role: accesscontrol.RoleAdmin}
	guest    = Identity{}
)

func seedRestaurant(t *testing.T, e *env) *restaurants.Restaurant {
	t.Helper()
	price := 10.0
	r := &restaurants.Restaurant{
		Name:      "Tasca do Zé",
		Address:   "Rua Nova 3",
		City:      "Lisboa",
		District:  "Alfama",
		MenuPrice: &price,
		Status:    restaurants.StatusApproved,
	}
	require.NoError(t, e.restaurants.Create(context.Background(), r))
	return r
}

func seedReview(t *testing.T, e *env, restaurantID int64) *reviews.Review {
	t.Helper()
	rv := &reviews.Review{RestaurantID: restaurantID, UserID: member.UserID, Rating: 4, Comment: "good value"}
	require.NoError(t, e.reviews.Create(context.Background(), rv))
	return rv
}

func TestCastVoteToggleProtocol(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	r := seedRestaurant(t, e)
	rv := seedReview(t, e, r.ID)

	// First cast creates the vote.
	res, err := e.service.CastVote(ctx, member, votes.KindReview, rv.ID, votes.PolarityUp)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Upvotes)
	assert.Equal(t, 0, res.Downvotes)
	assert.Equal(t, votes.PolarityUp, res.VoterPolarity)

	// Same polarity again retracts it.
	res, err = e.service.CastVote(ctx, member, votes.KindReview, rv.ID, votes.PolarityUp)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Upvotes)
	assert.Equal(t, 0, res.Downvotes)
	assert.Equal(t, votes.PolarityNone, res.VoterPolarity)

	// Casting down after the retract creates a down vote.
	res, err = e.service.CastVote(ctx, member, votes.KindReview, rv.ID, votes.PolarityDown)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Upvotes)
	assert.Equal(t, 1, res.Downvotes)
	assert.Equal(t, votes.PolarityDown, res.VoterPolarity)
}

func TestCastVoteSwitchMovesExactlyOneUnit(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	r := seedRestaurant(t, e)
	rv := seedReview(t, e, r.ID)

	_, err := e.service.CastVote(ctx, member, votes.KindReview, rv.ID, votes.PolarityUp)
	require.NoError(t, err)
	_, err = e.service.CastVote(ctx, member2, votes.KindReview, rv.ID, votes.PolarityUp)
	require.NoError(t, err)

	res, err := e.service.CastVote(ctx, member, votes.KindReview, rv.ID, votes.PolarityDown)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Upvotes)
	assert.Equal(t, 1, res.Downvotes)
	assert.Equal(t, votes.PolarityDown, res.VoterPolarity)
}

func TestCastVoteCountersMatchLedger(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	r := seedRestaurant(t, e)
	rv := seedReview(t, e, r.ID)

	voters := []Identity{member, member2, reviewer, admin}
	casts := []votes.Polarity{
		votes.PolarityUp, votes.PolarityDown, votes.PolarityUp, votes.PolarityUp,
		votes.PolarityUp, votes.PolarityDown, votes.PolarityDown,
	}
	for i, p := range casts {
		_, err := e.service.CastVote(ctx, voters[i%len(voters)], votes.KindReview, rv.ID, p)
		require.NoError(t, err)
	}

	up, down, err := e.votes.CountByPolarity(ctx, votes.KindReview, rv.ID)
	require.NoError(t, err)
	assert.Equal(t, up, e.reviews.items[rv.ID].Upvotes)
	assert.Equal(t, down, e.reviews.items[rv.ID].Downvotes)
}

func TestCastVoteErrors(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	r := seedRestaurant(t, e)
	rv := seedReview(t, e, r.ID)

	_, err := e.service.CastVote(ctx, guest, votes.KindReview, rv.ID, votes.PolarityUp)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = e.service.CastVote(ctx, member, votes.KindReview, rv.ID, votes.Polarity("sideways"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.service.CastVote(ctx, member, votes.KindReview, 999, votes.PolarityUp)
	assert.ErrorIs(t, err, ErrNotFound)

	// A hidden review is not a votable subject.
	require.NoError(t, e.reviews.SetHidden(ctx, rv.ID, true))
	_, err = e.service.CastVote(ctx, member, votes.KindReview, rv.ID, votes.PolarityUp)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateSuggestion(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	r := seedRestaurant(t, e)

	changes := json.RawMessage(`{"name": {"from": "Tasca do Zé", "to": "Tasca Nova"}}`)
	sugg, err := e.service.CreateSuggestion(ctx, member, r.ID, changes, "name changed last month")
	require.NoError(t, err)
	assert.Equal(t, suggestions.StatusPending, sugg.Status)
	assert.Equal(t, member.UserID, sugg.UserID)
	assert.JSONEq(t, string(changes), string(sugg.Changes))

	_, err = e.service.CreateSuggestion(ctx, member, r.ID, json.RawMessage(`not json`), "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.service.CreateSuggestion(ctx, member, r.ID, json.RawMessage(`{}`), "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.service.CreateSuggestion(ctx, member, 999, changes, "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.service.CreateSuggestion(ctx, guest, r.ID, changes, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolveSuggestionApproveAppliesDiff(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	r := seedRestaurant(t, e)

	changes := json.RawMessage(`{"name": {"from": "Tasca do Zé", "to": "Tasca Nova"}, "menuPrice": {"from": 10, "to": 12.5}}`)
	sugg, err := e.service.CreateSuggestion(ctx, member, r.ID, changes, "")
	require.NoError(t, err)

	resolved, err := e.service.ResolveSuggestion(ctx, reviewer, sugg.ID, DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, suggestions.StatusApproved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, reviewer.UserID, *resolved.ResolvedBy)
	assert.NotNil(t, resolved.ResolvedAt)
	// The proposed changes survive resolution verbatim for audit.
	assert.JSONEq(t, string(changes), string(resolved.Changes))

	updated, err := e.restaurants.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tasca Nova", updated.Name)
	require.NotNil(t, updated.MenuPrice)
	assert.Equal(t, 12.5, *updated.MenuPrice)
}

func TestResolveSuggestionIsOneShot(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	r := seedRestaurant(t, e)

	sugg, err := e.service.CreateSuggestion(ctx, member, r.ID, json.RawMessage(`{"city": {"to": "Porto"}}`), "")
	require.NoError(t, err)

	first, err := e.service.ResolveSuggestion(ctx, reviewer, sugg.ID, DecisionApprove, "")
	require.NoError(t, err)

	_, err = e.service.ResolveSuggestion(ctx, reviewer, sugg.ID, DecisionReject, "changed my mind")
	assert.ErrorIs(t, err, ErrConflict)

	// Resolution metadata is untouched by the failed second attempt.
	after, err := e.suggestions.GetByID(ctx, sugg.ID)
	require.NoError(t, err)
	assert.Equal(t, suggestions.StatusApproved, after.Status)
	assert.Equal(t, *first.ResolvedBy, *after.ResolvedBy)
	assert.Equal(t, *first.ResolvedAt, *after.ResolvedAt)
}

func TestResolveSuggestionApplyFailureLeavesPending(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	r := seedRestaurant(t, e)

	sugg, err := e.service.CreateSuggestion(ctx, member, r.ID, json.RawMessage(`{"menuPrice": {"to": "not-a-number"}}`), "")
	require.NoError(t, err)

	_, err = e.service.ResolveSuggestion(ctx, reviewer, sugg.ID, DecisionApprove, "")
	require.Error(t, err)

	var applyErr *diffapply.ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Equal(t, "menuPrice", applyErr.Field)

	after, err := e.suggestions.GetByID(ctx, sugg.ID)
	require.NoError(t, err)
	assert.Equal(t, suggestions.StatusPending, after.Status)
	assert.Nil(t, after.ResolvedBy)

	untouched, err := e.restaurants.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, *untouched.MenuPrice)
}

func TestResolveSuggestionRejectRecordsReason(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	r := seedRestaurant(t, e)

	sugg, err := e.service.CreateSuggestion(ctx, member, r.ID, json.RawMessage(`{"city": {"to": "Porto"}}`), "")
	require.NoError(t, err)

	resolved, err := e.service.ResolveSuggestion(ctx, reviewer, sugg.ID, DecisionReject, "restaurant has not moved")
	require.NoError(t, err)
	assert.Equal(t, suggestions.StatusRejected, resolved.Status)
	require.NotNil(t, resolved.RejectionReason)
	assert.Equal(t, "restaurant has not moved", *resolved.RejectionReason)

	// The rejected diff never touched the restaurant.
	untouched, err := e.restaurants.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lisboa", untouched.City)
}

func TestResolveSuggestionRoleGate(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	r := seedRestaurant(t, e)

	sugg, err := e.service.CreateSuggestion(ctx, member, r.ID, json.RawMessage(`{"city": {"to": "Porto"}}`), "")
	require.NoError(t, err)

	_, err = e.service.ResolveSuggestion(ctx, member, sugg.ID, DecisionApprove, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = e.service.ResolveSuggestion(ctx, guest, sugg.ID, DecisionApprove, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = e.service.ResolveSuggestion(ctx, reviewer, sugg.ID, SuggestionDecision("maybe"), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func submissionPayload() json.RawMessage {
	return json.RawMessage(`{
		"name": "Cantina da Esquina",
		"address": "Largo Velho 7",
		"city": "Porto",
		"district": "Cedofeita",
		"price_range": "€",
		"food_type": "tascas",
		"dishes": ["rojões"],
		"cards_accepted": true
	}`)
}

func TestCreateSubmission(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	sub, err := e.service.CreateSubmission(ctx, member, submissionPayload())
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusPending, sub.Status)
	require.NotNil(t, sub.SubmittedBy)
	assert.Equal(t, member.UserID, *sub.SubmittedBy)
	assert.True(t, strings.HasPrefix(sub.RefCode, "SUB-"))

	// The public code decodes back to the row ID.
	refCodes, err := submissions.NewRefCodeGenerator("test-salt")
	require.NoError(t, err)
	decoded, err := refCodes.Decode(sub.RefCode)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, decoded)

	// Anonymous submissions carry no submitter.
	anon, err := e.service.CreateSubmission(ctx, guest, submissionPayload())
	require.NoError(t, err)
	assert.Nil(t, anon.SubmittedBy)

	_, err = e.service.CreateSubmission(ctx, member, json.RawMessage(`{"name": ""}`))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResolveSubmissionApproveCreatesRestaurant(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	sub, err := e.service.CreateSubmission(ctx, member, submissionPayload())
	require.NoError(t, err)

	comment := "looks legitimate"
	resolved, err := e.service.ResolveSubmission(ctx, reviewer, sub.ID, submissions.StatusApproved, &comment)
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusApproved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, reviewer.UserID, *resolved.ResolvedBy)

	list, _, err := e.restaurants.List(ctx, restaurants.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	created := list[0]
	assert.Equal(t, "Cantina da Esquina", created.Name)
	assert.Equal(t, restaurants.StatusApproved, created.Status)
	require.NotNil(t, created.ApprovedBy)
	assert.Equal(t, reviewer.UserID, *created.ApprovedBy)
	require.NotNil(t, created.SubmittedBy)
	assert.Equal(t, member.UserID, *created.SubmittedBy)
	assert.True(t, created.CardsAccepted)
}

func TestResolveSubmissionNeedsChangesIsNotTerminal(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	sub, err := e.service.CreateSubmission(ctx, member, submissionPayload())
	require.NoError(t, err)

	_, err = e.service.ResolveSubmission(ctx, reviewer, sub.ID, submissions.StatusNeedsChanges, nil)
	require.NoError(t, err)

	// A needs_changes submission can still be approved later.
	resolved, err := e.service.ResolveSubmission(ctx, reviewer, sub.ID, submissions.StatusApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusApproved, resolved.Status)

	// Terminal statuses are one-shot.
	_, err = e.service.ResolveSubmission(ctx, reviewer, sub.ID, submissions.StatusRejected, nil)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestResolveSubmissionValidation(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	sub, err := e.service.CreateSubmission(ctx, member, submissionPayload())
	require.NoError(t, err)

	_, err = e.service.ResolveSubmission(ctx, reviewer, sub.ID, submissions.Status("archived"), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.service.ResolveSubmission(ctx, member, sub.ID, submissions.StatusApproved, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = e.service.ResolveSubmission(ctx, reviewer, 999, submissions.StatusApproved, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateReportDuplicatePending(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	r := seedRestaurant(t, e)
	rv := seedReview(t, e, r.ID)

	report, err := e.service.CreateReport(ctx, member2, rv.ID, "spam")
	require.NoError(t, err)
	assert.Equal(t, reports.StatusPending, report.Status)

	// Second pending report by the same reporter is rejected.
	_, err = e.service.CreateReport(ctx, member2, rv.ID, "still spam")
	assert.ErrorIs(t, err, ErrConflict)

	// A different reporter is fine.
	_, err = e.service.CreateReport(ctx, member, rv.ID, "spam too")
	require.NoError(t, err)

	// Once the first resolves, the same reporter may file again.
	_, err = e.service.ResolveReport(ctx, reviewer, report.ID, reports.ActionDismissed)
	require.NoError(t, err)
	_, err = e.service.CreateReport(ctx, member2, rv.ID, "spam again")
	require.NoError(t, err)
}

func TestCreateReportErrors(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	_, err := e.service.CreateReport(ctx, member, 999, "spam")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.service.CreateReport(ctx, guest, 1, "spam")
	assert.ErrorIs(t, err, ErrUnauthorized)

	r := seedRestaurant(t, e)
	rv := seedReview(t, e, r.ID)
	_, err = e.service.CreateReport(ctx, member, rv.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResolveReportReviewHiddenSideEffect(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	r := seedRestaurant(t, e)
	rv := seedReview(t, e, r.ID)

	report, err := e.service.CreateReport(ctx, member2, rv.ID, "offensive")
	require.NoError(t, err)

	resolved, err := e.service.ResolveReport(ctx, reviewer, report.ID, reports.ActionReviewHidden)
	require.NoError(t, err)
	assert.Equal(t, reports.StatusResolved, resolved.Status)
	require.NotNil(t, resolved.Action)
	assert.Equal(t, reports.ActionReviewHidden, *resolved.Action)

	hidden, err := e.reviews.GetByID(ctx, rv.ID)
	require.NoError(t, err)
	assert.True(t, hidden.IsHidden)

	_, err = e.service.ResolveReport(ctx, reviewer, report.ID, reports.ActionDismissed)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestResolveReportAnnotationOnlyActions(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	r := seedRestaurant(t, e)
	rv := seedReview(t, e, r.ID)

	report, err := e.service.CreateReport(ctx, member2, rv.ID, "rude")
	require.NoError(t, err)

	_, err = e.service.ResolveReport(ctx, reviewer, report.ID, reports.ActionUserWarned)
	require.NoError(t, err)

	visible, err := e.reviews.GetByID(ctx, rv.ID)
	require.NoError(t, err)
	assert.False(t, visible.IsHidden)
}

func TestReviewerApplicationLifecycle(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	app, err := e.service.ApplyForReviewer(ctx, member, "I eat out a lot")
	require.NoError(t, err)
	assert.Equal(t, applications.StatusPending, app.Status)

	// Only one pending application per user.
	_, err = e.service.ApplyForReviewer(ctx, member, "again")
	assert.ErrorIs(t, err, ErrConflict)

	// Reviewers have nothing to apply for.
	_, err = e.service.ApplyForReviewer(ctx, reviewer, "promote me more")
	assert.ErrorIs(t, err, ErrConflict)

	// Resolution is admin-only.
	_, err = e.service.ResolveApplication(ctx, reviewer, app.ID, applications.StatusApproved)
	assert.ErrorIs(t, err, ErrForbidden)

	resolved, err := e.service.ResolveApplication(ctx, admin, app.ID, applications.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, applications.StatusApproved, resolved.Status)

	// Approval granted the reviewer role.
	role, err := e.access.GetUserRole(ctx, member.UserID)
	require.NoError(t, err)
	assert.Equal(t, accesscontrol.RoleReviewer, role)

	_, err = e.service.ResolveApplication(ctx, admin, app.ID, applications.StatusRejected)
	assert.ErrorIs(t, err, ErrConflict)
}

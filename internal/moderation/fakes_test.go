package moderation

import (
	"context"
	"fmt"
	"time"

	"prato/internal/domain/accesscontrol"
	"prato/internal/domain/applications"
	"prato/internal/domain/reports"
	"prato/internal/domain/restaurants"
	"prato/internal/domain/reviews"
	"prato/internal/domain/storage"
	"prato/internal/domain/submissions"
	"prato/internal/domain/suggestions"
	"prato/internal/domain/votes"
)

// fakeRunner binds in-memory stores into a ModerationTx. It does not
// emulate rollback; tests relying on atomicity assert that the failing
// step runs before any mutation instead.
type fakeRunner struct {
	tx *storage.ModerationTx
}

func (f *fakeRunner) WithModerationTx(ctx context.Context, fn func(m *storage.ModerationTx) error) error {
	return fn(f.tx)
}

// fakeVotes mirrors the SQL repository's toggle protocol over in-memory
// maps. Counters live on the votable fakes so the ledger and the cache
// can be cross-checked.
type fakeVotes struct {
	ledger      map[string]votes.Polarity
	reviews     *fakeReviews
	suggestions *fakeSuggestions
}

func newFakeVotes(r *fakeReviews, s *fakeSuggestions) *fakeVotes {
	return &fakeVotes{ledger: map[string]votes.Polarity{}, reviews: r, suggestions: s}
}

func voteKey(kind votes.SubjectKind, subjectID, voterID int64) string {
	return fmt.Sprintf("%s/%d/%d", kind, subjectID, voterID)
}

func (f *fakeVotes) counters(kind votes.SubjectKind, subjectID int64) (up, down *int, err error) {
	switch kind {
	case votes.KindReview:
		rv, ok := f.reviews.items[subjectID]
		if !ok || rv.IsHidden {
			return nil, nil, votes.ErrSubjectNotFound
		}
		return &rv.Upvotes, &rv.Downvotes, nil
	case votes.KindSuggestion:
		sg, ok := f.suggestions.items[subjectID]
		if !ok {
			return nil, nil, votes.ErrSubjectNotFound
		}
		return &sg.Upvotes, &sg.Downvotes, nil
	default:
		return nil, nil, votes.ErrUnknownKind
	}
}

func (f *fakeVotes) Cast(ctx context.Context, kind votes.SubjectKind, subjectID, voterID int64, polarity votes.Polarity) (*votes.Result, error) {
	up, down, err := f.counters(kind, subjectID)
	if err != nil {
		return nil, err
	}

	bump := func(p votes.Polarity, delta int) {
		target := up
		if p == votes.PolarityDown {
			target = down
		}
		*target += delta
		if *target < 0 {
			*target = 0
		}
	}

	key := voteKey(kind, subjectID, voterID)
	existing, hasVote := f.ledger[key]
	resulting := polarity

	switch {
	case !hasVote:
		f.ledger[key] = polarity
		bump(polarity, 1)
	case existing == polarity:
		delete(f.ledger, key)
		bump(polarity, -1)
		resulting = votes.PolarityNone
	default:
		f.ledger[key] = polarity
		bump(existing, -1)
		bump(polarity, 1)
	}

	return &votes.Result{
		SubjectID:     subjectID,
		Upvotes:       *up,
		Downvotes:     *down,
		VoterPolarity: resulting,
	}, nil
}

func (f *fakeVotes) GetPolarity(ctx context.Context, kind votes.SubjectKind, subjectID, voterID int64) (votes.Polarity, error) {
	if p, ok := f.ledger[voteKey(kind, subjectID, voterID)]; ok {
		return p, nil
	}
	return votes.PolarityNone, nil
}

func (f *fakeVotes) CountByPolarity(ctx context.Context, kind votes.SubjectKind, subjectID int64) (int, int, error) {
	var up, down int
	prefix := fmt.Sprintf("%s/%d/", kind, subjectID)
	for key, p := range f.ledger {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			if p == votes.PolarityUp {
				up++
			} else {
				down++
			}
		}
	}
	return up, down, nil
}

type fakeRestaurants struct {
	items  map[int64]*restaurants.Restaurant
	nextID int64
}

func newFakeRestaurants() *fakeRestaurants {
	return &fakeRestaurants{items: map[int64]*restaurants.Restaurant{}, nextID: 1}
}

func (f *fakeRestaurants) Create(ctx context.Context, r *restaurants.Restaurant) error {
	r.ID = f.nextID
	f.nextID++
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	copied := *r
	f.items[r.ID] = &copied
	return nil
}

func (f *fakeRestaurants) GetByID(ctx context.Context, id int64) (*restaurants.Restaurant, error) {
	r, ok := f.items[id]
	if !ok {
		return nil, restaurants.ErrRestaurantNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRestaurants) GetByIDForUpdate(ctx context.Context, id int64) (*restaurants.Restaurant, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeRestaurants) Update(ctx context.Context, r *restaurants.Restaurant) error {
	if _, ok := f.items[r.ID]; !ok {
		return restaurants.ErrRestaurantNotFound
	}
	copied := *r
	f.items[r.ID] = &copied
	return nil
}

func (f *fakeRestaurants) List(ctx context.Context, filter restaurants.Filter) ([]restaurants.Restaurant, int, error) {
	var out []restaurants.Restaurant
	for _, r := range f.items {
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (f *fakeRestaurants) Delete(ctx context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return restaurants.ErrRestaurantNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeRestaurants) AddPhotoURL(ctx context.Context, id int64, url string) error {
	r, ok := f.items[id]
	if !ok {
		return restaurants.ErrRestaurantNotFound
	}
	r.Photos = append(r.Photos, url)
	return nil
}

func (f *fakeRestaurants) RemovePhotoURL(ctx context.Context, id int64, url string) error {
	r, ok := f.items[id]
	if !ok {
		return restaurants.ErrRestaurantNotFound
	}
	var kept []string
	for _, p := range r.Photos {
		if p != url {
			kept = append(kept, p)
		}
	}
	r.Photos = kept
	return nil
}

type fakeReviews struct {
	items  map[int64]*reviews.Review
	nextID int64
}

func newFakeReviews() *fakeReviews {
	return &fakeReviews{items: map[int64]*reviews.Review{}, nextID: 1}
}

func (f *fakeReviews) Create(ctx context.Context, r *reviews.Review) error {
	r.ID = f.nextID
	f.nextID++
	r.CreatedAt = time.Now()
	f.items[r.ID] = r
	return nil
}

func (f *fakeReviews) GetByID(ctx context.Context, id int64) (*reviews.Review, error) {
	r, ok := f.items[id]
	if !ok {
		return nil, reviews.ErrReviewNotFound
	}
	return r, nil
}

func (f *fakeReviews) ListByRestaurant(ctx context.Context, restaurantID int64, includeHidden bool) ([]reviews.Review, error) {
	var out []reviews.Review
	for _, r := range f.items {
		if r.RestaurantID == restaurantID && (includeHidden || !r.IsHidden) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReviews) Delete(ctx context.Context, id, userID int64) error {
	r, ok := f.items[id]
	if !ok || r.UserID != userID {
		return reviews.ErrReviewNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeReviews) SetHidden(ctx context.Context, id int64, hidden bool) error {
	r, ok := f.items[id]
	if !ok {
		return reviews.ErrReviewNotFound
	}
	r.IsHidden = hidden
	return nil
}

func (f *fakeReviews) Stats(ctx context.Context, restaurantID int64) (int, float64, error) {
	var total int
	var sum float64
	for _, r := range f.items {
		if r.RestaurantID == restaurantID && !r.IsHidden {
			total++
			sum += r.Rating
		}
	}
	if total == 0 {
		return 0, 0, nil
	}
	return total, sum / float64(total), nil
}

type fakeSuggestions struct {
	items  map[int64]*suggestions.Suggestion
	nextID int64
}

func newFakeSuggestions() *fakeSuggestions {
	return &fakeSuggestions{items: map[int64]*suggestions.Suggestion{}, nextID: 1}
}

func (f *fakeSuggestions) Create(ctx context.Context, s *suggestions.Suggestion) error {
	s.ID = f.nextID
	f.nextID++
	s.Status = suggestions.StatusPending
	s.CreatedAt = time.Now()
	f.items[s.ID] = s
	return nil
}

func (f *fakeSuggestions) GetByID(ctx context.Context, id int64) (*suggestions.Suggestion, error) {
	s, ok := f.items[id]
	if !ok {
		return nil, suggestions.ErrSuggestionNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSuggestions) GetByIDForUpdate(ctx context.Context, id int64) (*suggestions.Suggestion, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeSuggestions) List(ctx context.Context, filter suggestions.Filter) ([]suggestions.Suggestion, error) {
	var out []suggestions.Suggestion
	for _, s := range f.items {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeSuggestions) MarkApproved(ctx context.Context, id, resolvedBy int64) error {
	return f.resolve(id, suggestions.StatusApproved, resolvedBy, nil)
}

func (f *fakeSuggestions) MarkRejected(ctx context.Context, id, resolvedBy int64, reason string) error {
	return f.resolve(id, suggestions.StatusRejected, resolvedBy, &reason)
}

func (f *fakeSuggestions) resolve(id int64, status suggestions.Status, resolvedBy int64, reason *string) error {
	s, ok := f.items[id]
	if !ok {
		return suggestions.ErrSuggestionNotFound
	}
	if s.Status != suggestions.StatusPending {
		return suggestions.ErrAlreadyResolved
	}
	now := time.Now()
	s.Status = status
	s.ResolvedBy = &resolvedBy
	s.ResolvedAt = &now
	s.RejectionReason = reason
	return nil
}

type fakeSubmissions struct {
	items  map[int64]*submissions.Submission
	nextID int64
}

func newFakeSubmissions() *fakeSubmissions {
	return &fakeSubmissions{items: map[int64]*submissions.Submission{}, nextID: 1}
}

func (f *fakeSubmissions) Create(ctx context.Context, s *submissions.Submission) error {
	s.ID = f.nextID
	f.nextID++
	s.Status = submissions.StatusPending
	s.SubmittedAt = time.Now()
	f.items[s.ID] = s
	return nil
}

func (f *fakeSubmissions) SetRefCode(ctx context.Context, id int64, code string) error {
	s, ok := f.items[id]
	if !ok {
		return submissions.ErrSubmissionNotFound
	}
	s.RefCode = code
	return nil
}

func (f *fakeSubmissions) GetByID(ctx context.Context, id int64) (*submissions.Submission, error) {
	s, ok := f.items[id]
	if !ok {
		return nil, submissions.ErrSubmissionNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSubmissions) GetByIDForUpdate(ctx context.Context, id int64) (*submissions.Submission, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeSubmissions) List(ctx context.Context, filter submissions.Filter) ([]submissions.Submission, error) {
	var out []submissions.Submission
	for _, s := range f.items {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeSubmissions) MarkResolved(ctx context.Context, id, resolvedBy int64, status submissions.Status, comment *string) error {
	s, ok := f.items[id]
	if !ok {
		return submissions.ErrSubmissionNotFound
	}
	if s.Status.Terminal() {
		return submissions.ErrAlreadyResolved
	}
	now := time.Now()
	s.Status = status
	s.ResolvedBy = &resolvedBy
	s.ResolvedAt = &now
	s.ResolverComment = comment
	return nil
}

type fakeReports struct {
	items  map[int64]*reports.Report
	nextID int64
}

func newFakeReports() *fakeReports {
	return &fakeReports{items: map[int64]*reports.Report{}, nextID: 1}
}

func (f *fakeReports) Create(ctx context.Context, r *reports.Report) error {
	for _, existing := range f.items {
		if existing.ReviewID == r.ReviewID && existing.ReporterID == r.ReporterID && existing.Status == reports.StatusPending {
			return reports.ErrDuplicatePending
		}
	}
	r.ID = f.nextID
	f.nextID++
	r.Status = reports.StatusPending
	r.CreatedAt = time.Now()
	f.items[r.ID] = r
	return nil
}

func (f *fakeReports) GetByID(ctx context.Context, id int64) (*reports.Report, error) {
	r, ok := f.items[id]
	if !ok {
		return nil, reports.ErrReportNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeReports) GetByIDForUpdate(ctx context.Context, id int64) (*reports.Report, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeReports) List(ctx context.Context, filter reports.Filter) ([]reports.Report, error) {
	var out []reports.Report
	for _, r := range f.items {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeReports) MarkResolved(ctx context.Context, id, resolvedBy int64, action string) error {
	r, ok := f.items[id]
	if !ok {
		return reports.ErrReportNotFound
	}
	if r.Status != reports.StatusPending {
		return reports.ErrAlreadyResolved
	}
	now := time.Now()
	r.Status = reports.StatusResolved
	r.ResolvedBy = &resolvedBy
	r.ResolvedAt = &now
	r.Action = &action
	return nil
}

type fakeApplications struct {
	items  map[int64]*applications.Application
	nextID int64
}

func newFakeApplications() *fakeApplications {
	return &fakeApplications{items: map[int64]*applications.Application{}, nextID: 1}
}

func (f *fakeApplications) Create(ctx context.Context, a *applications.Application) error {
	for _, existing := range f.items {
		if existing.UserID == a.UserID && existing.Status == applications.StatusPending {
			return applications.ErrDuplicatePending
		}
	}
	a.ID = f.nextID
	f.nextID++
	a.Status = applications.StatusPending
	a.CreatedAt = time.Now()
	f.items[a.ID] = a
	return nil
}

func (f *fakeApplications) GetByID(ctx context.Context, id int64) (*applications.Application, error) {
	a, ok := f.items[id]
	if !ok {
		return nil, applications.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeApplications) List(ctx context.Context, filter applications.Filter) ([]*applications.Application, error) {
	var out []*applications.Application
	for _, a := range f.items {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeApplications) MarkResolved(ctx context.Context, id int64, status applications.Status, resolvedBy int64) error {
	a, ok := f.items[id]
	if !ok {
		return applications.ErrNotFound
	}
	if a.Status != applications.StatusPending {
		return applications.ErrAlreadyResolved
	}
	now := time.Now()
	a.Status = status
	a.ResolvedBy = &resolvedBy
	a.ResolvedAt = &now
	return nil
}

type fakeAccessControl struct {
	roles map[int64]accesscontrol.RoleName
}

func newFakeAccessControl() *fakeAccessControl {
	return &fakeAccessControl{roles: map[int64]accesscontrol.RoleName{}}
}

func (f *fakeAccessControl) SetUserRole(ctx context.Context, userID int64, role accesscontrol.RoleName) error {
	f.roles[userID] = role
	return nil
}

func (f *fakeAccessControl) GetUserRole(ctx context.Context, userID int64) (accesscontrol.RoleName, error) {
	if role, ok := f.roles[userID]; ok {
		return role, nil
	}
	return accesscontrol.RoleMember, nil
}

func (f *fakeAccessControl) UserHasRole(ctx context.Context, userID int64, min accesscontrol.RoleName) (bool, error) {
	role, _ := f.GetUserRole(ctx, userID)
	return role.AtLeast(min), nil
}

// env bundles the fakes behind a Service for tests.
type env struct {
	service      *Service
	restaurants  *fakeRestaurants
	reviews      *fakeReviews
	suggestions  *fakeSuggestions
	submissions  *fakeSubmissions
	reports      *fakeReports
	applications *fakeApplications
	votes        *fakeVotes
	access       *fakeAccessControl
}

func newEnv() *env {
	fr := newFakeRestaurants()
	frev := newFakeReviews()
	fs := newFakeSuggestions()
	fsub := newFakeSubmissions()
	frep := newFakeReports()
	fapp := newFakeApplications()
	fac := newFakeAccessControl()
	fv := newFakeVotes(frev, fs)

	runner := &fakeRunner{tx: &storage.ModerationTx{
		Restaurants:   fr,
		Reviews:       frev,
		Suggestions:   fs,
		Submissions:   fsub,
		Reports:       frep,
		Votes:         fv,
		Applications:  fapp,
		AccessControl: fac,
	}}

	refCodes, err := submissions.NewRefCodeGenerator("test-salt")
	if err != nil {
		panic(err)
	}

	return &env{
		service:      NewService(runner, refCodes, testLogger()),
		restaurants:  fr,
		reviews:      frev,
		suggestions:  fs,
		submissions:  fsub,
		reports:      frep,
		applications: fapp,
		votes:        fv,
		access:       fac,
	}
}

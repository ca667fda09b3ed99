package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"prato/internal/domain/submissions"
	"prato/internal/params"

	"github.com/go-chi/chi/v5"
)

func (app *application) submissionIDFromURL(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "submissionID"), 10, 64)
}

// createSubmissionHandler godoc
//
//	@Summary		Submit a new restaurant
//	@Description	Anyone may submit; authenticated submitters are recorded. The payload is held verbatim until a reviewer approves it into the catalog.
//	@Tags			submissions
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		submissions.Payload	true	"Proposed restaurant"
//	@Success		201		{object}	submissions.Submission
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/submissions [post]
func (app *application) createSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := readJSON(w, r, &raw); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload submissions.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// The route is public; a valid bearer token attributes the
	// submission, anything else submits anonymously.
	identity := app.identityFromRequest(r)

	submission, err := app.service.CreateSubmission(r.Context(), identity, raw)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, submission); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listSubmissionsHandler godoc
//
//	@Summary		List submissions
//	@Description	Reviewer queue; defaults to pending submissions.
//	@Tags			submissions
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status (default pending)"
//	@Success		200		{array}		submissions.Submission
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/submissions [get]
func (app *application) listSubmissionsHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())

	status := submissions.StatusPending
	if s := r.URL.Query().Get("status"); s != "" {
		status = submissions.Status(s)
	}

	list, err := app.store.Submissions.List(r.Context(), submissions.Filter{
		Status: &status,
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getSubmissionHandler godoc
//
//	@Summary		Get one submission
//	@Tags			submissions
//	@Produce		json
//	@Param			submissionID	path		int	true	"Submission ID"
//	@Success		200				{object}	submissions.Submission
//	@Failure		404				{object}	error
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/submissions/{submissionID} [get]
func (app *application) getSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	submissionID, err := app.submissionIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid submission ID"))
		return
	}

	submission, err := app.store.Submissions.GetByID(r.Context(), submissionID)
	if err != nil {
		switch {
		case errors.Is(err, submissions.ErrSubmissionNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, submission); err != nil {
		app.internalServerError(w, r, err)
	}
}

type resolveSubmissionPayload struct {
	Decision string  `json:"decision" validate:"required,oneof=approved rejected needs_changes"`
	Comment  *string `json:"comment" validate:"omitempty,max=500"`
}

// resolveSubmissionHandler godoc
//
//	@Summary		Resolve a submission
//	@Description	Approval creates the restaurant from the stored payload in the same transaction. needs_changes is not terminal.
//	@Tags			submissions
//	@Accept			json
//	@Produce		json
//	@Param			submissionID	path		int							true	"Submission ID"
//	@Param			payload			body		resolveSubmissionPayload	true	"Decision"
//	@Success		200				{object}	submissions.Submission
//	@Failure		400				{object}	ErrorBadRequestResponse
//	@Failure		404				{object}	error
//	@Failure		409				{object}	error	"Already resolved"
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/submissions/{submissionID}/resolve [post]
func (app *application) resolveSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	submissionID, err := app.submissionIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid submission ID"))
		return
	}

	var payload resolveSubmissionPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	identity := getIdentityFromContext(r)

	submission, err := app.service.ResolveSubmission(r.Context(), identity, submissionID, submissions.Status(payload.Decision), payload.Comment)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, submission); err != nil {
		app.internalServerError(w, r, err)
	}
}

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"prato/internal/domain/suggestions"
	"prato/internal/moderation"
	"prato/internal/params"

	"github.com/go-chi/chi/v5"
)

func (app *application) suggestionIDFromURL(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "suggestionID"), 10, 64)
}

type createSuggestionPayload struct {
	Changes   json.RawMessage `json:"changes" validate:"required"`
	Rationale string          `json:"rationale" validate:"max=500"`
}

// createSuggestionHandler godoc
//
//	@Summary		Propose an edit to a restaurant
//	@Description	Changes map field names to either a raw value or a {from,to} pair. The diff is applied only when a reviewer approves.
//	@Tags			edit-suggestions
//	@Accept			json
//	@Produce		json
//	@Param			restaurantID	path		int						true	"Restaurant ID"
//	@Param			payload			body		createSuggestionPayload	true	"Proposed changes"
//	@Success		201				{object}	suggestions.Suggestion
//	@Failure		400				{object}	ErrorBadRequestResponse
//	@Failure		404				{object}	error
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/restaurants/{restaurantID}/suggestions [post]
func (app *application) createSuggestionHandler(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := app.restaurantIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid restaurant ID"))
		return
	}

	var payload createSuggestionPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	identity := getIdentityFromContext(r)

	suggestion, err := app.service.CreateSuggestion(r.Context(), identity, restaurantID, payload.Changes, payload.Rationale)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, suggestion); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listRestaurantSuggestionsHandler godoc
//
//	@Summary		List edit suggestions for a restaurant
//	@Tags			edit-suggestions
//	@Produce		json
//	@Param			restaurantID	path		int		true	"Restaurant ID"
//	@Param			status			query		string	false	"Filter by status"
//	@Success		200				{array}		suggestions.Suggestion
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Router			/restaurants/{restaurantID}/suggestions [get]
func (app *application) listRestaurantSuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := app.restaurantIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid restaurant ID"))
		return
	}

	p := params.ParsePagination(r.URL.Query())
	filter := suggestions.Filter{
		RestaurantID: &restaurantID,
		Page:         p.Page,
		Limit:        p.Limit,
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := suggestions.Status(status)
		filter.Status = &s
	}

	list, err := app.store.Suggestions.List(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listSuggestionsHandler godoc
//
//	@Summary		List edit suggestions across restaurants
//	@Description	Reviewer queue; defaults to pending suggestions.
//	@Tags			edit-suggestions
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status (default pending)"
//	@Success		200		{array}		suggestions.Suggestion
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/edit-suggestions [get]
func (app *application) listSuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())

	status := suggestions.StatusPending
	if s := r.URL.Query().Get("status"); s != "" {
		status = suggestions.Status(s)
	}

	list, err := app.store.Suggestions.List(r.Context(), suggestions.Filter{
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

// approveSuggestionHandler godoc
//
//	@Summary		Approve an edit suggestion
//	@Description	Applies the stored diff to the restaurant and marks the suggestion approved in one transaction. A coercion failure leaves everything untouched.
//	@Tags			edit-suggestions
//	@Produce		json
//	@Param			suggestionID	path		int	true	"Suggestion ID"
//	@Success		200				{object}	suggestions.Suggestion
//	@Failure		404				{object}	error
//	@Failure		409				{object}	error	"Already resolved"
//	@Failure		422				{object}	error	"Diff could not be applied"
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/edit-suggestions/{suggestionID}/approve [post]
func (app *application) approveSuggestionHandler(w http.ResponseWriter, r *http.Request) {
	suggestionID, err := app.suggestionIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid suggestion ID"))
		return
	}

	identity := getIdentityFromContext(r)

	suggestion, err := app.service.ResolveSuggestion(r.Context(), identity, suggestionID, moderation.DecisionApprove, "")
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, suggestion); err != nil {
		app.internalServerError(w, r, err)
	}
}

type rejectSuggestionPayload struct {
	Reason string `json:"reason" validate:"max=500"`
}

// rejectSuggestionHandler godoc
//
//	@Summary		Reject an edit suggestion
//	@Tags			edit-suggestions
//	@Accept			json
//	@Produce		json
//	@Param			suggestionID	path		int							true	"Suggestion ID"
//	@Param			payload			body		rejectSuggestionPayload		false	"Rejection reason"
//	@Success		200				{object}	suggestions.Suggestion
//	@Failure		404				{object}	error
//	@Failure		409				{object}	error	"Already resolved"
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/edit-suggestions/{suggestionID}/reject [post]
func (app *application) rejectSuggestionHandler(w http.ResponseWriter, r *http.Request) {
	suggestionID, err := app.suggestionIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid suggestion ID"))
		return
	}

	var payload rejectSuggestionPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	identity := getIdentityFromContext(r)

	suggestion, err := app.service.ResolveSuggestion(r.Context(), identity, suggestionID, moderation.DecisionReject, payload.Reason)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, suggestion); err != nil {
		app.internalServerError(w, r, err)
	}
}

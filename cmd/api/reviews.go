package main

import (
	"errors"
	"net/http"
	"strconv"

	"prato/internal/domain/reviews"
	"prato/internal/domain/votes"

	"github.com/go-chi/chi/v5"
)

func (app *application) reviewIDFromURL(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
}

type createReviewPayload struct {
	Rating  float64 `json:"rating" validate:"required,min=1,max=5"`
	Comment string  `json:"comment" validate:"required,max=500"`
}

// createReviewHandler godoc
//
//	@Summary		Create a review
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			restaurantID	path		int					true	"Restaurant ID"
//	@Param			payload			body		createReviewPayload	true	"Review body"
//	@Success		201				{object}	reviews.Review
//	@Failure		400				{object}	ErrorBadRequestResponse
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/restaurants/{restaurantID}/reviews [post]
func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := app.restaurantIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid restaurant ID"))
		return
	}

	var payload createReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	identity := getIdentityFromContext(r)

	review := &reviews.Review{
		RestaurantID: restaurantID,
		UserID:       identity.UserID,
		Rating:       payload.Rating,
		Comment:      payload.Comment,
	}

	if err := app.store.Reviews.Create(r.Context(), review); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, review)
}

// deleteReviewHandler godoc
//
//	@Summary		Delete own review
//	@Tags			reviews
//	@Param			reviewID	path		int		true	"Review ID"
//	@Success		204			{string}	string	"No Content"
//	@Failure		404			{object}	error
//	@Failure		500			{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID} [delete]
func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := app.reviewIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}

	identity := getIdentityFromContext(r)

	if err := app.store.Reviews.Delete(r.Context(), reviewID, identity.UserID); err != nil {
		switch {
		case errors.Is(err, reviews.ErrReviewNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type votePayload struct {
	Polarity string `json:"polarity" validate:"required,oneof=up down"`
}

// voteReviewHandler godoc
//
//	@Summary		Vote on a review
//	@Description	Toggle protocol: a repeat of the same polarity retracts the vote, the opposite polarity switches it.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		int			true	"Review ID"
//	@Param			payload		body		votePayload	true	"Vote polarity"
//	@Success		200			{object}	votes.Result
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		404			{object}	error
//	@Failure		500			{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/vote [post]
func (app *application) voteReviewHandler(w http.ResponseWriter, r *http.Request) {
	app.voteHandler(w, r, votes.KindReview, "reviewID")
}

// voteSuggestionHandler godoc
//
//	@Summary		Vote on an edit suggestion
//	@Tags			edit-suggestions
//	@Accept			json
//	@Produce		json
//	@Param			suggestionID	path		int			true	"Suggestion ID"
//	@Param			payload			body		votePayload	true	"Vote polarity"
//	@Success		200				{object}	votes.Result
//	@Failure		400				{object}	ErrorBadRequestResponse
//	@Failure		404				{object}	error
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/edit-suggestions/{suggestionID}/vote [post]
func (app *application) voteSuggestionHandler(w http.ResponseWriter, r *http.Request) {
	app.voteHandler(w, r, votes.KindSuggestion, "suggestionID")
}

// voteHandler is shared by both votable kinds; only the subject lookup
// differs.
func (app *application) voteHandler(w http.ResponseWriter, r *http.Request, kind votes.SubjectKind, urlParam string) {
	subjectID, err := strconv.ParseInt(chi.URLParam(r, urlParam), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid subject ID"))
		return
	}

	var payload votePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	identity := getIdentityFromContext(r)

	result, err := app.service.CastVote(r.Context(), identity, kind, subjectID, votes.Polarity(payload.Polarity))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, result); err != nil {
		app.internalServerError(w, r, err)
	}
}

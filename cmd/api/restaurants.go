package main

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"prato/internal/domain/restaurants"
	"prato/internal/domain/reviews"
	"prato/internal/domain/votes"
	"prato/internal/params"

	"github.com/go-chi/chi/v5"
)

func (app *application) restaurantIDFromURL(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "restaurantID"), 10, 64)
}

// listRestaurantsHandler godoc
//
//	@Summary		List approved restaurants
//	@Description	Browse the catalog with optional city, district and food type filters.
//	@Tags			restaurants
//	@Produce		json
//	@Param			city		query		string	false	"Filter by city"
//	@Param			district	query		string	false	"Filter by district"
//	@Param			food_type	query		string	false	"Filter by food type"
//	@Param			page		query		int		false	"Page number"
//	@Param			limit		query		int		false	"Items per page (max 30)"
//	@Success		200			{object}	map[string]any
//	@Failure		500			{object}	ErrorInternalServerResponse
//	@Router			/restaurants [get]
func (app *application) listRestaurantsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	filter := restaurants.Filter{
		Page:  p.Page,
		Limit: p.Limit,
	}
	if city := q.Get("city"); city != "" {
		filter.City = &city
	}
	if district := q.Get("district"); district != "" {
		filter.District = &district
	}
	if foodType := q.Get("food_type"); foodType != "" {
		filter.FoodType = &foodType
	}

	list, total, err := app.store.Restaurants.List(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	response := map[string]any{
		"restaurants": list,
		"pagination":  p,
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getRestaurantHandler godoc
//
//	@Summary		Get one restaurant
//	@Tags			restaurants
//	@Produce		json
//	@Param			restaurantID	path		int	true	"Restaurant ID"
//	@Success		200				{object}	restaurants.Restaurant
//	@Failure		404				{object}	error
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Router			/restaurants/{restaurantID} [get]
func (app *application) getRestaurantHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.restaurantIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid restaurant ID"))
		return
	}

	restaurant, err := app.store.Restaurants.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, restaurants.ErrRestaurantNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, restaurant); err != nil {
		app.internalServerError(w, r, err)
	}
}

type reviewWithPolarity struct {
	reviews.Review
	MyVote votes.Polarity `json:"my_vote"`
}

// getRestaurantReviewsHandler godoc
//
//	@Summary		List a restaurant's reviews
//	@Description	Returns visible reviews plus the aggregate rating. With a bearer token, each review carries the caller's current vote polarity.
//	@Tags			reviews
//	@Produce		json
//	@Param			restaurantID	path		int	true	"Restaurant ID"
//	@Success		200				{object}	map[string]any
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Router			/restaurants/{restaurantID}/reviews [get]
func (app *application) getRestaurantReviewsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.restaurantIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid restaurant ID"))
		return
	}

	list, err := app.store.Reviews.ListByRestaurant(r.Context(), id, false)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	total, average, err := app.store.Reviews.Stats(r.Context(), id)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	identity := app.identityFromRequest(r)
	out := make([]reviewWithPolarity, 0, len(list))
	for _, rv := range list {
		entry := reviewWithPolarity{Review: rv, MyVote: votes.PolarityNone}
		if identity.Authenticated() {
			if p, err := app.store.Votes.GetPolarity(r.Context(), votes.KindReview, rv.ID, identity.UserID); err == nil {
				entry.MyVote = p
			}
		}
		out = append(out, entry)
	}

	response := map[string]any{
		"reviews":       out,
		"total_reviews": total,
		"average":       math.Round(average*10) / 10,
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteRestaurantHandler godoc
//
//	@Summary		Delete a restaurant
//	@Description	Admin only. Removes the restaurant and its reviews, suggestions and photos.
//	@Tags			restaurants
//	@Param			restaurantID	path		int		true	"Restaurant ID"
//	@Success		204				{string}	string	"No Content"
//	@Failure		403				{object}	error
//	@Failure		404				{object}	error
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/restaurants/{restaurantID} [delete]
func (app *application) deleteRestaurantHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.restaurantIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid restaurant ID"))
		return
	}

	if err := app.store.Restaurants.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, restaurants.ErrRestaurantNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

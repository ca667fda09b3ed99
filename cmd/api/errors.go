package main

import (
	"errors"
	"net/http"

	"prato/internal/diffapply"
	"prato/internal/moderation"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, "not found")
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("conflict response", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusConflict, err.Error())
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request) {
	app.logger.Warnw("forbidden", "method", r.Method, "path", r.URL.Path)

	writeJSONError(w, http.StatusForbidden, "forbidden")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", retryAfter)
	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter)
}

// serviceErrorResponse maps the moderation service's error kinds onto
// HTTP status codes. Apply failures surface as 422 with the offending
// field in the message so a human can fix or reject the suggestion.
func (app *application) serviceErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var applyErr *diffapply.ApplyError

	switch {
	case errors.Is(err, moderation.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, moderation.ErrUnauthorized):
		app.unauthorizedErrorResponse(w, r, err)
	case errors.Is(err, moderation.ErrForbidden):
		app.forbiddenResponse(w, r)
	case errors.Is(err, moderation.ErrConflict):
		app.conflictResponse(w, r, err)
	case errors.Is(err, moderation.ErrInvalidInput):
		app.badRequestResponse(w, r, err)
	case errors.As(err, &applyErr):
		app.logger.Warnw("diff apply failed", "method", r.Method, "path", r.URL.Path, "field", applyErr.Field, "error", err.Error())
		writeJSONError(w, http.StatusUnprocessableEntity, applyErr.Error())
	default:
		app.internalServerError(w, r, err)
	}
}

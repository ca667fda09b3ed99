package main

import (
	"errors"
	"net/http"
	"strconv"

	"prato/internal/domain/applications"
	"prato/internal/mailer"
	"prato/internal/params"

	"github.com/go-chi/chi/v5"
)

type applyForReviewerPayload struct {
	Motivation string `json:"motivation" validate:"required,max=1000"`
}

// applyForReviewerHandler godoc
//
//	@Summary		Apply for the reviewer role
//	@Tags			reviewer-applications
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		applyForReviewerPayload	true	"Motivation"
//	@Success		201		{object}	applications.Application
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		409		{object}	error	"A pending application already exists"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/reviewer-applications [post]
func (app *application) applyForReviewerHandler(w http.ResponseWriter, r *http.Request) {
	var payload applyForReviewerPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	identity := getIdentityFromContext(r)

	application, err := app.service.ApplyForReviewer(r.Context(), identity, payload.Motivation)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, application); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listApplicationsHandler godoc
//
//	@Summary		List reviewer applications
//	@Description	Admin queue; defaults to pending applications.
//	@Tags			reviewer-applications
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status (default pending)"
//	@Success		200		{array}		applications.Application
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/reviewer-applications [get]
func (app *application) listApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())

	status := r.URL.Query().Get("status")
	if status == "" {
		status = string(applications.StatusPending)
	}

	list, err := app.store.Applications.List(r.Context(), applications.Filter{
		Status: status,
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

type resolveApplicationPayload struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
}

// resolveApplicationHandler godoc
//
//	@Summary		Resolve a reviewer application
//	@Description	Admin only. Approval grants the reviewer role in the same transaction; the applicant is emailed either way.
//	@Tags			reviewer-applications
//	@Accept			json
//	@Produce		json
//	@Param			applicationID	path		int							true	"Application ID"
//	@Param			payload			body		resolveApplicationPayload	true	"Decision"
//	@Success		200				{object}	applications.Application
//	@Failure		400				{object}	ErrorBadRequestResponse
//	@Failure		404				{object}	error
//	@Failure		409				{object}	error	"Already resolved"
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/reviewer-applications/{applicationID}/resolve [post]
func (app *application) resolveApplicationHandler(w http.ResponseWriter, r *http.Request) {
	applicationID, err := strconv.ParseInt(chi.URLParam(r, "applicationID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid application ID"))
		return
	}

	var payload resolveApplicationPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	identity := getIdentityFromContext(r)

	application, err := app.service.ResolveApplication(r.Context(), identity, applicationID, applications.Status(payload.Decision))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	// Best effort notification; the decision already committed.
	if applicant, err := app.store.Users.GetByID(r.Context(), application.UserID); err == nil {
		vars := struct {
			Username string
			Decision string
		}{
			Username: applicant.DisplayName,
			Decision: string(application.Status),
		}
		if _, err := app.mailer.Send(mailer.ApplicationDecisionTmpl, applicant.DisplayName, applicant.Email, vars); err != nil {
			app.logger.Errorw("error sending application decision email", "error", err)
		}
	}

	if err := app.jsonResponse(w, http.StatusOK, application); err != nil {
		app.internalServerError(w, r, err)
	}
}

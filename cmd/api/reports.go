package main

import (
	"errors"
	"net/http"
	"strconv"

	"prato/internal/domain/reports"
	"prato/internal/params"

	"github.com/go-chi/chi/v5"
)

type createReportPayload struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// createReportHandler godoc
//
//	@Summary		Report a review
//	@Description	At most one pending report per reporter per review; a new report is allowed once the earlier one resolves.
//	@Tags			reports
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		int					true	"Review ID"
//	@Param			payload		body		createReportPayload	true	"Report reason"
//	@Success		201			{object}	reports.Report
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		404			{object}	error
//	@Failure		409			{object}	error	"Duplicate pending report"
//	@Failure		500			{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/report [post]
func (app *application) createReportHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := app.reviewIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}

	var payload createReportPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	identity := getIdentityFromContext(r)

	report, err := app.service.CreateReport(r.Context(), identity, reviewID, payload.Reason)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, report); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listReportsHandler godoc
//
//	@Summary		List reports
//	@Description	Reviewer queue; defaults to pending reports.
//	@Tags			reports
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status (default pending)"
//	@Success		200		{array}		reports.Report
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/reports [get]
func (app *application) listReportsHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())

	status := reports.StatusPending
	if s := r.URL.Query().Get("status"); s != "" {
		status = reports.Status(s)
	}

	list, err := app.store.Reports.List(r.Context(), reports.Filter{
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

type resolveReportPayload struct {
	Action string `json:"action" validate:"required,max=100"`
}

// resolveReportHandler godoc
//
//	@Summary		Resolve a report
//	@Description	Free-text action annotation; review_hidden additionally hides the reported review in the same transaction.
//	@Tags			reports
//	@Accept			json
//	@Produce		json
//	@Param			reportID	path		int						true	"Report ID"
//	@Param			payload		body		resolveReportPayload	true	"Resolution action"
//	@Success		200			{object}	reports.Report
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		404			{object}	error
//	@Failure		409			{object}	error	"Already resolved"
//	@Failure		500			{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/reports/{reportID}/resolve [post]
func (app *application) resolveReportHandler(w http.ResponseWriter, r *http.Request) {
	reportID, err := strconv.ParseInt(chi.URLParam(r, "reportID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid report ID"))
		return
	}

	var payload resolveReportPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	identity := getIdentityFromContext(r)

	report, err := app.service.ResolveReport(r.Context(), identity, reportID, payload.Action)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, report); err != nil {
		app.internalServerError(w, r, err)
	}
}

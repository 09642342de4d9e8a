package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reportello/reportello-backend/api/middleware"
	"github.com/reportello/reportello-backend/api/responses"
	"github.com/reportello/reportello-backend/api/validators"
	"github.com/reportello/reportello-backend/internal/export"
	"github.com/reportello/reportello-backend/internal/reports"
	pkgAuth "github.com/reportello/reportello-backend/pkg/auth"
	pkgerrors "github.com/reportello/reportello-backend/pkg/errors"
	"github.com/reportello/reportello-backend/pkg/logger"
)

type createReportRequest struct {
	Date string `json:"date" validate:"required"`
	Text string `json:"text"`
}

type updateReportRequest struct {
	Date *string `json:"date,omitempty"`
	Text *string `json:"text,omitempty"`
}

type composeVisitRequest struct {
	Text string `json:"text"`
}

type composeDateRequest struct {
	Text string `json:"text"`
	Date string `json:"date" validate:"required"`
}

type composedTextResponse struct {
	Text string `json:"text"`
}

type exportDraftRequest struct {
	Date string `json:"date" validate:"required"`
	Text string `json:"text"`
}

// actorFromRequest rebuilds the scoping identity seeded by the auth middleware.
func actorFromRequest(r *http.Request) (reports.Actor, error) {
	id, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return reports.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return reports.Actor{
		UserID:   id,
		IsMaster: middleware.RoleFromContext(r.Context()) == string(pkgAuth.RoleMaster),
	}, nil
}

// ReportsList returns the actor-visible reports. Masters may narrow by
// user_id; everyone may bound by from/to dates.
func ReportsList(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := reports.ListQuery{}
		if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user_id must be a valid UUID"))
				return
			}
			query.UserID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
			query.From = &raw
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
			query.To = &raw
		}

		result, err := svc.List(r.Context(), actor, query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ReportsGet(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := reportIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ReportsCreate(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createReportRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), actor, reports.CreateReportInput{
			Date: body.Date,
			Text: body.Text,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func ReportsUpdate(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := reportIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateReportRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Update(r.Context(), actor, id, reports.UpdateReportDTO{
			Date: body.Date,
			Text: body.Text,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ReportsDelete(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := reportIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ReportsTemplate seeds an empty report body for the requested date.
func ReportsTemplate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := strings.TrimSpace(r.URL.Query().Get("date"))
		if date == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date query parameter is required"))
			return
		}

		text, err := reports.TemplateBody(date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, composedTextResponse{Text: text})
	}
}

// ReportsComposeVisit appends the next numbered visit block to the text.
func ReportsComposeVisit(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body composeVisitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, composedTextResponse{Text: reports.AddVisit(body.Text)})
	}
}

// ReportsComposeDate rewrites the header line for a new date.
func ReportsComposeDate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body composeDateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		text, err := reports.RewriteHeader(body.Text, body.Date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, composedTextResponse{Text: text})
	}
}

// ReportsExportDraft renders an unsaved editor body as a .doc download.
func ReportsExportDraft(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body exportDraftRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := export.Doc(body.Date, body.Text)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteFile(w, doc.ContentType, doc.Filename, doc.Body)
	}
}

// ReportsExport streams the report as a Word-compatible .doc download.
func ReportsExport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := reportIDFromURL(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := export.Doc(report.Date, report.Text)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteFile(w, doc.ContentType, doc.Filename, doc.Body)
	}
}

func reportIDFromURL(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "reportID"))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "report id must be a valid UUID")
	}
	return id, nil
}

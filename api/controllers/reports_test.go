package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reportello/reportello-backend/api/middleware"
	"github.com/reportello/reportello-backend/internal/reports"
	pkgAuth "github.com/reportello/reportello-backend/pkg/auth"
	pkgerrors "github.com/reportello/reportello-backend/pkg/errors"
)

type stubReportService struct {
	report  *reports.ReportDTO
	list    []*reports.ReportDTO
	err     error
	actor   reports.Actor
	query   reports.ListQuery
	deleted uuid.UUID
}

func (s *stubReportService) List(ctx context.Context, actor reports.Actor, query reports.ListQuery) ([]*reports.ReportDTO, error) {
	s.actor = actor
	s.query = query
	return s.list, s.err
}

func (s *stubReportService) Get(ctx context.Context, actor reports.Actor, id uuid.UUID) (*reports.ReportDTO, error) {
	s.actor = actor
	return s.report, s.err
}

func (s *stubReportService) Create(ctx context.Context, actor reports.Actor, input reports.CreateReportInput) (*reports.ReportDTO, error) {
	s.actor = actor
	return s.report, s.err
}

func (s *stubReportService) Update(ctx context.Context, actor reports.Actor, id uuid.UUID, dto reports.UpdateReportDTO) (*reports.ReportDTO, error) {
	s.actor = actor
	return s.report, s.err
}

func (s *stubReportService) Delete(ctx context.Context, actor reports.Actor, id uuid.UUID) error {
	s.actor = actor
	s.deleted = id
	return s.err
}

func authedRequest(method, target string, body []byte, userID uuid.UUID, role pkgAuth.Role) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func TestReportsListForwardsActorAndQuery(t *testing.T) {
	userID := uuid.New()
	target := uuid.New()
	svc := &stubReportService{list: []*reports.ReportDTO{}}

	handler := ReportsList(svc, nil)
	req := authedRequest(http.MethodGet, "/api/v1/reports?user_id="+target.String()+"&from=2024-01-01&to=2024-12-31", nil, userID, pkgAuth.RoleMaster)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.actor.IsMaster || svc.actor.UserID != userID {
		t.Fatalf("expected master actor %s got %+v", userID, svc.actor)
	}
	if svc.query.UserID == nil || *svc.query.UserID != target {
		t.Fatalf("expected user_id filter forwarded got %+v", svc.query.UserID)
	}
	if svc.query.From == nil || *svc.query.From != "2024-01-01" {
		t.Fatalf("expected from bound forwarded got %+v", svc.query.From)
	}
}

func TestReportsListRejectsMalformedUserID(t *testing.T) {
	handler := ReportsList(&stubReportService{}, nil)
	req := authedRequest(http.MethodGet, "/api/v1/reports?user_id=not-a-uuid", nil, uuid.New(), pkgAuth.RoleUser)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestReportsListUnauthenticatedContext(t *testing.T) {
	handler := ReportsList(&stubReportService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestReportsCreateReturns201(t *testing.T) {
	userID := uuid.New()
	svc := &stubReportService{report: &reports.ReportDTO{
		ID:     uuid.New(),
		Date:   "2024-03-10",
		Text:   "Report del 10 marzo 2024",
		UserID: userID,
	}}

	handler := ReportsCreate(svc, nil)
	req := authedRequest(http.MethodPost, "/api/v1/reports", []byte(`{"date":"2024-03-10","text":"Report del 10 marzo 2024"}`), userID, pkgAuth.RoleUser)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.actor.IsMaster {
		t.Fatal("expected plain user actor")
	}
}

func TestReportsGetNotFound(t *testing.T) {
	svc := &stubReportService{err: pkgerrors.New(pkgerrors.CodeNotFound, "report not found")}
	handler := ReportsGet(svc, nil)

	reportID := uuid.New()
	req := authedRequest(http.MethodGet, "/api/v1/reports/"+reportID.String(), nil, uuid.New(), pkgAuth.RoleUser)
	req = withURLParam(req, "reportID", reportID.String())
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestReportsDeleteForwardsID(t *testing.T) {
	svc := &stubReportService{}
	handler := ReportsDelete(svc, nil)

	reportID := uuid.New()
	req := authedRequest(http.MethodDelete, "/api/v1/reports/"+reportID.String(), nil, uuid.New(), pkgAuth.RoleUser)
	req = withURLParam(req, "reportID", reportID.String())
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.deleted != reportID {
		t.Fatalf("expected delete on %s got %s", reportID, svc.deleted)
	}
}

func TestReportsTemplateSeedsBody(t *testing.T) {
	handler := ReportsTemplate(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/template?date=2024-03-10", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data composedTextResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(envelope.Data.Text, "Report del 10 marzo 2024") {
		t.Fatalf("expected seeded header got %q", envelope.Data.Text)
	}
	if !strings.Contains(envelope.Data.Text, "Visita n°1:") {
		t.Fatalf("expected first visit block got %q", envelope.Data.Text)
	}
}

func TestReportsTemplateRequiresDate(t *testing.T) {
	handler := ReportsTemplate(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/template", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestReportsComposeVisitAppendsBlock(t *testing.T) {
	handler := ReportsComposeVisit(nil)
	body := `{"text":"Report del 10 marzo 2024\n\nVisita n°1: sala colloqui"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/compose/visit", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data composedTextResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(envelope.Data.Text, "Visita n°2:") {
		t.Fatalf("expected second visit block got %q", envelope.Data.Text)
	}
}

func TestReportsExportDraftStreamsDoc(t *testing.T) {
	handler := ReportsExportDraft(nil)
	body := `{"date":"2024-03-10","text":"Report del 10 marzo 2024"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/export", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Disposition"); !strings.Contains(got, "Report 10-03-2024.doc") {
		t.Fatalf("expected attachment filename got %s", got)
	}
}

func TestReportsExportDraftRejectsBadDate(t *testing.T) {
	handler := ReportsExportDraft(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/export", bytes.NewReader([]byte(`{"date":"10-03-2024"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestReportsExportStreamsDoc(t *testing.T) {
	userID := uuid.New()
	svc := &stubReportService{report: &reports.ReportDTO{
		ID:     uuid.New(),
		Date:   "2024-03-09",
		Text:   "Report del 9 marzo 2024\n\nVisita n°1: ufficio",
		UserID: userID,
	}}
	handler := ReportsExport(svc, nil)

	req := authedRequest(http.MethodGet, "/api/v1/reports/"+svc.report.ID.String()+"/export", nil, userID, pkgAuth.RoleUser)
	req = withURLParam(req, "reportID", svc.report.ID.String())
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Type"); got != "application/msword" {
		t.Fatalf("expected msword content type got %s", got)
	}
	if got := resp.Header().Get("Content-Disposition"); !strings.Contains(got, "Report 09-03-2024.doc") {
		t.Fatalf("expected attachment filename got %s", got)
	}
	if !strings.Contains(resp.Body.String(), "urn:schemas-microsoft-com:office:word") {
		t.Fatal("expected word namespace in exported body")
	}
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

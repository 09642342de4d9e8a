package reports

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reportello/reportello-backend/pkg/db/models"
	pkgerrors "github.com/reportello/reportello-backend/pkg/errors"
)

type stubRepo struct {
	rows       map[uuid.UUID]*models.Report
	listFilter *ListFilter
	listErr    error
	deleted    []uuid.UUID
}

func newStubRepo(seed ...*models.Report) *stubRepo {
	repo := &stubRepo{rows: map[uuid.UUID]*models.Report{}}
	for _, r := range seed {
		repo.rows[r.ID] = r
	}
	return repo
}

func (s *stubRepo) Create(ctx context.Context, dto CreateReportDTO) (*models.Report, error) {
	report := dto.ToModel()
	report.ID = uuid.New()
	s.rows[report.ID] = report
	return report, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	if r, ok := s.rows[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) List(ctx context.Context, filter ListFilter) ([]models.Report, error) {
	s.listFilter = &filter
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []models.Report{}
	for _, r := range s.rows {
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *stubRepo) Update(ctx context.Context, id uuid.UUID, dto UpdateReportDTO) (*models.Report, error) {
	r, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if dto.Date != nil {
		r.Date = *dto.Date
	}
	if dto.Text != nil {
		r.Text = *dto.Text
	}
	return r, nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.deleted = append(s.deleted, id)
	delete(s.rows, id)
	return nil
}

func newTestService(t *testing.T, repo repository) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func report(owner uuid.UUID, date string) *models.Report {
	return &models.Report{ID: uuid.New(), Date: date, Text: "testo", UserID: owner}
}

func TestListScopesPlainUserToOwnReports(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	repo := newStubRepo(report(owner, "2024-03-10"), report(other, "2024-03-11"))
	svc := newTestService(t, repo)

	out, err := svc.List(context.Background(), Actor{UserID: owner}, ListQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].UserID != owner {
		t.Fatalf("expected only the actor's report, got %d rows", len(out))
	}

	// A plain user cannot widen the filter to someone else.
	if repo.listFilter.UserID == nil || *repo.listFilter.UserID != owner {
		t.Fatal("repository filter must pin the actor's id")
	}
}

func TestListMasterSeesAllAndMayFilter(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	repo := newStubRepo(report(owner, "2024-03-10"), report(other, "2024-03-11"))
	svc := newTestService(t, repo)

	out, err := svc.List(context.Background(), Actor{UserID: uuid.New(), IsMaster: true}, ListQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("master should see every report, got %d", len(out))
	}

	out, err = svc.List(context.Background(), Actor{UserID: uuid.New(), IsMaster: true}, ListQuery{UserID: &other})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].UserID != other {
		t.Fatal("master filter by user_id should narrow the listing")
	}
}

func TestListDegradesToEmptyOnStorageError(t *testing.T) {
	repo := newStubRepo()
	repo.listErr = errors.New("connection refused")
	svc := newTestService(t, repo)

	out, err := svc.List(context.Background(), Actor{UserID: uuid.New()}, ListQuery{})
	if err != nil {
		t.Fatalf("list should not surface storage errors: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty listing, got %v", out)
	}
}

func TestListRejectsMalformedBounds(t *testing.T) {
	svc := newTestService(t, newStubRepo())

	bad := "10-03-2024"
	_, err := svc.List(context.Background(), Actor{UserID: uuid.New()}, ListQuery{From: &bad})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateAssignsActorAsOwner(t *testing.T) {
	repo := newStubRepo()
	actor := Actor{UserID: uuid.New()}
	svc := newTestService(t, repo)

	out, err := svc.Create(context.Background(), actor, CreateReportInput{Date: "2024-03-10", Text: "testo"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.UserID != actor.UserID {
		t.Fatal("report owner must be the actor")
	}
	if out.Date != "2024-03-10" {
		t.Fatalf("date must round-trip exactly, got %q", out.Date)
	}
}

func TestCreateRejectsInvalidDate(t *testing.T) {
	svc := newTestService(t, newStubRepo())

	_, err := svc.Create(context.Background(), Actor{UserID: uuid.New()}, CreateReportInput{Date: "2024-3-1"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestForeignReportReadsAsNotFound(t *testing.T) {
	owner := uuid.New()
	row := report(owner, "2024-03-10")
	repo := newStubRepo(row)
	svc := newTestService(t, repo)

	stranger := Actor{UserID: uuid.New()}

	_, err := svc.Get(context.Background(), stranger, row.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign report, got %v", err)
	}

	text := "modificato"
	_, err = svc.Update(context.Background(), stranger, row.ID, UpdateReportDTO{Text: &text})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on foreign update, got %v", err)
	}

	err = svc.Delete(context.Background(), stranger, row.ID)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on foreign delete, got %v", err)
	}
}

func TestMasterMayTouchAnyReport(t *testing.T) {
	owner := uuid.New()
	row := report(owner, "2024-03-10")
	repo := newStubRepo(row)
	svc := newTestService(t, repo)

	master := Actor{UserID: uuid.New(), IsMaster: true}

	text := "rivisto"
	out, err := svc.Update(context.Background(), master, row.ID, UpdateReportDTO{Text: &text})
	if err != nil {
		t.Fatalf("master update: %v", err)
	}
	if out.Text != "rivisto" {
		t.Fatalf("text not updated, got %q", out.Text)
	}
	if out.UserID != owner {
		t.Fatal("updates must never change the owner")
	}

	if err := svc.Delete(context.Background(), master, row.ID); err != nil {
		t.Fatalf("master delete: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Fatal("expected the report to be deleted")
	}
}

package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reportello/reportello-backend/pkg/db/models"
	pkgerrors "github.com/reportello/reportello-backend/pkg/errors"
	"github.com/reportello/reportello-backend/pkg/logger"
)

// Actor identifies who is performing a report operation. Masters see every
// report; plain users only their own. The check lives here, next to the
// queries, so no handler can forget it.
type Actor struct {
	UserID   uuid.UUID
	IsMaster bool
}

// CreateReportInput carries a new report. The owner is always the actor.
type CreateReportInput struct {
	Date string
	Text string
}

// ListQuery narrows a listing. UserID is honored for masters only.
type ListQuery struct {
	UserID *uuid.UUID
	From   *string
	To     *string
}

// Service defines the behavior needed by the reports controller.
type Service interface {
	List(ctx context.Context, actor Actor, query ListQuery) ([]*ReportDTO, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*ReportDTO, error)
	Create(ctx context.Context, actor Actor, input CreateReportInput) (*ReportDTO, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, dto UpdateReportDTO) (*ReportDTO, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type repository interface {
	Create(ctx context.Context, dto CreateReportDTO) (*models.Report, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	List(ctx context.Context, filter ListFilter) ([]models.Report, error)
	Update(ctx context.Context, id uuid.UUID, dto UpdateReportDTO) (*models.Report, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo repository
	logg *logger.Logger
}

// ServiceParams bundles the dependencies required to build a reports service.
type ServiceParams struct {
	Repo   repository
	Logger *logger.Logger
}

// NewService constructs a reports service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("reports repository is required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

// List returns the actor-visible reports, newest visit date first. A storage
// failure degrades to an empty listing rather than a hard error so the
// archive view stays usable; the failure is still logged.
func (s *service) List(ctx context.Context, actor Actor, query ListQuery) ([]*ReportDTO, error) {
	filter := ListFilter{From: query.From, To: query.To}
	if actor.IsMaster {
		filter.UserID = query.UserID
	} else {
		id := actor.UserID
		filter.UserID = &id
	}

	if err := validateBounds(filter.From, filter.To); err != nil {
		return nil, err
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "reports.list.degraded", err)
		}
		return []*ReportDTO{}, nil
	}

	out := make([]*ReportDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*ReportDTO, error) {
	report, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return FromModel(report), nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateReportInput) (*ReportDTO, error) {
	date := strings.TrimSpace(input.Date)
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	report, err := s.repo.Create(ctx, CreateReportDTO{
		Date:   date,
		Text:   input.Text,
		UserID: actor.UserID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create report")
	}
	return FromModel(report), nil
}

func (s *service) Update(ctx context.Context, actor Actor, id uuid.UUID, dto UpdateReportDTO) (*ReportDTO, error) {
	if dto.Date != nil {
		date := strings.TrimSpace(*dto.Date)
		if err := ValidateDate(date); err != nil {
			return nil, err
		}
		dto.Date = &date
	}

	if _, err := s.load(ctx, actor, id); err != nil {
		return nil, err
	}

	report, err := s.repo.Update(ctx, id, dto)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update report")
	}
	return FromModel(report), nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.load(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete report")
	}
	return nil
}

// load fetches the report and enforces visibility. A foreign report reads as
// not found for plain users so IDs cannot be probed.
func (s *service) load(ctx context.Context, actor Actor, id uuid.UUID) (*models.Report, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load report")
	}
	if !actor.IsMaster && report.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
	}
	return report, nil
}

func validateBounds(from, to *string) error {
	if from != nil {
		if err := ValidateDate(*from); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "from must be in YYYY-MM-DD form")
		}
	}
	if to != nil {
		if err := ValidateDate(*to); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "to must be in YYYY-MM-DD form")
		}
	}
	return nil
}

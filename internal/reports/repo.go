package reports

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reportello/reportello-backend/pkg/db"
	"github.com/reportello/reportello-backend/pkg/db/models"
)

// Repository exposes report persistence operations.
type Repository struct {
	client *db.Client
}

// NewRepository constructs a reports repo bound to the provided DB client.
func NewRepository(client *db.Client) *Repository {
	return &Repository{client: client}
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	return r.client.DB().WithContext(ctx)
}

// Create inserts a new report and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateReportDTO) (*models.Report, error) {
	report := dto.ToModel()
	if err := r.conn(ctx).Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

// FindByID loads a report by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := r.conn(ctx).First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns reports matching the filter, newest visit date first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Report, error) {
	query := r.conn(ctx).Model(&models.Report{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}

	var reports []models.Report
	if err := query.Order("date desc").Order("created_at desc").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// Update applies the partial change set and returns the refreshed row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, dto UpdateReportDTO) (*models.Report, error) {
	changes := dto.changes()
	if len(changes) > 0 {
		if err := r.conn(ctx).Model(&models.Report{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// Delete removes a report by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.conn(ctx).Where("id = ?", id).Delete(&models.Report{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

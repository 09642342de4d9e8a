package allowlist

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reportello/reportello-backend/pkg/db"
	"github.com/reportello/reportello-backend/pkg/db/models"
)

// Repository exposes allow-list persistence operations. Rows are keyed by the
// lowercased email address.
type Repository struct {
	client *db.Client
}

// NewRepository constructs an allow-list repo bound to the provided DB client.
func NewRepository(client *db.Client) *Repository {
	return &Repository{client: client}
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	return r.client.DB().WithContext(ctx)
}

// List returns every authorized address ordered by email.
func (r *Repository) List(ctx context.Context) ([]models.AuthorizedEmail, error) {
	var rows []models.AuthorizedEmail
	if err := r.conn(ctx).Order("email asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Upsert stores the address, keeping the original authorized_at on re-adds.
func (r *Repository) Upsert(ctx context.Context, row models.AuthorizedEmail) error {
	return r.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(&row).Error
}

// Find loads a single allow-list row.
func (r *Repository) Find(ctx context.Context, email string) (*models.AuthorizedEmail, error) {
	var row models.AuthorizedEmail
	if err := r.conn(ctx).First(&row, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Delete removes the address. Deleting an absent row is not an error.
func (r *Repository) Delete(ctx context.Context, email string) error {
	return r.conn(ctx).Where("email = ?", email).Delete(&models.AuthorizedEmail{}).Error
}

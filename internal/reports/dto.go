package reports

import (
	"time"

	"github.com/google/uuid"

	"github.com/reportello/reportello-backend/pkg/db/models"
)

// ReportDTO is the transport shape of one visit report.
type ReportDTO struct {
	ID        uuid.UUID `json:"id"`
	Date      string    `json:"date"`
	Text      string    `json:"text"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateReportDTO holds the data required by the repo to persist a report.
type CreateReportDTO struct {
	Date   string
	Text   string
	UserID uuid.UUID
}

// UpdateReportDTO carries the partial update set. Nil fields are untouched.
// The owner is deliberately absent; reports never change hands.
type UpdateReportDTO struct {
	Date *string
	Text *string
}

// ListFilter narrows a report listing. Dates are inclusive bounds in the
// canonical YYYY-MM-DD form, which sorts correctly as text.
type ListFilter struct {
	UserID *uuid.UUID
	From   *string
	To     *string
}

func FromModel(r *models.Report) *ReportDTO {
	if r == nil {
		return nil
	}
	return &ReportDTO{
		ID:        r.ID,
		Date:      r.Date,
		Text:      r.Text,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (c CreateReportDTO) ToModel() *models.Report {
	return &models.Report{
		Date:   c.Date,
		Text:   c.Text,
		UserID: c.UserID,
	}
}

func (u UpdateReportDTO) changes() map[string]any {
	changes := map[string]any{}
	if u.Date != nil {
		changes["date"] = *u.Date
	}
	if u.Text != nil {
		changes["text"] = *u.Text
	}
	return changes
}

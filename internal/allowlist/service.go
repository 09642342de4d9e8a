package allowlist

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/reportello/reportello-backend/pkg/db/models"
	pkgerrors "github.com/reportello/reportello-backend/pkg/errors"
)

// AuthorizedEmailDTO is the transport shape for one allow-list entry.
type AuthorizedEmailDTO struct {
	Email        string    `json:"email"`
	AuthorizedAt time.Time `json:"authorized_at"`
}

// Service defines the allow-list behavior used by the admin controller and
// the Google login flow.
type Service interface {
	List(ctx context.Context) ([]AuthorizedEmailDTO, error)
	Authorize(ctx context.Context, email string) (*AuthorizedEmailDTO, error)
	Revoke(ctx context.Context, email string) error
	IsAuthorized(ctx context.Context, email string) (bool, error)
}

type repository interface {
	List(ctx context.Context) ([]models.AuthorizedEmail, error)
	Upsert(ctx context.Context, row models.AuthorizedEmail) error
	Find(ctx context.Context, email string) (*models.AuthorizedEmail, error)
	Delete(ctx context.Context, email string) error
}

type service struct {
	repo repository
}

// NewService constructs an allow-list service with the provided repository.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("allow list repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]AuthorizedEmailDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list authorized emails")
	}
	out := make([]AuthorizedEmailDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, AuthorizedEmailDTO{Email: row.Email, AuthorizedAt: row.AuthorizedAt})
	}
	return out, nil
}

// Authorize adds the address to the allow list. Re-authorizing an address
// keeps its original timestamp.
func (s *service) Authorize(ctx context.Context, email string) (*AuthorizedEmailDTO, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, models.AuthorizedEmail{
		Email:        normalized,
		AuthorizedAt: time.Now().UTC(),
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "authorize email")
	}

	row, err := s.repo.Find(ctx, normalized)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load authorized email")
	}
	return &AuthorizedEmailDTO{Email: row.Email, AuthorizedAt: row.AuthorizedAt}, nil
}

func (s *service) Revoke(ctx context.Context, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, normalized); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke email")
	}
	return nil
}

func (s *service) IsAuthorized(ctx context.Context, email string) (bool, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return false, nil
	}
	if _, err := s.repo.Find(ctx, normalized); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
	}
	return trimmed, nil
}

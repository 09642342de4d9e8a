package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reportello/reportello-backend/internal/allowlist"
	"github.com/reportello/reportello-backend/internal/users"
	pkgerrors "github.com/reportello/reportello-backend/pkg/errors"
)

type stubUserService struct {
	user    *users.UserDTO
	list    []*users.UserDTO
	err     error
	created users.CreateUserInput
	deleted uuid.UUID
}

func (s *stubUserService) List(ctx context.Context) ([]*users.UserDTO, error) {
	return s.list, s.err
}

func (s *stubUserService) Get(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	return s.user, s.err
}

func (s *stubUserService) Create(ctx context.Context, dto users.CreateUserInput) (*users.UserDTO, error) {
	s.created = dto
	return s.user, s.err
}

func (s *stubUserService) Update(ctx context.Context, id uuid.UUID, dto users.UpdateUserDTO) (*users.UserDTO, error) {
	return s.user, s.err
}

func (s *stubUserService) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = id
	return s.err
}

func (s *stubUserService) UpdatePassword(ctx context.Context, id uuid.UUID, password string) error {
	return pkgerrors.New(pkgerrors.CodeNotImplemented, "password updates are not supported")
}

func TestUsersCreateSuccess(t *testing.T) {
	svc := &stubUserService{user: &users.UserDTO{
		ID:        uuid.New(),
		Username:  "anna.bianchi",
		Email:     "anna.bianchi@example.com",
		Name:      "Anna Bianchi",
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}}
	handler := UsersCreate(svc, nil)

	payload := `{"username":"anna.bianchi","email":"anna.bianchi@example.com","name":"Anna Bianchi","password":"Secret#1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/users", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.created.Username != "anna.bianchi" || svc.created.Password != "Secret#1" {
		t.Fatalf("expected registration input forwarded got %+v", svc.created)
	}
}

func TestUsersCreateRejectsShortPassword(t *testing.T) {
	handler := UsersCreate(&stubUserService{}, nil)
	payload := `{"username":"anna.bianchi","email":"anna.bianchi@example.com","password":"abc"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/users", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUsersCreateConflict(t *testing.T) {
	svc := &stubUserService{err: pkgerrors.New(pkgerrors.CodeConflict, "username or email already in use")}
	handler := UsersCreate(svc, nil)
	payload := `{"username":"anna.bianchi","email":"anna.bianchi@example.com","password":"Secret#1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/users", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestUsersDeleteRejectsMalformedID(t *testing.T) {
	handler := UsersDelete(&stubUserService{}, nil)
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/v1/users/nope", nil)
	req = withURLParam(req, "userID", "nope")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUsersDeleteForwardsID(t *testing.T) {
	svc := &stubUserService{}
	handler := UsersDelete(svc, nil)

	userID := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/v1/users/"+userID.String(), nil)
	req = withURLParam(req, "userID", userID.String())
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.deleted != userID {
		t.Fatalf("expected delete on %s got %s", userID, svc.deleted)
	}
}

func TestUsersUpdatePasswordNotImplemented(t *testing.T) {
	handler := UsersUpdatePassword(&stubUserService{}, nil)

	userID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/users/"+userID.String()+"/password", bytes.NewReader([]byte(`{"password":"Secret#1"}`)))
	req.Header.Set("Content-Type", "application/json")
	req = withURLParam(req, "userID", userID.String())
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 got %d", resp.Code)
	}
}

type stubAllowListService struct {
	entries    []allowlist.AuthorizedEmailDTO
	entry      *allowlist.AuthorizedEmailDTO
	err        error
	authorized string
	revoked    string
}

func (s *stubAllowListService) List(ctx context.Context) ([]allowlist.AuthorizedEmailDTO, error) {
	return s.entries, s.err
}

func (s *stubAllowListService) Authorize(ctx context.Context, email string) (*allowlist.AuthorizedEmailDTO, error) {
	s.authorized = email
	return s.entry, s.err
}

func (s *stubAllowListService) Revoke(ctx context.Context, email string) error {
	s.revoked = email
	return s.err
}

func (s *stubAllowListService) IsAuthorized(ctx context.Context, email string) (bool, error) {
	return false, s.err
}

func TestAllowListAuthorizeSuccess(t *testing.T) {
	svc := &stubAllowListService{entry: &allowlist.AuthorizedEmailDTO{
		Email:        "anna.bianchi@example.com",
		AuthorizedAt: time.Now(),
	}}
	handler := AllowListAuthorize(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/authorized-emails", bytes.NewReader([]byte(`{"email":"anna.bianchi@example.com"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.authorized != "anna.bianchi@example.com" {
		t.Fatalf("expected email forwarded got %q", svc.authorized)
	}

	var envelope struct {
		Data allowlist.AuthorizedEmailDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Email != "anna.bianchi@example.com" {
		t.Fatalf("expected entry in payload got %+v", envelope.Data)
	}
}

func TestAllowListAuthorizeRejectsMalformedEmail(t *testing.T) {
	handler := AllowListAuthorize(&stubAllowListService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/authorized-emails", bytes.NewReader([]byte(`{"email":"not-an-email"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAllowListRevokeUnescapesEmail(t *testing.T) {
	svc := &stubAllowListService{}
	handler := AllowListRevoke(svc, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/v1/authorized-emails/anna.bianchi%40example.com", nil)
	req = withURLParam(req, "email", "anna.bianchi%40example.com")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.revoked != "anna.bianchi@example.com" {
		t.Fatalf("expected unescaped email got %q", svc.revoked)
	}
}

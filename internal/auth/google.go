package auth

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"

	"github.com/reportello/reportello-backend/pkg/config"
)

// GoogleClaims is the subset of the verified ID token the login flow needs.
type GoogleClaims struct {
	Sub           string
	Email         string
	Name          string
	EmailVerified bool
}

// IDTokenVerifier validates a raw Google ID token and extracts its claims.
// The indirection keeps the Google endpoint out of unit tests.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*GoogleClaims, error)
}

type googleVerifier struct {
	clientID string
}

// NewGoogleVerifier builds a verifier pinned to the configured OAuth client ID.
func NewGoogleVerifier(cfg config.GoogleConfig) (IDTokenVerifier, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("google client id is required")
	}
	return &googleVerifier{clientID: cfg.ClientID}, nil
}

func (v *googleVerifier) Verify(ctx context.Context, rawToken string) (*GoogleClaims, error) {
	payload, err := idtoken.Validate(ctx, rawToken, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("validate id token: %w", err)
	}

	claims := &GoogleClaims{Sub: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		claims.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		claims.Name = name
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok {
		claims.EmailVerified = verified
	}
	return claims, nil
}

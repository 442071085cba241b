package service

import (
	"context"
	"fmt"

	"github.com/colespa/colespa-api/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

// AuthService validates identity tokens issued by the external auth provider
// and resolves them to profiles. It issues no tokens itself; sign-in,
// password handling and token refresh all live at the provider.
type AuthService struct {
	profiles *ProfileService
	secret   []byte
	issuer   string
	logger   *zap.Logger
}

func NewAuthService(profiles *ProfileService, secret, issuer string, logger *zap.Logger) *AuthService {
	return &AuthService{profiles: profiles, secret: []byte(secret), issuer: issuer, logger: logger}
}

// IdentityClaims are the claims this service reads from the provider's
// access tokens.
type IdentityClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// ValidateAccessToken parses and verifies a provider token.
func (s *AuthService) ValidateAccessToken(tokenString string) (*IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido o expirado"}
	}
	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || claims.Subject == "" {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido o expirado"}
	}
	return claims, nil
}

// ResolveProfile validates the token and loads (or, on first sign-in,
// creates) the caller's profile.
func (s *AuthService) ResolveProfile(ctx context.Context, tokenString string) (*domain.UserProfile, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.ResolveProfile")
	defer span.End()

	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetOrCreateProfile(ctx, claims.Subject, claims.Email, claims.Name)
	if err != nil {
		s.logger.Error("profile resolution failed", zap.String("user_id", claims.Subject), zap.Error(err))
		return nil, err
	}
	return profile, nil
}

// internal/services/auth_service.go
package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/highdeium-backend/internal/config"
	"github.com/javajoker/highdeium-backend/internal/models"
	"github.com/javajoker/highdeium-backend/internal/utils"
)

// DemoUserID is the account used by demo sign-in outside production.
const DemoUserID = "demo-user"

// AuthService exchanges identity-provider tokens for our own JWTs. It never
// sees passwords.
type AuthService struct {
	users    *UserService
	verifier IdentityVerifier
	cfg      *config.Config
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

func NewAuthService(users *UserService, verifier IdentityVerifier, cfg *config.Config) *AuthService {
	return &AuthService{
		users:    users,
		verifier: verifier,
		cfg:      cfg,
	}
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string) (*AuthResponse, error) {
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		logrus.WithError(err).Warn("Identity verification failed")
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	user, err := s.users.UpsertUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	logrus.WithField("user_id", user.ID).Info("User signed in")
	return s.issueTokens(user)
}

// LoginDemo signs in the shared demo account. Disabled unless configured.
func (s *AuthService) LoginDemo(ctx context.Context) (*AuthResponse, error) {
	if !s.cfg.Identity.DemoLoginEnable || s.cfg.IsProduction() {
		return nil, forbidden("demo login")
	}

	user, err := s.users.UpsertUser(ctx, &Identity{
		Subject:   DemoUserID,
		Email:     "demo@highdeium.local",
		FirstName: "Demo",
		LastName:  "Reader",
	})
	if err != nil {
		return nil, err
	}
	return s.issueTokens(user)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	userID, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	email := ""
	if user.Email != nil {
		email = *user.Email
	}

	accessToken, err := utils.GenerateJWT(user.ID, email, user.IsCreator, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}

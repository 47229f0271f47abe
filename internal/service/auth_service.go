package service

import (
	"context"
	"fmt"
	"time"

	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"
	"wallet-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService: it drives the identity
// provider exchange, upserts the user, and issues a session token.
type AuthServiceImpl struct {
	userRepo ports.UserRepository
	identity ports.IdentityProvider
	tokenSvc ports.TokenService
	log      zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	userRepo ports.UserRepository,
	identity ports.IdentityProvider,
	tokenSvc ports.TokenService,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo: userRepo,
		identity: identity,
		tokenSvc: tokenSvc,
		log:      log,
	}
}

// SignInURL returns the provider consent-page URL.
func (s *AuthServiceImpl) SignInURL() string {
	return s.identity.AuthURL()
}

// HandleCallback exchanges the authorization code for a verified identity,
// creates the user on first sign-in or refreshes the profile fields on
// subsequent ones, and issues a session token.
func (s *AuthServiceImpl) HandleCallback(ctx context.Context, code string) (*ports.AuthResult, error) {
	if code == "" {
		return nil, apperror.Validation("missing authorization code")
	}

	identity, err := s.identity.Exchange(ctx, code)
	if err != nil {
		return nil, apperror.ErrIdentityExchange(err)
	}

	user, err := s.userRepo.GetByGoogleID(ctx, identity.ExternalID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find user: %w", err))
	}

	now := time.Now().UTC()
	if user == nil {
		externalID := identity.ExternalID
		user = &domain.User{
			ID:        uuid.New(),
			GoogleID:  &externalID,
			Email:     identity.Email,
			Name:      identity.Name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if identity.AvatarURL != "" {
			avatar := identity.AvatarURL
			user.AvatarURL = &avatar
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create user: %w", err))
		}
		s.log.Info().Str("user_id", user.ID.String()).Msg("user provisioned from identity provider")
	} else {
		user.Email = identity.Email
		user.Name = identity.Name
		if identity.AvatarURL != "" {
			avatar := identity.AvatarURL
			user.AvatarURL = &avatar
		}
		user.UpdatedAt = now
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("refresh user: %w", err))
		}
	}

	token, expiresAt, err := s.tokenSvc.Issue(user.ID, user.Email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("issue token: %w", err))
	}

	return &ports.AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

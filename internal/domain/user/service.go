package user

import (
	"context"

	"github.com/rs/zerolog"

	"fridgewiz/server/internal/utils/idgen"
	"fridgewiz/server/internal/utils/platformerrors"
)

// Service resolves authenticated Clerk identities to local user records and
// applies identity webhook events.
type Service struct {
	repo     Repository
	profiles ProfileFetcher
	log      zerolog.Logger
}

// NewService constructs a Service with required dependencies.
func NewService(repo Repository, profiles ProfileFetcher, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		log:      log.With().Str("component", "user-service").Logger(),
	}
}

// Resolve returns the local user for an authenticated Clerk id, lazily
// creating the record on first contact. A profile fetch failure is treated
// as an authentication failure: the caller presented a token for an account
// we cannot verify with the provider.
func (s *Service) Resolve(ctx context.Context, clerkID string) (*User, error) {
	existing, err := s.repo.FindByClerkID(ctx, clerkID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up user")
	}
	if existing != nil {
		return existing, nil
	}

	profile, err := s.profiles.FetchProfile(ctx, clerkID)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
			"Unauthorized", err, "4f8a1c2d-9e37-4b60-8d14-a5e72f90c3b8")
	}

	s.log.Info().Str("clerk_id", clerkID).Msg("creating user on first contact")
	return s.upsert(ctx, *profile)
}

// ApplyEvent applies a parsed identity webhook event. Created and updated
// events both upsert, so replays and out-of-order delivery converge on the
// provider's latest state.
func (s *Service) ApplyEvent(ctx context.Context, event SyncEvent) error {
	switch event.Type {
	case EventUserCreated, EventUserUpdated:
		_, err := s.upsert(ctx, event.Profile)
		return err
	case EventUserDeleted:
		if err := s.repo.DeleteByClerkID(ctx, event.Profile.ClerkID); err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete user")
		}
		return nil
	default:
		s.log.Debug().Str("event_type", string(event.Type)).Msg("ignoring unhandled webhook event")
		return nil
	}
}

func (s *Service) upsert(ctx context.Context, profile Profile) (*User, error) {
	newID, err := idgen.GenerateSecureID("user", 16)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate user ID")
	}

	stored, err := s.repo.Upsert(ctx, newID, profile)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to upsert user")
	}
	return stored, nil
}

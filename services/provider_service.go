package services

import (
	"context"
	"errors"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/HSouheill/homeservices_backend/repositories"
)

// ProviderService covers the provider's own profile. Approval itself is owned
// by the admin tooling and never changes here.
type ProviderService struct {
	providers repositories.ProviderDirectory
}

func NewProviderService(providers repositories.ProviderDirectory) *ProviderService {
	return &ProviderService{providers: providers}
}

func (s *ProviderService) Me(ctx context.Context, caller models.Caller) (*models.ProviderProfile, error) {
	if caller.Role != models.RoleProvider {
		return nil, ForbiddenError("Only providers have a provider profile")
	}
	profile, err := s.providers.FindByUserID(ctx, caller.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, NotFoundError("Provider profile not found")
	}
	if err != nil {
		return nil, InternalError("load provider profile", err)
	}
	return profile, nil
}

// UpdateAvailability lets a provider go on or off shift. Only an approved
// provider may become AVAILABLE.
func (s *ProviderService) UpdateAvailability(ctx context.Context, caller models.Caller, value string) (*models.ProviderProfile, error) {
	availability, ok := models.ParseAvailability(value)
	if !ok {
		return nil, ValidationError("Invalid availability")
	}
	profile, err := s.Me(ctx, caller)
	if err != nil {
		return nil, err
	}
	if availability == models.AvailabilityAvailable && !profile.IsApproved() {
		return nil, ForbiddenError("Provider not approved")
	}

	updated, err := s.providers.UpdateAvailability(ctx, caller.UserID, availability)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, NotFoundError("Provider profile not found")
	}
	if err != nil {
		return nil, InternalError("update availability", err)
	}
	return updated, nil
}

// List is the admin view over every provider profile.
func (s *ProviderService) List(ctx context.Context) ([]models.ProviderProfile, error) {
	providers, err := s.providers.List(ctx)
	if err != nil {
		return nil, InternalError("list providers", err)
	}
	return providers, nil
}

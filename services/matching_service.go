package services

import (
	"context"
	"errors"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/HSouheill/homeservices_backend/repositories"
)

const (
	DefaultRadiusMeters = 5000
	NotifyLimit         = 5
	PreviewLimit        = 20
	OpenRequestLimit    = 30
)

// MatchingService finds providers near a point, and open requests near a
// provider.
type MatchingService struct {
	providers    repositories.ProviderDirectory
	requests     repositories.RequestStore
	radiusMeters float64
}

func NewMatchingService(providers repositories.ProviderDirectory, requests repositories.RequestStore, radiusMeters float64) *MatchingService {
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	return &MatchingService{
		providers:    providers,
		requests:     requests,
		radiusMeters: radiusMeters,
	}
}

// FindCandidates returns approved, active, available providers of category
// within maxDistanceMeters of point, nearest first. No match is an empty
// list.
func (m *MatchingService) FindCandidates(ctx context.Context, category string, point models.GeoPoint, maxDistanceMeters float64, limit int) ([]models.ProviderProfile, error) {
	found, err := m.providers.FindNearby(ctx, repositories.NearbyQuery{
		Category:          category,
		Point:             point,
		MaxDistanceMeters: maxDistanceMeters,
		Limit:             limit,
	})
	if err != nil {
		return nil, InternalError("find nearby providers", err)
	}

	candidates := make([]models.ProviderProfile, 0, len(found))
	for i := range found {
		p := &found[i]
		if !p.IsCandidate() || !p.HasCategory(category) {
			continue
		}
		if repositories.DistanceMeters(point, p.Location) > maxDistanceMeters {
			continue
		}
		candidates = append(candidates, *p)
	}
	return candidates, nil
}

// CandidatesForRequest is the set a new request is offered to.
func (m *MatchingService) CandidatesForRequest(ctx context.Context, category string, point models.GeoPoint) ([]models.ProviderProfile, error) {
	return m.FindCandidates(ctx, category, point, m.radiusMeters, NotifyLimit)
}

// Preview is the customer map query. It has no side effects.
func (m *MatchingService) Preview(ctx context.Context, category string, point models.GeoPoint) ([]models.ProviderProfile, error) {
	return m.FindCandidates(ctx, category, point, m.radiusMeters, PreviewLimit)
}

// OpenRequestsFor lists REQUEST_SENT requests around the calling provider so
// a reconnecting provider can catch up on offers it missed. The result is
// independent of the offer snapshot taken at creation.
func (m *MatchingService) OpenRequestsFor(ctx context.Context, caller models.Caller) ([]models.ServiceRequest, error) {
	provider, err := m.providers.FindByUserID(ctx, caller.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, NotFoundError("Provider profile not found")
	}
	if err != nil {
		return nil, InternalError("load provider profile", err)
	}
	if !provider.IsCandidate() || len(provider.Categories) == 0 {
		return []models.ServiceRequest{}, nil
	}

	requests, err := m.requests.FindOpenNear(ctx, repositories.OpenRequestQuery{
		Categories:        provider.Categories,
		Point:             provider.Location,
		MaxDistanceMeters: m.radiusMeters,
		Limit:             OpenRequestLimit,
	})
	if err != nil {
		return nil, InternalError("find open requests", err)
	}
	return requests, nil
}

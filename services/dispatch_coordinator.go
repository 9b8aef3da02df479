package services

import (
	"context"
	"errors"
	"log"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/HSouheill/homeservices_backend/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DispatchCoordinator assigns a request to exactly one provider.
type DispatchCoordinator struct {
	requests  repositories.RequestStore
	providers repositories.ProviderDirectory
	bus       Publisher
	lifecycle LifecycleSink
}

func NewDispatchCoordinator(requests repositories.RequestStore, providers repositories.ProviderDirectory, bus Publisher, collab Collaborators) *DispatchCoordinator {
	return &DispatchCoordinator{
		requests:  requests,
		providers: providers,
		bus:       bus,
		lifecycle: collab.withDefaults().Lifecycle,
	}
}

// Accept assigns the request to the calling provider. The assignment is one
// conditional write; a provider that loses the race gets a ConflictError and
// nothing is published.
func (d *DispatchCoordinator) Accept(ctx context.Context, caller models.Caller, requestID primitive.ObjectID) (*models.ServiceRequest, error) {
	if caller.Role != models.RoleProvider {
		return nil, ForbiddenError("Only providers can accept requests")
	}
	provider, err := d.providers.FindByUserID(ctx, caller.UserID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, InternalError("load provider profile", err)
	}
	if provider == nil || !provider.IsApproved() {
		return nil, ForbiddenError("Provider not approved")
	}

	req, err := d.requests.AssignProvider(ctx, requestID, provider.ID)
	if errors.Is(err, repositories.ErrNoMatch) {
		return nil, ConflictError("Request already taken")
	}
	if err != nil {
		return nil, InternalError("accept request", err)
	}

	d.bus.Publish(models.RequestChannel(req.ID.Hex()), models.EventRequestAccepted, models.RequestAccepted{
		RequestID:  req.ID.Hex(),
		ProviderID: provider.ID.Hex(),
	})

	winner := caller.UserID.Hex()
	taken := models.RequestTaken{RequestID: req.ID.Hex()}
	for _, ownerID := range req.NotifiedProviderIDs {
		if ownerID == winner {
			continue
		}
		d.bus.Publish(models.ProviderChannel(ownerID), models.EventRequestTaken, taken)
	}
	log.Printf("[dispatch] request %s accepted by provider %s", req.ID.Hex(), provider.ID.Hex())

	d.lifecycle.Record(ctx, lifecycleEvent(req, caller))
	return req, nil
}

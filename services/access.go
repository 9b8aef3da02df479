package services

import (
	"context"
	"errors"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/HSouheill/homeservices_backend/repositories"
)

// RequestAccess is what one caller may do with one request.
type RequestAccess struct {
	Follow bool // join the request channel
	Drive  bool // move the lifecycle as the assigned provider
	Attest bool // confirm completion as the requesting customer
}

type accessResolver struct {
	providers repositories.ProviderDirectory
}

// resolve dispatches on the caller's role.
func (a accessResolver) resolve(ctx context.Context, caller models.Caller, req *models.ServiceRequest) (RequestAccess, error) {
	switch caller.Role {
	case models.RoleCustomer:
		owner := req.CustomerID == caller.UserID
		return RequestAccess{Follow: owner, Attest: owner}, nil

	case models.RoleProvider:
		profile, err := a.providers.FindByUserID(ctx, caller.UserID)
		if errors.Is(err, repositories.ErrNotFound) {
			return RequestAccess{}, nil
		}
		if err != nil {
			return RequestAccess{}, InternalError("load provider profile", err)
		}
		assigned := req.AssignedProviderID != nil && *req.AssignedProviderID == profile.ID
		return RequestAccess{
			Follow: assigned || req.WasNotified(caller.UserID.Hex()),
			Drive:  assigned,
		}, nil

	case models.RoleAdmin:
		return RequestAccess{Follow: true}, nil
	}
	return RequestAccess{}, nil
}

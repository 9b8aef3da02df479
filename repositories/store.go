package repositories

import (
	"context"
	"errors"

	"github.com/HSouheill/homeservices_backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound = errors.New("repositories: record not found")
	// ErrNoMatch is returned when a conditional update found no record in the
	// required state.
	ErrNoMatch = errors.New("repositories: conditional update matched no record")
)

// RequestStore persists service requests. AssignProvider and TransitionStatus
// are single conditional writes; callers never read-then-write to change
// state.
type RequestStore interface {
	Insert(ctx context.Context, req *models.ServiceRequest) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.ServiceRequest, error)
	ListByCustomer(ctx context.Context, customerID primitive.ObjectID) ([]models.ServiceRequest, error)
	ListAll(ctx context.Context) ([]models.ServiceRequest, error)
	FindOpenNear(ctx context.Context, q OpenRequestQuery) ([]models.ServiceRequest, error)

	// AssignProvider sets ACCEPTED and the provider only when the request is
	// REQUEST_SENT and unassigned.
	AssignProvider(ctx context.Context, id, providerID primitive.ObjectID) (*models.ServiceRequest, error)

	// TransitionStatus sets status to `to` only when the request is assigned
	// and its status is exactly `from`.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.RequestStatus) (*models.ServiceRequest, error)
}

// ProviderDirectory is the geospatial index over provider profiles.
type ProviderDirectory interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.ProviderProfile, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.ProviderProfile, error)
	List(ctx context.Context) ([]models.ProviderProfile, error)

	// FindNearby returns approved, active, available providers offering
	// Category within MaxDistanceMeters of Point, nearest first.
	FindNearby(ctx context.Context, q NearbyQuery) ([]models.ProviderProfile, error)

	UpdateAvailability(ctx context.Context, userID primitive.ObjectID, availability models.Availability) (*models.ProviderProfile, error)
}

// UserDirectory resolves identities issued by the credential service.
type UserDirectory interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type NearbyQuery struct {
	Category          string
	Point             models.GeoPoint
	MaxDistanceMeters float64
	Limit             int
}

type OpenRequestQuery struct {
	Categories        []string
	Point             models.GeoPoint
	MaxDistanceMeters float64
	Limit             int
}

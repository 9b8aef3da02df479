package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/HSouheill/homeservices_backend/repositories"
	"github.com/HSouheill/homeservices_backend/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// backgroundTimeout bounds work that outlives the HTTP call, such as push
// and mail delivery.
const backgroundTimeout = 30 * time.Second

// RequestService creates service requests and answers read queries on them.
type RequestService struct {
	requests repositories.RequestStore
	users    repositories.UserDirectory
	matching *MatchingService
	bus      Publisher
	access   accessResolver
	collab   Collaborators
}

func NewRequestService(requests repositories.RequestStore, providers repositories.ProviderDirectory, users repositories.UserDirectory, matching *MatchingService, bus Publisher, collab Collaborators) *RequestService {
	return &RequestService{
		requests: requests,
		users:    users,
		matching: matching,
		bus:      bus,
		access:   accessResolver{providers: providers},
		collab:   collab.withDefaults(),
	}
}

// Create persists a new request together with the snapshot of providers it
// is offered to, then pushes the offer to each of them.
func (s *RequestService) Create(ctx context.Context, caller models.Caller, body models.ServiceRequestCreate) (*models.ServiceRequest, int, error) {
	if caller.Role != models.RoleCustomer {
		return nil, 0, ForbiddenError("Only customers can create requests")
	}
	category := strings.TrimSpace(body.Category)
	if category == "" || body.Lng == nil || body.Lat == nil {
		return nil, 0, ValidationError("category, lng, lat required")
	}
	point := models.NewPoint(*body.Lng, *body.Lat)

	candidates, err := s.matching.CandidatesForRequest(ctx, category, point)
	if err != nil {
		return nil, 0, err
	}
	notified := make([]string, 0, len(candidates))
	for _, p := range candidates {
		notified = append(notified, p.UserID.Hex())
	}

	now := time.Now()
	req := &models.ServiceRequest{
		ID:                  primitive.NewObjectID(),
		CustomerID:          caller.UserID,
		Category:            category,
		Description:         utils.SanitizeInput(body.Description),
		CustomerLocation:    point,
		Status:              models.StatusRequestSent,
		NotifiedProviderIDs: notified,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.requests.Insert(ctx, req); err != nil {
		return nil, 0, InternalError("create request", err)
	}

	offer := models.RequestOffer{
		RequestID:        req.ID.Hex(),
		Category:         req.Category,
		Description:      req.Description,
		CustomerLocation: req.CustomerLocation,
	}
	for _, ownerID := range notified {
		s.bus.Publish(models.ProviderChannel(ownerID), models.EventRequestNew, offer)
	}
	log.Printf("[requests] new request %s notified providers: %v", req.ID.Hex(), notified)

	s.collab.Lifecycle.Record(ctx, lifecycleEvent(req, caller))
	go func(snapshot *models.ServiceRequest) {
		bg, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		s.collab.Offers.NotifyOffer(bg, snapshot, candidates)
	}(req)

	return req, len(notified), nil
}

// Get returns one request with its customer and assigned provider resolved.
// Contact details are included only for callers who may follow the request;
// anyone else sees names.
func (s *RequestService) Get(ctx context.Context, caller models.Caller, id primitive.ObjectID) (*models.RequestView, error) {
	req, err := s.requests.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, NotFoundError("Request not found")
	}
	if err != nil {
		return nil, InternalError("load request", err)
	}
	access, err := s.access.resolve(ctx, caller, req)
	if err != nil {
		return nil, err
	}

	shape := viewShape{customer: true, contacts: access.Follow}
	view, err := newViewBuilder(s.access.providers, s.users, shape).view(ctx, *req)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ListForCustomer returns the caller's own requests, newest first, with the
// assigned provider's name.
func (s *RequestService) ListForCustomer(ctx context.Context, caller models.Caller) ([]models.RequestView, error) {
	requests, err := s.requests.ListByCustomer(ctx, caller.UserID)
	if err != nil {
		return nil, InternalError("list requests", err)
	}
	return newViewBuilder(s.access.providers, s.users, customerListShape).views(ctx, requests)
}

// ListAll is the admin view: every request with both parties' contacts.
func (s *RequestService) ListAll(ctx context.Context) ([]models.RequestView, error) {
	requests, err := s.requests.ListAll(ctx)
	if err != nil {
		return nil, InternalError("list requests", err)
	}
	return newViewBuilder(s.access.providers, s.users, adminShape).views(ctx, requests)
}

// CanJoinRequest gates websocket membership of a request channel.
func (s *RequestService) CanJoinRequest(ctx context.Context, caller models.Caller, requestID string) bool {
	access, ok := s.accessFor(ctx, caller, requestID)
	return ok && access.Follow
}

// CanRelayLocation reports whether caller is the provider assigned to the
// request.
func (s *RequestService) CanRelayLocation(ctx context.Context, caller models.Caller, requestID string) bool {
	access, ok := s.accessFor(ctx, caller, requestID)
	return ok && access.Drive
}

func (s *RequestService) accessFor(ctx context.Context, caller models.Caller, requestID string) (RequestAccess, bool) {
	id, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		return RequestAccess{}, false
	}
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Printf("[requests] access check for %s failed: %v", requestID, err)
		}
		return RequestAccess{}, false
	}
	access, err := s.access.resolve(ctx, caller, req)
	if err != nil {
		log.Printf("[requests] access check for %s failed: %v", requestID, err)
		return RequestAccess{}, false
	}
	return access, true
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/HSouheill/homeservices_backend/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultAutoStartDelay is how long a request may sit in ARRIVED before it is
// moved to WORK_STARTED.
const DefaultAutoStartDelay = 2 * time.Minute

// StatusStateMachine applies every status change after acceptance. Each
// change is a conditional write pinned to the status that was validated, so
// a request never moves backwards even under concurrent writers.
type StatusStateMachine struct {
	requests       repositories.RequestStore
	access         accessResolver
	bus            Publisher
	scheduler      Scheduler
	autoStartDelay time.Duration
	collab         Collaborators
}

func NewStatusStateMachine(requests repositories.RequestStore, providers repositories.ProviderDirectory, bus Publisher, scheduler Scheduler, autoStartDelay time.Duration, collab Collaborators) *StatusStateMachine {
	if autoStartDelay <= 0 {
		autoStartDelay = DefaultAutoStartDelay
	}
	return &StatusStateMachine{
		requests:       requests,
		access:         accessResolver{providers: providers},
		bus:            bus,
		scheduler:      scheduler,
		autoStartDelay: autoStartDelay,
		collab:         collab.withDefaults(),
	}
}

// UpdateStatus moves an assigned request to one of the provider-settable
// statuses. Skipping ahead is allowed; moving back is not.
func (m *StatusStateMachine) UpdateStatus(ctx context.Context, caller models.Caller, id primitive.ObjectID, target string) (*models.ServiceRequest, error) {
	status := models.RequestStatus(target)
	if !status.ProviderSettable() {
		return nil, ValidationError("Invalid status update")
	}
	req, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.IsAssigned() {
		return nil, InvalidTransitionError("Request not assigned yet")
	}
	if err := m.requireDriver(ctx, caller, req); err != nil {
		return nil, err
	}
	if status.Rank() < req.Status.Rank() {
		return nil, InvalidTransitionError(fmt.Sprintf("Cannot move request from %s back to %s", req.Status, status))
	}

	updated, err := m.transition(ctx, caller, req, status)
	if err != nil {
		return nil, err
	}
	if status == models.StatusArrived {
		m.armAutoStart(updated.ID)
	}
	return updated, nil
}

// ConfirmCompletion is the requesting customer's attestation that the work
// is done.
func (m *StatusStateMachine) ConfirmCompletion(ctx context.Context, caller models.Caller, id primitive.ObjectID) (*models.ServiceRequest, error) {
	req, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	access, err := m.access.resolve(ctx, caller, req)
	if err != nil {
		return nil, err
	}
	if !access.Attest {
		return nil, ForbiddenError("Not your request")
	}
	if req.Status != models.StatusCompletionRequested {
		return nil, InvalidTransitionError("Completion not requested yet")
	}
	return m.transition(ctx, caller, req, models.StatusCompleted)
}

// ConfirmPayment is the assigned provider's attestation that payment was
// received. It closes the request.
func (m *StatusStateMachine) ConfirmPayment(ctx context.Context, caller models.Caller, id primitive.ObjectID) (*models.ServiceRequest, error) {
	req, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.requireDriver(ctx, caller, req); err != nil {
		return nil, err
	}
	if req.Status != models.StatusCompleted {
		return nil, InvalidTransitionError("Customer must confirm completion first")
	}

	updated, err := m.transition(ctx, caller, req, models.StatusPaymentConfirmed)
	if err != nil {
		return nil, err
	}
	go func(snapshot *models.ServiceRequest) {
		bg, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		m.collab.Receipts.SendReceipt(bg, snapshot)
	}(updated)
	return updated, nil
}

func (m *StatusStateMachine) load(ctx context.Context, id primitive.ObjectID) (*models.ServiceRequest, error) {
	req, err := m.requests.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, NotFoundError("Request not found")
	}
	if err != nil {
		return nil, InternalError("load request", err)
	}
	return req, nil
}

func (m *StatusStateMachine) requireDriver(ctx context.Context, caller models.Caller, req *models.ServiceRequest) error {
	access, err := m.access.resolve(ctx, caller, req)
	if err != nil {
		return err
	}
	if !access.Drive {
		return ForbiddenError("Only the assigned provider can update this request")
	}
	return nil
}

// transition writes `to` only if the request still has the status it was
// validated in, then announces the change.
func (m *StatusStateMachine) transition(ctx context.Context, caller models.Caller, req *models.ServiceRequest, to models.RequestStatus) (*models.ServiceRequest, error) {
	updated, err := m.requests.TransitionStatus(ctx, req.ID, req.Status, to)
	if errors.Is(err, repositories.ErrNoMatch) {
		return nil, ConflictError("Request status changed, reload and retry")
	}
	if err != nil {
		return nil, InternalError("update request status", err)
	}
	m.announce(ctx, updated, &caller)
	return updated, nil
}

func (m *StatusStateMachine) announce(ctx context.Context, req *models.ServiceRequest, caller *models.Caller) {
	m.bus.Publish(models.RequestChannel(req.ID.Hex()), models.EventRequestStatusUpdate, models.StatusChanged{
		RequestID: req.ID.Hex(),
		Status:    req.Status,
	})
	evt := lifecycleEvent(req, models.Caller{})
	if caller != nil {
		evt = lifecycleEvent(req, *caller)
	}
	m.collab.Lifecycle.Record(ctx, evt)
}

// armAutoStart schedules the ARRIVED -> WORK_STARTED move. The task is never
// cancelled; every firing re-checks the stored status, so stale or repeated
// firings do nothing.
func (m *StatusStateMachine) armAutoStart(id primitive.ObjectID) {
	m.scheduler.Schedule(m.autoStartDelay, func() {
		m.AutoStart(id)
	})
}

// AutoStart moves a request still in ARRIVED to WORK_STARTED.
func (m *StatusStateMachine) AutoStart(id primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	updated, err := m.requests.TransitionStatus(ctx, id, models.StatusArrived, models.StatusWorkStarted)
	if errors.Is(err, repositories.ErrNoMatch) {
		return
	}
	if err != nil {
		log.Printf("[lifecycle] auto start of %s failed: %v", id.Hex(), err)
		return
	}
	log.Printf("[lifecycle] request %s auto-moved to %s", id.Hex(), updated.Status)
	m.announce(ctx, updated, nil)
}

func lifecycleEvent(req *models.ServiceRequest, caller models.Caller) models.LifecycleEvent {
	evt := models.LifecycleEvent{
		RequestID:  req.ID.Hex(),
		Status:     req.Status,
		ActorRole:  caller.Role,
		OccurredAt: time.Now().UTC(),
	}
	if !caller.UserID.IsZero() {
		evt.ActorID = caller.UserID.Hex()
	}
	if req.AssignedProviderID != nil {
		evt.ProviderID = req.AssignedProviderID.Hex()
	}
	return evt
}

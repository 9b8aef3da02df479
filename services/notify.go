package services

import (
	"context"

	"github.com/HSouheill/homeservices_backend/models"
)

// OfferNotifier reaches candidate providers outside the websocket, e.g. by
// mobile push.
type OfferNotifier interface {
	NotifyOffer(ctx context.Context, req *models.ServiceRequest, providers []models.ProviderProfile)
}

// ReceiptSender tells the customer a job is closed.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, req *models.ServiceRequest)
}

// LifecycleSink records every committed lifecycle change.
type LifecycleSink interface {
	Record(ctx context.Context, evt models.LifecycleEvent)
}

type noopNotifier struct{}

func (noopNotifier) NotifyOffer(context.Context, *models.ServiceRequest, []models.ProviderProfile) {}

type noopReceipts struct{}

func (noopReceipts) SendReceipt(context.Context, *models.ServiceRequest) {}

type noopLifecycle struct{}

func (noopLifecycle) Record(context.Context, models.LifecycleEvent) {}

// Collaborators groups the optional outbound integrations. Nil fields are
// disabled.
type Collaborators struct {
	Offers    OfferNotifier
	Receipts  ReceiptSender
	Lifecycle LifecycleSink
}

func (c Collaborators) withDefaults() Collaborators {
	if c.Offers == nil {
		c.Offers = noopNotifier{}
	}
	if c.Receipts == nil {
		c.Receipts = noopReceipts{}
	}
	if c.Lifecycle == nil {
		c.Lifecycle = noopLifecycle{}
	}
	return c
}

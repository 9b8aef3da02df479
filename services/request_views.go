package services

import (
	"context"
	"errors"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/HSouheill/homeservices_backend/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// viewShape says which parties a view resolves and how much of them.
type viewShape struct {
	customer bool
	contacts bool // email and phone, not just names
}

var (
	customerListShape = viewShape{}
	adminShape        = viewShape{customer: true, contacts: true}
)

// viewBuilder resolves request parties through the directories. Lookups are
// memoised for the lifetime of one builder, so a list costs one lookup per
// distinct provider or user. Parties that no longer exist are left out.
type viewBuilder struct {
	providers repositories.ProviderDirectory
	users     repositories.UserDirectory
	shape     viewShape

	providerCache map[primitive.ObjectID]*models.AssignedProvider
	userCache     map[primitive.ObjectID]*models.Contact
}

func newViewBuilder(providers repositories.ProviderDirectory, users repositories.UserDirectory, shape viewShape) *viewBuilder {
	return &viewBuilder{
		providers:     providers,
		users:         users,
		shape:         shape,
		providerCache: make(map[primitive.ObjectID]*models.AssignedProvider),
		userCache:     make(map[primitive.ObjectID]*models.Contact),
	}
}

func (b *viewBuilder) view(ctx context.Context, req models.ServiceRequest) (models.RequestView, error) {
	v := models.RequestView{ServiceRequest: req}
	if b.shape.customer {
		customer, err := b.contact(ctx, req.CustomerID)
		if err != nil {
			return v, err
		}
		v.Customer = customer
	}
	if req.AssignedProviderID != nil {
		provider, err := b.provider(ctx, *req.AssignedProviderID)
		if err != nil {
			return v, err
		}
		v.AssignedProvider = provider
	}
	return v, nil
}

func (b *viewBuilder) views(ctx context.Context, requests []models.ServiceRequest) ([]models.RequestView, error) {
	out := make([]models.RequestView, 0, len(requests))
	for _, req := range requests {
		v, err := b.view(ctx, req)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (b *viewBuilder) provider(ctx context.Context, id primitive.ObjectID) (*models.AssignedProvider, error) {
	if p, ok := b.providerCache[id]; ok {
		return p, nil
	}
	profile, err := b.providers.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		b.providerCache[id] = nil
		return nil, nil
	}
	if err != nil {
		return nil, InternalError("load assigned provider", err)
	}
	user, err := b.contact(ctx, profile.UserID)
	if err != nil {
		return nil, err
	}
	p := &models.AssignedProvider{
		ID:           profile.ID.Hex(),
		Categories:   profile.Categories,
		Availability: profile.Availability,
		Location:     profile.Location,
		Address:      profile.Address,
		User:         user,
	}
	b.providerCache[id] = p
	return p, nil
}

func (b *viewBuilder) contact(ctx context.Context, userID primitive.ObjectID) (*models.Contact, error) {
	if c, ok := b.userCache[userID]; ok {
		return c, nil
	}
	user, err := b.users.FindByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		b.userCache[userID] = nil
		return nil, nil
	}
	if err != nil {
		return nil, InternalError("load user", err)
	}
	c := &models.Contact{ID: user.ID.Hex(), Name: user.Name}
	if b.shape.contacts {
		c.Email = user.Email
		c.Phone = user.Phone
	}
	b.userCache[userID] = c
	return c, nil
}

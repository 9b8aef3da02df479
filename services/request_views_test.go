package services

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/HSouheill/homeservices_backend/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type countingUsers struct {
	repositories.UserDirectory
	lookups int32
}

func (c *countingUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	atomic.AddInt32(&c.lookups, 1)
	return c.UserDirectory.FindByID(ctx, id)
}

func TestViews_AdminListResolvesEachPartyOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	cust := f.users.Put(models.User{Name: "Rana", Email: "rana@example.com", Role: models.RoleCustomer})
	caller := models.Caller{UserID: cust.ID, Role: models.RoleCustomer}
	p, owner := f.addProvider(metersNorth(origin, 200), "plumber")
	f.users.Put(models.User{ID: owner.UserID, Name: "Sami", Phone: "+961 2", Role: models.RoleProvider})

	for i := 0; i < 3; i++ {
		req := f.create(t, caller, "plumber")
		if _, err := f.dispatch.Accept(ctx, owner, req.ID); err != nil {
			t.Fatalf("Accept: %v", err)
		}
	}

	users := &countingUsers{UserDirectory: f.users}
	views, err := newViewBuilder(f.providers, users, adminShape).views(ctx, mustListAll(t, f))
	if err != nil {
		t.Fatalf("views: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("views = %d, want 3", len(views))
	}
	for _, v := range views {
		if v.Customer == nil || v.Customer.Email != "rana@example.com" {
			t.Fatalf("customer = %+v", v.Customer)
		}
		if v.AssignedProvider == nil || v.AssignedProvider.ID != p.ID.Hex() || v.AssignedProvider.User.Phone != "+961 2" {
			t.Fatalf("provider = %+v", v.AssignedProvider)
		}
	}
	if n := atomic.LoadInt32(&users.lookups); n != 2 {
		t.Fatalf("user lookups = %d, want 2", n)
	}
}

func TestViews_MissingPartiesAreLeftOut(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	// Neither the customer nor the provider owner has a user record.
	_, owner := f.addProvider(metersNorth(origin, 200), "plumber")
	caller := customer()
	req := f.create(t, caller, "plumber")
	if _, err := f.dispatch.Accept(ctx, owner, req.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	view, err := f.service.Get(ctx, caller, req.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Customer != nil {
		t.Fatalf("customer = %+v, want nil", view.Customer)
	}
	if view.AssignedProvider == nil || view.AssignedProvider.User != nil {
		t.Fatalf("provider = %+v, want profile without user", view.AssignedProvider)
	}
}

func mustListAll(t *testing.T, f *fixture) []models.ServiceRequest {
	t.Helper()
	all, err := f.requests.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	return all
}

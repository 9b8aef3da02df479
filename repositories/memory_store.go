package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/HSouheill/homeservices_backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time interface checks.
var (
	_ RequestStore      = (*RequestRepository)(nil)
	_ RequestStore      = (*MemoryRequestStore)(nil)
	_ ProviderDirectory = (*ProviderRepository)(nil)
	_ ProviderDirectory = (*MemoryProviderDirectory)(nil)
	_ UserDirectory     = (*UserRepository)(nil)
	_ UserDirectory     = (*MemoryUserDirectory)(nil)
)

// MemoryRequestStore keeps requests in process. Conditional updates run
// under one lock, which gives them the same all-or-nothing behaviour as
// FindOneAndUpdate.
type MemoryRequestStore struct {
	mu       sync.RWMutex
	requests map[primitive.ObjectID]*models.ServiceRequest
}

func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{requests: make(map[primitive.ObjectID]*models.ServiceRequest)}
}

func (s *MemoryRequestStore) Insert(_ context.Context, req *models.ServiceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	s.requests[req.ID] = cloneRequest(req)
	return nil
}

func (s *MemoryRequestStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRequest(req), nil
}

func (s *MemoryRequestStore) ListByCustomer(_ context.Context, customerID primitive.ObjectID) ([]models.ServiceRequest, error) {
	return s.collect(func(r *models.ServiceRequest) bool { return r.CustomerID == customerID }), nil
}

func (s *MemoryRequestStore) ListAll(_ context.Context) ([]models.ServiceRequest, error) {
	return s.collect(func(*models.ServiceRequest) bool { return true }), nil
}

func (s *MemoryRequestStore) FindOpenNear(_ context.Context, q OpenRequestQuery) ([]models.ServiceRequest, error) {
	s.mu.RLock()
	type hit struct {
		req      models.ServiceRequest
		distance float64
	}
	var hits []hit
	for _, r := range s.requests {
		if r.Status != models.StatusRequestSent || !containsString(q.Categories, r.Category) {
			continue
		}
		d := DistanceMeters(q.Point, r.CustomerLocation)
		if d > q.MaxDistanceMeters {
			continue
		}
		hits = append(hits, hit{req: *cloneRequest(r), distance: d})
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })
	out := []models.ServiceRequest{}
	for _, h := range hits {
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
		out = append(out, h.req)
	}
	return out, nil
}

func (s *MemoryRequestStore) AssignProvider(_ context.Context, id, providerID primitive.ObjectID) (*models.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok || req.Status != models.StatusRequestSent || req.AssignedProviderID != nil {
		return nil, ErrNoMatch
	}
	pid := providerID
	req.AssignedProviderID = &pid
	req.Status = models.StatusAccepted
	req.UpdatedAt = time.Now()
	return cloneRequest(req), nil
}

func (s *MemoryRequestStore) TransitionStatus(_ context.Context, id primitive.ObjectID, from, to models.RequestStatus) (*models.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok || req.Status != from || req.AssignedProviderID == nil {
		return nil, ErrNoMatch
	}
	req.Status = to
	req.UpdatedAt = time.Now()
	return cloneRequest(req), nil
}

func (s *MemoryRequestStore) collect(keep func(*models.ServiceRequest) bool) []models.ServiceRequest {
	s.mu.RLock()
	out := []models.ServiceRequest{}
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, *cloneRequest(r))
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func cloneRequest(r *models.ServiceRequest) *models.ServiceRequest {
	c := *r
	if r.AssignedProviderID != nil {
		pid := *r.AssignedProviderID
		c.AssignedProviderID = &pid
	}
	c.NotifiedProviderIDs = append([]string(nil), r.NotifiedProviderIDs...)
	c.CustomerLocation.Coordinates = append([]float64(nil), r.CustomerLocation.Coordinates...)
	return &c
}

// MemoryProviderDirectory is the in-process provider index.
type MemoryProviderDirectory struct {
	mu        sync.RWMutex
	providers map[primitive.ObjectID]*models.ProviderProfile
}

func NewMemoryProviderDirectory() *MemoryProviderDirectory {
	return &MemoryProviderDirectory{providers: make(map[primitive.ObjectID]*models.ProviderProfile)}
}

// Put adds or replaces a profile.
func (d *MemoryProviderDirectory) Put(p models.ProviderProfile) *models.ProviderProfile {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	stored := cloneProvider(&p)
	d.providers[p.ID] = stored
	return cloneProvider(stored)
}

func (d *MemoryProviderDirectory) FindByID(_ context.Context, id primitive.ObjectID) (*models.ProviderProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.providers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProvider(p), nil
}

func (d *MemoryProviderDirectory) FindByUserID(_ context.Context, userID primitive.ObjectID) (*models.ProviderProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, p := range d.providers {
		if p.UserID == userID {
			return cloneProvider(p), nil
		}
	}
	return nil, ErrNotFound
}

func (d *MemoryProviderDirectory) List(_ context.Context) ([]models.ProviderProfile, error) {
	d.mu.RLock()
	out := []models.ProviderProfile{}
	for _, p := range d.providers {
		out = append(out, *cloneProvider(p))
	}
	d.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (d *MemoryProviderDirectory) FindNearby(_ context.Context, q NearbyQuery) ([]models.ProviderProfile, error) {
	d.mu.RLock()
	type hit struct {
		provider models.ProviderProfile
		distance float64
	}
	var hits []hit
	for _, p := range d.providers {
		if !p.IsCandidate() || !p.HasCategory(q.Category) {
			continue
		}
		dist := DistanceMeters(q.Point, p.Location)
		if dist > q.MaxDistanceMeters {
			continue
		}
		hits = append(hits, hit{provider: *cloneProvider(p), distance: dist})
	}
	d.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })
	out := []models.ProviderProfile{}
	for _, h := range hits {
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
		out = append(out, h.provider)
	}
	return out, nil
}

func (d *MemoryProviderDirectory) UpdateAvailability(_ context.Context, userID primitive.ObjectID, availability models.Availability) (*models.ProviderProfile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, p := range d.providers {
		if p.UserID == userID {
			p.Availability = availability
			p.UpdatedAt = time.Now()
			return cloneProvider(p), nil
		}
	}
	return nil, ErrNotFound
}

func cloneProvider(p *models.ProviderProfile) *models.ProviderProfile {
	c := *p
	c.Categories = append([]string(nil), p.Categories...)
	c.Location.Coordinates = append([]float64(nil), p.Location.Coordinates...)
	return &c
}

// MemoryUserDirectory is the in-process identity table.
type MemoryUserDirectory struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryUserDirectory() *MemoryUserDirectory {
	return &MemoryUserDirectory{users: make(map[primitive.ObjectID]models.User)}
}

func (d *MemoryUserDirectory) Put(u models.User) models.User {
	d.mu.Lock()
	defer d.mu.Unlock()

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	d.users[u.ID] = u
	return u
}

func (d *MemoryUserDirectory) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

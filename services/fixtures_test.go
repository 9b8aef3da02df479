package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/HSouheill/homeservices_backend/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type publication struct {
	channel string
	event   string
	payload interface{}
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []publication
}

func (p *recordingPublisher) Publish(channel, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, publication{channel: channel, event: event, payload: payload})
}

func (p *recordingPublisher) on(channel string) []publication {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publication
	for _, s := range p.sent {
		if s.channel == channel {
			out = append(out, s)
		}
	}
	return out
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

type scheduledTask struct {
	delay time.Duration
	task  func()
}

// manualScheduler holds tasks until the test fires them.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []scheduledTask
}

func (s *manualScheduler) Schedule(delay time.Duration, task func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, scheduledTask{delay: delay, task: task})
}

func (s *manualScheduler) pending() []scheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scheduledTask(nil), s.tasks...)
}

func (s *manualScheduler) fireAll() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()
	for _, t := range tasks {
		t.task()
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []models.LifecycleEvent
}

func (r *recordingSink) Record(_ context.Context, evt models.LifecycleEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingSink) statuses() []models.RequestStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.RequestStatus, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Status)
	}
	return out
}

type receiptRecorder struct {
	sent chan primitive.ObjectID
}

func (r *receiptRecorder) SendReceipt(_ context.Context, req *models.ServiceRequest) {
	r.sent <- req.ID
}

type fixture struct {
	requests  *repositories.MemoryRequestStore
	providers *repositories.MemoryProviderDirectory
	users     *repositories.MemoryUserDirectory
	bus       *recordingPublisher
	scheduler *manualScheduler
	lifecycle *recordingSink
	receipts  *receiptRecorder

	matching *MatchingService
	service  *RequestService
	dispatch *DispatchCoordinator
	machine  *StatusStateMachine
	profiles *ProviderService
}

var origin = models.NewPoint(35.5018, 33.8938)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		requests:  repositories.NewMemoryRequestStore(),
		providers: repositories.NewMemoryProviderDirectory(),
		users:     repositories.NewMemoryUserDirectory(),
		bus:       &recordingPublisher{},
		scheduler: &manualScheduler{},
		lifecycle: &recordingSink{},
		receipts:  &receiptRecorder{sent: make(chan primitive.ObjectID, 4)},
	}
	collab := Collaborators{Receipts: f.receipts, Lifecycle: f.lifecycle}
	f.matching = NewMatchingService(f.providers, f.requests, DefaultRadiusMeters)
	f.service = NewRequestService(f.requests, f.providers, f.users, f.matching, f.bus, collab)
	f.dispatch = NewDispatchCoordinator(f.requests, f.providers, f.bus, collab)
	f.machine = NewStatusStateMachine(f.requests, f.providers, f.bus, f.scheduler, DefaultAutoStartDelay, collab)
	f.profiles = NewProviderService(f.providers)
	return f
}

// metersNorth returns a point d meters due north of p.
func metersNorth(p models.GeoPoint, d float64) models.GeoPoint {
	return models.NewPoint(p.Lng(), p.Lat()+d/111319.5)
}

func customer() models.Caller {
	return models.Caller{UserID: primitive.NewObjectID(), Role: models.RoleCustomer}
}

// addProvider stores an approved, active, available provider and returns
// its profile and the caller that owns it.
func (f *fixture) addProvider(at models.GeoPoint, categories ...string) (*models.ProviderProfile, models.Caller) {
	return f.addProfile(models.ProviderProfile{
		UserID:             primitive.NewObjectID(),
		Categories:         categories,
		VerificationStatus: models.VerificationApproved,
		IsActive:           true,
		Availability:       models.AvailabilityAvailable,
		Location:           at,
	})
}

func (f *fixture) addProfile(p models.ProviderProfile) (*models.ProviderProfile, models.Caller) {
	stored := f.providers.Put(p)
	return stored, models.Caller{UserID: stored.UserID, Role: models.RoleProvider}
}

func createBody(category string, at models.GeoPoint) models.ServiceRequestCreate {
	lng, lat := at.Lng(), at.Lat()
	return models.ServiceRequestCreate{Category: category, Description: "leaking sink", Lng: &lng, Lat: &lat}
}

func (f *fixture) create(t *testing.T, caller models.Caller, category string) *models.ServiceRequest {
	t.Helper()
	req, _, err := f.service.Create(context.Background(), caller, createBody(category, origin))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return req
}

// walkTo drives an accepted request along the provider path up to target.
func (f *fixture) walkTo(t *testing.T, provider models.Caller, id primitive.ObjectID, target models.RequestStatus) {
	t.Helper()
	for _, st := range []models.RequestStatus{models.StatusOnTheWay, models.StatusArrived, models.StatusWorkStarted, models.StatusCompletionRequested} {
		if st.Rank() > target.Rank() {
			return
		}
		if _, err := f.machine.UpdateStatus(context.Background(), provider, id, string(st)); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", st, err)
		}
	}
}

func (f *fixture) status(t *testing.T, id primitive.ObjectID) models.RequestStatus {
	t.Helper()
	req, err := f.requests.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	return req.Status
}

func assertKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %d, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("error kind = %d (%v), want %d", got, err, want)
	}
}

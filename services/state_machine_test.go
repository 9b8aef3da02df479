package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/HSouheill/homeservices_backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// acceptedRequest creates a request and has a nearby provider accept it.
func acceptedRequest(t *testing.T, f *fixture) (*models.ServiceRequest, models.Caller, models.Caller) {
	t.Helper()
	_, provider := f.addProvider(metersNorth(origin, 200), "plumber")
	owner := customer()
	req := f.create(t, owner, "plumber")
	accepted, err := f.dispatch.Accept(context.Background(), provider, req.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	return accepted, owner, provider
}

func statusUpdates(f *fixture, id primitive.ObjectID) []models.RequestStatus {
	var out []models.RequestStatus
	for _, p := range f.bus.on(models.RequestChannel(id.Hex())) {
		if p.event == models.EventRequestStatusUpdate {
			out = append(out, p.payload.(models.StatusChanged).Status)
		}
	}
	return out
}

func TestLifecycle_HappyPath(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	req, owner, provider := acceptedRequest(t, f)

	f.walkTo(t, provider, req.ID, models.StatusCompletionRequested)

	done, err := f.machine.ConfirmCompletion(ctx, owner, req.ID)
	if err != nil {
		t.Fatalf("ConfirmCompletion: %v", err)
	}
	if done.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", done.Status)
	}

	paid, err := f.machine.ConfirmPayment(ctx, provider, req.ID)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if paid.Status != models.StatusPaymentConfirmed {
		t.Fatalf("status = %s, want PAYMENT_CONFIRMED", paid.Status)
	}

	select {
	case id := <-f.receipts.sent:
		if id != req.ID {
			t.Fatalf("receipt for %s, want %s", id.Hex(), req.ID.Hex())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("receipt was not sent")
	}

	want := []models.RequestStatus{
		models.StatusOnTheWay,
		models.StatusArrived,
		models.StatusWorkStarted,
		models.StatusCompletionRequested,
		models.StatusCompleted,
		models.StatusPaymentConfirmed,
	}
	got := statusUpdates(f, req.ID)
	if len(got) != len(want) {
		t.Fatalf("status updates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("status updates = %v, want %v", got, want)
		}
	}

	recorded := f.lifecycle.statuses()
	if recorded[0] != models.StatusRequestSent || recorded[1] != models.StatusAccepted || recorded[len(recorded)-1] != models.StatusPaymentConfirmed {
		t.Fatalf("lifecycle log = %v", recorded)
	}
}

func TestArrivedAutoStartsAfterDelay(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	req, _, provider := acceptedRequest(t, f)

	f.walkTo(t, provider, req.ID, models.StatusArrived)

	pending := f.scheduler.pending()
	if len(pending) != 1 {
		t.Fatalf("scheduled tasks = %d, want 1", len(pending))
	}
	if pending[0].delay != 2*time.Minute {
		t.Fatalf("delay = %s, want 2m", pending[0].delay)
	}
	if got := f.status(t, req.ID); got != models.StatusArrived {
		t.Fatalf("status before timer = %s", got)
	}

	f.scheduler.fireAll()

	if got := f.status(t, req.ID); got != models.StatusWorkStarted {
		t.Fatalf("status after timer = %s, want WORK_STARTED", got)
	}
	got := statusUpdates(f, req.ID)
	if got[len(got)-1] != models.StatusWorkStarted {
		t.Fatalf("last update = %v, want WORK_STARTED", got)
	}

	if _, err := f.machine.UpdateStatus(ctx, provider, req.ID, string(models.StatusCompletionRequested)); err != nil {
		t.Fatalf("UpdateStatus after auto start: %v", err)
	}
}

func TestAutoStartIsNoOpWhenProviderMovedOn(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	req, _, provider := acceptedRequest(t, f)

	f.walkTo(t, provider, req.ID, models.StatusArrived)
	if _, err := f.machine.UpdateStatus(ctx, provider, req.ID, string(models.StatusCompletionRequested)); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	before := len(statusUpdates(f, req.ID))

	f.scheduler.fireAll()

	if got := f.status(t, req.ID); got != models.StatusCompletionRequested {
		t.Fatalf("status = %s, want COMPLETION_REQUESTED", got)
	}
	if after := len(statusUpdates(f, req.ID)); after != before {
		t.Fatalf("auto start published after provider moved on (%d -> %d)", before, after)
	}
}

func TestArrivedTwiceArmsTwoTimersButMovesOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	req, _, provider := acceptedRequest(t, f)

	f.walkTo(t, provider, req.ID, models.StatusArrived)
	if _, err := f.machine.UpdateStatus(ctx, provider, req.ID, string(models.StatusArrived)); err != nil {
		t.Fatalf("repeat ARRIVED: %v", err)
	}
	if n := len(f.scheduler.pending()); n != 2 {
		t.Fatalf("scheduled = %d, want 2", n)
	}
	before := len(statusUpdates(f, req.ID))

	f.scheduler.fireAll()

	if after := len(statusUpdates(f, req.ID)); after != before+1 {
		t.Fatalf("auto start published %d updates, want 1", after-before)
	}
}

func TestUpdateStatus_RejectsInvalidTargets(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	req, _, provider := acceptedRequest(t, f)

	for _, target := range []string{"", "DONE", string(models.StatusRequestSent), string(models.StatusAccepted), string(models.StatusCompleted), string(models.StatusPaymentConfirmed)} {
		_, err := f.machine.UpdateStatus(ctx, provider, req.ID, target)
		assertKind(t, err, KindValidation)
	}
	if got := f.status(t, req.ID); got != models.StatusAccepted {
		t.Fatalf("status = %s, want ACCEPTED", got)
	}
}

func TestUpdateStatus_NeverMovesBackwards(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	req, _, provider := acceptedRequest(t, f)

	f.walkTo(t, provider, req.ID, models.StatusWorkStarted)

	_, err := f.machine.UpdateStatus(ctx, provider, req.ID, string(models.StatusOnTheWay))
	assertKind(t, err, KindInvalidTransition)
	_, err = f.machine.UpdateStatus(ctx, provider, req.ID, string(models.StatusArrived))
	assertKind(t, err, KindInvalidTransition)

	if got := f.status(t, req.ID); got != models.StatusWorkStarted {
		t.Fatalf("status = %s, want WORK_STARTED", got)
	}
}

func TestUpdateStatus_GuardsCaller(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, notified := f.addProvider(metersNorth(origin, 50), "plumber")
	req, owner, _ := acceptedRequest(t, f)

	_, err := f.machine.UpdateStatus(ctx, notified, req.ID, string(models.StatusOnTheWay))
	assertKind(t, err, KindForbidden)
	_, err = f.machine.UpdateStatus(ctx, owner, req.ID, string(models.StatusOnTheWay))
	assertKind(t, err, KindForbidden)
	_, err = f.machine.UpdateStatus(ctx, models.Caller{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}, req.ID, string(models.StatusOnTheWay))
	assertKind(t, err, KindForbidden)

	_, err = f.machine.UpdateStatus(ctx, notified, primitive.NewObjectID(), string(models.StatusOnTheWay))
	assertKind(t, err, KindNotFound)
}

func TestUpdateStatus_UnassignedRequest(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, provider := f.addProvider(metersNorth(origin, 50), "plumber")
	req := f.create(t, customer(), "plumber")

	_, err := f.machine.UpdateStatus(context.Background(), provider, req.ID, string(models.StatusOnTheWay))
	assertKind(t, err, KindInvalidTransition)
}

// Skipping straight from ACCEPTED to COMPLETION_REQUESTED is allowed; only
// backward moves are refused.
func TestUpdateStatus_SkipAheadAllowed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	req, _, provider := acceptedRequest(t, f)

	updated, err := f.machine.UpdateStatus(context.Background(), provider, req.ID, string(models.StatusCompletionRequested))
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != models.StatusCompletionRequested {
		t.Fatalf("status = %s", updated.Status)
	}
}

func TestConfirmCompletion_Guards(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	req, owner, provider := acceptedRequest(t, f)

	_, err := f.machine.ConfirmCompletion(ctx, owner, req.ID)
	assertKind(t, err, KindInvalidTransition)

	f.walkTo(t, provider, req.ID, models.StatusCompletionRequested)

	_, err = f.machine.ConfirmCompletion(ctx, customer(), req.ID)
	assertKind(t, err, KindForbidden)
	_, err = f.machine.ConfirmCompletion(ctx, provider, req.ID)
	assertKind(t, err, KindForbidden)

	if _, err := f.machine.ConfirmCompletion(ctx, owner, req.ID); err != nil {
		t.Fatalf("ConfirmCompletion: %v", err)
	}
	_, err = f.machine.ConfirmCompletion(ctx, owner, req.ID)
	assertKind(t, err, KindInvalidTransition)
}

func TestConfirmPayment_RequiresCompleted(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	req, owner, provider := acceptedRequest(t, f)

	f.walkTo(t, provider, req.ID, models.StatusCompletionRequested)

	_, err := f.machine.ConfirmPayment(ctx, provider, req.ID)
	assertKind(t, err, KindInvalidTransition)

	if _, err := f.machine.ConfirmCompletion(ctx, owner, req.ID); err != nil {
		t.Fatalf("ConfirmCompletion: %v", err)
	}
	_, err = f.machine.ConfirmPayment(ctx, owner, req.ID)
	assertKind(t, err, KindForbidden)

	if _, err := f.machine.ConfirmPayment(ctx, provider, req.ID); err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	<-f.receipts.sent

	_, err = f.machine.UpdateStatus(ctx, provider, req.ID, string(models.StatusWorkStarted))
	assertKind(t, err, KindInvalidTransition)
}

func TestStatusIsMonotoneUnderConcurrentWriters(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	req, _, provider := acceptedRequest(t, f)

	targets := []models.RequestStatus{
		models.StatusOnTheWay,
		models.StatusArrived,
		models.StatusWorkStarted,
		models.StatusCompletionRequested,
	}

	stop := make(chan struct{})
	observed := make(chan error, 1)
	go func() {
		prev := -1
		for {
			select {
			case <-stop:
				observed <- nil
				return
			default:
			}
			cur, err := f.requests.FindByID(ctx, req.ID)
			if err != nil {
				observed <- err
				return
			}
			if cur.Status.Rank() < prev {
				observed <- fmt.Errorf("status went back to %s", cur.Status)
				return
			}
			prev = cur.Status.Rank()
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(target models.RequestStatus) {
			defer wg.Done()
			_, _ = f.machine.UpdateStatus(ctx, provider, req.ID, string(target))
		}(targets[i%len(targets)])
	}
	wg.Wait()
	f.scheduler.fireAll()
	close(stop)

	if err := <-observed; err != nil {
		t.Fatal(err)
	}
	if got := f.status(t, req.ID); !got.ProviderSettable() {
		t.Fatalf("final status = %s", got)
	}
}

func TestTimerScheduler_RunsAndStops(t *testing.T) {
	t.Parallel()
	s := NewTimerScheduler()

	ran := make(chan struct{}, 1)
	s.Schedule(10*time.Millisecond, func() { ran <- struct{}{} })
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}

	s.Schedule(time.Hour, func() { t.Error("cancelled task ran") })
	if s.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", s.Pending())
	}
	s.Stop()
	if s.Pending() != 0 {
		t.Fatalf("pending after stop = %d", s.Pending())
	}
	s.Schedule(time.Millisecond, func() { t.Error("task scheduled after stop ran") })
	time.Sleep(20 * time.Millisecond)
}

func TestTimerScheduler_SurvivesPanickingTask(t *testing.T) {
	t.Parallel()
	s := NewTimerScheduler()
	defer s.Stop()

	ran := make(chan struct{}, 1)
	s.Schedule(time.Millisecond, func() { panic("boom") })
	s.Schedule(5*time.Millisecond, func() { ran <- struct{}{} })
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("second task did not run")
	}
}

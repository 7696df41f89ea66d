package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/sahilchouksey/coursehive/model"
)

func completedEvent(purchaseID uint) Event {
	return Event{
		Kind:       EventCheckoutCompleted,
		Name:       string(EventCheckoutCompleted),
		PurchaseID: purchaseID,
		TxnRef:     "txn_abc",
	}
}

func TestHandleEventSettlesPurchase(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	store.addCourse(7, 10000, 0)
	p := store.addPurchase(1, 7, model.PurchaseStatusPending)
	r := NewReconciler(store, nil)

	if err := r.HandleEvent(context.Background(), completedEvent(p.ID)); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if !store.enrollments[[2]uint{1, 7}] {
		t.Error("user should be enrolled after a completed checkout")
	}
	if store.purchases[p.ID].Status != model.PurchaseStatusCompleted {
		t.Errorf("purchase status = %q, want completed", store.purchases[p.ID].Status)
	}
	if store.purchases[p.ID].GatewayTxnRef != "txn_abc" {
		t.Errorf("txn ref = %q, want txn_abc", store.purchases[p.ID].GatewayTxnRef)
	}
}

func TestHandleEventRedeliveryIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	store.addCourse(7, 10000, 0)
	p := store.addPurchase(1, 7, model.PurchaseStatusPending)
	r := NewReconciler(store, nil)

	for i := 0; i < 5; i++ {
		if err := r.HandleEvent(context.Background(), completedEvent(p.ID)); err != nil {
			t.Fatalf("delivery %d failed: %v", i+1, err)
		}
	}

	if len(store.enrollments) != 1 {
		t.Errorf("expected exactly 1 enrollment, got %d", len(store.enrollments))
	}
	if store.purchases[p.ID].Status != model.PurchaseStatusCompleted {
		t.Errorf("purchase status = %q, want completed", store.purchases[p.ID].Status)
	}
	// Settlement only runs while the purchase still reads as pending
	if store.settleCalls != 1 {
		t.Errorf("settle called %d times, want 1", store.settleCalls)
	}
}

func TestHandleEventRecoversStrandedEnrollment(t *testing.T) {
	// Simulates a crash after enrollment but before settlement: the
	// enrollment exists, the purchase is still pending, and the gateway
	// redelivers the event.
	store := newFakeStore()
	store.addUser(1)
	store.addCourse(7, 10000, 0)
	p := store.addPurchase(1, 7, model.PurchaseStatusPending)
	store.enrollments[[2]uint{1, 7}] = true
	r := NewReconciler(store, nil)

	if err := r.HandleEvent(context.Background(), completedEvent(p.ID)); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if store.purchases[p.ID].Status != model.PurchaseStatusCompleted {
		t.Errorf("purchase status = %q, want completed", store.purchases[p.ID].Status)
	}
}

func TestHandleEventExpiredFailsPurchase(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	store.addCourse(7, 10000, 0)
	p := store.addPurchase(1, 7, model.PurchaseStatusPending)
	r := NewReconciler(store, nil)

	ev := Event{Kind: EventCheckoutExpired, Name: string(EventCheckoutExpired), PurchaseID: p.ID}
	if err := r.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if store.purchases[p.ID].Status != model.PurchaseStatusFailed {
		t.Errorf("purchase status = %q, want failed", store.purchases[p.ID].Status)
	}
	if len(store.enrollments) != 0 {
		t.Error("an expired checkout must not enroll anyone")
	}
}

func TestHandleEventNeverDemotesCompleted(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	store.addCourse(7, 10000, 0)
	p := store.addPurchase(1, 7, model.PurchaseStatusCompleted)
	r := NewReconciler(store, nil)

	ev := Event{Kind: EventCheckoutPaymentFailed, Name: string(EventCheckoutPaymentFailed), PurchaseID: p.ID}
	if err := r.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if store.purchases[p.ID].Status != model.PurchaseStatusCompleted {
		t.Errorf("completed purchase demoted to %q", store.purchases[p.ID].Status)
	}
}

func TestHandleEventMissingPurchase(t *testing.T) {
	store := newFakeStore()
	r := NewReconciler(store, nil)

	err := r.HandleEvent(context.Background(), completedEvent(99))
	if !errors.Is(err, ErrPurchaseNotFound) {
		t.Fatalf("expected ErrPurchaseNotFound, got %v", err)
	}
	if len(store.enrollments) != 0 {
		t.Error("no enrollment may be written for a missing purchase")
	}
}

func TestHandleEventUnhandledIsANoop(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	store.addCourse(7, 10000, 0)
	p := store.addPurchase(1, 7, model.PurchaseStatusPending)
	r := NewReconciler(store, nil)

	ev := Event{Kind: EventUnhandled, Name: "invoice.created"}
	if err := r.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("unhandled event should be acknowledged, got %v", err)
	}

	if store.purchases[p.ID].Status != model.PurchaseStatusPending {
		t.Errorf("purchase status = %q, want pending", store.purchases[p.ID].Status)
	}
	if len(store.enrollments) != 0 {
		t.Error("unhandled events must not mutate enrollments")
	}
}

func TestHandleEventTransientFailurePropagates(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	store.addCourse(7, 10000, 0)
	p := store.addPurchase(1, 7, model.PurchaseStatusPending)
	store.failNext = errors.New("connection reset")
	r := NewReconciler(store, nil)

	if err := r.HandleEvent(context.Background(), completedEvent(p.ID)); err == nil {
		t.Fatal("expected the store failure to propagate for a gateway retry")
	}
	if store.purchases[p.ID].Status != model.PurchaseStatusPending {
		t.Errorf("purchase status = %q, want pending after a failed delivery", store.purchases[p.ID].Status)
	}
}

func TestHandleEventSendsEnrollmentConfirmation(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	store.addCourse(7, 10000, 0)
	p := store.addPurchase(1, 7, model.PurchaseStatusPending)
	notifier := &fakeNotifier{}
	r := NewReconciler(store, notifier)

	for i := 0; i < 3; i++ {
		if err := r.HandleEvent(context.Background(), completedEvent(p.ID)); err != nil {
			t.Fatalf("delivery %d failed: %v", i+1, err)
		}
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected exactly 1 confirmation email, got %d", len(notifier.sent))
	}
	if notifier.sent[0].to != "user1@test.local" {
		t.Errorf("confirmation sent to %q, want user1@test.local", notifier.sent[0].to)
	}
	if notifier.sent[0].course != "Test Course" {
		t.Errorf("confirmation names course %q, want Test Course", notifier.sent[0].course)
	}
}

func TestHandleEventNotifierFailureDoesNotFailSettlement(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	store.addCourse(7, 10000, 0)
	p := store.addPurchase(1, 7, model.PurchaseStatusPending)
	notifier := &fakeNotifier{err: errors.New("smtp unreachable")}
	r := NewReconciler(store, notifier)

	if err := r.HandleEvent(context.Background(), completedEvent(p.ID)); err != nil {
		t.Fatalf("a failed email must not fail the settlement, got %v", err)
	}
	if store.purchases[p.ID].Status != model.PurchaseStatusCompleted {
		t.Errorf("purchase status = %q, want completed", store.purchases[p.ID].Status)
	}
}

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sahilchouksey/coursehive/model"
)

func TestAmountCents(t *testing.T) {
	cases := []struct {
		name       string
		priceCents int64
		discount   int
		want       int64
	}{
		{"no discount", 4999, 0, 4999},
		{"twenty percent off", 10000, 20, 8000},
		{"ten percent off rounds half up", 4999, 10, 4499},
		{"full discount", 4999, 100, 0},
		{"one percent on one cent", 1, 1, 1},
		{"free course", 0, 50, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AmountCents(tc.priceCents, tc.discount)
			if got != tc.want {
				t.Errorf("AmountCents(%d, %d) = %d, want %d", tc.priceCents, tc.discount, got, tc.want)
			}
		})
	}
}

func TestInitiateCreatesPendingPurchase(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	store.addCourse(7, 10000, 20)
	gateway := &fakeGateway{}
	svc := NewCheckoutService(store, gateway, "usd")

	url, err := svc.Initiate(context.Background(), 1, 7, "https://shop.test")
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}
	if url == "" {
		t.Fatal("expected a session redirect URL")
	}

	if len(store.purchases) != 1 {
		t.Fatalf("expected 1 purchase, got %d", len(store.purchases))
	}
	var purchase *model.Purchase
	for _, p := range store.purchases {
		purchase = p
	}

	if purchase.Status != model.PurchaseStatusPending {
		t.Errorf("purchase status = %q, want pending", purchase.Status)
	}
	if purchase.AmountCents != 8000 {
		t.Errorf("purchase amount = %d, want 8000", purchase.AmountCents)
	}
	if purchase.GatewaySessionID == "" {
		t.Error("expected the session id to be attached to the purchase")
	}

	if gateway.lastParams.PurchaseID != purchase.ID {
		t.Errorf("session metadata purchase id = %d, want %d", gateway.lastParams.PurchaseID, purchase.ID)
	}
	if gateway.lastParams.UnitAmountCents != 8000 {
		t.Errorf("session amount = %d, want 8000", gateway.lastParams.UnitAmountCents)
	}
	if gateway.lastParams.SuccessURL != "https://shop.test/loading/my-enrollments" {
		t.Errorf("unexpected success url %q", gateway.lastParams.SuccessURL)
	}
	if gateway.lastParams.CancelURL != "https://shop.test/" {
		t.Errorf("unexpected cancel url %q", gateway.lastParams.CancelURL)
	}
}

func TestInitiateRejectsEnrolledUser(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	store.addCourse(7, 10000, 0)
	store.enrollments[[2]uint{1, 7}] = true
	gateway := &fakeGateway{}
	svc := NewCheckoutService(store, gateway, "usd")

	_, err := svc.Initiate(context.Background(), 1, 7, "https://shop.test")
	if !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}
	if len(store.purchases) != 0 {
		t.Errorf("no purchase should be created for an enrolled user, got %d", len(store.purchases))
	}
	if gateway.calls != 0 {
		t.Errorf("gateway should not be called, got %d calls", gateway.calls)
	}
}

func TestInitiateUnknownCourse(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	svc := NewCheckoutService(store, &fakeGateway{}, "usd")

	_, err := svc.Initiate(context.Background(), 1, 99, "https://shop.test")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestInitiateUnknownUser(t *testing.T) {
	store := newFakeStore()
	store.addCourse(7, 10000, 0)
	svc := NewCheckoutService(store, &fakeGateway{}, "usd")

	_, err := svc.Initiate(context.Background(), 42, 7, "https://shop.test")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestInitiateKeepsPurchaseOnGatewayFailure(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	store.addCourse(7, 10000, 0)
	gateway := &fakeGateway{err: errors.New("gateway down")}
	svc := NewCheckoutService(store, gateway, "usd")

	_, err := svc.Initiate(context.Background(), 1, 7, "https://shop.test")
	if err == nil {
		t.Fatal("expected an error when the gateway is down")
	}

	// The pending purchase stays behind for the abandoned-purchase sweep
	if len(store.purchases) != 1 {
		t.Fatalf("expected the pending purchase to persist, got %d purchases", len(store.purchases))
	}
	for _, p := range store.purchases {
		if p.Status != model.PurchaseStatusPending {
			t.Errorf("purchase status = %q, want pending", p.Status)
		}
	}
}

func TestInitiateRecordsPricingSnapshot(t *testing.T) {
	store := newFakeStore()
	store.addUser(1)
	store.addCourse(7, 10000, 20)
	svc := NewCheckoutService(store, &fakeGateway{}, "usd")

	if _, err := svc.Initiate(context.Background(), 1, 7, "https://shop.test"); err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}

	var purchase *model.Purchase
	for _, p := range store.purchases {
		purchase = p
	}
	if len(purchase.Metadata) == 0 {
		t.Fatal("expected the purchase to carry a pricing snapshot")
	}

	var snapshot pricingSnapshot
	if err := json.Unmarshal(purchase.Metadata, &snapshot); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if snapshot.CourseTitle != "Test Course" {
		t.Errorf("snapshot title = %q, want Test Course", snapshot.CourseTitle)
	}
	if snapshot.ListPriceCents != 10000 {
		t.Errorf("snapshot list price = %d, want 10000", snapshot.ListPriceCents)
	}
	if snapshot.DiscountPercent != 20 {
		t.Errorf("snapshot discount = %d, want 20", snapshot.DiscountPercent)
	}
}

package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/sahilchouksey/coursehive/model"
)

// pricingSnapshot is persisted on the purchase row. Course prices can change
// after checkout, so the terms the buyer saw are kept with the purchase.
type pricingSnapshot struct {
	CourseTitle     string `json:"course_title"`
	ListPriceCents  int64  `json:"list_price_cents"`
	DiscountPercent int    `json:"discount_percent"`
	Origin          string `json:"origin,omitempty"`
}

// AmountCents computes the discounted price in minor units with half-up
// rounding at two decimal places. Pure integer arithmetic, no float drift.
func AmountCents(priceCents int64, discountPercent int) int64 {
	n := priceCents * int64(100-discountPercent)
	return (n + 50) / 100
}

// CheckoutService creates pending purchases and hands callers off to the
// gateway's hosted payment page
type CheckoutService struct {
	store    Store
	gateway  Gateway
	currency string
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(store Store, gateway Gateway, currency string) *CheckoutService {
	return &CheckoutService{
		store:    store,
		gateway:  gateway,
		currency: currency,
	}
}

// Initiate verifies the caller and course, records a pending Purchase, and
// creates a gateway session for it. The Purchase is persisted before the
// gateway call on purpose: a session that never completes leaves a pending row
// behind, which the cleanup sweep eventually marks failed. Returns the session
// redirect URL.
func (s *CheckoutService) Initiate(ctx context.Context, userID, courseID uint, origin string) (string, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	course, err := s.store.CourseByID(ctx, courseID)
	if err != nil {
		return "", err
	}

	enrolled, err := s.store.IsEnrolled(ctx, user.ID, course.ID)
	if err != nil {
		return "", err
	}
	if enrolled {
		return "", ErrAlreadyEnrolled
	}

	snapshot, err := json.Marshal(pricingSnapshot{
		CourseTitle:     course.Title,
		ListPriceCents:  course.PriceCents,
		DiscountPercent: course.DiscountPercent,
		Origin:          origin,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode pricing snapshot: %w", err)
	}

	purchase := &model.Purchase{
		UserID:      user.ID,
		CourseID:    course.ID,
		AmountCents: AmountCents(course.PriceCents, course.DiscountPercent),
		Currency:    s.currency,
		Status:      model.PurchaseStatusPending,
		Metadata:    snapshot,
	}

	if err := s.store.CreatePurchase(ctx, purchase); err != nil {
		return "", err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, SessionParams{
		LineItemName:    course.Title,
		UnitAmountCents: purchase.AmountCents,
		Currency:        s.currency,
		SuccessURL:      fmt.Sprintf("%s/loading/my-enrollments", origin),
		CancelURL:       origin + "/",
		PurchaseID:      purchase.ID,
	})
	if err != nil {
		// The pending purchase stays behind as an audit record; the
		// abandoned-purchase sweep will fail it after the cutoff.
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	if err := s.store.AttachSession(ctx, purchase.ID, session.ID); err != nil {
		log.Printf("[CHECKOUT] purchase %d: failed to attach session %s: %v", purchase.ID, session.ID, err)
	}

	return session.URL, nil
}

package payment

import (
	"context"
	"log"

	"github.com/sahilchouksey/coursehive/model"
)

// EnrollmentNotifier is told when a purchase settles into a new enrollment.
// Delivery failures are logged, never surfaced to the gateway.
type EnrollmentNotifier interface {
	SendEnrollmentConfirmation(toEmail, userName, courseTitle string) error
}

// Reconciler applies verified payment events to the ledger. Every step is
// individually idempotent, so at-least-once delivery and concurrent duplicate
// deliveries of the same event are safe without any locking.
type Reconciler struct {
	store    Store
	notifier EnrollmentNotifier // nil disables confirmation emails
}

// NewReconciler creates a new enrollment reconciler
func NewReconciler(store Store, notifier EnrollmentNotifier) *Reconciler {
	return &Reconciler{store: store, notifier: notifier}
}

// HandleEvent resolves the referenced purchase and applies the outcome.
// For a completed checkout the enrollment link is written before the purchase
// is settled: a crash in between leaves the purchase visibly pending with the
// enrollment already present, which the reconciliation sweep detects and
// re-settles.
func (r *Reconciler) HandleEvent(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventCheckoutCompleted:
		return r.settle(ctx, ev)

	case EventCheckoutExpired, EventCheckoutPaymentFailed:
		purchase, err := r.store.PurchaseByID(ctx, ev.PurchaseID)
		if err != nil {
			return err
		}
		log.Printf("[WEBHOOK] purchase %d: %s", purchase.ID, ev.Name)
		return r.store.FailPurchase(ctx, purchase.ID)

	case EventUnhandled:
		log.Printf("[WEBHOOK] ignoring unhandled event type %q", ev.Name)
		return nil
	}

	return nil
}

func (r *Reconciler) settle(ctx context.Context, ev Event) error {
	purchase, err := r.store.PurchaseByID(ctx, ev.PurchaseID)
	if err != nil {
		return err
	}

	user, err := r.store.UserByID(ctx, purchase.UserID)
	if err != nil {
		return err
	}

	course, err := r.store.CourseByID(ctx, purchase.CourseID)
	if err != nil {
		return err
	}

	// Insert-if-absent: a redelivered event finds the row already there
	if err := r.store.EnrollIfAbsent(ctx, user.ID, course.ID); err != nil {
		return err
	}

	// Settle last, so a crash above leaves a pending purchase whose
	// enrollment already exists for the sweep to pick up
	if purchase.Status != model.PurchaseStatusCompleted {
		if err := r.store.SettlePurchase(ctx, purchase.ID, ev.TxnRef); err != nil {
			return err
		}
		log.Printf("[WEBHOOK] purchase %d completed: user %d enrolled in course %d", purchase.ID, user.ID, course.ID)

		if r.notifier != nil {
			if err := r.notifier.SendEnrollmentConfirmation(user.Email, user.Name, course.Title); err != nil {
				log.Printf("[WEBHOOK] purchase %d: enrollment confirmation to %s failed: %v", purchase.ID, user.Email, err)
			}
		}
	}

	return nil
}

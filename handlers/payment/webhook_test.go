package payment

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/coursehive/model"
	"github.com/sahilchouksey/coursehive/services/payment"
)

const webhookSecret = "whsec_handler_test"

// memStore is a minimal in-memory payment.Store for handler tests
type memStore struct {
	users       map[uint]*model.User
	courses     map[uint]*model.Course
	purchases   map[uint]*model.Purchase
	enrollments map[[2]uint]bool
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[uint]*model.User),
		courses:     make(map[uint]*model.Course),
		purchases:   make(map[uint]*model.Purchase),
		enrollments: make(map[[2]uint]bool),
	}
}

func (m *memStore) UserByID(ctx context.Context, id uint) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, payment.ErrUserNotFound
}

func (m *memStore) CourseByID(ctx context.Context, id uint) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, payment.ErrCourseNotFound
}

func (m *memStore) PurchaseByID(ctx context.Context, id uint) (*model.Purchase, error) {
	if p, ok := m.purchases[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, payment.ErrPurchaseNotFound
}

func (m *memStore) CreatePurchase(ctx context.Context, p *model.Purchase) error {
	p.ID = uint(len(m.purchases) + 1)
	m.purchases[p.ID] = p
	return nil
}

func (m *memStore) AttachSession(ctx context.Context, purchaseID uint, sessionID string) error {
	m.purchases[purchaseID].GatewaySessionID = sessionID
	return nil
}

func (m *memStore) IsEnrolled(ctx context.Context, userID, courseID uint) (bool, error) {
	return m.enrollments[[2]uint{userID, courseID}], nil
}

func (m *memStore) EnrollIfAbsent(ctx context.Context, userID, courseID uint) error {
	m.enrollments[[2]uint{userID, courseID}] = true
	return nil
}

func (m *memStore) SettlePurchase(ctx context.Context, purchaseID uint, txnRef string) error {
	p := m.purchases[purchaseID]
	if p.Status == model.PurchaseStatusPending {
		p.Status = model.PurchaseStatusCompleted
		p.GatewayTxnRef = txnRef
	}
	return nil
}

func (m *memStore) FailPurchase(ctx context.Context, purchaseID uint) error {
	p := m.purchases[purchaseID]
	if p.Status == model.PurchaseStatusPending {
		p.Status = model.PurchaseStatusFailed
	}
	return nil
}

func newWebhookApp(store *memStore) *fiber.App {
	app := fiber.New()
	handler := NewWebhookHandler(webhookSecret, payment.NewReconciler(store, nil))
	app.Post("/api/v1/payments/webhook", handler.HandleGatewayEvent)
	return app
}

// postEvent delivers a webhook body and returns the response status code
func postEvent(t *testing.T, app *fiber.App, body []byte, header string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if header != "" {
		req.Header.Set(SignatureHeader, header)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func TestWebhookSettlesSignedEvent(t *testing.T) {
	store := newMemStore()
	store.users[1] = &model.User{ID: 1, Email: "s@test.local"}
	store.courses[7] = &model.Course{ID: 7, Title: "Course"}
	store.purchases[3] = &model.Purchase{ID: 3, UserID: 1, CourseID: 7, Status: model.PurchaseStatusPending}
	app := newWebhookApp(store)

	body := []byte(`{"event":"checkout_completed","data":{"purchase_id":"3","transaction_ref":"txn_1"}}`)
	status := postEvent(t, app, body, payment.SignPayload(body, webhookSecret, time.Now()))

	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if !store.enrollments[[2]uint{1, 7}] {
		t.Error("user should be enrolled")
	}
	if store.purchases[3].Status != model.PurchaseStatusCompleted {
		t.Errorf("purchase status = %q, want completed", store.purchases[3].Status)
	}
}

func TestWebhookRejectsTamperedBody(t *testing.T) {
	store := newMemStore()
	store.users[1] = &model.User{ID: 1}
	store.courses[7] = &model.Course{ID: 7}
	store.purchases[3] = &model.Purchase{ID: 3, UserID: 1, CourseID: 7, Status: model.PurchaseStatusPending}
	app := newWebhookApp(store)

	body := []byte(`{"event":"checkout_completed","data":{"purchase_id":"3","transaction_ref":"txn_1"}}`)
	header := payment.SignPayload(body, webhookSecret, time.Now())
	tampered := bytes.Replace(body, []byte(`"3"`), []byte(`"4"`), 1)

	status := postEvent(t, app, tampered, header)

	if status != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
	if len(store.enrollments) != 0 {
		t.Error("a rejected delivery must not enroll anyone")
	}
	if store.purchases[3].Status != model.PurchaseStatusPending {
		t.Errorf("purchase status = %q, want pending", store.purchases[3].Status)
	}
}

func TestWebhookMissingSignature(t *testing.T) {
	app := newWebhookApp(newMemStore())

	body := []byte(`{"event":"checkout_completed","data":{"purchase_id":"3"}}`)
	status := postEvent(t, app, body, "")

	if status != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
}

func TestWebhookMissingPurchaseIsPermanent(t *testing.T) {
	app := newWebhookApp(newMemStore())

	body := []byte(`{"event":"checkout_completed","data":{"purchase_id":"99","transaction_ref":"txn_1"}}`)
	status := postEvent(t, app, body, payment.SignPayload(body, webhookSecret, time.Now()))

	// 404 tells the gateway not to retry this delivery
	if status != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
}

func TestWebhookAcknowledgesUnhandledEvent(t *testing.T) {
	store := newMemStore()
	app := newWebhookApp(store)

	body := []byte(`{"event":"invoice.created","data":{}}`)
	status := postEvent(t, app, body, payment.SignPayload(body, webhookSecret, time.Now()))

	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if len(store.enrollments) != 0 {
		t.Error("unhandled events must not mutate state")
	}
}

func TestWebhookMalformedBody(t *testing.T) {
	app := newWebhookApp(newMemStore())

	body := []byte(`{"event":`)
	status := postEvent(t, app, body, payment.SignPayload(body, webhookSecret, time.Now()))

	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestWebhookRedelivery(t *testing.T) {
	store := newMemStore()
	store.users[1] = &model.User{ID: 1}
	store.courses[7] = &model.Course{ID: 7}
	store.purchases[3] = &model.Purchase{ID: 3, UserID: 1, CourseID: 7, Status: model.PurchaseStatusPending}
	app := newWebhookApp(store)

	body := []byte(`{"event":"checkout_completed","data":{"purchase_id":"3","transaction_ref":"txn_1"}}`)

	for i := 0; i < 3; i++ {
		header := payment.SignPayload(body, webhookSecret, time.Now())
		status := postEvent(t, app, body, header)
		if status != fiber.StatusOK {
			t.Fatalf("delivery %d: status = %d, want 200", i+1, status)
		}
	}

	if len(store.enrollments) != 1 {
		t.Errorf("expected exactly one enrollment, got %d", len(store.enrollments))
	}
	if store.purchases[3].Status != model.PurchaseStatusCompleted {
		t.Errorf("purchase status = %q, want completed", store.purchases[3].Status)
	}
}

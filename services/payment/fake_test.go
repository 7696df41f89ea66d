package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/sahilchouksey/coursehive/model"
)

// fakeStore is an in-memory Store with the same idempotency semantics as the
// GORM implementation: insert-if-absent enrollments and status-guarded
// purchase transitions.
type fakeStore struct {
	mu sync.Mutex

	users       map[uint]*model.User
	courses     map[uint]*model.Course
	purchases   map[uint]*model.Purchase
	enrollments map[[2]uint]bool

	nextPurchaseID uint

	enrollCalls int
	settleCalls int

	failNext error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:          make(map[uint]*model.User),
		courses:        make(map[uint]*model.Course),
		purchases:      make(map[uint]*model.Purchase),
		enrollments:    make(map[[2]uint]bool),
		nextPurchaseID: 1,
	}
}

func (f *fakeStore) addUser(id uint) *model.User {
	u := &model.User{ID: id, Email: fmt.Sprintf("user%d@test.local", id), Name: "Test User", Role: model.RoleStudent}
	f.users[id] = u
	return u
}

func (f *fakeStore) addCourse(id uint, priceCents int64, discount int) *model.Course {
	c := &model.Course{ID: id, Title: "Test Course", PriceCents: priceCents, DiscountPercent: discount, Published: true}
	f.courses[id] = c
	return c
}

func (f *fakeStore) addPurchase(userID, courseID uint, status string) *model.Purchase {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &model.Purchase{
		ID:          f.nextPurchaseID,
		UserID:      userID,
		CourseID:    courseID,
		AmountCents: 1000,
		Currency:    "usd",
		Status:      status,
	}
	f.nextPurchaseID++
	f.purchases[p.ID] = p
	return p
}

func (f *fakeStore) UserByID(ctx context.Context, id uint) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) CourseByID(ctx context.Context, id uint) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[id]
	if !ok {
		return nil, ErrCourseNotFound
	}
	return c, nil
}

func (f *fakeStore) PurchaseByID(ctx context.Context, id uint) (*model.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.purchases[id]
	if !ok {
		return nil, ErrPurchaseNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeStore) CreatePurchase(ctx context.Context, p *model.Purchase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	p.ID = f.nextPurchaseID
	f.nextPurchaseID++
	copied := *p
	f.purchases[p.ID] = &copied
	return nil
}

func (f *fakeStore) AttachSession(ctx context.Context, purchaseID uint, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.purchases[purchaseID]
	if !ok {
		return ErrPurchaseNotFound
	}
	p.GatewaySessionID = sessionID
	return nil
}

func (f *fakeStore) IsEnrolled(ctx context.Context, userID, courseID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enrollments[[2]uint{userID, courseID}], nil
}

func (f *fakeStore) EnrollIfAbsent(ctx context.Context, userID, courseID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.enrollCalls++
	f.enrollments[[2]uint{userID, courseID}] = true
	return nil
}

func (f *fakeStore) SettlePurchase(ctx context.Context, purchaseID uint, txnRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settleCalls++
	p, ok := f.purchases[purchaseID]
	if !ok {
		return nil
	}
	if p.Status != model.PurchaseStatusPending {
		return nil
	}
	p.Status = model.PurchaseStatusCompleted
	p.GatewayTxnRef = txnRef
	return nil
}

func (f *fakeStore) FailPurchase(ctx context.Context, purchaseID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.purchases[purchaseID]
	if !ok {
		return nil
	}
	if p.Status != model.PurchaseStatusPending {
		return nil
	}
	p.Status = model.PurchaseStatusFailed
	return nil
}

// fakeGateway records session requests and returns a canned session
type fakeGateway struct {
	lastParams SessionParams
	calls      int
	err        error
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error) {
	g.calls++
	g.lastParams = params
	if g.err != nil {
		return nil, g.err
	}
	return &Session{
		ID:  fmt.Sprintf("cs_test_%d", params.PurchaseID),
		URL: fmt.Sprintf("https://gateway.test/pay/cs_test_%d", params.PurchaseID),
	}, nil
}

// fakeNotifier records enrollment confirmation emails
type enrollmentEmail struct {
	to, name, course string
}

type fakeNotifier struct {
	sent []enrollmentEmail
	err  error
}

func (n *fakeNotifier) SendEnrollmentConfirmation(toEmail, userName, courseTitle string) error {
	n.sent = append(n.sent, enrollmentEmail{toEmail, userName, courseTitle})
	return n.err
}

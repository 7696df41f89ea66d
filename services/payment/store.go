package payment

import (
	"context"
	"errors"

	"github.com/sahilchouksey/coursehive/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the persistence boundary for the purchase and enrollment flow.
// Every mutation is phrased so that replaying it is a no-op: enrollment is an
// insert-if-absent and status changes are guarded by the current status.
type Store interface {
	UserByID(ctx context.Context, id uint) (*model.User, error)
	CourseByID(ctx context.Context, id uint) (*model.Course, error)
	PurchaseByID(ctx context.Context, id uint) (*model.Purchase, error)

	CreatePurchase(ctx context.Context, p *model.Purchase) error
	AttachSession(ctx context.Context, purchaseID uint, sessionID string) error

	IsEnrolled(ctx context.Context, userID, courseID uint) (bool, error)
	// EnrollIfAbsent inserts the user↔course link, doing nothing when the row
	// already exists. The insert is atomic at the database level, so two
	// concurrent deliveries of the same event cannot duplicate an enrollment.
	EnrollIfAbsent(ctx context.Context, userID, courseID uint) error

	// SettlePurchase moves a pending purchase to completed. Already-completed
	// purchases are left untouched.
	SettlePurchase(ctx context.Context, purchaseID uint, txnRef string) error
	// FailPurchase moves a pending purchase to failed. Completed purchases are
	// never demoted.
	FailPurchase(ctx context.Context, purchaseID uint) error
}

// GormStore implements Store on top of PostgreSQL via GORM
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GORM-backed payment store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) UserByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) CourseByID(ctx context.Context, id uint) (*model.Course, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (s *GormStore) PurchaseByID(ctx context.Context, id uint) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := s.db.WithContext(ctx).First(&purchase, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	return &purchase, nil
}

func (s *GormStore) CreatePurchase(ctx context.Context, p *model.Purchase) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) AttachSession(ctx context.Context, purchaseID uint, sessionID string) error {
	return s.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Where("id = ?", purchaseID).
		Update("gateway_session_id", sessionID).
		Error
}

func (s *GormStore) IsEnrolled(ctx context.Context, userID, courseID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) EnrollIfAbsent(ctx context.Context, userID, courseID uint) error {
	enrollment := model.Enrollment{UserID: userID, CourseID: courseID}
	// INSERT ... ON CONFLICT DO NOTHING on the composite primary key
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&enrollment).
		Error
}

func (s *GormStore) SettlePurchase(ctx context.Context, purchaseID uint, txnRef string) error {
	// Guarded update: only a pending purchase can become completed, so a
	// redelivered event or a concurrent duplicate is a no-op.
	return s.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Where("id = ? AND status = ?", purchaseID, model.PurchaseStatusPending).
		Updates(map[string]interface{}{
			"status":          model.PurchaseStatusCompleted,
			"gateway_txn_ref": txnRef,
		}).
		Error
}

func (s *GormStore) FailPurchase(ctx context.Context, purchaseID uint) error {
	return s.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Where("id = ? AND status = ?", purchaseID, model.PurchaseStatusPending).
		Update("status", model.PurchaseStatusFailed).
		Error
}

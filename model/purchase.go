package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Purchase statuses. Transitions only move forward: pending → completed
// or pending → failed. Rows are never deleted (audit trail).
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusFailed    = "failed"
)

// Purchase records one checkout attempt and its settlement state
type Purchase struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	UserID           uint           `gorm:"not null;index" json:"user_id"`
	CourseID         uint           `gorm:"not null;index" json:"course_id"`
	AmountCents      int64          `gorm:"not null" json:"amount_cents"` // immutable after creation
	Currency         string         `gorm:"type:varchar(10);default:'usd'" json:"currency"`
	Status           string         `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	GatewaySessionID string         `gorm:"type:varchar(128);index" json:"gateway_session_id"`
	GatewayTxnRef    string         `gorm:"type:varchar(128)" json:"gateway_txn_ref"`
	Metadata         datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for Purchase
func (Purchase) TableName() string {
	return "purchases"
}

// Amount returns the purchase amount in major units
func (p *Purchase) Amount() float64 {
	return float64(p.AmountCents) / 100
}

package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleStudent         = "student"
	RoleEducatorPending = "educator_pending"
	RoleEducator        = "educator"
	RoleAdmin           = "admin"
)

// User represents a registered user in the system
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string         `gorm:"not null" json:"name"`
	ImageURL     string         `gorm:"type:text" json:"image_url"`
	Role         string         `gorm:"type:varchar(20);default:'student'" json:"role"` // student, educator_pending, educator, admin
	TokenVersion int            `gorm:"default:0" json:"-"`                             // Increment to invalidate all user tokens

	// Relationships
	Enrollments []Enrollment     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"enrollments,omitempty"`
	Purchases   []Purchase       `gorm:"foreignKey:UserID" json:"-"`
	Courses     []Course         `gorm:"foreignKey:EducatorID" json:"-"`
	Progress    []CourseProgress `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsEducator reports whether the user may publish courses
func (u *User) IsEducator() bool {
	return u.Role == RoleEducator || u.Role == RoleAdmin
}

// Enrollment links a user to a purchased course.
// The composite primary key makes the user↔course membership at-most-once;
// enrollment writes go through INSERT ... ON CONFLICT DO NOTHING so that
// redelivered payment events cannot duplicate a row.
type Enrollment struct {
	UserID     uint  `gorm:"primaryKey" json:"user_id"`
	CourseID   uint  `gorm:"primaryKey" json:"course_id"`
	EnrolledAt int64 `gorm:"autoCreateTime" json:"enrolled_at"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for Enrollment
func (Enrollment) TableName() string {
	return "enrollments"
}

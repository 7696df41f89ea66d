package model

import (
	"time"

	"gorm.io/gorm"
)

// CourseProgress tracks which lectures a user has completed in a course
type CourseProgress struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	UserID    uint           `gorm:"not null;index;uniqueIndex:idx_progress_user_course" json:"user_id"`
	CourseID  uint           `gorm:"not null;uniqueIndex:idx_progress_user_course" json:"course_id"`
	Completed bool           `gorm:"default:false" json:"completed"`

	// Relationships
	Lectures []LectureCompletion `gorm:"foreignKey:ProgressID;constraint:OnDelete:CASCADE" json:"lectures_completed,omitempty"`
}

// TableName specifies the table name for CourseProgress
func (CourseProgress) TableName() string {
	return "course_progress"
}

// LectureCompletion marks a single lecture as completed within a progress record.
// The unique index makes repeated completion calls for the same lecture no-ops.
type LectureCompletion struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	ProgressID uint      `gorm:"not null;index;uniqueIndex:idx_progress_lecture" json:"progress_id"`
	LectureID  uint      `gorm:"not null;uniqueIndex:idx_progress_lecture" json:"lecture_id"`
}

// TableName specifies the table name for LectureCompletion
func (LectureCompletion) TableName() string {
	return "lecture_completions"
}

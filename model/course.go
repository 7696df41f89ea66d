package model

import (
	"time"

	"gorm.io/gorm"
)

// Course represents purchasable course content published by an educator
type Course struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	EducatorID      uint           `gorm:"not null;index" json:"educator_id"`
	Title           string         `gorm:"not null" json:"title"`
	Description     string         `gorm:"type:text" json:"description"`
	Thumbnail       string         `gorm:"type:text" json:"thumbnail"`
	PriceCents      int64          `gorm:"not null" json:"price_cents"` // fixed point, two decimals
	DiscountPercent int            `gorm:"default:0" json:"discount_percent"`
	Published       bool           `gorm:"default:true" json:"published"`

	// Relationships
	Educator    User           `gorm:"foreignKey:EducatorID" json:"educator,omitempty"`
	Chapters    []Chapter      `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"chapters,omitempty"`
	Enrollments []Enrollment   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Ratings     []CourseRating `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"ratings,omitempty"`
}

// Chapter groups lectures within a course
type Chapter struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Order     int       `gorm:"not null" json:"order"`
	Title     string    `gorm:"not null" json:"title"`

	// Relationships
	Lectures []Lecture `gorm:"foreignKey:ChapterID;constraint:OnDelete:CASCADE" json:"lectures,omitempty"`
}

// Lecture is a single video lesson inside a chapter
type Lecture struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ChapterID   uint      `gorm:"not null;index" json:"chapter_id"`
	Order       int       `gorm:"not null" json:"order"`
	Title       string    `gorm:"not null" json:"title"`
	VideoURL    string    `gorm:"type:text" json:"video_url,omitempty"`
	DurationMin int       `gorm:"default:0" json:"duration_min"`
	IsPreview   bool      `gorm:"default:false" json:"is_preview"` // preview lectures are visible before purchase
}

// CourseRating stores one rating per user per course
type CourseRating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CourseID  uint      `gorm:"not null;index;uniqueIndex:idx_course_rating_user" json:"course_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_course_rating_user" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"` // 1..5
}

// TableName specifies the table name for CourseRating
func (CourseRating) TableName() string {
	return "course_ratings"
}

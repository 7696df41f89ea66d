package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehive/model"
	"github.com/sahilchouksey/coursehive/utils/middleware"
	"github.com/sahilchouksey/coursehive/utils/response"
	"github.com/sahilchouksey/coursehive/utils/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserHandler handles student-facing requests
type UserHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewUserHandler creates a new user handler
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// GetData handles GET /api/v1/user/data
func (h *UserHandler) GetData(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	return response.Success(c, fiber.Map{
		"id":        user.ID,
		"name":      user.Name,
		"email":     user.Email,
		"image_url": user.ImageURL,
		"role":      user.Role,
	})
}

// EnrolledCourses handles GET /api/v1/user/enrolled-courses.
// Courses are returned in enrollment order.
func (h *UserHandler) EnrolledCourses(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var enrollments []model.Enrollment
	if err := h.db.Where("user_id = ?", user.ID).
		Preload("Course").
		Preload("Course.Chapters", func(db *gorm.DB) *gorm.DB { return db.Order("chapters.order") }).
		Preload("Course.Chapters.Lectures", func(db *gorm.DB) *gorm.DB { return db.Order("lectures.order") }).
		Order("enrolled_at").
		Find(&enrollments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch enrolled courses")
	}

	courses := make([]model.Course, 0, len(enrollments))
	for _, e := range enrollments {
		courses = append(courses, e.Course)
	}

	return response.Success(c, fiber.Map{"enrolled_courses": courses})
}

// ProgressRequest represents a lecture completion update
type ProgressRequest struct {
	CourseID  uint `json:"course_id" validate:"required,min=1"`
	LectureID uint `json:"lecture_id" validate:"required,min=1"`
}

// UpdateProgress handles POST /api/v1/user/update-course-progress.
// Marking the same lecture twice is a no-op.
func (h *UserHandler) UpdateProgress(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req ProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var progress model.CourseProgress
	err := h.db.Where("user_id = ? AND course_id = ?", user.ID, req.CourseID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = model.CourseProgress{UserID: user.ID, CourseID: req.CourseID}
		if err := h.db.Create(&progress).Error; err != nil {
			return response.InternalServerError(c, "Failed to create progress record")
		}
	} else if err != nil {
		return response.InternalServerError(c, "Failed to fetch progress")
	}

	completion := model.LectureCompletion{ProgressID: progress.ID, LectureID: req.LectureID}
	if err := h.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&completion).Error; err != nil {
		return response.InternalServerError(c, "Failed to record progress")
	}

	return response.SuccessWithMessage(c, "Progress updated", nil)
}

// GetProgress handles GET /api/v1/user/course-progress/:course_id
func (h *UserHandler) GetProgress(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := c.ParamsInt("course_id")
	if err != nil || courseID < 1 {
		return response.BadRequest(c, "Invalid course id")
	}

	var progress model.CourseProgress
	if err := h.db.Where("user_id = ? AND course_id = ?", user.ID, courseID).
		Preload("Lectures").
		First(&progress).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Success(c, nil)
		}
		return response.InternalServerError(c, "Failed to fetch progress")
	}

	return response.Success(c, progress)
}

// RatingRequest represents a course rating submission
type RatingRequest struct {
	CourseID uint `json:"course_id" validate:"required,min=1"`
	Rating   int  `json:"rating" validate:"required,min=1,max=5"`
}

// AddRating handles POST /api/v1/user/add-rating.
// One rating per user per course; re-rating updates the existing row.
func (h *UserHandler) AddRating(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req RatingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var course model.Course
	if err := h.db.First(&course, req.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	// Only enrolled students may rate
	var enrolled int64
	if err := h.db.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Count(&enrolled).Error; err != nil {
		return response.InternalServerError(c, "Failed to verify enrollment")
	}
	if enrolled == 0 {
		return response.Forbidden(c, "User has not purchased this course")
	}

	rating := model.CourseRating{CourseID: course.ID, UserID: user.ID, Rating: req.Rating}
	if err := h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
	}).Create(&rating).Error; err != nil {
		return response.InternalServerError(c, "Failed to save rating")
	}

	return response.SuccessWithMessage(c, "Rating added", nil)
}

package course

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehive/model"
	"github.com/sahilchouksey/coursehive/utils/cache"
	"github.com/sahilchouksey/coursehive/utils/middleware"
	"github.com/sahilchouksey/coursehive/utils/response"
	"gorm.io/gorm"
)

const (
	catalogCacheKey = "courses:catalog"
	catalogCacheTTL = 5 * time.Minute
)

// CourseHandler handles course catalog requests
type CourseHandler struct {
	db         *gorm.DB
	redisCache *cache.RedisCache // nil disables caching
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, redisCache *cache.RedisCache) *CourseHandler {
	return &CourseHandler{
		db:         db,
		redisCache: redisCache,
	}
}

// CatalogCourse is the public course listing shape. Lecture video URLs and
// educator internals are not exposed here.
type CatalogCourse struct {
	ID              uint    `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Thumbnail       string  `json:"thumbnail"`
	PriceCents      int64   `json:"price_cents"`
	DiscountPercent int     `json:"discount_percent"`
	EducatorName    string  `json:"educator_name"`
	EnrolledCount   int64   `json:"enrolled_count"`
	AverageRating   float64 `json:"average_rating"`
	RatingCount     int     `json:"rating_count"`
}

// ListCourses handles GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	// Serve from cache when available
	if h.redisCache != nil {
		var cached []CatalogCourse
		if err := h.redisCache.GetJSON(c.Context(), catalogCacheKey, &cached); err == nil {
			return response.Success(c, cached)
		}
	}

	var courses []model.Course
	if err := h.db.Where("published = ?", true).
		Preload("Educator").
		Preload("Ratings").
		Order("created_at DESC").
		Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	catalog := make([]CatalogCourse, 0, len(courses))
	for i := range courses {
		catalog = append(catalog, h.toCatalogCourse(&courses[i]))
	}

	if h.redisCache != nil {
		if err := h.redisCache.SetJSON(c.Context(), catalogCacheKey, catalog, catalogCacheTTL); err != nil {
			log.Printf("[CACHE] failed to store course catalog: %v", err)
		}
	}

	return response.Success(c, catalog)
}

// GetCourse handles GET /api/v1/courses/:id.
// Non-preview lecture URLs are hidden unless the caller is enrolled, the
// course educator, or an admin.
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid course id")
	}

	var course model.Course
	if err := h.db.Preload("Educator").
		Preload("Chapters", func(db *gorm.DB) *gorm.DB { return db.Order("chapters.order") }).
		Preload("Chapters.Lectures", func(db *gorm.DB) *gorm.DB { return db.Order("lectures.order") }).
		Preload("Ratings").
		First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if !h.callerHasAccess(c, &course) {
		for ci := range course.Chapters {
			for li := range course.Chapters[ci].Lectures {
				if !course.Chapters[ci].Lectures[li].IsPreview {
					course.Chapters[ci].Lectures[li].VideoURL = ""
				}
			}
		}
	}

	// Never leak credentials through the preloaded educator
	course.Educator.PasswordHash = ""
	course.Educator.Email = ""

	return response.Success(c, course)
}

// InvalidateCatalogCache drops the cached catalog after authoring changes
func (h *CourseHandler) InvalidateCatalogCache(c *fiber.Ctx) {
	if h.redisCache == nil {
		return
	}
	if err := h.redisCache.Delete(c.Context(), catalogCacheKey); err != nil {
		log.Printf("[CACHE] failed to invalidate course catalog: %v", err)
	}
}

func (h *CourseHandler) callerHasAccess(c *fiber.Ctx, course *model.Course) bool {
	user, ok := middleware.GetUser(c)
	if !ok {
		return false
	}
	if user.Role == model.RoleAdmin || user.ID == course.EducatorID {
		return true
	}

	var count int64
	h.db.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Count(&count)
	return count > 0
}

func (h *CourseHandler) toCatalogCourse(course *model.Course) CatalogCourse {
	var enrolledCount int64
	h.db.Model(&model.Enrollment{}).Where("course_id = ?", course.ID).Count(&enrolledCount)

	var ratingSum int
	for _, r := range course.Ratings {
		ratingSum += r.Rating
	}
	var avg float64
	if len(course.Ratings) > 0 {
		avg = float64(ratingSum) / float64(len(course.Ratings))
	}

	return CatalogCourse{
		ID:              course.ID,
		Title:           course.Title,
		Description:     course.Description,
		Thumbnail:       course.Thumbnail,
		PriceCents:      course.PriceCents,
		DiscountPercent: course.DiscountPercent,
		EducatorName:    course.Educator.Name,
		EnrolledCount:   enrolledCount,
		AverageRating:   avg,
		RatingCount:     len(course.Ratings),
	}
}

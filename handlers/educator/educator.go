package educator

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehive/model"
	"github.com/sahilchouksey/coursehive/services/storage"
	"github.com/sahilchouksey/coursehive/utils/middleware"
	"github.com/sahilchouksey/coursehive/utils/response"
	"github.com/sahilchouksey/coursehive/utils/validation"
	"gorm.io/gorm"
)

// EducatorHandler handles course authoring and educator dashboards
type EducatorHandler struct {
	db             *gorm.DB
	spaces         *storage.SpacesClient
	validator      *validation.Validator
	onCourseChange func(c *fiber.Ctx)
}

// NewEducatorHandler creates a new educator handler. onCourseChange is invoked
// after authoring changes so stale catalog caches can be dropped; nil disables it.
func NewEducatorHandler(db *gorm.DB, spaces *storage.SpacesClient, onCourseChange func(c *fiber.Ctx)) *EducatorHandler {
	return &EducatorHandler{
		db:             db,
		spaces:         spaces,
		validator:      validation.NewValidator(),
		onCourseChange: onCourseChange,
	}
}

// RequestRole handles POST /api/v1/educator/request-role.
// Students move to educator_pending until an admin approves them.
func (h *EducatorHandler) RequestRole(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	switch user.Role {
	case model.RoleEducator, model.RoleAdmin:
		return response.Conflict(c, "You can already publish courses")
	case model.RoleEducatorPending:
		return response.Conflict(c, "Your educator request is already pending")
	}

	if err := h.db.Model(&model.User{}).
		Where("id = ? AND role = ?", user.ID, model.RoleStudent).
		Update("role", model.RoleEducatorPending).Error; err != nil {
		return response.InternalServerError(c, "Failed to submit educator request")
	}

	return response.SuccessWithMessage(c, "Educator request submitted for review", nil)
}

// CourseData is the JSON portion of the multipart add-course payload
type CourseData struct {
	Title           string `json:"title" validate:"required,min=3,max=255"`
	Description     string `json:"description" validate:"omitempty,max=5000"`
	PriceCents      int64  `json:"price_cents" validate:"required,min=0"`
	DiscountPercent int    `json:"discount_percent" validate:"gte=0,lte=100"`
	Chapters        []struct {
		Title    string `json:"title" validate:"required"`
		Lectures []struct {
			Title       string `json:"title" validate:"required"`
			DurationMin int    `json:"duration_min"`
			IsPreview   bool   `json:"is_preview"`
		} `json:"lectures"`
	} `json:"chapters" validate:"required,min=1,dive"`
}

// AddCourse handles POST /api/v1/educator/add-course.
// Multipart form: "course_data" JSON field, an "image" thumbnail, and lecture
// videos under "video-<chapter>-<lecture>" field names. Media goes to Spaces
// and the course is stored with the resulting public URLs.
func (h *EducatorHandler) AddCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var data CourseData
	if err := json.Unmarshal([]byte(c.FormValue("course_data")), &data); err != nil {
		return response.BadRequest(c, "Invalid course data")
	}
	if err := h.validator.ValidateStruct(data); err != nil {
		return response.ValidationError(c, err)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return response.BadRequest(c, "Invalid multipart form")
	}

	imageFiles := form.File["image"]
	if len(imageFiles) == 0 {
		return response.BadRequest(c, "Thumbnail not attached")
	}

	thumbnailURL, err := h.uploadFormFile(c, imageFiles[0].Filename, "thumbnails", imageFiles[0])
	if err != nil {
		return response.InternalServerError(c, "Failed to upload thumbnail")
	}

	course := model.Course{
		EducatorID:      user.ID,
		Title:           validation.SanitizeString(data.Title),
		Description:     validation.SanitizeString(data.Description),
		Thumbnail:       thumbnailURL,
		PriceCents:      data.PriceCents,
		DiscountPercent: data.DiscountPercent,
		Published:       true,
	}

	for ci, chapter := range data.Chapters {
		ch := model.Chapter{Order: ci + 1, Title: validation.SanitizeString(chapter.Title)}

		for li, lecture := range chapter.Lectures {
			videoURL := ""
			fieldName := fmt.Sprintf("video-%d-%d", ci, li)
			if files := form.File[fieldName]; len(files) > 0 {
				key := fmt.Sprintf("lectures/%d-%d-%d", time.Now().UnixNano(), ci, li)
				videoURL, err = h.uploadFormFile(c, key, "videos", files[0])
				if err != nil {
					return response.InternalServerError(c, "Failed to upload lecture video")
				}
			}

			ch.Lectures = append(ch.Lectures, model.Lecture{
				Order:       li + 1,
				Title:       validation.SanitizeString(lecture.Title),
				VideoURL:    videoURL,
				DurationMin: lecture.DurationMin,
				IsPreview:   lecture.IsPreview,
			})
		}

		course.Chapters = append(course.Chapters, ch)
	}

	if err := h.db.Create(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}

	if h.onCourseChange != nil {
		h.onCourseChange(c)
	}

	return response.Created(c, fiber.Map{"course_id": course.ID})
}

func (h *EducatorHandler) uploadFormFile(c *fiber.Ctx, key, prefix string, fh *multipart.FileHeader) (string, error) {
	if h.spaces == nil {
		return "", fmt.Errorf("media storage is not configured")
	}

	file, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	contentType := fh.Header.Get("Content-Type")
	return h.spaces.UploadFile(c.Context(), fmt.Sprintf("%s/%s", prefix, key), file, contentType)
}

// MyCourses handles GET /api/v1/educator/courses
func (h *EducatorHandler) MyCourses(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var courses []model.Course
	if err := h.db.Where("educator_id = ?", user.ID).
		Order("created_at DESC").
		Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Success(c, courses)
}

// DashboardData aggregates an educator's earnings and student reach
type DashboardData struct {
	TotalCourses       int64             `json:"total_courses"`
	TotalEarningsCents int64             `json:"total_earnings_cents"`
	EnrolledStudents   []EnrolledStudent `json:"enrolled_students"`
}

// EnrolledStudent pairs a student with the course they bought
type EnrolledStudent struct {
	CourseTitle  string    `json:"course_title"`
	StudentName  string    `json:"student_name"`
	StudentImage string    `json:"student_image"`
	PurchaseDate time.Time `json:"purchase_date"`
}

// Dashboard handles GET /api/v1/educator/dashboard
func (h *EducatorHandler) Dashboard(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var totalCourses int64
	if err := h.db.Model(&model.Course{}).
		Where("educator_id = ?", user.ID).
		Count(&totalCourses).Error; err != nil {
		return response.InternalServerError(c, "Failed to count courses")
	}

	var totalEarnings int64
	row := h.db.Model(&model.Purchase{}).
		Select("COALESCE(SUM(purchases.amount_cents), 0)").
		Joins("JOIN courses ON courses.id = purchases.course_id").
		Where("courses.educator_id = ? AND purchases.status = ?", user.ID, model.PurchaseStatusCompleted).
		Row()
	if err := row.Scan(&totalEarnings); err != nil {
		return response.InternalServerError(c, "Failed to compute earnings")
	}

	students, err := h.enrolledStudents(user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch enrolled students")
	}

	return response.Success(c, DashboardData{
		TotalCourses:       totalCourses,
		TotalEarningsCents: totalEarnings,
		EnrolledStudents:   students,
	})
}

// EnrolledStudents handles GET /api/v1/educator/enrolled-students
func (h *EducatorHandler) EnrolledStudents(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	students, err := h.enrolledStudents(user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch enrolled students")
	}

	return response.Success(c, fiber.Map{"enrolled_students": students})
}

func (h *EducatorHandler) enrolledStudents(educatorID uint) ([]EnrolledStudent, error) {
	var purchases []model.Purchase
	if err := h.db.
		Joins("JOIN courses ON courses.id = purchases.course_id").
		Where("courses.educator_id = ? AND purchases.status = ?", educatorID, model.PurchaseStatusCompleted).
		Preload("User").
		Preload("Course").
		Order("purchases.created_at DESC").
		Find(&purchases).Error; err != nil {
		return nil, err
	}

	students := make([]EnrolledStudent, 0, len(purchases))
	for _, p := range purchases {
		students = append(students, EnrolledStudent{
			CourseTitle:  p.Course.Title,
			StudentName:  p.User.Name,
			StudentImage: p.User.ImageURL,
			PurchaseDate: p.CreatedAt,
		})
	}
	return students, nil
}

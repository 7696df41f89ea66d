package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehive/model"
	"github.com/sahilchouksey/coursehive/utils/response"
	"gorm.io/gorm"
)

// EducatorApprovalHandler handles the educator role-request workflow
type EducatorApprovalHandler struct {
	db *gorm.DB
}

// NewEducatorApprovalHandler creates a new educator approval handler
func NewEducatorApprovalHandler(db *gorm.DB) *EducatorApprovalHandler {
	return &EducatorApprovalHandler{db: db}
}

// ListRequests handles GET /api/v1/admin/educator-requests
func (h *EducatorApprovalHandler) ListRequests(c *fiber.Ctx) error {
	var pending []model.User
	if err := h.db.Where("role = ?", model.RoleEducatorPending).
		Order("updated_at").
		Find(&pending).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch educator requests")
	}

	requests := make([]fiber.Map, 0, len(pending))
	for _, u := range pending {
		requests = append(requests, fiber.Map{
			"id":           u.ID,
			"name":         u.Name,
			"email":        u.Email,
			"image_url":    u.ImageURL,
			"requested_at": u.UpdatedAt,
		})
	}

	return response.Success(c, requests)
}

// Approve handles POST /api/v1/admin/educator-requests/:id/approve
func (h *EducatorApprovalHandler) Approve(c *fiber.Ctx) error {
	return h.resolve(c, model.RoleEducator, "Educator request approved")
}

// Reject handles POST /api/v1/admin/educator-requests/:id/reject
func (h *EducatorApprovalHandler) Reject(c *fiber.Ctx) error {
	return h.resolve(c, model.RoleStudent, "Educator request rejected")
}

func (h *EducatorApprovalHandler) resolve(c *fiber.Ctx, newRole, message string) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid user id")
	}

	var user model.User
	if err := h.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	if user.Role != model.RoleEducatorPending {
		return response.Conflict(c, "User has no pending educator request")
	}

	// Guarded by the current role so a double-click cannot re-resolve
	if err := h.db.Model(&model.User{}).
		Where("id = ? AND role = ?", user.ID, model.RoleEducatorPending).
		Update("role", newRole).Error; err != nil {
		return response.InternalServerError(c, "Failed to update user role")
	}

	return response.SuccessWithMessage(c, message, nil)
}

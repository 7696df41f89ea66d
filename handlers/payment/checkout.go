package payment

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehive/services/payment"
	"github.com/sahilchouksey/coursehive/utils/middleware"
	"github.com/sahilchouksey/coursehive/utils/validation"
)

// CheckoutHandler starts purchase flows for authenticated students
type CheckoutHandler struct {
	checkout  *payment.CheckoutService
	validator *validation.Validator
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout *payment.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkout:  checkout,
		validator: validation.NewValidator(),
	}
}

// PurchaseCourseRequest represents the request body for initiating a checkout
type PurchaseCourseRequest struct {
	CourseID uint `json:"course_id" validate:"required,min=1"`
}

// PurchaseCourse handles POST /api/v1/user/purchase.
// Responds with the gateway redirect URL on success.
func (h *CheckoutHandler) PurchaseCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "User not authenticated")
	}

	var req PurchaseCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, "Validation failed")
	}

	origin := c.Get("Origin")
	if origin == "" {
		origin = c.BaseURL()
	}

	sessionURL, err := h.checkout.Initiate(c.Context(), user.ID, req.CourseID, origin)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrAlreadyEnrolled):
			return fail(c, fiber.StatusConflict, "Course already purchased")
		case payment.IsNotFound(err):
			return fail(c, fiber.StatusNotFound, "Data not found")
		default:
			return fail(c, fiber.StatusInternalServerError, "Unable to start checkout")
		}
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"session_url": sessionURL,
	})
}

// fail writes the {success:false, message} shape the storefront expects
func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

package contact

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehive/model"
	"github.com/sahilchouksey/coursehive/services/mailer"
	"github.com/sahilchouksey/coursehive/utils/response"
	"github.com/sahilchouksey/coursehive/utils/validation"
	"gorm.io/gorm"
)

// ContactHandler stores contact form submissions
type ContactHandler struct {
	db        *gorm.DB
	mail      *mailer.Mailer
	validator *validation.Validator
}

// NewContactHandler creates a new contact handler
func NewContactHandler(db *gorm.DB, mail *mailer.Mailer) *ContactHandler {
	return &ContactHandler{
		db:        db,
		mail:      mail,
		validator: validation.NewValidator(),
	}
}

// ContactRequest represents a contact form submission
type ContactRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,min=5,max=5000"`
}

// Submit handles POST /api/v1/contact
func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	var req ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	msg := model.ContactMessage{
		Name:    validation.SanitizeString(req.Name),
		Email:   req.Email,
		Message: validation.SanitizeString(req.Message),
	}

	if err := h.db.Create(&msg).Error; err != nil {
		return response.InternalServerError(c, "Failed to save message")
	}

	// Best effort: a failed notification must not fail the submission
	if h.mail != nil {
		h.mail.NotifyContactMessage(msg.Name, msg.Email, msg.Message)
	}

	return response.SuccessWithMessage(c, "Message received successfully", nil)
}

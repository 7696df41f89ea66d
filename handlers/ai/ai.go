package ai

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/coursehive/services/ai"
	"github.com/sahilchouksey/coursehive/utils/response"
	"github.com/sahilchouksey/coursehive/utils/validation"
)

// AIHandler serves small AI-backed marketplace helpers
type AIHandler struct {
	client    *ai.Client
	validator *validation.Validator
}

// NewAIHandler creates a new AI handler
func NewAIHandler(client *ai.Client) *AIHandler {
	return &AIHandler{
		client:    client,
		validator: validation.NewValidator(),
	}
}

// ExtractTagsRequest represents a search-tag extraction request
type ExtractTagsRequest struct {
	Input string `json:"input" validate:"required,min=2,max=500"`
}

// CourseFactRequest represents a course-fact request
type CourseFactRequest struct {
	Topic string `json:"topic" validate:"required,min=2,max=200"`
}

// ExtractTags handles POST /api/v1/ai/tags
func (h *AIHandler) ExtractTags(c *fiber.Ctx) error {
	var req ExtractTagsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	tags, err := h.client.ExtractTags(c.Context(), req.Input)
	if err != nil {
		log.Printf("Tag extraction failed: %v", err)
		return response.InternalServerError(c, "Failed to extract tags")
	}

	return response.Success(c, fiber.Map{"tags": tags})
}

// CourseFact handles POST /api/v1/ai/fact
func (h *AIHandler) CourseFact(c *fiber.Ctx) error {
	var req CourseFactRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	fact, err := h.client.CourseFact(c.Context(), req.Topic)
	if err != nil {
		log.Printf("Course fact generation failed: %v", err)
		return response.InternalServerError(c, "Failed to generate fact")
	}

	return response.Success(c, fiber.Map{"fact": fact})
}

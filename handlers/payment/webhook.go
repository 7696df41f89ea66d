package payment

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehive/services/payment"
)

// SignatureHeader carries the gateway's HMAC over the raw request body
const SignatureHeader = "X-Gateway-Signature"

// WebhookHandler receives asynchronous payment notifications from the gateway.
// The route must see the untouched byte stream: the handler reads c.Body()
// directly and never runs the JSON body parser before signature verification.
type WebhookHandler struct {
	secret     string
	reconciler *payment.Reconciler
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhookSecret string, reconciler *payment.Reconciler) *WebhookHandler {
	return &WebhookHandler{
		secret:     webhookSecret,
		reconciler: reconciler,
	}
}

// HandleGatewayEvent handles POST /api/v1/payments/webhook.
// Status codes signal the gateway's retry policy: 2xx acknowledges, 4xx marks
// the delivery permanently failed, 5xx asks for a retry.
func (h *WebhookHandler) HandleGatewayEvent(c *fiber.Ctx) error {
	body := c.Body()

	if err := payment.VerifySignature(body, c.Get(SignatureHeader), h.secret); err != nil {
		log.Printf("[WEBHOOK] signature verification failed: %v", err)
		return c.Status(fiber.StatusUnauthorized).SendString("signature verification failed")
	}

	ev, err := payment.ParseEvent(body)
	if err != nil {
		log.Printf("[WEBHOOK] rejecting malformed event: %v", err)
		return c.Status(fiber.StatusBadRequest).SendString("malformed event")
	}

	if err := h.reconciler.HandleEvent(c.Context(), ev); err != nil {
		if payment.IsNotFound(err) {
			// Permanently missing records; a 404 stops the gateway from
			// retrying this delivery forever
			log.Printf("[WEBHOOK] event %q: %v", ev.Name, err)
			return c.Status(fiber.StatusNotFound).SendString(err.Error())
		}
		// Transient failure (store unreachable): ask the gateway to retry
		log.Printf("[WEBHOOK] event %q failed, requesting retry: %v", ev.Name, err)
		return c.Status(fiber.StatusInternalServerError).SendString("temporary failure")
	}

	return c.JSON(fiber.Map{"received": true})
}

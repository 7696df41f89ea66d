package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureTolerance bounds how old a signed webhook timestamp may be
const SignatureTolerance = 5 * time.Minute

// EventKind discriminates the payment notifications the gateway delivers
type EventKind string

const (
	EventCheckoutCompleted     EventKind = "checkout_completed"
	EventCheckoutExpired       EventKind = "checkout_expired"
	EventCheckoutPaymentFailed EventKind = "checkout_payment_failed"
	EventUnhandled             EventKind = "unhandled"
)

// Event is a verified, parsed payment notification. Events are ephemeral and
// never persisted; the Purchase row is the durable record.
type Event struct {
	Kind       EventKind
	Name       string // raw event name as delivered, kept for logging
	PurchaseID uint
	TxnRef     string
}

type eventPayload struct {
	Event string `json:"event"`
	Data  struct {
		PurchaseID     string `json:"purchase_id"`
		TransactionRef string `json:"transaction_ref"`
	} `json:"data"`
}

// VerifySignature checks the gateway signature header against the exact raw
// request body. The header format is "t=<unix>,v1=<hex hmac-sha256>" where the
// MAC is computed over "<unix>.<body>". Verification must run on the untouched
// byte stream; a re-serialized body would defeat the check.
func VerifySignature(payload []byte, header, secret string) error {
	var timestamp, signature string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signature = value
		}
	}

	if timestamp == "" || signature == "" {
		return ErrBadSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrBadSignature
	}

	age := time.Since(time.Unix(ts, 0))
	if age > SignatureTolerance || age < -SignatureTolerance {
		return ErrBadSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrBadSignature
	}

	return nil
}

// SignPayload produces a signature header for a payload. Used by the webhook
// simulator in development and by tests.
func SignPayload(payload []byte, secret string, at time.Time) string {
	timestamp := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

// ParseEvent decodes a verified payload into a discriminated Event. Unknown
// event names parse as EventUnhandled; they are acknowledged, not failed, so
// the gateway does not retry them.
func ParseEvent(payload []byte) (Event, error) {
	var raw eventPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{}, fmt.Errorf("malformed event payload: %w", err)
	}

	ev := Event{Name: raw.Event, TxnRef: raw.Data.TransactionRef}

	switch raw.Event {
	case string(EventCheckoutCompleted):
		ev.Kind = EventCheckoutCompleted
	case string(EventCheckoutExpired):
		ev.Kind = EventCheckoutExpired
	case string(EventCheckoutPaymentFailed):
		ev.Kind = EventCheckoutPaymentFailed
	default:
		ev.Kind = EventUnhandled
		return ev, nil
	}

	// The three checkout events all reference a purchase
	id, err := strconv.ParseUint(raw.Data.PurchaseID, 10, 32)
	if err != nil {
		return Event{}, fmt.Errorf("event %q carries invalid purchase id %q", raw.Event, raw.Data.PurchaseID)
	}
	ev.PurchaseID = uint(id)

	return ev, nil
}

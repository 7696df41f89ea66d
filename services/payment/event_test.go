package payment

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

const testSecret = "whsec_test_secret"

func TestSignAndVerify(t *testing.T) {
	payload := []byte(`{"event":"checkout_completed","data":{"purchase_id":"7","transaction_ref":"txn_123"}}`)

	header := SignPayload(payload, testSecret, time.Now())
	if err := VerifySignature(payload, header, testSecret); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	payload := []byte(`{"event":"checkout_completed","data":{"purchase_id":"7","transaction_ref":"txn_123"}}`)
	header := SignPayload(payload, testSecret, time.Now())

	// Flip a single byte: purchase 7 becomes purchase 8
	tampered := make([]byte, len(payload))
	copy(tampered, payload)
	for i := range tampered {
		if tampered[i] == '7' {
			tampered[i] = '8'
			break
		}
	}

	if err := VerifySignature(tampered, header, testSecret); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("tampered payload accepted, err = %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"event":"checkout_completed"}`)
	header := SignPayload(payload, testSecret, time.Now())

	if err := VerifySignature(payload, header, "other_secret"); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("wrong secret accepted, err = %v", err)
	}
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	payload := []byte(`{"event":"checkout_completed"}`)

	stale := SignPayload(payload, testSecret, time.Now().Add(-SignatureTolerance-time.Minute))
	if err := VerifySignature(payload, stale, testSecret); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("stale timestamp accepted, err = %v", err)
	}

	future := SignPayload(payload, testSecret, time.Now().Add(SignatureTolerance+time.Minute))
	if err := VerifySignature(payload, future, testSecret); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("future timestamp accepted, err = %v", err)
	}
}

func TestVerifyRejectsMalformedHeader(t *testing.T) {
	payload := []byte(`{}`)
	headers := []string{
		"",
		"garbage",
		"t=1234567890",
		"v1=deadbeef",
		fmt.Sprintf("t=notanumber,v1=%s", "deadbeef"),
	}

	for _, header := range headers {
		if err := VerifySignature(payload, header, testSecret); !errors.Is(err, ErrBadSignature) {
			t.Errorf("header %q accepted, err = %v", header, err)
		}
	}
}

func TestParseEventKinds(t *testing.T) {
	cases := []struct {
		event string
		want  EventKind
	}{
		{"checkout_completed", EventCheckoutCompleted},
		{"checkout_expired", EventCheckoutExpired},
		{"checkout_payment_failed", EventCheckoutPaymentFailed},
	}

	for _, tc := range cases {
		t.Run(tc.event, func(t *testing.T) {
			payload := fmt.Sprintf(`{"event":%q,"data":{"purchase_id":"42","transaction_ref":"txn_9"}}`, tc.event)
			ev, err := ParseEvent([]byte(payload))
			if err != nil {
				t.Fatalf("ParseEvent failed: %v", err)
			}
			if ev.Kind != tc.want {
				t.Errorf("kind = %q, want %q", ev.Kind, tc.want)
			}
			if ev.PurchaseID != 42 {
				t.Errorf("purchase id = %d, want 42", ev.PurchaseID)
			}
			if ev.TxnRef != "txn_9" {
				t.Errorf("txn ref = %q, want txn_9", ev.TxnRef)
			}
		})
	}
}

func TestParseEventUnknownNameIsUnhandled(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"event":"invoice.created","data":{}}`))
	if err != nil {
		t.Fatalf("unknown event should parse cleanly, got %v", err)
	}
	if ev.Kind != EventUnhandled {
		t.Errorf("kind = %q, want unhandled", ev.Kind)
	}
	if ev.Name != "invoice.created" {
		t.Errorf("raw name = %q, want invoice.created", ev.Name)
	}
}

func TestParseEventInvalidPurchaseID(t *testing.T) {
	_, err := ParseEvent([]byte(`{"event":"checkout_completed","data":{"purchase_id":"abc"}}`))
	if err == nil {
		t.Fatal("expected an error for a non-numeric purchase id")
	}
}

func TestParseEventMalformedJSON(t *testing.T) {
	_, err := ParseEvent([]byte(`{"event":`))
	if err == nil {
		t.Fatal("expected an error for truncated JSON")
	}
}

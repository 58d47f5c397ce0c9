package audit

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iho/paymaster/internal/domain"
)

func TestEmitWritesStructuredEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := NewEmitter(logger, nil)
	e.Emit(domain.EventAuthorizationDenied, map[string]any{
		"agent_id": "agent-a",
		"reason":   "exceeds per-request limit",
	})

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("audit output is not JSON: %v", err)
	}
	if event["audit_event"] != domain.EventAuthorizationDenied {
		t.Fatalf("audit_event = %v, want %s", event["audit_event"], domain.EventAuthorizationDenied)
	}
	if event["agent_id"] != "agent-a" {
		t.Fatalf("agent_id = %v, want agent-a", event["agent_id"])
	}
	if event["stream"] != "audit" {
		t.Fatalf("stream = %v, want audit", event["stream"])
	}
}

func TestEmitNilEmitterIsSafe(t *testing.T) {
	var e *Emitter
	e.Emit(domain.EventReservationTaken, nil)
}

package model

import (
	"strings"
	"testing"
)

func TestDecodeEvent(t *testing.T) {
	data := []byte(`{"type":"agent_created","agent_id":3,"task_name":"add a README badge"}`)
	ev, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != EventAgentCreated {
		t.Fatalf("expected agent_created, got %q", ev.Type)
	}
	if ev.Slot != 3 {
		t.Fatalf("expected slot 3, got %d", ev.Slot)
	}
	if ev.TaskName != "add a README badge" {
		t.Fatalf("unexpected task name %q", ev.TaskName)
	}
}

func TestDecodeEventRejectsUnknownType(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type":"agent_exploded","agent_id":1}`))
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

func TestDecodeEventRejectsBadSlot(t *testing.T) {
	for _, slot := range []string{"0", "10", "-2"} {
		_, err := DecodeEvent([]byte(`{"type":"agent_start_working","agent_id":` + slot + `}`))
		if err == nil {
			t.Fatalf("expected error for slot %s", slot)
		}
	}
}

func TestEventRoundTrip(t *testing.T) {
	ev := AgentStartTesting(5, "https://preview.example", "https://replay.example")
	data, err := ev.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(data), `"agent_id":5`) {
		t.Fatalf("expected agent_id field, got %s", data)
	}
	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != ev {
		t.Fatalf("round trip mismatch: %+v != %+v", got, ev)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello world", 8); got != "hello..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := Truncate("short", 72); got != "short" {
		t.Fatalf("expected unchanged string, got %q", got)
	}
}

func TestStageTerminal(t *testing.T) {
	for _, s := range []Stage{StageQueued, StageProvisioning, StageExecuting, StageIntegrating, StageValidating} {
		if s.Terminal() {
			t.Fatalf("stage %s should not be terminal", s)
		}
	}
	if !StageSucceeded.Terminal() || !StageFailed.Terminal() {
		t.Fatal("expected succeeded/failed to be terminal")
	}
}

package model

import (
	"encoding/json"
	"fmt"
)

// EventType identifies one of the fixed lifecycle event kinds broadcast to
// observers. Events carry no sequence numbers: receivers must tolerate
// duplicates and arbitrary arrival order.
type EventType string

const (
	EventAgentCreated      EventType = "agent_created"
	EventAgentStartWorking EventType = "agent_start_working"
	EventAgentStartTesting EventType = "agent_start_testing"
)

// Event is a lifecycle event addressed to an agent slot. Each event type uses
// a fixed subset of the fields; DecodeEvent enforces the closed set of types.
type Event struct {
	Type EventType `json:"type"`

	// Slot is the logical agent identifier (1..9), reused across jobs.
	Slot int `json:"agent_id"`

	// TaskName is set on agent_created.
	TaskName string `json:"task_name,omitempty"`

	// PreviewLink and ValidationLink are set on agent_start_testing. They may
	// be empty when no validation ran.
	PreviewLink    string `json:"preview_link,omitempty"`
	ValidationLink string `json:"validation_link,omitempty"`
}

// MaxSlot bounds the slot identifier space.
const MaxSlot = 9

// AgentCreated builds an agent_created event for a slot.
func AgentCreated(slot int, taskName string) Event {
	return Event{Type: EventAgentCreated, Slot: slot, TaskName: taskName}
}

// AgentStartWorking builds an agent_start_working event for a slot.
func AgentStartWorking(slot int) Event {
	return Event{Type: EventAgentStartWorking, Slot: slot}
}

// AgentStartTesting builds an agent_start_testing event carrying the preview
// and validation links (either may be empty).
func AgentStartTesting(slot int, previewLink, validationLink string) Event {
	return Event{
		Type:           EventAgentStartTesting,
		Slot:           slot,
		PreviewLink:    previewLink,
		ValidationLink: validationLink,
	}
}

// DecodeEvent parses a wire-level JSON event and validates its type tag and
// slot bounds.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decoding event: %w", err)
	}
	switch ev.Type {
	case EventAgentCreated, EventAgentStartWorking, EventAgentStartTesting:
	default:
		return Event{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.Slot < 1 || ev.Slot > MaxSlot {
		return Event{}, fmt.Errorf("slot %d out of range 1..%d", ev.Slot, MaxSlot)
	}
	return ev, nil
}

// Encode serializes the event to its wire JSON form.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Package mqtt publishes controller events with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"
)

// Topic is the MQTT topic for device action events.
const Topic = "irrigation/controller/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "irrigation/controller/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a device action event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event DeviceEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// DeviceEvent records one device action performed by the dispatcher or a
// scheduled task.
type DeviceEvent struct {
	Timestamp time.Time
	Device    string  // device tag, e.g. "pump1", "servo"
	Action    string  // "ON", "OFF", "AUTO_OFF", "MOVE"
	Channel   int     // relay or PWM channel
	Duration  int     // seconds, timed on only
	Angle     float64 // degrees, servo only
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Device DevicePayload `json:"device"`
}

// DevicePayload contains the device event details.
type DevicePayload struct {
	Timestamp string   `json:"timestamp"`
	Name      string   `json:"name"`
	Action    string   `json:"action"`
	Channel   int      `json:"channel"`
	Duration  int      `json:"duration_s,omitempty"`
	Angle     *float64 `json:"angle,omitempty"`
}

// FormatPayload creates the JSON payload for a device event.
func FormatPayload(event DeviceEvent) ([]byte, error) {
	p := Payload{
		Device: DevicePayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Name:      event.Device,
			Action:    event.Action,
			Channel:   event.Channel,
			Duration:  event.Duration,
		},
	}
	if event.Action == "MOVE" {
		angle := event.Angle
		p.Device.Angle = &angle
	}
	return json.Marshal(p)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

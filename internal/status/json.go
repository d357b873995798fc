package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status event payloads.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string            `json:"event,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	Relays        map[string]string `json:"relays"`
	Servo         float64           `json:"servo"`
	TaskCount     int               `json:"task_count"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	StartTime     string            `json:"start_time"`
	Timestamp     string            `json:"timestamp"`
	MQTT          MQTTStatus        `json:"mqtt"`
	Config        ConfigJSON        `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	HTTPAddr        string `json:"http_addr"`
	Broker          string `json:"broker"`
	TaskFile        string `json:"task_file"`
	MaxTasks        int    `json:"max_tasks"`
	CheckIntervalMs int64  `json:"check_interval_ms"`
}

func buildInner(snap Snapshot) StatusInner {
	relays := make(map[string]string, len(snap.Relays))
	for ch, on := range snap.Relays {
		state := "OFF"
		if on {
			state = "ON"
		}
		name := ""
		if ch < len(snap.Devices) {
			name = snap.Devices[ch]
		}
		relays[name] = state
	}

	return StatusInner{
		Relays:        relays,
		Servo:         snap.ServoAngle,
		TaskCount:     snap.TaskCount,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			HTTPAddr:        snap.Config.HTTPAddr,
			Broker:          snap.Config.Broker,
			TaskFile:        snap.Config.TaskFile,
			MaxTasks:        snap.Config.MaxTasks,
			CheckIntervalMs: snap.Config.CheckIntervalMs,
		},
	}
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

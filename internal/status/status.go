// Package status provides a thread-safe status tracker for the controller
// daemon. It is read by the HTTP /status handler and by MQTT system events.
package status

import (
	"sync"
	"time"
)

// Config contains daemon configuration for display.
type Config struct {
	HTTPAddr        string
	Broker          string
	TaskFile        string
	MaxTasks        int
	CheckIntervalMs int64
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type with private copies of its slices, safe to use after
// the lock is released.
type Snapshot struct {
	Relays        []bool   // logical on/off per relay channel
	Devices       []string // device tag per relay channel
	ServoAngle    float64
	TaskCount     int
	MQTTConnected bool
	StartTime     time.Time
	Now           time.Time
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker. devices names each relay channel in order.
func NewTracker(startTime time.Time, devices []string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Relays:     make([]bool, len(devices)),
			Devices:    devices,
			ServoAngle: 90,
			StartTime:  startTime,
			Config:     cfg,
		},
	}
}

// SetRelay records the logical state of one relay channel.
func (t *Tracker) SetRelay(channel int, on bool) {
	t.mu.Lock()
	if channel >= 0 && channel < len(t.snap.Relays) {
		t.snap.Relays[channel] = on
	}
	t.mu.Unlock()
}

// SetRelays records the logical state of every relay channel.
func (t *Tracker) SetRelays(states []bool) {
	t.mu.Lock()
	copy(t.snap.Relays, states)
	t.mu.Unlock()
}

// SetServoAngle records the last commanded servo angle.
func (t *Tracker) SetServoAngle(angle float64) {
	t.mu.Lock()
	t.snap.ServoAngle = angle
	t.mu.Unlock()
}

// SetTaskCount records the number of stored scheduled tasks.
func (t *Tracker) SetTaskCount(n int) {
	t.mu.Lock()
	t.snap.TaskCount = n
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Relays = make([]bool, len(t.snap.Relays))
	copy(s.Relays, t.snap.Relays)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sweeney/irrigation-controller/internal/mqtt"
	"github.com/sweeney/irrigation-controller/internal/pca9685"
	"github.com/sweeney/irrigation-controller/internal/servo"
	"github.com/sweeney/irrigation-controller/internal/tasks"
)

// relayCommand is a fully validated relay request. No raw string reaches the
// relay bank.
type relayCommand struct {
	channel  int
	on       bool
	duration int // seconds; 0 = untimed
}

// parseRelayCommand validates the path and query of a relay request.
func (s *Server) parseRelayCommand(r *http.Request) (relayCommand, error) {
	var cmd relayCommand

	chParam := chi.URLParam(r, "channel")
	channel, err := strconv.Atoi(chParam)
	if err != nil {
		return cmd, fmt.Errorf("Invalid channel: %q", chParam)
	}
	if channel < 0 || channel >= s.relays.Size() {
		return cmd, fmt.Errorf("Invalid channel: %d (valid 0-%d)", channel, s.relays.Size()-1)
	}
	cmd.channel = channel

	switch action := chi.URLParam(r, "action"); action {
	case "on":
		cmd.on = true
	case "off":
		cmd.on = false
	default:
		return cmd, fmt.Errorf("Invalid action: %q (valid: on, off)", action)
	}

	if raw := r.URL.Query().Get("duration"); raw != "" {
		if !cmd.on {
			return cmd, fmt.Errorf("duration is only valid when turning a relay on")
		}
		d, err := strconv.Atoi(raw)
		if err != nil {
			return cmd, fmt.Errorf("Invalid duration: %q", raw)
		}
		max := s.cfg.AutoOff.MaxDurationSeconds
		if d < 1 || d > max {
			return cmd, fmt.Errorf("Invalid duration: %d (valid 1-%d seconds)", d, max)
		}
		cmd.duration = d
	}

	return cmd, nil
}

func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	cmd, err := s.parseRelayCommand(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if cmd.on {
		if err := s.relays.On(cmd.channel); err != nil {
			log.Printf("web: relay %d on: %v", cmd.channel, err)
			writeError(w, http.StatusInternalServerError, "Relay hardware error")
			return
		}
		s.tracker.SetRelay(cmd.channel, true)
		s.publish(mqtt.DeviceEvent{
			Device:   s.deviceName(cmd.channel),
			Action:   "ON",
			Channel:  cmd.channel,
			Duration: cmd.duration,
		})

		if cmd.duration > 0 {
			s.autoOff.ScheduleOff(cmd.channel, time.Duration(cmd.duration)*time.Second)
			writeSuccess(w, fmt.Sprintf("Relay %d turned ON for %d seconds", cmd.channel, cmd.duration))
			return
		}
		writeSuccess(w, fmt.Sprintf("Relay %d turned ON", cmd.channel))
		return
	}

	if err := s.relays.Off(cmd.channel); err != nil {
		log.Printf("web: relay %d off: %v", cmd.channel, err)
		writeError(w, http.StatusInternalServerError, "Relay hardware error")
		return
	}
	s.tracker.SetRelay(cmd.channel, false)
	s.publish(mqtt.DeviceEvent{
		Device:  s.deviceName(cmd.channel),
		Action:  "OFF",
		Channel: cmd.channel,
	})
	writeSuccess(w, fmt.Sprintf("Relay %d turned OFF", cmd.channel))
}

func (s *Server) handleServo(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "angle")
	angle, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid angle: %q", raw))
		return
	}

	if err := s.servo.SetAngle(angle); err != nil {
		switch {
		case errors.Is(err, servo.ErrInvalidAngle):
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid angle: %s (valid 0-180)", raw))
		case errors.Is(err, pca9685.ErrBus):
			log.Printf("web: servo: %v", err)
			writeError(w, http.StatusBadGateway, "PWM controller communication error")
		default:
			log.Printf("web: servo: %v", err)
			writeError(w, http.StatusInternalServerError, "Servo hardware error")
		}
		return
	}

	s.tracker.SetServoAngle(angle)
	s.publish(mqtt.DeviceEvent{
		Device:  "servo",
		Action:  "MOVE",
		Channel: s.cfg.Servo.Channel,
		Angle:   angle,
	})
	writeSuccess(w, fmt.Sprintf("Servo set to %s degrees", strconv.FormatFloat(angle, 'f', -1, 64)))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()

	relays := make(map[string]string, len(snap.Relays))
	for ch, on := range snap.Relays {
		state := "OFF"
		if on {
			state = "ON"
		}
		relays[snap.Devices[ch]] = state
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, http.StatusOK, StatusResponse{
		Status: "success",
		Time: TimeJSON{
			Date: snap.Now.Format("2006-01-02"),
			Time: snap.Now.Format("15:04:05"),
			Unix: snap.Now.Unix(),
		},
		Devices: DevicesJSON{
			Relays: relays,
			Servo:  snap.ServoAngle,
		},
		Memory: MemoryJSON{
			Free: mem.HeapSys - mem.HeapAlloc,
			Used: mem.HeapAlloc,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		TaskCount:     snap.TaskCount,
	})
}

func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	writeJSON(w, http.StatusOK, struct {
		Status string   `json:"status"`
		Time   TimeJSON `json:"time"`
	}{
		Status: "success",
		Time: TimeJSON{
			Date: now.Format("2006-01-02"),
			Time: now.Format("15:04:05"),
			Unix: now.Unix(),
		},
	})
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	list := s.store.List()
	out := make([]TaskJSON, len(list))
	for i, t := range list {
		out[i] = TaskJSON{Date: t.Date, Time: t.Time, Device: t.Device, Duration: t.Duration}
	}
	writeJSON(w, http.StatusOK, TaskListResponse{
		Status: "success",
		Count:  len(out),
		Tasks:  out,
	})
}

func (s *Server) handleTaskAdd(w http.ResponseWriter, r *http.Request) {
	var req TaskJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid date: %q (format YYYY-MM-DD)", req.Date))
		return
	}
	if _, err := time.Parse("15:04", req.Time); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid time: %q (format HH:MM)", req.Time))
		return
	}
	dev, ok := s.cfg.DeviceByName(req.Device)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid device: %q", req.Device))
		return
	}
	if req.Duration < 1 || req.Duration > dev.MaxDurationSeconds {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid duration: %d (valid 1-%d seconds for %s)", req.Duration, dev.MaxDurationSeconds, dev.Name))
		return
	}

	err := s.store.Add(tasks.Task{Date: req.Date, Time: req.Time, Device: req.Device, Duration: req.Duration})
	if err != nil {
		if errors.Is(err, tasks.ErrCapacityExceeded) {
			writeError(w, http.StatusBadRequest, "Maximum number of tasks reached")
			return
		}
		log.Printf("web: add task: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save task")
		return
	}
	s.tracker.SetTaskCount(s.store.Len())
	writeSuccess(w, "Task scheduled successfully")
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	index, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid task index: %q", raw))
		return
	}

	if err := s.store.Delete(index); err != nil {
		if errors.Is(err, tasks.ErrIndexOutOfRange) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid task index: %d", index))
			return
		}
		log.Printf("web: delete task: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save tasks")
		return
	}
	s.tracker.SetTaskCount(s.store.Len())
	writeSuccess(w, "Task deleted successfully")
}

// publish sends a device event when MQTT is enabled. Failures are logged,
// never surfaced to the HTTP caller.
func (s *Server) publish(event mqtt.DeviceEvent) {
	if s.events == nil {
		return
	}
	event.Timestamp = time.Now()
	if err := s.events.Publish(event); err != nil {
		log.Printf("web: publish event: %v", err)
	}
}

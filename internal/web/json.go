package web

import (
	"encoding/json"
	"net/http"
)

// Response is the JSON envelope for control endpoints.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// StatusResponse is the JSON body for GET /status.
type StatusResponse struct {
	Status        string      `json:"status"`
	Time          TimeJSON    `json:"time"`
	Devices       DevicesJSON `json:"devices"`
	Memory        MemoryJSON  `json:"memory"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	TaskCount     int         `json:"task_count"`
}

// TimeJSON is the current wall-clock time.
type TimeJSON struct {
	Date string `json:"date"` // YYYY-MM-DD
	Time string `json:"time"` // HH:MM:SS
	Unix int64  `json:"unix"`
}

// DevicesJSON reports device states.
type DevicesJSON struct {
	Relays map[string]string `json:"relays"` // device tag -> "ON"/"OFF"
	Servo  float64           `json:"servo"`  // degrees
}

// MemoryJSON reports heap usage.
type MemoryJSON struct {
	Free uint64 `json:"free"`
	Used uint64 `json:"used"`
}

// TaskListResponse is the JSON body for GET /api/tasks.
type TaskListResponse struct {
	Status string     `json:"status"`
	Count  int        `json:"count"`
	Tasks  []TaskJSON `json:"tasks"`
}

// TaskJSON is one scheduled task in API responses and in the add-task
// request body.
type TaskJSON struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Device   string `json:"device"`
	Duration int    `json:"duration"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, Response{Status: "success", Message: message})
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, Response{Status: "error", Message: message})
}

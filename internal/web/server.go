// Package web is the HTTP control surface for the controller daemon. It
// parses and validates every inbound request before touching a device and
// converts all device errors into structured JSON responses.
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sweeney/irrigation-controller/internal/config"
	"github.com/sweeney/irrigation-controller/internal/mqtt"
	"github.com/sweeney/irrigation-controller/internal/status"
	"github.com/sweeney/irrigation-controller/internal/tasks"
)

// Relays is the relay bank surface the dispatcher needs.
type Relays interface {
	On(channel int) error
	Off(channel int) error
	Size() int
	States() []bool
}

// Servo positions the servo valve.
type Servo interface {
	SetAngle(angle float64) error
	Angle() float64
}

// Scheduler schedules deferred relay shutoffs.
type Scheduler interface {
	ScheduleOff(channel int, d time.Duration)
}

// Options collects the dispatcher's collaborators. Events may be nil to
// disable MQTT publishing.
type Options struct {
	Config  *config.Config
	Relays  Relays
	Servo   Servo
	AutoOff Scheduler
	Store   *tasks.Store
	Tracker *status.Tracker
	Events  mqtt.Publisher
}

// Server serves the device control API over HTTP.
type Server struct {
	httpServer *http.Server

	cfg     *config.Config
	relays  Relays
	servo   Servo
	autoOff Scheduler
	store   *tasks.Store
	tracker *status.Tracker
	events  mqtt.Publisher
	names   []string // device tag per relay channel
}

// New creates a Server listening on addr.
func New(addr string, opts Options) *Server {
	s := &Server{
		cfg:     opts.Config,
		relays:  opts.Relays,
		servo:   opts.Servo,
		autoOff: opts.AutoOff,
		store:   opts.Store,
		tracker: opts.Tracker,
		events:  opts.Events,
		names:   opts.Config.DeviceNames(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Get("/relay/{channel}/{action}", s.handleRelay)
	r.Get("/servo/{angle}", s.handleServo)
	r.Get("/status", s.handleStatus)
	r.Get("/api/time", s.handleTime)
	r.Get("/api/tasks", s.handleTaskList)
	r.Post("/api/task/add", s.handleTaskAdd)
	r.Post("/api/task/{id}/delete", s.handleTaskDelete)
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, "Not found: "+req.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// deviceName returns the device tag for a relay channel.
func (s *Server) deviceName(channel int) string {
	if channel >= 0 && channel < len(s.names) {
		return s.names[channel]
	}
	return ""
}

package tasks

import (
	"fmt"
	"log"
	"time"
)

// Executor performs a scheduled action: turn the named device on for the
// given number of seconds.
type Executor interface {
	Execute(device string, duration int) error
}

// Runner checks the store for due tasks. It is driven by the main loop's
// ticker; time is always passed in so tests control the clock.
type Runner struct {
	store *Store
	exec  Executor
}

// NewRunner creates a Runner over the given store and executor.
func NewRunner(store *Store, exec Executor) *Runner {
	return &Runner{store: store, exec: exec}
}

// CheckDue executes at most one task whose date and time match the current
// minute, then removes that task from the store. Removal is by value, not by
// snapshot index: the store is unlocked while the executor runs, so an API
// deletion landing mid-execution may shift indices, and an index captured
// before execution could remove the wrong task.
func (r *Runner) CheckDue(now time.Time) (bool, error) {
	date := now.Format("2006-01-02")
	hm := now.Format("15:04")

	for _, t := range r.store.List() {
		if t.Date != date || t.Time != hm {
			continue
		}
		log.Printf("tasks: executing scheduled task: %s for %ds", t.Device, t.Duration)
		if err := r.exec.Execute(t.Device, t.Duration); err != nil {
			// Leave the task in place; it stays due for the rest of the minute.
			return false, fmt.Errorf("execute %s: %w", t.Device, err)
		}
		if err := r.store.Remove(t); err != nil {
			return true, fmt.Errorf("remove executed task: %w", err)
		}
		return true, nil
	}
	return false, nil
}

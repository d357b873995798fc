// Package tasks persists scheduled device actions and executes them when
// their minute arrives.
package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
)

// ErrCapacityExceeded is returned by Add when the store is full.
var ErrCapacityExceeded = errors.New("tasks: maximum number of tasks reached")

// ErrIndexOutOfRange is returned by Delete for an invalid index.
var ErrIndexOutOfRange = errors.New("tasks: index out of range")

// DefaultMaxTasks bounds the store so the task file stays small.
const DefaultMaxTasks = 20

// Task is one scheduled action. A task is identified by its index in the
// store; indices shift on deletion.
type Task struct {
	Date     string `json:"date"`     // "YYYY-MM-DD"
	Time     string `json:"time"`     // "HH:MM", 24-hour
	Device   string `json:"device"`   // device tag, e.g. "pump1"
	Duration int    `json:"duration"` // seconds
}

// Store holds scheduled tasks in memory and rewrites the backing JSON file
// on every mutation. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	path     string
	maxTasks int
	tasks    []Task
}

// Open loads the store from path. A missing or corrupt file starts an empty
// store; startup must not fail on bad task data.
func Open(path string, maxTasks int) *Store {
	if maxTasks <= 0 {
		maxTasks = DefaultMaxTasks
	}
	s := &Store{path: path, maxTasks: maxTasks}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("tasks: read %s: %v, starting empty", path, err)
		}
		return s
	}
	if err := json.Unmarshal(data, &s.tasks); err != nil {
		log.Printf("tasks: corrupt task file %s: %v, starting empty", path, err)
		s.tasks = nil
		return s
	}
	log.Printf("tasks: loaded %d scheduled tasks from %s", len(s.tasks), path)
	return s
}

// Add appends a task and persists the store.
func (s *Store) Add(t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tasks) >= s.maxTasks {
		return fmt.Errorf("%w (%d)", ErrCapacityExceeded, s.maxTasks)
	}
	s.tasks = append(s.tasks, t)
	if err := s.flush(); err != nil {
		s.tasks = s.tasks[:len(s.tasks)-1]
		return err
	}
	return nil
}

// Delete removes the task at index and persists the store.
func (s *Store) Delete(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.tasks) {
		return fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, index, len(s.tasks))
	}
	return s.removeAt(index)
}

// Remove deletes the first stored task field-equal to t and persists the
// store. Removal is by value, not index, so it stays correct when concurrent
// deletions have shifted indices since the caller listed the tasks. A task
// that is no longer stored is not an error.
func (s *Store) Remove(t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, have := range s.tasks {
		if have == t {
			return s.removeAt(i)
		}
	}
	return nil
}

// removeAt deletes the task at index, rolling the slice back if the flush
// fails so memory never diverges from disk. Caller holds the lock and has
// validated the index.
func (s *Store) removeAt(index int) error {
	removed := s.tasks[index]
	s.tasks = append(s.tasks[:index], s.tasks[index+1:]...)
	if err := s.flush(); err != nil {
		tail := append([]Task{removed}, s.tasks[index:]...)
		s.tasks = append(s.tasks[:index], tail...)
		return err
	}
	log.Printf("tasks: deleted %s on %s at %s", removed.Device, removed.Date, removed.Time)
	return nil
}

// List returns a copy of the tasks in insertion order. No I/O.
func (s *Store) List() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Len returns the number of stored tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// flush rewrites the whole task file. Write-to-temp then rename, so a crash
// mid-write cannot corrupt the existing file. Caller holds the lock.
func (s *Store) flush() error {
	data, err := json.Marshal(s.tasks)
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename task file: %w", err)
	}
	return nil
}

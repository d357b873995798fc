package tasks

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func tempStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "tasks.json")
}

func sampleTask(i int) Task {
	return Task{
		Date:     "2026-09-01",
		Time:     fmt.Sprintf("08:%02d", i),
		Device:   "pump1",
		Duration: 30,
	}
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	s := Open(tempStorePath(t), DefaultMaxTasks)
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestOpenCorruptFileStartsEmpty(t *testing.T) {
	path := tempStorePath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	s := Open(path, DefaultMaxTasks)
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0 after corrupt file", s.Len())
	}

	// The store must still be writable after recovery.
	if err := s.Add(sampleTask(0)); err != nil {
		t.Errorf("Add after corrupt load: %v", err)
	}
}

func TestAddUpToCapacity(t *testing.T) {
	s := Open(tempStorePath(t), DefaultMaxTasks)

	for i := 0; i < DefaultMaxTasks; i++ {
		if err := s.Add(sampleTask(i)); err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
	}
	if s.Len() != DefaultMaxTasks {
		t.Fatalf("Len = %d, want %d", s.Len(), DefaultMaxTasks)
	}

	err := s.Add(sampleTask(DefaultMaxTasks))
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("21st Add: got %v, want ErrCapacityExceeded", err)
	}
	if s.Len() != DefaultMaxTasks {
		t.Errorf("Len after rejected add = %d, want %d", s.Len(), DefaultMaxTasks)
	}
}

func TestDeleteBounds(t *testing.T) {
	s := Open(tempStorePath(t), DefaultMaxTasks)

	if err := s.Delete(0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Delete on empty store: got %v, want ErrIndexOutOfRange", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.Add(sampleTask(i)); err != nil {
			t.Fatal(err)
		}
	}
	for _, idx := range []int{-1, 3, 100} {
		if err := s.Delete(idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Delete(%d): got %v, want ErrIndexOutOfRange", idx, err)
		}
	}

	if err := s.Delete(1); err != nil {
		t.Fatalf("Delete(1): %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len after delete = %d, want 2", s.Len())
	}

	// Later tasks shift down.
	want := []Task{sampleTask(0), sampleTask(2)}
	if diff := cmp.Diff(want, s.List()); diff != "" {
		t.Errorf("tasks after delete mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveDeletesFirstMatch(t *testing.T) {
	s := Open(tempStorePath(t), DefaultMaxTasks)
	dup := sampleTask(1)
	for _, task := range []Task{sampleTask(0), dup, dup} {
		if err := s.Add(task); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Remove(dup); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	// Only the first of the two equal tasks is gone.
	want := []Task{sampleTask(0), dup}
	if diff := cmp.Diff(want, s.List()); diff != "" {
		t.Errorf("tasks after remove mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveMissingTaskIsNoOp(t *testing.T) {
	s := Open(tempStorePath(t), DefaultMaxTasks)
	if err := s.Add(sampleTask(0)); err != nil {
		t.Fatal(err)
	}

	if err := s.Remove(sampleTask(7)); err != nil {
		t.Errorf("Remove of absent task: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestRemovePersists(t *testing.T) {
	path := tempStorePath(t)
	s := Open(path, DefaultMaxTasks)
	for i := 0; i < 3; i++ {
		if err := s.Add(sampleTask(i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Remove(sampleTask(1)); err != nil {
		t.Fatal(err)
	}

	reloaded := Open(path, DefaultMaxTasks)
	if diff := cmp.Diff(s.List(), reloaded.List()); diff != "" {
		t.Errorf("persisted state mismatch (-mem +disk):\n%s", diff)
	}
}

func TestDeleteRollsBackOnFlushFailure(t *testing.T) {
	path := tempStorePath(t)
	s := Open(path, DefaultMaxTasks)
	want := []Task{sampleTask(0), sampleTask(1), sampleTask(2)}
	for _, task := range want {
		if err := s.Add(task); err != nil {
			t.Fatal(err)
		}
	}

	// Turn the rename target into a directory so the flush fails.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(1); err == nil {
		t.Fatal("expected flush failure")
	}

	// Memory must still match the last persisted state.
	if diff := cmp.Diff(want, s.List()); diff != "" {
		t.Errorf("store mutated despite failed flush (-want +got):\n%s", diff)
	}
}

func TestRoundTripPersistence(t *testing.T) {
	path := tempStorePath(t)
	s := Open(path, DefaultMaxTasks)

	var want []Task
	for i := 0; i < 5; i++ {
		task := sampleTask(i)
		task.Device = fmt.Sprintf("pump%d", i%3+1)
		task.Duration = (i + 1) * 60
		if err := s.Add(task); err != nil {
			t.Fatal(err)
		}
		want = append(want, task)
	}

	reloaded := Open(path, DefaultMaxTasks)
	if diff := cmp.Diff(want, reloaded.List()); diff != "" {
		t.Errorf("reloaded tasks mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteRePersists(t *testing.T) {
	path := tempStorePath(t)
	s := Open(path, DefaultMaxTasks)
	for i := 0; i < 3; i++ {
		if err := s.Add(sampleTask(i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Delete(0); err != nil {
		t.Fatal(err)
	}

	reloaded := Open(path, DefaultMaxTasks)
	if diff := cmp.Diff(s.List(), reloaded.List()); diff != "" {
		t.Errorf("persisted state mismatch (-mem +disk):\n%s", diff)
	}
}

func TestFlushLeavesNoTempFile(t *testing.T) {
	path := tempStorePath(t)
	s := Open(path, DefaultMaxTasks)
	if err := s.Add(sampleTask(0)); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind after flush")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("task file missing after flush: %v", err)
	}
}

func TestListIsACopy(t *testing.T) {
	s := Open(tempStorePath(t), DefaultMaxTasks)
	if err := s.Add(sampleTask(0)); err != nil {
		t.Fatal(err)
	}
	list := s.List()
	list[0].Device = "mangled"
	if s.List()[0].Device != "pump1" {
		t.Error("List returned a reference into the store")
	}
}

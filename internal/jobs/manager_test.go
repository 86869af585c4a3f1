package jobs

import (
	"errors"
	"testing"

	"vr8-converter/internal/domain"
)

// TestManagerLifecycle verifies normal progression to done state.
func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	if m.IsRunning() {
		t.Fatal("new manager should be idle")
	}

	if err := m.Start("job-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !m.IsRunning() {
		t.Fatal("expected running after start")
	}
	if err := m.Start("job-2"); !errors.Is(err, ErrJobAlreadyRunning) {
		t.Fatalf("second start error = %v, want %v", err, ErrJobAlreadyRunning)
	}

	if err := m.Transition(domain.JobStatusConverting); err != nil {
		t.Fatalf("transition to converting: %v", err)
	}
	status, err := m.Finish(nil)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if status != domain.JobStatusDone {
		t.Fatalf("status = %s, want done", status)
	}
	if m.Current().ID != "job-1" {
		t.Fatalf("job id = %q, want job-1", m.Current().ID)
	}

	if err := m.Start("job-2"); err != nil {
		t.Fatalf("restart after done: %v", err)
	}
}

// TestManagerRejectsInvalidTransition checks state machine constraints.
func TestManagerRejectsInvalidTransition(t *testing.T) {
	m := NewManager()
	if err := m.Transition(domain.JobStatusConverting); err == nil {
		t.Fatal("expected error without an active job")
	}

	if err := m.Start("job-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Transition(domain.JobStatusDone); err == nil {
		t.Fatal("expected invalid transition error")
	}
}

// TestManagerFinishFailure verifies failed batches and finish on idle state.
func TestManagerFinishFailure(t *testing.T) {
	m := NewManager()
	if _, err := m.Finish(nil); !errors.Is(err, ErrNoRunningJob) {
		t.Fatalf("finish idle error = %v, want %v", err, ErrNoRunningJob)
	}

	if err := m.Start("job-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	status, err := m.Finish(errors.New("boom"))
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if status != domain.JobStatusFailed {
		t.Fatalf("status = %s, want failed", status)
	}

	m.Reset()
	if m.Current().Status != domain.JobStatusIdle {
		t.Fatalf("status after reset = %s, want idle", m.Current().Status)
	}
}

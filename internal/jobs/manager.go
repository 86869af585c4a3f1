package jobs

import (
	"errors"
	"fmt"
	"sync"

	"vr8-converter/internal/domain"
)

// ErrJobAlreadyRunning is returned when a second batch starts while one is active.
var ErrJobAlreadyRunning = errors.New("conversion already running")

// ErrNoRunningJob is returned when finishing a batch that is not active.
var ErrNoRunningJob = errors.New("no running conversion")

// Manager guards the single active conversion batch and its status.
type Manager struct {
	mu      sync.RWMutex
	current domain.Job
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Job{Status: domain.JobStatusIdle},
	}
}

// Start registers a new batch in resolving state.
func (m *Manager) Start(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if isRunning(m.current.Status) {
		return ErrJobAlreadyRunning
	}

	m.current = domain.Job{ID: jobID, Status: domain.JobStatusResolving}
	return nil
}

// Transition validates and applies a status change for the current batch.
func (m *Manager) Transition(status domain.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" && status != domain.JobStatusIdle {
		return fmt.Errorf("cannot transition to %s without an active conversion", status)
	}
	if status == m.current.Status {
		return nil
	}
	if !isValidTransition(m.current.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.Status, status)
	}

	m.current.Status = status
	return nil
}

// Finish moves the active batch to done, or failed when err is non-nil.
func (m *Manager) Finish(err error) (domain.JobStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !isRunning(m.current.Status) {
		return m.current.Status, ErrNoRunningJob
	}

	m.current.Status = domain.JobStatusDone
	if err != nil {
		m.current.Status = domain.JobStatusFailed
	}
	return m.current.Status, nil
}

// Current returns a snapshot of the current batch.
func (m *Manager) Current() domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reset returns the manager to idle.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = domain.Job{Status: domain.JobStatusIdle}
}

// IsRunning reports whether a batch is resolving or converting.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isRunning(m.current.Status)
}

func isRunning(status domain.JobStatus) bool {
	return status == domain.JobStatusResolving || status == domain.JobStatusConverting
}

// isValidTransition enforces idle -> resolving -> converting -> done|failed.
func isValidTransition(from, to domain.JobStatus) bool {
	switch from {
	case domain.JobStatusIdle:
		return to == domain.JobStatusResolving
	case domain.JobStatusResolving:
		return to == domain.JobStatusConverting || to == domain.JobStatusFailed
	case domain.JobStatusConverting:
		return to == domain.JobStatusDone || to == domain.JobStatusFailed
	case domain.JobStatusDone, domain.JobStatusFailed:
		return to == domain.JobStatusResolving || to == domain.JobStatusIdle
	default:
		return false
	}
}

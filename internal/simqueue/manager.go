// Package simqueue implements the Simulation Manager: a single-worker FIFO
// queue that serializes tournament execution across the whole process, so
// the per-tournament memory budget the Runner computes composes to a
// predictable process-wide ceiling. It knows nothing about Pig-Pen, bots,
// or persistence -- a Job is an opaque unit of work.
package simqueue

import (
	"context"
	"sync"
	"time"
)

// Job is one unit of work the Manager schedules. Execute must not return
// until the work is complete; it runs on the Manager's single worker
// goroutine, never concurrently with another Job.
type Job struct {
	ID      string
	Execute func(ctx context.Context)
}

// Manager is a single-worker FIFO queue of Jobs. The zero value is an empty,
// idle queue, which is also what NewManager returns.
type Manager struct {
	mu      sync.Mutex
	pending []Job
	running bool
	done    chan struct{}
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Queue appends job to the tail of the FIFO queue and, if no worker is
// currently running, spawns one immediately. Submission never blocks on the
// job actually running.
func (m *Manager) Queue(job Job) {
	m.mu.Lock()
	m.pending = append(m.pending, job)
	shouldSpawn := !m.running
	if shouldSpawn {
		m.running = true
	}
	m.mu.Unlock()

	if shouldSpawn {
		m.spawnNext()
	}
}

// spawnNext pops the head of the queue and runs it on a fresh goroutine,
// signalling completion over a one-shot channel that Poll drains. Callers
// are expected to have already set m.running = true so a concurrent Queue
// doesn't also decide to spawn.
func (m *Manager) spawnNext() {
	m.mu.Lock()
	if len(m.pending) == 0 {
		m.running = false
		m.mu.Unlock()
		return
	}
	job := m.pending[0]
	m.pending = m.pending[1:]
	done := make(chan struct{})
	m.done = done
	m.mu.Unlock()

	go func() {
		job.Execute(context.Background())
		close(done)
	}()
}

// Poll checks whether the active worker has signalled completion; if so it
// clears the running flag and, if the queue is non-empty, spawns the next
// job. A missed Poll only delays the next spawn by one tick -- it never
// drops work. Safe to call from a single periodic ticker goroutine.
func (m *Manager) Poll() {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done == nil {
		return
	}

	select {
	case <-done:
		m.mu.Lock()
		m.done = nil
		m.running = false
		hasMore := len(m.pending) > 0
		if hasMore {
			m.running = true
		}
		m.mu.Unlock()
		if hasMore {
			m.spawnNext()
		}
	default:
	}
}

// Run drives Poll on a fixed ticker until ctx is cancelled. Intended to be
// started once, in its own goroutine, for the lifetime of the process.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Poll()
		}
	}
}

// Len reports the number of jobs waiting in the queue, not counting one
// that may currently be running. Exposed for tests and diagnostics.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Running reports whether a worker is currently executing a job.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

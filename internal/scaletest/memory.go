package scaletest

import "sync"

// FailureMemory remembers which shapes have failed on which Marathon instance during a run.
// Keys are as returned by ShapeKey. Flags are never cleared.
type FailureMemory struct {
	failed map[string]bool
	mu     sync.RWMutex
}

func NewFailureMemory() *FailureMemory {
	return &FailureMemory{failed: make(map[string]bool)}
}

func (m *FailureMemory) RecordFailure(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed[key] = true
}

// HasPriorFailure returns false for keys never recorded.
func (m *FailureMemory) HasPriorFailure(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.failed[key]
}

// RunLog is the append-only, ordered record of units run.
type RunLog struct {
	units []*Unit
	mu    sync.RWMutex
}

func (l *RunLog) Append(unit *Unit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.units = append(l.units, unit)
}

// Units returns a copy of the log in execution order.
func (l *RunLog) Units() []*Unit {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*Unit{}, l.units...)
}

func (l *RunLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.units)
}

// Package history keeps the undo/redo stacks of content snapshots.
//
// Only scene.Snapshot values take part in history. Callers checkpoint the
// pre-edit snapshot before mutating; continuous gestures checkpoint once at
// BeginGesture and then update the live snapshot without touching history.
package history

import (
	"errors"
	"sync"

	"github.com/ivlev/pagereel/internal/scene"
)

var (
	ErrGestureActive = errors.New("gesture already in progress")
	ErrNoGesture     = errors.New("no gesture in progress")
)

type Manager struct {
	mu     sync.RWMutex
	live   scene.Snapshot
	past   []scene.Snapshot // older -> newer
	future []scene.Snapshot // last element is the next redo
	limit  int

	gesture      bool
	gestureDirty bool
	stash        []scene.Snapshot // redo stack saved at BeginGesture
	evicted      []scene.Snapshot // undo steps the gesture checkpoint pushed out
}

// New returns a manager whose live snapshot is initial. limit bounds the
// number of undo steps kept; 0 keeps everything.
func New(initial scene.Snapshot, limit int) *Manager {
	return &Manager{live: initial.Clone(), limit: limit}
}

// Live returns a copy of the current snapshot.
func (m *Manager) Live() scene.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.live.Clone()
}

// View calls fn with the live snapshot without copying it. fn must not retain
// or mutate the snapshot.
func (m *Manager) View(fn func(s scene.Snapshot)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn(m.live)
}

// Checkpoint pushes s onto the undo stack and drops the redo stack.
func (m *Manager) Checkpoint(s scene.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoint(s)
}

// checkpoint returns the oldest entries the limit pushed out, oldest first.
func (m *Manager) checkpoint(s scene.Snapshot) []scene.Snapshot {
	m.past = append(m.past, s.Clone())
	var dropped []scene.Snapshot
	if m.limit > 0 && len(m.past) > m.limit {
		n := len(m.past) - m.limit
		dropped = append(dropped, m.past[:n]...)
		m.past = append([]scene.Snapshot(nil), m.past[n:]...)
	}
	m.future = nil
	return dropped
}

// Commit replaces the live snapshot. History is not touched.
func (m *Manager) Commit(s scene.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live = s.Clone()
}

// Apply runs an always-historied edit: checkpoint, apply, commit. A failing
// op leaves both the live snapshot and history unchanged.
func (m *Manager) Apply(op scene.Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := op.Apply(m.live)
	if err != nil {
		return err
	}
	m.checkpoint(m.live)
	m.live = next
	return nil
}

// Undo restores the most recent checkpoint. It reports false when there is
// nothing to undo.
func (m *Manager) Undo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endGesture()
	if len(m.past) == 0 {
		return false
	}
	prev := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]
	m.future = append(m.future, m.live)
	m.live = prev
	return true
}

// Redo reapplies the most recently undone snapshot.
func (m *Manager) Redo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endGesture()
	if len(m.future) == 0 {
		return false
	}
	next := m.future[len(m.future)-1]
	m.future = m.future[:len(m.future)-1]
	m.past = append(m.past, m.live)
	m.live = next
	return true
}

func (m *Manager) CanUndo() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.past) > 0
}

func (m *Manager) CanRedo() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.future) > 0
}

// Depth returns the sizes of the undo and redo stacks.
func (m *Manager) Depth() (past, future int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.past), len(m.future)
}

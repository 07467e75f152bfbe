package history

import "github.com/ivlev/pagereel/internal/scene"

// BeginGesture checkpoints the live snapshot once for a continuous gesture
// (element drag, page-duration drag, clip move or trim).
func (m *Manager) BeginGesture() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gesture {
		return ErrGestureActive
	}
	m.stash = m.future
	m.evicted = m.checkpoint(m.live)
	m.gesture = true
	m.gestureDirty = false
	return nil
}

// UpdateGesture applies op to the live snapshot without a history entry.
func (m *Manager) UpdateGesture(op scene.Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.gesture {
		return ErrNoGesture
	}
	next, err := op.Apply(m.live)
	if err != nil {
		return err
	}
	m.live = next
	m.gestureDirty = true
	return nil
}

// EndGesture finalises the gesture. A gesture that never applied an update
// gives its checkpoint back, so a bare click leaves no empty undo step.
func (m *Manager) EndGesture() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.gesture {
		return ErrNoGesture
	}
	m.endGesture()
	return nil
}

// InGesture reports whether a gesture is open.
func (m *Manager) InGesture() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gesture
}

func (m *Manager) endGesture() {
	if !m.gesture {
		return
	}
	if !m.gestureDirty && len(m.past) > 0 {
		m.past = append(m.evicted, m.past[:len(m.past)-1]...)
		m.future = m.stash
	}
	m.stash = nil
	m.evicted = nil
	m.gesture = false
	m.gestureDirty = false
}

package history

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ivlev/pagereel/internal/scene"
)

func base() scene.Snapshot {
	s := scene.New(320, 240)
	s.Pages[0].ID = "p1"
	el := scene.NewElement(scene.KindRect, 0, 0, 50, 50)
	el.ID = "e1"
	s.Pages[0].Elements = []scene.Element{el}
	return s
}

func moveTo(x float64) scene.Op {
	return scene.UpdateElement{PageID: "p1", ElementID: "e1", Patch: scene.ElementPatch{X: &x}}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	m := New(base(), 0)
	ops := []scene.Op{
		moveTo(10),
		scene.AddPage{Page: scene.Page{ID: "p2", Duration: 3}},
		scene.AddLayer{Layer: scene.AudioLayer{ID: "l1"}},
		moveTo(42),
	}
	before := m.Live()
	for _, op := range ops {
		if err := m.Apply(op); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}
	after := m.Live()

	for range ops {
		if !m.Undo() {
			t.Fatal("expected undo to succeed")
		}
	}
	if !reflect.DeepEqual(m.Live(), before) {
		t.Fatal("undoing every edit did not restore the initial snapshot")
	}
	for range ops {
		if !m.Redo() {
			t.Fatal("expected redo to succeed")
		}
	}
	if !reflect.DeepEqual(m.Live(), after) {
		t.Fatal("redoing every edit did not restore the final snapshot")
	}

	// undo(); redo() is an identity on the live snapshot.
	m.Undo()
	m.Redo()
	if !reflect.DeepEqual(m.Live(), after) {
		t.Error("undo+redo changed the snapshot")
	}
}

func TestEmptyStacksAreNoops(t *testing.T) {
	m := New(base(), 0)
	if m.Undo() {
		t.Error("undo on empty past reported a change")
	}
	if m.Redo() {
		t.Error("redo on empty future reported a change")
	}
	if !reflect.DeepEqual(m.Live(), base()) {
		t.Error("no-op undo/redo changed the snapshot")
	}
}

func TestEditClearsFuture(t *testing.T) {
	m := New(base(), 0)
	_ = m.Apply(moveTo(1))
	m.Undo()
	if !m.CanRedo() {
		t.Fatal("expected a redo candidate")
	}
	_ = m.Apply(moveTo(2))
	if m.CanRedo() {
		t.Error("a new edit must clear the redo stack")
	}
}

func TestFailedApplyLeavesHistory(t *testing.T) {
	m := New(base(), 0)
	err := m.Apply(scene.DeleteElement{PageID: "p1", ElementID: "missing"})
	if !errors.Is(err, scene.ErrElementNotFound) {
		t.Fatalf("expected ErrElementNotFound, got %v", err)
	}
	if m.CanUndo() {
		t.Error("failed op pushed a checkpoint")
	}
}

// Checkpoint once, then three rapid updates: a single undo must return to the
// state before the drag.
func TestCheckpointThenRapidUpdates(t *testing.T) {
	m := New(base(), 0)
	before := m.Live()

	m.Checkpoint(m.Live())
	cur := m.Live()
	for _, x := range []float64{5, 10, 15} {
		next, err := moveTo(x).Apply(cur)
		if err != nil {
			t.Fatal(err)
		}
		m.Commit(next)
		cur = next
	}

	if got := m.Live().Pages[0].Elements[0].X; got != 15 {
		t.Fatalf("expected x=15 after drag, got %v", got)
	}
	m.Undo()
	if !reflect.DeepEqual(m.Live(), before) {
		t.Error("single undo did not revert the whole gesture")
	}
}

func TestGesture(t *testing.T) {
	m := New(base(), 0)
	before := m.Live()

	if err := m.BeginGesture(); err != nil {
		t.Fatal(err)
	}
	if err := m.BeginGesture(); !errors.Is(err, ErrGestureActive) {
		t.Errorf("expected ErrGestureActive, got %v", err)
	}
	for _, x := range []float64{1, 2, 3, 4, 5} {
		if err := m.UpdateGesture(moveTo(x)); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.EndGesture(); err != nil {
		t.Fatal(err)
	}

	if past, _ := m.Depth(); past != 1 {
		t.Fatalf("expected exactly one undo step for the gesture, got %d", past)
	}
	m.Undo()
	if !reflect.DeepEqual(m.Live(), before) {
		t.Error("undo did not revert the gesture")
	}
}

func TestIdleGestureLeavesNoStep(t *testing.T) {
	m := New(base(), 0)
	_ = m.Apply(moveTo(3))
	m.Undo()

	_ = m.BeginGesture()
	_ = m.EndGesture()

	past, future := m.Depth()
	if past != 0 || future != 1 {
		t.Errorf("expected stacks (0,1) after an idle gesture, got (%d,%d)", past, future)
	}
	if err := m.UpdateGesture(moveTo(9)); !errors.Is(err, ErrNoGesture) {
		t.Errorf("expected ErrNoGesture, got %v", err)
	}
}

func TestHistoryLimit(t *testing.T) {
	m := New(base(), 3)
	for i := 0; i < 10; i++ {
		_ = m.Apply(moveTo(float64(i)))
	}
	if past, _ := m.Depth(); past != 3 {
		t.Errorf("expected 3 undo steps, got %d", past)
	}

	// Пустой жест на пределе не должен съедать старый шаг.
	full := New(base(), 1)
	start := full.Live()
	_ = full.Apply(moveTo(10))
	_ = full.BeginGesture()
	_ = full.EndGesture()
	if past, future := full.Depth(); past != 1 || future != 0 {
		t.Fatalf("expected stacks (1,0) after an idle gesture at the limit, got (%d,%d)", past, future)
	}
	if !full.CanUndo() {
		t.Fatal("idle gesture dropped the only undo step")
	}
	full.Undo()
	if !reflect.DeepEqual(full.Live(), start) {
		t.Error("undo after an idle gesture did not restore the initial snapshot")
	}
}

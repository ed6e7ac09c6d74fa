// Package transform turns resize, rotate and move gestures on scene nodes into
// document-model patches. It owns the gesture state machine, the resize and
// rotate widget, node resolution for a selection, and the per-kind rules that
// translate node geometry back into element data.
package transform

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/scene"
)

// Phase is the state of the current gesture.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhaseCommitting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	case PhaseCommitting:
		return "committing"
	}
	return "unknown"
}

// Source is what produced a gesture.
type Source uint8

const (
	// SourceDrag is a native drag of an attached node.
	SourceDrag Source = iota
	// SourceHandle is a resize or rotate handle of the widget.
	SourceHandle
)

func (s Source) String() string {
	if s == SourceHandle {
		return "handle"
	}
	return "drag"
}

// Snapshot is the pre-gesture capture of the elements a gesture touches.
type Snapshot struct {
	ID        uuid.UUID
	Nodes     []*scene.Node
	Elements  map[string]document.Element
	Order     []string
	StartedAt time.Time
	Source    Source
}

// Element returns the pre-gesture copy of id.
func (s *Snapshot) Element(id string) (document.Element, bool) {
	if s == nil {
		return document.Element{}, false
	}
	el, ok := s.Elements[id]
	return el, ok
}

// StateManager runs the Idle, Active, Committing cycle of one gesture at a
// time.
type StateManager struct {
	model  document.Model
	clock  clockwork.Clock
	logger *slog.Logger

	phase    Phase
	snapshot *Snapshot
}

func NewStateManager(model document.Model, clock clockwork.Clock, logger *slog.Logger) *StateManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StateManager{model: model, clock: clock, logger: logger}
}

func (m *StateManager) Phase() Phase {
	return m.phase
}

// Snapshot returns the capture of the running gesture, or nil when idle.
func (m *StateManager) Snapshot() *Snapshot {
	return m.snapshot
}

// Begin starts a gesture over nodes. A second gesture while one is running is
// rejected and the running gesture continues.
func (m *StateManager) Begin(nodes []*scene.Node, source Source) (*Snapshot, bool) {
	if m.phase != PhaseIdle {
		m.logger.Warn("gesture already in progress, ignoring begin",
			"phase", m.phase, "source", source, "active", m.snapshot.ID)
		return nil, false
	}
	if m.model == nil {
		m.logger.Warn("document model unavailable, gesture not started", "source", source)
		return nil, false
	}
	snap := &Snapshot{
		ID:        uuid.New(),
		Nodes:     append([]*scene.Node(nil), nodes...),
		Elements:  make(map[string]document.Element, len(nodes)),
		StartedAt: m.clock.Now(),
		Source:    source,
	}
	m.snapshot = snap
	m.phase = PhaseActive

	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ElementID)
	}
	m.Extend(ids...)

	m.logger.Debug("gesture started", "gesture", snap.ID, "source", source, "nodes", len(nodes))
	return snap, true
}

// Extend adds elements the gesture moves indirectly (descendants, attached
// connectors) to the running snapshot. Ids already captured keep their
// original copy.
func (m *StateManager) Extend(ids ...string) {
	if m.snapshot == nil {
		return
	}
	for _, id := range ids {
		if _, ok := m.snapshot.Elements[id]; ok {
			continue
		}
		el, ok := m.model.GetElement(id)
		if !ok {
			m.logger.Debug("snapshot skipped unknown element", "id", id)
			continue
		}
		m.snapshot.Elements[id] = el.Clone()
		m.snapshot.Order = append(m.snapshot.Order, id)
	}
}

// Restore writes the captured pre-gesture data back without recording
// history.
func (m *StateManager) Restore(snap *Snapshot) {
	if snap == nil || len(snap.Order) == 0 {
		return
	}
	if m.model == nil {
		m.logger.Warn("document model unavailable, snapshot not restored", "gesture", snap.ID)
		return
	}
	batch := make([]document.PatchEntry, 0, len(snap.Order))
	for _, id := range snap.Order {
		batch = append(batch, document.PatchEntry{ID: id, Patch: document.PatchFrom(snap.Elements[id])})
	}
	if err := m.model.UpdateElements(batch, document.UpdateOptions{}); err != nil {
		m.logger.Warn("restore snapshot", "gesture", snap.ID, "error", err)
	}
}

// Commit moves the gesture into Committing and rolls the model back to the
// snapshot so the final write records the pre-gesture state as its undo
// image. It returns the snapshot, or nil when no gesture is active.
func (m *StateManager) Commit() *Snapshot {
	if m.phase != PhaseActive {
		return nil
	}
	m.phase = PhaseCommitting
	m.Restore(m.snapshot)
	return m.snapshot
}

// Finish returns to Idle and discards the snapshot.
func (m *StateManager) Finish() {
	if m.snapshot != nil {
		m.logger.Debug("gesture finished", "gesture", m.snapshot.ID,
			"duration", m.clock.Since(m.snapshot.StartedAt))
	}
	m.phase = PhaseIdle
	m.snapshot = nil
}

// Cancel restores the pre-gesture data and returns to Idle.
func (m *StateManager) Cancel() {
	if m.phase == PhaseIdle {
		return
	}
	m.Restore(m.snapshot)
	m.Finish()
}

// AspectLocked reports whether the selection must keep its aspect ratio. One
// ratio-sensitive element locks the whole selection.
func AspectLocked(elements []document.Element) bool {
	for _, el := range elements {
		if requiresAspectLock(el) {
			return true
		}
	}
	return false
}

func requiresAspectLock(el document.Element) bool {
	switch el.Kind {
	case document.KindCircle:
		return true
	case document.KindEllipse:
		return el.LockAspectRatio || (el.Width > 0 && el.Width == el.Height)
	case document.KindImage:
		return el.KeepAspectRatio || el.LockAspectRatio
	case document.KindRectangle:
		return el.LockAspectRatio
	}
	return false
}

// AspectLockedFor applies AspectLocked to the current model data of ids.
func (m *StateManager) AspectLockedFor(ids []string) bool {
	if m.model == nil {
		return false
	}
	elements := make([]document.Element, 0, len(ids))
	for _, id := range ids {
		if el, ok := m.model.GetElement(id); ok {
			elements = append(elements, el)
		}
	}
	return AspectLocked(elements)
}

package transform

import (
	"log/slog"
	"time"

	"github.com/mtmitchel/LONewDesign-sub007/internal/schedule"
)

const (
	DefaultAttachDelay  = 75 * time.Millisecond
	DefaultRefreshDelay = 50 * time.Millisecond

	taskAttach = "transformer.attach"
	taskShow   = "transformer.show"
)

// SelectionManager debounces widget attachment while a selection is being
// built up by rapid clicks or a marquee.
type SelectionManager struct {
	resolver    *Resolver
	transformer *Transformer
	state       *StateManager
	sched       *schedule.Scheduler
	logger      *slog.Logger

	AttachDelay  time.Duration
	RefreshDelay time.Duration
}

func NewSelectionManager(resolver *Resolver, transformer *Transformer, state *StateManager,
	sched *schedule.Scheduler, logger *slog.Logger) *SelectionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SelectionManager{
		resolver:     resolver,
		transformer:  transformer,
		state:        state,
		sched:        sched,
		logger:       logger,
		AttachDelay:  DefaultAttachDelay,
		RefreshDelay: DefaultRefreshDelay,
	}
}

// ScheduleAttach attaches the widget to ids after delay. A non-positive
// delay uses AttachDelay. Each call restarts the wait.
func (m *SelectionManager) ScheduleAttach(ids []string, delay time.Duration) {
	if delay <= 0 {
		delay = m.AttachDelay
	}
	ids = append([]string(nil), ids...)
	m.sched.Debounce(taskAttach, delay, func() { m.AttachImmediately(ids) })
}

// Refresh re-attaches to ids after delay, for selections whose nodes were
// rebuilt. A non-positive delay uses RefreshDelay.
func (m *SelectionManager) Refresh(ids []string, delay time.Duration) {
	if delay <= 0 {
		delay = m.RefreshDelay
	}
	ids = append([]string(nil), ids...)
	m.sched.Debounce(taskAttach, delay, func() { m.AttachImmediately(ids) })
}

// AttachImmediately resolves ids and attaches the widget now. It returns
// the number of attached nodes. While a gesture is running the attach is
// re-queued after RefreshDelay and nothing changes.
func (m *SelectionManager) AttachImmediately(ids []string) int {
	if m.busy() {
		m.deferAttach(ids)
		return 0
	}
	m.sched.Cancel(taskAttach)

	nodes := FilterTransformableNodes(m.resolver.ResolveElementsToNodes(ids))
	m.transformer.Detach()
	if len(nodes) == 0 {
		m.sched.Cancel(taskShow)
		return 0
	}
	m.transformer.Attach(nodes)
	m.transformer.SetKeepRatio(m.state.AspectLockedFor(m.transformer.IDs()))
	m.sched.RequestFrame(taskShow, m.transformer.ForceShow)

	m.logger.Debug("transformer attached", "nodes", len(nodes), "keepRatio", m.transformer.KeepRatio())
	return len(nodes)
}

// Detach cancels pending work and hides the widget. During a gesture the
// detach waits like a deferred attach.
func (m *SelectionManager) Detach() {
	if m.busy() {
		m.deferAttach(nil)
		return
	}
	m.CancelPending()
	m.transformer.Detach()
}

// busy reports whether a gesture owns the widget.
func (m *SelectionManager) busy() bool {
	return m.transformer.Active() || (m.state != nil && m.state.Phase() != PhaseIdle)
}

func (m *SelectionManager) deferAttach(ids []string) {
	ids = append([]string(nil), ids...)
	m.sched.Debounce(taskAttach, m.RefreshDelay, func() { m.AttachImmediately(ids) })
	m.logger.Debug("transformer attach deferred until gesture ends", "ids", len(ids))
}

// CancelPending drops a scheduled attach and the follow-up show.
func (m *SelectionManager) CancelPending() {
	m.sched.Cancel(taskAttach)
	m.sched.Cancel(taskShow)
}

// Pending reports whether an attach is scheduled.
func (m *SelectionManager) Pending() bool {
	return m.sched.Pending(taskAttach)
}

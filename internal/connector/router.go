package connector

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/schedule"
)

const (
	DefaultLiveDelay = 16 * time.Millisecond

	taskLiveRoute = "connector.live"
)

// Router recomputes attached endpoints when the elements they bind to move.
type Router struct {
	model  document.Model
	sched  *schedule.Scheduler
	logger *slog.Logger

	LiveDelay time.Duration

	pendingMoved []string
}

func NewRouter(model document.Model, sched *schedule.Scheduler, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{model: model, sched: sched, logger: logger, LiveDelay: DefaultLiveDelay}
}

// ConnectorsAttachedTo returns the connectors with an endpoint bound to any
// of ids, in z-order.
func (r *Router) ConnectorsAttachedTo(ids []string) []string {
	if r.model == nil || len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	var out []string
	for _, el := range r.model.AllElements() {
		if el.Kind != document.KindConnector {
			continue
		}
		if (el.Start.IsAttached() && set[el.Start.ElementID]) || (el.End.IsAttached() && set[el.End.ElementID]) {
			out = append(out, el.ID)
		}
	}
	return out
}

// Reroute recomputes the attached endpoints of the given connectors and
// writes them as one batch. A connector that fails to resolve is logged and
// skipped. It returns the number of connectors written.
func (r *Router) Reroute(ids []string, opts document.UpdateOptions) int {
	if r.model == nil {
		r.logger.Warn("document model unavailable, reroute skipped", "connectors", len(ids))
		return 0
	}
	batch := make([]document.PatchEntry, 0, len(ids))
	for _, id := range ids {
		patch, err := r.route(id)
		if err != nil {
			r.logger.Warn("reroute connector", "id", id, "error", err)
			continue
		}
		batch = append(batch, document.PatchEntry{ID: id, Patch: patch})
	}
	if len(batch) == 0 {
		return 0
	}
	if err := r.model.UpdateElements(batch, opts); err != nil {
		r.logger.Warn("write rerouted connectors", "error", err)
	}
	return len(batch)
}

func (r *Router) route(id string) (patch document.Patch, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("route %q: %v", id, p)
		}
	}()
	el, ok := r.model.GetElement(id)
	if !ok {
		return patch, fmt.Errorf("route %q: %w", id, document.ErrNotFound)
	}
	if el.Kind != document.KindConnector {
		return patch, fmt.Errorf("route %q: not a connector but %s", id, el.Kind)
	}
	start, err := r.resolved(el.Start)
	if err != nil {
		return patch, err
	}
	end, err := r.resolved(el.End)
	if err != nil {
		return patch, err
	}
	return endpointPatch(start, end), nil
}

func (r *Router) resolved(ep *document.Endpoint) (*document.Endpoint, error) {
	p, err := ResolveEndpoint(ep, r.model.GetElement)
	if err != nil {
		return nil, err
	}
	c := ep.Clone()
	c.X, c.Y = p.X, p.Y
	return c, nil
}

// ScheduleLiveReroute queues a reroute of connectors bound to movedIDs,
// throttled to LiveDelay so fast pointer moves cost one pass per frame.
func (r *Router) ScheduleLiveReroute(movedIDs []string) {
	for _, id := range movedIDs {
		r.pendingMoved = appendUnique(r.pendingMoved, id)
	}
	if r.sched == nil {
		r.flushLive()
		return
	}
	r.sched.Throttle(taskLiveRoute, r.LiveDelay, r.flushLive)
}

func (r *Router) flushLive() {
	moved := r.pendingMoved
	r.pendingMoved = nil
	r.Reroute(r.ConnectorsAttachedTo(moved), document.UpdateOptions{})
}

// FinalReroute drops any pending live pass and reroutes synchronously for
// the exact final placement.
func (r *Router) FinalReroute(movedIDs []string, opts document.UpdateOptions) int {
	if r.sched != nil {
		r.sched.Cancel(taskLiveRoute)
	}
	moved := r.pendingMoved
	r.pendingMoved = nil
	for _, id := range movedIDs {
		moved = appendUnique(moved, id)
	}
	return r.Reroute(r.ConnectorsAttachedTo(moved), opts)
}

// CancelPending drops a queued live pass.
func (r *Router) CancelPending() {
	if r.sched != nil {
		r.sched.Cancel(taskLiveRoute)
	}
	r.pendingMoved = nil
}

// RerouteConnectors reroutes connectors that were themselves patched.
func (r *Router) RerouteConnectors(ids []string) {
	r.Reroute(ids, document.UpdateOptions{})
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

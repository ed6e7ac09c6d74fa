package replay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/engine"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
)

// frameInterval is the fake time between two pointer moves.
const frameInterval = 16 * time.Millisecond

type Result struct {
	Name     string             `json:"name,omitempty"`
	Steps    []StepResult       `json:"steps"`
	History  []string           `json:"history"`
	Document *document.Document `json:"document"`
}

type StepResult struct {
	Index  int      `json:"index"`
	Action string   `json:"action"`
	OK     bool     `json:"ok"`
	IDs    []string `json:"ids,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// Runner plays scripts against an engine whose scheduler runs on clock.
type Runner struct {
	engine *engine.Engine
	clock  *clockwork.FakeClock
	logger *slog.Logger
}

func NewRunner(e *engine.Engine, clock *clockwork.FakeClock, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{engine: e, clock: clock, logger: logger}
}

// Run plays every step in order. A step the engine declines is reported
// with OK unset and the script continues; malformed steps abort the run.
func (r *Runner) Run(ctx context.Context, s *Script) (*Result, error) {
	res := &Result{Name: s.Name, Steps: make([]StepResult, 0, len(s.Steps))}
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := r.step(step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
		out.Index, out.Action = i+1, step.Action
		r.logger.Debug("replayed step", "index", out.Index, "action", out.Action, "ok", out.OK)
		res.Steps = append(res.Steps, out)
	}
	r.engine.Tick()
	res.History = r.engine.History()
	res.Document = r.engine.Document()
	return res, nil
}

func (r *Runner) step(s Step) (StepResult, error) {
	e := r.engine
	switch s.Action {
	case "select":
		e.SetSelection(s.IDs)
		return StepResult{OK: true, IDs: e.Selection()}, nil
	case "wait":
		r.advance(time.Duration(s.Millis) * time.Millisecond)
		return StepResult{OK: true}, nil
	case "tick":
		e.Tick()
		return StepResult{OK: true}, nil
	case "drag":
		return r.drag(s)
	case "handle":
		return r.handle(s)
	case "endpoint":
		return r.endpoint(s)
	case "erase":
		return r.erase(s)
	case "undo":
		label, ok := e.Undo()
		out := StepResult{OK: ok}
		if ok {
			out.IDs = []string{label}
		}
		return out, nil
	}
	return StepResult{}, fmt.Errorf("unknown action %q", s.Action)
}

func (r *Runner) advance(d time.Duration) {
	r.clock.Advance(d)
	r.engine.Tick()
}

// path returns the pointer positions of a gesture after pointer down.
func path(s Step) (from geom.Point, moves []geom.Point, err error) {
	if from, err = point(s.From, "from"); err != nil {
		return from, nil, err
	}
	to, err := point(s.To, "to")
	if err != nil {
		return from, nil, err
	}
	n := max(s.Moves, 1)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		moves = append(moves, geom.Point{X: from.X + (to.X-from.X)*t, Y: from.Y + (to.Y-from.Y)*t})
	}
	return from, moves, nil
}

func (r *Runner) drag(s Step) (StepResult, error) {
	from, moves, err := path(s)
	if err != nil {
		return StepResult{}, err
	}
	id := s.ID
	if id == "" {
		id = r.engine.HitTest(from.X, from.Y)
	}
	if id == "" || !r.engine.DragStart(id, from.X, from.Y) {
		return StepResult{IDs: nonEmpty(id)}, nil
	}
	for _, p := range moves {
		r.engine.DragMove(p.X, p.Y)
		r.advance(frameInterval)
	}
	if s.Cancel {
		r.engine.CancelGesture()
	} else {
		r.engine.DragEnd()
	}
	return StepResult{OK: true, IDs: []string{id}}, nil
}

func (r *Runner) handle(s Step) (StepResult, error) {
	from, moves, err := path(s)
	if err != nil {
		return StepResult{}, err
	}
	if !r.engine.HandleStart(s.Handle, from.X, from.Y) {
		return StepResult{}, nil
	}
	for _, p := range moves {
		r.engine.HandleMove(p.X, p.Y)
		r.advance(frameInterval)
	}
	if s.Cancel {
		r.engine.CancelGesture()
	} else {
		r.engine.HandleEnd()
	}
	return StepResult{OK: true, IDs: r.engine.Transformer().IDs()}, nil
}

func (r *Runner) endpoint(s Step) (StepResult, error) {
	from, moves, err := path(s)
	if err != nil {
		return StepResult{}, err
	}
	points := append([]geom.Point{from}, moves...)
	var ep *document.Endpoint
	for i, p := range points {
		final := i == len(points)-1
		if final && s.Cancel {
			r.engine.CancelGesture()
			return StepResult{OK: true, IDs: []string{s.ID}}, nil
		}
		ep, err = r.engine.DragConnectorEndpoint(s.ID, s.Which, p.X, p.Y, final)
		if err != nil {
			r.engine.CancelGesture()
			return StepResult{Error: err.Error()}, nil
		}
		if !final {
			r.advance(frameInterval)
		}
	}
	out := StepResult{OK: true, IDs: []string{s.ID}}
	if ep.IsAttached() {
		out.IDs = append(out.IDs, ep.ElementID)
	}
	return out, nil
}

func (r *Runner) erase(s Step) (StepResult, error) {
	if len(s.Rect) > 0 {
		box, err := rect(s.Rect)
		if err != nil {
			return StepResult{}, err
		}
		ids := r.engine.EraseInRect(box)
		return StepResult{OK: len(ids) > 0, IDs: ids}, nil
	}
	c, err := point(s.From, "from")
	if err != nil {
		return StepResult{}, err
	}
	ids := r.engine.EraseAt(c.X, c.Y, s.Radius)
	return StepResult{OK: len(ids) > 0, IDs: ids}, nil
}

func nonEmpty(id string) []string {
	if id == "" {
		return nil
	}
	return []string{id}
}

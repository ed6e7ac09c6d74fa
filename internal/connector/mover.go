package connector

import (
	"log/slog"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
)

type baseline struct {
	start, end *document.Endpoint
}

// Mover translates directly selected connectors. Positions are always the
// gesture-start baseline plus the cumulative delta.
type Mover struct {
	model  document.Model
	logger *slog.Logger

	order     []string
	baselines map[string]baseline
	last      []document.PatchEntry
}

func NewMover(model document.Model, logger *slog.Logger) *Mover {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mover{model: model, logger: logger, baselines: make(map[string]baseline)}
}

// Begin records baselines for the connectors among ids. Connectors with both
// ends attached are skipped: they only move with their targets. Ids that
// already have a baseline keep it.
func (m *Mover) Begin(ids []string) int {
	if m.model == nil {
		m.logger.Warn("document model unavailable, connector move not started")
		return 0
	}
	for _, id := range ids {
		if _, ok := m.baselines[id]; ok {
			continue
		}
		el, ok := m.model.GetElement(id)
		if !ok || el.Kind != document.KindConnector || el.Start == nil || el.End == nil {
			continue
		}
		if el.Start.IsAttached() && el.End.IsAttached() {
			m.logger.Debug("connector bound at both ends, not moved", "id", id)
			continue
		}
		m.baselines[id] = baseline{start: el.Start.Clone(), end: el.End.Clone()}
		m.order = append(m.order, id)
	}
	return len(m.order)
}

// Active reports whether any connector has a baseline.
func (m *Mover) Active() bool {
	return len(m.order) > 0
}

// IDs returns the connectors being moved.
func (m *Mover) IDs() []string {
	return append([]string(nil), m.order...)
}

// Move places every free endpoint at baseline + (dx, dy) and writes the
// result without history.
func (m *Mover) Move(dx, dy float64) []document.PatchEntry {
	if len(m.order) == 0 {
		return nil
	}
	delta := geom.Point{X: dx, Y: dy}
	batch := make([]document.PatchEntry, 0, len(m.order))
	for _, id := range m.order {
		b := m.baselines[id]
		batch = append(batch, document.PatchEntry{
			ID:    id,
			Patch: endpointPatch(shift(b.start, delta), shift(b.end, delta)),
		})
	}
	if err := m.model.UpdateElements(batch, document.UpdateOptions{}); err != nil {
		m.logger.Warn("move connectors", "error", err)
	}
	m.last = batch
	return batch
}

func shift(ep *document.Endpoint, d geom.Point) *document.Endpoint {
	c := ep.Clone()
	if !c.IsAttached() {
		c.X += d.X
		c.Y += d.Y
	}
	return c
}

// Pending returns the patches of the last Move, for the final commit.
func (m *Mover) Pending() []document.PatchEntry {
	return m.last
}

// End discards the baselines.
func (m *Mover) End() {
	m.order = nil
	m.baselines = make(map[string]baseline)
	m.last = nil
}

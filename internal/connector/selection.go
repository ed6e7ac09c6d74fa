package connector

import (
	"log/slog"

	"github.com/mtmitchel/LONewDesign-sub007/internal/document"
)

// SelectionHandler claims selections made only of connectors. Those get a
// connector highlight instead of the resize widget.
type SelectionHandler struct {
	model  document.Model
	logger *slog.Logger

	selected []string
}

func NewSelectionHandler(model document.Model, logger *slog.Logger) *SelectionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SelectionHandler{model: model, logger: logger}
}

// HandleSelectionChange reports true when every id is a connector.
func (h *SelectionHandler) HandleSelectionChange(ids []string) bool {
	h.selected = nil
	if len(ids) == 0 {
		return false
	}
	if h.model == nil {
		h.logger.Warn("document model unavailable, connector selection ignored")
		return false
	}
	for _, id := range ids {
		el, ok := h.model.GetElement(id)
		if !ok || el.Kind != document.KindConnector {
			return false
		}
	}
	h.selected = append([]string(nil), ids...)
	return true
}

// Selected returns the connectors of the last handled selection.
func (h *SelectionHandler) Selected() []string {
	return append([]string(nil), h.selected...)
}

//go:build js && wasm

package main

import (
	"encoding/json"
	"os"
	"syscall/js"

	"github.com/mtmitchel/LONewDesign-sub007/internal/config"
	"github.com/mtmitchel/LONewDesign-sub007/internal/engine"
	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
	"github.com/mtmitchel/LONewDesign-sub007/internal/logging"
)

var eng *engine.Engine

func main() {
	cfg := config.Default()
	logger := logging.New(os.Stderr, cfg.SlogLevel())
	eng = engine.New(engine.WithConfig(cfg), engine.WithLogger(logger))

	boardEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	boardEngine.Set("loadDocument", js.FuncOf(loadDocument))
	boardEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	boardEngine.Set("setSelection", js.FuncOf(setSelection))
	boardEngine.Set("tick", js.FuncOf(tick))
	boardEngine.Set("undo", js.FuncOf(undo))

	// --- Pointer gestures ---
	boardEngine.Set("dragStart", js.FuncOf(dragStart))
	boardEngine.Set("dragMove", js.FuncOf(dragMove))
	boardEngine.Set("dragEnd", js.FuncOf(dragEnd))
	boardEngine.Set("handleStart", js.FuncOf(handleStart))
	boardEngine.Set("handleMove", js.FuncOf(handleMove))
	boardEngine.Set("handleEnd", js.FuncOf(handleEnd))
	boardEngine.Set("cancelGesture", js.FuncOf(cancelGesture))
	boardEngine.Set("dragConnectorEndpoint", js.FuncOf(dragConnectorEndpoint))
	boardEngine.Set("eraseAt", js.FuncOf(eraseAt))
	boardEngine.Set("eraseInRect", js.FuncOf(eraseInRect))

	// --- Queries (frontend ← engine) ---
	boardEngine.Set("render", js.FuncOf(render))
	boardEngine.Set("hitTest", js.FuncOf(hitTest))
	boardEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	boardEngine.Set("getDocument", js.FuncOf(getDocument))
	boardEngine.Set("getSelection", js.FuncOf(getSelection))
	boardEngine.Set("elementsInRect", js.FuncOf(elementsInRect))
	boardEngine.Set("snapEndpoint", js.FuncOf(snapEndpoint))

	js.Global().Set("boardEngine", boardEngine)
	js.Global().Set("boardWasmReady", js.ValueOf(true))

	select {}
}

func errorValue(msg string) js.Value {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func okValue() js.Value {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func toJSON(v interface{}) js.Value {
	data, err := json.Marshal(v)
	if err != nil {
		return js.ValueOf("null")
	}
	return js.ValueOf(string(data))
}

func stringList(arr js.Value) []string {
	if arr.Type() != js.TypeObject {
		return nil
	}
	ids := make([]string, arr.Length())
	for i := range ids {
		ids[i] = arr.Index(i).String()
	}
	return ids
}

func rectArg(args []js.Value) (geom.Rect, bool) {
	if len(args) < 4 {
		return geom.Rect{}, false
	}
	return geom.Rect{X: args[0].Float(), Y: args[1].Float(), Width: args[2].Float(), Height: args[3].Float()}, true
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("missing document JSON")
	}
	if err := eng.LoadDocument([]byte(args[0].String())); err != nil {
		return errorValue(err.Error())
	}
	return okValue()
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	eng.LoadSampleDocument()
	return okValue()
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		eng.SetSelection(nil)
		return nil
	}
	eng.SetSelection(stringList(args[0]))
	return nil
}

func tick(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Tick())
}

func undo(this js.Value, args []js.Value) interface{} {
	label, ok := eng.Undo()
	if !ok {
		return js.ValueOf("")
	}
	return js.ValueOf(label)
}

// --- Gesture Handlers ---

func dragStart(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.DragStart(args[0].String(), args[1].Float(), args[2].Float()))
}

func dragMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.DragMove(args[0].Float(), args[1].Float())
	return nil
}

func dragEnd(this js.Value, args []js.Value) interface{} {
	eng.DragEnd()
	return nil
}

func handleStart(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.HandleStart(args[0].String(), args[1].Float(), args[2].Float()))
}

func handleMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.HandleMove(args[0].Float(), args[1].Float())
	return nil
}

func handleEnd(this js.Value, args []js.Value) interface{} {
	eng.HandleEnd()
	return nil
}

func cancelGesture(this js.Value, args []js.Value) interface{} {
	eng.CancelGesture()
	return nil
}

// dragConnectorEndpoint(id, "start"|"end", x, y, final)
func dragConnectorEndpoint(this js.Value, args []js.Value) interface{} {
	if len(args) < 5 {
		return errorValue("expected id, which, x, y, final")
	}
	ep, err := eng.DragConnectorEndpoint(args[0].String(), args[1].String(), args[2].Float(), args[3].Float(), args[4].Bool())
	if err != nil {
		return errorValue(err.Error())
	}
	return toJSON(ep)
}

func eraseAt(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return toJSON([]string{})
	}
	return toJSON(eng.EraseAt(args[0].Float(), args[1].Float(), args[2].Float()))
}

func eraseInRect(this js.Value, args []js.Value) interface{} {
	r, ok := rectArg(args)
	if !ok {
		return toJSON([]string{})
	}
	return toJSON(eng.EraseInRect(r))
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(args[0].Float(), args[1].Float()))
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return toJSON(eng.SelectionBounds())
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return toJSON(eng.Document())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return toJSON(eng.Selection())
}

func elementsInRect(this js.Value, args []js.Value) interface{} {
	r, ok := rectArg(args)
	if !ok {
		return toJSON([]string{})
	}
	return toJSON(eng.ElementsInRect(r))
}

// snapEndpoint(x, y, excludeID)
func snapEndpoint(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("null")
	}
	exclude := ""
	if len(args) > 2 {
		exclude = args[2].String()
	}
	res, ok := eng.SnapEndpoint(args[0].Float(), args[1].Float(), exclude)
	if !ok {
		return js.ValueOf("null")
	}
	return toJSON(map[string]interface{}{
		"elementId": res.ElementID,
		"side":      res.Side.String(),
		"x":         res.Point.X,
		"y":         res.Point.Y,
		"distance":  res.Distance,
	})
}

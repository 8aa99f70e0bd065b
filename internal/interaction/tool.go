// Package interaction implements the overlay's tool selection, hit testing
// and gesture state machine. It reports every annotation mutation through
// callbacks and never edits annotation data itself.
package interaction

// Tool is the active pointer tool.
type Tool int

const (
	ToolSelect Tool = iota
	ToolPan
	ToolRectangle
	ToolPolygon
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "select"
	case ToolPan:
		return "pan"
	case ToolRectangle:
		return "rectangle"
	case ToolPolygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// Draws reports whether the tool creates shapes.
func (t Tool) Draws() bool {
	return t == ToolRectangle || t == ToolPolygon
}

// State is the gesture in progress.
type State int

const (
	StateIdle State = iota
	StatePanning
	StateDrawingRectangle
	StateDrawingPolygon
	StateDraggingVertex
	StateDraggingEdge
	StateDraggingWholeShape
	StateResizingSelectionBox
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePanning:
		return "panning"
	case StateDrawingRectangle:
		return "drawingRectangle"
	case StateDrawingPolygon:
		return "drawingPolygon"
	case StateDraggingVertex:
		return "draggingVertex"
	case StateDraggingEdge:
		return "draggingEdge"
	case StateDraggingWholeShape:
		return "draggingWholeShape"
	case StateResizingSelectionBox:
		return "resizingSelectionBox"
	default:
		return "unknown"
	}
}

// Drawing reports whether a draft shape is being built.
func (s State) Drawing() bool {
	return s == StateDrawingRectangle || s == StateDrawingPolygon
}

// Key is a keyboard input the controller reacts to.
type Key int

const (
	KeyOther Key = iota
	KeyEscape
	KeyDelete
	KeyBackspace
	KeySelectTool  // v
	KeyPanTool     // h
	KeyRectTool    // r
	KeyPolygonTool // p
	KeyZoomIn      // +
	KeyZoomOut     // -
	KeyFit         // 0, f
)

// KeyForRune maps a typed character to a Key.
func KeyForRune(r rune) Key {
	switch r {
	case 'v', 'V':
		return KeySelectTool
	case 'h', 'H':
		return KeyPanTool
	case 'r', 'R':
		return KeyRectTool
	case 'p', 'P':
		return KeyPolygonTool
	case '+', '=':
		return KeyZoomIn
	case '-', '_':
		return KeyZoomOut
	case '0', 'f', 'F':
		return KeyFit
	default:
		return KeyOther
	}
}

// Cursor is the pointer shape the host should show.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorPointer
	CursorCrosshair
	CursorMove
	CursorResizeH
	CursorResizeV
)

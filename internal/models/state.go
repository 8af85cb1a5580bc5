package models

// StateKind discriminates SlotState.
type StateKind int

const (
	StateEmpty StateKind = iota
	StateLegacy
	StateColored
)

// Colors used for legacy statuses and for unknown status values.
const (
	ColorRed     = "#ff4d4f"
	ColorYellow  = "#faad14"
	ColorGreen   = "#52c41a"
	ColorNeutral = "#f0f0f0"
)

var legacyColors = map[int]string{
	0: ColorRed,
	1: ColorYellow,
	2: ColorGreen,
}

// SlotState is the state of a slot: Empty, Legacy(status) or Colored(color).
type SlotState struct {
	Kind   StateKind
	Status int
	Hex    string
}

// Empty is the state of an unset slot.
func Empty() SlotState { return SlotState{Kind: StateEmpty} }

// Legacy is the state of a slot that only carries the old status enum.
func Legacy(status int) SlotState { return SlotState{Kind: StateLegacy, Status: status} }

// Colored is the state of a slot with an explicit color.
func Colored(color string) SlotState { return SlotState{Kind: StateColored, Hex: color} }

// StateOf derives the state from the nullable columns. Color wins over status.
func StateOf(status *int, color *string) SlotState {
	switch {
	case color != nil && *color != "":
		return Colored(*color)
	case status != nil:
		return Legacy(*status)
	default:
		return Empty()
	}
}

// Color maps the state to the color it contributes to aggregation.
// Empty maps to "".
func (s SlotState) Color() string {
	switch s.Kind {
	case StateColored:
		return s.Hex
	case StateLegacy:
		if c, ok := legacyColors[s.Status]; ok {
			return c
		}
		return ColorNeutral
	default:
		return ""
	}
}

// IsEmpty reports whether the state contributes nothing to aggregation.
func (s SlotState) IsEmpty() bool { return s.Kind == StateEmpty }

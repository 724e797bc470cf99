package pump

// DispenserState is the canonical dispenser condition derived fresh from
// each status reply. Never cached: staleness is the caller's problem,
// re-poll for current state.
type DispenserState uint8

const (
	StateUnknown DispenserState = iota // token not in vendor table, benign
	StateError
	StateIdle
	StateActive
	StatePaused
	StateStopped
	StateReadyForPreset
	StateSaleCloseable
	StateSaleSuspended
)

func (s DispenserState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateError:
		return "error"
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateReadyForPreset:
		return "ready-for-preset"
	case StateSaleCloseable:
		return "sale-closeable"
	case StateSaleSuspended:
		return "sale-suspended"
	}
	return "invalid"
}

func (s DispenserState) IsIdle() bool           { return s == StateIdle }
func (s DispenserState) IsDispensing() bool     { return s == StateActive }
func (s DispenserState) IsReadyForPreset() bool { return s == StateReadyForPreset }
func (s DispenserState) IsSaleCloseable() bool  { return s == StateSaleCloseable }
func (s DispenserState) IsSaleSuspended() bool  { return s == StateSaleSuspended }

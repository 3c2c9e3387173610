package scan

// State is the lifecycle position of one file in a run.
//
//	Pending -> Validating -> Decoding -> Scanning -> {Detected | NotDetected | Failed}
//	Detected -> Tagging -> Done
type State int

const (
	StatePending State = iota
	StateValidating
	StateDecoding
	StateScanning
	StateDetected
	StateNotDetected
	StateFailed
	StateTagging
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateValidating:
		return "validating"
	case StateDecoding:
		return "decoding"
	case StateScanning:
		return "scanning"
	case StateDetected:
		return "detected"
	case StateNotDetected:
		return "not_detected"
	case StateFailed:
		return "failed"
	case StateTagging:
		return "tagging"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateNotDetected || s == StateFailed || s == StateDone
}

// Positive reports whether s is on the detected branch.
func (s State) Positive() bool {
	return s == StateDetected || s == StateTagging || s == StateDone
}

package pipeline

// State tracks progress through the provisioning pipeline. Control flows
// strictly forward; there are no cycles.
type State int

// Pipeline states in execution order.
const (
	StateStart State = iota
	StateProbed
	StateAccountReady
	StatePluginReady
	StateOrderPlaced
	StateVerified
	StateVerificationFailed
	StateAborted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateProbed:
		return "probed"
	case StateAccountReady:
		return "account-ready"
	case StatePluginReady:
		return "plugin-ready"
	case StateOrderPlaced:
		return "order-placed"
	case StateVerified:
		return "verified"
	case StateVerificationFailed:
		return "verification-failed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// MarshalText lets states render as strings in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

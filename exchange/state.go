package exchange

// State is the lifecycle position of an exchange.
type State int

const (
	Queued State = iota
	Pending
	Completed
	TimedOut
	Failed
	Cancelled
)

var stateNames = [...]string{"queued", "pending", "completed", "timed_out", "failed", "cancelled"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether s is absorbing.
func (s State) Terminal() bool { return s >= Completed }

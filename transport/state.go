package transport

// State is a connection life-cycle phase.
type State int

const (
	StateIdle State = iota
	WillResolve
	IsResolving
	DidResolve
	DidNotResolve
	WillConnect
	IsConnecting
	DidConnect
	DidNotConnect
	WillDisconnect
	DidDisconnect
	DidNotDisconnect
)

var stateNames = [...]string{
	StateIdle:        "idle",
	WillResolve:      "will_resolve",
	IsResolving:      "is_resolving",
	DidResolve:       "did_resolve",
	DidNotResolve:    "did_not_resolve",
	WillConnect:      "will_connect",
	IsConnecting:     "is_connecting",
	DidConnect:       "did_connect",
	DidNotConnect:    "did_not_connect",
	WillDisconnect:   "will_disconnect",
	DidDisconnect:    "did_disconnect",
	DidNotDisconnect: "did_not_disconnect",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Failed reports whether s is a terminal error edge.
func (s State) Failed() bool {
	return s == DidNotResolve || s == DidNotConnect || s == DidNotDisconnect
}

// Observer receives connection state changes. err is set on the error
// edges. Calls come from the goroutine driving the transition.
type Observer interface {
	ConnectionStateChanged(addr string, state State, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(addr string, state State, err error)

func (f ObserverFunc) ConnectionStateChanged(addr string, state State, err error) {
	f(addr, state, err)
}

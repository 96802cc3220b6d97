package health

import (
	"regexp"
	"sort"
	"time"
)

// State is the coarse condition of a part.
type State string

// States, from best to worst.
const (
	StateHealthy   State = "healthy"
	StateDegraded  State = "degraded"
	StateUnhealthy State = "unhealthy"
)

func (s State) rank() int {
	switch s {
	case StateHealthy:
		return 0
	case StateDegraded:
		return 1
	default:
		return 2
	}
}

// Status is the health of one part of an endpoint (transport, listener,
// NATS link, sink) or, with Parts, of the whole endpoint.
type Status struct {
	Component string    `json:"component"`
	Healthy   bool      `json:"healthy"`
	State     State     `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Parts     []Status  `json:"parts,omitempty"`
	// Uptime and Failing are set on aggregates only.
	Uptime  time.Duration `json:"uptime,omitempty"`
	Failing int           `json:"failing,omitempty"`
}

func newStatus(component string, state State, message string) Status {
	return Status{
		Component: component,
		Healthy:   state == StateHealthy,
		State:     state,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewHealthy returns a healthy status.
func NewHealthy(component, message string) Status {
	return newStatus(component, StateHealthy, message)
}

// NewDegraded returns a degraded status.
func NewDegraded(component, message string) Status {
	return newStatus(component, StateDegraded, message)
}

// NewUnhealthy returns an unhealthy status.
func NewUnhealthy(component, message string) Status {
	return newStatus(component, StateUnhealthy, message)
}

func (s Status) IsHealthy() bool   { return s.State == StateHealthy }
func (s Status) IsDegraded() bool  { return s.State == StateDegraded }
func (s Status) IsUnhealthy() bool { return s.State == StateUnhealthy }

// Aggregate reports the worst state among parts. Parts are copied and
// sorted by component.
func Aggregate(component string, parts []Status) Status {
	worst := StateHealthy
	for _, p := range parts {
		if p.State.rank() > worst.rank() {
			worst = p.State
		}
	}

	var status Status
	switch {
	case len(parts) == 0:
		status = NewHealthy(component, "no parts reporting")
	case worst == StateHealthy:
		status = NewHealthy(component, "all parts are healthy")
	default:
		status = newStatus(component, worst, "one or more parts are "+string(worst))
	}
	if len(parts) == 0 {
		return status
	}
	status.Parts = append([]Status(nil), parts...)
	sort.Slice(status.Parts, func(i, j int) bool { return status.Parts[i].Component < status.Parts[j].Component })
	return status
}

// FromError reports component unhealthy with err's message scrubbed. A nil
// err reports healthy.
func FromError(component string, err error) Status {
	if err == nil {
		return NewHealthy(component, "ok")
	}
	return NewUnhealthy(component, scrub(err.Error()))
}

// scrubbers run in order; URLs go first so their hosts are not split.
var scrubbers = []struct {
	re   *regexp.Regexp
	with string
}{
	{regexp.MustCompile(`(?:https?|nats|wss?|tcp)://\S+`), "[URL]"},
	{regexp.MustCompile(`(?i)(password|token|secret|credential)[^a-zA-Z]*[:=][^,\s}]+`), "[REDACTED]"},
	{regexp.MustCompile(`/[a-zA-Z0-9/_.-]+`), "[PATH]"},
	{regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`), "[IP]"},
	{regexp.MustCompile(`:\d{2,5}\b`), "[PORT]"},
}

// scrub removes addresses, paths and credentials from a message served on
// /health.
func scrub(msg string) string {
	for _, s := range scrubbers {
		msg = s.re.ReplaceAllString(msg, s.with)
	}
	return msg
}

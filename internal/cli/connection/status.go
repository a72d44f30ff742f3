package connection

// Status is where the connection is in its open/close lifecycle.
// Exactly one value holds at a time.
type Status int

const (
	// StatusIdle means no connection exists or has been requested.
	StatusIdle Status = iota
	// StatusOpening means a handle exists and has not reported Opened.
	StatusOpening
	// StatusOpen means the connection accepts payloads.
	StatusOpen
	// StatusClosing means Close was requested and Closed has not arrived.
	StatusClosing
	// StatusClosed means the connection ended on its own or failed.
	StatusClosed
)

var statusNames = [...]string{
	"idle",
	"opening",
	"open",
	"closing",
	"closed",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// StateChange describes one status transition.
type StateChange struct {
	From    Status
	To      Status
	Address string
	Attempt string
	// Err is the transport failure that caused the transition, if any.
	Err error
}

// Snapshot is a consistent read of the manager's state.
type Snapshot struct {
	Status    Status `json:"status" yaml:"status"`
	Address   string `json:"address,omitempty" yaml:"address,omitempty"`
	Attempt   string `json:"attempt,omitempty" yaml:"attempt,omitempty"`
	LastError string `json:"last_error,omitempty" yaml:"last_error,omitempty"`
}

// MarshalText renders the status by name in JSON and YAML output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

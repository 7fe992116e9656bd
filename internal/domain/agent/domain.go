package agent

import (
	"errors"
	"time"
)

type Status string

const (
	// StatusAwaitingHeartbeat is set at registration and holds until the
	// first heartbeat arrives.
	StatusAwaitingHeartbeat Status = "awaiting_heartbeat"
	StatusActive            Status = "active"
)

var (
	ErrNotFound        = errors.New("agent not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Agent is a remote process that polls for tasks. Name, Location and IP are
// agent-supplied and not verified; Token is the opaque bearer credential and
// the canonical identity key.
type Agent struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Location      string     `json:"location"`
	IP            string     `json:"ip"`
	Token         string     `json:"-"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	LastHeartbeat *time.Time `json:"last_heartbeat,omitempty"`
}

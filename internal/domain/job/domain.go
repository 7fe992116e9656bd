package job

import (
	"errors"
	"fmt"
	"time"
)

type CheckType string

const (
	CheckPing       CheckType = "ping"
	CheckHTTP       CheckType = "http"
	CheckHTTPS      CheckType = "https"
	CheckTCP        CheckType = "tcp"
	CheckDNS        CheckType = "dns"
	CheckTraceroute CheckType = "traceroute"
)

// AllCheckTypes is the closed set of tags accepted at job creation.
var AllCheckTypes = []CheckType{CheckPing, CheckHTTP, CheckHTTPS, CheckTCP, CheckDNS, CheckTraceroute}

func ParseCheckType(s string) (CheckType, error) {
	for _, t := range AllCheckTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown check type %q", ErrInvalidArgument, s)
}

type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

var (
	ErrNotFound        = errors.New("job not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// CheckResult is immutable once attached to a Job.
type CheckResult struct {
	Type    CheckType `json:"type"`
	Success bool      `json:"success"`
	Output  string    `json:"output,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Job spans one or more check types against a single target. Status is
// monotonic: queued -> in_progress -> completed, no back-transitions.
type Job struct {
	ID              string                    `json:"id"`
	Target          string                    `json:"target"`
	RequestedChecks []CheckType               `json:"checks"`
	Status          Status                    `json:"status"`
	Results         map[CheckType]CheckResult `json:"results"`
	CreatedAt       time.Time                 `json:"created_at"`
}

// Resolved reports whether a result has already landed for the given type.
func (j *Job) Resolved(t CheckType) bool {
	_, ok := j.Results[t]
	return ok
}

// Done reports the completion invariant: every requested check has a result.
func (j *Job) Done() bool {
	return len(j.Results) == len(j.RequestedChecks)
}

package task

import (
	"fmt"
	"strings"

	"github.com/NordCoder/Proberus/internal/domain/job"
)

// Task is the unit of work an agent can claim: one (job, check type) pair.
// Tasks are never stored; they are derived on demand from jobs that still
// miss a result for the pair, so local and remote execution cannot both be
// offered a pair that is already resolved.
type Task struct {
	ID     string        `json:"id"`
	JobID  string        `json:"job_id"`
	Type   job.CheckType `json:"type"`
	Target string        `json:"target"`
}

// NewID builds the deterministic composite identifier. It is reproducible
// from the pair, which is what makes agent resubmission idempotent.
func NewID(jobID string, t job.CheckType) string {
	return jobID + "_" + string(t)
}

// ParseID is the inverse of NewID. Check type tags contain no underscore,
// so the last separator always splits the pair.
func ParseID(id string) (string, job.CheckType, error) {
	i := strings.LastIndex(id, "_")
	if i <= 0 || i == len(id)-1 {
		return "", "", fmt.Errorf("%w: malformed task id %q", job.ErrInvalidArgument, id)
	}
	t, err := job.ParseCheckType(id[i+1:])
	if err != nil {
		return "", "", err
	}
	return id[:i], t, nil
}

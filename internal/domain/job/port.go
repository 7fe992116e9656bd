package job

import "context"

// Store owns the job lifecycle. All mutation of a job's results and status
// is serialized by the implementation; both the local executor and the task
// distributor write through it. RecordResult is idempotent: the first write
// for a (job, check type) pair wins and later writes are silent no-ops, so
// agents may retry without being penalized.
type Store interface {
	Create(ctx context.Context, target string, checks []CheckType) (*Job, error)
	Get(ctx context.Context, id string) (*Job, error)
	MarkInProgress(ctx context.Context, id string) error
	RecordResult(ctx context.Context, id string, res CheckResult) (j *Job, recorded bool, err error)
	ListAll(ctx context.Context) ([]*Job, error)
}

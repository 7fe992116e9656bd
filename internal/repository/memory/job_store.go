package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/NordCoder/Proberus/internal/domain/job"

	"github.com/google/uuid"
)

var _ job.Store = (*JobStore)(nil)

// JobStore keeps all jobs in process memory behind a single mutex. Jobs are
// never evicted; history does not survive a restart.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*job.Job
	now  func() time.Time
}

func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*job.Job),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the creation timestamp source. For tests.
func (s *JobStore) WithClock(now func() time.Time) *JobStore {
	s.now = now
	return s
}

func (s *JobStore) Create(_ context.Context, target string, checks []job.CheckType) (*job.Job, error) {
	if target == "" {
		return nil, fmt.Errorf("%w: empty target", job.ErrInvalidArgument)
	}
	if len(checks) == 0 {
		return nil, fmt.Errorf("%w: no checks requested", job.ErrInvalidArgument)
	}

	// Dedupe while keeping request order; requested_checks is an ordered set.
	seen := make(map[job.CheckType]struct{}, len(checks))
	ordered := make([]job.CheckType, 0, len(checks))
	for _, c := range checks {
		if _, err := job.ParseCheckType(string(c)); err != nil {
			return nil, err
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		ordered = append(ordered, c)
	}

	j := &job.Job{
		ID:              uuid.NewString(),
		Target:          target,
		RequestedChecks: ordered,
		Status:          job.StatusQueued,
		Results:         make(map[job.CheckType]job.CheckResult, len(ordered)),
		CreatedAt:       s.now(),
	}

	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()

	return snapshot(j), nil
}

func (s *JobStore) Get(_ context.Context, id string) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, job.ErrNotFound
	}
	return snapshot(j), nil
}

// MarkInProgress flips a queued job to in_progress at dispatch time, so a
// job never looks queued while work is already running. Completed jobs are
// left alone: status is monotonic.
func (s *JobStore) MarkInProgress(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return job.ErrNotFound
	}
	if j.Status == job.StatusQueued {
		j.Status = job.StatusInProgress
	}
	return nil
}

// RecordResult attaches a result and re-derives status. The first writer
// for a pair wins; a duplicate write returns the current snapshot with
// recorded=false and mutates nothing, so retrying agents see success.
func (s *JobStore) RecordResult(_ context.Context, id string, res job.CheckResult) (*job.Job, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, false, job.ErrNotFound
	}
	if !requested(j, res.Type) {
		return nil, false, fmt.Errorf("%w: check %q not requested by job %s", job.ErrInvalidArgument, res.Type, id)
	}
	if j.Resolved(res.Type) {
		return snapshot(j), false, nil
	}

	j.Results[res.Type] = res
	if j.Done() {
		j.Status = job.StatusCompleted
	} else {
		j.Status = job.StatusInProgress
	}
	return snapshot(j), true, nil
}

func (s *JobStore) ListAll(_ context.Context) ([]*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*job.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, snapshot(j))
	}
	return out, nil
}

func requested(j *job.Job, t job.CheckType) bool {
	for _, c := range j.RequestedChecks {
		if c == t {
			return true
		}
	}
	return false
}

// snapshot copies the job so callers can read it without holding the lock.
func snapshot(j *job.Job) *job.Job {
	cp := *j
	cp.RequestedChecks = append([]job.CheckType(nil), j.RequestedChecks...)
	cp.Results = make(map[job.CheckType]job.CheckResult, len(j.Results))
	for k, v := range j.Results {
		cp.Results[k] = v
	}
	return &cp
}

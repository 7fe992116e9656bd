package agent

import "context"

// Registry tracks known agents. Upsert keys on Token: registering with a
// known token updates the existing row instead of duplicating it. The
// registry never expires agents; liveness is a read-only operator signal.
type Registry interface {
	Upsert(ctx context.Context, a *Agent) (int64, error)
	GetByToken(ctx context.Context, token string) (*Agent, error)
	Heartbeat(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*Agent, error)
}

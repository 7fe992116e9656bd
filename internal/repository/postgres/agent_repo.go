package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/Proberus/internal/domain/agent"

	"github.com/jackc/pgx/v5"
)

var _ agent.Registry = (*AgentRepoImpl)(nil)

type AgentRepoImpl struct {
	db *DB
}

func NewAgentRepo(db *DB) *AgentRepoImpl { return &AgentRepoImpl{db: db} }

const (
	qUpsertAgent = `
INSERT INTO agents (name, location, ip, token, status)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (token) DO UPDATE
SET name = EXCLUDED.name,
    location = EXCLUDED.location,
    ip = EXCLUDED.ip,
    status = EXCLUDED.status,
    last_heartbeat = NULL
RETURNING id;
`

	qGetByToken = `
SELECT id, name, location, ip, token, status, created_at, last_heartbeat
FROM agents
WHERE token = $1;
`

	qHeartbeat = `
UPDATE agents
SET status = $2, last_heartbeat = NOW()
WHERE id = $1;
`

	qListAgents = `
SELECT id, name, location, ip, token, status, created_at, last_heartbeat
FROM agents
ORDER BY id;
`
)

func scanAgent(row pgx.Row, a *agent.Agent) error {
	if err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Location,
		&a.IP,
		&a.Token,
		&a.Status,
		&a.CreatedAt,
		&a.LastHeartbeat,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return agent.ErrNotFound
		}
		return fmt.Errorf("scan agent: %w", err)
	}
	return nil
}

// Upsert registers an agent, keyed on token. A re-registration with a known
// token refreshes the agent-supplied fields and keeps the row id, but the
// whole liveness state starts over: status returns to awaiting_heartbeat and
// the stale last_heartbeat is cleared until the next beat arrives.
func (r *AgentRepoImpl) Upsert(ctx context.Context, a *agent.Agent) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	status := a.Status
	if status == "" {
		status = agent.StatusAwaitingHeartbeat
	}

	var id int64
	row := r.db.Pool.QueryRow(ctx, qUpsertAgent, a.Name, a.Location, a.IP, a.Token, status)
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert agent: %w", err)
	}
	a.ID = id
	return id, nil
}

func (r *AgentRepoImpl) GetByToken(ctx context.Context, token string) (*agent.Agent, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var a agent.Agent
	if err := scanAgent(r.db.Pool.QueryRow(ctx, qGetByToken, token), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AgentRepoImpl) Heartbeat(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qHeartbeat, id, agent.StatusActive)
	if err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return agent.ErrNotFound
	}
	return nil
}

func (r *AgentRepoImpl) List(ctx context.Context) ([]*agent.Agent, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qListAgents)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	var out []*agent.Agent
	for rows.Next() {
		var a agent.Agent
		if err := scanAgent(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

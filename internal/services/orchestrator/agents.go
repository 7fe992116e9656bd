package orchestrator

import (
	"context"
	"fmt"

	"github.com/NordCoder/Proberus/internal/domain/agent"

	"go.uber.org/zap"
)

// AgentService wraps the registry with request validation. Registration is
// an upsert keyed on token; heartbeats resolve the agent by id or token.
type AgentService struct {
	Log      *zap.Logger
	Registry agent.Registry
}

func (s *AgentService) Register(ctx context.Context, name, location, ip, token string) (int64, error) {
	if name == "" || location == "" || ip == "" || token == "" {
		return 0, fmt.Errorf("%w: name, location, ip and token are required", agent.ErrInvalidArgument)
	}

	id, err := s.Registry.Upsert(ctx, &agent.Agent{
		Name:     name,
		Location: location,
		IP:       ip,
		Token:    token,
		Status:   agent.StatusAwaitingHeartbeat,
	})
	if err != nil {
		return 0, fmt.Errorf("register agent: %w", err)
	}

	s.Log.Info("agent registered",
		zap.Int64("agent_id", id),
		zap.String("name", name),
		zap.String("location", location))
	return id, nil
}

// Heartbeat accepts either an agent id or a token; token resolution mirrors
// how agents authenticate every other call.
func (s *AgentService) Heartbeat(ctx context.Context, id int64, token string) (int64, error) {
	if id == 0 && token == "" {
		return 0, fmt.Errorf("%w: agent_id or token is required", agent.ErrInvalidArgument)
	}

	if id == 0 {
		a, err := s.Registry.GetByToken(ctx, token)
		if err != nil {
			return 0, err
		}
		id = a.ID
	}

	if err := s.Registry.Heartbeat(ctx, id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *AgentService) List(ctx context.Context) ([]*agent.Agent, error) {
	return s.Registry.List(ctx)
}

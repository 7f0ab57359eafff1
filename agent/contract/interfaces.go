package contract

import (
	"context"

	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

// Agent runs one conversational step. Implementations must not mutate
// req.Context; changes are returned in the response.
type Agent interface {
	Step(ctx context.Context, req AgentRequest) (AgentResponse, error)
}

type Registry interface {
	Agent(name statex.AgentName) (Agent, bool)
}

// AgentFunc adapts a function to Agent.
type AgentFunc func(ctx context.Context, req AgentRequest) (AgentResponse, error)

func (f AgentFunc) Step(ctx context.Context, req AgentRequest) (AgentResponse, error) {
	return f(ctx, req)
}

// StaticRegistry is a map-backed Registry.
type StaticRegistry map[statex.AgentName]Agent

func (r StaticRegistry) Agent(name statex.AgentName) (Agent, bool) {
	a, ok := r[name]
	return a, ok && a != nil
}

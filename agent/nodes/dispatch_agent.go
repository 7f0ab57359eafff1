package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Trip-Planner/agent/contract"
	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

func DispatchAgent(
	ctx context.Context,
	in *GraphState,
	agents contractx.Registry,
) (*GraphState, error) {
	if in == nil || in.Context == nil {
		return nil, fmt.Errorf("%w: graph context is nil", contractx.ErrValidation)
	}

	resp, err := dispatchToAgent(ctx, in.Context.ActiveAgent, contractx.AgentRequest{
		UserMessage: in.Text,
		Context:     in.Context.Clone(),
		Now:         in.Now,
	}, agents)
	if err != nil {
		return nil, err
	}

	in.Actor = in.Context.ActiveAgent
	in.Response = resp
	in.Reply = strings.TrimSpace(resp.Message)
	return in, nil
}

func dispatchToAgent(
	ctx context.Context,
	name statex.AgentName,
	req contractx.AgentRequest,
	agents contractx.Registry,
) (contractx.AgentResponse, error) {
	agent, ok := agents.Agent(name)
	if !ok {
		return contractx.AgentResponse{}, fmt.Errorf("%w: no agent registered for %q", contractx.ErrUnknownAgent, name)
	}
	return agent.Step(ctx, req)
}

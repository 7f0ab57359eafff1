package travel

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Trip-Planner/agent/contract"
	llmx "github.com/tanpawarit/Chative-Trip-Planner/agent/llm"
	promptx "github.com/tanpawarit/Chative-Trip-Planner/agent/prompt"
	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

// NewRegistry builds one OpenRouter-backed agent per machine state.
func NewRegistry(ctx context.Context, cfg llmx.Config) (contractx.StaticRegistry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()
	registry := make(contractx.StaticRegistry, len(statex.AllAgents))
	for _, name := range statex.AllAgents {
		modelCfg := cfg.OpenRouterFor(name)
		chatModel, err := modelCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create model for agent=%s: %v", contractx.ErrModelInvoke, name, err)
		}

		agent, err := newAgent(ctx, name, chatModel, prompts.For(name))
		if err != nil {
			return nil, err
		}
		registry[name] = agent
	}
	return registry, nil
}

package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/tanpawarit/Chative-Trip-Planner/agent/nodes"
)

func (o *Orchestrator) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_or_create_context",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadOrCreateContext(ctx, in, o.sessions)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_or_create_context: %w", err)
	}

	if err := graph.AddLambdaNode("guard_dates",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.GuardDates(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node guard_dates: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeRejectDates,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RejectDates(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node reject_dates: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeDispatchAgent,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.DispatchAgent(ctx, in, o.agents)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node dispatch_agent: %w", err)
	}

	if err := graph.AddLambdaNode("apply_agent_output",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ApplyAgentOutput(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node apply_agent_output: %w", err)
	}

	if err := graph.AddLambdaNode("apply_handoff",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ApplyHandoff(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node apply_handoff: %w", err)
	}

	if err := graph.AddLambdaNode("populate_accommodations",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PopulateAccommodations(ctx, in, o.lodging)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node populate_accommodations: %w", err)
	}

	if err := graph.AddLambdaNode("commit_context",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CommitContext(ctx, in, o.sessions)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node commit_context: %w", err)
	}

	if err := graph.AddLambdaNode("save_itinerary",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SaveItinerary(ctx, in, o.itineraries)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_itinerary: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	branch := compose.NewGraphBranch(nodex.RouteDates, map[string]bool{
		nodex.NodeRejectDates:   true,
		nodex.NodeDispatchAgent: true,
	})
	if err := graph.AddBranch("guard_dates", branch); err != nil {
		return nil, fmt.Errorf("add branch guard_dates: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_or_create_context"},
		{"load_or_create_context", "guard_dates"},
		{nodex.NodeRejectDates, "apply_agent_output"},
		{nodex.NodeDispatchAgent, "apply_agent_output"},
		{"apply_agent_output", "apply_handoff"},
		{"apply_handoff", "populate_accommodations"},
		{"populate_accommodations", "commit_context"},
		{"commit_context", "save_itinerary"},
		{"save_itinerary", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.turn"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}

package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Trip-Planner/agent/contract"
	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

type capability uint8

const (
	canPatch capability = 1 << iota
	canDraft
	canUpdateDays
)

// capabilities limits what each agent may change. Anything else the model
// returns is dropped.
var capabilities = map[statex.AgentName]capability{
	statex.AgentUserPreferences:     canPatch,
	statex.AgentDestinationResearch: canPatch,
	statex.AgentItinerary:           canPatch | canDraft | canUpdateDays,
	statex.AgentBooking:             canUpdateDays,
	statex.AgentSummary:             0,
}

const handoffPrefix = "HANDOFF:"

type llmAgent struct {
	name   statex.AgentName
	caps   capability
	runner compose.Runnable[map[string]any, agentLLMOutput]
}

var _ contractx.Agent = (*llmAgent)(nil)

func newAgent(
	ctx context.Context,
	name statex.AgentName,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (*llmAgent, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("%w: %q", contractx.ErrUnknownAgent, name)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: agent=%s", contractx.ErrPromptMissing, name)
	}
	runner, err := compileAgentGraph(ctx, chatModel, systemPrompt, "travel."+strings.TrimSuffix(string(name), "_agent"))
	if err != nil {
		return nil, fmt.Errorf("%w: compile graph for agent=%s: %v", contractx.ErrModelInvoke, name, err)
	}
	return &llmAgent{
		name:   name,
		caps:   capabilities[name],
		runner: runner,
	}, nil
}

func (a *llmAgent) Step(ctx context.Context, req contractx.AgentRequest) (contractx.AgentResponse, error) {
	if req.Context == nil {
		return contractx.AgentResponse{}, fmt.Errorf("%w: conversation context is required", contractx.ErrValidation)
	}

	input, err := a.input(req)
	if err != nil {
		return contractx.AgentResponse{}, fmt.Errorf("%w: marshal agent input: %v", contractx.ErrValidation, err)
	}

	out, err := a.runner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return contractx.AgentResponse{}, fmt.Errorf("%w: agent=%s invoke: %v", contractx.ErrModelInvoke, a.name, err)
	}

	message, textHandoff := splitHandoff(out.Message)
	resp := contractx.AgentResponse{
		Message: message,
		Handoff: a.handoff(firstNonEmpty(out.Handoff, textHandoff)),
	}

	if a.caps&canPatch != 0 && out.ContextPatch != nil {
		if patch := toContextPatch(*out.ContextPatch); !patch.Empty() {
			resp.ContextPatch = &patch
		}
	}
	if a.caps&canDraft != 0 && out.Itinerary != nil {
		draft := toDraft(*out.Itinerary)
		resp.Itinerary = &draft
	}
	if a.caps&canUpdateDays != 0 {
		resp.DayUpdates = toDayUpdates(out.DayUpdates)
	}

	if resp.Message == "" && a.name == statex.AgentSummary && req.Context.Itinerary != nil {
		resp.Message = statex.FormatItinerary(req.Context.Itinerary)
	}
	if resp.Message == "" && resp.Handoff.IsStay() {
		return contractx.AgentResponse{}, fmt.Errorf("%w: agent=%s returned an empty message", contractx.ErrSchemaViolation, a.name)
	}

	log.Debug().
		Str("agent", a.name.String()).
		Str("handoff", resp.Handoff.Target.String()).
		Bool("patch", resp.ContextPatch != nil).
		Bool("draft", resp.Itinerary != nil).
		Int("day_updates", len(resp.DayUpdates)).
		Msg("agent step done")

	return resp, nil
}

func (a *llmAgent) input(req contractx.AgentRequest) ([]byte, error) {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	allowed := contractx.AllowedTargets(a.name)
	handoffs := make([]string, 0, len(allowed))
	for _, target := range allowed {
		handoffs = append(handoffs, shortName(target))
	}

	return json.Marshal(map[string]any{
		"agent":            shortName(a.name),
		"today":            civil.DateOf(now).String(),
		"user_message":     req.UserMessage,
		"context":          req.Context.Summary(),
		"allowed_handoffs": handoffs,
	})
}

// handoff maps the model's target to a signal. Naming itself means stay; an
// unparsable name is passed through so the orchestrator can reject it.
func (a *llmAgent) handoff(raw string) contractx.Handoff {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "", "stay", "none", "null":
		return contractx.Stay()
	}
	target, err := statex.ParseAgentName(raw)
	if err != nil {
		return contractx.TransitionTo(statex.AgentName(raw))
	}
	if target == a.name {
		return contractx.Stay()
	}
	return contractx.TransitionTo(target)
}

// splitHandoff removes a trailing "HANDOFF: <target>" line from a message.
func splitHandoff(message string) (string, string) {
	lines := strings.Split(strings.TrimSpace(message), "\n")
	target := ""
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) >= len(handoffPrefix) && strings.EqualFold(trimmed[:len(handoffPrefix)], handoffPrefix) {
			target = strings.TrimSpace(trimmed[len(handoffPrefix):])
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n")), target
}

func shortName(name statex.AgentName) string {
	return strings.TrimSuffix(string(name), "_agent")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func toContextPatch(p llmPatch) statex.ContextPatch {
	out := statex.ContextPatch{
		Destination: optional(p.Destination),
		StartDate:   optionalDate(p.StartDate),
		EndDate:     optionalDate(p.EndDate),
		Budget:      optional(p.Budget),
		TravelStyle: optional(p.TravelStyle),
	}
	if p.NumberOfPeople != nil && *p.NumberOfPeople != 0 {
		n := *p.NumberOfPeople
		out.NumberOfPeople = &n
	}
	return out
}

func toDraft(d llmDraft) statex.ItineraryDraft {
	days := make([]statex.DraftDay, 0, len(d.Days))
	for _, day := range d.Days {
		days = append(days, statex.DraftDay{
			Location:       strings.TrimSpace(day.Location),
			Activities:     cleanActivities(day.Activities),
			Transportation: optionalString(day.Transportation),
			Notes:          optionalString(day.Notes),
		})
	}
	return statex.ItineraryDraft{
		Description: strings.TrimSpace(d.Description),
		Days:        days,
	}
}

func toDayUpdates(in []llmDayUpdate) []statex.DayUpdate {
	if len(in) == 0 {
		return nil
	}
	out := make([]statex.DayUpdate, 0, len(in))
	for _, u := range in {
		update := statex.DayUpdate{
			DayNumber:          u.DayNumber,
			Location:           optionalString(u.Location),
			Transportation:     optionalString(u.Transportation),
			Notes:              optionalString(u.Notes),
			ClearAccommodation: u.ClearAccommodation,
		}
		if u.Activities != nil {
			update.Activities = cleanActivities(u.Activities)
		}
		out = append(out, update)
	}
	return out
}

func cleanActivities(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	return optionalString(*s)
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// optionalDate drops blanks and the format placeholder echoed from the prompt.
func optionalDate(s *string) *string {
	v := optional(s)
	if v == nil || strings.EqualFold(*v, "YYYY-MM-DD") {
		return nil
	}
	return v
}

package travel

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Chative-Trip-Planner/agent/contract"
	promptx "github.com/tanpawarit/Chative-Trip-Planner/agent/prompt"
	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

type fakeToolCallingModel struct {
	responses []*schema.Message
	err       error
	idx       int
	inputs    [][]*schema.Message
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

func reply(content string) *fakeToolCallingModel {
	return &fakeToolCallingModel{responses: []*schema.Message{{Role: schema.Assistant, Content: content}}}
}

var testNow = time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)

func newTestAgent(t *testing.T, name statex.AgentName, model einomodel.BaseChatModel) *llmAgent {
	t.Helper()

	agent, err := newAgent(context.Background(), name, model, promptx.LoadPromptSet().For(name))
	if err != nil {
		t.Fatalf("newAgent() error = %v", err)
	}
	return agent
}

func request(msg string) contractx.AgentRequest {
	return contractx.AgentRequest{
		UserMessage: msg,
		Context:     statex.NewConversationContext("conv-1", testNow),
		Now:         testNow,
	}
}

func TestPreferencesAgentReturnsPatchAndHandoff(t *testing.T) {
	t.Parallel()

	fake := reply(`{"message":"Paris it is!","handoff":"destination_research","context_patch":{"destination":"Paris","start_date":"2024-10-10","end_date":"2024-10-15","budget":"mid-range","number_of_people":"2"}}`)
	agent := newTestAgent(t, statex.AgentUserPreferences, fake)

	resp, err := agent.Step(context.Background(), request("Paris Oct 10-15, mid-range, two of us"))
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if resp.Message != "Paris it is!" {
		t.Fatalf("Message = %q", resp.Message)
	}
	if resp.Handoff.Target != statex.AgentDestinationResearch {
		t.Fatalf("Handoff = %+v, want destination_research_agent", resp.Handoff)
	}
	p := resp.ContextPatch
	if p == nil || *p.Destination != "Paris" || *p.StartDate != "2024-10-10" || *p.NumberOfPeople != 2 {
		t.Fatalf("ContextPatch = %+v", p)
	}

	if len(fake.inputs) != 1 || len(fake.inputs[0]) != 2 {
		t.Fatalf("model inputs = %v", fake.inputs)
	}
	user := fake.inputs[0][1].Content
	for _, want := range []string{`"today":"2024-09-01"`, `"allowed_handoffs":["destination_research"]`, "Paris Oct 10-15"} {
		if !strings.Contains(user, want) {
			t.Fatalf("user input %s missing %s", user, want)
		}
	}
	if system := fake.inputs[0][0].Content; !strings.Contains(system, `"message": "text shown to the traveller"`) {
		t.Fatalf("system prompt was not rendered: %s", system)
	}
}

func TestAgentParsesFencedJSONAndTextHandoff(t *testing.T) {
	t.Parallel()

	fake := reply("```json\n{\"message\":\"Here is your summary.\\nHANDOFF: booking\"}\n```")
	agent := newTestAgent(t, statex.AgentSummary, fake)

	resp, err := agent.Step(context.Background(), request("change the hotel"))
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if resp.Message != "Here is your summary." {
		t.Fatalf("Message = %q", resp.Message)
	}
	if resp.Handoff.Target != statex.AgentBooking {
		t.Fatalf("Handoff = %+v, want booking_agent", resp.Handoff)
	}
}

func TestAgentWrapsPlainText(t *testing.T) {
	t.Parallel()

	agent := newTestAgent(t, statex.AgentDestinationResearch, reply("Paris is lovely in October."))

	resp, err := agent.Step(context.Background(), request("tell me about Paris"))
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if resp.Message != "Paris is lovely in October." || !resp.Handoff.IsStay() {
		t.Fatalf("Step() = %+v", resp)
	}
}

func TestAgentDropsFieldsOutsideItsCapabilities(t *testing.T) {
	t.Parallel()

	fake := reply(`{"message":"ok","context_patch":{"destination":"Rome"},"itinerary":{"days":[{"activities":["x"]}]},"day_updates":[{"day_number":"3","notes":"late checkout"}]}`)
	agent := newTestAgent(t, statex.AgentBooking, fake)

	resp, err := agent.Step(context.Background(), request("late checkout on day 3"))
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if resp.ContextPatch != nil || resp.Itinerary != nil {
		t.Fatalf("booking agent leaked patch/draft: %+v", resp)
	}
	if len(resp.DayUpdates) != 1 || resp.DayUpdates[0].DayNumber != 3 || *resp.DayUpdates[0].Notes != "late checkout" {
		t.Fatalf("DayUpdates = %+v", resp.DayUpdates)
	}
	if resp.DayUpdates[0].Activities != nil || resp.DayUpdates[0].Location != nil {
		t.Fatalf("DayUpdates[0] carries unchanged fields: %+v", resp.DayUpdates[0])
	}
}

func TestItineraryAgentDraftBlanksBecomeAbsent(t *testing.T) {
	t.Parallel()

	fake := reply(`{"message":"Draft ready","handoff":"itinerary","context_patch":{"start_date":"YYYY-MM-DD","number_of_people":0},"itinerary":{"description":"Paris","days":[{"location":"","activities":[" Louvre ",""],"transportation":"","notes":"wear shoes"}]}}`)
	agent := newTestAgent(t, statex.AgentItinerary, fake)

	resp, err := agent.Step(context.Background(), request("plan it"))
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if !resp.Handoff.IsStay() {
		t.Fatalf("self handoff = %+v, want stay", resp.Handoff)
	}
	if resp.ContextPatch != nil {
		t.Fatalf("ContextPatch = %+v, want nil", resp.ContextPatch)
	}
	day := resp.Itinerary.Days[0]
	if day.Location != "" || day.Transportation != nil || *day.Notes != "wear shoes" {
		t.Fatalf("draft day = %+v", day)
	}
	if len(day.Activities) != 1 || day.Activities[0] != "Louvre" {
		t.Fatalf("activities = %v", day.Activities)
	}
}

func TestSummaryAgentFallsBackToFormattedItinerary(t *testing.T) {
	t.Parallel()

	req := request("summary please")
	start, end := "2024-10-10", "2024-10-11"
	dest := "Paris"
	if err := req.Context.ApplyPatch(statex.ContextPatch{Destination: &dest, StartDate: &start, EndDate: &end}); err != nil {
		t.Fatalf("ApplyPatch() error = %v", err)
	}
	it, err := statex.BuildItinerary(req.Context, statex.ItineraryDraft{})
	if err != nil {
		t.Fatalf("BuildItinerary() error = %v", err)
	}
	req.Context.Itinerary = it

	agent := newTestAgent(t, statex.AgentSummary, reply(`{"message":""}`))
	resp, err := agent.Step(context.Background(), req)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if !strings.Contains(resp.Message, "Trip to Paris") {
		t.Fatalf("Message = %q", resp.Message)
	}
}

func TestAgentUnknownHandoffPassesThrough(t *testing.T) {
	t.Parallel()

	agent := newTestAgent(t, statex.AgentItinerary, reply(`{"message":"bye","handoff":"weather_agent"}`))

	resp, err := agent.Step(context.Background(), request("x"))
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if resp.Handoff.Target != "weather_agent" {
		t.Fatalf("Handoff = %+v", resp.Handoff)
	}
	if err := contractx.CheckTransition(statex.AgentItinerary, resp.Handoff); !errors.Is(err, contractx.ErrUnknownAgent) {
		t.Fatalf("CheckTransition() error = %v, want ErrUnknownAgent", err)
	}
}

func TestAgentErrors(t *testing.T) {
	t.Parallel()

	failing := &fakeToolCallingModel{err: errors.New("boom")}
	agent := newTestAgent(t, statex.AgentUserPreferences, failing)
	if _, err := agent.Step(context.Background(), request("hi")); !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("Step() error = %v, want ErrModelInvoke", err)
	}

	empty := newTestAgent(t, statex.AgentUserPreferences, reply(`{"message":"  "}`))
	if _, err := empty.Step(context.Background(), request("hi")); !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("Step() error = %v, want ErrSchemaViolation", err)
	}

	if _, err := agent.Step(context.Background(), contractx.AgentRequest{}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Step(nil context) error = %v, want ErrValidation", err)
	}

	if _, err := newAgent(context.Background(), statex.AgentBooking, failing, " "); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("newAgent() error = %v, want ErrPromptMissing", err)
	}
}

func TestNormalizeReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain object", in: `{"message":"hi"}`, want: `{"message":"hi"}`},
		{name: "prose around object", in: `Sure! {"message":"hi"} Enjoy.`, want: `{"message":"hi"}`},
		{name: "prose only", in: `hello there`, want: `{"message":"hello there"}`},
		{name: "array is not an object", in: `[1,2]`, want: `{"message":"[1,2]"}`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := normalizeReply(tc.in); got != tc.want {
				t.Fatalf("normalizeReply(%q) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestSplitHandoff(t *testing.T) {
	t.Parallel()

	msg, target := splitHandoff("All set.\nhandoff: Summary\n")
	if msg != "All set." || target != "Summary" {
		t.Fatalf("splitHandoff() = %q, %q", msg, target)
	}
}

package travel

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// agentLLMOutput is the JSON reply every travel agent is prompted for.
type agentLLMOutput struct {
	Message      string         `json:"message"`
	Handoff      string         `json:"handoff,omitempty"`
	ContextPatch *llmPatch      `json:"context_patch,omitempty"`
	Itinerary    *llmDraft      `json:"itinerary,omitempty"`
	DayUpdates   []llmDayUpdate `json:"day_updates,omitempty"`
}

type llmPatch struct {
	Destination    *string `json:"destination,omitempty"`
	StartDate      *string `json:"start_date,omitempty"`
	EndDate        *string `json:"end_date,omitempty"`
	Budget         *string `json:"budget,omitempty"`
	TravelStyle    *string `json:"travel_style,omitempty"`
	NumberOfPeople *int    `json:"number_of_people,omitempty"`
}

type llmDraft struct {
	Description string        `json:"description"`
	Days        []llmDraftDay `json:"days"`
}

type llmDraftDay struct {
	Location       string   `json:"location,omitempty"`
	Activities     []string `json:"activities"`
	Transportation string   `json:"transportation,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

type llmDayUpdate struct {
	DayNumber          int      `json:"day_number"`
	Location           string   `json:"location,omitempty"`
	Activities         []string `json:"activities,omitempty"`
	Transportation     string   `json:"transportation,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	ClearAccommodation bool     `json:"clear_accommodation,omitempty"`
}

func compileAgentGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, agentLLMOutput], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	parser := schema.NewMessageJSONParser[agentLLMOutput](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	graph := compose.NewGraph[map[string]any, agentLLMOutput]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add agent prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add agent model node: %w", err)
	}
	if err := graph.AddLambdaNode("normalize_reply", compose.InvokableLambda(
		func(ctx context.Context, msg *schema.Message) (*schema.Message, error) {
			if msg == nil {
				return nil, fmt.Errorf("empty model reply")
			}
			out := *msg
			out.Content = normalizeReply(msg.Content)
			return &out, nil
		},
	)); err != nil {
		return nil, fmt.Errorf("add agent normalize node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_json", compose.MessageParser(parser)); err != nil {
		return nil, fmt.Errorf("add agent parser node: %w", err)
	}

	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add agent edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add agent edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", "normalize_reply"); err != nil {
		return nil, fmt.Errorf("add agent edge model->normalize: %w", err)
	}
	if err := graph.AddEdge("normalize_reply", "parse_json"); err != nil {
		return nil, fmt.Errorf("add agent edge normalize->parse: %w", err)
	}
	if err := graph.AddEdge("parse_json", compose.END); err != nil {
		return nil, fmt.Errorf("add agent edge parse->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile agent graph: %w", err)
	}
	return runner, nil
}

// normalizeReply turns whatever the model produced into a JSON object the
// parser accepts. Fenced JSON is unwrapped and plain prose becomes the message.
func normalizeReply(content string) string {
	s := strings.TrimSpace(content)
	s = stripFence(s)

	if !isJSONObject(s) {
		start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
		if start >= 0 && end > start && isJSONObject(s[start:end+1]) {
			s = s[start : end+1]
		} else {
			wrapped, err := sjson.Set("{}", "message", strings.TrimSpace(content))
			if err != nil {
				return `{"message":""}`
			}
			return wrapped
		}
	}

	// Models like to quote numbers.
	if people := gjson.Get(s, "context_patch.number_of_people"); people.Type == gjson.String {
		if fixed, err := sjson.Set(s, "context_patch.number_of_people", people.Int()); err == nil {
			s = fixed
		}
	}
	if updates := gjson.Get(s, "day_updates"); updates.IsArray() {
		for i, u := range updates.Array() {
			if n := u.Get("day_number"); n.Type == gjson.String {
				if fixed, err := sjson.Set(s, fmt.Sprintf("day_updates.%d.day_number", i), n.Int()); err == nil {
					s = fixed
				}
			}
		}
	}
	return s
}

func isJSONObject(s string) bool {
	return gjson.Valid(s) && gjson.Parse(s).IsObject()
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Trip-Planner/agent/contract"
	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

var (
	ErrInvalidMessage      = errors.New("message is empty")
	ErrInvalidConversation = errors.New("conversation id is empty")
)

type GraphInput struct {
	ConversationID string
	Text           string
}

type GraphOutput struct {
	ConversationID string
	Reply          string
	Agent          statex.AgentName
	Itinerary      *statex.ItineraryOutput
	Warnings       []string
}

// GraphState travels through one turn. Context is a working clone; nothing
// is visible to other turns until commit_context runs.
type GraphState struct {
	ConversationID string
	Text           string
	Now            time.Time

	Context *statex.ConversationContext
	Created bool

	// Actor is the agent that handled the turn.
	Actor     statex.AgentName
	DateIssue error
	Rerouted  bool

	Response contractx.AgentResponse
	Reply    string
	Warnings []string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	conversationID := strings.TrimSpace(in.ConversationID)
	if conversationID == "" {
		return nil, ErrInvalidConversation
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		ConversationID: conversationID,
		Text:           text,
		Now:            nowFn().UTC(),
	}, nil
}

func (s *GraphState) warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

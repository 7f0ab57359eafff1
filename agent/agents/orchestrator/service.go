package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Trip-Planner/agent/contract"
	"github.com/tanpawarit/Chative-Trip-Planner/agent/lodging"
	nodex "github.com/tanpawarit/Chative-Trip-Planner/agent/nodes"
	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
	storagex "github.com/tanpawarit/Chative-Trip-Planner/agent/storage"
)

var (
	ErrInvalidMessage      = nodex.ErrInvalidMessage
	ErrInvalidConversation = nodex.ErrInvalidConversation
)

const defaultLodgingTimeout = 45 * time.Second

// TurnResult is what the caller sees after one turn.
type TurnResult struct {
	ConversationID string                  `json:"conversation_id"`
	Reply          string                  `json:"reply"`
	Agent          statex.AgentName        `json:"current_agent"`
	Itinerary      *statex.ItineraryOutput `json:"itinerary,omitempty"`
	Warnings       []string                `json:"warnings,omitempty"`
}

type Option func(*Orchestrator)

// WithSessionStore mirrors committed contexts to a durable store.
func WithSessionStore(store statex.Store) Option {
	return func(o *Orchestrator) {
		if store != nil {
			o.sessions.mirror = store
		}
	}
}

func WithItineraryStore(store storagex.ItineraryStore) Option {
	return func(o *Orchestrator) {
		o.itineraries = store
	}
}

// WithLodging enables accommodation population. timeout bounds all lodging
// searches of one turn.
func WithLodging(searcher lodging.Searcher, cities lodging.CityResolver, timeout time.Duration) Option {
	return func(o *Orchestrator) {
		if searcher == nil || cities == nil {
			return
		}
		if timeout <= 0 {
			timeout = defaultLodgingTimeout
		}
		o.lodging = &lodgingFiller{searcher: searcher, cities: cities, timeout: timeout}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

type Orchestrator struct {
	agents      contractx.Registry
	sessions    *sessionCache
	itineraries storagex.ItineraryStore
	lodging     nodex.LodgingFiller
	locks       *keyedLock

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(agents contractx.Registry, opts ...Option) (*Orchestrator, error) {
	if agents == nil {
		return nil, errors.New("agent registry is required")
	}

	o := &Orchestrator{
		agents:   agents,
		sessions: newSessionCache(statex.NoopStore{}),
		locks:    newKeyedLock(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	graphRunner, err := o.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// Step runs one conversational turn. Turns of the same conversation are
// serialised; different conversations run in parallel.
func (o *Orchestrator) Step(ctx context.Context, conversationID string, text string) (TurnResult, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return TurnResult{}, ErrInvalidConversation
	}

	unlock, err := o.locks.Lock(ctx, conversationID)
	if err != nil {
		return TurnResult{}, err
	}
	defer unlock()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		ConversationID: conversationID,
		Text:           text,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return TurnResult{}, fmt.Errorf("%w: %v", ctxErr, err)
		}
		return TurnResult{}, err
	}

	return TurnResult{
		ConversationID: out.ConversationID,
		Reply:          out.Reply,
		Agent:          out.Agent,
		Itinerary:      out.Itinerary,
		Warnings:       out.Warnings,
	}, nil
}

// Context returns a copy of the committed context of a conversation.
func (o *Orchestrator) Context(ctx context.Context, conversationID string) (*statex.ConversationContext, error) {
	return o.sessions.Load(ctx, conversationID)
}

// Itinerary returns the current itinerary, from memory first and then the
// itinerary store.
func (o *Orchestrator) Itinerary(ctx context.Context, conversationID string) (*statex.ItineraryOutput, error) {
	c, err := o.sessions.Load(ctx, conversationID)
	if err == nil && c.Itinerary != nil {
		return c.Itinerary, nil
	}
	if err != nil && !errors.Is(err, statex.ErrContextNotFound) {
		log.Warn().Err(err).Str("conversation_id", conversationID).Msg("session load failed, trying itinerary store")
	}
	if o.itineraries == nil {
		return nil, storagex.ErrItineraryNotFound
	}
	return o.itineraries.Load(ctx, conversationID)
}

// PopulateAccommodations fills lodging for the days that lack it without
// running any agent. It returns the updated itinerary.
func (o *Orchestrator) PopulateAccommodations(ctx context.Context, conversationID string) (*statex.ItineraryOutput, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, ErrInvalidConversation
	}

	unlock, err := o.locks.Lock(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := o.contextWithItinerary(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if o.lodging != nil {
		if _, err := o.lodging.FillAccommodations(ctx, c); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.UpdatedAt = o.now().UTC()
	if err := o.sessions.Save(context.WithoutCancel(ctx), c); err != nil {
		log.Warn().Err(err).Str("conversation_id", conversationID).Msg("session mirror save failed")
	}
	if o.itineraries != nil {
		if err := o.itineraries.Save(context.WithoutCancel(ctx), conversationID, c.Itinerary); err != nil {
			log.Warn().Err(err).Str("conversation_id", conversationID).Msg("itinerary save failed")
		}
	}
	return c.Itinerary.Clone(), nil
}

// contextWithItinerary loads the conversation, falling back to a context
// rebuilt around a stored itinerary.
func (o *Orchestrator) contextWithItinerary(ctx context.Context, conversationID string) (*statex.ConversationContext, error) {
	c, err := o.sessions.Load(ctx, conversationID)
	if err == nil && c.Itinerary != nil {
		return c, nil
	}
	if err != nil && !errors.Is(err, statex.ErrContextNotFound) {
		return nil, err
	}
	if o.itineraries == nil {
		return nil, storagex.ErrItineraryNotFound
	}
	it, err := o.itineraries.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if c == nil {
		c = statex.NewConversationContext(conversationID, o.now())
		c.ActiveAgent = statex.AgentItinerary
		c.Destination = it.Destination
		start, end := it.StartDate, it.EndDate
		c.StartDate, c.EndDate = &start, &end
	}
	c.Itinerary = it
	return c, nil
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tanpawarit/Chative-Trip-Planner/agent/agents/orchestrator"
	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

// Planner is the part of the orchestrator the HTTP layer needs.
type Planner interface {
	Step(ctx context.Context, conversationID string, text string) (orchestrator.TurnResult, error)
	Itinerary(ctx context.Context, conversationID string) (*statex.ItineraryOutput, error)
	PopulateAccommodations(ctx context.Context, conversationID string) (*statex.ItineraryOutput, error)
}

var _ Planner = (*orchestrator.Orchestrator)(nil)

// NewRouter registers every endpoint on a fresh gin engine.
func NewRouter(planner Planner) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	h := &handlers{planner: planner}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/chat", h.chat)

	itineraries := r.Group("/itineraries")
	{
		itineraries.GET("/:conversation_id", h.getItinerary)
		itineraries.POST("/:conversation_id/populate-accommodations", h.populateAccommodations)
	}
	return r
}

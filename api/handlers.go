package api

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tanpawarit/Chative-Trip-Planner/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/Chative-Trip-Planner/agent/contract"
	storagex "github.com/tanpawarit/Chative-Trip-Planner/agent/storage"
)

type handlers struct {
	planner Planner
}

type chatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversation_id"`
}

func (h *handlers) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	id := strings.TrimSpace(req.ConversationID)
	if id == "" {
		id = newConversationID()
	}

	res, err := h.planner.Step(c.Request.Context(), id, req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) getItinerary(c *gin.Context) {
	it, err := h.planner.Itinerary(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *handlers) populateAccommodations(c *gin.Context) {
	it, err := h.planner.PopulateAccommodations(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *handlers) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	status, msg := statusFor(err)
	c.JSON(status, gin.H{"error": msg})
}

// statusFor maps domain errors to a status and a message safe to show.
// Upstream model failures are not echoed back.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, orchestrator.ErrInvalidMessage),
		errors.Is(err, orchestrator.ErrInvalidConversation),
		errors.Is(err, storagex.ErrInvalidID),
		errors.Is(err, contractx.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, storagex.ErrItineraryNotFound):
		return http.StatusNotFound, "itinerary not found"
	case errors.Is(err, contractx.ErrModelInvoke),
		errors.Is(err, contractx.ErrSchemaViolation):
		return http.StatusBadGateway, "the planning assistant is unavailable, please try again"
	case errors.Is(err, contractx.ErrInvalidTransition),
		errors.Is(err, contractx.ErrUnknownAgent):
		return http.StatusInternalServerError, "agent handoff rejected"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, context.Canceled):
		return 499, "request cancelled"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// newConversationID returns 16 hex characters built from the fully random
// bytes of a v4 uuid. Byte 6 carries the version and byte 8 the variant.
func newConversationID() string {
	u := uuid.New()
	var b [8]byte
	copy(b[:6], u[:6])
	copy(b[6:], u[9:11])
	return hex.EncodeToString(b[:])
}

package event

import (
	"context"
	"net/http"
	"time"

	"github.com/tally-app/tally/internal/errdef"
	"github.com/tally-app/tally/internal/handler"
	"github.com/tally-app/tally/pkg/model"

	"github.com/gin-gonic/gin"
)

func NewHandler(eventService eventService) Handler {
	return Handler{
		eventService: eventService,
	}
}

type eventService interface {
	Now() time.Time
	CreateEvent(ctx context.Context, groupID, targetUserID, submitterUserID, ruleID uint, description string) (*model.Event, error)
	CastVetoVote(ctx context.Context, eventID, voterID uint, now time.Time) (*VoteResult, error)
	GetEvents(ctx context.Context, groupID, requesterID uint, status model.EventStatus) ([]View, error)
}

type Handler struct {
	eventService eventService
}

type CreateEventRequest struct {
	GroupID     uint   `json:"groupId" binding:"required"`
	UserID      uint   `json:"userId" binding:"required"`
	RuleID      uint   `json:"ruleId" binding:"required"`
	Description string `json:"description" binding:"max=500"`
}

// Create event
func (h Handler) Create(c *gin.Context) {
	// swagger:route POST /events eventCreate
	//
	// Create event
	//
	// Submit an event applying a rule of the group to one of its members. The event is pending until
	// vetoed by the other members or approved once its review window ended.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   201: Event
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	//   415: Error
	var request CreateEventRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	event, err := h.eventService.CreateEvent(c.Request.Context(), request.GroupID, request.UserID, user.ID, request.RuleID, request.Description)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

type findEventsQuery struct {
	Status string `form:"status" binding:"omitempty,oneOf=pending approved vetoed"`
}

// FindByGroup events
func (h Handler) FindByGroup(c *gin.Context) {
	// swagger:route GET /groups/{groupId}/events findEventsByGroup
	//
	// Find events
	//
	// Find the events of a group newest first. Events whose review window ended are approved before.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: []EventView
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	groupID, ok := handler.GetPathParameter(c, "groupId")
	if !ok {
		return
	}

	var query findEventsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		_ = c.Error(errdef.NewBadRequest("invalid query: %v", err))
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	events, err := h.eventService.GetEvents(c.Request.Context(), groupID, user.ID, model.EventStatus(query.Status))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// Vote on event
func (h Handler) Vote(c *gin.Context) {
	// swagger:route POST /events/{eventId}/vote eventVote
	//
	// Veto event
	//
	// Veto a pending event. The event is vetoed once the veto threshold of its rule is reached.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: VoteResult
	//   401: Error
	//   403: Error
	//   404: Error
	//   409: Error
	eventID, ok := handler.GetPathParameter(c, "eventId")
	if !ok {
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.eventService.CastVetoVote(c.Request.Context(), eventID, user.ID, h.eventService.Now())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

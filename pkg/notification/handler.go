package notification

import (
	"context"
	"io"
	"log/slog"
	"strconv"

	"github.com/tally-app/tally/internal/handler"
	"github.com/tally-app/tally/pkg/group"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewHandler(logger *slog.Logger, broker *Broker, groupService groupService) Handler {
	return Handler{
		logger:       logger,
		broker:       broker,
		groupService: groupService,
	}
}

type groupService interface {
	FindAllByUser(ctx context.Context, userID uint) ([]group.Summary, error)
}

type Handler struct {
	logger       *slog.Logger
	broker       *Broker
	groupService groupService
}

// Subscribe streams messages about events of the groups the user is a member of
func (h Handler) Subscribe(c *gin.Context) {
	// swagger:route GET /subscribe streamSSE
	//
	// Stream events
	//
	// Stream changes of events of the groups the user is a member of. Groups joined after
	// subscribing are only streamed after subscribing again.
	//
	// responses:
	//   200: Stream
	//   401: Error
	//
	// security:
	//   oauth2:
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()
	groups, err := h.groupService.FindAllByUser(ctx, user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	groupIDs := make([]uint, len(groups))
	for i, g := range groups {
		groupIDs[i] = g.ID
	}

	id := h.broker.Subscribe(user.ID, groupIDs)
	h.logger.InfoContext(ctx, "Subscribed", "subscriberId", id, "groups", len(groupIDs))
	defer func() {
		h.broker.Unsubscribe(id)
		h.logger.InfoContext(ctx, "Unsubscribed", "subscriberId", id)
	}()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		message, ok := h.broker.Receive(ctx, id)
		if !ok {
			return false
		}

		c.Render(-1, sse.Event{
			Id:    strconv.FormatUint(uint64(message.EventID), 10),
			Event: string(message.Kind),
			Data:  message,
		})
		return true
	})
}

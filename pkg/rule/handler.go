package rule

import (
	"context"
	"net/http"

	"github.com/tally-app/tally/internal/handler"
	"github.com/tally-app/tally/pkg/model"

	"github.com/gin-gonic/gin"
)

func NewHandler(ruleService ruleService, groupService groupService) Handler {
	return Handler{
		ruleService:  ruleService,
		groupService: groupService,
	}
}

type ruleService interface {
	FindByGroup(ctx context.Context, groupID uint) ([]model.Rule, error)
}

type groupService interface {
	RequireMember(ctx context.Context, groupID, userID uint) (*model.Group, error)
}

type Handler struct {
	ruleService  ruleService
	groupService groupService
}

// FindByGroup rules
func (h Handler) FindByGroup(c *gin.Context) {
	// swagger:route GET /groups/{groupId}/rules findRulesByGroup
	//
	// Find rules
	//
	// Find the house rules of a group. Only members of the group can see its rules.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: []Rule
	//   401: Error
	//   403: Error
	//   404: Error
	groupID, ok := handler.GetPathParameter(c, "groupId")
	if !ok {
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.groupService.RequireMember(ctx, groupID, user.ID); err != nil {
		_ = c.Error(err)
		return
	}

	rules, err := h.ruleService.FindByGroup(ctx, groupID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, rules)
}

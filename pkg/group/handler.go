package group

import (
	"net/http"

	"github.com/tally-app/tally/internal/handler"
	"github.com/tally-app/tally/pkg/model"

	"github.com/gin-gonic/gin"
)

func NewHandler(groupService *Service) Handler {
	return Handler{
		groupService: groupService,
	}
}

type Handler struct {
	groupService *Service
}

type CreateRuleRequest struct {
	Description   string `json:"description" binding:"required,max=200"`
	Points        int    `json:"points" binding:"min=-1000,max=1000"`
	VetoThreshold uint   `json:"vetoThreshold" binding:"max=100"`
}

type CreateGroupRequest struct {
	Name        string              `json:"name" binding:"required,min=3,max=50"`
	Description string              `json:"description" binding:"max=200"`
	Rules       []CreateRuleRequest `json:"rules" binding:"dive"`
}

// Create group
func (h Handler) Create(c *gin.Context) {
	// swagger:route POST /groups groupCreate
	//
	// Create group
	//
	// Create a group with its house rules. The creator becomes the first member of the group.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   201: Group
	//   400: Error
	//   401: Error
	//   415: Error
	var request CreateGroupRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	rules := make([]model.Rule, len(request.Rules))
	for i, r := range request.Rules {
		rules[i] = model.Rule{
			Description:   r.Description,
			Points:        r.Points,
			VetoThreshold: r.VetoThreshold,
		}
	}

	group, err := h.groupService.Create(c.Request.Context(), user, request.Name, request.Description, rules)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, group)
}

type JoinGroupRequest struct {
	JoinCode string `json:"joinCode" binding:"required,len=6,alphanum"`
}

// Join group
func (h Handler) Join(c *gin.Context) {
	// swagger:route POST /groups/join groupJoin
	//
	// Join group
	//
	// Join the group with the given join code
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Group
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	//   409: Error
	//   415: Error
	var request JoinGroupRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	group, err := h.groupService.Join(c.Request.Context(), request.JoinCode, user)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, group)
}

// Find group by id
func (h Handler) Find(c *gin.Context) {
	// swagger:route GET /groups/{groupId} findGroupById
	//
	// Find group
	//
	// Find a group with its rules and its members ordered by total points
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Group
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

	group, err := h.groupService.FindWithMembers(c.Request.Context(), groupID, user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, group)
}

// FindAll groups
func (h Handler) FindAll(c *gin.Context) {
	// swagger:route GET /groups findAllGroupsByUser
	//
	// Find groups
	//
	// Find all groups the current user is a member of
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: []GroupSummary
	//   401: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	groups, err := h.groupService.FindAllByUser(c.Request.Context(), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

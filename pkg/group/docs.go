package group

// swagger:parameters groupCreate
type _ struct {
	// Create group request body parameter
	// in: body
	// required: true
	Body CreateGroupRequest
}

// swagger:parameters groupJoin
type _ struct {
	// Join group request body parameter
	// in: body
	// required: true
	Body JoinGroupRequest
}

// swagger:parameters findGroupById findRulesByGroup
type _ struct {
	// in: path
	// required: true
	GroupID uint `json:"groupId"`
}

// swagger:response GroupSummary
type _ struct {
	// in: body
	_ []Summary
}

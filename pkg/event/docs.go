package event

// swagger:parameters eventCreate
type _ struct {
	// Create event request body parameter
	// in: body
	// required: true
	Body CreateEventRequest
}

// swagger:parameters findEventsByGroup
type _ struct {
	// in: path
	// required: true
	GroupID uint `json:"groupId"`

	// Only return events of the given status
	// in: query
	// enum: pending,approved,vetoed
	Status string `json:"status"`
}

// swagger:parameters eventVote
type _ struct {
	// in: path
	// required: true
	EventID uint `json:"eventId"`
}

// swagger:response EventView
type _ struct {
	// in: body
	_ []View
}

// swagger:response VoteResult
type _ struct {
	// in: body
	_ VoteResult
}

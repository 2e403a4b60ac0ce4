// Package docs holds swagger definitions shared by every route.
package docs

// swagger:response
type Error struct {
	// The error message
	//in: body
	Message string
}

// Server-sent events, one per change of an event of the groups of the user
// swagger:response
type Stream struct {
	// in: body
	Body string
}

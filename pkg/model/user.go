package model

import (
	"context"
	"time"
)

// User domain object defining a user. Users are created outside of tally, only their name and email
// are kept so members can be displayed.
// swagger:model
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Name      string    `json:"name"`
	Email     string    `gorm:"index;unique" json:"email"`
}

type contextKey int

var userKey contextKey

// NewContextWithUser returns a new [context.Context] that carries value user.
func NewContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUserFromContext returns the user stored in ctx, if any.
func GetUserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey).(*User)
	return u, ok
}

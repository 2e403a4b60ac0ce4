package model

import "time"

// Group domain object defining a group of members logging events against each other
// swagger:model
type Group struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Name        string    `gorm:"not null" json:"name"`
	Slug        string    `gorm:"index" json:"slug"`
	Description string    `json:"description"`
	JoinCode    string    `gorm:"size:6;uniqueIndex" json:"joinCode"`
	CreatedBy   uint      `json:"createdBy"`
	IsActive    bool      `gorm:"not null;default:true" json:"isActive"`
	Members     []Member  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"members,omitempty"`
	Rules       []Rule    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"rules,omitempty"`
}

// Member is a user within a groups roster. Name and email are a snapshot taken when the user joined.
// TotalPoints is only ever changed by approving an event.
// swagger:model
type Member struct {
	GroupID     uint      `gorm:"primaryKey;autoIncrement:false" json:"groupId"`
	UserID      uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	CreatedAt   time.Time `json:"joinedAt"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	TotalPoints int       `gorm:"not null;default:0" json:"totalPoints"`
}

// Member returns the roster entry of the given user.
func (g *Group) Member(userID uint) (Member, bool) {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}

func (g *Group) IsMember(userID uint) bool {
	_, ok := g.Member(userID)
	return ok
}

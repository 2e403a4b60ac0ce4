package model

import (
	"encoding/json"
	"time"
)

type EventStatus string

const (
	EventStatusPending  EventStatus = "pending"
	EventStatusApproved EventStatus = "approved"
	EventStatusVetoed   EventStatus = "vetoed"
)

// EventStatuses lists every status an event can be in.
var EventStatuses = []EventStatus{EventStatusPending, EventStatusApproved, EventStatusVetoed}

// IsTerminal returns true if no transition leaves status s.
func (s EventStatus) IsTerminal() bool {
	return s == EventStatusApproved || s == EventStatusVetoed
}

func (s EventStatus) IsValid() bool {
	for _, status := range EventStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Event is a rule applied to a member of a group. Events are created pending and are either vetoed by
// the other members or approved once ExpiresAt has passed.
// swagger:model
type Event struct {
	ID              uint        `gorm:"primarykey" json:"id"`
	GroupID         uint        `gorm:"index:idx_events_group_created,priority:1;not null" json:"groupId"`
	TargetUserID    uint        `gorm:"not null" json:"userId"`
	SubmitterUserID uint        `gorm:"not null" json:"submittedBy"`
	RuleID          uint        `gorm:"not null" json:"ruleId"`
	Description     string      `json:"description"`
	Status          EventStatus `gorm:"index:idx_events_status_expires,priority:1;not null;default:pending" json:"status"`
	Votes           []Vote      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"votes"`
	CreatedAt       time.Time   `gorm:"index:idx_events_group_created,priority:2" json:"createdAt"`
	ExpiresAt       time.Time   `gorm:"index:idx_events_status_expires,priority:2;not null" json:"expiresAt"`
	ResolvedAt      *time.Time  `json:"resolvedAt,omitempty"`
	// Version is bumped on every update and guards against lost updates
	Version uint `gorm:"not null;default:0" json:"-"`
}

func (e *Event) VetoCount() int {
	return len(e.Votes)
}

func (e *Event) HasVoted(userID uint) bool {
	for _, v := range e.Votes {
		if v.VoterID == userID {
			return true
		}
	}
	return false
}

// Vote is a veto cast by a member. There is no approving vote, an event not vetoed in time is
// approved.
type Vote struct {
	ID        uint      `gorm:"primarykey"`
	EventID   uint      `gorm:"uniqueIndex:idx_votes_event_voter,priority:1;not null"`
	VoterID   uint      `gorm:"uniqueIndex:idx_votes_event_voter,priority:2;not null"`
	CreatedAt time.Time
}

func (v Vote) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		VoterID   uint      `json:"voterId"`
		IsVeto    bool      `json:"isVeto"`
		CreatedAt time.Time `json:"createdAt"`
	}{
		VoterID:   v.VoterID,
		IsVeto:    true,
		CreatedAt: v.CreatedAt,
	})
}

package model

// Rule is a house rule of a group. Rules never change once created so an event can rely on the points
// and veto threshold of its rule at any time.
// swagger:model
type Rule struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	GroupID     uint   `gorm:"index;not null" json:"groupId"`
	Description string `gorm:"not null" json:"description"`
	// Points are added to the target members total once an event is approved. Might be negative.
	Points int `gorm:"not null" json:"points"`
	// VetoThreshold is the number of vetoes killing an event. Zero means the first veto kills it.
	VetoThreshold uint `gorm:"not null;default:0" json:"vetoThreshold"`
}

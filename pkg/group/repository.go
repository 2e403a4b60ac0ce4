package group

import (
	"context"
	"errors"
	"fmt"

	"github.com/tally-app/tally/internal/errdef"
	"github.com/tally-app/tally/pkg/model"

	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{
		db: db,
	}
}

func (r repository) find(ctx context.Context, id uint) (*model.Group, error) {
	var group *model.Group
	err := r.db.
		WithContext(ctx).
		Preload("Members").
		First(&group, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("group %d doesn't exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %v", err)
	}

	return group, nil
}

func (r repository) findWithDetails(ctx context.Context, id uint) (*model.Group, error) {
	var group *model.Group
	err := r.db.
		WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at")
		}).
		Preload("Rules", func(db *gorm.DB) *gorm.DB {
			return db.Order("id")
		}).
		First(&group, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("group %d doesn't exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find group with details: %v", err)
	}

	return group, nil
}

func (r repository) findByJoinCode(ctx context.Context, joinCode string) (*model.Group, error) {
	var group *model.Group
	err := r.db.
		WithContext(ctx).
		Preload("Members").
		Where("join_code = ?", joinCode).
		First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("no group with join code %q", joinCode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find group by join code: %v", err)
	}

	return group, nil
}

func (r repository) joinCodeExists(ctx context.Context, joinCode string) (bool, error) {
	var count int64
	err := r.db.
		WithContext(ctx).
		Model(&model.Group{}).
		Where("join_code = ?", joinCode).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up join code: %v", err)
	}

	return count > 0, nil
}

// membership is a group as seen by one of its members
type membership struct {
	model.Group
	MemberCount int64
	UserPoints  int
}

func (r repository) findAllByUser(ctx context.Context, userID uint) ([]membership, error) {
	var members []model.Member
	err := r.db.
		WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find memberships of user %d: %v", userID, err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	groupIDs := make([]uint, len(members))
	pointsByGroup := make(map[uint]int, len(members))
	for i, member := range members {
		groupIDs[i] = member.GroupID
		pointsByGroup[member.GroupID] = member.TotalPoints
	}

	var groups []model.Group
	err = r.db.
		WithContext(ctx).
		Where("id IN ?", groupIDs).
		Order("created_at desc").
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find groups of user %d: %v", userID, err)
	}

	var counts []struct {
		GroupID uint
		Count   int64
	}
	err = r.db.
		WithContext(ctx).
		Model(&model.Member{}).
		Select("group_id, count(*) as count").
		Where("group_id IN ?", groupIDs).
		Group("group_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %v", err)
	}
	countByGroup := make(map[uint]int64, len(counts))
	for _, c := range counts {
		countByGroup[c.GroupID] = c.Count
	}

	memberships := make([]membership, len(groups))
	for i, group := range groups {
		memberships[i] = membership{
			Group:       group,
			MemberCount: countByGroup[group.ID],
			UserPoints:  pointsByGroup[group.ID],
		}
	}

	return memberships, nil
}

func (r repository) create(ctx context.Context, group *model.Group) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	err := r.db.WithContext(ctx).Create(&group).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errdef.NewDuplicated("join code %q already exists", group.JoinCode)
	}
	if err != nil {
		return fmt.Errorf("failed to create group: %v", err)
	}

	return nil
}

func (r repository) addMember(ctx context.Context, member *model.Member) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	err := r.db.WithContext(ctx).Create(&member).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errdef.NewDuplicated("user %d is already a member of group %d", member.UserID, member.GroupID)
	}
	if err != nil {
		return fmt.Errorf("failed to add member: %v", err)
	}

	return nil
}

// IncrementTotalPoints adds delta to the total points of a member using a single statement so
// concurrent increments are never lost. It's the only way totals change: approving an event calls it
// with the transaction resolving the event.
func IncrementTotalPoints(tx *gorm.DB, groupID, userID uint, delta int) error {
	result := tx.
		Model(&model.Member{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		UpdateColumn("total_points", gorm.Expr("total_points + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("failed to apply %d points to user %d of group %d: %v", delta, userID, groupID, result.Error)
	}
	if result.RowsAffected == 0 {
		return errdef.NewNotFound("user %d is not a member of group %d", userID, groupID)
	}

	return nil
}

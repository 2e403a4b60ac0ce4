package rule

import (
	"context"
	"errors"
	"fmt"

	"github.com/tally-app/tally/internal/errdef"
	"github.com/tally-app/tally/pkg/model"

	"gorm.io/gorm"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{db: db}
}

type repository struct {
	db *gorm.DB
}

func (r repository) find(ctx context.Context, id uint) (*model.Rule, error) {
	var rule *model.Rule
	err := r.db.
		WithContext(ctx).
		First(&rule, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("rule %d doesn't exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find rule %d: %v", id, err)
	}

	return rule, nil
}

func (r repository) findByGroup(ctx context.Context, groupID uint) ([]model.Rule, error) {
	var rules []model.Rule
	err := r.db.
		WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("id").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find rules of group %d: %v", groupID, err)
	}

	return rules, nil
}

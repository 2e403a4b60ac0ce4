package rule

import (
	"context"
	"errors"

	"github.com/tally-app/tally/internal/errdef"
	"github.com/tally-app/tally/pkg/model"
)

// ErrRuleMismatch is returned if a rule doesn't exist within the group it's used in.
var ErrRuleMismatch = errors.New("rule-mismatch")

const (
	MinPoints        = -1000
	MaxPoints        = 1000
	MaxVetoThreshold = 100
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(repository ruleRepository) *Service {
	return &Service{repository: repository}
}

type ruleRepository interface {
	find(ctx context.Context, id uint) (*model.Rule, error)
	findByGroup(ctx context.Context, groupID uint) ([]model.Rule, error)
}

// Service is the catalog of house rules. Rules are created together with their group and never
// change afterward.
type Service struct {
	repository ruleRepository
}

func (s Service) Find(ctx context.Context, id uint) (*model.Rule, error) {
	return s.repository.find(ctx, id)
}

// FindForGroup returns the rule with the given id if it belongs to the given group.
func (s Service) FindForGroup(ctx context.Context, groupID, ruleID uint) (*model.Rule, error) {
	rule, err := s.repository.find(ctx, ruleID)
	if errdef.IsNotFound(err) {
		return nil, errdef.NewValidation("%w: rule %d doesn't exist", ErrRuleMismatch, ruleID)
	}
	if err != nil {
		return nil, err
	}

	if rule.GroupID != groupID {
		return nil, errdef.NewValidation("%w: rule %d doesn't belong to group %d", ErrRuleMismatch, ruleID, groupID)
	}

	return rule, nil
}

func (s Service) FindByGroup(ctx context.Context, groupID uint) ([]model.Rule, error) {
	return s.repository.findByGroup(ctx, groupID)
}

// Validate checks rule is within the ranges accepted by a group.
func Validate(rule model.Rule) error {
	if rule.Description == "" {
		return errdef.NewBadRequest("rule description is required")
	}
	if rule.Points < MinPoints || rule.Points > MaxPoints {
		return errdef.NewBadRequest("rule points must be within [%d, %d], got %d", MinPoints, MaxPoints, rule.Points)
	}
	if rule.VetoThreshold > MaxVetoThreshold {
		return errdef.NewBadRequest("rule veto threshold must be within [0, %d], got %d", MaxVetoThreshold, rule.VetoThreshold)
	}
	return nil
}

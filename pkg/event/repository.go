package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tally-app/tally/internal/errdef"
	"github.com/tally-app/tally/pkg/group"
	"github.com/tally-app/tally/pkg/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{db: db}
}

type repository struct {
	db *gorm.DB
}

func (r repository) create(ctx context.Context, event *model.Event) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	err := r.db.WithContext(ctx).Create(event).Error
	if err != nil {
		return fmt.Errorf("failed to create event: %v", err)
	}

	return nil
}

func orderVotes(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func (r repository) find(ctx context.Context, id uint) (*model.Event, error) {
	var event *model.Event
	err := r.db.
		WithContext(ctx).
		Preload("Votes", orderVotes).
		First(&event, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("%w: event %d doesn't exist", ErrEventNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event: %v", err)
	}

	return event, nil
}

// findByGroup returns the events of a group newest first. An empty status returns events of any status.
func (r repository) findByGroup(ctx context.Context, groupID uint, status model.EventStatus) ([]model.Event, error) {
	query := r.db.
		WithContext(ctx).
		Preload("Votes", orderVotes).
		Where("group_id = ?", groupID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var events []model.Event
	err := query.
		Order("created_at desc").
		Order("id desc").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find events of group %d: %v", groupID, err)
	}

	return events, nil
}

func (r repository) findOverdue(ctx context.Context, groupID uint, now time.Time) ([]model.Event, error) {
	var events []model.Event
	err := r.db.
		WithContext(ctx).
		Where("group_id = ? AND status = ? AND expires_at < ?", groupID, model.EventStatusPending, now).
		Order("expires_at").
		Order("id").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find overdue events of group %d: %v", groupID, err)
	}

	return events, nil
}

func (r repository) findGroupsWithOverdue(ctx context.Context, now time.Time) ([]uint, error) {
	var groupIDs []uint
	err := r.db.
		WithContext(ctx).
		Model(&model.Event{}).
		Distinct("group_id").
		Where("status = ? AND expires_at < ?", model.EventStatusPending, now).
		Order("group_id").
		Pluck("group_id", &groupIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find groups with overdue events: %v", err)
	}

	return groupIDs, nil
}

// lockEvent reads the event with its votes and holds a row lock on it until tx ends.
func lockEvent(tx *gorm.DB, id uint) (*model.Event, error) {
	var event model.Event
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&event, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("%w: event %d doesn't exist", ErrEventNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock event %d: %v", id, err)
	}

	err = tx.
		Where("event_id = ?", id).
		Order("id").
		Find(&event.Votes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find votes of event %d: %v", id, err)
	}

	return &event, nil
}

// vote records a veto of voterID if decide accepts it given the current state of the event. The
// event is only updated if nobody else did since it was read.
func (r repository) vote(ctx context.Context, eventID, voterID uint, now time.Time, decide func(event *model.Event) (decision, error)) (*model.Event, error) {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	var event *model.Event
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		event, err = lockEvent(tx, eventID)
		if err != nil {
			return err
		}

		d, err := decide(event)
		if err != nil {
			return err
		}

		vote := model.Vote{EventID: event.ID, VoterID: voterID, CreatedAt: now}
		err = tx.Create(&vote).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errdef.NewConflict("%w: user %d already vetoed event %d", ErrDuplicateVote, voterID, event.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to create vote: %v", err)
		}

		updates := map[string]any{
			"status":  d.status,
			"version": gorm.Expr("version + 1"),
		}
		if d.status.IsTerminal() {
			updates["resolved_at"] = now
		}
		result := tx.
			Model(&model.Event{}).
			Where("id = ? AND version = ?", event.ID, event.Version).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update event %d: %v", event.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return errdef.NewConcurrencyConflict("event %d was updated concurrently", event.ID)
		}

		event.Votes = append(event.Votes, vote)
		event.Status = d.status
		event.Version++
		if d.status.IsTerminal() {
			event.ResolvedAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return event, nil
}

// approve resolves an overdue event as approved and applies points to the target member. Both
// happen in one transaction, so an event is either approved with its points applied or left pending.
// False is returned if the event isn't overdue (anymore).
func (r repository) approve(ctx context.Context, eventID uint, points int, now time.Time) (*model.Event, bool, error) {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	var approved *model.Event
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := lockEvent(tx, eventID)
		if err != nil {
			return err
		}

		if !isOverdue(event, now) {
			return nil
		}

		result := tx.
			Model(&model.Event{}).
			Where("id = ? AND status = ?", event.ID, model.EventStatusPending).
			Updates(map[string]any{
				"status":      model.EventStatusApproved,
				"resolved_at": now,
				"version":     gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to approve event %d: %v", event.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if err := group.IncrementTotalPoints(tx, event.GroupID, event.TargetUserID, points); err != nil {
			return err
		}

		event.Status = model.EventStatusApproved
		event.ResolvedAt = &now
		event.Version++
		approved = event
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return approved, approved != nil, nil
}

package event

import (
	"time"

	"github.com/tally-app/tally/internal/errdef"
	"github.com/tally-app/tally/pkg/model"
)

// decision is the outcome of accepting a veto.
type decision struct {
	vetoCount int
	status    model.EventStatus
}

// checkVotable returns an error if event doesn't accept vetoes at now anymore. It only needs the
// event itself so it runs before anything else is looked up.
func checkVotable(event *model.Event, now time.Time) error {
	if event.Status != model.EventStatusPending {
		return errdef.NewConflict("%w: event %d is %s", ErrNotPending, event.ID, event.Status)
	}

	if now.After(event.ExpiresAt) {
		return errdef.NewConflict("%w: event %d expired at %s", ErrExpired, event.ID, event.ExpiresAt.Format(time.RFC3339))
	}

	return nil
}

// decideVeto checks whether voterID may veto event at now and returns the state the event is in
// once the veto is counted. The checks are ordered, the first failing one is reported.
func decideVeto(event *model.Event, rule *model.Rule, group *model.Group, voterID uint, now time.Time) (decision, error) {
	if err := checkVotable(event, now); err != nil {
		return decision{}, err
	}

	if !group.IsMember(voterID) {
		return decision{}, errdef.NewForbidden("%w: user %d is not a member of group %d", ErrAccessDenied, voterID, group.ID)
	}

	if voterID == event.TargetUserID {
		return decision{}, errdef.NewConflict("%w: user %d is the target of event %d", ErrSelfVoteForbidden, voterID, event.ID)
	}

	if event.HasVoted(voterID) {
		return decision{}, errdef.NewConflict("%w: user %d already vetoed event %d", ErrDuplicateVote, voterID, event.ID)
	}

	count := event.VetoCount() + 1
	status := model.EventStatusPending
	if uint(count) >= rule.VetoThreshold {
		status = model.EventStatusVetoed
	}

	return decision{vetoCount: count, status: status}, nil
}

// isOverdue returns true if event survived its review window and is waiting to be approved.
func isOverdue(event *model.Event, now time.Time) bool {
	return event.Status == model.EventStatusPending && event.ExpiresAt.Before(now)
}

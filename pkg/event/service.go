package event

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tally-app/tally/internal/errdef"
	"github.com/tally-app/tally/pkg/lock"
	"github.com/tally-app/tally/pkg/model"
	"github.com/tally-app/tally/pkg/notification"
)

const (
	// ReviewWindow is the time members have to veto an event.
	ReviewWindow = 24 * time.Hour
	// maxVoteAttempts is how often a veto is tried when losing against concurrent vetoes.
	maxVoteAttempts = 3
	sweepLockTTL    = time.Minute
)

type eventRepository interface {
	create(ctx context.Context, event *model.Event) error
	find(ctx context.Context, id uint) (*model.Event, error)
	findByGroup(ctx context.Context, groupID uint, status model.EventStatus) ([]model.Event, error)
	findOverdue(ctx context.Context, groupID uint, now time.Time) ([]model.Event, error)
	findGroupsWithOverdue(ctx context.Context, now time.Time) ([]uint, error)
	vote(ctx context.Context, eventID, voterID uint, now time.Time, decide func(event *model.Event) (decision, error)) (*model.Event, error)
	approve(ctx context.Context, eventID uint, points int, now time.Time) (*model.Event, bool, error)
}

type groupService interface {
	Find(ctx context.Context, id uint) (*model.Group, error)
	RequireMember(ctx context.Context, groupID, userID uint) (*model.Group, error)
}

type ruleService interface {
	Find(ctx context.Context, id uint) (*model.Rule, error)
	FindForGroup(ctx context.Context, groupID, ruleID uint) (*model.Rule, error)
	FindByGroup(ctx context.Context, groupID uint) ([]model.Rule, error)
}

type locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error)
}

type notifier interface {
	Notify(ctx context.Context, message notification.Message) error
}

// Option configures a Service.
type Option func(*Service)

// WithClock makes the service read the current time from clock.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(
	logger *slog.Logger,
	repository eventRepository,
	groupService groupService,
	ruleService ruleService,
	locker locker,
	notifier notifier,
	options ...Option,
) *Service {
	s := &Service{
		logger:       logger,
		repository:   repository,
		groupService: groupService,
		ruleService:  ruleService,
		locker:       locker,
		notifier:     notifier,
		clock:        now,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Service runs the lifecycle of events. An event is created pending, members other than its target
// can veto it during the review window. It's vetoed once the veto threshold of its rule is reached
// and approved if it survives the review window. Points are applied to the target member on
// approval only.
type Service struct {
	logger       *slog.Logger
	repository   eventRepository
	groupService groupService
	ruleService  ruleService
	locker       locker
	notifier     notifier
	clock        func() time.Time
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Now returns the current time as seen by the service.
func (s *Service) Now() time.Time {
	return s.clock()
}

// CreateEvent submits an event applying rule ruleID to targetUserID. Both submitter and target need
// to be members of the group.
func (s *Service) CreateEvent(ctx context.Context, groupID, targetUserID, submitterUserID, ruleID uint, description string) (*model.Event, error) {
	group, err := s.groupService.Find(ctx, groupID)
	if errdef.IsNotFound(err) {
		return nil, errdef.NewNotFound("%w", errdef.NewValidation("%w: group %d doesn't exist", ErrGroupNotFound, groupID))
	}
	if err != nil {
		return nil, err
	}

	if !group.IsMember(submitterUserID) {
		return nil, errdef.NewForbidden("%w", errdef.NewValidation("%w: submitter %d isn't a member of group %d", ErrNotAMember, submitterUserID, groupID))
	}

	if !group.IsMember(targetUserID) {
		return nil, errdef.NewValidation("%w: target %d isn't a member of group %d", ErrNotAMember, targetUserID, groupID)
	}

	if _, err := s.ruleService.FindForGroup(ctx, groupID, ruleID); err != nil {
		return nil, err
	}

	createdAt := s.clock()
	event := &model.Event{
		GroupID:         groupID,
		TargetUserID:    targetUserID,
		SubmitterUserID: submitterUserID,
		RuleID:          ruleID,
		Description:     strings.TrimSpace(description),
		Status:          model.EventStatusPending,
		Votes:           []model.Vote{},
		CreatedAt:       createdAt,
		ExpiresAt:       createdAt.Add(ReviewWindow),
	}
	if err := s.repository.create(ctx, event); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Created event", "eventId", event.ID, "groupId", groupID, "ruleId", ruleID, "targetUserId", targetUserID)
	s.notify(ctx, notification.NewMessage(notification.KindEventCreated, event, createdAt))
	return event, nil
}

// VoteResult is the state of an event after a veto was counted.
type VoteResult struct {
	EventID   uint              `json:"id"`
	Status    model.EventStatus `json:"status"`
	Votes     []model.Vote      `json:"votes"`
	VetoCount int               `json:"vetoCount"`
}

// CastVetoVote counts a veto of voterID against the event at now. The event is vetoed if the veto
// threshold of its rule is reached.
func (s *Service) CastVetoVote(ctx context.Context, eventID, voterID uint, now time.Time) (*VoteResult, error) {
	event, err := s.repository.find(ctx, eventID)
	if err != nil {
		return nil, err
	}

	// a resolved or expired event is reported as such even if its group or rule is gone
	if err := checkVotable(event, now); err != nil {
		return nil, err
	}

	group, err := s.groupService.Find(ctx, event.GroupID)
	if err != nil {
		return nil, err
	}

	rule, err := s.ruleService.Find(ctx, event.RuleID)
	if err != nil {
		return nil, err
	}

	decide := func(event *model.Event) (decision, error) {
		return decideVeto(event, rule, group, voterID, now)
	}

	var updated *model.Event
	for attempt := 1; ; attempt++ {
		updated, err = s.repository.vote(ctx, eventID, voterID, now, decide)
		if errdef.IsConcurrencyConflict(err) && attempt < maxVoteAttempts {
			s.logger.WarnContext(ctx, "Retrying veto", "eventId", eventID, "attempt", attempt, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}

	s.logger.InfoContext(ctx, "Vetoed event", "eventId", eventID, "voterId", voterID, "vetoCount", updated.VetoCount(), "status", updated.Status)
	if updated.Status == model.EventStatusVetoed {
		s.notify(ctx, notification.NewMessage(notification.KindEventVetoed, updated, now))
	}

	return &VoteResult{
		EventID:   updated.ID,
		Status:    updated.Status,
		Votes:     updated.Votes,
		VetoCount: updated.VetoCount(),
	}, nil
}

// SweepExpired approves the pending events of a group whose review window ended before now and
// returns their ids. Each event is resolved on its own, an event failing to resolve stays pending and
// doesn't keep the others from being resolved. Nothing is swept if a sweep of the group is already
// running.
func (s *Service) SweepExpired(ctx context.Context, groupID uint, now time.Time) ([]uint, error) {
	release, acquired, err := s.locker.TryLock(ctx, lock.SweepKey(groupID), sweepLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		s.logger.DebugContext(ctx, "Sweep already in progress", "groupId", groupID)
		return nil, nil
	}
	defer release()

	events, err := s.repository.findOverdue(ctx, groupID, now)
	if err != nil {
		return nil, err
	}

	var approved []uint
	for _, event := range events {
		rule, err := s.ruleService.Find(ctx, event.RuleID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to find rule of overdue event", "eventId", event.ID, "ruleId", event.RuleID, "error", err)
			continue
		}

		resolved, ok, err := s.repository.approve(ctx, event.ID, rule.Points, now)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to approve event", "eventId", event.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}

		approved = append(approved, event.ID)
		s.logger.InfoContext(ctx, "Approved event", "eventId", event.ID, "groupId", groupID, "targetUserId", event.TargetUserID, "points", rule.Points)

		message := notification.NewMessage(notification.KindEventApproved, resolved, now)
		message.Points = rule.Points
		s.notify(ctx, message)
	}

	return approved, nil
}

// FindGroupsWithOverdueEvents returns the ids of the groups having pending events whose review window
// ended before now.
func (s *Service) FindGroupsWithOverdueEvents(ctx context.Context, now time.Time) ([]uint, error) {
	return s.repository.findGroupsWithOverdue(ctx, now)
}

// RuleView is the rule of an event as shown to members. Description is "Unknown rule" if the rule
// is gone.
type RuleView struct {
	ID            uint   `json:"id"`
	Description   string `json:"description"`
	Points        int    `json:"points"`
	VetoThreshold uint   `json:"vetoThreshold"`
}

// View is an event as shown to members of its group.
type View struct {
	ID              uint              `json:"id"`
	GroupID         uint              `json:"groupId"`
	TargetUserID    uint              `json:"userId"`
	TargetName      string            `json:"userName"`
	TargetEmail     string            `json:"userEmail"`
	SubmitterUserID uint              `json:"submittedBy"`
	SubmitterName   string            `json:"submittedByName"`
	Rule            RuleView          `json:"rule"`
	Description     string            `json:"description"`
	Status          model.EventStatus `json:"status"`
	Votes           []model.Vote      `json:"votes"`
	VetoCount       int               `json:"vetoCount"`
	CreatedAt       time.Time         `json:"createdAt"`
	ExpiresAt       time.Time         `json:"expiresAt"`
	ResolvedAt      *time.Time        `json:"resolvedAt,omitempty"`
}

// GetEvents returns the events of a group newest first. Overdue events are approved before. Only
// events of the given status are returned unless status is empty or unknown.
func (s *Service) GetEvents(ctx context.Context, groupID, requesterID uint, status model.EventStatus) ([]View, error) {
	group, err := s.groupService.RequireMember(ctx, groupID, requesterID)
	if err != nil {
		return nil, err
	}

	if _, err := s.SweepExpired(ctx, groupID, s.clock()); err != nil {
		s.logger.ErrorContext(ctx, "Failed to sweep expired events", "groupId", groupID, "error", err)
	}

	if !status.IsValid() {
		status = ""
	}
	events, err := s.repository.findByGroup(ctx, groupID, status)
	if err != nil {
		return nil, err
	}

	rules, err := s.ruleService.FindByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	rulesByID := make(map[uint]model.Rule, len(rules))
	for _, r := range rules {
		rulesByID[r.ID] = r
	}

	views := make([]View, len(events))
	for i := range events {
		views[i] = newView(&events[i], group, rulesByID)
	}
	return views, nil
}

func newView(event *model.Event, group *model.Group, rules map[uint]model.Rule) View {
	target, _ := group.Member(event.TargetUserID)
	submitter, _ := group.Member(event.SubmitterUserID)

	rule := RuleView{ID: event.RuleID, Description: "Unknown rule"}
	if r, ok := rules[event.RuleID]; ok {
		rule = RuleView{
			ID:            r.ID,
			Description:   r.Description,
			Points:        r.Points,
			VetoThreshold: r.VetoThreshold,
		}
	}

	votes := event.Votes
	if votes == nil {
		votes = []model.Vote{}
	}

	return View{
		ID:              event.ID,
		GroupID:         event.GroupID,
		TargetUserID:    event.TargetUserID,
		TargetName:      nameOrUnknown(target.Name),
		TargetEmail:     target.Email,
		SubmitterUserID: event.SubmitterUserID,
		SubmitterName:   nameOrUnknown(submitter.Name),
		Rule:            rule,
		Description:     event.Description,
		Status:          event.Status,
		Votes:           votes,
		VetoCount:       event.VetoCount(),
		CreatedAt:       event.CreatedAt,
		ExpiresAt:       event.ExpiresAt,
		ResolvedAt:      event.ResolvedAt,
	}
}

func nameOrUnknown(name string) string {
	if name == "" {
		return "Unknown"
	}
	return name
}

func (s *Service) notify(ctx context.Context, message notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, message); err != nil {
		s.logger.ErrorContext(ctx, "Failed to notify", "kind", message.Kind, "eventId", message.EventID, "error", err)
	}
}

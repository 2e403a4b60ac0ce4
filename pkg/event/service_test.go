package event_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/tally-app/tally/internal/errdef"
	"github.com/tally-app/tally/pkg/event"
	"github.com/tally-app/tally/pkg/group"
	"github.com/tally-app/tally/pkg/inttest"
	"github.com/tally-app/tally/pkg/lock"
	"github.com/tally-app/tally/pkg/model"
	"github.com/tally-app/tally/pkg/notification"
	"github.com/tally-app/tally/pkg/rule"
	"github.com/tally-app/tally/pkg/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var start = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *recordingNotifier) Notify(_ context.Context, message notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func (n *recordingNotifier) Kinds(eventID uint) []notification.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	var kinds []notification.Kind
	for _, m := range n.messages {
		if m.EventID == eventID {
			kinds = append(kinds, m.Kind)
		}
	}
	return kinds
}

// fixture is a group of five members. Its rules are reward (10 points, vetoed by 2), penalty (-5
// points, vetoed by 2), instant (3 points, vetoed by the first veto) and crowd (1 point, vetoed by 3).
type fixture struct {
	db           *gorm.DB
	clock        *testClock
	notifier     *recordingNotifier
	locker       *lock.Local
	groupService *group.Service
	service      *event.Service
	home         *model.Group

	reward, penalty, instant, crowd model.Rule

	ann, bob, cat, dan, eve, outsider *model.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	return setupWithDB(t, inttest.SetupSQLiteDB(t))
}

func setupWithDB(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	ctx := context.Background()

	userService := user.NewService(user.NewRepository(db))
	groupService := group.NewService(slog.Default(), group.NewRepository(db))
	ruleService := rule.NewService(rule.NewRepository(db))
	f := &fixture{
		db:           db,
		clock:        &testClock{now: start},
		notifier:     &recordingNotifier{},
		locker:       lock.NewLocal(),
		groupService: groupService,
	}
	f.service = event.NewService(slog.Default(), event.NewRepository(db), groupService, ruleService, f.locker, f.notifier, event.WithClock(f.clock.Now))

	newUser := func(name, email string) *model.User {
		u, err := userService.Create(ctx, name, email)
		require.NoError(t, err)
		return u
	}
	f.ann = newUser("Ann", "ann@tally.app")
	f.bob = newUser("Bob", "bob@tally.app")
	f.cat = newUser("Cat", "cat@tally.app")
	f.dan = newUser("Dan", "dan@tally.app")
	f.eve = newUser("Eve", "eve@tally.app")
	f.outsider = newUser("Olga", "olga@tally.app")

	home, err := groupService.Create(ctx, f.ann, "Our Home", "", []model.Rule{
		{Description: "Cooked dinner", Points: 10, VetoThreshold: 2},
		{Description: "Dishes left in the sink", Points: -5, VetoThreshold: 2},
		{Description: "Took out the trash", Points: 3, VetoThreshold: 0},
		{Description: "Watered the plants", Points: 1, VetoThreshold: 3},
	})
	require.NoError(t, err)
	for _, u := range []*model.User{f.bob, f.cat, f.dan, f.eve} {
		_, err := groupService.Join(ctx, home.JoinCode, u)
		require.NoError(t, err)
	}
	f.home = home
	f.reward, f.penalty, f.instant, f.crowd = home.Rules[0], home.Rules[1], home.Rules[2], home.Rules[3]

	return f
}

func (f *fixture) createEvent(t *testing.T, target *model.User, r model.Rule) *model.Event {
	t.Helper()
	e, err := f.service.CreateEvent(context.Background(), f.home.ID, target.ID, f.ann.ID, r.ID, "")
	require.NoError(t, err)
	return e
}

func (f *fixture) totalPoints(t *testing.T, u *model.User) int {
	t.Helper()
	g, err := f.groupService.FindWithMembers(context.Background(), f.home.ID, f.ann.ID)
	require.NoError(t, err)
	member, ok := g.Member(u.ID)
	require.True(t, ok)
	return member.TotalPoints
}

func (f *fixture) findView(t *testing.T, eventID uint) event.View {
	t.Helper()
	views, err := f.service.GetEvents(context.Background(), f.home.ID, f.ann.ID, "")
	require.NoError(t, err)
	for _, v := range views {
		if v.ID == eventID {
			return v
		}
	}
	require.FailNow(t, "event not found", "event %d", eventID)
	return event.View{}
}

func TestService_CreateEvent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		e, err := f.service.CreateEvent(ctx, f.home.ID, f.bob.ID, f.cat.ID, f.reward.ID, "  made lasagna ")
		require.NoError(t, err)

		assert.NotZero(t, e.ID)
		assert.Equal(t, f.home.ID, e.GroupID)
		assert.Equal(t, f.bob.ID, e.TargetUserID)
		assert.Equal(t, f.cat.ID, e.SubmitterUserID)
		assert.Equal(t, f.reward.ID, e.RuleID)
		assert.Equal(t, "made lasagna", e.Description)
		assert.Equal(t, model.EventStatusPending, e.Status)
		assert.Empty(t, e.Votes)
		assert.WithinDuration(t, start, e.CreatedAt, 0)
		assert.WithinDuration(t, start.Add(24*time.Hour), e.ExpiresAt, 0)
		assert.Nil(t, e.ResolvedAt)
		assert.Equal(t, []notification.Kind{notification.KindEventCreated}, f.notifier.Kinds(e.ID))
		assert.Equal(t, 0, f.totalPoints(t, f.bob))
	})

	t.Run("TargetingSelf", func(t *testing.T) {
		_, err := f.service.CreateEvent(ctx, f.home.ID, f.cat.ID, f.cat.ID, f.reward.ID, "")

		assert.NoError(t, err)
	})

	t.Run("GroupNotFound", func(t *testing.T) {
		_, err := f.service.CreateEvent(ctx, 4711, f.bob.ID, f.cat.ID, f.reward.ID, "")

		require.ErrorIs(t, err, event.ErrGroupNotFound)
		assert.True(t, errdef.IsValidation(err))
		assert.True(t, errdef.IsNotFound(err))
	})

	t.Run("SubmitterNotAMember", func(t *testing.T) {
		_, err := f.service.CreateEvent(ctx, f.home.ID, f.bob.ID, f.outsider.ID, f.reward.ID, "")

		require.ErrorIs(t, err, event.ErrNotAMember)
		assert.True(t, errdef.IsValidation(err))
		assert.True(t, errdef.IsForbidden(err))
	})

	t.Run("TargetNotAMember", func(t *testing.T) {
		_, err := f.service.CreateEvent(ctx, f.home.ID, f.outsider.ID, f.cat.ID, f.reward.ID, "")

		require.ErrorIs(t, err, event.ErrNotAMember)
		assert.True(t, errdef.IsValidation(err))
		assert.False(t, errdef.IsForbidden(err))
	})

	t.Run("RuleOfAnotherGroup", func(t *testing.T) {
		other, err := f.groupService.Create(ctx, f.cat, "Office", "", []model.Rule{{Description: "Brought cake", Points: 2}})
		require.NoError(t, err)

		_, err = f.service.CreateEvent(ctx, f.home.ID, f.bob.ID, f.cat.ID, other.Rules[0].ID, "")

		require.ErrorIs(t, err, event.ErrRuleMismatch)
		assert.True(t, errdef.IsValidation(err))
	})

	t.Run("RuleNotFound", func(t *testing.T) {
		_, err := f.service.CreateEvent(ctx, f.home.ID, f.bob.ID, f.cat.ID, 4711, "")

		require.ErrorIs(t, err, event.ErrRuleMismatch)
		assert.True(t, errdef.IsValidation(err))
	})
}

func TestService_CastVetoVote(t *testing.T) {
	ctx := context.Background()

	t.Run("VetoedOnceThresholdIsReached", func(t *testing.T) {
		f := setup(t)
		e := f.createEvent(t, f.bob, f.reward)

		result, err := f.service.CastVetoVote(ctx, e.ID, f.cat.ID, f.clock.Advance(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, model.EventStatusPending, result.Status)
		assert.Equal(t, 1, result.VetoCount)

		result, err = f.service.CastVetoVote(ctx, e.ID, f.dan.ID, f.clock.Advance(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, e.ID, result.EventID)
		assert.Equal(t, model.EventStatusVetoed, result.Status)
		assert.Equal(t, 2, result.VetoCount)
		require.Len(t, result.Votes, 2)
		assert.Equal(t, f.cat.ID, result.Votes[0].VoterID)
		assert.Equal(t, f.dan.ID, result.Votes[1].VoterID)

		approved, err := f.service.SweepExpired(ctx, f.home.ID, f.clock.Advance(25*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, approved)
		assert.Equal(t, 0, f.totalPoints(t, f.bob))

		view := f.findView(t, e.ID)
		assert.Equal(t, model.EventStatusVetoed, view.Status)
		require.NotNil(t, view.ResolvedAt)
		assert.WithinDuration(t, start.Add(2*time.Hour), *view.ResolvedAt, 0)
		assert.Equal(t, []notification.Kind{notification.KindEventCreated, notification.KindEventVetoed}, f.notifier.Kinds(e.ID))
	})

	t.Run("ApprovedIfNotVetoedInTime", func(t *testing.T) {
		f := setup(t)
		e := f.createEvent(t, f.bob, f.reward)

		_, err := f.service.CastVetoVote(ctx, e.ID, f.cat.ID, f.clock.Now())
		require.NoError(t, err)

		approved, err := f.service.SweepExpired(ctx, f.home.ID, f.clock.Advance(24*time.Hour+time.Second))
		require.NoError(t, err)

		assert.Equal(t, []uint{e.ID}, approved)
		assert.Equal(t, 10, f.totalPoints(t, f.bob))
		view := f.findView(t, e.ID)
		assert.Equal(t, model.EventStatusApproved, view.Status)
		assert.Equal(t, 1, view.VetoCount)
	})

	t.Run("ZeroThresholdVetoesOnFirstVeto", func(t *testing.T) {
		f := setup(t)
		e := f.createEvent(t, f.bob, f.instant)

		result, err := f.service.CastVetoVote(ctx, e.ID, f.cat.ID, f.clock.Now())
		require.NoError(t, err)

		assert.Equal(t, model.EventStatusVetoed, result.Status)
		assert.Equal(t, 1, result.VetoCount)
	})

	t.Run("SelfVoteForbidden", func(t *testing.T) {
		f := setup(t)
		e := f.createEvent(t, f.bob, f.reward)

		_, err := f.service.CastVetoVote(ctx, e.ID, f.bob.ID, f.clock.Now())

		require.ErrorIs(t, err, event.ErrSelfVoteForbidden)
		assert.True(t, errdef.IsConflict(err))
		view := f.findView(t, e.ID)
		assert.Empty(t, view.Votes)
		assert.Equal(t, model.EventStatusPending, view.Status)
	})

	t.Run("DuplicateVote", func(t *testing.T) {
		f := setup(t)
		e := f.createEvent(t, f.bob, f.penalty)
		_, err := f.service.CastVetoVote(ctx, e.ID, f.cat.ID, f.clock.Now())
		require.NoError(t, err)

		_, err = f.service.CastVetoVote(ctx, e.ID, f.cat.ID, f.clock.Advance(time.Minute))

		require.ErrorIs(t, err, event.ErrDuplicateVote)
		assert.True(t, errdef.IsConflict(err))
		view := f.findView(t, e.ID)
		require.Len(t, view.Votes, 1)
		assert.Equal(t, f.cat.ID, view.Votes[0].VoterID)
		assert.WithinDuration(t, start, view.Votes[0].CreatedAt, 0)
		assert.Equal(t, 1, view.VetoCount)
		assert.Equal(t, model.EventStatusPending, view.Status)
	})

	t.Run("Expired", func(t *testing.T) {
		f := setup(t)
		e := f.createEvent(t, f.bob, f.reward)

		_, err := f.service.CastVetoVote(ctx, e.ID, f.cat.ID, e.ExpiresAt)
		require.NoError(t, err)

		_, err = f.service.CastVetoVote(ctx, e.ID, f.dan.ID, e.ExpiresAt.Add(time.Second))

		require.ErrorIs(t, err, event.ErrExpired)
		assert.True(t, errdef.IsConflict(err))
	})

	t.Run("NotPending", func(t *testing.T) {
		f := setup(t)
		e := f.createEvent(t, f.bob, f.instant)
		_, err := f.service.CastVetoVote(ctx, e.ID, f.cat.ID, f.clock.Now())
		require.NoError(t, err)

		_, err = f.service.CastVetoVote(ctx, e.ID, f.dan.ID, f.clock.Now())

		require.ErrorIs(t, err, event.ErrNotPending)
		assert.True(t, errdef.IsConflict(err))
	})

	t.Run("NotPendingOnceRuleIsGone", func(t *testing.T) {
		f := setup(t)
		e := f.createEvent(t, f.bob, f.instant)
		_, err := f.service.CastVetoVote(ctx, e.ID, f.cat.ID, f.clock.Now())
		require.NoError(t, err)
		require.NoError(t, f.db.Delete(&model.Rule{}, f.instant.ID).Error)

		_, err = f.service.CastVetoVote(ctx, e.ID, f.dan.ID, f.clock.Now())

		require.ErrorIs(t, err, event.ErrNotPending)
		assert.True(t, errdef.IsConflict(err))
		assert.False(t, errdef.IsNotFound(err))
	})

	t.Run("ExpiredOnceRuleIsGone", func(t *testing.T) {
		f := setup(t)
		e := f.createEvent(t, f.bob, f.reward)
		require.NoError(t, f.db.Delete(&model.Rule{}, f.reward.ID).Error)

		_, err := f.service.CastVetoVote(ctx, e.ID, f.cat.ID, e.ExpiresAt.Add(time.Microsecond))

		require.ErrorIs(t, err, event.ErrExpired)
		assert.False(t, errdef.IsNotFound(err))
	})

	t.Run("VoterNotAMember", func(t *testing.T) {
		f := setup(t)
		e := f.createEvent(t, f.bob, f.reward)

		_, err := f.service.CastVetoVote(ctx, e.ID, f.outsider.ID, f.clock.Now())

		require.ErrorIs(t, err, event.ErrAccessDenied)
		assert.True(t, errdef.IsForbidden(err))
	})

	t.Run("EventNotFound", func(t *testing.T) {
		f := setup(t)

		_, err := f.service.CastVetoVote(ctx, 4711, f.cat.ID, f.clock.Now())

		require.ErrorIs(t, err, event.ErrEventNotFound)
		assert.True(t, errdef.IsNotFound(err))
	})

	t.Run("ConcurrentVoters", func(t *testing.T) {
		f := setup(t)
		e := f.createEvent(t, f.bob, f.crowd)
		voters := []*model.User{f.ann, f.cat, f.dan, f.eve}

		errs := make([]error, len(voters))
		var wg sync.WaitGroup
		for i, voter := range voters {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = f.service.CastVetoVote(ctx, e.ID, voter.ID, f.clock.Now())
			}()
		}
		wg.Wait()

		var accepted, notPending int
		for _, err := range errs {
			switch {
			case err == nil:
				accepted++
			case errdef.IsConflict(err):
				assert.ErrorIs(t, err, event.ErrNotPending)
				notPending++
			default:
				assert.NoError(t, err)
			}
		}
		assert.Equal(t, 3, accepted)
		assert.Equal(t, 1, notPending)
		view := f.findView(t, e.ID)
		assert.Equal(t, model.EventStatusVetoed, view.Status)
		assert.Equal(t, 3, view.VetoCount)
		assert.Equal(t, []notification.Kind{notification.KindEventCreated, notification.KindEventVetoed}, f.notifier.Kinds(e.ID))
	})
}

func TestService_SweepExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("Idempotent", func(t *testing.T) {
		f := setup(t)
		e1 := f.createEvent(t, f.bob, f.reward)
		e2 := f.createEvent(t, f.bob, f.penalty)
		now := f.clock.Advance(24*time.Hour + time.Second)

		first, err := f.service.SweepExpired(ctx, f.home.ID, now)
		require.NoError(t, err)
		second, err := f.service.SweepExpired(ctx, f.home.ID, now)
		require.NoError(t, err)

		assert.ElementsMatch(t, []uint{e1.ID, e2.ID}, first)
		assert.Empty(t, second)
		assert.Equal(t, 5, f.totalPoints(t, f.bob))
	})

	t.Run("WindowBoundary", func(t *testing.T) {
		f := setup(t)
		e := f.createEvent(t, f.bob, f.crowd)

		_, err := f.service.CastVetoVote(ctx, e.ID, f.cat.ID, e.ExpiresAt)
		require.NoError(t, err)

		approved, err := f.service.SweepExpired(ctx, f.home.ID, e.ExpiresAt)
		require.NoError(t, err)
		assert.Empty(t, approved)

		approved, err = f.service.SweepExpired(ctx, f.home.ID, e.ExpiresAt.Add(time.Microsecond))
		require.NoError(t, err)
		assert.Equal(t, []uint{e.ID}, approved)
		assert.Equal(t, 1, f.totalPoints(t, f.bob))

		_, err = f.service.CastVetoVote(ctx, e.ID, f.dan.ID, e.ExpiresAt.Add(time.Microsecond))
		require.ErrorIs(t, err, event.ErrNotPending)
	})

	t.Run("NothingBeforeExpiry", func(t *testing.T) {
		f := setup(t)
		e := f.createEvent(t, f.bob, f.reward)

		approved, err := f.service.SweepExpired(ctx, f.home.ID, e.ExpiresAt)
		require.NoError(t, err)

		assert.Empty(t, approved)
		assert.Equal(t, 0, f.totalPoints(t, f.bob))
	})

	t.Run("PointsAreTheSumOfApprovedEvents", func(t *testing.T) {
		f := setup(t)
		type submission struct {
			target *model.User
			rule   model.Rule
			vetoes []*model.User
		}
		submissions := []submission{
			{target: f.bob, rule: f.reward},
			{target: f.bob, rule: f.reward, vetoes: []*model.User{f.cat, f.dan}},
			{target: f.bob, rule: f.penalty, vetoes: []*model.User{f.cat}},
			{target: f.bob, rule: f.instant},
			{target: f.cat, rule: f.penalty},
			{target: f.cat, rule: f.instant, vetoes: []*model.User{f.bob}},
			{target: f.cat, rule: f.crowd, vetoes: []*model.User{f.ann, f.bob}},
		}
		expected := map[uint]int{}
		for _, s := range submissions {
			e := f.createEvent(t, s.target, s.rule)
			for _, voter := range s.vetoes {
				_, err := f.service.CastVetoVote(ctx, e.ID, voter.ID, f.clock.Now())
				require.NoError(t, err)
			}
			if len(s.vetoes) == 0 || uint(len(s.vetoes)) < s.rule.VetoThreshold {
				expected[s.target.ID] += s.rule.Points
			}
			f.clock.Advance(time.Minute)
		}

		now := f.clock.Advance(25 * time.Hour)
		_, err := f.service.SweepExpired(ctx, f.home.ID, now)
		require.NoError(t, err)
		_, err = f.service.SweepExpired(ctx, f.home.ID, now)
		require.NoError(t, err)

		assert.Equal(t, 10-5+3, expected[f.bob.ID])
		assert.Equal(t, -5+1, expected[f.cat.ID])
		assert.Equal(t, expected[f.bob.ID], f.totalPoints(t, f.bob))
		assert.Equal(t, expected[f.cat.ID], f.totalPoints(t, f.cat))
		assert.Equal(t, 0, f.totalPoints(t, f.dan))
	})

	t.Run("SkippedWhileAnotherSweepRuns", func(t *testing.T) {
		f := setup(t)
		e := f.createEvent(t, f.bob, f.reward)
		now := f.clock.Advance(25 * time.Hour)
		release, acquired, err := f.locker.TryLock(ctx, lock.SweepKey(f.home.ID), time.Minute)
		require.NoError(t, err)
		require.True(t, acquired)

		approved, err := f.service.SweepExpired(ctx, f.home.ID, now)
		require.NoError(t, err)
		assert.Empty(t, approved)

		release()
		approved, err = f.service.SweepExpired(ctx, f.home.ID, now)
		require.NoError(t, err)
		assert.Equal(t, []uint{e.ID}, approved)
	})

	t.Run("FailureOnlyAffectsItsEvent", func(t *testing.T) {
		f := setup(t)
		e1 := f.createEvent(t, f.bob, f.reward)
		e2 := f.createEvent(t, f.cat, f.reward)
		err := f.db.Delete(&model.Member{}, "group_id = ? AND user_id = ?", f.home.ID, f.bob.ID).Error
		require.NoError(t, err)
		now := f.clock.Advance(25 * time.Hour)

		approved, err := f.service.SweepExpired(ctx, f.home.ID, now)
		require.NoError(t, err)
		assert.Equal(t, []uint{e2.ID}, approved)
		assert.Equal(t, 10, f.totalPoints(t, f.cat))

		err = f.db.Create(&model.Member{GroupID: f.home.ID, UserID: f.bob.ID, Name: "Bob", Email: "bob@tally.app"}).Error
		require.NoError(t, err)
		approved, err = f.service.SweepExpired(ctx, f.home.ID, now)
		require.NoError(t, err)
		assert.Equal(t, []uint{e1.ID}, approved)
		assert.Equal(t, 10, f.totalPoints(t, f.bob))
	})

	t.Run("RuleGone", func(t *testing.T) {
		f := setup(t)
		e := f.createEvent(t, f.bob, f.reward)
		require.NoError(t, f.db.Delete(&model.Rule{}, f.reward.ID).Error)

		approved, err := f.service.SweepExpired(ctx, f.home.ID, f.clock.Advance(25*time.Hour))
		require.NoError(t, err)

		assert.Empty(t, approved)
		view := f.findView(t, e.ID)
		assert.Equal(t, model.EventStatusPending, view.Status)
		assert.Equal(t, "Unknown rule", view.Rule.Description)
	})

	t.Run("Notifies", func(t *testing.T) {
		f := setup(t)
		e := f.createEvent(t, f.bob, f.penalty)

		_, err := f.service.SweepExpired(ctx, f.home.ID, f.clock.Advance(25*time.Hour))
		require.NoError(t, err)

		require.Equal(t, []notification.Kind{notification.KindEventCreated, notification.KindEventApproved}, f.notifier.Kinds(e.ID))
		message := f.notifier.messages[1]
		assert.Equal(t, -5, message.Points)
		assert.Equal(t, model.EventStatusApproved, message.Status)
		assert.Equal(t, f.bob.ID, message.TargetUserID)
	})
}

func TestService_GetEvents(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	first, err := f.service.CreateEvent(ctx, f.home.ID, f.bob.ID, f.cat.ID, f.reward.ID, "lasagna")
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	second := f.createEvent(t, f.cat, f.instant)
	f.clock.Advance(time.Hour)
	third := f.createEvent(t, f.dan, f.penalty)
	_, err = f.service.CastVetoVote(ctx, second.ID, f.bob.ID, f.clock.Now())
	require.NoError(t, err)

	t.Run("NewestFirst", func(t *testing.T) {
		views, err := f.service.GetEvents(ctx, f.home.ID, f.bob.ID, "")
		require.NoError(t, err)

		require.Len(t, views, 3)
		assert.Equal(t, third.ID, views[0].ID)
		assert.Equal(t, second.ID, views[1].ID)
		assert.Equal(t, first.ID, views[2].ID)
	})

	t.Run("Enriched", func(t *testing.T) {
		view := f.findView(t, first.ID)

		assert.Equal(t, f.bob.ID, view.TargetUserID)
		assert.Equal(t, "Bob", view.TargetName)
		assert.Equal(t, "bob@tally.app", view.TargetEmail)
		assert.Equal(t, f.cat.ID, view.SubmitterUserID)
		assert.Equal(t, "Cat", view.SubmitterName)
		assert.Equal(t, event.RuleView{ID: f.reward.ID, Description: "Cooked dinner", Points: 10, VetoThreshold: 2}, view.Rule)
		assert.Equal(t, "lasagna", view.Description)
		assert.Equal(t, 0, view.VetoCount)
		assert.NotNil(t, view.Votes)
	})

	t.Run("ByStatus", func(t *testing.T) {
		views, err := f.service.GetEvents(ctx, f.home.ID, f.bob.ID, model.EventStatusVetoed)
		require.NoError(t, err)

		require.Len(t, views, 1)
		assert.Equal(t, second.ID, views[0].ID)
		assert.Equal(t, 1, views[0].VetoCount)
	})

	t.Run("UnknownStatusIsIgnored", func(t *testing.T) {
		views, err := f.service.GetEvents(ctx, f.home.ID, f.bob.ID, "whatever")
		require.NoError(t, err)

		assert.Len(t, views, 3)
	})

	t.Run("NotAMember", func(t *testing.T) {
		_, err := f.service.GetEvents(ctx, f.home.ID, f.outsider.ID, "")

		assert.True(t, errdef.IsForbidden(err))
	})

	t.Run("GroupNotFound", func(t *testing.T) {
		_, err := f.service.GetEvents(ctx, 4711, f.bob.ID, "")

		assert.True(t, errdef.IsNotFound(err))
	})

	t.Run("SweepsFirst", func(t *testing.T) {
		f.clock.Advance(25 * time.Hour)

		views, err := f.service.GetEvents(ctx, f.home.ID, f.bob.ID, model.EventStatusApproved)
		require.NoError(t, err)

		require.Len(t, views, 2)
		assert.Equal(t, third.ID, views[0].ID)
		assert.Equal(t, first.ID, views[1].ID)
		assert.Equal(t, 10, f.totalPoints(t, f.bob))
		assert.Equal(t, -5, f.totalPoints(t, f.dan))
		assert.Equal(t, 0, f.totalPoints(t, f.cat))
	})
}

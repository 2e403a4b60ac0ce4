package event

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/tally-app/tally/pkg/event"

type sweepService interface {
	Now() time.Time
	FindGroupsWithOverdueEvents(ctx context.Context, now time.Time) ([]uint, error)
	SweepExpired(ctx context.Context, groupID uint, now time.Time) ([]uint, error)
}

// Sweeper approves overdue events of all groups on a schedule. Events are also approved whenever
// the events of a group are read so the sweeper only makes sure points don't wait for a reader.
type Sweeper struct {
	logger      *slog.Logger
	service     sweepService
	interval    time.Duration
	parallelism int
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewSweeper(logger *slog.Logger, service sweepService, interval time.Duration, parallelism int) *Sweeper {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Sweeper{
		logger:      logger,
		service:     service,
		interval:    interval,
		parallelism: parallelism,
	}
}

// Run sweeps every interval until ctx is done. A non-positive interval disables the sweeper.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.InfoContext(ctx, "Sweeper disabled")
		return
	}

	s.logger.InfoContext(ctx, "Sweeper started", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx, s.service.Now()); err != nil {
				s.logger.ErrorContext(ctx, "Failed to sweep", "error", err)
			}
		}
	}
}

// Sweep approves the events of every group overdue at now and returns how many were approved. A
// group failing to be swept is logged and doesn't affect the other groups.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Sweep")
	defer span.End()

	groupIDs, err := s.service.FindGroupsWithOverdueEvents(ctx, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to find groups")
		return 0, err
	}
	span.SetAttributes(attribute.Int("groups", len(groupIDs)))
	if len(groupIDs) == 0 {
		return 0, nil
	}

	s.logger.InfoContext(ctx, "Sweeping groups", "count", len(groupIDs))
	var approved atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for _, groupID := range groupIDs {
		g.Go(func() error {
			ids, err := s.service.SweepExpired(ctx, groupID, now)
			if err != nil {
				s.logger.ErrorContext(ctx, "Failed to sweep group", "groupId", groupID, "error", err)
				return nil
			}
			approved.Add(int64(len(ids)))
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(attribute.Int64("approved", approved.Load()))
	s.logger.InfoContext(ctx, "Sweep ended", "approved", approved.Load())
	return int(approved.Load()), nil
}

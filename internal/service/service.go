// Package service implements the venue reservation and billing engine:
// admission control and approval of reservations, the event lifecycle,
// billing computation and settlement, reports and the audit trail.
//
// Every state-changing operation runs as one store transaction.  Activity
// messages are published only after the transaction commits.
package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/venue-reservation/internal/apperr"
	"github.com/iliyamo/venue-reservation/internal/config"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/observability"
	"github.com/iliyamo/venue-reservation/internal/queue"
	"github.com/iliyamo/venue-reservation/internal/repository"
)

// ResourceCatalog resolves bookable areas and their rate schedules.
type ResourceCatalog interface {
	ResourceExists(ctx context.Context, areaID uint64) (bool, error)
	GetArea(ctx context.Context, areaID uint64) (*model.Area, error)
	GetFeeConfig(ctx context.Context, areaID uint64, asOf time.Time) (*model.FeeConfig, error)
}

// SponsorCatalog resolves sponsors.
type SponsorCatalog interface {
	SponsorExists(ctx context.Context, id uint64) (bool, error)
	GetSponsorName(ctx context.Context, id uint64) (string, error)
}

// ServiceCatalog resolves add-on services.  GetActiveService returns nil
// for unknown or inactive ids.
type ServiceCatalog interface {
	GetActiveService(ctx context.Context, id uint64) (*model.AdditionalService, error)
	ListActiveServices(ctx context.Context) ([]model.AdditionalService, error)
}

// Notifier publishes activity messages.  Failures are logged by the caller
// and never fail the operation.
type Notifier interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// Deps groups the collaborators of a VenueService.  Notifier, Metrics, Rand
// and Clock are optional.
type Deps struct {
	Store     *repository.Store
	Resources ResourceCatalog
	Sponsors  SponsorCatalog
	Services  ServiceCatalog
	Notifier  Notifier
	Logger    *observability.Logger
	Metrics   *observability.Metrics
	Rand      *rand.Rand
	Clock     func() time.Time
	Config    config.EngineConfig
}

// VenueService is the entry point for every venue operation.
type VenueService struct {
	store        *repository.Store
	events       *repository.EventRepo
	reservations *repository.ReservationRepo
	billings     *repository.BillingRepo
	audit        *repository.AuditRepo
	reports      *repository.ReportRepo

	resources ResourceCatalog
	sponsors  SponsorCatalog
	services  ServiceCatalog
	notifier  Notifier

	log     *observability.Logger
	metrics *observability.Metrics
	cfg     config.EngineConfig
	now     func() time.Time

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewVenueService wires a VenueService.  The repositories share the store's
// connection pool.
func NewVenueService(d Deps) *VenueService {
	db := d.Store.DB()
	s := &VenueService{
		store:        d.Store,
		events:       repository.NewEventRepo(db),
		reservations: repository.NewReservationRepo(db),
		billings:     repository.NewBillingRepo(db),
		audit:        repository.NewAuditRepo(db),
		reports:      repository.NewReportRepo(db),
		resources:    d.Resources,
		sponsors:     d.Sponsors,
		services:     d.Services,
		notifier:     d.Notifier,
		log:          d.Logger,
		metrics:      d.Metrics,
		cfg:          d.Config,
		now:          d.Clock,
		rand:         d.Rand,
	}
	if s.log == nil {
		s.log = observability.NewNopLogger()
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.cfg.BillingLocation == nil {
		s.cfg.BillingLocation = time.UTC
	}
	return s
}

func (s *VenueService) clock() time.Time { return s.now().UTC() }

// runTx runs fn in a transaction, retrying serialization failures with
// exponential backoff and jitter.  Exhausted retries surface as a conflict
// the caller may retry.
func (s *VenueService) runTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	attempts := s.cfg.TxRetry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := s.cfg.TxRetry.Backoff
	for attempt := 1; ; attempt++ {
		err := s.store.WithTx(ctx, fn)
		if err == nil || !errors.Is(err, repository.ErrRetryable) {
			return err
		}
		if attempt >= attempts {
			return &apperr.Error{Kind: apperr.KindConflict, Code: "concurrent_update",
				Message: "operation collided with a concurrent update, retry", Cause: err}
		}
		delay := backoff + s.jitter(backoff)
		s.log.Debug().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("retrying transaction")
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
}

func (s *VenueService) jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return time.Duration(s.rand.Int63n(int64(max)))
}

// finish records metrics for op and classifies unexpected errors.  It is
// deferred by every public operation.
func (s *VenueService) finish(op string, start time.Time, errp *error) {
	err := *errp
	kind := ""
	if err != nil {
		var ae *apperr.Error
		if !errors.As(err, &ae) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			err = apperr.Internal(op+" failed", err)
			*errp = err
		}
		kind = apperr.KindOf(err).String()
		if apperr.Is(err, apperr.KindInternal) {
			s.log.WithOperation(op).WithError(err).Error().Msg("operation failed")
		} else {
			s.log.WithOperation(op).WithError(err).Debug().Msg("operation rejected")
		}
	}
	s.metrics.RecordOperation(op, time.Since(start), kind)
}

// notify publishes ev after commit.  Errors are logged only.
func (s *VenueService) notify(ctx context.Context, ev queue.ActivityEvent) {
	if s.notifier == nil {
		return
	}
	if ev.OccurredAt == "" {
		ev.OccurredAt = s.clock().Format(time.RFC3339)
	}
	if err := s.notifier.Publish(ctx, ev); err != nil {
		s.log.WithEventID(ev.EventID).WithError(err).Warn().Str("type", ev.Type).Msg("activity publish failed")
	}
}

// notFoundOr maps repository.ErrNotFound to a not-found error for entity.
func notFoundOr(err error, entity string, id any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(entity, id)
	}
	return err
}

package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/venue-reservation/internal/apperr"
)

// Overlaps reports whether an APPROVED reservation on areaID overlaps the
// half-open window [start, end).  Reservations of excludeEventID are
// ignored; pass 0 to consider all.
func (s *VenueService) Overlaps(ctx context.Context, areaID uint64, start, end time.Time, excludeEventID uint64) (bool, error) {
	return s.reservations.HasApprovedOverlap(ctx, areaID, start, end, excludeEventID)
}

// checkConflictTx fails with a conflict error when the window is taken.
// stage labels the metric ("submit" or "approve").
func (s *VenueService) checkConflictTx(ctx context.Context, tx *sqlx.Tx, stage string, areaID uint64, start, end time.Time, excludeEventID uint64) error {
	taken, err := s.reservations.HasApprovedOverlapTx(ctx, tx, areaID, start, end, excludeEventID)
	if err != nil {
		return err
	}
	if taken {
		s.metrics.RecordConflict(stage)
		return apperr.Conflict("schedule_conflict", "area is already booked for an overlapping window")
	}
	return nil
}

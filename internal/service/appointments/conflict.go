package appointments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clinicbook/backend/internal/domain"
	"clinicbook/backend/internal/store"
)

// ConflictChecker answers whether a doctor is free for a one-hour slot.
type ConflictChecker struct {
	reader store.BookingReader
}

func NewConflictChecker(reader store.BookingReader) ConflictChecker {
	return ConflictChecker{reader: reader}
}

// HasConflict reports whether an active appointment of doctorID overlaps the
// slot starting at start. The appointment excludeID, if non-nil, is ignored.
func (c ConflictChecker) HasConflict(ctx context.Context, doctorID uuid.UUID, start time.Time, excludeID uuid.UUID) (bool, error) {
	from, to := domain.ConflictWindow(start.UTC())
	rows, err := c.reader.FindAppointmentsByDoctorInRange(ctx, doctorID, from, to, true)
	if err != nil {
		return false, err
	}
	for _, a := range rows {
		if excludeID != uuid.Nil && a.ID == excludeID {
			continue
		}
		if a.Active() && domain.SlotsOverlap(a.StartTime, start) {
			return true, nil
		}
	}
	return false, nil
}

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clinicbook/backend/internal/domain"
)

// AppointmentFilter narrows FindAppointmentsFiltered. Zero fields are ignored.
type AppointmentFilter struct {
	// Day matches appointments starting on the same UTC calendar day.
	Day      *time.Time
	DoctorID uuid.UUID
	// Reason matches appointments whose reason contains it, case-sensitively.
	Reason string
}

// BookingReader is the read side needed by the conflict checker.
type BookingReader interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	FindAppointmentByID(ctx context.Context, id uuid.UUID, activeOnly bool) (domain.Appointment, error)
	// FindAppointmentsByDoctorInRange returns appointments of doctorID whose
	// start lies in [start, end], both bounds inclusive, ordered by start.
	FindAppointmentsByDoctorInRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time, activeOnly bool) ([]domain.Appointment, error)
}

// BookingTx is a unit of work serialized against other bookings of one doctor.
type BookingTx interface {
	BookingReader
	InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	SaveAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
}

type AppointmentRepository interface {
	BookingReader

	FindAppointments(ctx context.Context, activeOnly bool) ([]domain.Appointment, error)
	FindAppointmentsFiltered(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error)

	// InDoctorTransaction runs fn so that no other booking transaction for
	// doctorID interleaves with it. fn's writes are discarded if it fails.
	InDoctorTransaction(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context, tx BookingTx) error) error
}

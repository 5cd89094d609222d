package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"clinicbook/backend/internal/domain"
	"clinicbook/backend/internal/service/errs"
	"clinicbook/backend/internal/store"
)

const (
	msgDoctorNotFound  = "doctor not found or incorrect role"
	msgPatientNotFound = "patient not found or incorrect role"
	msgSlotTaken       = "slot already taken"
)

type Service struct {
	repo store.AppointmentRepository
	now  func() time.Time
}

func NewService(repo store.AppointmentRepository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

type CreateInput struct {
	Date      time.Time
	Reason    string
	Notes     string
	PatientID uuid.UUID
	DoctorID  uuid.UUID
}

// Booking is the result of a successful Create.
type Booking struct {
	Appointment domain.Appointment
	Doctor      domain.User
	Patient     domain.User
}

func (b Booking) Message() string {
	return fmt.Sprintf(
		"appointment booked with doctor %s for patient %s at %s",
		b.Doctor.Username,
		b.Patient.Username,
		b.Appointment.StartTime.UTC().Format(time.RFC3339),
	)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Booking, error) {
	if in.Date.IsZero() {
		return Booking{}, errs.Invalid("date is required")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return Booking{}, errs.Invalid("reason is required")
	}
	if in.PatientID == uuid.Nil {
		return Booking{}, errs.Invalid("patient_id is required")
	}
	if in.DoctorID == uuid.Nil {
		return Booking{}, errs.Invalid("doctor_id is required")
	}

	start := in.Date.UTC()

	var out Booking
	err := s.repo.InDoctorTransaction(ctx, in.DoctorID, func(ctx context.Context, tx store.BookingTx) error {
		doctor, err := requireRole(ctx, tx, in.DoctorID, domain.RoleDoctor, msgDoctorNotFound)
		if err != nil {
			return err
		}
		patient, err := requireRole(ctx, tx, in.PatientID, domain.RolePatient, msgPatientNotFound)
		if err != nil {
			return err
		}

		taken, err := NewConflictChecker(tx).HasConflict(ctx, doctor.ID, start, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return errs.Forbidden(msgSlotTaken)
		}

		appt, err := tx.InsertAppointment(ctx, domain.Appointment{
			PatientID: patient.ID,
			DoctorID:  doctor.ID,
			Reason:    reason,
			Notes:     in.Notes,
			StartTime: start,
			EndTime:   domain.SlotEnd(start),
		})
		if err != nil {
			return err
		}

		out = Booking{Appointment: appt, Doctor: doctor, Patient: patient}
		return nil
	})
	if err != nil {
		return Booking{}, classify(err, "failed to create appointment")
	}
	return out, nil
}

// requireRole loads an active user holding role. Soft-deleted users are
// treated as missing.
func requireRole(ctx context.Context, r store.BookingReader, id uuid.UUID, role domain.Role, msg string) (domain.User, error) {
	u, err := r.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, errs.NotFound(msg)
		}
		return domain.User{}, err
	}
	if !u.HasRole(role) {
		return domain.User{}, errs.NotFound(msg)
	}
	return u, nil
}

// FindAll returns every active appointment ordered by start time.
func (s *Service) FindAll(ctx context.Context) ([]domain.Appointment, error) {
	rows, err := s.repo.FindAppointments(ctx, true)
	if err != nil {
		return nil, errs.Internal("failed to list appointments", err)
	}
	if len(rows) == 0 {
		return nil, errs.NotFound("no appointments found")
	}
	return rows, nil
}

func (s *Service) FindOne(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, errs.Invalid("appointment_id is required")
	}
	appt, err := s.repo.FindAppointmentByID(ctx, id, true)
	if err != nil {
		return domain.Appointment{}, classify(err, "failed to load appointment", appointmentNotFound(id))
	}
	return appt, nil
}

type FilterInput struct {
	Date     *time.Time
	DoctorID uuid.UUID
	Reason   string
}

// Filter returns active appointments matching every supplied filter.
func (s *Service) Filter(ctx context.Context, in FilterInput) ([]domain.Appointment, error) {
	rows, err := s.repo.FindAppointmentsFiltered(ctx, store.AppointmentFilter{
		Day:      in.Date,
		DoctorID: in.DoctorID,
		Reason:   in.Reason,
	})
	if err != nil {
		return nil, errs.Internal("failed to search appointments", err)
	}
	if len(rows) == 0 {
		return nil, errs.NotFound("no appointments match the given filters")
	}
	return rows, nil
}

type UpdateInput struct {
	Date   time.Time
	Reason string
	Notes  string
}

// Update overwrites date, reason and notes of an active appointment.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, errs.Invalid("appointment_id is required")
	}
	if in.Date.IsZero() {
		return domain.Appointment{}, errs.Invalid("date is required")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return domain.Appointment{}, errs.Invalid("reason is required")
	}
	start := in.Date.UTC()

	current, err := s.repo.FindAppointmentByID(ctx, id, true)
	if err != nil {
		return domain.Appointment{}, classify(err, "failed to load appointment", appointmentNotFound(id))
	}

	var out domain.Appointment
	err = s.repo.InDoctorTransaction(ctx, current.DoctorID, func(ctx context.Context, tx store.BookingTx) error {
		appt, err := tx.FindAppointmentByID(ctx, id, true)
		if err != nil {
			return err
		}

		taken, err := NewConflictChecker(tx).HasConflict(ctx, appt.DoctorID, start, appt.ID)
		if err != nil {
			return err
		}
		if taken {
			return errs.Forbidden(msgSlotTaken)
		}

		appt.StartTime = start
		appt.EndTime = domain.SlotEnd(start)
		appt.Reason = reason
		appt.Notes = in.Notes

		saved, err := tx.SaveAppointment(ctx, appt)
		if err != nil {
			return err
		}
		out = saved
		return nil
	})
	if err != nil {
		return domain.Appointment{}, classify(err, "failed to update appointment", appointmentNotFound(id))
	}
	return out, nil
}

// Remove cancels an active appointment by stamping deleted_at.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, errs.Invalid("appointment_id is required")
	}

	current, err := s.repo.FindAppointmentByID(ctx, id, true)
	if err != nil {
		return domain.Appointment{}, classify(err, "failed to load appointment", appointmentNotFound(id))
	}

	var out domain.Appointment
	err = s.repo.InDoctorTransaction(ctx, current.DoctorID, func(ctx context.Context, tx store.BookingTx) error {
		appt, err := tx.FindAppointmentByID(ctx, id, true)
		if err != nil {
			return err
		}
		now := s.now()
		appt.DeletedAt = &now

		saved, err := tx.SaveAppointment(ctx, appt)
		if err != nil {
			return err
		}
		out = saved
		return nil
	})
	if err != nil {
		return domain.Appointment{}, classify(err, "failed to cancel appointment", appointmentNotFound(id))
	}
	return out, nil
}

func appointmentNotFound(id uuid.UUID) error {
	return errs.NotFound(fmt.Sprintf("appointment %s not found", id))
}

// classify turns store and context failures into service errors. notFound,
// when given, replaces store.ErrNotFound.
func classify(err error, internalMsg string, notFound ...error) error {
	if errs.KindOf(err) != 0 {
		return err
	}
	switch {
	case errors.Is(err, store.ErrConflict):
		return errs.Forbidden(msgSlotTaken)
	case errors.Is(err, store.ErrNotFound):
		if len(notFound) > 0 {
			return notFound[0]
		}
		return errs.NotFound("record not found")
	default:
		return errs.Internal(internalMsg, err)
	}
}

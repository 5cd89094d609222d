package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clinicbook/backend/internal/domain"
	"clinicbook/backend/internal/service/appointments"
	"clinicbook/backend/internal/service/errs"
)

type AppointmentsServer struct {
	svc        appointmentsService
	log        *slog.Logger
	onConflict func()
}

type appointmentsService interface {
	Create(ctx context.Context, in appointments.CreateInput) (appointments.Booking, error)
	FindAll(ctx context.Context) ([]domain.Appointment, error)
	FindOne(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	Filter(ctx context.Context, in appointments.FilterInput) ([]domain.Appointment, error)
	Update(ctx context.Context, id uuid.UUID, in appointments.UpdateInput) (domain.Appointment, error)
	Remove(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
}

type AppointmentsOption func(*AppointmentsServer)

// WithConflictHook registers fn to run whenever a booking is refused
// because the slot is taken.
func WithConflictHook(fn func()) AppointmentsOption {
	return func(s *AppointmentsServer) {
		s.onConflict = fn
	}
}

func NewAppointmentsServer(svc appointmentsService, log *slog.Logger, opts ...AppointmentsOption) *AppointmentsServer {
	if log == nil {
		log = slog.Default()
	}
	s := &AppointmentsServer{
		svc:        svc,
		log:        log.With(slog.String("component", "grpc.appointments")),
		onConflict: func() {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AppointmentsServer) CreateAppointment(ctx context.Context, req *CreateAppointmentRequest) (*AppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "CreateAppointment"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.Date == nil {
		log.Warn("invalid request", slog.String("reason", "missing_date"), slog.String("doctor_id", req.DoctorID))
		return nil, status.Error(codes.InvalidArgument, "date is required")
	}
	doctorID, err := parseID("doctor_id", req.DoctorID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_doctor_id"))
		return nil, err
	}
	patientID, err := parseID("patient_id", req.PatientID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_patient_id"), slog.String("doctor_id", req.DoctorID))
		return nil, err
	}

	b, err := s.svc.Create(ctx, appointments.CreateInput{
		Date:      *req.Date,
		Reason:    req.Reason,
		Notes:     req.Notes,
		PatientID: patientID,
		DoctorID:  doctorID,
	})
	if err != nil {
		return nil, s.toStatus(log, err, "appointment create",
			slog.String("doctor_id", req.DoctorID),
			slog.String("patient_id", req.PatientID),
			slog.Time("date", *req.Date),
		)
	}

	log.Info(
		"appointment created",
		slog.String("appointment_id", b.Appointment.ID.String()),
		slog.String("doctor_id", b.Appointment.DoctorID.String()),
		slog.String("patient_id", b.Appointment.PatientID.String()),
		slog.Time("date", b.Appointment.StartTime),
	)

	return &AppointmentResponse{
		Appointment: toWireAppointment(b.Appointment),
		Message:     b.Message(),
	}, nil
}

func (s *AppointmentsServer) GetAppointment(ctx context.Context, req *GetAppointmentRequest) (*AppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "GetAppointment"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, err
	}

	appt, err := s.svc.FindOne(ctx, id)
	if err != nil {
		return nil, s.toStatus(log, err, "appointment get", slog.String("appointment_id", id.String()))
	}
	return &AppointmentResponse{Appointment: toWireAppointment(appt)}, nil
}

func (s *AppointmentsServer) ListAppointments(ctx context.Context, req *ListAppointmentsRequest) (*ListAppointmentsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListAppointments"))

	appts, err := s.svc.FindAll(ctx)
	if err != nil {
		return nil, s.toStatus(log, err, "appointments list")
	}

	log.Debug("appointments listed", slog.Int("count", len(appts)))
	return &ListAppointmentsResponse{Appointments: toWireAppointments(appts)}, nil
}

func (s *AppointmentsServer) FilterAppointments(ctx context.Context, req *FilterAppointmentsRequest) (*ListAppointmentsResponse, error) {
	log := s.log.With(slog.String("rpc", "FilterAppointments"))

	if req == nil {
		req = &FilterAppointmentsRequest{}
	}

	var in appointments.FilterInput
	if d := strings.TrimSpace(req.Date); d != "" {
		day, err := time.Parse(time.DateOnly, d)
		if err != nil {
			log.Warn("invalid request", slog.String("reason", "invalid_date"), slog.String("date", d))
			return nil, status.Error(codes.InvalidArgument, "date must be formatted as YYYY-MM-DD")
		}
		in.Date = &day
	}
	if strings.TrimSpace(req.DoctorID) != "" {
		id, err := parseID("doctor_id", req.DoctorID)
		if err != nil {
			log.Warn("invalid request", slog.String("reason", "invalid_doctor_id"))
			return nil, err
		}
		in.DoctorID = id
	}
	in.Reason = req.Reason

	appts, err := s.svc.Filter(ctx, in)
	if err != nil {
		return nil, s.toStatus(log, err, "appointments filter",
			slog.String("date", req.Date),
			slog.String("doctor_id", req.DoctorID),
			slog.String("reason", req.Reason),
		)
	}

	log.Debug("appointments filtered", slog.Int("count", len(appts)))
	return &ListAppointmentsResponse{Appointments: toWireAppointments(appts)}, nil
}

func (s *AppointmentsServer) UpdateAppointment(ctx context.Context, req *UpdateAppointmentRequest) (*AppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "UpdateAppointment"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, err
	}
	if req.Date == nil {
		log.Warn("invalid request", slog.String("reason", "missing_date"), slog.String("appointment_id", id.String()))
		return nil, status.Error(codes.InvalidArgument, "date is required")
	}

	appt, err := s.svc.Update(ctx, id, appointments.UpdateInput{
		Date:   *req.Date,
		Reason: req.Reason,
		Notes:  req.Notes,
	})
	if err != nil {
		return nil, s.toStatus(log, err, "appointment update",
			slog.String("appointment_id", id.String()),
			slog.Time("date", *req.Date),
		)
	}

	log.Info("appointment updated", slog.String("appointment_id", id.String()), slog.Time("date", appt.StartTime))
	return &AppointmentResponse{
		Appointment: toWireAppointment(appt),
		Message:     fmt.Sprintf("appointment %s updated", id),
	}, nil
}

func (s *AppointmentsServer) CancelAppointment(ctx context.Context, req *CancelAppointmentRequest) (*AppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "CancelAppointment"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, err
	}

	appt, err := s.svc.Remove(ctx, id)
	if err != nil {
		return nil, s.toStatus(log, err, "appointment cancel", slog.String("appointment_id", id.String()))
	}

	log.Info("appointment cancelled", slog.String("appointment_id", id.String()))
	return &AppointmentResponse{
		Appointment: toWireAppointment(appt),
		Message:     fmt.Sprintf("appointment %s cancelled", id),
	}, nil
}

// toStatus logs err at a level matching its kind and converts it to a gRPC
// status. Internal causes are logged, never returned.
func (s *AppointmentsServer) toStatus(log *slog.Logger, err error, op string, attrs ...any) error {
	if errs.KindOf(err) == errs.KindForbidden {
		s.onConflict()
	}
	return toStatus(log, err, op, attrs...)
}

func toStatus(log *slog.Logger, err error, op string, attrs ...any) error {
	args := append([]any{slog.Any("err", err)}, attrs...)
	msg := errs.Message(err)

	switch errs.KindOf(err) {
	case errs.KindInvalid:
		log.Warn("invalid request", args...)
		return status.Error(codes.InvalidArgument, msg)
	case errs.KindNotFound:
		log.Info(op+" not found", args...)
		return status.Error(codes.NotFound, msg)
	case errs.KindForbidden:
		log.Info(op+" conflict", args...)
		return status.Error(codes.PermissionDenied, msg)
	case errs.KindConflict:
		log.Info(op+" conflict", args...)
		return status.Error(codes.AlreadyExists, msg)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn(op+" timed out", args...)
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, context.Canceled):
		log.Info(op+" canceled", args...)
		return status.Error(codes.Canceled, "request canceled")
	default:
		log.Error(op+" failed", args...)
		return status.Error(codes.Internal, "internal error")
	}
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, status.Error(codes.InvalidArgument, field+" must be a UUID")
	}
	return id, nil
}

func toWireAppointment(a domain.Appointment) *Appointment {
	out := &Appointment{
		ID:        a.ID.String(),
		PatientID: a.PatientID.String(),
		DoctorID:  a.DoctorID.String(),
		Reason:    a.Reason,
		Notes:     a.Notes,
		Date:      a.StartTime.UTC(),
		EndTime:   a.EndTime.UTC(),
		CreatedAt: a.CreatedAt.UTC(),
		UpdatedAt: a.UpdatedAt.UTC(),
	}
	if a.DeletedAt != nil {
		t := a.DeletedAt.UTC()
		out.CancelledAt = &t
	}
	return out
}

func toWireAppointments(appts []domain.Appointment) []*Appointment {
	out := make([]*Appointment, 0, len(appts))
	for _, a := range appts {
		out = append(out, toWireAppointment(a))
	}
	return out
}

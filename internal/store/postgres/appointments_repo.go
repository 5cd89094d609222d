package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"clinicbook/backend/internal/domain"
	"clinicbook/backend/internal/store"
)

const noOverlapConstraint = "appointments_doctor_no_overlap"

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

type bookingTx struct {
	tx bun.Tx
}

func (r *AppointmentRepo) FindUserByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return findUserByID(ctx, r.db, id)
}

func (r *AppointmentRepo) FindAppointmentByID(ctx context.Context, id uuid.UUID, activeOnly bool) (domain.Appointment, error) {
	return findAppointmentByID(ctx, r.db, id, activeOnly)
}

func (r *AppointmentRepo) FindAppointmentsByDoctorInRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time, activeOnly bool) ([]domain.Appointment, error) {
	return findAppointmentsByDoctorInRange(ctx, r.db, doctorID, start, end, activeOnly)
}

func (r *AppointmentRepo) FindAppointments(ctx context.Context, activeOnly bool) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	q := r.db.NewSelect().Model(&rows)
	if activeOnly {
		q = q.Where("deleted_at IS NULL")
	}
	if err := q.OrderExpr("start_time ASC, id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) FindAppointmentsFiltered(ctx context.Context, f store.AppointmentFilter) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	q := r.db.NewSelect().
		Model(&rows).
		Where("deleted_at IS NULL")

	if f.Day != nil {
		dayStart, dayEnd := domain.DayBounds(*f.Day)
		q = q.Where("start_time >= ?", dayStart).Where("start_time < ?", dayEnd)
	}
	if f.DoctorID != uuid.Nil {
		q = q.Where("doctor_id = ?", f.DoctorID)
	}
	if f.Reason != "" {
		// strpos is case-sensitive and needs no LIKE escaping.
		q = q.Where("strpos(reason, ?) > 0", f.Reason)
	}

	if err := q.OrderExpr("start_time ASC, id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) InDoctorTransaction(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context, tx store.BookingTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockDoctorCalendar(ctx, tx, doctorID); err != nil {
			return err
		}
		return fn(ctx, bookingTx{tx: tx})
	})
}

func lockDoctorCalendar(ctx context.Context, tx bun.Tx, doctorID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", doctorID.String()).Exec(ctx)
	return err
}

func (t bookingTx) FindUserByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return findUserByID(ctx, t.tx, id)
}

func (t bookingTx) FindAppointmentByID(ctx context.Context, id uuid.UUID, activeOnly bool) (domain.Appointment, error) {
	return findAppointmentByID(ctx, t.tx, id, activeOnly)
}

func (t bookingTx) FindAppointmentsByDoctorInRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time, activeOnly bool) ([]domain.Appointment, error) {
	return findAppointmentsByDoctorInRange(ctx, t.tx, doctorID, start, end, activeOnly)
}

func (t bookingTx) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	if _, err := t.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Appointment{}, mapWriteError(err)
	}
	return m, nil
}

func (t bookingTx) SaveAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	res, err := t.tx.NewUpdate().
		Model(&m).
		Column("patient_id", "doctor_id", "reason", "notes", "start_time", "end_time", "updated_at", "deleted_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, mapWriteError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}
	return m, nil
}

func findAppointmentByID(ctx context.Context, db bun.IDB, id uuid.UUID, activeOnly bool) (domain.Appointment, error) {
	var a domain.Appointment
	q := db.NewSelect().Model(&a).Where("id = ?", id)
	if activeOnly {
		q = q.Where("deleted_at IS NULL")
	}
	if err := q.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return a, nil
}

func findAppointmentsByDoctorInRange(ctx context.Context, db bun.IDB, doctorID uuid.UUID, start, end time.Time, activeOnly bool) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	q := db.NewSelect().
		Model(&rows).
		Where("doctor_id = ?", doctorID).
		Where("start_time >= ?", start).
		Where("start_time <= ?", end)
	if activeOnly {
		q = q.Where("deleted_at IS NULL")
	}
	if err := q.OrderExpr("start_time ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23P01" && pgErr.ConstraintName == noOverlapConstraint:
			return store.ErrConflict
		case pgErr.Code == "23505":
			return store.ErrDuplicate
		case pgErr.Code == "23503":
			return store.ErrNotFound
		}
	}
	return err
}

package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"clinicbook/backend/internal/service/appointments"
	"clinicbook/backend/internal/service/users"
	"clinicbook/backend/internal/store/memory"
)

func startServer(t *testing.T, opts ...grpc.ServerOption) *grpc.ClientConn {
	t.Helper()

	st := memory.New()
	log := discardLogger()

	srv := grpc.NewServer(opts...)
	RegisterAppointmentsServiceServer(srv, NewAppointmentsServer(appointments.NewService(st), log))
	RegisterUsersServiceServer(srv, NewUsersServer(users.NewService(st, users.WithBcryptCost(bcrypt.MinCost)), log))
	healthpb.RegisterHealthServer(srv, health.NewServer())

	lis := bufconn.Listen(1 << 20)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func register(t *testing.T, c *Client, email, name, role string) *User {
	t.Helper()
	resp, err := c.CreateUser(context.Background(), &CreateUserRequest{
		Email:    email,
		Username: name,
		Password: "correct-horse",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s) error: %v", email, err)
	}
	return resp.User
}

func TestEndToEnd_BookingLifecycle(t *testing.T) {
	conn := startServer(t)
	c := NewClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	doctor := register(t, c, "house@example.com", "dr-house", "DOCTOR")
	patient := register(t, c, "jane@example.com", "jane", "")
	if patient.Role != "PATIENT" {
		t.Fatalf("default role = %q, want PATIENT", patient.Role)
	}

	book := func(at time.Time) (*AppointmentResponse, error) {
		return c.CreateAppointment(ctx, &CreateAppointmentRequest{
			Date:      &at,
			Reason:    "annual checkup",
			DoctorID:  doctor.ID,
			PatientID: patient.ID,
		})
	}
	ten := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	first, err := book(ten)
	if err != nil {
		t.Fatalf("book 10:00 error: %v", err)
	}
	if first.Message == "" {
		t.Fatalf("expected confirmation message")
	}

	_, err = book(ten.Add(30 * time.Minute))
	wantCode(t, err, codes.PermissionDenied)
	_, err = book(ten.Add(time.Hour))
	wantCode(t, err, codes.PermissionDenied)
	if _, err := book(ten.Add(61 * time.Minute)); err != nil {
		t.Fatalf("book 11:01 error: %v", err)
	}

	// patient booked as doctor
	_, err = c.CreateAppointment(ctx, &CreateAppointmentRequest{
		Date:      &ten,
		Reason:    "x",
		DoctorID:  patient.ID,
		PatientID: patient.ID,
	})
	wantCode(t, err, codes.NotFound)

	list, err := c.ListAppointments(ctx, &ListAppointmentsRequest{})
	if err != nil {
		t.Fatalf("ListAppointments error: %v", err)
	}
	if len(list.Appointments) != 2 {
		t.Fatalf("len = %d, want 2", len(list.Appointments))
	}

	filtered, err := c.FilterAppointments(ctx, &FilterAppointmentsRequest{Date: "2026-03-02", Reason: "annual"})
	if err != nil {
		t.Fatalf("FilterAppointments error: %v", err)
	}
	if len(filtered.Appointments) != 2 {
		t.Fatalf("filtered len = %d, want 2", len(filtered.Appointments))
	}
	_, err = c.FilterAppointments(ctx, &FilterAppointmentsRequest{Reason: "Annual"})
	wantCode(t, err, codes.NotFound)

	if _, err := c.CancelAppointment(ctx, &CancelAppointmentRequest{ID: first.Appointment.ID}); err != nil {
		t.Fatalf("CancelAppointment error: %v", err)
	}
	_, err = c.GetAppointment(ctx, &GetAppointmentRequest{ID: first.Appointment.ID})
	wantCode(t, err, codes.NotFound)
	_, err = c.CancelAppointment(ctx, &CancelAppointmentRequest{ID: first.Appointment.ID})
	wantCode(t, err, codes.NotFound)

	rebooked, err := book(ten)
	if err != nil {
		t.Fatalf("rebook 10:00 error: %v", err)
	}

	moved := ten.Add(-3 * time.Hour)
	updated, err := c.UpdateAppointment(ctx, &UpdateAppointmentRequest{
		ID:     rebooked.Appointment.ID,
		Date:   &moved,
		Reason: "follow-up",
	})
	if err != nil {
		t.Fatalf("UpdateAppointment error: %v", err)
	}
	if !updated.Appointment.Date.Equal(moved) || updated.Appointment.Reason != "follow-up" {
		t.Fatalf("updated = %+v", updated.Appointment)
	}
}

func TestEndToEnd_Users(t *testing.T) {
	conn := startServer(t)
	c := NewClient(conn)
	ctx := context.Background()

	u := register(t, c, "Mixed.Case@Example.com", "ann", "DOCTOR")
	if u.Email != "mixed.case@example.com" {
		t.Fatalf("email = %q", u.Email)
	}

	got, err := c.GetUser(ctx, &GetUserRequest{ID: u.ID})
	if err != nil {
		t.Fatalf("GetUser error: %v", err)
	}
	if got.User.Username != "ann" || got.User.Role != "DOCTOR" {
		t.Fatalf("user = %+v", got.User)
	}

	_, err = c.CreateUser(ctx, &CreateUserRequest{Email: "mixed.case@example.com", Username: "dup", Password: "correct-horse"})
	wantCode(t, err, codes.AlreadyExists)

	_, err = c.CreateUser(ctx, &CreateUserRequest{Email: "short@example.com", Username: "s", Password: "short"})
	wantCode(t, err, codes.InvalidArgument)

	_, err = c.GetUser(ctx, &GetUserRequest{ID: "not-a-uuid"})
	wantCode(t, err, codes.InvalidArgument)
}

func TestEndToEnd_HealthCheck(t *testing.T) {
	conn := startServer(t)

	resp, err := healthpb.NewHealthClient(conn).Check(
		context.Background(),
		&healthpb.HealthCheckRequest{},
		grpc.CallContentSubtype(CodecName),
	)
	if err != nil {
		t.Fatalf("health check error: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v, want SERVING", resp.GetStatus())
	}
}

func TestEndToEnd_RateLimitedWrites(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	conn := startServer(t, grpc.ChainUnaryInterceptor(RateLimit(rl, nil)))
	c := NewClient(conn)
	ctx := context.Background()

	register(t, c, "first@example.com", "first", "")
	_, err := c.CreateUser(ctx, &CreateUserRequest{Email: "second@example.com", Username: "second", Password: "correct-horse"})
	wantCode(t, err, codes.ResourceExhausted)

	// reads are not limited
	_, err = c.ListAppointments(ctx, &ListAppointmentsRequest{})
	wantCode(t, err, codes.NotFound)
}

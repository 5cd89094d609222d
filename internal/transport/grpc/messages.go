package grpc

import "time"

type Appointment struct {
	ID          string     `json:"id"`
	PatientID   string     `json:"patient_id"`
	DoctorID    string     `json:"doctor_id"`
	Reason      string     `json:"reason"`
	Notes       string     `json:"notes,omitempty"`
	Date        time.Time  `json:"date"`
	EndTime     time.Time  `json:"end_time"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

type CreateAppointmentRequest struct {
	Date      *time.Time `json:"date"`
	Reason    string     `json:"reason"`
	Notes     string     `json:"notes,omitempty"`
	PatientID string     `json:"patient_id"`
	DoctorID  string     `json:"doctor_id"`
}

type AppointmentResponse struct {
	Appointment *Appointment `json:"appointment"`
	Message     string       `json:"message,omitempty"`
}

type GetAppointmentRequest struct {
	ID string `json:"id"`
}

type ListAppointmentsRequest struct{}

type ListAppointmentsResponse struct {
	Appointments []*Appointment `json:"appointments"`
}

type FilterAppointmentsRequest struct {
	// Date is a calendar day in YYYY-MM-DD form, interpreted in UTC.
	Date     string `json:"date,omitempty"`
	DoctorID string `json:"doctor_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type UpdateAppointmentRequest struct {
	ID     string     `json:"id"`
	Date   *time.Time `json:"date"`
	Reason string     `json:"reason"`
	Notes  string     `json:"notes,omitempty"`
}

type CancelAppointmentRequest struct {
	ID string `json:"id"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateUserRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type GetUserRequest struct {
	ID string `json:"id"`
}

type UserResponse struct {
	User *User `json:"user"`
}

package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls the clinicbook services over an existing connection using
// the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, req any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAppointment(ctx context.Context, req *CreateAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, MethodCreateAppointment, req, opts...)
}

func (c *Client) GetAppointment(ctx context.Context, req *GetAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, MethodGetAppointment, req, opts...)
}

func (c *Client) ListAppointments(ctx context.Context, req *ListAppointmentsRequest, opts ...grpc.CallOption) (*ListAppointmentsResponse, error) {
	return invoke[ListAppointmentsResponse](ctx, c.cc, MethodListAppointments, req, opts...)
}

func (c *Client) FilterAppointments(ctx context.Context, req *FilterAppointmentsRequest, opts ...grpc.CallOption) (*ListAppointmentsResponse, error) {
	return invoke[ListAppointmentsResponse](ctx, c.cc, MethodFilterAppointments, req, opts...)
}

func (c *Client) UpdateAppointment(ctx context.Context, req *UpdateAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, MethodUpdateAppointment, req, opts...)
}

func (c *Client) CancelAppointment(ctx context.Context, req *CancelAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, MethodCancelAppointment, req, opts...)
}

func (c *Client) CreateUser(ctx context.Context, req *CreateUserRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, MethodCreateUser, req, opts...)
}

func (c *Client) GetUser(ctx context.Context, req *GetUserRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, MethodGetUser, req, opts...)
}

package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	AppointmentsServiceName = "clinicbook.v1.AppointmentsService"
	UsersServiceName        = "clinicbook.v1.UsersService"
)

// Full method names, as seen by interceptors.
const (
	MethodCreateAppointment  = "/" + AppointmentsServiceName + "/CreateAppointment"
	MethodGetAppointment     = "/" + AppointmentsServiceName + "/GetAppointment"
	MethodListAppointments   = "/" + AppointmentsServiceName + "/ListAppointments"
	MethodFilterAppointments = "/" + AppointmentsServiceName + "/FilterAppointments"
	MethodUpdateAppointment  = "/" + AppointmentsServiceName + "/UpdateAppointment"
	MethodCancelAppointment  = "/" + AppointmentsServiceName + "/CancelAppointment"
	MethodCreateUser         = "/" + UsersServiceName + "/CreateUser"
	MethodGetUser            = "/" + UsersServiceName + "/GetUser"
)

type AppointmentsServiceServer interface {
	CreateAppointment(ctx context.Context, req *CreateAppointmentRequest) (*AppointmentResponse, error)
	GetAppointment(ctx context.Context, req *GetAppointmentRequest) (*AppointmentResponse, error)
	ListAppointments(ctx context.Context, req *ListAppointmentsRequest) (*ListAppointmentsResponse, error)
	FilterAppointments(ctx context.Context, req *FilterAppointmentsRequest) (*ListAppointmentsResponse, error)
	UpdateAppointment(ctx context.Context, req *UpdateAppointmentRequest) (*AppointmentResponse, error)
	CancelAppointment(ctx context.Context, req *CancelAppointmentRequest) (*AppointmentResponse, error)
}

type UsersServiceServer interface {
	CreateUser(ctx context.Context, req *CreateUserRequest) (*UserResponse, error)
	GetUser(ctx context.Context, req *GetUserRequest) (*UserResponse, error)
}

func RegisterAppointmentsServiceServer(s grpc.ServiceRegistrar, srv AppointmentsServiceServer) {
	s.RegisterService(&appointmentsServiceDesc, srv)
}

func RegisterUsersServiceServer(s grpc.ServiceRegistrar, srv UsersServiceServer) {
	s.RegisterService(&usersServiceDesc, srv)
}

var appointmentsServiceDesc = grpc.ServiceDesc{
	ServiceName: AppointmentsServiceName,
	HandlerType: (*AppointmentsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateAppointment", Handler: unaryHandler(MethodCreateAppointment, AppointmentsServiceServer.CreateAppointment)},
		{MethodName: "GetAppointment", Handler: unaryHandler(MethodGetAppointment, AppointmentsServiceServer.GetAppointment)},
		{MethodName: "ListAppointments", Handler: unaryHandler(MethodListAppointments, AppointmentsServiceServer.ListAppointments)},
		{MethodName: "FilterAppointments", Handler: unaryHandler(MethodFilterAppointments, AppointmentsServiceServer.FilterAppointments)},
		{MethodName: "UpdateAppointment", Handler: unaryHandler(MethodUpdateAppointment, AppointmentsServiceServer.UpdateAppointment)},
		{MethodName: "CancelAppointment", Handler: unaryHandler(MethodCancelAppointment, AppointmentsServiceServer.CancelAppointment)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "clinicbook/v1/appointments",
}

var usersServiceDesc = grpc.ServiceDesc{
	ServiceName: UsersServiceName,
	HandlerType: (*UsersServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateUser", Handler: unaryHandler(MethodCreateUser, UsersServiceServer.CreateUser)},
		{MethodName: "GetUser", Handler: unaryHandler(MethodGetUser, UsersServiceServer.GetUser)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "clinicbook/v1/users",
}

// unaryHandler adapts a typed method to the shape grpc.MethodDesc expects,
// the same way protoc-gen-go-grpc output does.
func unaryHandler[S any, Req any, Resp any](fullMethod string, call func(S, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(S), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(S), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

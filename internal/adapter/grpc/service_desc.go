package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "user.v1.UserService"

// UserServiceHandler is the server-side contract of user.v1.UserService.
// Every method exchanges google.protobuf.Struct messages.
type UserServiceHandler interface {
	CreateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	UpdateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	DeleteUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListUsers(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type structMethod func(UserServiceHandler, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodHandler(name string, fn structMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		h := srv.(UserServiceHandler)
		if interceptor == nil {
			return fn(h, ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + name,
		}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return fn(h, ctx, req.(*structpb.Struct))
		})
	}
}

// UserServiceDesc describes user.v1.UserService for grpc.Server.RegisterService.
var UserServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UserServiceHandler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateUser", Handler: methodHandler("CreateUser", UserServiceHandler.CreateUser)},
		{MethodName: "GetUser", Handler: methodHandler("GetUser", UserServiceHandler.GetUser)},
		{MethodName: "UpdateUser", Handler: methodHandler("UpdateUser", UserServiceHandler.UpdateUser)},
		{MethodName: "DeleteUser", Handler: methodHandler("DeleteUser", UserServiceHandler.DeleteUser)},
		{MethodName: "ListUsers", Handler: methodHandler("ListUsers", UserServiceHandler.ListUsers)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "user/v1/user.proto",
}

// RegisterUserServiceServer registers h on s.
func RegisterUserServiceServer(s grpc.ServiceRegistrar, h UserServiceHandler) {
	s.RegisterService(&UserServiceDesc, h)
}

// UserServiceClient calls user.v1.UserService.
type UserServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewUserServiceClient creates a client on cc.
func NewUserServiceClient(cc grpc.ClientConnInterface) *UserServiceClient {
	return &UserServiceClient{cc: cc}
}

func (c *UserServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUser calls user.v1.UserService/CreateUser.
func (c *UserServiceClient) CreateUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "CreateUser", in, opts...)
}

// GetUser calls user.v1.UserService/GetUser.
func (c *UserServiceClient) GetUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetUser", in, opts...)
}

// UpdateUser calls user.v1.UserService/UpdateUser.
func (c *UserServiceClient) UpdateUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "UpdateUser", in, opts...)
}

// DeleteUser calls user.v1.UserService/DeleteUser.
func (c *UserServiceClient) DeleteUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "DeleteUser", in, opts...)
}

// ListUsers calls user.v1.UserService/ListUsers.
func (c *UserServiceClient) ListUsers(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListUsers", in, opts...)
}

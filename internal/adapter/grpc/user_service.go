package grpc

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"user-crud-service/internal/usecase/user"
	apperrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/logger"
)

// UserServiceServer implements the gRPC user service
type UserServiceServer struct {
	uc  user.UserUsecase
	log *zap.Logger
}

var _ UserServiceHandler = (*UserServiceServer)(nil)

// NewUserServiceServer creates a new gRPC user service server
func NewUserServiceServer(uc user.UserUsecase, log *zap.Logger) *UserServiceServer {
	return &UserServiceServer{uc: uc, log: log}
}

// CreateUser handles gRPC CreateUser request
func (s *UserServiceServer) CreateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, email, err := userFields(req)
	if err != nil {
		return nil, err
	}

	u, err := s.uc.CreateUser(ctx, user.CreateUserRequest{Name: name, Email: email})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return dataResponse(userValue(u))
}

// GetUser handles gRPC GetUser request
func (s *UserServiceServer) GetUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	u, err := s.uc.GetUser(ctx, user.GetUserRequest{ID: stringField(req, "id")})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return dataResponse(userValue(u))
}

// UpdateUser handles gRPC UpdateUser request
func (s *UserServiceServer) UpdateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, email, err := userFields(req)
	if err != nil {
		return nil, err
	}

	u, err := s.uc.UpdateUser(ctx, user.UpdateUserRequest{
		ID:    stringField(req, "id"),
		Name:  name,
		Email: email,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return dataResponse(userValue(u))
}

// DeleteUser handles gRPC DeleteUser request
func (s *UserServiceServer) DeleteUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	u, err := s.uc.DeleteUser(ctx, user.DeleteUserRequest{ID: stringField(req, "id")})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return dataResponse(userValue(u))
}

// ListUsers handles gRPC ListUsers request
func (s *UserServiceServer) ListUsers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	users, err := s.uc.ListUsers(ctx, user.ListUsersRequest{
		Name:  stringField(req, "name"),
		Email: stringField(req, "email"),
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	list := make([]any, len(users))
	for i := range users {
		list[i] = userValue(&users[i])
	}

	return dataResponse(list)
}

// toStatus maps the error taxonomy onto gRPC codes. Unknown errors never
// leak their message.
func (s *UserServiceServer) toStatus(ctx context.Context, err error) error {
	var (
		validationErr *apperrors.ValidationError
		notFoundErr   *apperrors.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr):
		return validationErr.GRPCStatus().Err()
	case errors.As(err, &notFoundErr):
		return status.Error(codes.NotFound, "user not found")
	default:
		logger.WithContext(ctx, s.log).Error("grpc request failed", zap.Error(err))
		return status.Error(codes.Internal, "An internal error occurred")
	}
}

// userFields reads the optional name and email of a request. Absent and
// null fields stay nil.
func userFields(req *structpb.Struct) (*string, *string, error) {
	var violations []apperrors.FieldViolation

	name, err := optionalString(req, "name")
	if err != nil {
		violations = append(violations, apperrors.FieldViolation{Field: "name", Message: err.Error()})
	}
	email, err := optionalString(req, "email")
	if err != nil {
		violations = append(violations, apperrors.FieldViolation{Field: "email", Message: err.Error()})
	}

	if len(violations) > 0 {
		return nil, nil, apperrors.NewValidationError("invalid user fields", violations...).GRPCStatus().Err()
	}
	return name, email, nil
}

func optionalString(req *structpb.Struct, key string) (*string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_StringValue:
		s := kind.StringValue
		return &s, nil
	default:
		return nil, fmt.Errorf("%s must be a string", key)
	}
}

func stringField(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

func userValue(u *user.User) map[string]any {
	return map[string]any{
		"_id":   u.ID,
		"name":  u.Name,
		"email": u.Email,
	}
}

func dataResponse(data any) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(map[string]any{"data": data})
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return resp, nil
}

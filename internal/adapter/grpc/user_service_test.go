package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"gorm.io/gorm"

	"user-crud-service/internal/adapter/db/postgres"
	domain "user-crud-service/internal/domain/user"
	"user-crud-service/internal/usecase/user"
	"user-crud-service/pkg/logger"
)

const bufSize = 1024 * 1024

func setupClient(t *testing.T) *UserServiceClient {
	log := zaptest.NewLogger(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, postgres.Migrate(db))

	uc := user.New(postgres.NewUserRepoPG(db, log), log)

	lis := bufconn.Listen(bufSize)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(logger.RequestIDInterceptor(log)))
	RegisterUserServiceServer(srv, NewUserServiceServer(uc, log))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewUserServiceClient(conn)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func dataOf(resp *structpb.Struct) map[string]any {
	return resp.AsMap()["data"].(map[string]any)
}

func TestUserService_CRUD(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()

	var header metadata.MD
	created, err := client.CreateUser(ctx, mustStruct(t, map[string]any{"name": "Alice", "email": "alice@example.com"}), grpc.Header(&header))
	require.NoError(t, err)
	assert.NotEmpty(t, header.Get("x-request-id"))

	id := dataOf(created)["_id"].(string)
	assert.NoError(t, domain.ValidateID(id))
	assert.Equal(t, "Alice", dataOf(created)["name"])

	got, err := client.GetUser(ctx, mustStruct(t, map[string]any{"id": id}))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", dataOf(got)["email"])

	updated, err := client.UpdateUser(ctx, mustStruct(t, map[string]any{"id": id, "name": "Alicia", "email": "alicia@example.com"}))
	require.NoError(t, err)
	assert.Equal(t, "Alicia", dataOf(updated)["name"])

	list, err := client.ListUsers(ctx, mustStruct(t, map[string]any{}))
	require.NoError(t, err)
	users := list.AsMap()["data"].([]any)
	require.Len(t, users, 1)
	assert.Equal(t, id, users[0].(map[string]any)["_id"])

	deleted, err := client.DeleteUser(ctx, mustStruct(t, map[string]any{"id": id}))
	require.NoError(t, err)
	assert.Equal(t, "Alicia", dataOf(deleted)["name"])

	_, err = client.GetUser(ctx, mustStruct(t, map[string]any{"id": id}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestUserService_ListEmpty(t *testing.T) {
	client := setupClient(t)

	list, err := client.ListUsers(context.Background(), mustStruct(t, map[string]any{"name": "nobody"}))
	require.NoError(t, err)
	assert.Empty(t, list.AsMap()["data"])
}

func TestUserService_InvalidArgument(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{
			name: "create missing fields",
			call: func() error {
				_, err := client.CreateUser(ctx, mustStruct(t, map[string]any{"name": nil}))
				return err
			},
		},
		{
			name: "create bad email",
			call: func() error {
				_, err := client.CreateUser(ctx, mustStruct(t, map[string]any{"name": "A", "email": "nope"}))
				return err
			},
		},
		{
			name: "create non-string name",
			call: func() error {
				_, err := client.CreateUser(ctx, mustStruct(t, map[string]any{"name": 42, "email": "a@example.com"}))
				return err
			},
		},
		{
			name: "get invalid id",
			call: func() error {
				_, err := client.GetUser(ctx, mustStruct(t, map[string]any{"id": "invalid}"}))
				return err
			},
		},
		{
			name: "delete missing id",
			call: func() error {
				_, err := client.DeleteUser(ctx, mustStruct(t, map[string]any{}))
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestUserService_ValidationDetails(t *testing.T) {
	client := setupClient(t)

	_, err := client.CreateUser(context.Background(), mustStruct(t, map[string]any{}))
	require.Error(t, err)

	st := status.Convert(err)
	require.Len(t, st.Details(), 1)
	br, ok := st.Details()[0].(*errdetails.BadRequest)
	require.True(t, ok)
	assert.Len(t, br.GetFieldViolations(), 2)
}

func TestUserService_NotFound(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()
	missing := mustStruct(t, map[string]any{"id": domain.NewID()})

	_, err := client.GetUser(ctx, missing)
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.UpdateUser(ctx, missing)
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.DeleteUser(ctx, missing)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-crud-service/cmd/api/di"
	grpcadapter "user-crud-service/internal/adapter/grpc"
	"user-crud-service/internal/config"
)

func newContainer(t *testing.T, mutate func(*config.Config)) (*config.Config, *di.Container) {
	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)
	cfg.DB.Driver = config.DriverSQLite
	cfg.DB.SQLitePath = ":memory:"
	if mutate != nil {
		mutate(cfg)
	}

	c, err := di.NewContainer(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return cfg, c
}

func TestNew_RoutesServed(t *testing.T) {
	cfg, c := newContainer(t, nil)
	s := New(cfg, zaptest.NewLogger(t), c)

	require.NotNil(t, s.GRPC)
	assert.Equal(t, ":"+cfg.App.HTTPPort, s.Gin.Addr)

	for _, path := range []string{"/health", "/users", "/openapi.json"} {
		w := httptest.NewRecorder()
		s.Gin.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	info := s.GRPC.GetServiceInfo()
	require.Contains(t, info, grpcadapter.ServiceName)
	assert.Len(t, info[grpcadapter.ServiceName].Methods, 5)
}

func TestNew_GRPCDisabled(t *testing.T) {
	cfg, c := newContainer(t, func(cfg *config.Config) { cfg.App.GRPCEnabled = false })
	s := New(cfg, zaptest.NewLogger(t), c)

	assert.Nil(t, s.GRPC)
	assert.NoError(t, s.Shutdown(context.Background()))
}

func TestWithSignal(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := WithSignal(parent)
	defer stop()

	cancel()
	<-ctx.Done()
	assert.Error(t, ctx.Err())
}

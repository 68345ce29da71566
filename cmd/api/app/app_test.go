package app

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-service/internal/config"
)

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	_, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	return port
}

func TestApp_RunServesAndShutsDown(t *testing.T) {
	port := freePort(t)
	cfg := &config.Config{
		Store: config.StoreConfig{
			URI:          "sqlite://" + filepath.Join(t.TempDir(), "users.db"),
			Database:     "user_service",
			Collection:   "users",
			MaxOpenConns: 4,
			MaxIdleConns: 2,
		},
		App:    config.AppConfig{HTTPPort: port, ShutdownTimeoutSeconds: 5, Environment: "test"},
		Logger: config.LoggerConfig{Level: "warn", ServiceName: "user-service"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := NewWithConfig(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	base := "http://127.0.0.1:" + port
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	resp, err := http.Post(base+"/users", "application/json",
		strings.NewReader(`{"name":"Ann","email":"ann@example.com"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not shut down")
	}
}

func TestNewWithConfig_InvalidConfig(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{URI: "ftp://nowhere"}}
	_, err := NewWithConfig(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, ".", getConfigPath())

	t.Setenv("CONFIG_PATH", "/etc/user-service")
	assert.Equal(t, "/etc/user-service", getConfigPath())
}

package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/logging"
)

type ping struct{}

func newRequest(header string) *connect.Request[ping] {
	req := connect.NewRequest(&ping{})
	if header != "" {
		req.Header().Set("Authorization", header)
	}
	return req
}

// echoUser records the user ID the interceptor chain put in the context.
func echoUser(got *string) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		*got = GetUserID(ctx)
		return connect.NewResponse(&ping{}), nil
	}
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "u1", Email: "u1@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantUser string
		wantCode connect.Code
	}{
		{"valid token", "Bearer " + token, "u1", 0},
		{"lowercase scheme", "bearer " + token, "u1", 0},
		{"missing header", "", "", connect.CodeUnauthenticated},
		{"wrong scheme", "Basic abc", "", connect.CodeUnauthenticated},
		{"bad token", "Bearer nope", "", connect.CodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := RequireAuth(jwtManager)(echoUser(&got))

			_, err := handler(context.Background(), newRequest(tt.header))
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, connect.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, got)
		})
	}
}

func TestGetUserID_Empty(t *testing.T) {
	assert.Empty(t, GetUserID(context.Background()))
	assert.Empty(t, GetEmail(context.Background()))

	ctx := WithUser(context.Background(), "u2", "u2@example.com")
	assert.Equal(t, "u2", GetUserID(ctx))
	assert.Equal(t, "u2@example.com", GetEmail(ctx))
}

func TestMetricsInterceptor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	ok := MetricsInterceptor(m)(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&ping{}), nil
	})
	failing := MetricsInterceptor(m)(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("missing"))
	})

	_, err := ok(context.Background(), newRequest(""))
	require.NoError(t, err)
	_, err = failing(context.Background(), newRequest(""))
	require.Error(t, err)

	out, err := testutil.GatherAndCount(reg, "splitledger_rpc_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, out)
}

func TestLoggingInterceptor(t *testing.T) {
	t.Run("passes errors through with metadata logged", func(t *testing.T) {
		var buf bytes.Buffer
		want := connect.NewError(connect.CodeInvalidArgument, errors.New("bad split"))
		want.Meta().Set("Split-Error-Kind", "SPLIT_MISMATCH")

		handler := LoggingInterceptor(logging.New(&buf, slog.LevelDebug), "Split-Error-Kind", "Split-Sum")(
			func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
				return nil, want
			})

		_, err := handler(context.Background(), newRequest(""))
		assert.Equal(t, want, err)

		out := buf.String()
		assert.Contains(t, out, "WRN")
		assert.Contains(t, out, "invalid_argument")
		assert.Contains(t, out, "SPLIT_MISMATCH")
		assert.NotContains(t, out, "Split-Sum")
	})

	t.Run("server faults log at error", func(t *testing.T) {
		var buf bytes.Buffer
		handler := LoggingInterceptor(logging.New(&buf, slog.LevelDebug))(
			func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
				return nil, errors.New("disk on fire")
			})

		_, err := handler(context.Background(), newRequest(""))
		require.Error(t, err)
		assert.Contains(t, buf.String(), "ERR")
		assert.Contains(t, buf.String(), "unknown")
	})

	t.Run("success", func(t *testing.T) {
		var buf bytes.Buffer
		var got string
		handler := LoggingInterceptor(logging.New(&buf, slog.LevelDebug))(echoUser(&got))

		_, err := handler(WithUser(context.Background(), "u1", "u1@example.com"), newRequest(""))
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "RPC ok")
		assert.Contains(t, buf.String(), "u1")
	})
}

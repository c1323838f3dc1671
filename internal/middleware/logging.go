package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// with its procedure, user ID and duration. Failures also carry the code and
// any of metaKeys present in the error metadata. Caller mistakes log at warn,
// server faults at error. A nil logger means slog.Default().
func LoggingInterceptor(logger *slog.Logger, metaKeys ...string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			log := logger
			if log == nil {
				log = slog.Default()
			}
			start := time.Now()

			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"user_id", GetUserID(ctx), // empty if pre-auth
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err == nil {
				log.InfoContext(ctx, "RPC ok", attrs...)
				return resp, nil
			}

			code := connect.CodeOf(err)
			attrs = append(attrs, "code", code.String(), "error", err)
			var cerr *connect.Error
			if errors.As(err, &cerr) {
				for _, key := range metaKeys {
					if v := cerr.Meta().Get(key); v != "" {
						attrs = append(attrs, key, v)
					}
				}
			}
			if serverFault(code) {
				log.ErrorContext(ctx, "RPC error", attrs...)
			} else {
				log.WarnContext(ctx, "RPC error", attrs...)
			}
			return resp, err
		}
	}
}

func serverFault(code connect.Code) bool {
	switch code {
	case connect.CodeInternal, connect.CodeUnknown, connect.CodeDataLoss, connect.CodeUnavailable:
		return true
	}
	return false
}

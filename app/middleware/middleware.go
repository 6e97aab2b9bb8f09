package middleware

import (
	"context"
	"net/http"
	"runtime/debug"

	"cmsgo/app/apperrors"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"pkt.systems/pslog"
)

// HeaderRequestID carries the request correlation id in both directions.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// RequestID tags each request with an id, reusing a well formed incoming one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Logger installs a request scoped logger and logs one line per request.
func Logger(logger pslog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := logger
			if id := GetRequestID(r.Context()); id != "" {
				reqLogger = reqLogger.With("req_id", id)
			}
			r = r.WithContext(pslog.ContextWithLogger(r.Context(), reqLogger))

			m := httpsnoop.CaptureMetrics(next, w, r)
			reqLogger.Info("http.request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", m.Code,
				"bytes", m.Written,
				"duration", m.Duration,
			)
		})
	}
}

// Recoverer turns a panic into a 500 AppError body.
func Recoverer(logger pslog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log := logger
					if ctxLogger := pslog.LoggerFromContext(r.Context()); ctxLogger != nil {
						log = ctxLogger
					}
					log.Error("http.panic", "path", r.URL.Path, "panic", rec, "stack", string(debug.Stack()))
					apperrors.AdminStatus.Write(w, apperrors.NewInternal("Internal Server Error", nil))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeJSON defaults the response Content-Type to application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Package logger wraps the Uber zap library behind a process-wide
// sugared logger and an HTTP request logging middleware.
package logger

import (
	"errors"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// Log is the global SugaredLogger used across the service.
// It must be initialized via Init() before use.
var Log = zap.NewNop().Sugar()

type responseInfo struct {
	status int
	size   int
}

type recordingResponseWriter struct {
	http.ResponseWriter
	info *responseInfo
}

func (w *recordingResponseWriter) Write(b []byte) (int, error) {
	size, err := w.ResponseWriter.Write(b)
	w.info.size += size
	return size, err
}

func (w *recordingResponseWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.info.status = statusCode
}

// Init configures the global logger with the given level
// ("debug", "info", "warn", "error", ...).
func Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = zl.Sugar()

	return nil
}

// Sync flushes buffered log entries; call it on shutdown.
func Sync() error {
	if err := Log.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return err
	}

	return nil
}

// WithLoggingHTTPMiddleware logs method, URI, response status, size and
// duration of every handled request.
func WithLoggingHTTPMiddleware(h http.Handler) http.Handler {
	logFn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		info := &responseInfo{}
		rw := recordingResponseWriter{
			ResponseWriter: w,
			info:           info,
		}
		h.ServeHTTP(&rw, r)

		Log.Infoln(
			"uri", r.RequestURI,
			"method", r.Method,
			"status", info.status,
			"duration", time.Since(start),
			"size", info.size,
		)
	}

	return http.HandlerFunc(logFn)
}

package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level     log.Level
		wantDebug bool
	}{
		{log.InfoLevel, false},
		{log.DebugLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)

			logger.Debug("skipped file", "file", "broken.py")
			if got := strings.Contains(buf.String(), "broken.py"); got != tt.wantDebug {
				t.Errorf("debug line logged = %v, want %v", got, tt.wantDebug)
			}

			logger.Info("scan complete")
			if !strings.Contains(buf.String(), "scan complete") {
				t.Error("info line missing")
			}
		})
	}
}

func TestProgress_Done(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))

	prog.done("Scanned 3 files")

	if !regexp.MustCompile(`Scanned 3 files \(\d+(\.\d+)?m?s\)`).MatchString(buf.String()) {
		t.Errorf("progress output = %q, want message with elapsed time", buf.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("bare context should yield the default logger")
	}

	custom := newLogger(&bytes.Buffer{}, log.InfoLevel)
	if loggerFromContext(withLogger(context.Background(), custom)) != custom {
		t.Error("attached logger not returned")
	}
}

func TestLogRequests_AttachesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	s := &server{logger: newLogger(&buf, log.DebugLevel)}

	var seen *log.Logger
	h := middleware.RequestID(s.logRequests(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = loggerFromContext(r.Context())
		seen.Info("handling")
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scan", nil))

	if seen == nil || seen == log.Default() {
		t.Fatal("handler did not receive a request-scoped logger")
	}
	out := buf.String()
	if !strings.Contains(out, "req=") {
		t.Errorf("log lines lack the request id: %q", out)
	}
	if !strings.Contains(out, "status=418") {
		t.Errorf("request line lacks the status: %q", out)
	}
}

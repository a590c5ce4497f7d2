package errors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestError_Format(t *testing.T) {
	err := New(ErrCodeInvalidPath, "project root %s is not a directory", "/srv/app/main.py")

	if got, want := err.Error(), "INVALID_PATH: project root /srv/app/main.py is not a directory"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got := UserMessage(err); got != "project root /srv/app/main.py is not a directory" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	err := Wrap(ErrCodeInvalidConfig, fs.ErrPermission, "read config %s", ".findreq.yaml")

	if !errors.Is(err, fs.ErrPermission) {
		t.Error("wrapped cause not reachable through errors.Is")
	}
	if errors.Unwrap(err) != fs.ErrPermission {
		t.Errorf("Unwrap() = %v", errors.Unwrap(err))
	}
	if got := UserMessage(err); got != "read config .findreq.yaml" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestCodeLookup(t *testing.T) {
	scanErr := New(ErrCodeInvalidModule, "invalid Python module name: %q", "os.path")
	tests := []struct {
		name   string
		err    error
		code   Code
		status int
	}{
		{"direct", scanErr, ErrCodeInvalidModule, 400},
		{"behind fmt wrap", fmt.Errorf("classify: %w", scanErr), ErrCodeInvalidModule, 400},
		{"outer code wins", Wrap(ErrCodeNetwork, scanErr, "probe"), ErrCodeNetwork, 502},
		{"not found", New(ErrCodeNotFound, "no such project"), ErrCodeNotFound, 404},
		{"timeout", New(ErrCodeTimeout, "scan exceeded 2m"), ErrCodeTimeout, 504},
		{"plain", context.Canceled, "", 500},
		{"nil", nil, "", 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(%q) = false", tt.code)
			}
			if Is(tt.err, ErrCodeInternal) {
				t.Error("Is(INTERNAL_ERROR) = true for an unrelated error")
			}
			if got := HTTPStatus(tt.err); got != tt.status {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.status)
			}
		})
	}
}

func TestUserMessage_PlainError(t *testing.T) {
	if got := UserMessage(errors.New("dial tcp: connection refused")); got != "dial tcp: connection refused" {
		t.Errorf("UserMessage() = %q", got)
	}
}

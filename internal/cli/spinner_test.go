package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer read while the spinner may still write.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_AnimatesAndClears(t *testing.T) {
	var out syncBuffer
	s := startSpinner(context.Background(), &out, "Scanning ./app")
	time.Sleep(3 * spinnerInterval)
	s.stop()

	got := out.String()
	if !strings.Contains(got, "Scanning ./app") {
		t.Errorf("output %q lacks the label", got)
	}
	if !strings.HasSuffix(got, "\r") {
		t.Errorf("output %q should end by clearing the line", got)
	}
}

func TestSpinner_StopIsIdempotent(t *testing.T) {
	s := startSpinner(context.Background(), &syncBuffer{}, "x")
	s.stop()
	s.stop()
	s.fail("again")
}

func TestSpinner_EndsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := startSpinner(ctx, &syncBuffer{}, "x")
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("spinner kept running after its context was cancelled")
	}
	s.stop()
}

func TestSpinner_Fail(t *testing.T) {
	var out syncBuffer
	s := startSpinner(context.Background(), &out, "Scanning")
	s.fail("Scan failed")

	if !strings.Contains(out.String(), "Scan failed") {
		t.Errorf("output %q lacks the failure message", out.String())
	}
}

func TestSpinner_Nil(t *testing.T) {
	var s *spinner
	s.stop()
	s.fail("ignored")
}

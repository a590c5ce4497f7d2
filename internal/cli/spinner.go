package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const spinnerInterval = 80 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates a status line on stderr while a scan runs. The animation
// goroutine is the only writer until stop returns. A nil *spinner is valid
// and does nothing, so callers need not check whether a terminal is attached.
type spinner struct {
	w      io.Writer
	label  string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// startSpinner starts animating label. The spinner ends on stop or when ctx
// is cancelled, whichever comes first.
func startSpinner(ctx context.Context, w io.Writer, label string) *spinner {
	ctx, cancel := context.WithCancel(ctx)
	s := &spinner{w: w, label: label, ctx: ctx, cancel: cancel}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *spinner) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.ctx.Done():
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", lipgloss.Width(s.label)+2))
			return
		case <-ticker.C:
			frame := spinnerFrames[i%len(spinnerFrames)]
			fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.label))
		}
	}
}

// stop halts the animation and clears the line. Repeated calls are no-ops.
func (s *spinner) stop() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}

// fail stops the spinner and leaves msg as an error line in its place.
func (s *spinner) fail(msg string) {
	if s == nil {
		return
	}
	s.stop()
	printError(s.w, "%s", msg)
}

// Package linear writes run trace events as plain, line-oriented text.
package linear

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/muesli/termenv"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.Reporter = (*Reporter)(nil)

// Reporter implements ports.Reporter by printing one line per trace event.
type Reporter struct {
	mu     sync.Mutex
	w      io.Writer
	output *termenv.Output
}

// NewReporter creates a Reporter writing to w, or to stdout when w is nil.
// Colors follow what w supports: none for files and buffers, none when
// NO_COLOR is set, and always when CLICOLOR_FORCE is set.
func NewReporter(w io.Writer) *Reporter {
	if w == nil {
		w = os.Stdout
	}
	return &Reporter{
		w:      w,
		output: termenv.NewOutput(w),
	}
}


// Report writes event as "<kind> <artifact>".
func (r *Reporter) Report(_ context.Context, event domain.TraceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	label := fmt.Sprintf("%-9s", event.Kind)
	styled := r.output.String(label)
	if c, ok := kindColor[event.Kind]; ok {
		styled = styled.Foreground(c)
	}
	if event.Kind == domain.TraceMissing {
		styled = styled.Bold()
	}

	_, _ = fmt.Fprintf(r.w, "%s %s\n", styled.String(), event.Artifact)
}

var kindColor = map[domain.TraceKind]termenv.Color{
	domain.TraceSkip:     termenv.ANSIBrightBlack,
	domain.TraceRun:      termenv.ANSIGreen,
	domain.TraceWouldRun: termenv.ANSIYellow,
	domain.TraceExist:    termenv.ANSICyan,
	domain.TraceMissing:  termenv.ANSIRed,
}

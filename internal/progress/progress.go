// Package progress wraps github.com/schollz/progressbar/v3 for the CLI's
// long-running cloud carrier transfers. Modeled on a NewOptions64 helper
// with a fixed option set, quiet-aware, narrowed from a byte-tracked
// total/file bar pair to a
// single indeterminate spinner: the Vault Index's PushToCloud/PullFromCloud
// calls don't expose a per-fragment byte callback, only a start and a
// finish, so a spinner is the honest progress model here.
package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Spinner is a quiet-aware indeterminate progress indicator for one
// carrier push or pull.
type Spinner struct {
	bar *progressbar.ProgressBar
	quiet bool
}

// Start begins rendering a spinner labeled description, unless quiet.
func Start(description string, quiet bool) *Spinner {
	s := &Spinner{quiet: quiet}
	if quiet {
		return s
	}
	s.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(65),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
	}),
)
return s
}

// Stop finishes the spinner, printing a trailing newline. Safe to call on
// a quiet Spinner.
func (s *Spinner) Stop() {
	if s.quiet || s.bar == nil {
		return
	}
	_ = s.bar.Finish()
}

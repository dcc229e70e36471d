package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/launchdarkly/xunit-runner/framework"
	"github.com/launchdarkly/xunit-runner/logging"
)

// ConsoleOptions controls how much the console reporter prints.
type ConsoleOptions struct {
	// Verbose prints a line for every test that finishes, not just failures.
	Verbose bool
	// VeryVerbose also prints a line when each test starts.
	VeryVerbose bool
	// DebugOutputOnFailure dumps the debug output of failed tests.
	DebugOutputOnFailure bool
	// DebugOutputOnSuccess dumps the debug output of tests that passed.
	DebugOutputOnSuccess bool
	NoColor              bool
}

// Console writes human-readable progress to a terminal.
type Console struct {
	out     io.Writer
	options ConsoleOptions
	failed  map[int]bool
	red     *color.Color
	yellow  *color.Color
	green   *color.Color
	faint   *color.Color
	lock    sync.Mutex
}

func NewConsole(out io.Writer, options ConsoleOptions) *Console {
	if out == nil {
		out = os.Stdout
	}
	c := &Console{
		out:     out,
		options: options,
		failed:  make(map[int]bool),
		red:     color.New(color.FgRed, color.Bold),
		yellow:  color.New(color.FgYellow),
		green:   color.New(color.FgGreen),
		faint:   color.New(color.Faint),
	}
	if options.NoColor {
		for _, col := range []*color.Color{c.red, c.yellow, c.green, c.faint} {
			col.DisableColor()
		}
	}
	if options.VeryVerbose {
		c.options.Verbose = true
	}
	return c
}

func (c *Console) OnStart(details framework.TestDetails) {
	if !c.options.VeryVerbose {
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	fmt.Fprintf(c.out, "[%s] starting\n", details)
}

func (c *Console) OnFailure(details framework.TestDetails, failure framework.Failure) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.failed[details.ID] = true
	fmt.Fprintf(c.out, "[%s]\n", details)
	if failure.Location.IsDefined() {
		fmt.Fprintf(c.out, "  %s\n", c.faint.Sprint(failure.Location))
	}
	for _, line := range strings.Split(failure.Message, "\n") {
		fmt.Fprintf(c.out, "  %s\n", line)
	}
}

func (c *Console) OnSkip(details framework.TestDetails, reason string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if reason == "" {
		fmt.Fprintf(c.out, "  %s %s\n", c.yellow.Sprint("SKIPPED:"), details)
	} else {
		fmt.Fprintf(c.out, "  %s %s (%s)\n", c.yellow.Sprint("SKIPPED:"), details, reason)
	}
}

func (c *Console) OnOutput(details framework.TestDetails, output logging.CapturedOutput) {
	c.lock.Lock()
	defer c.lock.Unlock()
	failed := c.failed[details.ID]
	if (failed && c.options.DebugOutputOnFailure) || (!failed && c.options.DebugOutputOnSuccess) {
		output.Dump(c.out, "    DEBUG ")
	}
}

func (c *Console) OnFinish(details framework.TestDetails, elapsed time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	failed := c.failed[details.ID]
	delete(c.failed, details.ID)
	if failed {
		fmt.Fprintf(c.out, "  %s %s\n", c.red.Sprint("FAILED:"), details)
	} else if c.options.Verbose {
		fmt.Fprintf(c.out, "  %s %s (%s)\n", c.green.Sprint("PASSED:"), details, formatElapsed(elapsed))
	}
	if details.TimeLimit > 0 && elapsed > details.TimeLimit {
		fmt.Fprintf(c.out, "  %s %s took %s, longer than its time limit of %s\n",
			c.yellow.Sprint("SLOW:"), details, formatElapsed(elapsed), details.TimeLimit)
	}
}

func (c *Console) OnAllComplete(total, failed, skipped int, elapsed time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	summary := fmt.Sprintf("%d tests run, %d %s, %d skipped, taking %s",
		total, failed, plural(failed, "failure", "failures"), skipped, formatElapsed(elapsed))
	switch {
	case failed > 0:
		fmt.Fprintln(c.out, c.red.Sprint(summary))
	case skipped > 0:
		fmt.Fprintln(c.out, c.yellow.Sprint(summary))
	default:
		fmt.Fprintln(c.out, c.green.Sprint(summary))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func formatElapsed(d time.Duration) string {
	if d < time.Millisecond {
		return d.String()
	}
	return d.Round(time.Millisecond).String()
}

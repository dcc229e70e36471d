package reporting

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/launchdarkly/xunit-runner/framework"
)

type testStatus string

const (
	statusPass testStatus = "PASS"
	statusFail testStatus = "FAIL"
	statusSkip testStatus = "SKIP"
)

// TableOptions controls the summary table.
type TableOptions struct {
	Title string
	// ShowTests adds a row for every test under its suite.
	ShowTests bool
	NoColor   bool
}

// Table renders a per-suite summary table when the run completes.
type Table struct {
	out     io.Writer
	options TableOptions
	tests   map[int]*tableTest
	lock    sync.Mutex
}

type tableTest struct {
	details framework.TestDetails
	status  testStatus
	elapsed time.Duration
}

type suiteStats struct {
	name    string
	tests   []*tableTest
	passed  int
	failed  int
	skipped int
	elapsed time.Duration
}

func NewTable(out io.Writer, options TableOptions) *Table {
	if out == nil {
		out = os.Stdout
	}
	if options.Title == "" {
		options.Title = "Test Results"
	}
	return &Table{out: out, options: options, tests: make(map[int]*tableTest)}
}

// testFor must be called with the lock held.
func (tb *Table) testFor(details framework.TestDetails) *tableTest {
	tt, ok := tb.tests[details.ID]
	if !ok {
		tt = &tableTest{details: details, status: statusPass}
		tb.tests[details.ID] = tt
	}
	return tt
}

func (tb *Table) OnStart(details framework.TestDetails) {
	tb.lock.Lock()
	defer tb.lock.Unlock()
	tb.testFor(details)
}

func (tb *Table) OnFailure(details framework.TestDetails, _ framework.Failure) {
	tb.lock.Lock()
	defer tb.lock.Unlock()
	tb.testFor(details).status = statusFail
}

func (tb *Table) OnSkip(details framework.TestDetails, _ string) {
	tb.lock.Lock()
	defer tb.lock.Unlock()
	tt := tb.testFor(details)
	if tt.status != statusFail {
		tt.status = statusSkip
	}
}

func (tb *Table) OnFinish(details framework.TestDetails, elapsed time.Duration) {
	tb.lock.Lock()
	defer tb.lock.Unlock()
	tb.testFor(details).elapsed = elapsed
}

// OnAllComplete renders the tests seen since the previous render. A reporter shared by
// several modules therefore prints one table per module.
func (tb *Table) OnAllComplete(_, _, _ int, elapsed time.Duration) {
	tb.lock.Lock()
	defer tb.lock.Unlock()
	fmt.Fprint(tb.out, tb.render(elapsed))
	tb.tests = make(map[int]*tableTest)
}

func (tb *Table) suites() []*suiteStats {
	bySuite := make(map[string]*suiteStats)
	for _, tt := range tb.tests {
		s, ok := bySuite[tt.details.Suite]
		if !ok {
			s = &suiteStats{name: tt.details.Suite}
			bySuite[tt.details.Suite] = s
		}
		s.tests = append(s.tests, tt)
		s.elapsed += tt.elapsed
		switch tt.status {
		case statusFail:
			s.failed++
		case statusSkip:
			s.skipped++
		default:
			s.passed++
		}
	}
	suites := make([]*suiteStats, 0, len(bySuite))
	for _, s := range bySuite {
		sort.Slice(s.tests, func(i, j int) bool { return s.tests[i].details.ID < s.tests[j].details.ID })
		suites = append(suites, s)
	}
	sort.Slice(suites, func(i, j int) bool { return suites[i].name < suites[j].name })
	return suites
}

func (tb *Table) render(elapsed time.Duration) string {
	t := table.NewWriter()
	t.SetTitle(tb.options.Title)
	t.AppendHeader(table.Row{"Type", "Name", "Duration", "Tests", "Passed", "Failed", "Skipped", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "Name", WidthMax: 120, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
	})

	var totals suiteStats
	for _, s := range tb.suites() {
		totals.passed += s.passed
		totals.failed += s.failed
		totals.skipped += s.skipped
		totals.tests = append(totals.tests, s.tests...)
		t.AppendRow(table.Row{
			"Suite",
			suiteLabel(s.name),
			formatElapsed(s.elapsed),
			len(s.tests),
			s.passed,
			s.failed,
			s.skipped,
			suiteStatus(s.failed, s.skipped),
		})
		if tb.options.ShowTests {
			for i, tt := range s.tests {
				prefix := "├──"
				if i == len(s.tests)-1 {
					prefix = "└──"
				}
				t.AppendRow(table.Row{
					"Test",
					fmt.Sprintf("%s %s", prefix, tt.details.FullName()),
					formatElapsed(tt.elapsed),
					1,
					boolToInt(tt.status == statusPass),
					boolToInt(tt.status == statusFail),
					boolToInt(tt.status == statusSkip),
					string(tt.status),
				})
			}
		}
		t.AppendSeparator()
	}

	switch {
	case tb.options.NoColor:
		t.SetStyle(table.StyleLight)
	case totals.failed > 0:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case totals.skipped > 0:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}
	t.Style().Format.Footer = text.FormatDefault

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatElapsed(elapsed),
		len(totals.tests),
		totals.passed,
		totals.failed,
		totals.skipped,
		suiteStatus(totals.failed, totals.skipped),
	})
	return t.Render() + "\n"
}

func suiteLabel(name string) string {
	if name == "" {
		return "(no suite)"
	}
	return name
}

func suiteStatus(failed, skipped int) string {
	switch {
	case failed > 0:
		return string(statusFail)
	case skipped > 0:
		return string(statusSkip)
	default:
		return string(statusPass)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/launchdarkly/xunit-runner/framework"
	"github.com/launchdarkly/xunit-runner/logging"
)

// XMLFile collects results per suite and writes them as a JUnit-style XML document
// once the run is complete. When several modules report to the same XMLFile, the file
// is rewritten after each of them and holds the results of all of them.
type XMLFile struct {
	path    string
	logger  logging.Logger
	suites  map[string]*suiteResult
	cases   map[int]*xmlTestCase // test IDs are only unique within one module
	elapsed time.Duration
	err     error
	lock    sync.Mutex
}

type suiteResult struct {
	name    string
	cases   []*xmlTestCase
	elapsed time.Duration
}

type xmlTestSuites struct {
	XMLName  xml.Name       `xml:"testsuites"`
	Tests    int            `xml:"tests,attr"`
	Failures int            `xml:"failures,attr"`
	Skipped  int            `xml:"skipped,attr"`
	Time     string         `xml:"time,attr"`
	Suites   []xmlTestSuite `xml:"testsuite"`
}

type xmlTestSuite struct {
	Name     string         `xml:"name,attr"`
	Tests    int            `xml:"tests,attr"`
	Failures int            `xml:"failures,attr"`
	Skipped  int            `xml:"skipped,attr"`
	Time     string         `xml:"time,attr"`
	Cases    []*xmlTestCase `xml:"testcase"`
}

type xmlTestCase struct {
	Name      string       `xml:"name,attr"`
	ClassName string       `xml:"classname,attr"`
	ID        int          `xml:"id,attr"`
	File      string       `xml:"file,attr,omitempty"`
	Line      int          `xml:"line,attr,omitempty"`
	Time      string       `xml:"time,attr"`
	Failures  []xmlFailure `xml:"failure"`
	Skipped   *xmlSkipped  `xml:"skipped"`
	Output    *xmlCharData `xml:"system-out"`
}

type xmlFailure struct {
	Type     string `xml:"type,attr"`
	Location string `xml:"location,attr,omitempty"`
	Message  string `xml:",chardata"`
}

type xmlSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

type xmlCharData struct {
	Text string `xml:",chardata"`
}

func NewXMLFile(path string, logger logging.Logger) *XMLFile {
	if logger == nil {
		logger = logging.NullLogger()
	}
	return &XMLFile{
		path:   path,
		logger: logger,
		suites: make(map[string]*suiteResult),
		cases:  make(map[int]*xmlTestCase),
	}
}

// caseFor must be called with the lock held.
func (x *XMLFile) caseFor(details framework.TestDetails) *xmlTestCase {
	if c, ok := x.cases[details.ID]; ok {
		return c
	}
	c := &xmlTestCase{
		Name:      details.FullName(),
		ClassName: details.Suite,
		ID:        details.ID,
		File:      details.Location.File,
		Line:      details.Location.Line,
		Time:      seconds(0),
	}
	x.cases[details.ID] = c
	s, ok := x.suites[details.Suite]
	if !ok {
		s = &suiteResult{name: details.Suite}
		x.suites[details.Suite] = s
	}
	s.cases = append(s.cases, c)
	return c
}

func (x *XMLFile) OnStart(details framework.TestDetails) {
	x.lock.Lock()
	defer x.lock.Unlock()
	x.caseFor(details)
}

func (x *XMLFile) OnFailure(details framework.TestDetails, failure framework.Failure) {
	x.lock.Lock()
	defer x.lock.Unlock()
	c := x.caseFor(details)
	c.Failures = append(c.Failures, xmlFailure{
		Type:     string(failure.Kind),
		Location: failure.Location.String(),
		Message:  failure.Message,
	})
}

func (x *XMLFile) OnSkip(details framework.TestDetails, reason string) {
	x.lock.Lock()
	defer x.lock.Unlock()
	x.caseFor(details).Skipped = &xmlSkipped{Message: reason}
}

func (x *XMLFile) OnOutput(details framework.TestDetails, output logging.CapturedOutput) {
	x.lock.Lock()
	defer x.lock.Unlock()
	var text string
	for _, m := range output {
		text += m.Message + "\n"
	}
	x.caseFor(details).Output = &xmlCharData{Text: text}
}

func (x *XMLFile) OnFinish(details framework.TestDetails, elapsed time.Duration) {
	x.lock.Lock()
	defer x.lock.Unlock()
	x.caseFor(details).Time = seconds(elapsed)
	x.suites[details.Suite].elapsed += elapsed
}

func (x *XMLFile) OnAllComplete(total, failed, skipped int, elapsed time.Duration) {
	x.lock.Lock()
	defer x.lock.Unlock()
	x.elapsed += elapsed
	x.cases = make(map[int]*xmlTestCase)
	doc := x.document(x.elapsed)
	if err := x.write(doc); err != nil {
		x.err = err
		x.logger.Printf("Unable to write XML results: %s", err)
	}
}

// Err returns the error, if any, from writing the results file.
func (x *XMLFile) Err() error {
	x.lock.Lock()
	defer x.lock.Unlock()
	return x.err
}

func (x *XMLFile) document(elapsed time.Duration) xmlTestSuites {
	names := make([]string, 0, len(x.suites))
	for name := range x.suites {
		names = append(names, name)
	}
	sort.Strings(names)

	doc := xmlTestSuites{Time: seconds(elapsed)}
	for _, name := range names {
		s := x.suites[name]
		sort.Slice(s.cases, func(i, j int) bool { return s.cases[i].ID < s.cases[j].ID })
		suite := xmlTestSuite{Name: name, Time: seconds(s.elapsed), Cases: s.cases}
		for _, c := range s.cases {
			suite.Tests++
			if len(c.Failures) > 0 {
				suite.Failures++
			} else if c.Skipped != nil {
				suite.Skipped++
			}
		}
		doc.Tests += suite.Tests
		doc.Failures += suite.Failures
		doc.Skipped += suite.Skipped
		doc.Suites = append(doc.Suites, suite)
	}
	return doc
}

func (x *XMLFile) write(doc xmlTestSuites) error {
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	if dir := filepath.Dir(x.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	content := append([]byte(xml.Header), data...)
	content = append(content, '\n')
	if err := os.WriteFile(x.path, content, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

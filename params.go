package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alessio/shellescape"

	"github.com/launchdarkly/xunit-runner/framework"
)

type commandParams struct {
	modules       framework.StringList
	urls          framework.StringList
	suites        framework.StringList
	include       framework.Attributes
	exclude       framework.Attributes
	names         framework.NamePatterns
	maxConcurrent int
	timeLimit     time.Duration
	seed          int64
	list          bool
	xmlFile       string
	table         bool
	verbose       bool
	veryVerbose   bool
	debug         bool
	debugAll      bool
	noColor       bool
	metricsAddr   string
	configFile    string
}

func (c *commandParams) flagSet(errOut io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Var(&c.modules, "module", "name of a linked test module to run (default: all of them)")
	fs.Var(&c.urls, "url", "URL of a remote test service")
	fs.Var(&c.suites, "suite", "run only tests in this suite")
	fs.Var(&c.include, "include", "run only tests with any of these attributes (key or key=value)")
	fs.Var(&c.exclude, "exclude", "do not run tests with any of these attributes (key or key=value)")
	fs.Var(&c.names.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.names.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.IntVar(&c.maxConcurrent, "max-concurrent", 0, "maximum number of tests to run at once (0 means no limit)")
	fs.DurationVar(&c.timeLimit, "time-limit", 0, "time limit reported for tests that do not declare one")
	fs.Int64Var(&c.seed, "seed", 0, "seed for the order tests are started in (0 means random)")
	fs.BoolVar(&c.list, "list", false, "list the selected tests without running them")
	fs.StringVar(&c.xmlFile, "xml", "", "write results to this file as XML")
	fs.BoolVar(&c.table, "table", false, "print a summary table when the run is complete")
	fs.BoolVar(&c.verbose, "verbose", false, "print a line for every finished test")
	fs.BoolVar(&c.veryVerbose, "very-verbose", false, "also print a line when every test starts")
	fs.BoolVar(&c.debug, "debug", false, "print debug output of failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "print debug output of all tests")
	fs.BoolVar(&c.noColor, "no-color", false, "disable colored output")
	fs.StringVar(&c.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	fs.StringVar(&c.configFile, "config", "", "YAML file supplying defaults for these flags")
	return fs
}

// Read parses the command line. Values from a config file are applied only for flags
// that were not given explicitly.
func (c *commandParams) Read(args []string, errOut io.Writer) bool {
	fs := c.flagSet(errOut)
	if err := fs.Parse(args[1:]); err != nil {
		return false
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(errOut, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return false
	}
	if c.maxConcurrent < 0 {
		fmt.Fprintln(errOut, "-max-concurrent cannot be negative")
		fs.Usage()
		return false
	}
	if c.configFile != "" {
		explicit := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		config, err := loadConfig(c.configFile)
		if err == nil {
			err = config.applyTo(c, explicit)
		}
		if err != nil {
			fmt.Fprintln(errOut, err)
			return false
		}
	}
	return true
}

func (c *commandParams) query() framework.Query {
	return framework.Query{
		Suites:  c.suites,
		Include: c.include,
		Exclude: c.exclude,
		Names:   c.names,
	}
}

// rerunCommand is a shell command line that repeats the test selection of this run
// with the given seed.
func (c *commandParams) rerunCommand(program string, seed int64) string {
	var cmd commandBuilder
	cmd.add(program)
	for _, m := range c.modules {
		cmd.add("-module", m)
	}
	for _, u := range c.urls {
		cmd.add("-url", u)
	}
	for _, s := range c.suites {
		cmd.add("-suite", s)
	}
	for _, a := range c.include.Entries() {
		cmd.add("-include", a.String())
	}
	for _, a := range c.exclude.Entries() {
		cmd.add("-exclude", a.String())
	}
	for _, p := range c.names.MustMatch.Patterns() {
		cmd.add("-run", p)
	}
	for _, p := range c.names.MustNotMatch.Patterns() {
		cmd.add("-skip", p)
	}
	if c.maxConcurrent != 0 {
		cmd.add("-max-concurrent", strconv.Itoa(c.maxConcurrent))
	}
	if c.timeLimit != 0 {
		cmd.add("-time-limit", c.timeLimit.String())
	}
	cmd.add("-seed", strconv.FormatInt(seed, 10))
	return cmd.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

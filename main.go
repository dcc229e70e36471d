package main

import (
	"fmt"
	"io"
	"os"

	"github.com/launchdarkly/xunit-runner/logging"

	_ "github.com/launchdarkly/xunit-runner/exampletests"
)

const invalidParamsStatus = 255

func main() {
	os.Exit(runMain(os.Args, os.Stdout, os.Stderr))
}

// runMain returns the process exit status: the number of failed tests, capped so it
// stays a valid status, or 255 for invalid parameters.
func runMain(args []string, out, errOut io.Writer) int {
	var params commandParams
	if !params.Read(args, errOut) {
		return invalidParamsStatus
	}

	logger, syncLogger, err := logging.NewZapLogger(params.verbose || params.veryVerbose)
	if err != nil {
		fmt.Fprintf(errOut, "unable to create logger: %s\n", err)
		return invalidParamsStatus
	}
	defer syncLogger()

	h := &host{
		params:  params,
		program: args[0],
		out:     out,
		errOut:  errOut,
		logger:  logger,
	}

	modules := h.loadModules()
	if params.list {
		h.list(modules)
		return 0
	}

	failures, err := h.run(modules)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return invalidParamsStatus
	}
	return exitStatus(failures)
}

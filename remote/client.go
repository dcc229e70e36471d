package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/xunit-runner/framework"
	"github.com/launchdarkly/xunit-runner/logging"
	"github.com/launchdarkly/xunit-runner/servicedef"
)

// Client is a framework.Module whose tests live in a remote service.
type Client struct {
	baseURL    string
	info       servicedef.StatusInfo
	tests      []framework.TestDetails
	byID       map[int]framework.TestDetails
	httpClient *http.Client
	logger     logging.Logger
}

// Connect polls the service until it answers a status query or the timeout elapses,
// then fetches its test list.
func Connect(baseURL string, timeout time.Duration, logger logging.Logger, output io.Writer) (*Client, error) {
	if logger == nil {
		logger = logging.NullLogger()
	}
	if output == nil {
		output = io.Discard
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     logger,
	}
	info, err := c.queryStatus(timeout, output)
	if err != nil {
		return nil, err
	}
	c.info = info

	var tests []framework.TestDetails
	if err := c.getJSON(servicedef.PathTests, &tests); err != nil {
		return nil, fmt.Errorf("unable to get test list: %w", err)
	}
	c.tests = tests
	c.byID = make(map[int]framework.TestDetails, len(tests))
	for _, d := range tests {
		c.byID[d.ID] = d
	}
	return c, nil
}

func (c *Client) Info() servicedef.StatusInfo {
	return c.info
}

func (c *Client) queryStatus(timeout time.Duration, output io.Writer) (servicedef.StatusInfo, error) {
	fmt.Fprintf(output, "Connecting to test service at %s", c.baseURL)

	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		resp, err := c.httpClient.Get(c.baseURL + "/")
		if err == nil {
			fmt.Fprintln(output)
			respData, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return servicedef.StatusInfo{}, err
			}
			if resp.StatusCode != http.StatusOK {
				return servicedef.StatusInfo{}, fmt.Errorf("test service returned status code %d", resp.StatusCode)
			}
			var info servicedef.StatusInfo
			if err := json.Unmarshal(respData, &info); err != nil {
				return servicedef.StatusInfo{}, fmt.Errorf("malformed status response from test service: %s", string(respData))
			}
			c.logger.Printf("Status query returned metadata: %s", string(respData))
			return info, nil
		}
		if !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return servicedef.StatusInfo{}, fmt.Errorf("timed out, result of last query was: %w", err)
		}
		time.Sleep(time.Millisecond * 100)
	}
}

func (c *Client) EnumerateTestDetails(visit func(framework.TestDetails)) {
	for _, d := range c.tests {
		visit(d)
	}
}

func (c *Client) FilteredTestsRunner(
	options framework.RunOptions,
	reporter framework.Reporter,
	predicate func(framework.TestDetails) bool,
) int {
	if reporter == nil {
		reporter = framework.NullReporter()
	}
	params := servicedef.RunParams{Seed: options.Seed}
	if options.TimeLimit > 0 {
		params.TimeLimitMS = ldvalue.NewOptionalInt(int(options.TimeLimit / time.Millisecond))
	}
	if options.MaxConcurrent > 0 {
		params.MaxConcurrent = ldvalue.NewOptionalInt(options.MaxConcurrent)
	}
	for _, d := range c.tests {
		if predicate == nil || predicate(d) {
			params.IDs = append(params.IDs, d.ID)
		}
	}
	if len(params.IDs) == 0 {
		reporter.OnAllComplete(0, 0, 0, 0)
		return 0
	}

	start := time.Now()
	var resp servicedef.RunResponse
	if err := c.postJSON(servicedef.PathRun, params, &resp); err != nil {
		return c.reportTransportError(reporter, err, time.Since(start))
	}
	c.logger.Printf("Remote run %s finished with seed %d", resp.RunID, resp.Seed)
	Replay(resp, c.byID, reporter)
	return resp.Failed
}

// reportTransportError reports a run that could not be carried out as a single
// crashed test named after the service.
func (c *Client) reportTransportError(reporter framework.Reporter, err error, elapsed time.Duration) int {
	details := framework.TestDetails{Name: "remote run", Suite: c.baseURL}
	reporter.OnStart(details)
	reporter.OnFailure(details, framework.Failure{
		Kind:    framework.FailureCrash,
		Message: fmt.Sprintf("test service request failed: %s", err),
	})
	reporter.OnFinish(details, elapsed)
	reporter.OnAllComplete(1, 1, 0, elapsed)
	return 1
}

func (c *Client) getJSON(path string, target interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	return decodeResponse(resp, target)
}

func (c *Client) postJSON(path string, body, target interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	c.logger.Printf("Sending request to %s: %s", path, string(data))
	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	return decodeResponse(resp, target)
}

func decodeResponse(resp *http.Response, target interface{}) error {
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected response status %d from test service: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("malformed response from test service: %w", err)
	}
	return nil
}

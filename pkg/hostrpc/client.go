// Package hostrpc implements the host surface over the gateway's HTTP
// API, reachable through a unix socket or a TCP port. One Client serves
// the whole runner: actions, preferences, jobs, views and the long-poll
// event pump.
package hostrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"

	"github.com/phototools-dev/workflow-runner/pkg/core"
	"github.com/phototools-dev/workflow-runner/pkg/logger"
)

const requestTimeout = 30 * time.Second

// gatewayVersions bounds the gateway API versions this runner speaks.
const gatewayVersions = ">= 1.0, < 2.0"

var gatewayConstraint = mustConstraint(gatewayVersions)

// requiredCapabilities must all be offered by the gateway at connect.
var requiredCapabilities = []string{"actions", "events"}

// gatewayErrors maps machine-readable codes from the gateway's error
// envelope onto the runner's error catalog.
var gatewayErrors = map[string]*core.WorkflowError{
	core.ErrModuleMissing.Code: core.ErrModuleMissing,
	core.ErrNoSelection.Code:   core.ErrNoSelection,
}

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Client communicates with the host gateway.
type Client struct {
	http       *http.Client
	baseURL    string
	socketPath string

	events       *eventState
	capabilities []string
	version      string
	product      string
}

// NewClient creates a client using a unix socket (Linux/Mac).
func NewClient(socketPath string) *Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return net.Dial("unix", socketPath)
		},
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   requestTimeout,
		},
		baseURL:    "http://localhost",
		socketPath: socketPath,
		events:     newEventState(),
	}
}

// NewClientTCP creates a client using a local TCP port (Windows).
func NewClientTCP(port int) *Client {
	return &Client{
		http: &http.Client{
			Timeout: requestTimeout,
		},
		baseURL: fmt.Sprintf("http://127.0.0.1:%d", port),
		events:  newEventState(),
	}
}

// Dial picks the transport from the address form: unix:// prefixes and
// bare paths dial a socket, host:port pairs dial TCP.
func Dial(addr string) (*Client, error) {
	if strings.HasPrefix(addr, "unix://") {
		return NewClient(strings.TrimPrefix(addr, "unix://")), nil
	}
	trimmed := strings.TrimPrefix(addr, "tcp://")
	if strings.Contains(trimmed, "/") {
		return NewClient(trimmed), nil
	}
	if _, _, err := net.SplitHostPort(trimmed); err != nil {
		return nil, errors.Wrapf(err, "invalid gateway address %q", addr)
	}
	return &Client{
		http: &http.Client{
			Timeout: requestTimeout,
		},
		baseURL: "http://" + trimmed,
		events:  newEventState(),
	}, nil
}

// Connect verifies the gateway version and capabilities, then starts
// the event pump. The runner refuses to start against a gateway it
// cannot speak to.
func (c *Client) Connect(ctx context.Context) error {
	data, err := c.request("GET", "/api/version", nil)
	if err != nil {
		return core.ErrGatewayUnreachable.WithCause(err)
	}

	var resp versionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return errors.Wrap(err, "parse version response")
	}

	v, err := semver.NewVersion(resp.Version)
	if err != nil {
		return core.ErrVersionMismatch.WithCause(err).WithDetails(map[string]interface{}{
			"gateway": resp.Version,
		})
	}
	if !gatewayConstraint.Check(v) {
		return core.ErrVersionMismatch.WithDetails(map[string]interface{}{
			"gateway": resp.Version,
			"needs":   gatewayVersions,
		})
	}

	offered := make(map[string]bool, len(resp.Capabilities))
	for _, capability := range resp.Capabilities {
		offered[capability] = true
	}
	for _, need := range requiredCapabilities {
		if !offered[need] {
			return core.ErrVersionMismatch.WithMessage("gateway is missing a capability").WithDetails(map[string]interface{}{
				"capability": need,
			})
		}
	}
	c.capabilities = resp.Capabilities
	c.version = resp.Version
	c.product = resp.Host

	c.startEvents(ctx)
	logger.Info("Connected to gateway %s (host %s)", resp.Version, resp.Host)
	return nil
}

// GatewayVersion returns the version reported at connect.
func (c *Client) GatewayVersion() string {
	return c.version
}

// HostProduct returns the host product string reported at connect.
func (c *Client) HostProduct() string {
	return c.product
}

// HasCapability reports whether the gateway offered an optional
// capability, e.g. "snapshot".
func (c *Client) HasCapability(name string) bool {
	for _, capability := range c.capabilities {
		if capability == name {
			return true
		}
	}
	return false
}

// Status checks whether the gateway is ready to take actions.
func (c *Client) Status() (bool, error) {
	data, err := c.request("GET", "/api/status", nil)
	if err != nil {
		return false, err
	}

	var resp statusResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return false, errors.Wrap(err, "parse status response")
	}
	return resp.Ready, nil
}

// Close stops the event pump and drops idle connections.
func (c *Client) Close() error {
	err := c.stopEvents()
	c.http.CloseIdleConnections()
	return err
}

// request makes an HTTP request to the gateway and returns the raw
// response body. Timing and status go to the debug log.
func (c *Client) request(method, path string, body interface{}) ([]byte, error) {
	return c.requestCtx(context.Background(), method, path, body)
}

func (c *Client) requestCtx(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	start := time.Now()

	var reqBody io.Reader
	var bodyStr string
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "marshal request")
		}
		reqBody = bytes.NewReader(data)
		bodyStr = string(data)
		if len(bodyStr) > 100 {
			bodyStr = bodyStr[:100] + "..."
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		logger.Debug("%s %s [%v] ERROR: %v", method, path, elapsed, err)
		return nil, errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	status := "OK"
	if resp.StatusCode >= 400 {
		status = fmt.Sprintf("ERR:%d", resp.StatusCode)
	}
	logger.Debug("%s %s [%v] %s body=%s", method, path, elapsed, status, bodyStr)

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			if known, ok := gatewayErrors[errResp.Error]; ok {
				if errResp.Message == "" {
					return nil, known
				}
				return nil, known.WithMessage(errResp.Message)
			}
			return nil, errors.Errorf("%s: %s", errResp.Error, errResp.Message)
		}
		return nil, errors.Errorf("gateway error %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

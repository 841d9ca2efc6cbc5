package hostrpc

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/phototools-dev/workflow-runner/pkg/host"
)

// Invoke performs one UI action and returns the widget's resulting
// value. A NaN call value travels as null and requests a read; a null
// response value comes back as NaN.
func (c *Client) Invoke(call host.Call) (float64, error) {
	req := callRequest{
		Path:     call.Path,
		Instance: call.Instance,
		Element:  call.Element,
		Effect:   call.Effect,
		Value:    wireValue(call.Value),
	}

	data, err := c.request("POST", "/api/action", req)
	if err != nil {
		return 0, err
	}

	var resp valueResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, errors.Wrap(err, "parse action response")
	}
	return hostValue(resp.Value), nil
}

// ReadPref reads one preference key. Missing keys come back empty.
func (c *Client) ReadPref(key string) (string, error) {
	data, err := c.request("POST", "/api/prefs/read", prefReadRequest{Key: key})
	if err != nil {
		return "", err
	}

	var resp prefResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", errors.Wrap(err, "parse pref response")
	}
	return resp.Value, nil
}

// WritePref writes one preference key.
func (c *Client) WritePref(key, value string) error {
	_, err := c.request("POST", "/api/prefs/write", prefWriteRequest{Key: key, Value: value})
	return err
}

// Print shows a message in the host's user-visible message area.
func (c *Client) Print(msg string) error {
	_, err := c.request("POST", "/api/print", printRequest{Message: msg})
	return err
}

// Snapshot captures the host's current center view as PNG bytes. Only
// works when the gateway offers the snapshot capability.
func (c *Client) Snapshot() ([]byte, error) {
	return c.request("GET", "/api/snapshot", nil)
}

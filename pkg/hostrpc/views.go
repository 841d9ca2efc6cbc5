package hostrpc

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/phototools-dev/workflow-runner/pkg/host"
)

// CurrentView returns the name of the view the host is showing.
func (c *Client) CurrentView() (string, error) {
	data, err := c.request("GET", "/api/view", nil)
	if err != nil {
		return "", err
	}

	var resp viewResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", errors.Wrap(err, "parse view response")
	}
	return resp.View, nil
}

// SwitchView asks the host to change views. The view-changed event
// confirms completion; callers gate on it.
func (c *Client) SwitchView(view string) error {
	_, err := c.request("POST", "/api/view", viewRequest{View: view})
	return err
}

// DisplayedImage returns the image currently open in the darkroom.
func (c *Client) DisplayedImage() (host.ImageRef, error) {
	data, err := c.request("GET", "/api/display", nil)
	if err != nil {
		return host.ImageRef{}, err
	}

	var img host.ImageRef
	if err := json.Unmarshal(data, &img); err != nil {
		return host.ImageRef{}, errors.Wrap(err, "parse display response")
	}
	return img, nil
}

// DisplayImage asks the host to open an image in the darkroom. The
// image-loaded event confirms completion; callers gate on it.
func (c *Client) DisplayImage(img host.ImageRef) error {
	_, err := c.request("POST", "/api/display", img)
	return err
}

// Selection returns the images selected in the library.
func (c *Client) Selection() ([]host.ImageRef, error) {
	data, err := c.request("GET", "/api/selection", nil)
	if err != nil {
		return nil, err
	}

	var resp selectionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(err, "parse selection response")
	}
	return resp.Images, nil
}

// SetSelection replaces the library selection.
func (c *Client) SetSelection(imgs []host.ImageRef) error {
	_, err := c.request("POST", "/api/selection", selectionRequest{Images: imgs})
	return err
}

// ImageInfo fetches the metadata rules match against.
func (c *Client) ImageInfo(img host.ImageRef) (host.ImageInfo, error) {
	data, err := c.request("GET", fmt.Sprintf("/api/images/%d", img.ID), nil)
	if err != nil {
		return host.ImageInfo{}, err
	}

	var info host.ImageInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return host.ImageInfo{}, errors.Wrap(err, "parse image info")
	}
	return info, nil
}

// CreateJob registers a progress job with the host and returns a handle
// for updating it.
func (c *Client) CreateJob(label string, cancelable bool) (host.Job, error) {
	data, err := c.request("POST", "/api/jobs", jobRequest{Label: label, Cancelable: cancelable})
	if err != nil {
		return nil, err
	}

	var resp jobResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(err, "parse job response")
	}
	if resp.ID == "" {
		return nil, errors.New("no job ID in response")
	}
	return &rpcJob{client: c, id: resp.ID}, nil
}

// rpcJob is a host.Job handle backed by gateway calls.
type rpcJob struct {
	client *Client
	id     string
}

func (j *rpcJob) SetLabel(text string) error {
	_, err := j.client.request("POST", "/api/jobs/"+j.id+"/label", jobLabelRequest{Text: text})
	return err
}

func (j *rpcJob) SetFraction(f float64) error {
	_, err := j.client.request("POST", "/api/jobs/"+j.id+"/fraction", jobFractionRequest{Fraction: f})
	return err
}

func (j *rpcJob) Valid() (bool, error) {
	data, err := j.client.request("GET", "/api/jobs/"+j.id, nil)
	if err != nil {
		return false, err
	}

	var resp jobStateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return false, errors.Wrap(err, "parse job state")
	}
	return resp.Valid, nil
}

func (j *rpcJob) Finish() error {
	_, err := j.client.request("DELETE", "/api/jobs/"+j.id, nil)
	return err
}

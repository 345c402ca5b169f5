package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ExtractResult holds descriptors extracted from one image. The service
// orders descriptors by bounding-box area descending, so Descriptors[0]
// is always the largest detected face.
type ExtractResult struct {
	Descriptors   [][]float64
	FacesDetected int
}

// Client calls the face-descriptor extraction microservice.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. With skip enabled every call returns a canned
// single-face result, which keeps dev environments off the GPU service.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 30 * time.Second, // descriptor extraction can take time
		},
	}
}

// Extract requests face descriptors for a base64-encoded image.
// A response with zero descriptors is returned as-is, not as an error;
// the caller decides how to report "no face found".
func (c *Client) Extract(ctx context.Context, imageBase64 string) (*ExtractResult, error) {
	if c.Skip {
		desc := make([]float64, 128)
		desc[0] = 0.1
		return &ExtractResult{Descriptors: [][]float64{desc}, FacesDetected: 1}, nil
	}
	if imageBase64 == "" {
		return nil, fmt.Errorf("image data required")
	}

	body, _ := json.Marshal(map[string]string{"image_base64": imageBase64})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("face service error %s: %s", resp.Status, string(bodyBytes))
	}

	var out struct {
		Descriptors   [][]float64 `json:"descriptors"`
		FacesDetected int         `json:"faces_detected"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &ExtractResult{Descriptors: out.Descriptors, FacesDetected: out.FacesDetected}, nil
}

// Health checks if the face service is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("face service unhealthy: %s", resp.Status)
	}
	return nil
}

package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultFalModel = "fal-ai/nano-banana-pro/edit"

// FalOptions configures the fal.ai client.
type FalOptions struct {
	BaseURL    string
	Model      string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// FalClient invokes a fal.ai image-edit model through the synchronous
// endpoint. The request blocks until the model has produced every output.
type FalClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	token      string
}

// NewFalClient builds a client with sane defaults.
func NewFalClient(opts FalOptions) *FalClient {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://fal.run"
	}
	model := strings.Trim(opts.Model, "/")
	if model == "" {
		model = defaultFalModel
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 300 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &FalClient{
		httpClient: client,
		baseURL:    base,
		model:      model,
		token:      strings.TrimSpace(opts.APIKey),
	}
}

type falRequest struct {
	Prompt             string   `json:"prompt"`
	ImageURLs          []string `json:"image_urls"`
	OutputFormat       string   `json:"output_format,omitempty"`
	ImageSize          string   `json:"image_size,omitempty"`
	NegativePrompt     string   `json:"negative_prompt,omitempty"`
	NumImages          int      `json:"num_images,omitempty"`
	Seed               *int     `json:"seed,omitempty"`
	SpatialConsistency string   `json:"spatial_consistency,omitempty"`
}

type falImage struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

type falResponse struct {
	Images []falImage      `json:"images"`
	Detail json.RawMessage `json:"detail"`
}

// Generate performs one edit call and returns the output images in the order
// the model produced them. An empty image list is reported as an error so the
// caller never records a generation that yielded nothing.
func (c *FalClient) Generate(ctx context.Context, req GenerateRequest) ([]Image, error) {
	if c == nil {
		return nil, errors.New("fal client not configured")
	}
	if c.token == "" {
		return nil, errors.New("fal: API key is missing")
	}
	if len(req.ImageURLs) == 0 {
		return nil, errors.New("fal: source image required")
	}

	payload := falRequest{
		Prompt:         req.Prompt,
		ImageURLs:      req.ImageURLs,
		OutputFormat:   req.OutputFormat,
		ImageSize:      req.ImageSize,
		NegativePrompt: req.NegativePrompt,
		NumImages:      req.NumImages,
		Seed:           req.Seed,
		// Lock the depth map so the room structure survives restyling.
		SpatialConsistency: "on_structure_match",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/" + c.model
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Key "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fal: invoke model: %w", err)
	}
	defer resp.Body.Close()

	var out falResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("fal: http %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("fal: decode response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if len(out.Detail) > 0 {
			return nil, fmt.Errorf("fal error: %s (http %d)", strings.TrimSpace(string(out.Detail)), resp.StatusCode)
		}
		return nil, fmt.Errorf("fal: http %d", resp.StatusCode)
	}
	if len(out.Images) == 0 {
		return nil, errors.New("fal: no images generated")
	}

	images := make([]Image, 0, len(out.Images))
	for _, img := range out.Images {
		if strings.TrimSpace(img.URL) == "" {
			continue
		}
		images = append(images, Image{URL: img.URL, ContentType: img.ContentType})
	}
	if len(images) == 0 {
		return nil, errors.New("fal: response images missing urls")
	}
	return images, nil
}

var _ Generator = (*FalClient)(nil)

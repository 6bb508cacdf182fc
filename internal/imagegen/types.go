package imagegen

import "context"

// GenerateRequest carries one image-edit invocation. ImageURLs accepts public
// URLs or data URIs; Seed is optional and pins the model's sampling so
// separate calls can produce stylistically consistent output.
type GenerateRequest struct {
	Prompt         string
	NegativePrompt string
	ImageURLs      []string
	OutputFormat   string
	ImageSize      string
	NumImages      int
	Seed           *int
}

// Image is one generated output.
type Image struct {
	URL         string
	ContentType string
}

// Generator is the external image-edit capability consumed by the
// orchestrators. The call is awaited to completion; implementations return
// outputs in the order the model produced them.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]Image, error)
}

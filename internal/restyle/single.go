package restyle

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"rinova/internal/domain"
	"rinova/internal/imagegen"
)

// SingleRequest asks for one room photo to be restyled.
type SingleRequest struct {
	Style     string
	RoomType  string
	Image     string // data URI or remote URL
	NumImages int
}

// SingleResult is the outcome of a single restyle generation.
type SingleResult struct {
	GeneratedImages []string
	OriginalURL     string
	Prompt          string
	Record          *domain.GenerationRecord
	RecordStored    bool
}

// GenerateSingle restyles one photo into NumImages variations. Quota is
// checked up front and charged only after the provider produced output; a
// provider failure leaves the user's count and history untouched.
func (s *Service) GenerateSingle(ctx context.Context, user *domain.User, req SingleRequest) (*SingleResult, error) {
	if req.Style == "" {
		return nil, fmt.Errorf("%w: style is required", domain.ErrInvalidRequest)
	}
	if req.NumImages < 1 {
		req.NumImages = 1
	}
	src, err := parseSourceImage(req.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err)
	}

	if err := s.quota.Check(ctx, user.ID, req.NumImages); err != nil {
		return nil, err
	}

	style := NormalizeStyle(req.Style)
	prompt := BuildPrompt(style, req.RoomType)
	folder := storageFolder(style, req.RoomType, "", s.now(), s.newID())

	var (
		originalURL string
		generated   []imagegen.Image
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		originalURL = s.uploadOriginal(gctx, src, fmt.Sprintf("%s/original.%s", folder, src.ext))
		return nil
	})
	g.Go(func() error {
		images, err := s.generator.Generate(gctx, imagegen.GenerateRequest{
			Prompt:         prompt,
			NegativePrompt: NegativePrompt,
			ImageURLs:      []string{src.raw},
			OutputFormat:   "jpeg",
			ImageSize:      "square_hd",
			NumImages:      req.NumImages,
		})
		if err != nil {
			return fmt.Errorf("%w: %s", domain.ErrGenerationFailed, err)
		}
		generated = images
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(generated) == 0 {
		return nil, fmt.Errorf("%w: provider returned no images", domain.ErrGenerationFailed)
	}

	urls := make([]string, len(generated))
	pg, pctx := errgroup.WithContext(ctx)
	pg.SetLimit(maxParallelOperations)
	for i, image := range generated {
		i, image := i, image
		pg.Go(func() error {
			urls[i] = s.persistOutput(pctx, image, fmt.Sprintf("%s/generated_%d.jpeg", folder, i))
			return nil
		})
	}
	_ = pg.Wait() // goroutines never return an error

	record := &domain.GenerationRecord{
		ID:               s.newID(),
		UserID:           user.ID,
		Style:            style,
		RoomType:         req.RoomType,
		Prompt:           prompt,
		OriginalImageURL: originalURL,
		Payload:          domain.SinglePayload(urls),
	}
	stored := s.persistRecord(ctx, record)
	s.commitQuota(ctx, user.ID, req.NumImages)

	return &SingleResult{
		GeneratedImages: urls,
		OriginalURL:     originalURL,
		Prompt:          prompt,
		Record:          record,
		RecordStored:    stored,
	}, nil
}

package restyle

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"rinova/internal/domain"
	"rinova/internal/imagegen"
)

// BatchRequest restyles several angles of the same room in one pass.
type BatchRequest struct {
	Style            string
	RoomType         string
	Images           []string // data URIs or remote URLs, one per angle
	VariantsPerAngle int
}

// BatchResult is the outcome of a multi-angle restyle generation. Results
// keep the input order; a failed angle has an empty Generated list.
type BatchResult struct {
	Results      []domain.AngleResult
	Prompt       string
	Record       *domain.GenerationRecord
	RecordStored bool
}

// GenerateBatch restyles every angle with the same prompt and a shared
// consistency seed. The first angle runs unseeded and anchors the style; the
// seed ties the remaining angles to it. One failed angle does not sink the
// batch, but if every angle fails the whole request is treated as a provider
// failure and nothing is persisted or charged.
func (s *Service) GenerateBatch(ctx context.Context, user *domain.User, req BatchRequest) (*BatchResult, error) {
	if req.Style == "" {
		return nil, fmt.Errorf("%w: style is required", domain.ErrInvalidRequest)
	}
	if len(req.Images) == 0 {
		return nil, fmt.Errorf("%w: at least one image is required", domain.ErrInvalidRequest)
	}
	if req.VariantsPerAngle < 1 {
		req.VariantsPerAngle = 1
	}
	sources := make([]*sourceImage, len(req.Images))
	for i, image := range req.Images {
		src, err := parseSourceImage(image)
		if err != nil {
			return nil, fmt.Errorf("%w: image %d: %s", domain.ErrInvalidRequest, i, err)
		}
		sources[i] = src
	}

	cost := len(sources) * req.VariantsPerAngle
	if err := s.quota.Check(ctx, user.ID, cost); err != nil {
		return nil, err
	}

	style := NormalizeStyle(req.Style)
	prompt := BuildPrompt(style, req.RoomType)
	folder := storageFolder(style, req.RoomType, "batch", s.now(), s.newID())
	seed := s.seedFn()

	results := make([]domain.AngleResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelOperations)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			results[i] = s.generateAngle(gctx, angleJob{
				src:      src,
				index:    i,
				folder:   folder,
				prompt:   prompt,
				variants: req.VariantsPerAngle,
				seed:     seed,
			})
			return nil
		})
	}
	_ = g.Wait() // angle goroutines never return an error

	succeeded := 0
	for _, r := range results {
		succeeded += len(r.Generated)
	}
	if succeeded == 0 {
		return nil, fmt.Errorf("%w: all angles failed", domain.ErrGenerationFailed)
	}

	record := &domain.GenerationRecord{
		ID:               s.newID(),
		UserID:           user.ID,
		Style:            style,
		RoomType:         req.RoomType,
		Prompt:           prompt,
		OriginalImageURL: results[0].Original,
		Payload:          domain.BatchPayload(results),
	}
	stored := s.persistRecord(ctx, record)
	s.commitQuota(ctx, user.ID, cost)

	return &BatchResult{
		Results:      results,
		Prompt:       prompt,
		Record:       record,
		RecordStored: stored,
	}, nil
}

type angleJob struct {
	src      *sourceImage
	index    int
	folder   string
	prompt   string
	variants int
	seed     int
}

// generateAngle runs the full pipeline for one angle: original upload,
// generation, output persistence. It never fails the batch; a provider error
// yields an empty Generated list for this angle only.
func (s *Service) generateAngle(ctx context.Context, job angleJob) domain.AngleResult {
	var (
		originalURL string
		generated   []imagegen.Image
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		originalURL = s.uploadOriginal(gctx, job.src, fmt.Sprintf("%s/original_%d.%s", job.folder, job.index, job.src.ext))
		return nil
	})
	g.Go(func() error {
		genReq := imagegen.GenerateRequest{
			Prompt:         job.prompt,
			NegativePrompt: NegativePrompt,
			ImageURLs:      []string{job.src.raw},
			OutputFormat:   "jpeg",
			ImageSize:      "square_hd",
			NumImages:      job.variants,
		}
		if job.index > 0 {
			seed := job.seed
			genReq.Seed = &seed
		}
		images, err := s.generator.Generate(gctx, genReq)
		if err != nil {
			s.logger.Warn().Err(err).Int("angle", job.index).Msg("restyle: angle generation failed")
			return nil
		}
		generated = images
		return nil
	})
	_ = g.Wait() // goroutines never return an error

	urls := make([]string, len(generated))
	for n, image := range generated {
		urls[n] = s.persistOutput(ctx, image, fmt.Sprintf("%s/generated_%d_%d.jpeg", job.folder, job.index, n))
	}
	return domain.AngleResult{Original: originalURL, Generated: urls}
}

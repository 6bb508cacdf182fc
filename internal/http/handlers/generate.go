package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rinova/internal/domain"
	"rinova/internal/restyle"
)

const (
	eventGenerateSingle = "GENERATE_SINGLE"
	eventGenerateBatch  = "GENERATE_BATCH"
)

type generateRequest struct {
	Image     string `json:"image"`
	Style     string `json:"style"`
	RoomType  string `json:"roomType"`
	NumImages int    `json:"numImages"`
}

type generateResponse struct {
	GeneratedImages []string `json:"generatedImages"`
}

type generateBatchRequest struct {
	Images           []string `json:"images"`
	Style            string   `json:"style"`
	RoomType         string   `json:"roomType"`
	VariantsPerAngle int      `json:"variantsPerAngle"`
}

type generateBatchResponse struct {
	Results []domain.AngleResult `json:"results"`
}

// Generate restyles one room photo into N variants.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	user := a.currentUser(r)
	if user == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.GenerationTimeout)
	defer cancel()
	res, err := a.Restyler.GenerateSingle(ctx, user, restyle.SingleRequest{
		Style:     req.Style,
		RoomType:  req.RoomType,
		Image:     req.Image,
		NumImages: req.NumImages,
	})
	if err != nil {
		a.generationError(w, err)
		a.recordUsage(r, user.ID, eventGenerateSingle, false, started, 0)
		return
	}
	a.json(w, http.StatusOK, generateResponse{GeneratedImages: res.GeneratedImages})
	a.recordUsage(r, user.ID, eventGenerateSingle, true, started, len(res.GeneratedImages))
}

// GenerateBatch restyles several angles of one room in a single pass.
func (a *App) GenerateBatch(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	user := a.currentUser(r)
	if user == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req generateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.GenerationTimeout)
	defer cancel()
	res, err := a.Restyler.GenerateBatch(ctx, user, restyle.BatchRequest{
		Style:            req.Style,
		RoomType:         req.RoomType,
		Images:           req.Images,
		VariantsPerAngle: req.VariantsPerAngle,
	})
	if err != nil {
		a.generationError(w, err)
		a.recordUsage(r, user.ID, eventGenerateBatch, false, started, 0)
		return
	}
	units := len(req.Images) * max(req.VariantsPerAngle, 1)
	a.json(w, http.StatusOK, generateBatchResponse{Results: res.Results})
	a.recordUsage(r, user.ID, eventGenerateBatch, true, started, units)
}

// generationError maps orchestrator failures onto the caller-facing error
// envelope. The quota case carries its own code so clients can branch.
func (a *App) generationError(w http.ResponseWriter, err error) {
	var qe *restyle.QuotaError
	switch {
	case errors.As(err, &qe):
		details := fmt.Sprintf("requested %d, remaining %d", qe.Cost, qe.Remaining)
		a.errorDetails(w, http.StatusForbidden, "LIMIT_REACHED", "generation limit reached", details)
	case errors.Is(err, domain.ErrInvalidRequest):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrGenerationFailed):
		a.Logger.Error().Err(err).Msg("generation failed")
		a.errorDetails(w, http.StatusInternalServerError, "generation_failed", "image generation failed", err.Error())
	default:
		a.Logger.Error().Err(err).Msg("generation request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

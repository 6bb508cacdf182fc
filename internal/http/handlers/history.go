package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"rinova/internal/domain"
	"rinova/pkg/zip"
)

type generationDTO struct {
	ID               string                  `json:"id"`
	Style            string                  `json:"style"`
	RoomType         string                  `json:"room_type"`
	Prompt           string                  `json:"prompt"`
	OriginalImageURL string                  `json:"original_image_url"`
	Generated        domain.GeneratedPayload `json:"generated"`
	CreatedAt        time.Time               `json:"created_at"`
}

type historyResponse struct {
	Records []generationDTO `json:"records"`
	User    historyUserDTO  `json:"user"`
}

type historyUserDTO struct {
	Role            string `json:"role"`
	GenerationCount int    `json:"generation_count"`
}

// HistoryList returns the user's generations newest first, plus the quota
// state the client renders next to them.
func (a *App) HistoryList(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(r)
	if user == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	records, err := a.Records.ListByUser(r.Context(), user.ID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("history list failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load history")
		return
	}
	dtos := make([]generationDTO, len(records))
	for i, rec := range records {
		dtos[i] = generationDTO{
			ID:               rec.ID,
			Style:            rec.Style,
			RoomType:         rec.RoomType,
			Prompt:           rec.Prompt,
			OriginalImageURL: rec.OriginalImageURL,
			Generated:        rec.Payload,
			CreatedAt:        rec.CreatedAt,
		}
	}
	a.json(w, http.StatusOK, historyResponse{
		Records: dtos,
		User: historyUserDTO{
			Role:            string(user.Role),
			GenerationCount: user.GenerationCount,
		},
	})
}

// HistoryDelete removes one record. Ownership is enforced in the query, so a
// foreign id is indistinguishable from a missing one.
func (a *App) HistoryDelete(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(r)
	if user == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return
	}
	if err := a.Records.DeleteByIDAndOwner(r.Context(), id, user.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "generation not found")
			return
		}
		a.Logger.Error().Err(err).Str("record_id", id).Msg("history delete failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete generation")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HistoryDownload streams a zip of every generated image in one record.
// Assets that cannot be fetched are skipped rather than failing the archive.
func (a *App) HistoryDownload(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(r)
	if user == nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	id := chi.URLParam(r, "id")
	record, err := a.Records.GetByIDAndOwner(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "generation not found")
			return
		}
		a.Logger.Error().Err(err).Str("record_id", id).Msg("history download lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load generation")
		return
	}

	assets := a.collectAssets(r, record)
	if len(assets) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no downloadable images in this generation")
		return
	}
	archive, err := zip.Archive(assets)
	if err != nil {
		a.Logger.Error().Err(err).Str("record_id", id).Msg("archive assembly failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}

	filename := fmt.Sprintf("%s_%s_%s.zip", strings.ToLower(record.Style), record.RoomType, record.ID)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) collectAssets(r *http.Request, record *domain.GenerationRecord) []zip.Asset {
	var assets []zip.Asset
	add := func(url, name string) {
		data, mime, err := a.fetchAsset(r, url)
		if err != nil {
			a.Logger.Warn().Err(err).Str("url", url).Msg("download: asset fetch failed, skipping")
			return
		}
		assets = append(assets, zip.Asset{Name: name, MIME: mime, Data: data})
	}
	if record.Payload.IsBatch {
		for i, angle := range record.Payload.Results {
			for n, url := range angle.Generated {
				add(url, fmt.Sprintf("generated_%d_%d", i, n))
			}
		}
	} else {
		for n, url := range record.Payload.URLs {
			add(url, fmt.Sprintf("generated_%d", n))
		}
	}
	return assets
}

func (a *App) fetchAsset(r *http.Request, url string) ([]byte, string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, "", fmt.Errorf("unsupported asset reference")
	}
	client := a.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", fmt.Errorf("fetch asset: http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

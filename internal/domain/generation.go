package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// AngleResult is the outcome for one input angle of a batch generation. The
// Generated slice may be empty when that angle's upstream call failed; the
// batch as a whole still succeeds.
type AngleResult struct {
	Original  string   `json:"original"`
	Generated []string `json:"generated"`
}

// GeneratedPayload is the two-shape result of a generation: an ordered list of
// variant URLs for single mode, or a per-angle result list for batch mode. It
// persists as either a plain JSON array or a {"isBatch":true,...} object, the
// two formats history readers already understand.
type GeneratedPayload struct {
	IsBatch bool
	URLs    []string
	Results []AngleResult
}

// SinglePayload builds a single-mode payload preserving the given URL order.
func SinglePayload(urls []string) GeneratedPayload {
	return GeneratedPayload{URLs: urls}
}

// BatchPayload builds a batch-mode payload preserving input angle order.
func BatchPayload(results []AngleResult) GeneratedPayload {
	return GeneratedPayload{IsBatch: true, Results: results}
}

type batchEnvelope struct {
	IsBatch bool          `json:"isBatch"`
	Results []AngleResult `json:"results"`
}

// MarshalJSON emits the shape matching the payload mode.
func (p GeneratedPayload) MarshalJSON() ([]byte, error) {
	if p.IsBatch {
		return json.Marshal(batchEnvelope{IsBatch: true, Results: p.Results})
	}
	if p.URLs == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(p.URLs)
}

// UnmarshalJSON accepts either of the two persisted shapes and rejects
// anything else, so a stored record can never deserialize into an unknown
// form.
func (p *GeneratedPayload) UnmarshalJSON(data []byte) error {
	var urls []string
	if err := json.Unmarshal(data, &urls); err == nil {
		*p = GeneratedPayload{URLs: urls}
		return nil
	}

	var envelope batchEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("generated payload: unknown shape: %w", err)
	}
	if !envelope.IsBatch {
		return fmt.Errorf("generated payload: object shape missing isBatch tag")
	}
	*p = GeneratedPayload{IsBatch: true, Results: envelope.Results}
	return nil
}

// GenerationRecord is the persisted history entry for one orchestration. It is
// written exactly once, after generation and all asset uploads have resolved,
// and is immutable afterwards except for deletion by its owner.
type GenerationRecord struct {
	ID               string
	UserID           string
	Style            string
	RoomType         string
	Prompt           string
	OriginalImageURL string
	Payload          GeneratedPayload
	CreatedAt        time.Time
}

package pipeline

import (
	"time"

	"github.com/Carmen-Shannon/oxy-shot/engine/render"
	"github.com/Carmen-Shannon/oxy-shot/internal/intake"
	"github.com/google/uuid"
)

// Status is the lifecycle state of a ModelRecord.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}

// ModelRecord is one uploaded asset and the outcome of its pipeline run.
type ModelRecord struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	MediaType   string             `json:"media_type"`
	Size        int64              `json:"size"`
	Status      Status             `json:"status"`
	Screenshot  *render.Screenshot `json:"screenshot,omitempty"`
	Error       string             `json:"error,omitempty"`
	AddedAt     time.Time          `json:"added_at"`
	CompletedAt time.Time          `json:"completed_at,omitzero"`

	data []byte
}

// NewModelRecord creates a queued record owning the file bytes.
func NewModelRecord(f intake.File) ModelRecord {
	return ModelRecord{
		ID:        uuid.NewString(),
		Name:      f.Name,
		MediaType: f.MediaType,
		Size:      int64(len(f.Data)),
		Status:    StatusQueued,
		AddedAt:   time.Now(),
		data:      f.Data,
	}
}

// Data returns the source bytes. Callers must not modify them.
func (r ModelRecord) Data() []byte {
	return r.data
}

// HasScreenshot reports whether the capture succeeded.
func (r ModelRecord) HasScreenshot() bool {
	return r.Screenshot != nil
}

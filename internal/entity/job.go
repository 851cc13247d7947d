package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hrdtools/employee-importer/constants"
)

// Job represents one tracked background import attempt for data transfer
// between layers.
type Job struct {
	ID           uuid.UUID           `json:"id"`
	Status       constants.JobStatus `json:"status"`
	Filename     string              `json:"filename"`
	OriginalName string              `json:"original_name"`
	Metadata     json.RawMessage     `json:"metadata,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	ProcessedAt  *time.Time          `json:"processed_at,omitempty"`
}

// JobMetadata is the payload attached to a job at creation. It is never
// mutated afterwards.
type JobMetadata struct {
	Filename     string          // stored name on disk
	OriginalName string          // name as uploaded
	Extra        json.RawMessage // client-supplied metadata, already validated
}

package database

import "time"

// Job status values.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// CompressionRecord is the persisted outcome of one compression job. The
// compressed payload is stored alongside the metadata so the download
// endpoint can serve bytes after the job's temporary files are gone.
type CompressionRecord struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	Filename       string    `json:"filename"`
	Preset         string    `json:"preset"`
	OriginalSize   int64     `json:"original_size"`
	CompressedSize int64     `json:"compressed_size"`
	Ratio          float64   `json:"ratio"`
	DurationMs     int64     `json:"duration_ms"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	Payload        []byte    `gorm:"type:blob" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Stats aggregates the job history.
type Stats struct {
	TotalJobs       int64   `json:"total_jobs"`
	CompletedJobs   int64   `json:"completed_jobs"`
	FailedJobs      int64   `json:"failed_jobs"`
	TotalOriginal   int64   `json:"total_original_bytes"`
	TotalCompressed int64   `json:"total_compressed_bytes"`
	TotalSaved      int64   `json:"total_saved_bytes"`
	AverageRatio    float64 `json:"average_ratio"`
}

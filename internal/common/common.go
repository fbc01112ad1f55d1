package common

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	// Compression constants
	DefaultPreset       = "ebook"
	MaxConcurrencyLimit = 8

	// Upload constants
	MaxUploadBytes = 50 * 1024 * 1024
)

// GenerateUUID generates a new UUID string
func GenerateUUID() string {
	return uuid.New().String()
}

// FormatBytes renders a byte count as a human-readable size string
func FormatBytes(size int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)

	switch {
	case size >= gb:
		return fmt.Sprintf("%.2f GB", float64(size)/float64(gb))
	case size >= mb:
		return fmt.Sprintf("%.2f MB", float64(size)/float64(mb))
	case size >= kb:
		return fmt.Sprintf("%.1f KB", float64(size)/float64(kb))
	default:
		return fmt.Sprintf("%d B", size)
	}
}

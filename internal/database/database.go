package database

import (
	"errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrRecordNotFound indicates an unknown job ID.
var ErrRecordNotFound = errors.New("compression record not found")

// Database handles job history persistence.
type Database struct {
	db *gorm.DB
}

// NewDatabase opens (or creates) the sqlite database at dbPath and migrates
// the schema.
func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&CompressionRecord{}); err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

// SaveRecord persists the outcome of a compression job.
func (d *Database) SaveRecord(record *CompressionRecord) error {
	return d.db.Create(record).Error
}

// GetRecord loads a job record by ID.
func (d *Database) GetRecord(id string) (*CompressionRecord, error) {
	var record CompressionRecord
	result := d.db.First(&record, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &record, nil
}

// RecentRecords returns up to limit most recent job records, newest first,
// without their payloads.
func (d *Database) RecentRecords(limit int) ([]CompressionRecord, error) {
	var records []CompressionRecord
	err := d.db.
		Omit("payload").
		Order("created_at desc").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// Stats aggregates the stored job history.
func (d *Database) Stats() (*Stats, error) {
	var stats Stats

	if err := d.db.Model(&CompressionRecord{}).Count(&stats.TotalJobs).Error; err != nil {
		return nil, err
	}
	if err := d.db.Model(&CompressionRecord{}).
		Where("status = ?", StatusCompleted).
		Count(&stats.CompletedJobs).Error; err != nil {
		return nil, err
	}
	stats.FailedJobs = stats.TotalJobs - stats.CompletedJobs

	type totals struct {
		Original   int64
		Compressed int64
		Ratio      float64
	}
	var t totals
	err := d.db.Model(&CompressionRecord{}).
		Where("status = ?", StatusCompleted).
		Select("COALESCE(SUM(original_size), 0) as original, COALESCE(SUM(compressed_size), 0) as compressed, COALESCE(AVG(ratio), 0) as ratio").
		Scan(&t).Error
	if err != nil {
		return nil, err
	}

	stats.TotalOriginal = t.Original
	stats.TotalCompressed = t.Compressed
	stats.TotalSaved = t.Original - t.Compressed
	stats.AverageRatio = t.Ratio

	return &stats, nil
}

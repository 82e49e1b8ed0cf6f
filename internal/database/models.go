package database

import (
	"time"
)

// ScanSession represents one scan run from start to completion
type ScanSession struct {
	ID        int64      `db:"id"`
	Backend   string     `db:"backend"`
	Region    string     `db:"region"`
	Targets   *string    `db:"targets"`
	Threshold float64    `db:"threshold"`

	StartedAt   time.Time  `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`

	// Loop statistics
	Frames          uint64 `db:"frames"`
	Misses          uint64 `db:"misses"`
	TotalDetections int    `db:"total_detections"`

	Status string `db:"status"`
}

// DetectionRecord is a single sprite match persisted from a frame
type DetectionRecord struct {
	ID        int64   `db:"id"`
	SessionID int64   `db:"session_id"`
	FrameSeq  uint64  `db:"frame_seq"`

	Entity     string  `db:"entity"`
	Template   string  `db:"template"`
	Confidence float64 `db:"confidence"`

	X      int `db:"x"`
	Y      int `db:"y"`
	Width  int `db:"width"`
	Height int `db:"height"`

	DetectedAt time.Time `db:"detected_at"`
}

package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rafabr7/prototiposiargk/internal/cv"
)

// Scan session recording. DB satisfies hunt.Recorder.

// StartScanSession creates a new session row and returns its ID
func (db *DB) StartScanSession(backend, region string, targets []string, threshold float64) (int64, error) {
	var sessionID int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		var targetsCol *string
		if len(targets) > 0 {
			joined := strings.Join(targets, ",")
			targetsCol = &joined
		}

		result, err := tx.Exec(`
			INSERT INTO scan_sessions (
				backend, region, targets, threshold, started_at, status
			) VALUES (?, ?, ?, ?, ?, 'running')
		`, backend, region, targetsCol, threshold, time.Now())

		if err != nil {
			return fmt.Errorf("failed to insert scan session: %w", err)
		}

		sessionID, err = result.LastInsertId()
		return err
	})

	if err != nil {
		return 0, err
	}

	return sessionID, nil
}

// RecordDetections persists all matches found in one frame
func (db *DB) RecordDetections(sessionID int64, frameSeq uint64, detections []cv.Detection) error {
	if len(detections) == 0 {
		return nil
	}

	return db.ExecTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO detections (
				session_id, frame_seq, entity, template, confidence,
				x, y, width, height
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare detection insert: %w", err)
		}
		defer stmt.Close()

		for _, d := range detections {
			_, err := stmt.Exec(
				sessionID, frameSeq, d.Name, d.Template, d.Confidence,
				d.Bounds.Min.X, d.Bounds.Min.Y, d.Bounds.Dx(), d.Bounds.Dy(),
			)
			if err != nil {
				return fmt.Errorf("failed to insert detection: %w", err)
			}
		}

		return nil
	})
}

// CompleteScanSession finalizes a session with its loop statistics
func (db *DB) CompleteScanSession(sessionID int64, frames, misses uint64, detections int) error {
	return db.ExecTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			UPDATE scan_sessions
			SET completed_at = ?,
				frames = ?,
				misses = ?,
				total_detections = ?,
				status = 'completed'
			WHERE id = ?
		`, time.Now(), frames, misses, detections, sessionID)
		return err
	})
}

// GetScanSession retrieves a session by ID
func (db *DB) GetScanSession(sessionID int64) (*ScanSession, error) {
	session := &ScanSession{}
	err := db.conn.QueryRow(`
		SELECT
			id, backend, region, targets, threshold,
			started_at, completed_at, frames, misses,
			total_detections, status
		FROM scan_sessions
		WHERE id = ?
	`, sessionID).Scan(
		&session.ID, &session.Backend, &session.Region, &session.Targets,
		&session.Threshold, &session.StartedAt, &session.CompletedAt,
		&session.Frames, &session.Misses, &session.TotalDetections,
		&session.Status,
	)

	if err != nil {
		return nil, err
	}

	return session, nil
}

// GetSessionDetections returns all detections recorded for a session,
// strongest first
func (db *DB) GetSessionDetections(sessionID int64) ([]*DetectionRecord, error) {
	rows, err := db.conn.Query(`
		SELECT
			id, session_id, frame_seq, entity, template, confidence,
			x, y, width, height, detected_at
		FROM detections
		WHERE session_id = ?
		ORDER BY confidence DESC, id ASC
	`, sessionID)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*DetectionRecord{}
	for rows.Next() {
		rec := &DetectionRecord{}
		err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.FrameSeq, &rec.Entity,
			&rec.Template, &rec.Confidence, &rec.X, &rec.Y,
			&rec.Width, &rec.Height, &rec.DetectedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetEntityCounts returns detection counts grouped by entity name
func (db *DB) GetEntityCounts(sessionID int64) (map[string]int, error) {
	rows, err := db.conn.Query(`
		SELECT entity, COUNT(*) as count
		FROM detections
		WHERE session_id = ?
		GROUP BY entity
	`, sessionID)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var entity string
		var count int
		if err := rows.Scan(&entity, &count); err != nil {
			return nil, err
		}
		counts[entity] = count
	}

	return counts, rows.Err()
}

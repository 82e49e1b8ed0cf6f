package database

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/rafabr7/prototiposiargk/internal/cv"
)

func TestDatabaseInitialization(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	err = db.RunMigrations()
	if err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	version, err := db.GetVersion()
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}

	if version != 3 {
		t.Errorf("Expected version 3, got %d", version)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	tempDir := t.TempDir()
	db, err := Open(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
}

func TestScanSessionLifecycle(t *testing.T) {
	tempDir := t.TempDir()
	db, err := Open(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	sessionID, err := db.StartScanSession("screenshot", "800x600@(0,0)", []string{"Zombie", "Skeleton"}, 0.8)
	if err != nil {
		t.Fatalf("Failed to start scan session: %v", err)
	}

	session, err := db.GetScanSession(sessionID)
	if err != nil {
		t.Fatalf("Failed to get scan session: %v", err)
	}
	if session.Status != "running" {
		t.Errorf("Expected status 'running', got '%s'", session.Status)
	}
	if session.Targets == nil || *session.Targets != "Zombie,Skeleton" {
		t.Errorf("Unexpected targets column: %v", session.Targets)
	}

	detections := []cv.Detection{
		{Name: "Zombie", Bounds: image.Rect(50, 60, 70, 80), Confidence: 0.97, Template: "front.png"},
		{Name: "Skeleton", Bounds: image.Rect(10, 20, 40, 60), Confidence: 0.85, Template: "idle.png"},
	}
	if err := db.RecordDetections(sessionID, 1, detections); err != nil {
		t.Fatalf("Failed to record detections: %v", err)
	}

	// Empty slice is a no-op, not an error
	if err := db.RecordDetections(sessionID, 2, nil); err != nil {
		t.Fatalf("Recording empty detections failed: %v", err)
	}

	if err := db.CompleteScanSession(sessionID, 2, 0, len(detections)); err != nil {
		t.Fatalf("Failed to complete scan session: %v", err)
	}

	session, err = db.GetScanSession(sessionID)
	if err != nil {
		t.Fatalf("Failed to get scan session: %v", err)
	}
	if session.Status != "completed" {
		t.Errorf("Expected status 'completed', got '%s'", session.Status)
	}
	if session.CompletedAt == nil {
		t.Error("Expected completed_at to be set")
	}
	if session.Frames != 2 {
		t.Errorf("Expected 2 frames, got %d", session.Frames)
	}
	if session.TotalDetections != 2 {
		t.Errorf("Expected 2 total detections, got %d", session.TotalDetections)
	}

	records, err := db.GetSessionDetections(sessionID)
	if err != nil {
		t.Fatalf("Failed to get session detections: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 detection records, got %d", len(records))
	}

	// Strongest first
	if records[0].Entity != "Zombie" || records[0].Confidence != 0.97 {
		t.Errorf("Unexpected first record: %+v", records[0])
	}
	if records[0].X != 50 || records[0].Y != 60 || records[0].Width != 20 || records[0].Height != 20 {
		t.Errorf("Unexpected bounding box: %+v", records[0])
	}

	counts, err := db.GetEntityCounts(sessionID)
	if err != nil {
		t.Fatalf("Failed to get entity counts: %v", err)
	}
	if counts["Zombie"] != 1 || counts["Skeleton"] != 1 {
		t.Errorf("Unexpected entity counts: %v", counts)
	}
}

func TestGetStats(t *testing.T) {
	tempDir := t.TempDir()
	db, err := Open(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	if _, err := db.StartScanSession("gdi", "100x100@(0,0)", nil, 0.9); err != nil {
		t.Fatalf("Failed to start scan session: %v", err)
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats["scan_sessions"] != 1 {
		t.Errorf("Expected 1 scan session, got %d", stats["scan_sessions"])
	}
	if stats["detections"] != 0 {
		t.Errorf("Expected 0 detections, got %d", stats["detections"])
	}
}

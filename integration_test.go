// +build integration

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mattsolo1/grove-docfs/pkg/service"
	"github.com/mattsolo1/grove-docfs/pkg/snapshot"
	"github.com/mattsolo1/grove-docfs/pkg/storage"
)

func TestIntegration(t *testing.T) {
	// Skip if not running integration tests
	if os.Getenv("RUN_INTEGRATION_TESTS") == "" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=1 to run.")
	}

	tmpDir := t.TempDir()
	var backup bytes.Buffer

	// Test 1: Create service and documents
	t.Run("CreateDocuments", func(t *testing.T) {
		svc, err := service.New(&service.Config{DataDir: filepath.Join(tmpDir, "first")})
		if err != nil {
			t.Fatalf("Failed to create service: %v", err)
		}
		defer svc.Close()

		if _, err := svc.CreateFolder("", "Projects"); err != nil {
			t.Fatalf("Failed to create folder: %v", err)
		}
		if _, err := svc.CreateFile("Projects", "readme.md"); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
		if _, err := svc.Write("Projects/readme.md", "# Readme\n\nHello from the integration test."); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		if _, err := svc.Backup(&backup, true); err != nil {
			t.Fatalf("Failed to back up: %v", err)
		}
	})

	// Test 2: Reopen from disk
	t.Run("Reopen", func(t *testing.T) {
		svc, err := service.New(&service.Config{DataDir: filepath.Join(tmpDir, "first")})
		if err != nil {
			t.Fatalf("Failed to reopen service: %v", err)
		}
		defer svc.Close()

		body, err := svc.Read("Projects/readme.md")
		if err != nil {
			t.Fatalf("Failed to read file: %v", err)
		}
		if body != "# Readme\n\nHello from the integration test.\n" {
			t.Errorf("Unexpected body %q", body)
		}
	})

	// Test 3: Restore into a second store
	t.Run("Restore", func(t *testing.T) {
		svc, err := service.New(&service.Config{DataDir: filepath.Join(tmpDir, "second")})
		if err != nil {
			t.Fatalf("Failed to create service: %v", err)
		}
		defer svc.Close()

		approve := snapshot.ConfirmFunc(func(context.Context, string, snapshot.Snapshot) (bool, error) {
			return true, nil
		})
		outcome := svc.Restore(context.Background(), bytes.NewReader(backup.Bytes()), approve)
		if outcome.Outcome != snapshot.OutcomeImported {
			t.Fatalf("Expected import, got %s: %v", outcome.Outcome, outcome.Problems)
		}

		hits, err := svc.Search("integration", "", 10)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(hits) != 1 || hits[0].Path != "Projects/readme.md" {
			t.Errorf("Unexpected hits %+v", hits)
		}
	})

	// Test 4: Quota on the SQLite backend
	t.Run("Quota", func(t *testing.T) {
		backend, err := storage.NewSQLiteBackend(filepath.Join(tmpDir, "quota", "docfs.db"), storage.WithQuota(64))
		if err != nil {
			t.Fatalf("Failed to open backend: %v", err)
		}
		defer backend.Close()

		if err := backend.Set("k", string(make([]byte, 128))); !storage.IsQuotaExceeded(err) {
			t.Errorf("Expected quota error, got %v", err)
		}
	})
}

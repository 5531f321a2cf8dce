package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hmlegal/lexintake/internal/caserec"
	"github.com/hmlegal/lexintake/internal/config"
	"github.com/hmlegal/lexintake/internal/db"
	"github.com/hmlegal/lexintake/internal/ops"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database, tmpDir
}

// runApp runs the CLI app with stdout captured.
func runApp(t *testing.T, database *sql.DB, cfg *config.Config, baseDir string, args ...string) (string, error) {
	t.Helper()

	app := newCLIApp(database, cfg, baseDir)

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := app.Run(append([]string{"lexintake"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), err
}

// decodeJSONOutput parses the JSON object in the captured output, skipping
// anything printed before it (such as the console email frame).
func decodeJSONOutput(t *testing.T, out string, v any) {
	t.Helper()
	idx := strings.Index(out, "{")
	if idx < 0 {
		t.Fatalf("no JSON object in output: %s", out)
	}
	if err := json.Unmarshal([]byte(out[idx:]), v); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
}

// TestCLIIntake tests the intake command.
func TestCLIIntake(t *testing.T) {
	database, tmpDir := setupTestDB(t)
	cfg := config.DefaultConfig()

	out, err := runApp(t, database, cfg, tmpDir, "intake",
		"--full-name=Maria Gonzalez",
		"--case-type=Asylum",
		"--arrest-history=Yes",
	)
	if err != nil {
		t.Fatalf("intake command failed: %v", err)
	}

	var output ops.IntakeOutput
	decodeJSONOutput(t, out, &output)

	if output.ID <= 0 {
		t.Errorf("expected positive ID, got %d", output.ID)
	}
	if !strings.Contains(output.Summary, "Risk flags: Possible criminal history") {
		t.Errorf("summary missing risk flag line:\n%s", output.Summary)
	}
}

// TestCLIIntake_NoFlags tests that a bare intake still creates a case.
func TestCLIIntake_NoFlags(t *testing.T) {
	database, tmpDir := setupTestDB(t)
	cfg := config.DefaultConfig()

	out, err := runApp(t, database, cfg, tmpDir, "intake")
	if err != nil {
		t.Fatalf("intake command failed: %v", err)
	}

	var output ops.IntakeOutput
	decodeJSONOutput(t, out, &output)
	if !strings.Contains(output.Summary, "Risk flags: none reported") {
		t.Errorf("summary = %q", output.Summary)
	}
}

// TestCLIShow tests the show command.
func TestCLIShow(t *testing.T) {
	database, tmpDir := setupTestDB(t)
	cfg := config.DefaultConfig()

	seeded, err := ops.Intake(database, ops.IntakeInput{FullName: "Li Wei"})
	if err != nil {
		t.Fatalf("failed to seed case: %v", err)
	}

	t.Run("show by id", func(t *testing.T) {
		out, err := runApp(t, database, cfg, tmpDir, "show", "1")
		if err != nil {
			t.Fatalf("show command failed: %v", err)
		}

		var output ops.FetchOutput
		decodeJSONOutput(t, out, &output)
		if output.ID != seeded.ID {
			t.Errorf("expected ID=%d, got %d", seeded.ID, output.ID)
		}
		if output.FullName != "Li Wei" {
			t.Errorf("FullName = %q", output.FullName)
		}
	})

	t.Run("show missing case", func(t *testing.T) {
		_, err := runApp(t, database, cfg, tmpDir, "show", "999")
		if err == nil {
			t.Error("expected error for missing case")
		}
	})

	t.Run("show invalid id", func(t *testing.T) {
		_, err := runApp(t, database, cfg, tmpDir, "show", "abc")
		if err == nil {
			t.Error("expected error for non-numeric id")
		}
	})

	t.Run("show without id", func(t *testing.T) {
		_, err := runApp(t, database, cfg, tmpDir, "show")
		if err == nil {
			t.Error("expected error for missing id argument")
		}
	})
}

// TestCLISubmit tests the submit command.
func TestCLISubmit(t *testing.T) {
	database, tmpDir := setupTestDB(t)
	cfg := config.DefaultConfig()

	seeded, err := ops.Intake(database, ops.IntakeInput{Email: "client@example.com"})
	if err != nil {
		t.Fatalf("failed to seed case: %v", err)
	}

	docDir := t.TempDir()
	paths := []string{
		filepath.Join(docDir, "passport.pdf"),
		filepath.Join(docDir, "i94.pdf"),
	}
	for _, p := range paths {
		if err := os.WriteFile(p, []byte("content"), 0600); err != nil {
			t.Fatalf("write test file: %v", err)
		}
	}

	out, err := runApp(t, database, cfg, tmpDir, "submit", "1", paths[0], paths[1])
	if err != nil {
		t.Fatalf("submit command failed: %v", err)
	}

	// The demo email frame prints before the JSON result.
	if !strings.Contains(out, "EMAIL SENT (DEMO ONLY)") {
		t.Error("expected console email frame in output")
	}

	var output ops.SubmitDocumentsOutput
	decodeJSONOutput(t, out, &output)
	if output.Stored != 2 {
		t.Errorf("Stored = %d, want 2", output.Stored)
	}
	if !output.Notified {
		t.Error("expected Notified = true")
	}

	fetched, err := ops.Fetch(database, ops.FetchInput{ID: seeded.ID})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if fetched.DocsReceived != caserec.DocsPartial {
		t.Errorf("DocsReceived = %q, want Partial", fetched.DocsReceived)
	}
}

// TestCLISubmit_MissingFile tests submit with a non-existent file.
func TestCLISubmit_MissingFile(t *testing.T) {
	database, tmpDir := setupTestDB(t)
	cfg := config.DefaultConfig()

	if _, err := ops.Intake(database, ops.IntakeInput{}); err != nil {
		t.Fatalf("failed to seed case: %v", err)
	}

	_, err := runApp(t, database, cfg, tmpDir, "submit", "1", "/does/not/exist.pdf")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

// TestCLIList tests the list command.
func TestCLIList(t *testing.T) {
	database, tmpDir := setupTestDB(t)
	cfg := config.DefaultConfig()

	for _, name := range []string{"First", "Second"} {
		if _, err := ops.Intake(database, ops.IntakeInput{FullName: name}); err != nil {
			t.Fatalf("failed to seed case: %v", err)
		}
	}

	out, err := runApp(t, database, cfg, tmpDir, "list")
	if err != nil {
		t.Fatalf("list command failed: %v", err)
	}

	var output ops.ListOutput
	decodeJSONOutput(t, out, &output)
	if len(output.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(output.Items))
	}
	if output.Items[0].FullName != "Second" {
		t.Errorf("expected newest case first, got %q", output.Items[0].FullName)
	}
}

// TestCLIUpdate tests the update command.
func TestCLIUpdate(t *testing.T) {
	database, tmpDir := setupTestDB(t)
	cfg := config.DefaultConfig()

	seeded, err := ops.Intake(database, ops.IntakeInput{})
	if err != nil {
		t.Fatalf("failed to seed case: %v", err)
	}

	t.Run("update workflow fields", func(t *testing.T) {
		_, err := runApp(t, database, cfg, tmpDir, "update", "1",
			"--status=In review",
			"--docs-received=Complete",
			"--notes=Reviewed everything",
		)
		if err != nil {
			t.Fatalf("update command failed: %v", err)
		}

		fetched, err := ops.Fetch(database, ops.FetchInput{ID: seeded.ID})
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if fetched.Status != "In review" {
			t.Errorf("Status = %q", fetched.Status)
		}
		if fetched.DocsReceived != caserec.DocsComplete {
			t.Errorf("DocsReceived = %q", fetched.DocsReceived)
		}
	})

	t.Run("invalid docs-received", func(t *testing.T) {
		_, err := runApp(t, database, cfg, tmpDir, "update", "1", "--docs-received=Done")
		if err == nil {
			t.Error("expected error for invalid docs-received value")
		}
	})

	t.Run("no fields", func(t *testing.T) {
		_, err := runApp(t, database, cfg, tmpDir, "update", "1")
		if err == nil {
			t.Error("expected error when no editable fields are given")
		}
	})
}

// TestCLIExport tests the export command.
func TestCLIExport(t *testing.T) {
	database, tmpDir := setupTestDB(t)
	cfg := config.DefaultConfig()

	if _, err := ops.Intake(database, ops.IntakeInput{FullName: "Export Me"}); err != nil {
		t.Fatalf("failed to seed case: %v", err)
	}

	out, err := runApp(t, database, cfg, tmpDir, "export")
	if err != nil {
		t.Fatalf("export command failed: %v", err)
	}

	var output ops.ExportOutput
	decodeJSONOutput(t, out, &output)
	if output.Count != 1 {
		t.Errorf("Count = %d, want 1", output.Count)
	}
	if _, err := os.Stat(output.Path); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}

// TestIsCLIMode tests the CLI/MCP mode decision.
func TestIsCLIMode(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	tests := []struct {
		args     []string
		expected bool
	}{
		{[]string{"lexintake"}, false},
		{[]string{"lexintake", "serve"}, true},
		{[]string{"lexintake", "intake"}, true},
		{[]string{"lexintake", "list"}, true},
		{[]string{"lexintake", "--help"}, true},
		{[]string{"lexintake", "-v"}, true},
		{[]string{"lexintake", "bogus"}, false},
	}
	for _, tt := range tests {
		os.Args = tt.args
		if got := isCLIMode(); got != tt.expected {
			t.Errorf("isCLIMode(%v) = %v, want %v", tt.args, got, tt.expected)
		}
	}
}

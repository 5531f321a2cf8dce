package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hmlegal/lexintake/internal/config"
	"github.com/hmlegal/lexintake/internal/db"
	"github.com/hmlegal/lexintake/internal/errors"
)

func TestExport_DefaultPath(t *testing.T) {
	database, baseDir := setupTest(t)
	cfg := config.DefaultConfig()

	for _, name := range []string{"Case One", "Case Two"} {
		if _, err := Intake(database, IntakeInput{FullName: name}); err != nil {
			t.Fatalf("Intake: %v", err)
		}
	}

	out, err := Export(context.Background(), database, cfg, ExportInput{
		ExportsDir: db.ExportsDir(baseDir),
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if out.Count != 2 {
		t.Errorf("Count = %d, want 2", out.Count)
	}
	if filepath.Dir(out.Path) != db.ExportsDir(baseDir) {
		t.Errorf("default path %q not in exports dir", out.Path)
	}
	if !strings.HasSuffix(out.Path, ".jsonl") {
		t.Errorf("path %q missing .jsonl extension", out.Path)
	}

	file, err := os.Open(out.Path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		t.Fatal("export file empty")
	}
	var header ExportHeader
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		t.Fatalf("header line: %v", err)
	}
	if !header.CaseExport || header.SchemaVersion != "1.0" {
		t.Errorf("header = %+v", header)
	}

	records := 0
	for scanner.Scan() {
		var rec ExportRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("record line: %v", err)
		}
		if rec.Case.ID == 0 {
			t.Errorf("record missing case id: %+v", rec)
		}
		records++
	}
	if records != 2 {
		t.Errorf("records = %d, want 2", records)
	}
}

func TestExport_IncludesDocuments(t *testing.T) {
	database, baseDir := setupTest(t)

	intakeOut, err := Intake(database, IntakeInput{})
	if err != nil {
		t.Fatalf("Intake: %v", err)
	}
	if _, err := SubmitDocuments(context.Background(), database, config.DefaultConfig(), &recorderSender{}, SubmitDocumentsInput{
		CaseID:    intakeOut.ID,
		UploadDir: db.UploadsDir(baseDir),
		Files:     []FilePayload{{Filename: "a.pdf", Content: strings.NewReader("a")}},
	}); err != nil {
		t.Fatalf("SubmitDocuments: %v", err)
	}

	out, err := Export(context.Background(), database, config.DefaultConfig(), ExportInput{
		ExportsDir: db.ExportsDir(baseDir),
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	data, err := os.ReadFile(out.Path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	var rec ExportRecord
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(rec.Documents) != 1 {
		t.Errorf("documents = %d, want 1", len(rec.Documents))
	}
}

func TestExport_RejectsBadPaths(t *testing.T) {
	database, baseDir := setupTest(t)
	cfg := config.DefaultConfig()
	exportsDir := db.ExportsDir(baseDir)

	tests := []struct {
		name string
		path string
	}{
		{"traversal", filepath.Join(exportsDir, "..", "escape.jsonl")},
		{"wrong extension", filepath.Join(exportsDir, "cases.txt")},
		{"outside allowed dirs", filepath.Join(t.TempDir(), "cases.jsonl")},
		{"subdirectory", filepath.Join(exportsDir, "sub", "cases.jsonl")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Export(context.Background(), database, cfg, ExportInput{
				Path:       tt.path,
				ExportsDir: exportsDir,
			})
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("error = %v, want INVALID_REQUEST", err)
			}
		})
	}
}

func TestExport_AllowedPathsConfig(t *testing.T) {
	database, baseDir := setupTest(t)
	extraDir := t.TempDir()
	cfg := &config.Config{AllowedPaths: []string{extraDir}}

	if _, err := Intake(database, IntakeInput{}); err != nil {
		t.Fatalf("Intake: %v", err)
	}

	out, err := Export(context.Background(), database, cfg, ExportInput{
		Path:       filepath.Join(extraDir, "cases.jsonl"),
		ExportsDir: db.ExportsDir(baseDir),
	})
	if err != nil {
		t.Fatalf("Export to allowed path failed: %v", err)
	}
	if _, err := os.Stat(out.Path); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}

// TestExport_SingleConnPool exercises export with the pool limited to one
// connection, where holding the case cursor open across the document queries
// would block forever.
func TestExport_SingleConnPool(t *testing.T) {
	database, baseDir := setupTest(t)
	cfg := config.DefaultConfig()
	cfg.DBMaxOpenConns = 1
	cfg.DBMaxIdleConns = 1
	db.ConfigurePool(database, cfg)

	intakeOut, err := Intake(database, IntakeInput{FullName: "Pool Test"})
	if err != nil {
		t.Fatalf("Intake: %v", err)
	}
	if _, err := SubmitDocuments(context.Background(), database, cfg, &recorderSender{}, SubmitDocumentsInput{
		CaseID:    intakeOut.ID,
		UploadDir: db.UploadsDir(baseDir),
		Files:     []FilePayload{{Filename: "a.pdf", Content: strings.NewReader("a")}},
	}); err != nil {
		t.Fatalf("SubmitDocuments: %v", err)
	}

	done := make(chan struct{})
	var out *ExportOutput
	var exportErr error
	go func() {
		out, exportErr = Export(context.Background(), database, cfg, ExportInput{
			ExportsDir: db.ExportsDir(baseDir),
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Export blocked with a single-connection pool")
	}
	if exportErr != nil {
		t.Fatalf("Export: %v", exportErr)
	}
	if out.Count != 1 {
		t.Errorf("Count = %d, want 1", out.Count)
	}
}

func TestExport_Cancelled(t *testing.T) {
	database, baseDir := setupTest(t)

	if _, err := Intake(database, IntakeInput{}); err != nil {
		t.Fatalf("Intake: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Export(ctx, database, config.DefaultConfig(), ExportInput{
		ExportsDir: db.ExportsDir(baseDir),
	})
	if !errors.Is(err, errors.ErrCancelled) {
		t.Errorf("error = %v, want CANCELLED", err)
	}
}

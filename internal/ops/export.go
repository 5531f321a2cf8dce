package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hmlegal/lexintake/internal/caserec"
	"github.com/hmlegal/lexintake/internal/config"
	"github.com/hmlegal/lexintake/internal/db"
	"github.com/hmlegal/lexintake/internal/errors"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	// Path is optional; default: <exportsDir>/cases-<timestamp>.jsonl
	Path string

	// ExportsDir is the managed exports directory, usually
	// db.ExportsDir(baseDir). Required.
	ExportsDir string
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader is the header line in a JSONL export file.
type ExportHeader struct {
	CaseExport    bool   `json:"_lexintake_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
}

// ExportRecord is one case with its document references, as written to the
// export file.
type ExportRecord struct {
	Case      caserec.CaseRecord `json:"case"`
	Documents []caserec.Document `json:"documents,omitempty"`
}

// Export writes all cases and their document references to a JSONL file,
// newest case first, via a temp file and atomic rename.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	if input.ExportsDir == "" {
		return nil, errors.NewInvalidRequest("exports directory is required")
	}

	now := time.Now()
	exportedAt := now.Unix()

	exportPath := input.Path
	if exportPath == "" {
		exportPath = filepath.Join(input.ExportsDir,
			fmt.Sprintf("cases-%s.jsonl", now.Format("2006-01-02T150405")))
	}

	// Validate ALL paths (user-provided and default) the same way.
	if err := ValidateExportPath(exportPath, input.ExportsDir, cfg); err != nil {
		return nil, err
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	// Write to temp file first, then atomic rename to preserve any
	// existing file on failure.
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	header := ExportHeader{
		CaseExport:    true,
		SchemaVersion: "1.0",
		ExportedAt:    exportedAt,
	}
	if err := writeJSONLine(file, header); err != nil {
		return nil, err
	}

	cases, err := collectCasesForExport(ctx, database)
	if err != nil {
		return nil, err
	}

	count := 0
	for _, c := range cases {
		select {
		case <-ctx.Done():
			return nil, errors.NewCancelled("export")
		default:
		}

		docs, err := db.ListDocumentsByCase(database, c.ID)
		if err != nil {
			return nil, err
		}

		if err := writeJSONLine(file, ExportRecord{Case: *c, Documents: docs}); err != nil {
			return nil, err
		}
		count++
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Close before atomic replace (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink destination.
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	// On Windows, os.Rename fails if the destination exists; fail safely
	// rather than doing a non-atomic delete+rename.
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Count:      count,
		ExportedAt: exportedAt,
	}, nil
}

// collectCasesForExport drains the case cursor before any per-case queries
// run. The open Rows pins a pool connection, and a nested query on the same
// *sql.DB deadlocks when DBMaxOpenConns is 1.
func collectCasesForExport(ctx context.Context, database *sql.DB) ([]*caserec.CaseRecord, error) {
	rows, err := db.StreamCasesForExport(ctx, database)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("export")
		}
		return nil, err
	}
	defer rows.Close()

	var cases []*caserec.CaseRecord
	for rows.Next() {
		c, err := db.ScanCaseFromRows(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		cases = append(cases, c)
	}

	if err := rows.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("export")
		}
		return nil, errors.NewInternal(err)
	}

	return cases, nil
}

// writeJSONLine marshals v and writes it followed by a newline.
func writeJSONLine(file *os.File, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.NewInternal(err)
	}
	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if _, err := file.Write([]byte("\n")); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

package ops

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hmlegal/lexintake/internal/caserec"
	"github.com/hmlegal/lexintake/internal/config"
	"github.com/hmlegal/lexintake/internal/db"
	"github.com/hmlegal/lexintake/internal/errors"
	"github.com/hmlegal/lexintake/internal/notify"
)

// FilePayload is one incoming file in a document submission.
type FilePayload struct {
	// Filename is the client-supplied name. Payloads with an empty
	// filename are skipped, not rejected.
	Filename string
	Content  io.Reader
}

// SubmitDocumentsInput contains parameters for the SubmitDocuments operation.
type SubmitDocumentsInput struct {
	CaseID    int64
	UploadDir string // directory for stored files, usually db.UploadsDir(baseDir)
	Files     []FilePayload
}

// SubmitDocumentsOutput contains the result of the SubmitDocuments operation.
type SubmitDocumentsOutput struct {
	CaseID      int64   `json:"case_id"`
	Stored      int     `json:"stored"`
	DocumentIDs []int64 `json:"document_ids,omitempty"`
	Notified    bool    `json:"notified"`
}

// SubmitDocuments stores a batch of uploaded files for a case, records a
// document reference per stored file, applies the lifecycle transition, and
// notifies the client.
//
// An empty batch (no files, or all filenames empty) leaves the case record
// untouched and sends nothing. File writes, the workflow update, and the
// notification are not transactional with each other; a crash in between
// can leave them inconsistent, which is accepted at this scale. Two
// simultaneous submissions for the same case can likewise race on the
// workflow read-modify-write (see TestSubmitDocuments_KnownRace).
func SubmitDocuments(ctx context.Context, database *sql.DB, cfg *config.Config, sender notify.Sender, input SubmitDocumentsInput) (*SubmitDocumentsOutput, error) {
	if input.UploadDir == "" {
		return nil, errors.NewInvalidRequest("upload directory is required")
	}

	// Not-Found short-circuits before any file is written.
	c, err := db.GetCaseByID(database, input.CaseID)
	if err != nil {
		return nil, err
	}

	out := &SubmitDocumentsOutput{CaseID: c.ID}

	for _, f := range input.Files {
		if f.Filename == "" {
			continue
		}

		// The original name is reduced to a safe base component before it
		// becomes part of an on-disk path.
		original := SanitizeForFilename(filepath.Base(f.Filename))
		uploadedAt := time.Now().UTC()
		storedName := caserec.StoredFilename(c.ID, uploadedAt, original)

		if err := writeUpload(filepath.Join(input.UploadDir, storedName), f.Content); err != nil {
			return nil, err
		}

		doc := &caserec.Document{
			CaseID:     c.ID,
			Filename:   storedName,
			UploadedAt: uploadedAt.Unix(),
		}
		docID, err := db.InsertDocument(database, doc)
		if err != nil {
			return nil, err
		}

		out.DocumentIDs = append(out.DocumentIDs, docID)
		out.Stored++
	}

	if !caserec.ApplyDocumentsReceived(c, out.Stored) {
		return out, nil
	}

	if err := db.UpdateWorkflow(database, c); err != nil {
		return nil, err
	}

	// Best-effort: a failed notification never rolls back the submission.
	if c.Email != "" && sender != nil {
		msg := notify.BuildDocumentsReceived(c, cfg)
		if err := sender.Send(ctx, msg); err != nil {
			log.Printf("notification %s to %s failed: %v", msg.ID, msg.To, err)
		} else {
			out.Notified = true
		}
	}

	return out, nil
}

// writeUpload writes an uploaded file to path. O_EXCL: stored names are
// expected to be unique, so an existing file means a same-second collision
// and the write fails loudly instead of overwriting.
func writeUpload(path string, content io.Reader) error {
	file, err := openFileNoFollow(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create upload file: %w", err))
	}
	defer file.Close()

	if content != nil {
		if _, err := io.Copy(file, content); err != nil {
			os.Remove(path)
			return errors.NewInternal(fmt.Errorf("failed to write upload file: %w", err))
		}
	}

	if err := file.Sync(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to sync upload file: %w", err))
	}

	return nil
}

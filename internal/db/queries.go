package db

import (
	"context"
	"database/sql"

	"github.com/hmlegal/lexintake/internal/caserec"
	"github.com/hmlegal/lexintake/internal/errors"
)

const caseColumns = `
	id, created_at, full_name, email, phone, country_citizenship,
	current_city_country, dob, case_type, in_us, current_status,
	prior_applications, arrest_history, deported, overstayed,
	background_notes, urgency, communication, referral_source,
	summary, docs_requested, docs_received, status, next_action, notes`

// InsertCase stores a new case record and returns its assigned id.
func InsertCase(db *sql.DB, c *caserec.CaseRecord) (int64, error) {
	query := `
		INSERT INTO cases (
			created_at, full_name, email, phone, country_citizenship,
			current_city_country, dob, case_type, in_us, current_status,
			prior_applications, arrest_history, deported, overstayed,
			background_notes, urgency, communication, referral_source,
			summary, docs_requested, docs_received, status, next_action, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.Exec(query,
		c.CreatedAt, c.FullName, c.Email, c.Phone, c.CountryCitizenship,
		c.CurrentCityCountry, c.DOB, c.CaseType, c.InUS, c.CurrentStatus,
		c.PriorApplications, c.ArrestHistory, c.Deported, c.Overstayed,
		c.BackgroundNotes, c.Urgency, c.Communication, c.ReferralSource,
		c.Summary, boolToInt(c.DocsRequested), c.DocsReceived, c.Status, c.NextAction, c.Notes,
	)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	c.ID = id
	return id, nil
}

// GetCaseByID retrieves a case record by its integer id.
func GetCaseByID(db *sql.DB, id int64) (*caserec.CaseRecord, error) {
	row := db.QueryRow(`SELECT`+caseColumns+` FROM cases WHERE id = ?`, id)
	c, err := scanCase(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return c, nil
}

// UpdateWorkflow persists the workflow fields written by the lifecycle
// transition. Intake fields and the summary are never touched here.
func UpdateWorkflow(db *sql.DB, c *caserec.CaseRecord) error {
	query := `
		UPDATE cases
		SET docs_received = ?, status = ?, next_action = ?
		WHERE id = ?
	`

	result, err := db.Exec(query, c.DocsReceived, c.Status, c.NextAction, c.ID)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(c.ID)
	}

	return nil
}

// UpdateStaffFields persists staff-editable fields: notes, pipeline status,
// next action, and docs-received.
func UpdateStaffFields(db *sql.DB, c *caserec.CaseRecord) error {
	query := `
		UPDATE cases
		SET notes = ?, status = ?, next_action = ?, docs_received = ?
		WHERE id = ?
	`

	result, err := db.Exec(query, c.Notes, c.Status, c.NextAction, c.DocsReceived, c.ID)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(c.ID)
	}

	return nil
}

// ListCases returns dashboard summaries ordered newest first, plus the
// total row count for pagination.
func ListCases(db *sql.DB, limit, offset int) ([]caserec.CaseSummary, int, error) {
	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM cases`).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `
		SELECT id, created_at, full_name, email, case_type, urgency,
			docs_received, status, next_action
		FROM cases
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.Query(query, limit, offset)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var summaries []caserec.CaseSummary
	for rows.Next() {
		var s caserec.CaseSummary
		if err := rows.Scan(
			&s.ID, &s.CreatedAt, &s.FullName, &s.Email, &s.CaseType,
			&s.Urgency, &s.DocsReceived, &s.Status, &s.NextAction,
		); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return summaries, total, nil
}

// InsertDocument stores a new document reference and returns its id.
func InsertDocument(db *sql.DB, d *caserec.Document) (int64, error) {
	result, err := db.Exec(
		`INSERT INTO documents (case_id, filename, uploaded_at) VALUES (?, ?, ?)`,
		d.CaseID, d.Filename, d.UploadedAt,
	)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	d.ID = id
	return id, nil
}

// ListDocumentsByCase returns a case's document references ordered by
// upload time, then id, for deterministic output.
func ListDocumentsByCase(db *sql.DB, caseID int64) ([]caserec.Document, error) {
	rows, err := db.Query(
		`SELECT id, case_id, filename, uploaded_at
		FROM documents
		WHERE case_id = ?
		ORDER BY uploaded_at, id`,
		caseID,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var docs []caserec.Document
	for rows.Next() {
		var d caserec.Document
		if err := rows.Scan(&d.ID, &d.CaseID, &d.Filename, &d.UploadedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return docs, nil
}

// StreamCasesForExport returns a rows cursor over all cases, newest first.
// Callers must Close it.
func StreamCasesForExport(ctx context.Context, db *sql.DB) (*sql.Rows, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT`+caseColumns+` FROM cases ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return rows, nil
}

// ScanCaseFromRows scans the current row of a StreamCasesForExport cursor.
func ScanCaseFromRows(rows *sql.Rows) (*caserec.CaseRecord, error) {
	return scanCase(rows)
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCase scans a full case row into a CaseRecord.
func scanCase(row rowScanner) (*caserec.CaseRecord, error) {
	var (
		c             caserec.CaseRecord
		docsRequested int
	)

	err := row.Scan(
		&c.ID, &c.CreatedAt, &c.FullName, &c.Email, &c.Phone, &c.CountryCitizenship,
		&c.CurrentCityCountry, &c.DOB, &c.CaseType, &c.InUS, &c.CurrentStatus,
		&c.PriorApplications, &c.ArrestHistory, &c.Deported, &c.Overstayed,
		&c.BackgroundNotes, &c.Urgency, &c.Communication, &c.ReferralSource,
		&c.Summary, &docsRequested, &c.DocsReceived, &c.Status, &c.NextAction, &c.Notes,
	)
	if err != nil {
		return nil, err
	}

	c.DocsRequested = docsRequested != 0
	return &c, nil
}

// boolToInt converts a bool to its SQLite integer representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

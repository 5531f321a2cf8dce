package ops

import (
	"database/sql"

	"github.com/hmlegal/lexintake/internal/caserec"
	"github.com/hmlegal/lexintake/internal/db"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID int64

	// IncludeDocuments controls whether the case's document references
	// are loaded alongside the record.
	IncludeDocuments bool
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	caserec.CaseRecord // embedded (copy, not pointer)

	Documents []caserec.Document `json:"documents,omitempty"`
}

// Fetch retrieves a case record by id, optionally with its documents
// ordered by upload time.
func Fetch(database *sql.DB, input FetchInput) (*FetchOutput, error) {
	c, err := db.GetCaseByID(database, input.ID)
	if err != nil {
		return nil, err
	}

	output := &FetchOutput{
		CaseRecord: *c, // copy, not pointer
	}

	if input.IncludeDocuments {
		docs, err := db.ListDocumentsByCase(database, c.ID)
		if err != nil {
			return nil, err
		}
		output.Documents = docs
	}

	return output, nil
}

package ops

import (
	"database/sql"
	"fmt"

	"github.com/hmlegal/lexintake/internal/caserec"
	"github.com/hmlegal/lexintake/internal/db"
	"github.com/hmlegal/lexintake/internal/errors"
)

// UpdateCaseInput contains parameters for the staff UpdateCase operation.
// Nil means "don't change". Intake fields and the summary are not editable
// here or anywhere else after creation.
type UpdateCaseInput struct {
	ID int64

	Notes        *string
	Status       *string
	NextAction   *string
	DocsReceived *string
}

// UpdateCaseOutput contains the result of the UpdateCase operation.
type UpdateCaseOutput struct {
	ID int64 `json:"id"`
}

// UpdateCase modifies the staff-editable fields of a case. This is the
// only path that can ever set DocsReceived to "Complete"; the lifecycle
// transition never derives it.
func UpdateCase(database *sql.DB, input UpdateCaseInput) (*UpdateCaseOutput, error) {
	if input.Notes == nil && input.Status == nil && input.NextAction == nil && input.DocsReceived == nil {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}

	// Status and NextAction are deliberately open: staff use labels the
	// system has never seen. DocsReceived is the one closed set.
	if input.DocsReceived != nil {
		switch *input.DocsReceived {
		case caserec.DocsNone, caserec.DocsPartial, caserec.DocsComplete:
		default:
			return nil, errors.NewInvalidRequest(fmt.Sprintf(
				"docs_received must be one of: %s, %s, %s",
				caserec.DocsNone, caserec.DocsPartial, caserec.DocsComplete))
		}
	}

	c, err := db.GetCaseByID(database, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Notes != nil {
		c.Notes = *input.Notes
	}
	if input.Status != nil {
		c.Status = *input.Status
	}
	if input.NextAction != nil {
		c.NextAction = *input.NextAction
	}
	if input.DocsReceived != nil {
		c.DocsReceived = *input.DocsReceived
	}

	if err := db.UpdateStaffFields(database, c); err != nil {
		return nil, err
	}

	return &UpdateCaseOutput{ID: c.ID}, nil
}

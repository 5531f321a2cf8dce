package caserec

import (
	"fmt"
	"time"
)

// storedNameTimeLayout is the timestamp component embedded in stored
// filenames. Second precision: two uploads of the same original filename
// for the same case within the same second can collide, which is a known
// accepted risk.
const storedNameTimeLayout = "20060102150405"

// StoredFilename derives the collision-resistant on-disk name for an
// uploaded file: {case_id}_{timestamp}_{original}.
func StoredFilename(caseID int64, uploadedAt time.Time, original string) string {
	return fmt.Sprintf("%d_%s_%s", caseID, uploadedAt.UTC().Format(storedNameTimeLayout), original)
}

// ApplyDocumentsReceived applies the lifecycle transition for a document
// submission that stored `count` files. Returns true if the record changed.
//
// Any non-empty batch always sets the same Partial state regardless of how
// many batches came before; nothing here ever derives "Complete" from
// document counts. Staff mark completion by hand.
func ApplyDocumentsReceived(c *CaseRecord, count int) bool {
	if count <= 0 {
		return false
	}
	c.DocsReceived = DocsPartial
	c.Status = StatusWaitingDocs
	c.NextAction = NextActionReviewDocs
	return true
}

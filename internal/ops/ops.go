// Package ops implements the case operations behind every surface (web,
// CLI, MCP): intake, document submission, staff updates, read projections,
// and export. Handlers translate transport concerns; ops own the semantics.
package ops

// Pagination limits
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// cleanLimit applies default and maximum bounds to a requested page size.
func cleanLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

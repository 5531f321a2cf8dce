package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hmlegal/lexintake/internal/config"
	"github.com/hmlegal/lexintake/internal/db"
	"github.com/hmlegal/lexintake/internal/errors"
	"github.com/hmlegal/lexintake/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db      *sql.DB
	cfg     *config.Config
	baseDir string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(database *sql.DB, cfg *config.Config, baseDir string) *Handlers {
	return &Handlers{db: database, cfg: cfg, baseDir: baseDir}
}

// Request types for each tool

// IntakeRequest represents the arguments for case_intake.
type IntakeRequest struct {
	FullName           string `json:"full_name,omitempty"`
	Email              string `json:"email,omitempty"`
	Phone              string `json:"phone,omitempty"`
	CountryCitizenship string `json:"country_citizenship,omitempty"`
	CurrentCityCountry string `json:"current_city_country,omitempty"`
	DOB                string `json:"dob,omitempty"`
	CaseType           string `json:"case_type,omitempty"`
	InUS               string `json:"in_us,omitempty"`
	CurrentStatus      string `json:"current_status,omitempty"`
	PriorApplications  string `json:"prior_applications,omitempty"`
	ArrestHistory      string `json:"arrest_history,omitempty"`
	Deported           string `json:"deported,omitempty"`
	Overstayed         string `json:"overstayed,omitempty"`
	BackgroundNotes    string `json:"background_notes,omitempty"`
	Urgency            string `json:"urgency,omitempty"`
	Communication      string `json:"communication,omitempty"`
	ReferralSource     string `json:"referral_source,omitempty"`
}

// FetchRequest represents the arguments for case_fetch.
type FetchRequest struct {
	ID               int64 `json:"id"`
	IncludeDocuments bool  `json:"include_documents,omitempty"`
}

// ListRequest represents the arguments for case_list.
type ListRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// UpdateRequest represents the arguments for case_update.
type UpdateRequest struct {
	ID           int64   `json:"id"`
	Notes        *string `json:"notes,omitempty"`
	Status       *string `json:"status,omitempty"`
	NextAction   *string `json:"next_action,omitempty"`
	DocsReceived *string `json:"docs_received,omitempty"`
}

// ExportRequest represents the arguments for case_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// Handler implementations

// HandleIntake handles the case_intake tool call.
func (h *Handlers) HandleIntake(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IntakeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Intake(h.db, ops.IntakeInput{
		FullName:           input.FullName,
		Email:              input.Email,
		Phone:              input.Phone,
		CountryCitizenship: input.CountryCitizenship,
		CurrentCityCountry: input.CurrentCityCountry,
		DOB:                input.DOB,
		CaseType:           input.CaseType,
		InUS:               input.InUS,
		CurrentStatus:      input.CurrentStatus,
		PriorApplications:  input.PriorApplications,
		ArrestHistory:      input.ArrestHistory,
		Deported:           input.Deported,
		Overstayed:         input.Overstayed,
		BackgroundNotes:    input.BackgroundNotes,
		Urgency:            input.Urgency,
		Communication:      input.Communication,
		ReferralSource:     input.ReferralSource,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the case_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID <= 0 {
		return errorResult(errors.NewInvalidRequest("id must be a positive integer")), nil
	}

	result, err := ops.Fetch(h.db, ops.FetchInput{
		ID:               input.ID,
		IncludeDocuments: input.IncludeDocuments,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the case_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(h.db, ops.ListInput{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleUpdate handles the case_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID <= 0 {
		return errorResult(errors.NewInvalidRequest("id must be a positive integer")), nil
	}

	result, err := ops.UpdateCase(h.db, ops.UpdateCaseInput{
		ID:           input.ID,
		Notes:        input.Notes,
		Status:       input.Status,
		NextAction:   input.NextAction,
		DocsReceived: input.DocsReceived,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the case_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
		Path:       input.Path,
		ExportsDir: db.ExportsDir(h.baseDir),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if cErr, ok := err.(*errors.CaseError); ok {
		errorObj := map[string]any{
			"code":    cErr.Code,
			"message": cErr.Message,
			"status":  cErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if cErr.Code != errors.ErrInternal && cErr.Details != nil {
			errorObj["details"] = cErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

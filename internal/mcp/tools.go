package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hmlegal/lexintake/internal/caserec"
)

// Tool definitions. Descriptions are what an MCP client sees when it lists
// tools, so they describe behavior, not internals.

var intakeToolDef = mcp.NewTool("case_intake",
	mcp.WithDescription("Create a case record from intake questionnaire answers. Every field is optional free text; nothing is validated or rejected. Returns the new case id and the generated summary."),
	mcp.WithString("full_name", mcp.Description("Client's full name")),
	mcp.WithString("email", mcp.Description("Client's email address, used for document confirmations")),
	mcp.WithString("phone", mcp.Description("Client's phone number")),
	mcp.WithString("country_citizenship", mcp.Description("Country of citizenship")),
	mcp.WithString("current_city_country", mcp.Description("Current city and country of residence")),
	mcp.WithString("dob", mcp.Description("Date of birth, stored as opaque text")),
	mcp.WithString("case_type", mcp.Description("Type of immigration matter (asylum, family petition, naturalization, ...)")),
	mcp.WithString("in_us", mcp.Description("Whether the client is currently in the U.S. (\"Yes\"/\"No\")")),
	mcp.WithString("current_status", mcp.Description("Current immigration status")),
	mcp.WithString("prior_applications", mcp.Description("Prior applications filed")),
	mcp.WithString("arrest_history", mcp.Description("Any arrest history (\"Yes\"/\"No\")")),
	mcp.WithString("deported", mcp.Description("Ever deported or removed (\"Yes\"/\"No\")")),
	mcp.WithString("overstayed", mcp.Description("Ever overstayed a visa (\"Yes\"/\"No\")")),
	mcp.WithString("background_notes", mcp.Description("Anything else the office should know")),
	mcp.WithString("urgency", mcp.Description("How urgent the matter is")),
	mcp.WithString("communication", mcp.Description("Preferred communication channel")),
	mcp.WithString("referral_source", mcp.Description("How the client heard about the office")),
)

var fetchToolDef = mcp.NewTool("case_fetch",
	mcp.WithDescription("Retrieve a single case record by id, optionally with its document references."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Case id")),
	mcp.WithBoolean("include_documents", mcp.Description("Include the case's document references (default false)")),
)

var listToolDef = mcp.NewTool("case_list",
	mcp.WithDescription("List case summaries for the dashboard, newest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum results (default 50, max 200)")),
	mcp.WithNumber("offset", mcp.Description("Number of results to skip (default 0)")),
)

var updateToolDef = mcp.NewTool("case_update",
	mcp.WithDescription("Staff edit of a case's workflow fields and notes. Intake answers and the summary are immutable. docs_received must be one of "+caserec.DocsNone+", "+caserec.DocsPartial+", "+caserec.DocsComplete+"; status and next_action are free text."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Case id")),
	mcp.WithString("notes", mcp.Description("Staff notes (replaces existing notes)")),
	mcp.WithString("status", mcp.Description("New status label")),
	mcp.WithString("next_action", mcp.Description("New next-action label")),
	mcp.WithString("docs_received", mcp.Description("Document state: None, Partial or Complete")),
)

var exportToolDef = mcp.NewTool("case_export",
	mcp.WithDescription("Export all cases with their document references to a JSONL file."),
	mcp.WithString("path", mcp.Description("Destination path ending in .jsonl (default: a timestamped file in the exports directory)")),
)

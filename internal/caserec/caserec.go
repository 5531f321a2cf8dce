package caserec

// Known workflow literals. DocsReceived/Status/NextAction are open strings:
// staff can and do set other values by hand, so these are the defaults and
// the values the lifecycle transition writes, not a closed vocabulary.
const (
	DocsNone     = "None"
	DocsPartial  = "Partial"
	DocsComplete = "Complete"

	StatusNewLead     = "New Lead"
	StatusWaitingDocs = "Waiting on additional documents"

	NextActionReviewIntake = "Review intake"
	NextActionReviewDocs   = "Review documents when complete"
)

// TriState is the decoded form of the free-text Yes/No flags.
// Raw flag text is stored verbatim; decoding happens only where a flag
// gates behavior.
type TriState int

const (
	Unspecified TriState = iota
	Yes
	No
)

// ParseTriState maps raw flag text to a TriState. The match is exact and
// case-sensitive: "yes", "YES", "true" etc. all decode to Unspecified,
// matching the upstream intake forms which only ever submit "Yes"/"No".
func ParseTriState(s string) TriState {
	switch s {
	case "Yes":
		return Yes
	case "No":
		return No
	default:
		return Unspecified
	}
}

// CaseRecord is the canonical state of one prospective client's case.
type CaseRecord struct {
	// ID is an integer assigned by the store on creation
	ID int64

	// CreatedAt is the Unix timestamp when the record was created
	CreatedAt int64

	// Intake fields, all optional free text, stored exactly as submitted
	FullName           string
	Email              string
	Phone              string
	CountryCitizenship string
	CurrentCityCountry string
	DOB                string // opaque text, not validated as a date
	CaseType           string
	InUS               string // tri-state flag text ("Yes"/"No"/"")
	CurrentStatus      string
	PriorApplications  string
	ArrestHistory      string // tri-state flag text
	Deported           string // tri-state flag text
	Overstayed         string // tri-state flag text
	BackgroundNotes    string
	Urgency            string
	Communication      string
	ReferralSource     string

	// Summary is derived from the intake fields by GenerateSummary,
	// set exactly once at creation
	Summary string

	// Workflow fields. DocsReceived, Status and NextAction are mutated
	// only by the lifecycle transition on document submission or by an
	// explicit staff update, never by intake.
	DocsRequested bool
	DocsReceived  string
	Status        string
	NextAction    string

	// Notes is free text mutated only by staff
	Notes string
}

// Document is a reference to one uploaded file, owned by exactly one case.
// Immutable after creation.
type Document struct {
	// ID is an integer assigned by the store on creation
	ID int64

	// CaseID is the owning case record
	CaseID int64

	// Filename is the derived on-disk name (see StoredFilename)
	Filename string

	// UploadedAt is the Unix timestamp when the file was stored
	UploadedAt int64
}

// CaseSummary is a case's dashboard row without the full intake text.
// Used for browse operations to reduce data transfer.
type CaseSummary struct {
	ID           int64  `json:"id"`
	CreatedAt    int64  `json:"created_at"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	CaseType     string `json:"case_type"`
	Urgency      string `json:"urgency"`
	DocsReceived string `json:"docs_received"`
	Status       string `json:"status"`
	NextAction   string `json:"next_action"`
}

// ToSummary converts a CaseRecord to its dashboard projection.
func (c *CaseRecord) ToSummary() CaseSummary {
	return CaseSummary{
		ID:           c.ID,
		CreatedAt:    c.CreatedAt,
		FullName:     c.FullName,
		Email:        c.Email,
		CaseType:     c.CaseType,
		Urgency:      c.Urgency,
		DocsReceived: c.DocsReceived,
		Status:       c.Status,
		NextAction:   c.NextAction,
	}
}

package ops

import (
	"database/sql"
	"time"

	"github.com/hmlegal/lexintake/internal/caserec"
	"github.com/hmlegal/lexintake/internal/db"
)

// IntakeInput contains the questionnaire fields for the Intake operation.
// Every field is optional free text; nothing is validated or rejected.
// Absent and empty are the same thing.
type IntakeInput struct {
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

// IntakeOutput contains the result of the Intake operation.
type IntakeOutput struct {
	ID      int64  `json:"id"`
	Summary string `json:"summary"`
}

// Intake creates a case record from an intake submission. The summary is
// generated once here, immediately after the intake fields are set, and is
// never regenerated afterwards.
func Intake(database *sql.DB, input IntakeInput) (*IntakeOutput, error) {
	now := time.Now().Unix()

	c := &caserec.CaseRecord{
		CreatedAt:          now,
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

		DocsRequested: true,
		DocsReceived:  caserec.DocsNone,
		Status:        caserec.StatusNewLead,
		NextAction:    caserec.NextActionReviewIntake,
	}

	c.Summary = caserec.GenerateSummary(c)

	id, err := db.InsertCase(database, c)
	if err != nil {
		return nil, err
	}

	return &IntakeOutput{
		ID:      id,
		Summary: c.Summary,
	}, nil
}

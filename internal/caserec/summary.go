package caserec

import (
	"fmt"
	"strings"
)

// backgroundNotesLimit is the character cap applied to the client-notes
// summary line. Truncation counts runes, not bytes, so multi-byte text is
// never split mid-character.
const backgroundNotesLimit = 200

// GenerateSummary derives the triage summary text from a case's intake
// fields. It is pure and deterministic: the same record always yields
// byte-identical output, so the summary can be regenerated or audited at
// any time.
//
// Empty fields render as empty strings rather than being elided; the only
// lines whose presence depends on input are the prior-applications and
// client-notes lines. The risk-flag scan matches the literal "Yes" only.
func GenerateSummary(c *CaseRecord) string {
	lines := []string{
		fmt.Sprintf("Client: %s (%s, %s)", c.FullName, c.Email, c.Phone),
		fmt.Sprintf("Citizenship: %s", c.CountryCitizenship),
		fmt.Sprintf("Location: %s", c.CurrentCityCountry),
		fmt.Sprintf("Case type: %s", c.CaseType),
		fmt.Sprintf("In U.S.: %s, Current status: %s", c.InUS, c.CurrentStatus),
	}

	// Fixed scan order: arrest history, deportation, overstay.
	var riskFlags []string
	if ParseTriState(c.ArrestHistory) == Yes {
		riskFlags = append(riskFlags, "Possible criminal history")
	}
	if ParseTriState(c.Deported) == Yes {
		riskFlags = append(riskFlags, "Prior deportation/removal")
	}
	if ParseTriState(c.Overstayed) == Yes {
		riskFlags = append(riskFlags, "Possible overstay issues")
	}

	if len(riskFlags) > 0 {
		lines = append(lines, "Risk flags: "+strings.Join(riskFlags, ", "))
	} else {
		lines = append(lines, "Risk flags: none reported")
	}

	if c.PriorApplications != "" {
		lines = append(lines, "Previous applications: "+c.PriorApplications)
	}

	// The "..." suffix is unconditional, so a note of exactly 200 chars is
	// indistinguishable from a longer one. Intake forms accept that.
	if c.BackgroundNotes != "" {
		lines = append(lines, "Client notes: "+truncateRunes(c.BackgroundNotes, backgroundNotesLimit)+"...")
	}

	lines = append(lines, "Urgency: "+c.Urgency)
	lines = append(lines, "Preferred communication: "+c.Communication)

	return strings.Join(lines, "\n")
}

// truncateRunes returns the first limit runes of s.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

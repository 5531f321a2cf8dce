package web

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hmlegal/lexintake/internal/config"
	"github.com/hmlegal/lexintake/internal/errors"
	"github.com/hmlegal/lexintake/internal/notify"
	"github.com/hmlegal/lexintake/internal/ops"
)

// maxUploadBytes caps one multipart submission held in memory plus temp files.
const maxUploadBytes = 32 << 20

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db        *sql.DB
	cfg       *config.Config
	renderer  *Renderer
	sender    notify.Sender
	uploadDir string
}

// HandleIntakeForm handles GET /intake — the client questionnaire.
func (h *Handlers) HandleIntakeForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "intake", IntakePageData{
		PageData: PageData{
			Title:   "New Client Intake",
			Version: h.renderer.version,
			Nav:     "intake",
		},
		OfficeName: h.cfg.OfficeName,
	})
}

// HandleIntakeSubmit handles POST /intake — create a case from the
// questionnaire and continue to the document upload step.
func (h *Handlers) HandleIntakeSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	input := ops.IntakeInput{
		FullName:           r.FormValue("full_name"),
		Email:              r.FormValue("email"),
		Phone:              r.FormValue("phone"),
		CountryCitizenship: r.FormValue("country_citizenship"),
		CurrentCityCountry: r.FormValue("current_city_country"),
		DOB:                r.FormValue("dob"),
		CaseType:           r.FormValue("case_type"),
		InUS:               r.FormValue("in_us"),
		CurrentStatus:      r.FormValue("current_status"),
		PriorApplications:  r.FormValue("prior_applications"),
		ArrestHistory:      r.FormValue("arrest_history"),
		Deported:           r.FormValue("deported"),
		Overstayed:         r.FormValue("overstayed"),
		BackgroundNotes:    r.FormValue("background_notes"),
		Urgency:            r.FormValue("urgency"),
		Communication:      r.FormValue("communication"),
		ReferralSource:     r.FormValue("referral_source"),
	}

	result, err := ops.Intake(h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/upload/%d", result.ID), http.StatusFound)
}

// HandleUploadForm handles GET /upload/{id} — the document upload page.
func (h *Handlers) HandleUploadForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseCaseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	c, err := ops.Fetch(h.db, ops.FetchInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "upload", UploadPageData{
		PageData: PageData{
			Title:   "Upload Documents",
			Version: h.renderer.version,
			Nav:     "intake",
		},
		Case: c,
	})
}

// HandleUploadSubmit handles POST /upload/{id} — store the submitted files,
// apply the workflow transition, and send the confirmation email.
func (h *Handlers) HandleUploadSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := parseCaseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid multipart form data"))
		return
	}

	var files []ops.FilePayload
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["documents"] {
			f, err := fh.Open()
			if err != nil {
				closeFiles(files)
				h.renderer.renderError(w, r, errors.NewInternal(err))
				return
			}
			files = append(files, ops.FilePayload{Filename: fh.Filename, Content: f})
		}
	}

	_, err = ops.SubmitDocuments(r.Context(), h.db, h.cfg, h.sender, ops.SubmitDocumentsInput{
		CaseID:    id,
		UploadDir: h.uploadDir,
		Files:     files,
	})
	closeFiles(files)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// HandleDashboard handles GET /dashboard — the staff case list, newest first.
func (h *Handlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	input := ops.ListInput{
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	}

	result, err := ops.List(h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "dashboard", DashboardPageData{
		PageData: PageData{
			Title:   "Dashboard",
			Version: h.renderer.version,
			Nav:     "dashboard",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
	})
}

// HandleDetail handles GET /cases/{id} — view a single case with its
// documents and staff controls.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseCaseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	c, err := ops.Fetch(h.db, ops.FetchInput{ID: id, IncludeDocuments: true})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   detailTitle(c),
			Version: h.renderer.version,
			Nav:     "dashboard",
		},
		Case:      c,
		NotesHTML: renderMarkdown(c.Notes),
		Updated:   r.URL.Query().Get("updated") == "1",
	})
}

// HandleUpdate handles POST /cases/{id} — staff edits to the workflow fields
// and notes. Intake answers and the summary are read-only for good.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseCaseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	input := ops.UpdateCaseInput{ID: id}
	if r.Form.Has("notes") {
		input.Notes = ptrString(r.FormValue("notes"))
	}
	if r.Form.Has("status") {
		input.Status = ptrString(r.FormValue("status"))
	}
	if r.Form.Has("next_action") {
		input.NextAction = ptrString(r.FormValue("next_action"))
	}
	if r.Form.Has("docs_received") {
		input.DocsReceived = ptrString(r.FormValue("docs_received"))
	}

	result, err := ops.UpdateCase(h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: redirect via HX-Redirect header
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", fmt.Sprintf("/cases/%d?updated=1", id))
		w.WriteHeader(http.StatusOK)
		return
	}

	// JSON request
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{
			"id":      result.ID,
			"updated": true,
		})
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/cases/%d?updated=1", id), http.StatusFound)
}

// closeFiles releases multipart part handles once the batch is consumed.
func closeFiles(files []ops.FilePayload) {
	for _, p := range files {
		if c, ok := p.Content.(io.Closer); ok {
			c.Close()
		}
	}
}

// parseCaseID extracts and parses the {id} path segment.
func parseCaseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, errors.NewInvalidRequest("case ID is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest("case ID must be a positive integer")
	}
	return id, nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// ptrString returns a pointer to s. Unlike the intake fields, staff edits
// distinguish "clear this field" from "leave it alone", so empty strings
// still yield a pointer.
func ptrString(s string) *string {
	return &s
}

// detailTitle returns the client name if present, or a case number.
func detailTitle(c *ops.FetchOutput) string {
	if c.FullName != "" {
		return c.FullName
	}
	return fmt.Sprintf("Case #%d", c.ID)
}

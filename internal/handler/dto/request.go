package dto

// UpdateProgressRequest represents the request body for PUT /tasks/{id}/progress.
type UpdateProgressRequest struct {
	Progress *float64 `json:"progress"`
	Notes    string   `json:"update_notes,omitempty"`
}

// UpdateDatesRequest represents the request body for PUT /tasks/{id}/dates.
type UpdateDatesRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Notes     string `json:"update_notes,omitempty"`
}

// UpdateRiskRequest represents the request body for PUT /tasks/{id}/risk.
type UpdateRiskRequest struct {
	RiskFlagged *bool  `json:"risk_flagged"`
	RiskNotes   string `json:"risk_notes,omitempty"`
	Notes       string `json:"update_notes,omitempty"`
}

// UpdateNotesRequest represents the request body for PUT /tasks/{id}/notes.
type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

// Package types defines the shared data records for PDP document generation.
package types

// Company holds the contracting company details printed on a PDP document.
// All fields are optional; absent fields render as empty placeholders.
type Company struct {
	Name                string `json:"name,omitempty"`
	Address             string `json:"address,omitempty"`
	Phone               string `json:"phone,omitempty"`
	Email               string `json:"email,omitempty"`
	LegalRepresentative string `json:"legal_representative,omitempty"`
	HSEResponsible      string `json:"hse_responsible,omitempty"`
}

// Certification is a single qualification held by a worker.
// Dates are free-text date-like strings; no format is enforced at this level.
type Certification struct {
	Type       string `json:"type,omitempty"` // defaults to "Other" when absent
	Name       string `json:"name,omitempty"`
	IssueDate  string `json:"issue_date,omitempty"`
	ExpiryDate string `json:"expiry_date,omitempty"`
}

// Worker is a technician assigned to a PDP. Identity is the case-normalized
// (FirstName, LastName) pair; a worker without both names is invalid.
type Worker struct {
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Phone          string          `json:"phone,omitempty"`
	Email          string          `json:"email,omitempty" validate:"omitempty,email"`
	Company        string          `json:"company,omitempty"` // inherited from the company record if absent
	Certifications []Certification `json:"certifications,omitempty"`
}

// GenerateInput is the structured form of the generation payload: a company
// record plus an ordered list of workers and the two document-mode flags.
type GenerateInput struct {
	Company         *Company `json:"company,omitempty"`
	Workers         []Worker `json:"workers,omitempty"`
	RiskAnalysis    bool     `json:"risk_analysis,omitempty"`
	OperationalMode bool     `json:"operational_mode,omitempty"`
}

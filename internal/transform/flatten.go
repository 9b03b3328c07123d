// Package transform maps structured company/worker input into the flat
// placeholder map consumed by the PDP document templates.
package transform

import (
	"fmt"
	"strings"

	"github.com/marco/pdp-generator/internal/types"
)

// MaxTechnicians is the number of technician slots emitted into the flat map.
// Workers beyond this count are not emitted; the service-level validation
// rejects such inputs before they reach the transformer.
const MaxTechnicians = 10

// Localized yes/no texts for the boolean document flags.
const (
	localizedYes = "Sì"
	localizedNo  = "No"
)

// Flatten converts a structured generation input into a flat map of template
// placeholder names to values. Every technician slot from 1 to MaxTechnicians
// is present; slots without a worker hold empty strings.
func Flatten(in *types.GenerateInput) map[string]any {
	data := make(map[string]any)

	var company types.Company
	if in != nil && in.Company != nil {
		company = *in.Company
	}
	data["company_name"] = company.Name
	data["company_address"] = company.Address
	data["company_phone"] = company.Phone
	data["company_email"] = company.Email
	data["company_legal_representative"] = company.LegalRepresentative
	data["company_hse_responsible"] = company.HSEResponsible

	var workers []types.Worker
	if in != nil {
		workers = in.Workers
	}

	for i := 0; i < MaxTechnicians; i++ {
		slot := fmt.Sprintf("technician%d", i+1)
		if i < len(workers) {
			w := workers[i]
			workerCompany := w.Company
			if workerCompany == "" {
				workerCompany = company.Name
			}
			data[slot+"_name"] = w.LastName
			data[slot+"_surname"] = w.FirstName
			data[slot+"_phone"] = w.Phone
			data[slot+"_email"] = w.Email
			data[slot+"_company"] = workerCompany
			data[slot+"_certifications"] = formatCertifications(w.Certifications)
		} else {
			data[slot+"_name"] = ""
			data[slot+"_surname"] = ""
			data[slot+"_phone"] = ""
			data[slot+"_email"] = ""
			data[slot+"_company"] = ""
			data[slot+"_certifications"] = ""
		}
	}

	riskAnalysis := in != nil && in.RiskAnalysis
	operationalMode := in != nil && in.OperationalMode
	data["risk_analysis"] = riskAnalysis
	data["risk_analysis_text"] = localizedBool(riskAnalysis)
	data["operational_mode"] = operationalMode
	data["operational_mode_text"] = localizedBool(operationalMode)

	return data
}

// formatCertifications renders a worker's certifications as a single
// comma-joined string of "{name or type} ({issue} - {expiry})" entries.
func formatCertifications(certs []types.Certification) string {
	if len(certs) == 0 {
		return ""
	}

	parts := make([]string, 0, len(certs))
	for _, c := range certs {
		label := strings.TrimSpace(c.Name)
		if label == "" {
			label = strings.TrimSpace(c.Type)
		}
		if label == "" {
			label = "Other"
		}
		parts = append(parts, fmt.Sprintf("%s (%s - %s)", label, c.IssueDate, c.ExpiryDate))
	}
	return strings.Join(parts, ", ")
}

func localizedBool(v bool) string {
	if v {
		return localizedYes
	}
	return localizedNo
}

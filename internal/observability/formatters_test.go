package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marco/pdp-generator/internal/pipeline"
	"github.com/marco/pdp-generator/internal/registry"
	"github.com/marco/pdp-generator/internal/types"
)

func TestPrintGenerationResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	path := "/out/monte_verde/PDP_1.docx"
	p.PrintGenerationResult(&pipeline.Result{
		PDPID:               "PDP-1",
		Windfarm:            "Monte Verde",
		TemplateUsed:        "default.docx",
		Size:                1234,
		FilePath:            &path,
		RAGContextUsed:      true,
		MergedIntoAnnual:    true,
		AnnualPDFPath:       "/annual/rossi.pdf",
		TechniciansUpserted: 2,
	})
	output := buf.String()

	assert.Contains(t, output, "GENERATED DOCUMENT")
	assert.Contains(t, output, "PDP-1")
	assert.Contains(t, output, "Monte Verde")
	assert.Contains(t, output, "default.docx")
	assert.Contains(t, output, "2 stored")
}

func TestPrintGenerationResult_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintGenerationResult(nil)

	assert.Empty(t, buf.String())
}

func TestPrintGenerationResult_MergeWarning(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintGenerationResult(&pipeline.Result{
		PDPID:        "PDP-2",
		Windfarm:     "Monte Verde",
		MergeWarning: &pipeline.MergeWarning{Stage: "convert", Message: "binary missing"},
	})

	assert.Contains(t, buf.String(), "merge convert")
}

func TestPrintTechnicians(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintTechnicians([]registry.Technician{
		{FirstName: "Mario", LastName: "Rossi", Company: "Aeolus Srl",
			Certifications: []types.Certification{{Type: "GWO"}}},
		{FirstName: "Anna", LastName: "Bianchi"},
	})
	output := buf.String()

	assert.Contains(t, output, "TECHNICIAN REGISTRY")
	assert.Contains(t, output, "Mario Rossi")
	assert.Contains(t, output, "Aeolus Srl")
	assert.Contains(t, output, "Total: 2")
}

func TestPrintTechnicians_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintTechnicians(nil)

	assert.Contains(t, buf.String(), "No technicians recorded")
}

func TestPrintExpiring(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintExpiring([]registry.ExpiringCertification{
		{Technician: "Mario Rossi", Certification: types.Certification{Name: "Working at Heights"}, DaysLeft: 12},
	})
	output := buf.String()

	assert.Contains(t, output, "EXPIRING CERTIFICATIONS")
	assert.Contains(t, output, "Working at Heights")
	assert.Contains(t, output, "12 days left")
}

func TestPrintValidationErrors(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintValidationErrors([]string{"company name is required", "at least one worker is required"})
	output := buf.String()

	assert.Contains(t, output, "VALIDATION ERRORS")
	assert.Contains(t, output, "1. company name is required")

	buf.Reset()
	p.PrintValidationErrors(nil)
	assert.Empty(t, buf.String())
}

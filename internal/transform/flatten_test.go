package transform

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marco/pdp-generator/internal/types"
)

func TestFlatten_PopulatedAndPaddedSlots(t *testing.T) {
	in := &types.GenerateInput{
		Company: &types.Company{Name: "Acme", LegalRepresentative: "J. Doe"},
		Workers: []types.Worker{
			{FirstName: "A", LastName: "B", Phone: "123", Email: "a@acme.test"},
			{FirstName: "C", LastName: "D"},
		},
	}

	data := Flatten(in)

	assert.Equal(t, "B", data["technician1_name"])
	assert.Equal(t, "A", data["technician1_surname"])
	assert.Equal(t, "123", data["technician1_phone"])
	assert.Equal(t, "a@acme.test", data["technician1_email"])
	assert.Equal(t, "D", data["technician2_name"])
	assert.Equal(t, "C", data["technician2_surname"])

	// Every remaining slot exists and is empty.
	for i := 3; i <= MaxTechnicians; i++ {
		slot := fmt.Sprintf("technician%d", i)
		assert.Equal(t, "", data[slot+"_name"], slot)
		assert.Equal(t, "", data[slot+"_surname"], slot)
		assert.Equal(t, "", data[slot+"_phone"], slot)
		assert.Equal(t, "", data[slot+"_email"], slot)
		assert.Equal(t, "", data[slot+"_certifications"], slot)
	}
}

func TestFlatten_CompanyFields(t *testing.T) {
	in := &types.GenerateInput{
		Company: &types.Company{
			Name:                "Acme",
			Address:             "1 Wind Way",
			Phone:               "555",
			Email:               "hq@acme.test",
			LegalRepresentative: "J. Doe",
			HSEResponsible:      "H. Safety",
		},
	}

	data := Flatten(in)

	assert.Equal(t, "Acme", data["company_name"])
	assert.Equal(t, "1 Wind Way", data["company_address"])
	assert.Equal(t, "555", data["company_phone"])
	assert.Equal(t, "hq@acme.test", data["company_email"])
	assert.Equal(t, "J. Doe", data["company_legal_representative"])
	assert.Equal(t, "H. Safety", data["company_hse_responsible"])
}

func TestFlatten_WorkerCompanyInherited(t *testing.T) {
	in := &types.GenerateInput{
		Company: &types.Company{Name: "Acme"},
		Workers: []types.Worker{
			{FirstName: "A", LastName: "B"},
			{FirstName: "C", LastName: "D", Company: "SubCo"},
		},
	}

	data := Flatten(in)

	assert.Equal(t, "Acme", data["technician1_company"])
	assert.Equal(t, "SubCo", data["technician2_company"])
}

func TestFlatten_Certifications(t *testing.T) {
	in := &types.GenerateInput{
		Workers: []types.Worker{
			{
				FirstName: "A",
				LastName:  "B",
				Certifications: []types.Certification{
					{Name: "GWO BST", IssueDate: "2024-01-01", ExpiryDate: "2026-01-01"},
					{Type: "First Aid", IssueDate: "2024-02-01", ExpiryDate: "2025-02-01"},
					{},
				},
			},
		},
	}

	data := Flatten(in)

	assert.Equal(t,
		"GWO BST (2024-01-01 - 2026-01-01), First Aid (2024-02-01 - 2025-02-01), Other ( - )",
		data["technician1_certifications"])
}

func TestFlatten_BooleanFlagsLocalized(t *testing.T) {
	data := Flatten(&types.GenerateInput{RiskAnalysis: true, OperationalMode: false})

	assert.Equal(t, true, data["risk_analysis"])
	assert.Equal(t, "Sì", data["risk_analysis_text"])
	assert.Equal(t, false, data["operational_mode"])
	assert.Equal(t, "No", data["operational_mode_text"])
}

func TestFlatten_MoreThanMaxWorkersTruncatesWithoutError(t *testing.T) {
	in := &types.GenerateInput{}
	for i := 0; i < 13; i++ {
		in.Workers = append(in.Workers, types.Worker{
			FirstName: fmt.Sprintf("F%d", i+1),
			LastName:  fmt.Sprintf("L%d", i+1),
		})
	}

	data := Flatten(in)

	assert.Equal(t, "L10", data["technician10_name"])
	// Slot 11 is never emitted; excess workers are dropped here and rejected
	// earlier by input validation.
	_, ok := data["technician11_name"]
	assert.False(t, ok)
}

func TestFlatten_NilInput(t *testing.T) {
	data := Flatten(nil)

	require.NotNil(t, data)
	assert.Equal(t, "", data["company_name"])
	assert.Equal(t, "", data["technician1_name"])
	assert.Equal(t, "No", data["risk_analysis_text"])
}

package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marco/pdp-generator/internal/transform"
	"github.com/marco/pdp-generator/internal/types"
)

func TestValidateFlatData_AcceptsTransformerOutput(t *testing.T) {
	flat := transform.Clean(transform.Flatten(&types.GenerateInput{
		Company: &types.Company{Name: "Aeolus Srl", LegalRepresentative: "M. Bianchi"},
		Workers: []types.Worker{
			{FirstName: "Mario", LastName: "Rossi", Phone: "555"},
		},
		RiskAnalysis: true,
	}))

	assert.NoError(t, ValidateFlatData(flat))
}

func TestValidateFlatData_RejectsNonScalarLeaves(t *testing.T) {
	err := ValidateFlatData(map[string]any{
		"company_name":     "Aeolus Srl",
		"technician1_name": []string{"not", "a", "string"},
	})
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.NotEmpty(t, validationErr.Errors)
	assert.Contains(t, err.Error(), "technician1_name")
}

func TestValidateFlatData_RejectsBadTechnicianSlot(t *testing.T) {
	err := ValidateFlatData(map[string]any{
		"technician3_phone": 12345,
	})
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestValidateJSONString_SchemaLoadError(t *testing.T) {
	err := ValidateJSONString(`{"type": "unknown-type"}`, `{}`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
}

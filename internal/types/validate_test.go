package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGenerateInput_Valid(t *testing.T) {
	in := &GenerateInput{
		Company: &Company{Name: "Acme", LegalRepresentative: "J. Doe"},
		Workers: []Worker{{FirstName: "A", LastName: "B", Phone: "123"}},
	}

	errs := ValidateGenerateInput(in)
	assert.Empty(t, errs)
}

func TestValidateGenerateInput_NilInput(t *testing.T) {
	errs := ValidateGenerateInput(nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "missing")
}

func TestValidateGenerateInput_MissingCompanyFields(t *testing.T) {
	in := &GenerateInput{
		Workers: []Worker{{FirstName: "A", LastName: "B"}},
	}

	errs := ValidateGenerateInput(in)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "company name")
	assert.Contains(t, errs[1], "legal representative")
}

func TestValidateGenerateInput_NoWorkers(t *testing.T) {
	in := &GenerateInput{
		Company: &Company{Name: "Acme", LegalRepresentative: "J. Doe"},
	}

	errs := ValidateGenerateInput(in)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "at least one worker")
}

func TestValidateGenerateInput_WorkerWithoutName(t *testing.T) {
	in := &GenerateInput{
		Company: &Company{Name: "Acme", LegalRepresentative: "J. Doe"},
		Workers: []Worker{{FirstName: "A"}, {LastName: "B"}},
	}

	errs := ValidateGenerateInput(in)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "worker 1")
	assert.Contains(t, errs[1], "worker 2")
}

func TestValidateGenerateInput_InvalidEmail(t *testing.T) {
	in := &GenerateInput{
		Company: &Company{Name: "Acme", LegalRepresentative: "J. Doe"},
		Workers: []Worker{{FirstName: "A", LastName: "B", Email: "not-an-email"}},
	}

	errs := ValidateGenerateInput(in)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "email")
}

func TestValidateGenerateInput_TooManyWorkers(t *testing.T) {
	in := &GenerateInput{
		Company: &Company{Name: "Acme", LegalRepresentative: "J. Doe"},
	}
	for i := 0; i < MaxWorkers+1; i++ {
		in.Workers = append(in.Workers, Worker{
			FirstName: fmt.Sprintf("First%d", i),
			LastName:  fmt.Sprintf("Last%d", i),
		})
	}

	errs := ValidateGenerateInput(in)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "too many workers")
	assert.Contains(t, errs[0], "11")
}

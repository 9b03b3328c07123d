package types

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxWorkers is the number of technician slots a PDP template carries.
// Inputs with more workers are rejected rather than silently truncated.
const MaxWorkers = 10

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateGenerateInput checks a structured generation payload and returns a
// list of human-readable problems. An empty slice means the input is valid;
// callers decide whether to halt.
func ValidateGenerateInput(in *GenerateInput) []string {
	var errs []string

	if in == nil {
		return []string{"input is missing"}
	}

	if in.Company == nil || strings.TrimSpace(in.Company.Name) == "" {
		errs = append(errs, "company name is required")
	}
	if in.Company == nil || strings.TrimSpace(in.Company.LegalRepresentative) == "" {
		errs = append(errs, "company legal representative is required")
	}

	if len(in.Workers) == 0 {
		errs = append(errs, "at least one worker is required")
	}
	if len(in.Workers) > MaxWorkers {
		errs = append(errs, fmt.Sprintf("too many workers: %d supplied, the template holds %d", len(in.Workers), MaxWorkers))
	}

	for i, w := range in.Workers {
		if strings.TrimSpace(w.FirstName) == "" || strings.TrimSpace(w.LastName) == "" {
			errs = append(errs, fmt.Sprintf("worker %d: first_name and last_name are required", i+1))
			continue
		}
		if err := validate.Struct(w); err != nil {
			if fieldErrs, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range fieldErrs {
					errs = append(errs, fmt.Sprintf("worker %d (%s %s): invalid %s", i+1, w.FirstName, w.LastName, strings.ToLower(fe.Field())))
				}
			} else {
				errs = append(errs, fmt.Sprintf("worker %d (%s %s): %v", i+1, w.FirstName, w.LastName, err))
			}
		}
	}

	return errs
}

// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/marco/pdp-generator/internal/pipeline"
	"github.com/marco/pdp-generator/internal/registry"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintGenerationResult outputs a human-readable summary of a pipeline run.
func (p *Printer) PrintGenerationResult(result *pipeline.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("PDP:       %s\n", result.PDPID))
	sb.WriteString(fmt.Sprintf("Windfarm:  %s\n", result.Windfarm))
	sb.WriteString(fmt.Sprintf("Template:  %s\n", result.TemplateUsed))
	sb.WriteString(fmt.Sprintf("Size:      %d bytes\n", result.Size))
	if result.FilePath != nil {
		sb.WriteString(fmt.Sprintf("Saved to:  %s\n", *result.FilePath))
	}
	if result.RAGContextUsed {
		sb.WriteString("Enriched with retrieved context\n")
	}
	if result.MergedIntoAnnual {
		sb.WriteString(fmt.Sprintf("Annual:    %s\n", result.AnnualPDFPath))
	}
	if result.MergeWarning != nil {
		sb.WriteString(fmt.Sprintf("Warning:   merge %s: %s\n", result.MergeWarning.Stage, result.MergeWarning.Message))
	}
	if result.TechniciansUpserted > 0 || result.TechnicianFailures > 0 {
		sb.WriteString(fmt.Sprintf("Registry:  %d stored, %d failed\n", result.TechniciansUpserted, result.TechnicianFailures))
	}

	p.printBox("GENERATED DOCUMENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTechnicians outputs a registry listing.
func (p *Printer) PrintTechnicians(technicians []registry.Technician) {
	if len(technicians) == 0 {
		p.printBox("TECHNICIAN REGISTRY", "No technicians recorded")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total: %d\n\n", len(technicians)))

	count := min(len(technicians), maxItemsToShow)
	for i := 0; i < count; i++ {
		t := technicians[i]
		sb.WriteString(fmt.Sprintf("%s %s", t.FirstName, t.LastName))
		if t.Company != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", t.Company))
		}
		sb.WriteString("\n")
		if len(t.Certifications) > 0 {
			sb.WriteString(fmt.Sprintf("    %d certifications\n", len(t.Certifications)))
		}
	}
	if len(technicians) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(technicians)-maxItemsToShow))
	}

	p.printBox("TECHNICIAN REGISTRY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintExpiring outputs certifications expiring inside the queried window.
func (p *Printer) PrintExpiring(expiring []registry.ExpiringCertification) {
	if len(expiring) == 0 {
		p.printBox("EXPIRING CERTIFICATIONS", "Nothing expires in the window")
		return
	}

	var sb strings.Builder
	for i, e := range expiring {
		label := e.Certification.Name
		if label == "" {
			label = e.Certification.Type
		}
		sb.WriteString(fmt.Sprintf("%s: %s", e.Technician, label))
		sb.WriteString(fmt.Sprintf(" (%d days left)\n", e.DaysLeft))
		if i+1 == maxItemsToShow && len(expiring) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(expiring)-maxItemsToShow))
			break
		}
	}

	p.printBox("EXPIRING CERTIFICATIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintValidationErrors outputs the problems that rejected an input.
func (p *Printer) PrintValidationErrors(errs []string) {
	if len(errs) == 0 {
		return
	}

	var sb strings.Builder
	for i, e := range errs {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, e))
	}

	p.printBox("VALIDATION ERRORS", strings.TrimSuffix(sb.String(), "\n"))
}

// Package pipeline provides the high-level orchestration for PDP document
// generation: transform, render, convert, archive, and registry updates.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marco/pdp-generator/internal/archive"
	"github.com/marco/pdp-generator/internal/convert"
	"github.com/marco/pdp-generator/internal/enrich"
	"github.com/marco/pdp-generator/internal/rag"
	"github.com/marco/pdp-generator/internal/registry"
	"github.com/marco/pdp-generator/internal/rendering"
	"github.com/marco/pdp-generator/internal/schemas"
	"github.com/marco/pdp-generator/internal/templates"
	"github.com/marco/pdp-generator/internal/transform"
	"github.com/marco/pdp-generator/internal/types"
)

// ProgressEvent represents a progress update during generation.
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when generation progress occurs.
type ProgressCallback func(event ProgressEvent)

// Progress step names.
const (
	StepTransform = "transform"
	StepRAG       = "rag"
	StepTemplate  = "template"
	StepRender    = "render"
	StepSave      = "save"
	StepConvert   = "convert"
	StepMerge     = "merge"
	StepRegistry  = "registry"
)

// Options holds the inputs for one generation run.
type Options struct {
	PDPID        string
	Windfarm     string
	Data         map[string]any
	TemplateName string
	// Surname keys the annual archive; the windfarm name is used when empty.
	Surname      string
	MergeWithPDP bool
	SaveToFile   bool

	RAGQuery       string
	EnhanceWithRAG bool

	Verbose    bool
	OnProgress ProgressCallback
}

// MergeWarning describes a failed annual-archive merge. The merge branch is
// non-fatal: the generated document is still returned alongside the warning.
type MergeWarning struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Result is the outcome of a generation run.
type Result struct {
	Success             bool          `json:"success"`
	PDPID               string        `json:"pdp_id"`
	Windfarm            string        `json:"windfarm"`
	TemplateUsed        string        `json:"template_used"`
	FilePath            *string       `json:"file_path,omitempty"`
	Size                int           `json:"size"`
	GeneratedAt         time.Time     `json:"generated_at"`
	WasTransformed      bool          `json:"was_transformed"`
	RAGContextUsed      bool          `json:"rag_context_used"`
	RAGWarning          string        `json:"rag_warning,omitempty"`
	MergedIntoAnnual    bool          `json:"merged_into_annual"`
	AnnualPDFPath       string        `json:"annual_pdf_path,omitempty"`
	MergeWarning        *MergeWarning `json:"merge_warning,omitempty"`
	TechniciansUpserted int           `json:"technicians_upserted"`
	TechnicianFailures  int           `json:"technician_failures"`

	Document []byte `json:"-"`
}

// ValidationError rejects a run before any document work happens.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid generation input: " + strings.Join(e.Errors, "; ")
}

// Deps are the collaborating services. Templates is required; the rest are
// optional and disable the corresponding branch when nil.
type Deps struct {
	Templates *templates.Store
	Registry  registry.Store
	RAG       *rag.Client
	Enricher  enrich.Client
	Converter *convert.Converter
	Merger    *archive.Merger
	OutputDir string
	Now       func() time.Time
}

// Generator runs the document pipeline.
type Generator struct {
	deps Deps
}

// NewGenerator creates a Generator from its collaborators.
func NewGenerator(deps Deps) (*Generator, error) {
	if deps.Templates == nil {
		return nil, fmt.Errorf("template store is required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Generator{deps: deps}, nil
}

func emitProgress(opts *Options, step, message string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{Step: step, Message: message, Content: content})
	}
}

// Run executes the full pipeline for one document.
func (g *Generator) Run(ctx context.Context, opts Options) (*Result, error) {
	var errs []string
	if strings.TrimSpace(opts.PDPID) == "" {
		errs = append(errs, "pdp_id is required")
	}
	if strings.TrimSpace(opts.Windfarm) == "" {
		errs = append(errs, "windfarm_name is required")
	}
	if len(opts.Data) == 0 {
		errs = append(errs, "data is required")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	result := &Result{
		PDPID:       opts.PDPID,
		Windfarm:    opts.Windfarm,
		GeneratedAt: g.deps.Now().UTC(),
	}

	// Structured input is transformed to the flat placeholder map; flat
	// input passes through untouched apart from cleaning.
	flat, structured, err := g.prepareData(opts.Data)
	if err != nil {
		return nil, err
	}
	result.WasTransformed = structured != nil
	emitProgress(&opts, StepTransform, fmt.Sprintf("Prepared %d placeholder fields", len(flat)), nil)

	// The template load and the RAG branch are independent. A failed
	// retrieval aborts only the enrichment branch: the document still
	// generates, with a warning on the result.
	var (
		templateBytes []byte
		templateName  string
		ragContext    string
		ragWarning    string
		mu            sync.Mutex
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		data, name, err := g.deps.Templates.LoadTemplate(g.resolveTemplateName(&opts))
		if err != nil {
			return err
		}
		mu.Lock()
		templateBytes, templateName = data, name
		mu.Unlock()
		return nil
	})
	if opts.EnhanceWithRAG && strings.TrimSpace(opts.RAGQuery) != "" && g.deps.RAG != nil {
		eg.Go(func() error {
			text, err := g.fetchContext(egCtx, opts.RAGQuery)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				ragWarning = "context retrieval failed: " + err.Error()
				return nil
			}
			ragContext = text
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if ragWarning != "" {
		result.RAGWarning = ragWarning
		emitProgress(&opts, StepRAG, ragWarning, nil)
	}
	result.TemplateUsed = filepath.Base(templateName)
	emitProgress(&opts, StepTemplate, "Loaded template "+result.TemplateUsed, nil)

	if ragContext != "" {
		flat["rag_context"] = ragContext
		result.RAGContextUsed = true
		emitProgress(&opts, StepRAG, fmt.Sprintf("Injected %d characters of retrieved context", len(ragContext)), nil)
	}

	if err := schemas.ValidateFlatData(flat); err != nil {
		return nil, err
	}

	document, err := rendering.Render(templateBytes, flat)
	if err != nil {
		return nil, err
	}
	result.Document = document
	result.Size = len(document)
	emitProgress(&opts, StepRender, fmt.Sprintf("Rendered document (%d bytes)", len(document)), nil)

	docPath, err := g.persistDocument(&opts, result, document)
	if err != nil {
		return nil, err
	}

	// The merge branch is deliberately non-fatal: a conversion or append
	// failure downgrades to a warning on an otherwise successful run.
	if opts.MergeWithPDP {
		g.mergeIntoAnnual(ctx, &opts, result, docPath, document)
	}

	// Per-record registry failures are counted, never fatal.
	if g.deps.Registry != nil && structured != nil {
		g.upsertTechnicians(ctx, &opts, result, structured)
	}

	result.Success = true
	return result, nil
}

// resolveTemplateName picks the template to load: the explicit name, else
// the plant's own template derived from the surname, else the default.
func (g *Generator) resolveTemplateName(opts *Options) string {
	if opts.TemplateName != "" {
		return opts.TemplateName
	}
	if key := archive.SanitizeKey(opts.Surname); key != "" {
		return key + templates.Extension
	}
	return ""
}

// prepareData detects structured input, validates and flattens it, and
// cleans the resulting placeholder map.
func (g *Generator) prepareData(data map[string]any) (map[string]any, *types.GenerateInput, error) {
	_, hasCompany := data["company"]
	_, hasWorkers := data["workers"]
	if !hasCompany && !hasWorkers {
		return transform.Clean(data), nil, nil
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode structured data: %w", err)
	}
	var input types.GenerateInput
	if err := json.Unmarshal(encoded, &input); err != nil {
		return nil, nil, &ValidationError{Errors: []string{"structured data does not match the expected shape: " + err.Error()}}
	}
	if errs := types.ValidateGenerateInput(&input); len(errs) > 0 {
		return nil, nil, &ValidationError{Errors: errs}
	}
	return transform.Clean(transform.Flatten(&input)), &input, nil
}

// fetchContext retrieves and, when an enricher is configured, condenses the
// context for a query.
func (g *Generator) fetchContext(ctx context.Context, query string) (string, error) {
	resp, err := g.deps.RAG.Search(ctx, rag.SearchRequest{Query: query})
	if err != nil {
		return "", err
	}
	text := resp.Context()
	if text == "" || g.deps.Enricher == nil {
		return text, nil
	}
	condensed, err := g.deps.Enricher.Condense(ctx, query, text)
	if err != nil {
		// A failed condensation falls back to the raw context.
		return text, nil
	}
	return condensed, nil
}

// persistDocument writes the DOCX under {output}/{windfarm}/ when requested
// and returns the on-disk path, or empty when the document stays in memory.
func (g *Generator) persistDocument(opts *Options, result *Result, document []byte) (string, error) {
	if !opts.SaveToFile {
		return "", nil
	}

	key := archive.SanitizeKey(opts.Windfarm)
	if key == "" {
		key = "unnamed"
	}
	dir := filepath.Join(g.deps.OutputDir, key)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output folder %s: %w", dir, err)
	}

	name := fmt.Sprintf("PDP_%s_%s_%s%s",
		opts.PDPID, key, result.GeneratedAt.Format("20060102_150405"), templates.Extension)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, document, 0644); err != nil {
		return "", fmt.Errorf("failed to write document %s: %w", path, err)
	}

	result.FilePath = &path
	emitProgress(opts, StepSave, "Saved document to "+path, nil)
	return path, nil
}

// mergeIntoAnnual converts the document to PDF and appends it to the annual
// archive. Failures become a MergeWarning instead of an error.
func (g *Generator) mergeIntoAnnual(ctx context.Context, opts *Options, result *Result, docPath string, document []byte) {
	warn := func(stage string, err error) {
		result.MergeWarning = &MergeWarning{Stage: stage, Message: err.Error()}
		emitProgress(opts, StepMerge, fmt.Sprintf("Annual merge skipped (%s): %v", stage, err), nil)
	}

	if g.deps.Converter == nil || g.deps.Merger == nil {
		warn("setup", fmt.Errorf("PDF conversion is not configured"))
		return
	}

	// The converter works on files; unsaved documents go through a temp copy.
	if docPath == "" {
		tmp, err := os.CreateTemp("", "pdp-*.docx")
		if err != nil {
			warn("prepare", err)
			return
		}
		docPath = tmp.Name()
		defer func() { _ = os.Remove(docPath) }()
		if _, err := tmp.Write(document); err != nil {
			_ = tmp.Close()
			warn("prepare", err)
			return
		}
		if err := tmp.Close(); err != nil {
			warn("prepare", err)
			return
		}
	}

	pdfPath, err := g.deps.Converter.ConvertToPDF(ctx, docPath)
	if err != nil {
		warn("convert", err)
		return
	}
	defer func() { _ = convert.Cleanup(pdfPath) }()
	emitProgress(opts, StepConvert, "Converted document to PDF", nil)

	key := opts.Surname
	if strings.TrimSpace(key) == "" {
		key = opts.Windfarm
	}
	annualPath, err := g.deps.Merger.MergeIntoAnnual(pdfPath, key)
	if err != nil {
		warn("merge", err)
		return
	}

	result.MergedIntoAnnual = true
	result.AnnualPDFPath = annualPath
	emitProgress(opts, StepMerge, "Appended document to "+annualPath, nil)
}

// upsertTechnicians stores every worker from structured input, counting
// per-record failures without aborting the batch.
func (g *Generator) upsertTechnicians(ctx context.Context, opts *Options, result *Result, input *types.GenerateInput) {
	for _, w := range input.Workers {
		company := w.Company
		if company == "" && input.Company != nil {
			company = input.Company.Name
		}
		_, err := g.deps.Registry.Upsert(ctx, registry.Technician{
			FirstName:      w.FirstName,
			LastName:       w.LastName,
			Phone:          w.Phone,
			Email:          w.Email,
			Company:        company,
			Certifications: w.Certifications,
			Metadata:       map[string]any{"last_pdp_id": opts.PDPID, "last_windfarm": opts.Windfarm},
		})
		if err != nil {
			result.TechnicianFailures++
			emitProgress(opts, StepRegistry,
				fmt.Sprintf("Failed to store technician %s %s: %v", w.FirstName, w.LastName, err), nil)
			continue
		}
		result.TechniciansUpserted++
	}
	emitProgress(opts, StepRegistry,
		fmt.Sprintf("Stored %d technicians (%d failures)", result.TechniciansUpserted, result.TechnicianFailures), nil)
}

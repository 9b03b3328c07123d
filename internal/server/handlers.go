package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/marco/pdp-generator/internal/notes"
	"github.com/marco/pdp-generator/internal/pipeline"
	"github.com/marco/pdp-generator/internal/rag"
	"github.com/marco/pdp-generator/internal/registry"
)

// GenerateRequest is the body for POST /generate and POST /generate/rag.
type GenerateRequest struct {
	PDPID          string         `json:"pdp_id"`
	WindfarmName   string         `json:"windfarm_name"`
	Data           map[string]any `json:"data"`
	TemplateName   string         `json:"template_name,omitempty"`
	Surname        string         `json:"surname,omitempty"`
	MergeWithPDP   bool           `json:"merge_with_pdp,omitempty"`
	SaveToFile     bool           `json:"save_to_file,omitempty"`
	RAGQuery       string         `json:"rag_query,omitempty"`
	EnhanceWithRAG bool           `json:"enhance_with_rag,omitempty"`
}

// GenerateResponse wraps a pipeline result. DocumentBase64 carries the
// rendered document when it was not saved to disk.
type GenerateResponse struct {
	*pipeline.Result
	DocumentBase64 string `json:"document_base64,omitempty"`
}

func (s *Server) runGeneration(w http.ResponseWriter, r *http.Request, req GenerateRequest) {
	result, err := s.generator.Run(r.Context(), pipeline.Options{
		PDPID:          req.PDPID,
		Windfarm:       req.WindfarmName,
		Data:           req.Data,
		TemplateName:   req.TemplateName,
		Surname:        req.Surname,
		MergeWithPDP:   req.MergeWithPDP,
		SaveToFile:     req.SaveToFile,
		RAGQuery:       req.RAGQuery,
		EnhanceWithRAG: req.EnhanceWithRAG,
	})
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	resp := GenerateResponse{Result: result}
	if result.FilePath == nil {
		resp.DocumentBase64 = base64.StdEncoding.EncodeToString(result.Document)
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleGenerate runs the document pipeline.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, &ErrBadRequest{Message: "invalid JSON body: " + err.Error()})
		return
	}
	s.runGeneration(w, r, req)
}

// handleGenerateRAG runs the pipeline with retrieval enrichment enabled.
func (s *Server) handleGenerateRAG(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, &ErrBadRequest{Message: "invalid JSON body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.RAGQuery) == "" {
		s.errorResponse(w, &ErrBadRequest{Message: "rag_query is required"})
		return
	}
	req.EnhanceWithRAG = true
	s.runGeneration(w, r, req)
}

// handleRAGSearch proxies a search to the retrieval service.
func (s *Server) handleRAGSearch(w http.ResponseWriter, r *http.Request) {
	if s.rag == nil {
		s.errorResponse(w, &ErrExternal{Service: "rag", Cause: errors.New("retrieval service is not configured")})
		return
	}

	var req rag.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, &ErrBadRequest{Message: "invalid JSON body: " + err.Error()})
		return
	}

	resp, err := s.rag.Search(r.Context(), req)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleRAGHealth reports whether the retrieval service answers its health
// endpoint.
func (s *Server) handleRAGHealth(w http.ResponseWriter, r *http.Request) {
	if s.rag == nil {
		s.errorResponse(w, &ErrExternal{Service: "rag", Cause: errors.New("retrieval service is not configured")})
		return
	}
	if err := s.rag.Health(r.Context()); err != nil {
		s.jsonResponse(w, http.StatusBadGateway, map[string]string{"status": "unreachable", "error": err.Error()})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListTemplates lists the available document templates.
func (s *Server) handleListTemplates(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{"templates": s.templates.ListTemplates()})
}

// handleCreateNote stores a field note.
func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	if s.notes == nil {
		s.errorResponse(w, &ErrNotFound{Resource: "notes store"})
		return
	}

	var note notes.Note
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		s.errorResponse(w, &ErrBadRequest{Message: "invalid JSON body: " + err.Error()})
		return
	}

	saved, err := s.notes.Save(r.Context(), note)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, saved)
}

// handleListNotes lists notes, optionally filtered by ?windfarm=.
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	if s.notes == nil {
		s.errorResponse(w, &ErrNotFound{Resource: "notes store"})
		return
	}

	list, err := s.notes.List(r.Context(), r.URL.Query().Get("windfarm"))
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if list == nil {
		list = []notes.Note{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"notes": list})
}

// handleListTechnicians lists the technician registry.
func (s *Server) handleListTechnicians(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		s.errorResponse(w, &ErrNotFound{Resource: "technician registry"})
		return
	}

	technicians, err := s.registry.List(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if technicians == nil {
		technicians = []registry.Technician{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"technicians": technicians})
}

// handleExpiringCertifications lists certifications expiring within ?days=.
func (s *Server) handleExpiringCertifications(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		s.errorResponse(w, &ErrNotFound{Resource: "technician registry"})
		return
	}

	days := registry.DefaultExpiryWindowDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.errorResponse(w, &ErrBadRequest{Message: "days must be a positive integer"})
			return
		}
		days = parsed
	}

	expiring, err := s.registry.FindExpiring(r.Context(), days)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if expiring == nil {
		expiring = []registry.ExpiringCertification{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"days": days, "expiring": expiring})
}

// handleExportTechnicians streams the registry as a CSV download.
func (s *Server) handleExportTechnicians(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		s.errorResponse(w, &ErrNotFound{Resource: "technician registry"})
		return
	}

	csv, err := registry.ExportCSV(r.Context(), s.registry)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="technicians.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(csv))
}

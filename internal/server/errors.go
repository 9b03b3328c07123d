// Package server provides the HTTP REST API for the PDP generator.
package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/marco/pdp-generator/internal/notes"
	"github.com/marco/pdp-generator/internal/pipeline"
	"github.com/marco/pdp-generator/internal/rag"
	"github.com/marco/pdp-generator/internal/registry"
	"github.com/marco/pdp-generator/internal/schemas"
)

// ErrBadRequest indicates a malformed or invalid request body.
type ErrBadRequest struct {
	Message string
}

func (e *ErrBadRequest) Error() string {
	return "bad request: " + e.Message
}

// ErrNotFound indicates a missing resource.
type ErrNotFound struct {
	Resource string
}

func (e *ErrNotFound) Error() string {
	return "not found: " + e.Resource
}

// ErrExternal indicates an upstream dependency failure.
type ErrExternal struct {
	Service string
	Cause   error
}

func (e *ErrExternal) Error() string {
	return e.Service + " unavailable: " + e.Cause.Error()
}

func (e *ErrExternal) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps an error to its response status code.
func HTTPStatus(err error) int {
	var badRequest *ErrBadRequest
	var notFound *ErrNotFound
	var external *ErrExternal
	var pipelineValidation *pipeline.ValidationError
	var schemaValidation *schemas.ValidationError
	var ragErr *rag.Error

	switch {
	case errors.As(err, &badRequest),
		errors.As(err, &pipelineValidation),
		errors.As(err, &schemaValidation),
		errors.Is(err, notes.ErrMissingFields),
		errors.Is(err, registry.ErrMissingName):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &external), errors.As(err, &ragErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorDetails flattens validation errors into a list for the response body.
func errorDetails(err error) []string {
	var pipelineValidation *pipeline.ValidationError
	if errors.As(err, &pipelineValidation) {
		return pipelineValidation.Errors
	}

	var schemaValidation *schemas.ValidationError
	if errors.As(err, &schemaValidation) {
		details := make([]string, 0, len(schemaValidation.Errors))
		for _, fe := range schemaValidation.Errors {
			details = append(details, strings.TrimSpace(fe.Field+": "+fe.Message))
		}
		return details
	}
	return nil
}

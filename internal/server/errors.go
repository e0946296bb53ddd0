package server

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/liyue/office-engine/internal/emit"
	"github.com/liyue/office-engine/internal/generation"
	"github.com/liyue/office-engine/internal/llm"
	"github.com/liyue/office-engine/internal/storage"
	"github.com/liyue/office-engine/internal/structure"
)

// HTTPStatus returns the appropriate HTTP status code for an error. The
// server defines no error types of its own; every failure carries the type
// of the package it came from.
func HTTPStatus(err error) int {
	var requestErrs validator.ValidationErrors
	var structureErr *structure.ValidationError
	var notFoundErr *storage.NotFoundError
	var providerErr *llm.ProviderError
	var outlineErr *generation.OutlineError
	var emitErr *emit.IOError

	switch {
	case errors.As(err, &requestErrs), errors.Is(err, storage.ErrInvalidName):
		return http.StatusBadRequest
	case errors.As(err, &structureErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &providerErr), errors.As(err, &outlineErr):
		return http.StatusBadGateway
	case errors.As(err, &emitErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Error types for consistent error handling across the API.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in a vendor service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a single-field validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrFormValidation carries per-field errors for one section of the checkout
// form, so the UI can annotate each field.
type ErrFormValidation struct {
	Section string
	Fields  FieldErrors
}

func (e *ErrFormValidation) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("validation failed [%s]: %s", e.Section, strings.Join(keys, ", "))
}

// ErrUnauthorized indicates a missing, invalid or expired identity token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "no autorizado"
}

// ErrForbidden indicates the caller's role does not satisfy the required
// role. Redirect carries the role-appropriate landing page.
type ErrForbidden struct {
	Required Role
	Redirect string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("permiso denegado: se requiere rol %s", e.Required)
}

// ErrPaymentFailed carries the processor's human-readable failure reason,
// surfaced to the user verbatim.
type ErrPaymentFailed struct {
	IntentID string
	Reason   string
}

func (e *ErrPaymentFailed) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "El pago no pudo ser procesado"
}

// ErrInsufficientCredits indicates an advertiser lacks credits for an
// operation.
type ErrInsufficientCredits struct {
	Available int
	Required  int
}

func (e *ErrInsufficientCredits) Error() string {
	return fmt.Sprintf("créditos insuficientes: disponibles=%d requeridos=%d", e.Available, e.Required)
}

// ErrConflict indicates an illegal state transition or duplicate resource.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrGenerationFailed indicates the content generation helper could not
// produce a draft: either the LLM API call failed or its reply was not
// parseable JSON. Terminal for the request, no retry.
type ErrGenerationFailed struct {
	Stage string // "api" | "parse"
	Err   error
}

func (e *ErrGenerationFailed) Error() string {
	return fmt.Sprintf("content generation failed at %s: %v", e.Stage, e.Err)
}

func (e *ErrGenerationFailed) Unwrap() error {
	return e.Err
}

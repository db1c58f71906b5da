// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

// Package validation wraps go-playground/validator v10 behind a thread-safe
// singleton with human-readable error messages in the application's API
// error format.
//
//	type UploadRequest struct {
//	    CSVURL string `validate:"required"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // respond 400 with apiErr.Message
//	}
package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the singleton validator instance. The instance caches
// struct metadata, so sharing it is both safe and faster.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// FieldError describes one failed field validation.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return e.Message
}

// RequestValidationError aggregates all field failures for one struct.
type RequestValidationError struct {
	Fields []FieldError
}

// Error returns the combined message.
func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		messages = append(messages, f.Message)
	}
	return strings.Join(messages, "; ")
}

// APIError mirrors models.APIError to avoid an import cycle.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError converts the validation failure to the API error format.
func (ve *RequestValidationError) ToAPIError() *APIError {
	apiErr := &APIError{
		Code:    "VALIDATION_ERROR",
		Message: ve.Error(),
	}
	if len(ve.Fields) > 1 {
		details := make(map[string]interface{}, len(ve.Fields))
		for _, f := range ve.Fields {
			details[f.Field] = f.Message
		}
		apiErr.Details = details
	}
	return apiErr
}

// ValidateStruct validates s and returns nil when it passes.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &RequestValidationError{Fields: []FieldError{{
			Field:   "",
			Message: err.Error(),
		}}}
	}

	result := &RequestValidationError{}
	for _, fe := range verrs {
		result.Fields = append(result.Fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translateError(fe),
		})
	}
	return result
}

// translateError produces a readable message for a field error.
func translateError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", fe.Field(), fe.Tag())
	}
}

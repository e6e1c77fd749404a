// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"fmt"

	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/writequeue/internal/validation"
	"github.com/allisson/writequeue/internal/writequeue/domain"
)

// MaxDrainLimit bounds the number of operations one HTTP drain request may replay.
const MaxDrainLimit = 1000

// InsertRowsRequest contains a table name from the URL and the rows from the body.
type InsertRowsRequest struct {
	Table   string
	Payload domain.Payload
}

// Validate checks if the insert rows request is valid.
func (r *InsertRowsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Table,
			validation.Required,
			customValidation.Identifier,
		),
		validation.Field(&r.Payload,
			validation.By(validatePayload),
		),
	)
}

// DrainRequest contains the optional drain limit. Zero uses the server default.
type DrainRequest struct {
	Limit int `json:"limit"`
}

// Validate checks if the drain request is valid.
func (r *DrainRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Limit,
			validation.Min(0),
			validation.Max(MaxDrainLimit),
		),
	)
}

func validatePayload(value interface{}) error {
	payload, ok := value.(domain.Payload)
	if !ok {
		return validation.NewError("validation_payload_type", "must be a payload")
	}
	if payload.IsEmpty() {
		return validation.NewError("validation_payload_empty", "must contain at least one row")
	}
	for i, row := range payload.Rows() {
		if column := customValidation.InvalidColumn(row); column != "" {
			return validation.NewError(
				"validation_payload_column",
				fmt.Sprintf("row %d has an invalid column name %q", i, column),
			)
		}
	}
	return nil
}

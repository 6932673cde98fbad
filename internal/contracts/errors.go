package contracts

import (
	"errors"
	"fmt"
)

// ErrEmptyInput signals that a stage received zero contracts.
// Non-fatal: the stage returns an empty result alongside it.
var ErrEmptyInput = errors.New("empty input")

// ErrNoParseableContracts is returned when a non-empty chain has no decodable identifier
var ErrNoParseableContracts = errors.New("no parseable contract identifiers")

// ErrNoData is returned by a QuoteProvider when the source has nothing for the symbol
var ErrNoData = errors.New("no data found for symbol")

// ParseError reports an identifier that does not match the contract-symbol shape
type ParseError struct {
	Identifier string
	Reason     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Identifier, e.Reason)
}

// SchemaError reports a required field missing from a raw record
type SchemaError struct {
	Identifier string
	Field      string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("contract %q: missing required field %s", e.Identifier, e.Field)
}

// Omission records a contract dropped from the chain and why
type Omission struct {
	Identifier string `json:"identifier"`
	Stage      Stage  `json:"stage"`
	Err        error  `json:"-"`
	Reason     string `json:"reason"`
}

// NewOmission builds an Omission from an error
func NewOmission(identifier string, stage Stage, err error) Omission {
	return Omission{
		Identifier: identifier,
		Stage:      stage,
		Err:        err,
		Reason:     err.Error(),
	}
}

// IsParseError reports whether err is (or wraps) a ParseError
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsSchemaError reports whether err is (or wraps) a SchemaError
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// NormalizeResult is the typed outcome of chain normalization
type NormalizeResult struct {
	Chain     Chain
	Omissions []Omission
	Err       error // ErrNoParseableContracts on total parse failure
}

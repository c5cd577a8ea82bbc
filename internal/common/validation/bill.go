// Package validation checks simulation request payloads against a JSON schema
// before they ever reach the job manager.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "riigikogu-radar/internal/common/errors"
)

// billInputSchema is the contract for POST /simulate bodies. A bill without a
// non-empty title has no subject to simulate, so title is the only hard
// requirement.
const billInputSchema = `{
	"type": "object",
	"properties": {
		"title":       {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"billType":    {"type": "string"},
		"initiators":  {"type": "array", "items": {"type": "string"}}
	},
	"required": ["title"],
	"additionalProperties": false
}`

var billSchema = gojsonschema.NewStringLoader(billInputSchema)

// ValidateBillInput validates a raw JSON bill payload. Returns a
// VALIDATION_FAILED StandardError listing every schema violation.
func ValidateBillInput(body []byte) error {
	result, err := gojsonschema.Validate(billSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("malformed JSON: %v", err))
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return apperrors.NewValidationError(strings.Join(msgs, "; "))
}

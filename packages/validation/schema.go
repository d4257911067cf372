package validation

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// BodyMatchesSchema asserts the parsed body validates against the given
// JSON schema document.
func (v *Validator) BodyMatchesSchema(schema []byte) *Validator {
	if v.err != nil {
		return v
	}
	if _, parsed := v.resp.JSON(); !parsed {
		v.err = &ParseError{}
		return v
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(v.resp.Body),
	)
	if err != nil {
		v.err = &ValidationError{
			Mode:    ModeSchema,
			Actual:  v.resp.BodyString(),
			Message: "schema validation error: " + err.Error(),
		}
		return v
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		v.err = &ValidationError{
			Mode:    ModeSchema,
			Actual:  v.resp.BodyString(),
			Message: "schema validation failed: " + strings.Join(details, "; "),
		}
	}
	return v
}

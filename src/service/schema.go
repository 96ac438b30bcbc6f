package service

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/go-openapi/jsonpointer"
	"github.com/pondermatic/strategy11-challenge/src/domain"
	"github.com/xeipuuv/gojsonschema"
)

// challengeSchema is the contract of the upstream document
const challengeSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["title", "data"],
	"properties": {
		"title": {"type": "string"},
		"data": {
			"type": "object",
			"required": ["headers", "rows"],
			"properties": {
				"headers": {
					"type": "array",
					"items": {"type": "string"}
				},
				"rows": {
					"type": "object",
					"additionalProperties": {
						"type": "object",
						"required": ["id", "fname", "lname", "email", "date"],
						"properties": {
							"id": {"type": "integer", "minimum": -9223372036854775808, "maximum": 9223372036854775807},
							"fname": {"type": "string"},
							"lname": {"type": "string"},
							"email": {"type": "string"},
							"date": {"type": "integer", "minimum": -9223372036854775808, "maximum": 9223372036854775807}
						}
					}
				}
			}
		}
	}
}`

// propertyOrder ranks the schema's own property names so that violations
// are reported in the order the schema declares them
var propertyOrder = map[string]int{
	"title":   0,
	"data":    1,
	"headers": 2,
	"rows":    3,
	"id":      4,
	"fname":   5,
	"lname":   6,
	"email":   7,
	"date":    8,
}

// SchemaValidator checks decoded documents against the challenge schema
type SchemaValidator struct {
	schema *gojsonschema.Schema
}

func NewSchemaValidator() (*SchemaValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(challengeSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile challenge schema: %w", err)
	}
	return &SchemaValidator{schema: schema}, nil
}

// Validate returns nil when document matches the schema, otherwise the first
// violation. Only the first violation is reported.
func (v *SchemaValidator) Validate(document interface{}) (*domain.ValidationError, error) {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("failed to validate document: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := collectViolations(result.Errors())
	if len(violations) == 0 {
		return &domain.ValidationError{JSONPointer: "", Message: "The data does not match the schema"}, nil
	}

	sort.SliceStable(violations, func(i, j int) bool {
		return comparePointers(violations[i].segments, violations[j].segments) < 0
	})

	first := violations[0]
	return &domain.ValidationError{
		JSONPointer: first.pointer(),
		Message:     first.message(),
	}, nil
}

type violation struct {
	segments []string
	kind     string
	expected string
	given    string
	missing  []string
	text     string
}

func (v violation) pointer() string {
	var b strings.Builder
	for _, s := range v.segments {
		b.WriteByte('/')
		b.WriteString(jsonpointer.Escape(s))
	}
	return b.String()
}

func (v violation) message() string {
	switch v.kind {
	case "invalid_type":
		return fmt.Sprintf("The data (%s) must match the type: %s", v.given, v.expected)
	case "required":
		return fmt.Sprintf("The required properties (%s) are missing", strings.Join(v.missing, ", "))
	case "number_lte":
		return fmt.Sprintf("The data (%s) must be lower than or equal to %s", v.given, v.expected)
	case "number_gte":
		return fmt.Sprintf("The data (%s) must be greater than or equal to %s", v.given, v.expected)
	default:
		return v.text
	}
}

// collectViolations converts library results, merging the missing properties
// of one object into a single violation
func collectViolations(errs []gojsonschema.ResultError) []violation {
	var out []violation
	required := make(map[string]int)

	for _, desc := range errs {
		segments := contextSegments(desc.Context())
		details := desc.Details()

		switch desc.Type() {
		case "required":
			property := fmt.Sprint(details["property"])
			key := strings.Join(segments, "\x00")
			if idx, ok := required[key]; ok {
				out[idx].missing = append(out[idx].missing, property)
				continue
			}
			required[key] = len(out)
			out = append(out, violation{segments: segments, kind: "required", missing: []string{property}})
		case "invalid_type":
			out = append(out, violation{
				segments: segments,
				kind:     "invalid_type",
				expected: fmt.Sprint(details["expected"]),
				given:    fmt.Sprint(details["given"]),
			})
		case "number_lte", "number_gte":
			bound := details["max"]
			if desc.Type() == "number_gte" {
				bound = details["min"]
			}
			out = append(out, violation{
				segments: segments,
				kind:     desc.Type(),
				expected: formatNumber(bound),
				given:    formatNumber(desc.Value()),
				text:     desc.Description(),
			})
		default:
			out = append(out, violation{segments: segments, kind: desc.Type(), text: desc.Description()})
		}
	}

	for i := range out {
		if out[i].kind == "required" {
			sort.SliceStable(out[i].missing, func(a, b int) bool {
				return rankProperty(out[i].missing[a]) < rankProperty(out[i].missing[b])
			})
		}
	}
	return out
}

// contextSegments splits a result context such as (root).data.rows.1 into
// its path segments without the root marker
func contextSegments(ctx *gojsonschema.JsonContext) []string {
	if ctx == nil {
		return nil
	}
	parts := strings.Split(ctx.String("\x00"), "\x00")
	if len(parts) > 0 && parts[0] == gojsonschema.STRING_CONTEXT_ROOT {
		parts = parts[1:]
	}
	return parts
}

// comparePointers orders parents before children, schema properties by
// declaration order and other keys naturally ("2" before "10"). Keys with the
// same numeric value ("1", "01") fall back to byte order.
func comparePointers(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareSegments(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareSegments(a, b string) int {
	if a == b {
		return 0
	}

	ra, aKnown := propertyOrder[a]
	rb, bKnown := propertyOrder[b]
	if aKnown && bKnown {
		return ra - rb
	}

	na, aErr := strconv.ParseInt(a, 10, 64)
	nb, bErr := strconv.ParseInt(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// formatNumber prints schema bounds as plain integers rather than "n/1" or
// exponent notation
func formatNumber(value interface{}) string {
	switch n := value.(type) {
	case *big.Rat:
		return n.RatString()
	case *big.Float:
		return n.Text('f', -1)
	default:
		return fmt.Sprint(value)
	}
}

func rankProperty(name string) int {
	if r, ok := propertyOrder[name]; ok {
		return r
	}
	return len(propertyOrder)
}

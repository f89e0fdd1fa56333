package httppart

import (
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"golang.org/x/xerrors"
)

// Rules a part can violate. Match them with errors.Is.
var (
	ErrRequired     = xerrors.New("required")
	ErrEmptyValue   = xerrors.New("empty value")
	ErrTypeMismatch = xerrors.New("type mismatch")
	ErrRange        = xerrors.New("out of range")
	ErrPattern      = xerrors.New("pattern mismatch")
	ErrEnum         = xerrors.New("not in enum")
	ErrParse        = xerrors.New("parse error")
)

// Violation is one failed rule.
type Violation struct {
	// Path of the failing value inside the part, "" for the part itself and
	// "[1]" or ".key" for items and properties.
	Path     string
	Rule     error
	Expected string
	Actual   string
}

func (violation Violation) String() string {
	builder := strings.Builder{}
	if violation.Path != "" {
		builder.WriteString(violation.Path)
		builder.WriteString(": ")
	}
	builder.WriteString(violation.Rule.Error())
	if violation.Expected != "" {
		builder.WriteString(" (expected ")
		builder.WriteString(violation.Expected)
		builder.WriteString(", got '")
		builder.WriteString(violation.Actual)
		builder.WriteString("')")
	}
	return builder.String()
}

// ValidationError lists every violation found for one part.
type ValidationError struct {
	Part       string
	In         Location
	Violations []Violation
}

func (validationErr *ValidationError) Error() string {
	messages := make([]string, len(validationErr.Violations))
	for index, violation := range validationErr.Violations {
		messages[index] = violation.String()
	}

	location := ""
	if validationErr.In != "" {
		location = " in " + string(validationErr.In)
	}
	return "part '" + validationErr.Part + "'" + location + ": " +
		strings.Join(messages, "; ")
}

// Unwrap exposes the violated rules to errors.Is.
func (validationErr *ValidationError) Unwrap() []error {
	rules := make([]error, len(validationErr.Violations))
	for index, violation := range validationErr.Violations {
		rules[index] = violation.Rule
	}
	return rules
}

// Has reports whether rule is among the violations.
func (validationErr *ValidationError) Has(rule error) bool {
	for _, violation := range validationErr.Violations {
		if violation.Rule == rule {
			return true
		}
	}
	return false
}

// Wraps violations in a SchemaValidationError span error.
func newSchemaError(schema *PartSchema, violations []Violation) error {
	validationErr := &ValidationError{
		Part:       schema.Label(),
		In:         schema.in,
		Violations: violations,
	}

	rules := make([]string, len(violations))
	for index, violation := range violations {
		rules[index] = violation.Rule.Error()
	}

	return spanerrors.SchemaValidationError.New(
		validationErr.Error(),
		map[string]interface{}{
			"part":  validationErr.Part,
			"in":    string(validationErr.In),
			"rules": rules,
		},
		validationErr,
	)
}

func singleError(schema *PartSchema, rule error, expected string, actual string) error {
	return newSchemaError(
		schema,
		[]Violation{{Rule: rule, Expected: expected, Actual: actual}},
	)
}

func joinViolationPath(path string) string {
	if path == "" || path[0] == '[' || path[0] == '.' {
		return path
	}
	return "." + path
}

/*
OpenAPI 2.0 style schemas and codecs for single HTTP parts: headers, query
parameters, path variables and form fields.

A PartSchema is built once through a SchemaBuilder and shared read-only afterwards.
Constraints can be filled in by hand or copied from any source implementing the
capability interfaces in this package (HasType, HasPattern, HasEnum...), such as a
parsed Tag or a go-openapi spec.Parameter.

Serializer and Parser convert between structured values and the raw strings carried by
the transport. Every failure is returned as a spanerrors.SchemaValidationError whose
source is a *ValidationError listing the violated rules. The rules are sentinel errors,
so errors.Is(err, httppart.ErrRequired) works on anything returned here.
*/
package httppart

import (
	"regexp"
)

// Location is where a part travels in a request or response.
type Location string

const (
	InHeader   Location = "header"
	InQuery    Location = "query"
	InPath     Location = "path"
	InFormData Location = "formData"
	InBody     Location = "body"
)

// Type is the OpenAPI type of a part. TypeNone leaves the value untyped.
type Type string

const (
	TypeNone    Type = ""
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
	TypeFile    Type = "file"
)

// IsNumeric is true for integer and number.
func (partType Type) IsNumeric() bool {
	return partType == TypeInteger || partType == TypeNumber
}

// Format refines how a scalar is written as text.
type Format string

const (
	FormatNone         Format = ""
	FormatInt32        Format = "int32"
	FormatInt64        Format = "int64"
	FormatFloat        Format = "float"
	FormatDouble       Format = "double"
	FormatByte         Format = "byte"
	FormatBinary       Format = "binary"
	FormatBinarySpaced Format = "binary-spaced"
	FormatDate         Format = "date"
	FormatDateTime     Format = "date-time"
	FormatPassword     Format = "password"
	FormatUON          Format = "uon"
)

// CollectionFormat is how an array or object part is flattened into text.
type CollectionFormat string

const (
	CollectionNone  CollectionFormat = ""
	CollectionCSV   CollectionFormat = "csv"
	CollectionSSV   CollectionFormat = "ssv"
	CollectionTSV   CollectionFormat = "tsv"
	CollectionPipes CollectionFormat = "pipes"
	CollectionMulti CollectionFormat = "multi"
	CollectionUONC  CollectionFormat = "uonc"
)

// Delimiter returns the separator between items. uonc has none, and multi and
// CollectionNone fall back to ",".
func (collectionFormat CollectionFormat) Delimiter() string {
	switch collectionFormat {
	case CollectionSSV:
		return " "
	case CollectionTSV:
		return "\t"
	case CollectionPipes:
		return "|"
	case CollectionUONC:
		return ""
	default:
		return ","
	}
}

// PartSchema is the immutable constraint set for one HTTP part. Build it with
// NewSchemaBuilder.
type PartSchema struct {
	name             string
	in               Location
	partType         Type
	format           Format
	collectionFormat CollectionFormat
	required         bool
	allowEmptyValue  bool
	pattern          *regexp.Regexp

	minimum          *float64
	maximum          *float64
	exclusiveMinimum bool
	exclusiveMaximum bool
	multipleOf       *float64

	minLength *int64
	maxLength *int64

	minItems    *int64
	maxItems    *int64
	uniqueItems bool

	enum    []string
	enumSet map[string]struct{}

	items                *PartSchema
	propertyNames        []string
	properties           map[string]*PartSchema
	additionalProperties *PartSchema

	defaultValue *string
}

// Used wherever a nil schema is passed to a codec.
var untypedSchema = &PartSchema{}

func (schema *PartSchema) orUntyped() *PartSchema {
	if schema == nil {
		return untypedSchema
	}
	return schema
}

func (schema *PartSchema) Name() string                       { return schema.name }
func (schema *PartSchema) In() Location                       { return schema.in }
func (schema *PartSchema) Type() Type                         { return schema.partType }
func (schema *PartSchema) Format() Format                     { return schema.format }
func (schema *PartSchema) CollectionFormat() CollectionFormat { return schema.collectionFormat }
func (schema *PartSchema) Required() bool                     { return schema.required }
func (schema *PartSchema) AllowEmptyValue() bool              { return schema.allowEmptyValue }
func (schema *PartSchema) ExclusiveMinimum() bool             { return schema.exclusiveMinimum }
func (schema *PartSchema) ExclusiveMaximum() bool             { return schema.exclusiveMaximum }
func (schema *PartSchema) UniqueItems() bool                  { return schema.uniqueItems }

// Pattern returns the source of the pattern, or "" when unset.
func (schema *PartSchema) Pattern() string {
	if schema.pattern == nil {
		return ""
	}
	return schema.pattern.String()
}

func (schema *PartSchema) Minimum() *float64    { return copyFloat(schema.minimum) }
func (schema *PartSchema) Maximum() *float64    { return copyFloat(schema.maximum) }
func (schema *PartSchema) MultipleOf() *float64 { return copyFloat(schema.multipleOf) }
func (schema *PartSchema) MinLength() *int64    { return copyInt(schema.minLength) }
func (schema *PartSchema) MaxLength() *int64    { return copyInt(schema.maxLength) }
func (schema *PartSchema) MinItems() *int64     { return copyInt(schema.minItems) }
func (schema *PartSchema) MaxItems() *int64     { return copyInt(schema.maxItems) }

// Enum returns the allowed values in declaration order.
func (schema *PartSchema) Enum() []string {
	if len(schema.enum) == 0 {
		return nil
	}
	return append([]string(nil), schema.enum...)
}

// Items is the element schema of an array, nil for other types.
func (schema *PartSchema) Items() *PartSchema {
	return schema.items
}

// ItemSource exposes Items as a constraint source so a schema can seed a builder.
func (schema *PartSchema) ItemSource() Source {
	if schema.items == nil {
		return nil
	}
	return schema.items
}

// Property returns the schema declared for an object key, falling back to
// additionalProperties.
func (schema *PartSchema) Property(name string) *PartSchema {
	if property, ok := schema.properties[name]; ok {
		return property
	}
	return schema.additionalProperties
}

// PropertyNames lists declared object keys in declaration order.
func (schema *PartSchema) PropertyNames() []string {
	return append([]string(nil), schema.propertyNames...)
}

// AdditionalProperties is the schema for undeclared object keys, if any.
func (schema *PartSchema) AdditionalProperties() *PartSchema {
	return schema.additionalProperties
}

// Default returns the raw default text.
func (schema *PartSchema) Default() (string, bool) {
	if schema.defaultValue == nil {
		return "", false
	}
	return *schema.defaultValue, true
}

// IsArray is true for array schemas.
func (schema *PartSchema) IsArray() bool {
	return schema.partType == TypeArray
}

// Label names the part in error messages: the part name, or its type when unnamed.
func (schema *PartSchema) Label() string {
	if schema.name != "" {
		return schema.name
	}
	if schema.partType != TypeNone {
		return string(schema.partType)
	}
	return "value"
}

func (schema *PartSchema) inEnum(value string) bool {
	if schema.enumSet == nil {
		return true
	}
	_, ok := schema.enumSet[value]
	return ok
}

func copyFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func copyInt(value *int64) *int64 {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

package httppart

import (
	"regexp"
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
)

// SchemaBuilder collects constraints for a PartSchema. Builders are not safe for
// concurrent use; share the built schema instead.
type SchemaBuilder struct {
	name             string
	in               Location
	partType         Type
	format           Format
	collectionFormat CollectionFormat
	required         bool
	allowEmptyValue  bool
	pattern          string

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

	enum []string

	items                *SchemaBuilder
	propertyNames        []string
	properties           map[string]*SchemaBuilder
	additionalProperties *SchemaBuilder

	defaultValue *string
}

// NewSchemaBuilder returns an empty, untyped builder.
func NewSchemaBuilder() *SchemaBuilder {
	return &SchemaBuilder{}
}

func (builder *SchemaBuilder) Name(name string) *SchemaBuilder {
	builder.name = name
	return builder
}

func (builder *SchemaBuilder) In(in Location) *SchemaBuilder {
	builder.in = in
	return builder
}

func (builder *SchemaBuilder) Type(partType Type) *SchemaBuilder {
	builder.partType = partType
	return builder
}

func (builder *SchemaBuilder) Format(format Format) *SchemaBuilder {
	builder.format = format
	return builder
}

func (builder *SchemaBuilder) CollectionFormat(
	collectionFormat CollectionFormat,
) *SchemaBuilder {
	builder.collectionFormat = collectionFormat
	return builder
}

func (builder *SchemaBuilder) Required(required bool) *SchemaBuilder {
	builder.required = required
	return builder
}

func (builder *SchemaBuilder) AllowEmptyValue(allow bool) *SchemaBuilder {
	builder.allowEmptyValue = allow
	return builder
}

// Pattern is compiled by Build.
func (builder *SchemaBuilder) Pattern(pattern string) *SchemaBuilder {
	builder.pattern = pattern
	return builder
}

func (builder *SchemaBuilder) Minimum(minimum float64, exclusive bool) *SchemaBuilder {
	builder.minimum = &minimum
	builder.exclusiveMinimum = exclusive
	return builder
}

func (builder *SchemaBuilder) Maximum(maximum float64, exclusive bool) *SchemaBuilder {
	builder.maximum = &maximum
	builder.exclusiveMaximum = exclusive
	return builder
}

func (builder *SchemaBuilder) MultipleOf(multipleOf float64) *SchemaBuilder {
	builder.multipleOf = &multipleOf
	return builder
}

func (builder *SchemaBuilder) MinLength(minLength int64) *SchemaBuilder {
	builder.minLength = &minLength
	return builder
}

func (builder *SchemaBuilder) MaxLength(maxLength int64) *SchemaBuilder {
	builder.maxLength = &maxLength
	return builder
}

func (builder *SchemaBuilder) MinItems(minItems int64) *SchemaBuilder {
	builder.minItems = &minItems
	return builder
}

func (builder *SchemaBuilder) MaxItems(maxItems int64) *SchemaBuilder {
	builder.maxItems = &maxItems
	return builder
}

func (builder *SchemaBuilder) UniqueItems(unique bool) *SchemaBuilder {
	builder.uniqueItems = unique
	return builder
}

// Enum replaces the allowed values. Duplicates are dropped, first one wins.
func (builder *SchemaBuilder) Enum(values ...string) *SchemaBuilder {
	builder.enum = append([]string(nil), values...)
	return builder
}

// Items sets the element schema of an array.
func (builder *SchemaBuilder) Items(items *SchemaBuilder) *SchemaBuilder {
	builder.items = items
	return builder
}

// Property declares the schema for one object key. Redeclaring a key replaces its
// schema but keeps its position.
func (builder *SchemaBuilder) Property(name string, property *SchemaBuilder) *SchemaBuilder {
	if builder.properties == nil {
		builder.properties = make(map[string]*SchemaBuilder)
	}
	if _, exists := builder.properties[name]; !exists {
		builder.propertyNames = append(builder.propertyNames, name)
	}
	builder.properties[name] = property
	return builder
}

func (builder *SchemaBuilder) AdditionalProperties(property *SchemaBuilder) *SchemaBuilder {
	builder.additionalProperties = property
	return builder
}

// Default is the raw text used when the part is absent.
func (builder *SchemaBuilder) Default(value string) *SchemaBuilder {
	builder.defaultValue = &value
	return builder
}

/*
Build validates the collected constraints and returns an immutable schema. Every
inconsistency is reported at once in a spanerrors.ConfigurationError:

• the pattern does not compile

• items are set on a type other than array

• numeric constraints are set on a type other than integer or number

• length constraints are set on a type other than string

• item-count constraints are set on a type other than array

• a minimum exceeds its maximum

• a boolean enum holds values other than true and false

An untyped builder with items or a collectionFormat becomes an array, and an array without items gets
untyped items.
*/
func (builder *SchemaBuilder) Build() (*PartSchema, error) {
	problems := make([]string, 0)
	schema := builder.build("", &problems)
	if len(problems) > 0 {
		return nil, spanerrors.ConfigurationError.New(
			"invalid schema for part "+schemaLabel(builder.name)+": "+
				strings.Join(problems, "; "),
			map[string]interface{}{"part": builder.name, "problems": problems},
			nil,
		)
	}
	return schema, nil
}

func schemaLabel(name string) string {
	if name == "" {
		return "'value'"
	}
	return "'" + name + "'"
}

func (builder *SchemaBuilder) build(path string, problems *[]string) *PartSchema {
	report := func(problem string) {
		if path != "" {
			problem = path + ": " + problem
		}
		*problems = append(*problems, problem)
	}

	schema := &PartSchema{
		name:             builder.name,
		in:               builder.in,
		partType:         builder.partType,
		format:           builder.format,
		collectionFormat: builder.collectionFormat,
		required:         builder.required,
		allowEmptyValue:  builder.allowEmptyValue,
		minimum:          copyFloat(builder.minimum),
		maximum:          copyFloat(builder.maximum),
		exclusiveMinimum: builder.exclusiveMinimum,
		exclusiveMaximum: builder.exclusiveMaximum,
		multipleOf:       copyFloat(builder.multipleOf),
		minLength:        copyInt(builder.minLength),
		maxLength:        copyInt(builder.maxLength),
		minItems:         copyInt(builder.minItems),
		maxItems:         copyInt(builder.maxItems),
		uniqueItems:      builder.uniqueItems,
	}
	if builder.defaultValue != nil {
		value := *builder.defaultValue
		schema.defaultValue = &value
	}

	if schema.partType == TypeNone &&
		(builder.items != nil || builder.collectionFormat != CollectionNone) {
		schema.partType = TypeArray
	}
	partType := schema.partType

	if builder.pattern != "" {
		pattern, err := regexp.Compile(builder.pattern)
		if err != nil {
			report("bad pattern: " + err.Error())
		} else {
			schema.pattern = pattern
		}
	}

	if builder.items != nil && partType != TypeArray {
		report("items set on type " + typeName(partType))
	}

	hasNumeric := builder.minimum != nil || builder.maximum != nil ||
		builder.multipleOf != nil
	if hasNumeric && partType != TypeNone && !partType.IsNumeric() {
		report("numeric constraints set on type " + typeName(partType))
	}
	if builder.minimum != nil && builder.maximum != nil &&
		*builder.minimum > *builder.maximum {
		report("minimum is greater than maximum")
	}
	if builder.multipleOf != nil && *builder.multipleOf <= 0 {
		report("multipleOf must be positive")
	}

	hasLength := builder.minLength != nil || builder.maxLength != nil
	if hasLength && partType != TypeNone && partType != TypeString {
		report("length constraints set on type " + typeName(partType))
	}
	if builder.minLength != nil && builder.maxLength != nil &&
		*builder.minLength > *builder.maxLength {
		report("minLength is greater than maxLength")
	}

	hasCount := builder.minItems != nil || builder.maxItems != nil || builder.uniqueItems
	if hasCount && partType != TypeArray {
		report("item constraints set on type " + typeName(partType))
	}
	if builder.minItems != nil && builder.maxItems != nil &&
		*builder.minItems > *builder.maxItems {
		report("minItems is greater than maxItems")
	}

	if builder.collectionFormat != CollectionNone &&
		partType != TypeArray && partType != TypeObject {
		report("collectionFormat set on type " + typeName(partType))
	}

	if len(builder.enum) > 0 {
		schema.enumSet = make(map[string]struct{}, len(builder.enum))
		for _, value := range builder.enum {
			if _, seen := schema.enumSet[value]; seen {
				continue
			}
			if partType == TypeBoolean && value != "true" && value != "false" {
				report("boolean enum value " + value)
			}
			schema.enumSet[value] = struct{}{}
			schema.enum = append(schema.enum, value)
		}
	}

	if partType == TypeArray {
		items := builder.items
		if items == nil {
			items = NewSchemaBuilder()
		}
		schema.items = items.build(joinPath(path, "items"), problems)
	}

	if len(builder.propertyNames) > 0 {
		schema.properties = make(map[string]*PartSchema, len(builder.propertyNames))
		for _, name := range builder.propertyNames {
			property := builder.properties[name].build(joinPath(path, name), problems)
			if property.name == "" {
				property.name = name
			}
			schema.propertyNames = append(schema.propertyNames, name)
			schema.properties[name] = property
		}
	}
	if builder.additionalProperties != nil {
		schema.additionalProperties = builder.additionalProperties.build(
			joinPath(path, "additionalProperties"), problems,
		)
	}

	return schema
}

func typeName(partType Type) string {
	if partType == TypeNone {
		return "none"
	}
	return string(partType)
}

func joinPath(path string, element string) string {
	if path == "" {
		return element
	}
	return path + "." + element
}

// MustBuild is Build for package-level schema literals. It panics on error.
func (builder *SchemaBuilder) MustBuild() *PartSchema {
	schema, err := builder.Build()
	if err != nil {
		panic(err)
	}
	return schema
}

package httppart

import (
	"strconv"

	"github.com/illuscio-dev/spanmarshal-go/spantypes"
)

// Parser reads raw part text into Go values. It holds no state, so the zero value
// is ready to use and one instance can be shared.
type Parser struct{}

// NewParser returns a part parser.
func NewParser() *Parser {
	return &Parser{}
}

/*
Parse validates raw against the schema, decodes it and stores the result in target,
which must be a non-nil pointer.

A nil raw value is an absent part: it fails when the schema is required, otherwise the
default is parsed in its place, and target is left untouched when there is none.
Arrays are split by their collection format and each item decoded with the items
schema. Values that decode but cannot be stored in target fail with ErrParse.

Supported targets are strings, integers, floats, booleans, []byte, time.Time, slices
and arrays of those, string-keyed maps, *spantypes.ObjectMap, interface{} and pointers
to any of them.
*/
func (parser *Parser) Parse(schema *PartSchema, raw *string, target interface{}) error {
	schema = schema.orUntyped()
	raw = schema.withDefault(raw)

	if err := schema.Validate(raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}

	value, violations := parser.decode(schema, *raw)
	if len(violations) > 0 {
		return newSchemaError(schema, violations)
	}
	return schema.store(value, target)
}

// ParseAll parses the raw occurrences of a part. multi arrays treat every occurrence
// as one item; other schemas parse the first occurrence.
func (parser *Parser) ParseAll(schema *PartSchema, raws []string, target interface{}) error {
	schema = schema.orUntyped()
	if !schema.isMulti() || len(raws) == 0 {
		return parser.Parse(schema, firstRaw(raws), target)
	}

	if err := schema.ValidateAll(raws); err != nil {
		return err
	}

	items := make([]partValue, len(raws))
	for index, raw := range raws {
		items[index] = textValue(raw)
	}
	value, violations := parser.decodeItems(schema, items)
	if len(violations) > 0 {
		return newSchemaError(schema, violations)
	}
	return schema.store(value, target)
}

// ParseValue decodes raw into the generic structured value model without a target.
// An absent optional part without a default yields nil.
func (parser *Parser) ParseValue(schema *PartSchema, raw *string) (interface{}, error) {
	var value interface{}
	if err := parser.Parse(schema, raw, &value); err != nil {
		return nil, err
	}
	return value, nil
}

func (schema *PartSchema) withDefault(raw *string) *string {
	if raw != nil || schema.required {
		return raw
	}
	if defaultValue, ok := schema.Default(); ok {
		return &defaultValue
	}
	return nil
}

func (schema *PartSchema) store(value interface{}, target interface{}) error {
	if err := coerce(value, target); err != nil {
		return singleError(schema, ErrParse, targetName(target), err.Error())
	}
	return nil
}

// Decodes validated text into structured values: int64, float64, bool, string,
// []byte, time.Time, []interface{} and *spantypes.ObjectMap.
func (parser *Parser) decode(schema *PartSchema, text string) (interface{}, []Violation) {
	switch schema.partType {
	case TypeArray:
		if text == "" {
			return []interface{}{}, nil
		}
		items, err := schema.splitArray(text)
		if err != nil {
			return nil, []Violation{{Rule: ErrParse, Expected: "array", Actual: text}}
		}
		return parser.decodeItems(schema, items)
	case TypeObject:
		if text == "" {
			return spantypes.NewObjectMap(), nil
		}
		return parser.decodeObject(schema, text)
	}

	if text == "" && schema.partType != TypeString && schema.partType != TypeNone {
		return nil, nil
	}

	value, err := schema.parseScalar(text)
	if err != nil {
		expected := string(schema.format)
		if expected == "" {
			expected = string(schema.partType)
		}
		return nil, []Violation{{Rule: ErrParse, Expected: expected, Actual: text}}
	}
	return value, nil
}

func (parser *Parser) decodeItems(
	schema *PartSchema, items []partValue,
) (interface{}, []Violation) {
	itemSchema := schema.items.orUntyped()
	decoded := make([]interface{}, len(items))
	for index, item := range items {
		value, violations := parser.nested(itemSchema, item)
		if len(violations) > 0 {
			list := &violationList{}
			list.addNested("["+strconv.Itoa(index)+"]", violations)
			return nil, list.violations
		}
		decoded[index] = value
	}
	return decoded, nil
}

func (parser *Parser) decodeObject(schema *PartSchema, text string) (interface{}, []Violation) {
	entries, err := schema.splitObject(text)
	if err != nil {
		return nil, []Violation{{Rule: ErrParse, Expected: "object", Actual: text}}
	}

	objectMap := spantypes.NewObjectMap()
	for _, entry := range entries {
		property := schema.Property(entry.key).orUntyped()
		value, violations := parser.nested(property, entry)
		if len(violations) > 0 {
			list := &violationList{}
			list.addNested("."+entry.key, violations)
			return nil, list.violations
		}
		objectMap.Set(entry.key, value)
	}
	return objectMap, nil
}

// Decodes an item or property. Untyped UON values keep their decoded structure.
func (parser *Parser) nested(schema *PartSchema, item partValue) (interface{}, []Violation) {
	if item.text == nil {
		return nil, nil
	}
	if schema.isUntyped() {
		return item.value, nil
	}
	return parser.decode(schema, *item.text)
}

package httppart

import (
	"strconv"

	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	"github.com/illuscio-dev/spanmarshal-go/uon"
)

// Serializer writes structured values as raw part text. It holds no state, so the
// zero value is ready to use and one instance can be shared.
type Serializer struct{}

// NewSerializer returns a part serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

/*
Serialize renders value as the text of one part.

A nil value yields the schema default, or "" when there is none; callers decide
whether to omit an empty, optional part. Arrays serialize each element with the items
schema and join them per the collection format (multi joins with "," here, use
SerializeAll to emit one occurrence per element). Objects become a UON map, or k=v
pairs joined by the collection delimiter. Scalars go through the schema format, then
the schema type, then plain text. Untyped lists and maps are written as UON.
*/
func (serializer *Serializer) Serialize(schema *PartSchema, value interface{}) (string, error) {
	schema = schema.orUntyped()
	text, violations := serializer.serialize(schema, value)
	if len(violations) > 0 {
		return "", newSchemaError(schema, violations)
	}
	return text, nil
}

// SerializeAll returns one string per element for multi arrays and a single string
// otherwise. An absent value without a default yields no occurrences.
func (serializer *Serializer) SerializeAll(
	schema *PartSchema, value interface{},
) ([]string, error) {
	schema = schema.orUntyped()
	value = spantypes.Indirect(value)

	if value == nil {
		if defaultValue, ok := schema.Default(); ok {
			return []string{defaultValue}, nil
		}
		return nil, nil
	}

	if !schema.isMulti() {
		text, err := serializer.Serialize(schema, value)
		if err != nil {
			return nil, err
		}
		return []string{text}, nil
	}

	items, violations := serializer.serializeItems(schema, value)
	if len(violations) > 0 {
		return nil, newSchemaError(schema, violations)
	}
	return items, nil
}

func (serializer *Serializer) serialize(
	schema *PartSchema, value interface{},
) (string, []Violation) {
	value = spantypes.Indirect(value)
	if value == nil {
		defaultValue, _ := schema.Default()
		return defaultValue, nil
	}

	switch {
	case schema.partType == TypeArray:
		items, violations := serializer.serializeItems(schema, value)
		if len(violations) > 0 {
			return "", violations
		}
		return schema.joinArray(items), nil
	case schema.partType == TypeObject:
		return serializer.serializeObject(schema, value)
	case schema.isUntyped() && (spantypes.IsMap(value) || spantypes.IsList(value)):
		encoded, err := uon.Marshal(value)
		if err != nil {
			return "", []Violation{{Rule: ErrTypeMismatch, Expected: "uon", Actual: err.Error()}}
		}
		return encoded, nil
	}

	text, violation := schema.formatScalar(value)
	if violation != nil {
		return "", []Violation{*violation}
	}
	if text == "" {
		return text, nil
	}
	return text, schema.check(&text, validateConfig{})
}

// Serializes array elements. uonc elements come back as UON tokens.
func (serializer *Serializer) serializeItems(
	schema *PartSchema, value interface{},
) ([]string, []Violation) {
	elements, ok := spantypes.Elements(value)
	if !ok {
		elements = []interface{}{value}
	}

	count := int64(len(elements))
	if schema.minItems != nil && count < *schema.minItems {
		return nil, []Violation{{
			Rule:     ErrRange,
			Expected: "at least " + strconv.FormatInt(*schema.minItems, 10) + " items",
			Actual:   strconv.FormatInt(count, 10),
		}}
	}
	if schema.maxItems != nil && count > *schema.maxItems {
		return nil, []Violation{{
			Rule:     ErrRange,
			Expected: "at most " + strconv.FormatInt(*schema.maxItems, 10) + " items",
			Actual:   strconv.FormatInt(count, 10),
		}}
	}

	itemSchema := schema.items.orUntyped()
	uonItems := schema.collectionFormat == CollectionUONC

	items := make([]string, len(elements))
	for index, element := range elements {
		text, violations := serializer.element(itemSchema, element, uonItems)
		if len(violations) > 0 {
			list := &violationList{}
			list.addNested("["+strconv.Itoa(index)+"]", violations)
			return nil, list.violations
		}
		items[index] = text
	}
	return items, nil
}

func (serializer *Serializer) serializeObject(
	schema *PartSchema, value interface{},
) (string, []Violation) {
	entries, ok := spantypes.Entries(value)
	if !ok {
		return "", []Violation{*mismatch(TypeObject, value)}
	}

	uonMap := schema.usesUONMap()
	keys := make([]string, len(entries))
	values := make([]string, len(entries))
	for index, entry := range entries {
		property := schema.Property(entry.Key).orUntyped()
		text, violations := serializer.element(property, entry.Value, uonMap)
		if len(violations) > 0 {
			list := &violationList{}
			list.addNested("."+entry.Key, violations)
			return "", list.violations
		}
		keys[index] = entry.Key
		values[index] = text
	}
	return schema.joinObject(keys, values), nil
}

// Serializes a nested value, as a UON token when it lands inside UON text.
func (serializer *Serializer) element(
	schema *PartSchema, value interface{}, asUON bool,
) (string, []Violation) {
	if asUON && schema.isUntyped() {
		encoded, err := uon.Marshal(value)
		if err != nil {
			return "", []Violation{{Rule: ErrTypeMismatch, Expected: "uon", Actual: err.Error()}}
		}
		return encoded, nil
	}

	if asUON && spantypes.Indirect(value) == nil {
		if _, ok := schema.Default(); !ok {
			return "null", nil
		}
	}

	text, violations := serializer.serialize(schema, value)
	if len(violations) > 0 || !asUON {
		return text, violations
	}
	return uonToken(text, schema), nil
}

package httppart

import (
	"net/http"
	"net/url"
)

// ReadHeader parses the occurrences of the schema's header into target.
func (parser *Parser) ReadHeader(schema *PartSchema, headers http.Header, target interface{}) error {
	schema = schema.orUntyped()
	return parser.ParseAll(schema, headers.Values(schema.name), target)
}

// ReadQuery parses the occurrences of the schema's query parameter into target. Form
// values use the same call.
func (parser *Parser) ReadQuery(schema *PartSchema, values url.Values, target interface{}) error {
	schema = schema.orUntyped()
	return parser.ParseAll(schema, values[schema.name], target)
}

// WritePart renders value as the occurrences of a part. An optional part that
// renders empty, and does not allow empty values, yields none so the caller can omit
// it.
func (serializer *Serializer) WritePart(schema *PartSchema, value interface{}) ([]string, error) {
	schema = schema.orUntyped()
	occurrences, err := serializer.SerializeAll(schema, value)
	if err != nil {
		return nil, err
	}

	if len(occurrences) == 1 && occurrences[0] == "" && !schema.allowEmptyValue {
		if schema.required {
			return nil, schema.Validate(nil)
		}
		return nil, nil
	}
	if len(occurrences) == 0 && schema.required {
		return nil, schema.Validate(nil)
	}
	return occurrences, nil
}

// WriteHeader replaces the schema's header with the rendered value.
func (serializer *Serializer) WriteHeader(
	schema *PartSchema, headers http.Header, value interface{},
) error {
	schema = schema.orUntyped()
	occurrences, err := serializer.WritePart(schema, value)
	if err != nil {
		return err
	}

	headers.Del(schema.name)
	for _, occurrence := range occurrences {
		headers.Add(schema.name, occurrence)
	}
	return nil
}

// WriteQuery replaces the schema's query parameter with the rendered value.
func (serializer *Serializer) WriteQuery(
	schema *PartSchema, values url.Values, value interface{},
) error {
	schema = schema.orUntyped()
	occurrences, err := serializer.WritePart(schema, value)
	if err != nil {
		return err
	}

	values.Del(schema.name)
	for _, occurrence := range occurrences {
		values.Add(schema.name, occurrence)
	}
	return nil
}

package httppart

import (
	"strconv"
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	"github.com/illuscio-dev/spanmarshal-go/uon"
	"golang.org/x/xerrors"
)

// One item or property value split out of a collection part. text is nil for UON
// null, value is the decoded structure for UON input and the text otherwise.
type partValue struct {
	key   string
	text  *string
	value interface{}
}

func textValue(text string) partValue {
	return partValue{text: &text, value: text}
}

func structuredValue(value interface{}) partValue {
	return partValue{text: rawText(value), value: value}
}

// Renders a decoded UON value back to the raw text a nested schema expects.
func rawText(value interface{}) *string {
	var text string
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		text = typed
	case bool:
		text = strconv.FormatBool(typed)
	case int64:
		text = strconv.FormatInt(typed, 10)
	case float64:
		text = strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		encoded, err := uon.Marshal(value)
		if err != nil {
			encoded = ""
		}
		text = encoded
	}
	return &text
}

func isUONList(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "@(")
}

// Splits raw array text into items according to the collection format. Untyped
// collection formats read UON lists when the text starts with "@(" and csv otherwise.
func (schema *PartSchema) splitArray(text string) ([]partValue, error) {
	collectionFormat := schema.collectionFormat

	if collectionFormat == CollectionUONC ||
		(collectionFormat == CollectionNone && isUONList(text)) {
		decoded, err := uon.Unmarshal(text)
		if err != nil {
			return nil, err
		}
		elements, ok := decoded.([]interface{})
		if !ok {
			return []partValue{structuredValue(decoded)}, nil
		}
		items := make([]partValue, len(elements))
		for index, element := range elements {
			items[index] = structuredValue(element)
		}
		return items, nil
	}

	if text == "" {
		return []partValue{}, nil
	}

	pieces := strings.Split(text, collectionFormat.Delimiter())
	items := make([]partValue, len(pieces))
	for index, piece := range pieces {
		items[index] = textValue(piece)
	}
	return items, nil
}

// Splits raw object text into entries: key=value pairs joined by the collection
// delimiter when a collection format is set, a UON map otherwise.
func (schema *PartSchema) splitObject(text string) ([]partValue, error) {
	if schema.usesUONMap() {
		decoded, err := uon.Unmarshal(text)
		if err != nil {
			return nil, err
		}
		entries, ok := spantypes.Entries(decoded)
		if !ok {
			return nil, xerrors.New("not a UON map")
		}
		values := make([]partValue, len(entries))
		for index, entry := range entries {
			values[index] = structuredValue(entry.Value)
			values[index].key = entry.Key
		}
		return values, nil
	}

	if text == "" {
		return []partValue{}, nil
	}

	pieces := strings.Split(text, schema.collectionFormat.Delimiter())
	values := make([]partValue, len(pieces))
	for index, piece := range pieces {
		key, value, found := strings.Cut(piece, "=")
		if !found {
			return nil, xerrors.Errorf("entry '%v' has no '='", piece)
		}
		values[index] = textValue(value)
		values[index].key = key
	}
	return values, nil
}

// Joins serialized items per the collection format. multi joins with "," here;
// SerializeAll is the way to emit one occurrence per item. uonc items must already
// be UON tokens.
func (schema *PartSchema) joinArray(items []string) string {
	if schema.collectionFormat == CollectionUONC {
		return "@(" + strings.Join(items, ",") + ")"
	}
	return strings.Join(items, schema.collectionFormat.Delimiter())
}

// usesUONMap is true when objects are written as UON maps rather than k=v pairs.
func (schema *PartSchema) usesUONMap() bool {
	return schema.collectionFormat == CollectionNone ||
		schema.collectionFormat == CollectionUONC
}

// Values must already be UON tokens when usesUONMap is true.
func (schema *PartSchema) joinObject(keys []string, values []string) string {
	if schema.usesUONMap() {
		builder := strings.Builder{}
		builder.WriteByte('(')
		for index, key := range keys {
			if index > 0 {
				builder.WriteByte(',')
			}
			builder.WriteString(uon.Quote(key))
			builder.WriteByte('=')
			builder.WriteString(values[index])
		}
		builder.WriteByte(')')
		return builder.String()
	}

	pairs := make([]string, len(keys))
	for index, key := range keys {
		pairs[index] = key + "=" + values[index]
	}
	return strings.Join(pairs, schema.collectionFormat.Delimiter())
}

// isUntyped schemas carry no type or format, so their values are written as UON.
func (schema *PartSchema) isUntyped() bool {
	return schema.partType == TypeNone && schema.format == FormatNone
}

// Numbers, booleans, UON-formatted values, uonc arrays and UON maps are already valid
// UON tokens. Anything else is a string and gets quoted when needed.
func uonToken(text string, schema *PartSchema) string {
	schema = schema.orUntyped()
	switch {
	case schema.partType.IsNumeric(), schema.partType == TypeBoolean:
		return text
	case schema.format == FormatUON:
		return text
	case schema.partType == TypeArray && schema.collectionFormat == CollectionUONC:
		return text
	case schema.partType == TypeObject && schema.usesUONMap():
		return text
	}
	return uon.Quote(text)
}

package httppart

import (
	"strconv"
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"golang.org/x/xerrors"
)

/*
Tag is a constraint source parsed from struct-tag style text, for example:

	name=ids;in=query;type=array;collectionFormat=pipes;minItems=1;items.type=integer

Entries are separated by ";" and written as key=value. Boolean keys (required,
allowEmptyValue, exclusiveMinimum, exclusiveMaximum, uniqueItems) may be written bare.
enum values are separated by "|". A value wrapped in single quotes may contain ";",
with \' and \\ as escapes. Keys prefixed with "items." describe the array items, and
may nest further.
*/
type Tag struct {
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

	enum         []string
	items        *Tag
	defaultValue *string
}

func (tag *Tag) Name() string                       { return tag.name }
func (tag *Tag) In() Location                       { return tag.in }
func (tag *Tag) Type() Type                         { return tag.partType }
func (tag *Tag) Format() Format                     { return tag.format }
func (tag *Tag) CollectionFormat() CollectionFormat { return tag.collectionFormat }
func (tag *Tag) Required() bool                     { return tag.required }
func (tag *Tag) AllowEmptyValue() bool              { return tag.allowEmptyValue }
func (tag *Tag) Pattern() string                    { return tag.pattern }
func (tag *Tag) Minimum() *float64                  { return tag.minimum }
func (tag *Tag) Maximum() *float64                  { return tag.maximum }
func (tag *Tag) ExclusiveMinimum() bool             { return tag.exclusiveMinimum }
func (tag *Tag) ExclusiveMaximum() bool             { return tag.exclusiveMaximum }
func (tag *Tag) MultipleOf() *float64               { return tag.multipleOf }
func (tag *Tag) MinLength() *int64                  { return tag.minLength }
func (tag *Tag) MaxLength() *int64                  { return tag.maxLength }
func (tag *Tag) MinItems() *int64                   { return tag.minItems }
func (tag *Tag) MaxItems() *int64                   { return tag.maxItems }
func (tag *Tag) UniqueItems() bool                  { return tag.uniqueItems }
func (tag *Tag) Enum() []string                     { return tag.enum }

func (tag *Tag) ItemSource() Source {
	if tag.items == nil {
		return nil
	}
	return tag.items
}

func (tag *Tag) Default() (string, bool) {
	if tag.defaultValue == nil {
		return "", false
	}
	return *tag.defaultValue, true
}

// ParseTag parses tag text. Unknown keys and malformed values are a
// spanerrors.ConfigurationError.
func ParseTag(text string) (*Tag, error) {
	entries, err := splitTag(text)
	if err != nil {
		return nil, tagError(text, err.Error())
	}

	tag := &Tag{}
	for _, entry := range entries {
		if err := tag.set(entry.key, entry.value, entry.bare); err != nil {
			return nil, tagError(text, err.Error())
		}
	}
	return tag, nil
}

// SchemaFromTag parses tag text and builds the schema it describes.
func SchemaFromTag(text string) (*PartSchema, error) {
	tag, err := ParseTag(text)
	if err != nil {
		return nil, err
	}
	return NewSchemaBuilder().Apply(tag).Build()
}

func tagError(text string, problem string) error {
	return spanerrors.ConfigurationError.New(
		"bad part tag '"+text+"': "+problem,
		map[string]interface{}{"tag": text},
		nil,
	)
}

type tagEntry struct {
	key   string
	value string
	bare  bool
}

func splitTag(text string) ([]tagEntry, error) {
	entries := make([]tagEntry, 0)
	current := strings.Builder{}
	quoted := false
	wasQuoted := false

	flush := func() error {
		raw := current.String()
		current.Reset()
		if strings.TrimSpace(raw) == "" && !wasQuoted {
			return nil
		}
		key, value, found := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return xerrors.New("entry '" + raw + "' has no key")
		}
		if !wasQuoted {
			value = strings.TrimSpace(value)
		}
		entries = append(entries, tagEntry{key: key, value: value, bare: !found})
		wasQuoted = false
		return nil
	}

	for index := 0; index < len(text); index++ {
		char := text[index]
		switch {
		case quoted && char == '\\' && index+1 < len(text):
			index++
			current.WriteByte(text[index])
		case quoted && char == '\'':
			quoted = false
		case !quoted && char == '\'' && strings.HasSuffix(current.String(), "="):
			quoted = true
			wasQuoted = true
		case !quoted && char == ';':
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			current.WriteByte(char)
		}
	}

	if quoted {
		return nil, xerrors.New("unterminated quote")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (tag *Tag) set(key string, value string, bare bool) error {
	if strings.HasPrefix(key, "items.") {
		if tag.items == nil {
			tag.items = &Tag{}
		}
		return tag.items.set(strings.TrimPrefix(key, "items."), value, bare)
	}

	switch key {
	case "required":
		return parseFlag(key, value, bare, &tag.required)
	case "allowEmptyValue":
		return parseFlag(key, value, bare, &tag.allowEmptyValue)
	case "exclusiveMinimum":
		return parseFlag(key, value, bare, &tag.exclusiveMinimum)
	case "exclusiveMaximum":
		return parseFlag(key, value, bare, &tag.exclusiveMaximum)
	case "uniqueItems":
		return parseFlag(key, value, bare, &tag.uniqueItems)
	}

	if bare {
		return xerrors.New("key '" + key + "' needs a value")
	}

	switch key {
	case "name":
		tag.name = value
	case "in":
		tag.in = Location(value)
	case "type":
		tag.partType = Type(value)
	case "format":
		tag.format = Format(value)
	case "collectionFormat":
		tag.collectionFormat = CollectionFormat(value)
	case "pattern":
		tag.pattern = value
	case "enum":
		tag.enum = strings.Split(value, "|")
	case "default":
		tag.defaultValue = &value
	case "minimum":
		return parseFloat(key, value, &tag.minimum)
	case "maximum":
		return parseFloat(key, value, &tag.maximum)
	case "multipleOf":
		return parseFloat(key, value, &tag.multipleOf)
	case "minLength":
		return parseInt(key, value, &tag.minLength)
	case "maxLength":
		return parseInt(key, value, &tag.maxLength)
	case "minItems":
		return parseInt(key, value, &tag.minItems)
	case "maxItems":
		return parseInt(key, value, &tag.maxItems)
	default:
		return xerrors.New("unknown key '" + key + "'")
	}
	return nil
}

func parseFlag(key string, value string, bare bool, destination *bool) error {
	if bare {
		*destination = true
		return nil
	}
	flag, err := strconv.ParseBool(value)
	if err != nil {
		return xerrors.New(key + " is not a boolean: '" + value + "'")
	}
	*destination = flag
	return nil
}

func parseFloat(key string, value string, destination **float64) error {
	number, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return xerrors.New(key + " is not a number: '" + value + "'")
	}
	*destination = &number
	return nil
}

func parseInt(key string, value string, destination **int64) error {
	integer, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return xerrors.New(key + " is not an integer: '" + value + "'")
	}
	*destination = &integer
	return nil
}

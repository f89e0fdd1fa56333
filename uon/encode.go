/*
UON (URL-safe Object Notation) encoding of structured values.

UON carries the JSON data model in a syntax that survives inside URL query strings and
path segments:

	null, true, false     literals
	123, -1.5e3           numbers
	foo, 'a b,c'          strings; quoted when ambiguous, with ~ escaping ' and ~
	@(a,b,c)              lists
	(key=value,k2=v2)     maps

A string is quoted when it is empty, reads as a literal or number, has surrounding
whitespace, starts with "@", or holds one of the characters ,()='~. Quoted strings
escape ' and ~ with a leading ~.

Byte slices encode as standard base64 strings and times as RFC 3339 strings.
*/
package uon

import (
	"encoding/base64"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	"golang.org/x/xerrors"
)

// Literal is written verbatim by Marshal. It lets callers embed values that are
// already UON, such as numbers formatted by a part schema.
type Literal string

// Marshal encodes value as UON.
func Marshal(value interface{}) (string, error) {
	builder := strings.Builder{}
	if err := encodeValue(&builder, value); err != nil {
		return "", err
	}
	return builder.String(), nil
}

// Quote returns text as a UON string token, quoting it only when required.
func Quote(text string) string {
	if !NeedsQuotes(text) {
		return text
	}

	builder := strings.Builder{}
	builder.Grow(len(text) + 2)
	builder.WriteByte('\'')
	for _, char := range text {
		if char == '\'' || char == '~' {
			builder.WriteByte('~')
		}
		builder.WriteRune(char)
	}
	builder.WriteByte('\'')
	return builder.String()
}

// NeedsQuotes reports whether text would be misread as anything but a string when
// written bare.
func NeedsQuotes(text string) bool {
	if text == "" {
		return true
	}
	switch text {
	case "null", "true", "false":
		return true
	}
	if looksLikeNumber(text) {
		return true
	}
	if strings.TrimSpace(text) != text || text[0] == '@' {
		return true
	}
	return strings.ContainsAny(text, ",()='~")
}

// Strict number grammar shared by the encoder and decoder:
// -?digits(.digits)?([eE][+-]?digits)?
func looksLikeNumber(text string) bool {
	index := 0
	if index < len(text) && text[index] == '-' {
		index++
	}

	digits := countDigits(text[index:])
	if digits == 0 {
		return false
	}
	index += digits

	if index < len(text) && text[index] == '.' {
		index++
		fraction := countDigits(text[index:])
		if fraction == 0 {
			return false
		}
		index += fraction
	}

	if index < len(text) && (text[index] == 'e' || text[index] == 'E') {
		index++
		if index < len(text) && (text[index] == '+' || text[index] == '-') {
			index++
		}
		exponent := countDigits(text[index:])
		if exponent == 0 {
			return false
		}
		index += exponent
	}

	return index == len(text)
}

func countDigits(text string) int {
	count := 0
	for count < len(text) && text[count] >= '0' && text[count] <= '9' {
		count++
	}
	return count
}

func encodeValue(builder *strings.Builder, value interface{}) error {
	value = spantypes.Indirect(value)

	switch typed := value.(type) {
	case nil:
		builder.WriteString("null")
		return nil
	case Literal:
		builder.WriteString(string(typed))
		return nil
	case string:
		builder.WriteString(Quote(typed))
		return nil
	case bool:
		builder.WriteString(strconv.FormatBool(typed))
		return nil
	case []byte:
		builder.WriteString(Quote(base64.StdEncoding.EncodeToString(typed)))
		return nil
	case spantypes.BinData:
		builder.WriteString(Quote(base64.StdEncoding.EncodeToString(typed)))
		return nil
	case time.Time:
		builder.WriteString(Quote(typed.Format(time.RFC3339Nano)))
		return nil
	}

	if entries, ok := spantypes.Entries(value); ok {
		return encodeMap(builder, entries)
	}
	if elements, ok := spantypes.Elements(value); ok {
		return encodeList(builder, elements)
	}

	return encodeNumber(builder, value)
}

func encodeNumber(builder *strings.Builder, value interface{}) error {
	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		builder.WriteString(strconv.FormatInt(reflected.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		builder.WriteString(strconv.FormatUint(reflected.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		number := reflected.Float()
		if math.IsNaN(number) || math.IsInf(number, 0) {
			return xerrors.Errorf("uon: cannot encode %v", number)
		}
		bitSize := 64
		if reflected.Kind() == reflect.Float32 {
			bitSize = 32
		}
		builder.WriteString(strconv.FormatFloat(number, 'g', -1, bitSize))
	case reflect.String:
		builder.WriteString(Quote(reflected.String()))
	case reflect.Bool:
		builder.WriteString(strconv.FormatBool(reflected.Bool()))
	default:
		return xerrors.Errorf("uon: unsupported type %T", value)
	}
	return nil
}

func encodeMap(builder *strings.Builder, entries []spantypes.Entry) error {
	builder.WriteByte('(')
	for index, entry := range entries {
		if index > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(Quote(entry.Key))
		builder.WriteByte('=')
		if err := encodeValue(builder, entry.Value); err != nil {
			return err
		}
	}
	builder.WriteByte(')')
	return nil
}

func encodeList(builder *strings.Builder, elements []interface{}) error {
	builder.WriteString("@(")
	for index, element := range elements {
		if index > 0 {
			builder.WriteByte(',')
		}
		if err := encodeValue(builder, element); err != nil {
			return err
		}
	}
	builder.WriteByte(')')
	return nil
}

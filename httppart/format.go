package httppart

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	"github.com/illuscio-dev/spanmarshal-go/uon"
	"golang.org/x/xerrors"
)

const dateLayout = "2006-01-02"

// Writes one scalar per the schema format, then per the schema type. A failed
// conversion returns the violation to report.
func (schema *PartSchema) formatScalar(value interface{}) (string, *Violation) {
	switch schema.format {
	case FormatInt32, FormatInt64:
		integer, ok := toInt64(value)
		if !ok {
			return "", mismatch(schema.format, value)
		}
		if schema.format == FormatInt32 &&
			(integer < math.MinInt32 || integer > math.MaxInt32) {
			return "", &Violation{Rule: ErrRange, Expected: "int32", Actual: fmt.Sprint(value)}
		}
		return strconv.FormatInt(integer, 10), nil
	case FormatFloat, FormatDouble:
		number, ok := toFloat64(value)
		if !ok {
			return "", mismatch(schema.format, value)
		}
		bitSize := 64
		if schema.format == FormatFloat {
			bitSize = 32
		}
		return strconv.FormatFloat(number, 'f', -1, bitSize), nil
	case FormatByte:
		data, ok := toBytes(value)
		if !ok {
			return "", mismatch(schema.format, value)
		}
		return base64.StdEncoding.EncodeToString(data), nil
	case FormatBinary, FormatBinarySpaced:
		data, ok := toBytes(value)
		if !ok {
			return "", mismatch(schema.format, value)
		}
		return formatHex(data, schema.format == FormatBinarySpaced), nil
	case FormatDate, FormatDateTime:
		switch typed := value.(type) {
		case time.Time:
			if schema.format == FormatDate {
				return typed.Format(dateLayout), nil
			}
			return typed.Format(time.RFC3339Nano), nil
		case string:
			return typed, nil
		}
		return "", mismatch(schema.format, value)
	case FormatUON:
		encoded, err := uon.Marshal(value)
		if err != nil {
			return "", &Violation{Rule: ErrParse, Expected: "uon", Actual: err.Error()}
		}
		return encoded, nil
	}

	switch schema.partType {
	case TypeInteger:
		integer, ok := toInt64(value)
		if !ok {
			return "", mismatch(TypeInteger, value)
		}
		return strconv.FormatInt(integer, 10), nil
	case TypeNumber:
		number, ok := toFloat64(value)
		if !ok {
			return "", mismatch(TypeNumber, value)
		}
		return strconv.FormatFloat(number, 'f', -1, 64), nil
	case TypeBoolean:
		boolean, ok := toBool(value)
		if !ok {
			return "", mismatch(TypeBoolean, value)
		}
		return strconv.FormatBool(boolean), nil
	}

	return scalarString(value), nil
}

func mismatch(expected interface{}, value interface{}) *Violation {
	return &Violation{
		Rule:     ErrTypeMismatch,
		Expected: fmt.Sprint(expected),
		Actual:   fmt.Sprintf("%T", value),
	}
}

// Plain text rendering of an untyped scalar.
func scalarString(value interface{}) string {
	switch typed := value.(type) {
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case []byte:
		return base64.StdEncoding.EncodeToString(typed)
	case spantypes.BinData:
		return base64.StdEncoding.EncodeToString(typed)
	case time.Time:
		return typed.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return typed.String()
	}

	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(reflected.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(reflected.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(reflected.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(reflected.Float(), 'f', -1, 64)
	case reflect.String:
		return reflected.String()
	}
	return fmt.Sprint(value)
}

func formatHex(data []byte, spaced bool) string {
	encoded := strings.ToUpper(hex.EncodeToString(data))
	if !spaced || len(encoded) == 0 {
		return encoded
	}

	builder := strings.Builder{}
	builder.Grow(len(encoded) + len(data) - 1)
	for index := 0; index < len(encoded); index += 2 {
		if index > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(encoded[index : index+2])
	}
	return builder.String()
}

// Reads one scalar per the schema format, then per the schema type.
func (schema *PartSchema) parseScalar(text string) (interface{}, error) {
	switch schema.format {
	case FormatInt32, FormatInt64:
		return strconv.ParseInt(text, 10, 64)
	case FormatFloat, FormatDouble:
		return strconv.ParseFloat(text, 64)
	case FormatByte:
		data, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return base64.URLEncoding.DecodeString(text)
		}
		return data, nil
	case FormatBinary:
		return hex.DecodeString(text)
	case FormatBinarySpaced:
		return hex.DecodeString(strings.ReplaceAll(text, " ", ""))
	case FormatDate:
		parsed, err := time.Parse(dateLayout, text)
		if err != nil {
			return time.Parse(time.RFC3339Nano, text)
		}
		return parsed, nil
	case FormatDateTime:
		return time.Parse(time.RFC3339Nano, text)
	case FormatUON:
		return uon.Unmarshal(text)
	}

	switch schema.partType {
	case TypeInteger:
		return strconv.ParseInt(text, 10, 64)
	case TypeNumber:
		return strconv.ParseFloat(text, 64)
	case TypeBoolean:
		if !isBool(text) {
			return nil, xerrors.Errorf("'%v' is not a boolean", text)
		}
		return strings.EqualFold(text, "true"), nil
	}
	return text, nil
}

func toInt64(value interface{}) (int64, bool) {
	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflected.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		unsigned := reflected.Uint()
		if unsigned > math.MaxInt64 {
			return 0, false
		}
		return int64(unsigned), true
	case reflect.Float32, reflect.Float64:
		number := reflected.Float()
		if number != math.Trunc(number) || math.Abs(number) >= math.MaxInt64 {
			return 0, false
		}
		return int64(number), true
	case reflect.String:
		integer, err := strconv.ParseInt(reflected.String(), 10, 64)
		return integer, err == nil
	}
	return 0, false
}

func toFloat64(value interface{}) (float64, bool) {
	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(reflected.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(reflected.Uint()), true
	case reflect.Float32, reflect.Float64:
		return reflected.Float(), true
	case reflect.String:
		number, err := strconv.ParseFloat(reflected.String(), 64)
		return number, err == nil
	}
	return 0, false
}

func toBool(value interface{}) (bool, bool) {
	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Bool:
		return reflected.Bool(), true
	case reflect.String:
		if !isBool(reflected.String()) {
			return false, false
		}
		return strings.EqualFold(reflected.String(), "true"), true
	}
	return false, false
}

func toBytes(value interface{}) ([]byte, bool) {
	switch typed := value.(type) {
	case []byte:
		return typed, true
	case spantypes.BinData:
		return typed, true
	case string:
		return []byte(typed), true
	}
	return nil, false
}

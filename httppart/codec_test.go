package httppart_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/illuscio-dev/spanmarshal-go/httppart"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(text string) *string {
	return &text
}

func TestScalarRoundTrip(test *testing.T) {
	serializer := httppart.NewSerializer()
	parser := httppart.NewParser()

	test.Run("int32", func(test *testing.T) {
		assert := assert.New(test)
		schema := httppart.NewSchemaBuilder().
			Type(httppart.TypeInteger).Format(httppart.FormatInt32).MustBuild()

		text, err := serializer.Serialize(schema, int32(-42))
		assert.NoError(err)
		assert.Equal("-42", text)

		var parsed int32
		assert.NoError(parser.Parse(schema, &text, &parsed))
		assert.Equal(int32(-42), parsed)
	})

	test.Run("int64", func(test *testing.T) {
		assert := assert.New(test)
		schema := httppart.NewSchemaBuilder().
			Type(httppart.TypeInteger).Format(httppart.FormatInt64).MustBuild()

		text, err := serializer.Serialize(schema, int64(9000000000))
		assert.NoError(err)
		assert.Equal("9000000000", text)

		var parsed int64
		assert.NoError(parser.Parse(schema, &text, &parsed))
		assert.Equal(int64(9000000000), parsed)
	})

	test.Run("float", func(test *testing.T) {
		assert := assert.New(test)
		schema := httppart.NewSchemaBuilder().
			Type(httppart.TypeNumber).Format(httppart.FormatFloat).MustBuild()

		text, err := serializer.Serialize(schema, float32(1.5))
		assert.NoError(err)
		assert.Equal("1.5", text)

		var parsed float32
		assert.NoError(parser.Parse(schema, &text, &parsed))
		assert.Equal(float32(1.5), parsed)
	})

	test.Run("double", func(test *testing.T) {
		assert := assert.New(test)
		schema := httppart.NewSchemaBuilder().
			Type(httppart.TypeNumber).Format(httppart.FormatDouble).MustBuild()

		text, err := serializer.Serialize(schema, 3.14159)
		assert.NoError(err)
		assert.Equal("3.14159", text)

		var parsed float64
		assert.NoError(parser.Parse(schema, &text, &parsed))
		assert.Equal(3.14159, parsed)
	})

	test.Run("byte", func(test *testing.T) {
		assert := assert.New(test)
		schema := httppart.NewSchemaBuilder().
			Type(httppart.TypeString).Format(httppart.FormatByte).MustBuild()

		text, err := serializer.Serialize(schema, []byte("hello"))
		assert.NoError(err)
		assert.Equal("aGVsbG8=", text)

		var parsed []byte
		assert.NoError(parser.Parse(schema, &text, &parsed))
		assert.Equal([]byte("hello"), parsed)
	})

	test.Run("binary", func(test *testing.T) {
		assert := assert.New(test)
		schema := httppart.NewSchemaBuilder().
			Type(httppart.TypeString).Format(httppart.FormatBinary).MustBuild()

		text, err := serializer.Serialize(schema, []byte{0xde, 0xad, 0xbe, 0xef})
		assert.NoError(err)
		assert.Equal("DEADBEEF", text)

		var parsed []byte
		assert.NoError(parser.Parse(schema, &text, &parsed))
		assert.Equal([]byte{0xde, 0xad, 0xbe, 0xef}, parsed)
	})

	test.Run("binary-spaced", func(test *testing.T) {
		assert := assert.New(test)
		schema := httppart.NewSchemaBuilder().
			Type(httppart.TypeString).Format(httppart.FormatBinarySpaced).MustBuild()

		text, err := serializer.Serialize(schema, []byte{0x01, 0xab})
		assert.NoError(err)
		assert.Equal("01 AB", text)

		var parsed []byte
		assert.NoError(parser.Parse(schema, &text, &parsed))
		assert.Equal([]byte{0x01, 0xab}, parsed)
	})

	test.Run("date", func(test *testing.T) {
		assert := assert.New(test)
		schema := httppart.NewSchemaBuilder().
			Type(httppart.TypeString).Format(httppart.FormatDate).MustBuild()
		value := time.Date(2020, 5, 17, 0, 0, 0, 0, time.UTC)

		text, err := serializer.Serialize(schema, value)
		assert.NoError(err)
		assert.Equal("2020-05-17", text)

		var parsed time.Time
		assert.NoError(parser.Parse(schema, &text, &parsed))
		assert.True(value.Equal(parsed), parsed.String())
	})

	test.Run("date-time", func(test *testing.T) {
		assert := assert.New(test)
		schema := httppart.NewSchemaBuilder().
			Type(httppart.TypeString).Format(httppart.FormatDateTime).MustBuild()
		value := time.Date(2020, 5, 17, 10, 20, 30, 123000000, time.UTC)

		text, err := serializer.Serialize(schema, value)
		assert.NoError(err)
		assert.Equal("2020-05-17T10:20:30.123Z", text)

		var parsed time.Time
		assert.NoError(parser.Parse(schema, &text, &parsed))
		assert.True(value.Equal(parsed), parsed.String())
	})

	test.Run("uon", func(test *testing.T) {
		assert := assert.New(test)
		schema := httppart.NewSchemaBuilder().Format(httppart.FormatUON).MustBuild()
		value := []interface{}{int64(1), "two", true}

		text, err := serializer.Serialize(schema, value)
		assert.NoError(err)
		assert.Equal("@(1,two,true)", text)

		var parsed interface{}
		assert.NoError(parser.Parse(schema, &text, &parsed))
		assert.Equal(value, parsed)
	})

	test.Run("boolean", func(test *testing.T) {
		assert := assert.New(test)
		schema := httppart.NewSchemaBuilder().Type(httppart.TypeBoolean).MustBuild()

		text, err := serializer.Serialize(schema, true)
		assert.NoError(err)
		assert.Equal("true", text)

		var parsed bool
		assert.NoError(parser.Parse(schema, raw("TRUE"), &parsed))
		assert.True(parsed)
	})
}

func TestArrayCollectionFormats(test *testing.T) {
	serializer := httppart.NewSerializer()
	parser := httppart.NewParser()
	value := []string{"a", "b", "c"}

	tests := []struct {
		collectionFormat httppart.CollectionFormat
		expected         string
	}{
		{httppart.CollectionCSV, "a,b,c"},
		{httppart.CollectionPipes, "a|b|c"},
		{httppart.CollectionSSV, "a b c"},
		{httppart.CollectionTSV, "a\tb\tc"},
		{httppart.CollectionUONC, "@(a,b,c)"},
		{httppart.CollectionMulti, "a,b,c"},
	}

	for _, tt := range tests {
		test.Run(string(tt.collectionFormat), func(test *testing.T) {
			assert := assert.New(test)
			schema := httppart.NewSchemaBuilder().
				Type(httppart.TypeArray).
				CollectionFormat(tt.collectionFormat).
				Items(httppart.NewSchemaBuilder().Type(httppart.TypeString)).
				MustBuild()

			text, err := serializer.Serialize(schema, value)
			assert.NoError(err)
			assert.Equal(tt.expected, text)

			if tt.collectionFormat == httppart.CollectionMulti {
				return
			}

			var parsed []string
			assert.NoError(parser.Parse(schema, &text, &parsed))
			assert.Equal(value, parsed)
		})
	}
}

func TestMultiOccurrences(test *testing.T) {
	assert := assert.New(test)
	schema := httppart.NewSchemaBuilder().
		Name("id").
		Type(httppart.TypeArray).
		CollectionFormat(httppart.CollectionMulti).
		Items(httppart.NewSchemaBuilder().Type(httppart.TypeInteger)).
		MustBuild()

	occurrences, err := httppart.NewSerializer().SerializeAll(schema, []int{1, 2, 3})
	assert.NoError(err)
	assert.Equal([]string{"1", "2", "3"}, occurrences)

	var parsed []int64
	assert.NoError(httppart.NewParser().ParseAll(schema, occurrences, &parsed))
	assert.Equal([]int64{1, 2, 3}, parsed)

	err = httppart.NewParser().ParseAll(schema, []string{"1", "x"}, &parsed)
	assert.True(errors.Is(err, httppart.ErrTypeMismatch))
}

func TestUONCQuotesItems(test *testing.T) {
	assert := assert.New(test)
	schema := httppart.NewSchemaBuilder().
		Type(httppart.TypeArray).
		CollectionFormat(httppart.CollectionUONC).
		Items(httppart.NewSchemaBuilder().Type(httppart.TypeString)).
		MustBuild()

	text, err := httppart.NewSerializer().Serialize(schema, []string{"a,b", "c", "12"})
	assert.NoError(err)
	assert.Equal("@('a,b',c,'12')", text)

	var parsed []string
	assert.NoError(httppart.NewParser().Parse(schema, &text, &parsed))
	assert.Equal([]string{"a,b", "c", "12"}, parsed)
}

func TestNestedArrays(test *testing.T) {
	assert := assert.New(test)
	schema := httppart.NewSchemaBuilder().
		Type(httppart.TypeArray).
		CollectionFormat(httppart.CollectionCSV).
		Items(
			httppart.NewSchemaBuilder().
				Type(httppart.TypeArray).
				CollectionFormat(httppart.CollectionPipes).
				Items(httppart.NewSchemaBuilder().Type(httppart.TypeInteger)),
		).
		MustBuild()

	text, err := httppart.NewSerializer().Serialize(schema, [][]int{{1, 2}, {3}})
	assert.NoError(err)
	assert.Equal("1|2,3", text)

	var parsed [][]int64
	assert.NoError(httppart.NewParser().Parse(schema, &text, &parsed))
	assert.Equal([][]int64{{1, 2}, {3}}, parsed)
}

func TestObjectPairs(test *testing.T) {
	assert := assert.New(test)
	schema := httppart.NewSchemaBuilder().
		Type(httppart.TypeObject).
		CollectionFormat(httppart.CollectionCSV).
		MustBuild()

	text, err := httppart.NewSerializer().Serialize(schema, spantypes.MapOf("b", "2", "a", "1"))
	assert.NoError(err)
	assert.Equal("b=2,a=1", text)

	parsed := spantypes.NewObjectMap()
	assert.NoError(httppart.NewParser().Parse(schema, &text, parsed))
	assert.Equal(2, parsed.Len())
	assert.Equal("b", parsed.Oldest().Key)

	value, ok := parsed.Get("a")
	assert.True(ok)
	assert.Equal("1", value)

	err = httppart.NewParser().Parse(schema, raw("b"), parsed)
	assert.True(errors.Is(err, httppart.ErrTypeMismatch))
}

func TestObjectUON(test *testing.T) {
	assert := assert.New(test)
	schema := httppart.NewSchemaBuilder().
		Type(httppart.TypeObject).
		Property("count", httppart.NewSchemaBuilder().Type(httppart.TypeInteger)).
		MustBuild()

	value := spantypes.MapOf("name", "x y", "count", 3)
	text, err := httppart.NewSerializer().Serialize(schema, value)
	assert.NoError(err)
	assert.Equal("(name=x y,count=3)", text)

	var parsed map[string]interface{}
	assert.NoError(httppart.NewParser().Parse(schema, &text, &parsed))
	assert.Equal(map[string]interface{}{"name": "x y", "count": int64(3)}, parsed)

	err = httppart.NewParser().Parse(schema, raw("(count=many)"), &parsed)
	assert.True(errors.Is(err, httppart.ErrTypeMismatch))
}

func TestDefaults(test *testing.T) {
	assert := assert.New(test)
	schema := httppart.NewSchemaBuilder().
		Type(httppart.TypeInteger).
		Default("5").
		MustBuild()

	text, err := httppart.NewSerializer().Serialize(schema, nil)
	assert.NoError(err)
	assert.Equal("5", text)

	var parsed int
	assert.NoError(httppart.NewParser().Parse(schema, nil, &parsed))
	assert.Equal(5, parsed)

	noDefault := httppart.NewSchemaBuilder().Type(httppart.TypeInteger).MustBuild()
	untouched := 7
	assert.NoError(httppart.NewParser().Parse(noDefault, nil, &untouched))
	assert.Equal(7, untouched)

	text, err = httppart.NewSerializer().Serialize(noDefault, nil)
	assert.NoError(err)
	assert.Equal("", text)
}

func TestParseTargets(test *testing.T) {
	parser := httppart.NewParser()
	integers := httppart.NewSchemaBuilder().
		Type(httppart.TypeArray).
		Items(httppart.NewSchemaBuilder().Type(httppart.TypeInteger)).
		MustBuild()
	integer := httppart.NewSchemaBuilder().Type(httppart.TypeInteger).MustBuild()

	test.Run("array", func(test *testing.T) {
		var parsed [3]int
		assert.NoError(test, parser.Parse(integers, raw("1,2"), &parsed))
		assert.Equal(test, [3]int{1, 2, 0}, parsed)
	})

	test.Run("array too short", func(test *testing.T) {
		var parsed [1]int
		err := parser.Parse(integers, raw("1,2"), &parsed)
		assert.True(test, errors.Is(err, httppart.ErrParse))
	})

	test.Run("pointer", func(test *testing.T) {
		var parsed *int
		assert.NoError(test, parser.Parse(integer, raw("4"), &parsed))
		require.NotNil(test, parsed)
		assert.Equal(test, 4, *parsed)
	})

	test.Run("string from integer", func(test *testing.T) {
		var parsed string
		assert.NoError(test, parser.Parse(integer, raw("4"), &parsed))
		assert.Equal(test, "4", parsed)
	})

	test.Run("overflow", func(test *testing.T) {
		var parsed int8
		err := parser.Parse(integer, raw("300"), &parsed)
		assert.True(test, errors.Is(err, httppart.ErrParse))
		assert.True(test, errors.Is(err, spanerrors.SchemaValidationError))
	})

	test.Run("string map", func(test *testing.T) {
		schema := httppart.NewSchemaBuilder().
			Type(httppart.TypeObject).
			CollectionFormat(httppart.CollectionPipes).
			MustBuild()

		var parsed map[string]string
		assert.NoError(test, parser.Parse(schema, raw("a=1|b=2"), &parsed))
		assert.Equal(test, map[string]string{"a": "1", "b": "2"}, parsed)
	})

	test.Run("nil target", func(test *testing.T) {
		err := parser.Parse(integer, raw("4"), nil)
		assert.True(test, errors.Is(err, httppart.ErrParse))
	})

	test.Run("parse value", func(test *testing.T) {
		value, err := parser.ParseValue(integers, raw("1,2"))
		assert.NoError(test, err)
		assert.Equal(test, []interface{}{int64(1), int64(2)}, value)
	})
}

func TestParseFailures(test *testing.T) {
	parser := httppart.NewParser()

	test.Run("untyped numeric format", func(test *testing.T) {
		schema := httppart.NewSchemaBuilder().Format(httppart.FormatInt32).MustBuild()
		var parsed int
		err := parser.Parse(schema, raw("abc"), &parsed)
		assert.True(test, errors.Is(err, httppart.ErrParse))
	})

	test.Run("bad base64", func(test *testing.T) {
		schema := httppart.NewSchemaBuilder().Format(httppart.FormatByte).MustBuild()
		var parsed []byte
		err := parser.Parse(schema, raw("***"), &parsed)
		assert.True(test, errors.Is(err, httppart.ErrParse))
	})

	test.Run("bad date", func(test *testing.T) {
		schema := httppart.NewSchemaBuilder().Format(httppart.FormatDate).MustBuild()
		var parsed time.Time
		err := parser.Parse(schema, raw("yesterday"), &parsed)
		assert.True(test, errors.Is(err, httppart.ErrParse))
	})

	test.Run("nested item path", func(test *testing.T) {
		schema := httppart.NewSchemaBuilder().
			Type(httppart.TypeArray).
			Items(httppart.NewSchemaBuilder().Format(httppart.FormatInt64)).
			MustBuild()

		var parsed []int64
		err := parser.Parse(schema, raw("1,x"), &parsed)

		validationErr := new(httppart.ValidationError)
		require.True(test, errors.As(err, &validationErr))
		assert.Equal(test, "[1]", validationErr.Violations[0].Path)
		assert.Equal(test, httppart.ErrParse, validationErr.Violations[0].Rule)
	})
}

func TestSerializeFailures(test *testing.T) {
	serializer := httppart.NewSerializer()

	test.Run("int32 range", func(test *testing.T) {
		schema := httppart.NewSchemaBuilder().
			Type(httppart.TypeInteger).Format(httppart.FormatInt32).MustBuild()
		_, err := serializer.Serialize(schema, int64(1)<<40)
		assert.True(test, errors.Is(err, httppart.ErrRange))
	})

	test.Run("type mismatch", func(test *testing.T) {
		schema := httppart.NewSchemaBuilder().Type(httppart.TypeInteger).MustBuild()
		_, err := serializer.Serialize(schema, "ten")
		assert.True(test, errors.Is(err, httppart.ErrTypeMismatch))
	})

	test.Run("enum", func(test *testing.T) {
		schema := httppart.NewSchemaBuilder().
			Type(httppart.TypeString).Enum("a", "b").MustBuild()
		_, err := serializer.Serialize(schema, "c")
		assert.True(test, errors.Is(err, httppart.ErrEnum))
	})

	test.Run("max items", func(test *testing.T) {
		schema := httppart.NewSchemaBuilder().
			Type(httppart.TypeArray).MaxItems(1).MustBuild()
		_, err := serializer.Serialize(schema, []string{"a", "b"})
		assert.True(test, errors.Is(err, httppart.ErrRange))
	})
}

func TestHeaderParts(test *testing.T) {
	assert := assert.New(test)
	schema := httppart.NewSchemaBuilder().
		Name("X-Count").In(httppart.InHeader).Type(httppart.TypeInteger).MustBuild()

	headers := http.Header{}
	headers.Set("X-Count", "1")
	assert.NoError(httppart.NewSerializer().WriteHeader(schema, headers, 5))
	assert.Equal([]string{"5"}, headers.Values("X-Count"))

	var parsed int
	assert.NoError(httppart.NewParser().ReadHeader(schema, headers, &parsed))
	assert.Equal(5, parsed)

	assert.NoError(httppart.NewSerializer().WriteHeader(schema, headers, nil))
	assert.Empty(headers.Values("X-Count"))
}

func TestQueryParts(test *testing.T) {
	assert := assert.New(test)
	schema := httppart.NewSchemaBuilder().
		Name("id").
		In(httppart.InQuery).
		Type(httppart.TypeArray).
		CollectionFormat(httppart.CollectionMulti).
		Items(httppart.NewSchemaBuilder().Type(httppart.TypeInteger)).
		MustBuild()

	values := url.Values{}
	assert.NoError(httppart.NewSerializer().WriteQuery(schema, values, []int{4, 5}))
	assert.Equal("id=4&id=5", values.Encode())

	var parsed []int
	assert.NoError(httppart.NewParser().ReadQuery(schema, values, &parsed))
	assert.Equal([]int{4, 5}, parsed)
}

func TestWritePartRequired(test *testing.T) {
	assert := assert.New(test)
	schema := httppart.NewSchemaBuilder().
		Name("token").Type(httppart.TypeString).Required(true).MustBuild()

	occurrences, err := httppart.NewSerializer().WritePart(schema, nil)
	assert.Nil(occurrences)
	assert.True(errors.Is(err, httppart.ErrRequired))

	optional := httppart.NewSchemaBuilder().Name("token").MustBuild()
	occurrences, err = httppart.NewSerializer().WritePart(optional, "")
	assert.NoError(err)
	assert.Nil(occurrences)
}

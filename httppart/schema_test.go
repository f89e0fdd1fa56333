package httppart_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-openapi/spec"
	"github.com/illuscio-dev/spanmarshal-go/httppart"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProblems(test *testing.T) {
	tests := []struct {
		name    string
		builder *httppart.SchemaBuilder
		problem string
	}{
		{
			name:    "bad pattern",
			builder: httppart.NewSchemaBuilder().Pattern("["),
			problem: "bad pattern",
		},
		{
			name: "items on string",
			builder: httppart.NewSchemaBuilder().
				Type(httppart.TypeString).Items(httppart.NewSchemaBuilder()),
			problem: "items set on type string",
		},
		{
			name:    "numeric on string",
			builder: httppart.NewSchemaBuilder().Type(httppart.TypeString).Minimum(1, false),
			problem: "numeric constraints set on type string",
		},
		{
			name:    "length on integer",
			builder: httppart.NewSchemaBuilder().Type(httppart.TypeInteger).MaxLength(3),
			problem: "length constraints set on type integer",
		},
		{
			name:    "boolean enum",
			builder: httppart.NewSchemaBuilder().Type(httppart.TypeBoolean).Enum("true", "yes"),
			problem: "boolean enum value yes",
		},
		{
			name: "minimum above maximum",
			builder: httppart.NewSchemaBuilder().
				Type(httppart.TypeNumber).Minimum(5, false).Maximum(1, false),
			problem: "minimum is greater than maximum",
		},
		{
			name:    "item count on string",
			builder: httppart.NewSchemaBuilder().Type(httppart.TypeString).MinItems(1),
			problem: "item constraints set on type string",
		},
		{
			name: "nested item problem",
			builder: httppart.NewSchemaBuilder().
				Type(httppart.TypeArray).
				Items(httppart.NewSchemaBuilder().Type(httppart.TypeBoolean).MinLength(1)),
			problem: "items: length constraints set on type boolean",
		},
	}

	for _, tt := range tests {
		test.Run(tt.name, func(test *testing.T) {
			schema, err := tt.builder.Name("part").Build()
			assert.Nil(test, schema)
			require.Error(test, err)
			assert.True(test, errors.Is(err, spanerrors.ConfigurationError))
			assert.Contains(test, err.Error(), "invalid schema for part 'part'")
			assert.Contains(test, err.Error(), tt.problem)
		})
	}

	test.Run("must build panics", func(test *testing.T) {
		assert.Panics(test, func() {
			httppart.NewSchemaBuilder().Pattern("(").MustBuild()
		})
	})
}

func TestBuildShapes(test *testing.T) {
	assert := assert.New(test)

	array := httppart.NewSchemaBuilder().Type(httppart.TypeArray).MustBuild()
	require.NotNil(test, array.Items())
	assert.Equal(httppart.TypeNone, array.Items().Type())

	implied := httppart.NewSchemaBuilder().
		CollectionFormat(httppart.CollectionPipes).MustBuild()
	assert.True(implied.IsArray())

	enum := httppart.NewSchemaBuilder().Enum("a", "b", "a").MustBuild()
	assert.Equal([]string{"a", "b"}, enum.Enum())

	object := httppart.NewSchemaBuilder().
		Type(httppart.TypeObject).
		Property("b", httppart.NewSchemaBuilder().Type(httppart.TypeInteger)).
		Property("a", httppart.NewSchemaBuilder()).
		AdditionalProperties(httppart.NewSchemaBuilder().Type(httppart.TypeBoolean)).
		MustBuild()
	assert.Equal([]string{"b", "a"}, object.PropertyNames())
	assert.Equal("b", object.Property("b").Name())
	assert.Equal(httppart.TypeBoolean, object.Property("other").Type())

	minimum := httppart.NewSchemaBuilder().
		Type(httppart.TypeInteger).Minimum(1, true).MustBuild()
	*minimum.Minimum() = 100
	assert.Equal(1.0, *minimum.Minimum())
	assert.True(minimum.ExclusiveMinimum())
}

func TestApplyRefines(test *testing.T) {
	assert := assert.New(test)

	base, err := httppart.ParseTag("name=limit;in=query;type=integer;minimum=1")
	require.NoError(test, err)
	refinement, err := httppart.ParseTag("maximum=100;default=10")
	require.NoError(test, err)

	schema := httppart.NewSchemaBuilder().Apply(base, refinement, nil).MustBuild()
	assert.Equal("limit", schema.Name())
	assert.Equal(httppart.InQuery, schema.In())
	assert.Equal(httppart.TypeInteger, schema.Type())
	assert.Equal(1.0, *schema.Minimum())
	assert.Equal(100.0, *schema.Maximum())

	defaultValue, ok := schema.Default()
	assert.True(ok)
	assert.Equal("10", defaultValue)

	copied := httppart.NewSchemaBuilder().Apply(schema).Name("offset").MustBuild()
	assert.Equal("offset", copied.Name())
	assert.Equal(100.0, *copied.Maximum())
}

func TestApplySchemaCopiesProperties(test *testing.T) {
	assert := assert.New(test)
	original := httppart.NewSchemaBuilder().
		Type(httppart.TypeObject).
		Property("id", httppart.NewSchemaBuilder().Type(httppart.TypeInteger).Required(true)).
		MustBuild()

	copied := httppart.NewSchemaBuilder().Apply(original).MustBuild()
	require.NotNil(test, copied.Property("id"))
	assert.True(copied.Property("id").Required())
	assert.Equal(httppart.TypeInteger, copied.Property("id").Type())
}

func TestParseTag(test *testing.T) {
	assert := assert.New(test)

	schema, err := httppart.SchemaFromTag(
		"name=ids; in=query; type=array; collectionFormat=pipes; minItems=1; uniqueItems;" +
			"items.type=integer; items.maximum=9",
	)
	require.NoError(test, err)
	assert.Equal("ids", schema.Name())
	assert.Equal(httppart.CollectionPipes, schema.CollectionFormat())
	assert.Equal(int64(1), *schema.MinItems())
	assert.True(schema.UniqueItems())
	assert.Equal(httppart.TypeInteger, schema.Items().Type())
	assert.Equal(9.0, *schema.Items().Maximum())

	tag, err := httppart.ParseTag("pattern='^a;b\\'$';enum=x|y;required=false")
	require.NoError(test, err)
	assert.Equal("^a;b'$", tag.Pattern())
	assert.Equal([]string{"x", "y"}, tag.Enum())
	assert.False(tag.Required())
}

func TestParseTagErrors(test *testing.T) {
	tests := []struct {
		tag     string
		problem string
	}{
		{"color=red", "unknown key 'color'"},
		{"minimum=low", "minimum is not a number: 'low'"},
		{"maxItems=1.5", "maxItems is not an integer: '1.5'"},
		{"required=maybe", "required is not a boolean: 'maybe'"},
		{"pattern='abc", "unterminated quote"},
		{"name", "key 'name' needs a value"},
		{"=x", "has no key"},
	}

	for _, tt := range tests {
		test.Run(tt.tag, func(test *testing.T) {
			tag, err := httppart.ParseTag(tt.tag)
			assert.Nil(test, tag)
			require.Error(test, err)
			assert.True(test, errors.Is(err, spanerrors.ConfigurationError))
			assert.True(test, strings.Contains(err.Error(), tt.problem), err.Error())
		})
	}
}

func TestFromParameter(test *testing.T) {
	assert := assert.New(test)

	minimum := 1.0
	maxLength := int64(3)
	parameter := spec.Parameter{
		ParamProps: spec.ParamProps{Name: "limit", In: "query", Required: true},
		SimpleSchema: spec.SimpleSchema{
			Type:    "integer",
			Format:  "int32",
			Default: 10,
		},
		CommonValidations: spec.CommonValidations{
			Minimum: &minimum,
			Enum:    []interface{}{10, 20},
		},
	}

	schema := httppart.NewSchemaBuilder().Apply(httppart.FromParameter(parameter)).MustBuild()
	assert.Equal("limit", schema.Name())
	assert.Equal(httppart.InQuery, schema.In())
	assert.True(schema.Required())
	assert.Equal(httppart.FormatInt32, schema.Format())
	assert.Equal([]string{"10", "20"}, schema.Enum())
	assert.Equal(1.0, *schema.Minimum())

	defaultValue, ok := schema.Default()
	assert.True(ok)
	assert.Equal("10", defaultValue)

	assert.NoError(schema.Validate(raw("20")))
	assert.True(errors.Is(schema.Validate(raw("30")), httppart.ErrEnum))

	arrayParameter := spec.Parameter{
		ParamProps: spec.ParamProps{Name: "tags", In: "query"},
		SimpleSchema: spec.SimpleSchema{
			Type:             "array",
			CollectionFormat: "csv",
			Items: &spec.Items{
				SimpleSchema:      spec.SimpleSchema{Type: "string"},
				CommonValidations: spec.CommonValidations{MaxLength: &maxLength},
			},
		},
	}

	arraySchema := httppart.NewSchemaBuilder().
		Apply(httppart.FromParameter(arrayParameter)).MustBuild()
	assert.Equal(httppart.TypeString, arraySchema.Items().Type())
	assert.Equal(int64(3), *arraySchema.Items().MaxLength())
	assert.True(errors.Is(arraySchema.Validate(raw("ab,abcd")), httppart.ErrRange))
}

func TestFromHeader(test *testing.T) {
	assert := assert.New(test)
	maximum := 5.0
	header := spec.Header{
		SimpleSchema:      spec.SimpleSchema{Type: "number"},
		CommonValidations: spec.CommonValidations{Maximum: &maximum, ExclusiveMaximum: true},
	}

	schema := httppart.NewSchemaBuilder().
		Apply(httppart.FromHeader("X-Rate", header)).MustBuild()
	assert.Equal("X-Rate", schema.Name())
	assert.Equal(httppart.InHeader, schema.In())
	assert.True(errors.Is(schema.Validate(raw("5")), httppart.ErrRange))
	assert.NoError(schema.Validate(raw("4.5")))
}

func TestToParameter(test *testing.T) {
	assert := assert.New(test)
	schema := httppart.NewSchemaBuilder().
		Name("ids").
		In(httppart.InQuery).
		Required(true).
		Type(httppart.TypeArray).
		CollectionFormat(httppart.CollectionPipes).
		MaxItems(10).
		Items(
			httppart.NewSchemaBuilder().
				Type(httppart.TypeInteger).
				Format(httppart.FormatInt64).
				Minimum(0, true),
		).
		MustBuild()

	parameter := schema.ToParameter()
	assert.Equal("ids", parameter.Name)
	assert.Equal("query", parameter.In)
	assert.True(parameter.Required)
	assert.Equal("array", parameter.Type)
	assert.Equal("pipes", parameter.CollectionFormat)
	require.NotNil(test, parameter.MaxItems)
	assert.Equal(int64(10), *parameter.MaxItems)

	require.NotNil(test, parameter.Items)
	assert.Equal("integer", parameter.Items.Type)
	assert.Equal("int64", parameter.Items.Format)
	require.NotNil(test, parameter.Items.Minimum)
	assert.Equal(0.0, *parameter.Items.Minimum)
	assert.True(parameter.Items.ExclusiveMinimum)

	roundTrip := httppart.NewSchemaBuilder().
		Apply(httppart.FromParameter(parameter)).MustBuild()
	assert.Equal(schema.ToParameter(), roundTrip.ToParameter())

	header := httppart.NewSchemaBuilder().
		Type(httppart.TypeString).Enum("a", "b").Default("a").MustBuild().ToHeader()
	assert.Equal("string", header.Type)
	assert.Equal([]interface{}{"a", "b"}, header.Enum)
	assert.Equal("a", header.Default)
}

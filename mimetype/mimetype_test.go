package mimetype

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ParameterizeFromString(
	test *testing.T, testStrings []string, mediaTypeExpected MediaType,
) {
	for _, mediaTypeString := range testStrings {
		mediaTypeExtracted := FromString(mediaTypeString)
		assert.Equal(test, mediaTypeExpected, mediaTypeExtracted, mediaTypeString)
	}
}

func ParameterizeFromHeader(
	test *testing.T, testStrings []string, mediaTypeExpected MediaType,
) {
	for _, mediaTypeString := range testStrings {
		req := http.Request{
			Header: make(http.Header),
		}
		req.Header.Set("Content-Type", mediaTypeString)
		mediaTypeExtracted := FromHeader(req.Header)
		assert.Equal(test, mediaTypeExpected, mediaTypeExtracted, mediaTypeString)
	}
}

func TestFromJson(test *testing.T) {
	stringValues := []string{
		"json",
		"JSON",
		"x-json",
		"application/json",
		"application/JSON",
		"application/x-json",
		"application/X-JSON",
	}

	test.Run("JSON From String", func(subTest *testing.T) {
		ParameterizeFromString(subTest, stringValues, JSON)
	})
	test.Run("JSON From Header", func(subTest *testing.T) {
		ParameterizeFromHeader(subTest, stringValues, JSON)
	})
}

func TestFromYaml(test *testing.T) {
	stringValues := []string{
		"yaml",
		"YAML",
		"x-yaml",
		"application/yaml",
		"application/x-yaml",
		"application/X-YAML",
	}

	test.Run("YAML From String", func(subTest *testing.T) {
		ParameterizeFromString(subTest, stringValues, YAML)
	})
	test.Run("YAML From Header", func(subTest *testing.T) {
		ParameterizeFromHeader(subTest, stringValues, YAML)
	})
}

func TestFromText(test *testing.T) {
	ParameterizeFromString(test, []string{"text", "TEXT", "text/plain", "TEXT/plain"}, TEXT)
}

func TestFromUnknown(test *testing.T) {
	ParameterizeFromString(test, []string{"", "   "}, UNKNOWN)
	ParameterizeFromHeader(test, []string{""}, UNKNOWN)
}

func TestFromStringOther(test *testing.T) {
	stringValues := []string{"text/csv", "TEXT/CSV", "text/CSV"}
	ParameterizeFromString(test, stringValues, Parse("text/csv"))
}

func TestParseMediaType(test *testing.T) {
	assert := assert.New(test)

	mediaType := Parse(`Text/HTML; Charset="UTF-8"; level=1`)
	assert.Equal("text", mediaType.Type())
	assert.Equal("html", mediaType.Subtype())
	assert.Equal("utf-8", mediaType.Charset())
	assert.Equal(
		[]Parameter{{Name: "charset", Value: "UTF-8"}, {Name: "level", Value: "1"}},
		mediaType.Parameters(),
	)
	assert.Equal("text/html;charset=UTF-8;level=1", mediaType.String())
	assert.Equal(2, mediaType.Specificity())
}

func TestParseMalformed(test *testing.T) {
	tests := []struct {
		name     string
		text     string
		typ      string
		subtype  string
		rendered string
	}{
		{name: "missing slash", text: "json", typ: "json", subtype: "*", rendered: "json/*"},
		{name: "star type", text: "*/json", typ: "*", subtype: "*", rendered: "*/*"},
		{name: "empty subtype", text: "text/", typ: "text", subtype: "*", rendered: "text/*"},
		{name: "bare params", text: "text/plain;foo;=bar", typ: "text", subtype: "plain", rendered: "text/plain"},
	}

	for _, tt := range tests {
		test.Run(tt.name, func(subTest *testing.T) {
			assert := assert.New(subTest)
			mediaType := Parse(tt.text)
			assert.Equal(tt.typ, mediaType.Type())
			assert.Equal(tt.subtype, mediaType.Subtype())
			assert.Equal(tt.rendered, mediaType.String())
		})
	}
}

func TestParseQuotedParameterWithSeparators(test *testing.T) {
	assert := assert.New(test)

	mediaType := Parse(`text/plain; title="a;b,c \"d\""`)
	title, ok := mediaType.Parameter("title")
	assert.True(ok)
	assert.Equal(`a;b,c "d"`, title)
	assert.Equal(`text/plain;title="a;b,c \"d\""`, mediaType.String())
}

func TestWithParameterIsCopy(test *testing.T) {
	assert := assert.New(test)

	withCharset := JSON.WithParameter("charset", "utf-8")
	assert.Equal("application/json;charset=utf-8", withCharset.String())
	assert.Equal("application/json", JSON.String())
	assert.True(withCharset.Equals(JSON))
	assert.Equal(JSON, withCharset.WithoutParameters())

	replaced := withCharset.WithParameter("CHARSET", "iso-8859-1")
	assert.Equal("application/json;charset=iso-8859-1", replaced.String())
	assert.Equal("application/json;charset=utf-8", withCharset.String())

	params := withCharset.Parameters()
	params[0].Value = "changed"
	assert.Equal("utf-8", withCharset.Charset())
}

func TestIncludes(test *testing.T) {
	tests := []struct {
		pattern  string
		other    string
		expected bool
	}{
		{"*/*", "application/json", true},
		{"application/*", "application/json", true},
		{"text/*", "application/json", false},
		{"application/json", "application/json", true},
		{"application/json", "APPLICATION/JSON", true},
		{"application/json", "application/xml", false},
		{"text/plain;charset=ascii", "text/plain;charset=utf-8", true},
		{"text/html;level=1", "text/html;level=2", false},
		{"text/html;level=1", "text/html", true},
		{"application/json", "text/*", false},
		{"text/plain", "text/*", true},
	}

	for _, tt := range tests {
		assert.Equal(
			test,
			tt.expected,
			Parse(tt.pattern).Includes(Parse(tt.other)),
			tt.pattern+" includes "+tt.other,
		)
	}
	assert.False(test, UNKNOWN.Includes(JSON))
	assert.False(test, WILDCARD.Includes(UNKNOWN))
}

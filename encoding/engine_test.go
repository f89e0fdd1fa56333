package encoding_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/illuscio-dev/spanmarshal-go/encoding"
	"github.com/illuscio-dev/spanmarshal-go/httppart"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCreateEngineDefault(test *testing.T) {
	assert := assert.New(test)

	engine, err := encoding.NewContentEngine(false)
	assert.NoError(err)
	require.NotNil(test, engine)

	assert.True(engine.Handles(mimetype.JSON))
	assert.True(engine.Handles(mimetype.BSON))
	assert.True(engine.Handles(mimetype.TEXT))
	assert.True(engine.Handles(mimetype.Parse("text/json")))
	assert.False(engine.Handles(mimetype.HTML))
	assert.False(engine.Handles(mimetype.Parse("text/csv")))

	assert.False(engine.SniffType())
	assert.Equal(10, engine.Serializers().Len())
	assert.Equal(9, engine.Parsers().Len())
	assert.Equal("application/json", engine.Produces()[0].String())
	assert.Equal("application/json", engine.Consumes()[0].String())
}

func TestEngineLookups(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	serializer, mediaType, ok := engine.Serializer("application/yaml;q=0.5, text/uon;q=0.1")
	assert.True(ok)
	assert.IsType(&encoding.YAMLCodec{}, serializer)
	assert.Equal(mimetype.YAML, mediaType)

	_, _, ok = engine.Serializer("image/png")
	assert.False(ok)

	parser, ok := engine.Parser("application/x-yaml; charset=utf-8")
	assert.True(ok)
	assert.IsType(&encoding.YAMLCodec{}, parser)

	_, ok = engine.Parser("")
	assert.False(ok)
	_, ok = engine.Parser("text/html")
	assert.False(ok)
}

func TestEncodeNegotiation(test *testing.T) {
	engine := createEngine(test)

	tests := []struct {
		name     string
		accept   string
		expected string
	}{
		{"absent", "", "application/json;charset=utf-8"},
		{"wildcard", "*/*", "application/json;charset=utf-8"},
		{"quality", "application/json;q=0.2, application/yaml;q=0.8", "application/yaml;charset=utf-8"},
		{"shorthand subtype", "text/*", "text/json;charset=utf-8"},
		{"veto", "*/*, application/json;q=0", "text/json;charset=utf-8"},
		{"binary", "application/bson", "application/bson"},
	}

	for _, tt := range tests {
		test.Run(tt.name, func(test *testing.T) {
			mediaType, err := engine.Encode(accept(tt.accept), harry, &bytes.Buffer{})
			require.NoError(test, err)
			assert.Equal(test, tt.expected, mediaType.String())
		})
	}
}

func TestEncodeNilHeaders(test *testing.T) {
	engine := createEngine(test)

	buffer := &bytes.Buffer{}
	mediaType, err := engine.Encode(nil, harry, buffer)
	require.NoError(test, err)
	assert.Equal(test, "application/json;charset=utf-8", mediaType.String())
	assert.Contains(test, buffer.String(), `"First":"Harry"`)
}

func TestNotAcceptable(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	buffer := &bytes.Buffer{}
	_, err := engine.Encode(accept("image/png"), harry, buffer)

	assert.True(errors.Is(err, spanerrors.NotAcceptableError))
	assert.Zero(buffer.Len())

	var spanErr *spanerrors.SpanError
	require.True(test, errors.As(err, &spanErr))
	assert.Equal(406, spanErr.HttpCode())
	assert.Equal("image/png", spanErr.ErrorData["accept"])
	assert.Contains(spanErr.ErrorData["supported"], "application/json")
}

func TestUnsupportedMediaType(test *testing.T) {
	engine := createEngine(test)

	tests := []struct {
		name    string
		headers map[string]string
		message string
	}{
		{
			name:    "no parser",
			headers: map[string]string{"Content-Type": "text/csv"},
			message: "no parser for content type 'text/csv'",
		},
		{
			name:    "serializer only",
			headers: map[string]string{"Content-Type": "text/html"},
			message: "no parser for content type 'text/html'",
		},
		{
			name:    "full wildcard",
			headers: map[string]string{"Content-Type": "*/*"},
			message: "content type '*/*' is a media range",
		},
		{
			name:    "subtype wildcard",
			headers: map[string]string{"Content-Type": "application/*"},
			message: "content type 'application/*' is a media range",
		},
		{
			name:    "no sniffing",
			headers: map[string]string{},
			message: "mimetype is unknown and sniffing is disabled",
		},
		{
			name:    "unknown charset",
			headers: map[string]string{"Content-Type": "text/plain; charset=klingon"},
			message: "unsupported charset 'klingon'",
		},
	}

	for _, tt := range tests {
		test.Run(tt.name, func(test *testing.T) {
			header := headers()
			for key, value := range tt.headers {
				header.Set(key, value)
			}

			receiver := make(map[string]interface{})
			_, err := engine.Decode(header, &receiver, strings.NewReader("{}"))
			assert.True(test, errors.Is(err, spanerrors.UnsupportedMediaTypeError))
			assert.Contains(test, err.Error(), tt.message)
		})
	}
}

func TestDecodeParseError(test *testing.T) {
	engine := createEngine(test)

	loaded := Name{}
	mediaType, err := engine.Decode(
		contentType("application/json"), &loaded, strings.NewReader(`{"First": `),
	)

	assert.Equal(test, mimetype.JSON, mediaType)
	assert.True(test, errors.Is(err, spanerrors.ParseError))
}

func TestDecodeKeepsSchemaValidationError(test *testing.T) {
	engine := createEngine(test)
	schema := httppart.NewSchemaBuilder().
		Type(httppart.TypeInteger).
		Maximum(10, false).
		MustBuild()

	var loaded int64
	_, err := engine.Decode(
		contentType("text/openapi"),
		&loaded,
		strings.NewReader("42"),
		encoding.WithSchema(schema),
	)

	assert.True(test, errors.Is(err, spanerrors.SchemaValidationError))
	assert.True(test, errors.Is(err, httppart.ErrRange))
}

func TestTextWithoutContentType(test *testing.T) {
	engine := createEngine(test)

	loaded := ""
	mediaType, err := engine.Decode(nil, &loaded, strings.NewReader("Test String."))
	require.NoError(test, err)
	assert.Equal(test, mimetype.TEXT, mediaType)
	assert.Equal(test, "Test String.", loaded)
}

func TestSniffing(test *testing.T) {
	engine, err := encoding.NewContentEngine(true)
	require.NoError(test, err)
	assert.True(test, engine.SniffType())

	tests := []struct {
		name     string
		body     string
		expected mimetype.MediaType
	}{
		{"json", `{"First":"Harry","Last":"Potter"}`, mimetype.JSON},
		{"yaml", "first: Harry\nlast: Potter\n", mimetype.YAML},
	}

	for _, tt := range tests {
		test.Run(tt.name, func(test *testing.T) {
			loaded := Name{}
			mediaType, err := engine.Decode(headers(), &loaded, strings.NewReader(tt.body))
			require.NoError(test, err)
			assert.Equal(test, tt.expected, mediaType)
			assert.Equal(test, harry, loaded)
		})
	}
}

func TestSniffFails(test *testing.T) {
	registry := encoding.NewRegistry()
	parsers, err := encoding.NewParserGroupBuilder(registry).
		AppendFormat(encoding.FormatJSON, encoding.FormatXML).
		Build()
	require.NoError(test, err)

	engine := encoding.NewEngine(nil, parsers, encoding.WithSniffing(true))

	loaded := Name{}
	mediaType, err := engine.Decode(nil, &loaded, strings.NewReader("not a document"))

	assert.Equal(test, mimetype.UNKNOWN, mediaType)
	assert.True(test, errors.Is(err, spanerrors.ParseError))
	assert.Contains(test, err.Error(), "body could not be decoded by any parser")
}

func TestCodecPanics(test *testing.T) {
	assert := assert.New(test)

	serializers, err := encoding.NewSerializerGroupBuilder(encoding.NewRegistry()).
		Append(&PanickyCodec{}).
		Build()
	require.NoError(test, err)
	parsers, err := encoding.NewParserGroupBuilder(encoding.NewRegistry()).
		Append(&PanickyCodec{}).
		Build()
	require.NoError(test, err)

	engine := encoding.NewEngine(serializers, parsers)

	_, err = engine.Encode(accept("text/csv"), "data", &bytes.Buffer{})
	assert.EqualError(err, "encode err: panic during encode: encode panicked")

	var receiver interface{}
	_, err = engine.Decode(contentType("text/csv"), &receiver, &bytes.Buffer{})
	assert.True(errors.Is(err, spanerrors.ParseError))
	assert.Contains(err.Error(), "decode err: panic during decode: decode panicked")
}

func TestCodecSpanErrorPanics(test *testing.T) {
	assert := assert.New(test)

	core, logs := observer.New(zap.DebugLevel)

	serializers, err := encoding.NewSerializerGroupBuilder(encoding.NewRegistry()).
		Append(&SpanPanicCodec{}).
		Build()
	require.NoError(test, err)
	parsers, err := encoding.NewParserGroupBuilder(encoding.NewRegistry()).
		Append(&SpanPanicCodec{}).
		Build()
	require.NoError(test, err)

	engine := encoding.NewEngine(
		serializers, parsers, encoding.WithDebug(true), encoding.WithLogger(zap.New(core)),
	)

	_, err = engine.Encode(accept("text/csv"), "data", &bytes.Buffer{})
	assert.True(errors.Is(err, spanerrors.ResponseValidationError))
	assert.EqualError(err, "ResponseValidationError (1005) - row 2 has no id")

	var receiver interface{}
	_, err = engine.Decode(contentType("text/csv"), &receiver, &bytes.Buffer{})
	assert.True(errors.Is(err, spanerrors.RequestValidationError))
	assert.False(errors.Is(err, spanerrors.ParseError))

	failures := logs.FilterMessageSnippet("failed").All()
	require.Len(test, failures, 2)
	assert.Contains(failures[0].ContextMap()["detail"], "PANIC STACK")
	assert.Contains(failures[1].ContextMap()["detail"], "RequestValidationError (1003)")
}

func TestClosesReader(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	buffer := &bytes.Buffer{}
	_, err := engine.Encode(accept("application/json"), harry, buffer)
	require.NoError(test, err)

	closer := &TestCloser{Buffer: buffer}
	assert.False(closer.Closed)

	loaded := &Name{}
	_, err = engine.Decode(contentType("application/json"), loaded, closer)
	require.NoError(test, err)

	assert.True(closer.Closed)
	assert.Equal(harry, *loaded)
}

func TestCharsetTranscoding(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	buffer := &bytes.Buffer{}
	mediaType, err := engine.Encode(
		headers("Accept", "text/plain", "Accept-Charset", "iso-8859-1, utf-8;q=0.5"),
		"café",
		buffer,
	)
	require.NoError(test, err)
	assert.Equal("text/plain;charset=iso-8859-1", mediaType.String())
	assert.Equal([]byte("caf\xe9"), buffer.Bytes())

	loaded := ""
	_, err = engine.Decode(contentType(mediaType.String()), &loaded, buffer)
	require.NoError(test, err)
	assert.Equal("café", loaded)
}

func TestCharsetFallback(test *testing.T) {
	engine := createEngine(test, encoding.WithDefaultCharset("UTF-8"))

	tests := []struct {
		name          string
		acceptCharset string
		expected      string
	}{
		{"absent", "", "text/plain;charset=utf-8"},
		{"unknown", "klingon", "text/plain;charset=utf-8"},
		{"wildcard", "*", "text/plain;charset=utf-8"},
		{"preferred", "utf-16le;q=0.1, windows-1252", "text/plain;charset=windows-1252"},
	}

	for _, tt := range tests {
		test.Run(tt.name, func(test *testing.T) {
			mediaType, err := engine.Encode(
				headers("Accept", "text/plain", "Accept-Charset", tt.acceptCharset),
				"hello",
				&bytes.Buffer{},
			)
			require.NoError(test, err)
			assert.Equal(test, tt.expected, mediaType.String())
		})
	}
}

func TestLocaleNegotiation(test *testing.T) {
	assert := assert.New(test)

	codec := newFakeCodec("csv", "text/csv")
	serializers, err := encoding.NewSerializerGroupBuilder(encoding.NewRegistry()).
		Append(codec).
		Build()
	require.NoError(test, err)
	engine := encoding.NewEngine(serializers, nil)

	_, err = engine.Encode(
		headers("Accept", "text/csv", "Accept-Language", "fr;q=0.4, de-CH, *;q=0.1"),
		"data",
		&bytes.Buffer{},
	)
	require.NoError(test, err)
	assert.Equal("de-ch", codec.lastLocale)

	_, err = engine.Encode(
		headers("Accept", "text/csv", "Accept-Language", "de"),
		"data",
		&bytes.Buffer{},
		encoding.WithLocale("en-GB"),
	)
	require.NoError(test, err)
	assert.Equal("en-GB", codec.lastLocale)
}

func TestEngineConcurrentUse(test *testing.T) {
	engine := createEngine(test)
	formats := []string{"application/json", "application/yaml", "application/bson", "text/xml"}

	waitGroup := sync.WaitGroup{}
	failures := make(chan error, 64)

	for index := 0; index < 32; index++ {
		waitGroup.Add(1)
		go func(index int) {
			defer waitGroup.Done()

			name := Name{First: fmt.Sprint("Harry", index), Last: "Potter"}
			buffer := &bytes.Buffer{}
			mediaType, err := engine.Encode(accept(formats[index%len(formats)]), name, buffer)
			if err != nil {
				failures <- err
				return
			}

			loaded := Name{}
			if _, err := engine.Decode(contentType(mediaType.String()), &loaded, buffer); err != nil {
				failures <- err
				return
			}
			if loaded != name {
				failures <- fmt.Errorf("got %v, want %v", loaded, name)
			}
		}(index)
	}

	waitGroup.Wait()
	close(failures)
	for err := range failures {
		test.Error(err)
	}
}

package encoding_test

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/illuscio-dev/spanmarshal-go/encoding"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

type Name struct {
	First string
	Last  string
}

var harry = Name{First: "Harry", Last: "Potter"}

// A codec writing its tag, used to observe which codec a group picked.
type fakeCodec struct {
	tag        string
	mediaTypes []mimetype.MediaType

	lastLocale string
}

func newFakeCodec(tag string, mediaTypes ...string) *fakeCodec {
	codec := &fakeCodec{tag: tag}
	for _, mediaType := range mediaTypes {
		codec.mediaTypes = append(codec.mediaTypes, mimetype.Parse(mediaType))
	}
	return codec
}

func (codec *fakeCodec) MediaTypes() []mimetype.MediaType {
	return codec.mediaTypes
}

func (codec *fakeCodec) Serialize(
	session *encoding.SerializerSession, writer io.Writer, content interface{},
) error {
	codec.lastLocale = session.Locale
	_, err := io.WriteString(writer, codec.tag)
	return err
}

func (codec *fakeCodec) Parse(
	session *encoding.ParserSession, reader io.Reader, receiver interface{},
) error {
	codec.lastLocale = session.Locale
	text, ok := receiver.(*string)
	if !ok {
		return xerrors.New("fake codec only parses strings")
	}
	*text = codec.tag
	return nil
}

type overridingCodec struct {
	*fakeCodec
}

func (codec overridingCodec) OverridesPrimary() bool {
	return true
}

type PanickyCodec struct{}

func (codec *PanickyCodec) MediaTypes() []mimetype.MediaType {
	return []mimetype.MediaType{mimetype.Parse("text/csv")}
}

func (codec *PanickyCodec) Serialize(
	session *encoding.SerializerSession, writer io.Writer, content interface{},
) error {
	panic(xerrors.New("encode panicked"))
}

func (codec *PanickyCodec) Parse(
	session *encoding.ParserSession, reader io.Reader, receiver interface{},
) error {
	panic(xerrors.New("decode panicked"))
}

// Aborts with a typed span error instead of returning it.
type SpanPanicCodec struct{}

func (codec *SpanPanicCodec) MediaTypes() []mimetype.MediaType {
	return []mimetype.MediaType{mimetype.Parse("text/csv")}
}

func (codec *SpanPanicCodec) Serialize(
	session *encoding.SerializerSession, writer io.Writer, content interface{},
) error {
	spanerrors.ResponseValidationError.Panic("row 2 has no id", nil, nil)
	return nil
}

func (codec *SpanPanicCodec) Parse(
	session *encoding.ParserSession, reader io.Reader, receiver interface{},
) error {
	spanerrors.RequestValidationError.Panic("row 2 has no id", nil, nil)
	return nil
}

type TestCloser struct {
	Buffer *bytes.Buffer
	Closed bool
}

func (closer *TestCloser) Read(p []byte) (n int, err error) {
	return closer.Buffer.Read(p)
}

func (closer *TestCloser) Close() error {
	closer.Closed = true
	return nil
}

func createEngine(test *testing.T, options ...encoding.EngineOption) *encoding.Engine {
	engine, err := encoding.NewContentEngine(false, options...)
	require.NoError(test, err)
	return engine
}

func headers(keyValues ...string) http.Header {
	header := http.Header{}
	for index := 0; index+1 < len(keyValues); index += 2 {
		header.Set(keyValues[index], keyValues[index+1])
	}
	return header
}

func accept(value string) http.Header {
	return headers("Accept", value)
}

func contentType(value string) http.Header {
	return headers("Content-Type", value)
}

// Encodes content for accept and decodes the result into receiver with the returned
// content type.
func roundTrip(
	test *testing.T,
	engine *encoding.Engine,
	acceptValue string,
	content interface{},
	receiver interface{},
	options ...encoding.SessionOption,
) (mimetype.MediaType, []byte) {
	buffer := &bytes.Buffer{}
	mediaType, err := engine.Encode(accept(acceptValue), content, buffer, options...)
	require.NoError(test, err)

	encoded := append([]byte(nil), buffer.Bytes()...)
	_, err = engine.Decode(contentType(mediaType.String()), receiver, buffer, options...)
	require.NoError(test, err)
	return mediaType, encoded
}

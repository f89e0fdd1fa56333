package encoding

import (
	"io"

	"github.com/illuscio-dev/spanmarshal-go/httppart"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"go.uber.org/zap"
)

// Codec is a body format. Codecs are created once and shared between requests, so
// they must not hold per-request state.
type Codec interface {
	// Media types the codec handles. The first one is its primary media type, the one
	// written as Content-Type and used to detect duplicate codecs in a group.
	MediaTypes() []mimetype.MediaType
}

// Serializer writes content to a body.
type Serializer interface {
	Codec
	Serialize(session *SerializerSession, writer io.Writer, content interface{}) error
}

// Parser reads a body into receiver, which must be a pointer.
type Parser interface {
	Codec
	Parse(session *ParserSession, reader io.Reader, receiver interface{}) error
}

// Overrider codecs replace a codec of another type that shares their primary media
// type, instead of being rejected as a duplicate.
type Overrider interface {
	OverridesPrimary() bool
}

// Binary codecs write bytes that are not text, so no charset is negotiated for them.
type Binary interface {
	Binary() bool
}

// Session state shared by serializers and parsers. Sessions are allocated per call.
type session struct {
	// The negotiated media type, including parameters sent by the client.
	MediaType mimetype.MediaType
	// Charset the body is transcoded to or from. Codecs always see UTF-8.
	Charset string
	// Preferred language of the caller, "" when none was given.
	Locale string
	Debug  bool
	Logger *zap.Logger
	// Schema of the body for part-based formats such as text/openapi. nil is untyped.
	Schema *httppart.PartSchema
}

// SerializerSession holds the state of one serialization.
type SerializerSession struct {
	session
	Parts *httppart.Serializer
}

// ParserSession holds the state of one parse.
type ParserSession struct {
	session
	Parts *httppart.Parser
}

// SessionOption tunes a single Encode or Decode call.
type SessionOption func(session *session)

// WithSchema sets the part schema used by the text/openapi codec.
func WithSchema(schema *httppart.PartSchema) SessionOption {
	return func(session *session) {
		session.Schema = schema
	}
}

// WithLocale overrides the locale negotiated from the request headers.
func WithLocale(locale string) SessionOption {
	return func(session *session) {
		session.Locale = locale
	}
}

func isBinary(codec Codec) bool {
	binary, ok := codec.(Binary)
	return ok && binary.Binary()
}

func overridesPrimary(codec Codec) bool {
	overrider, ok := codec.(Overrider)
	return ok && overrider.OverridesPrimary()
}

func primaryMediaType(codec Codec) (mimetype.MediaType, bool) {
	mediaTypes := codec.MediaTypes()
	if len(mediaTypes) == 0 {
		return mimetype.UNKNOWN, false
	}
	return mediaTypes[0], true
}

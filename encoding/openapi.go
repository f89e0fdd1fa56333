package encoding

import (
	"io"

	"github.com/illuscio-dev/spanmarshal-go/httppart"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
)

// OpenAPICodec writes a body the way an HTTP part of the session's schema would be
// written, and parses it back. Without a schema the body is untyped.
type OpenAPICodec struct{}

func NewOpenAPICodec() *OpenAPICodec {
	return &OpenAPICodec{}
}

func (openAPICodec *OpenAPICodec) MediaTypes() []mimetype.MediaType {
	return []mimetype.MediaType{mimetype.OPENAPI}
}

func (openAPICodec *OpenAPICodec) Serialize(
	session *SerializerSession, writer io.Writer, content interface{},
) error {
	parts := session.Parts
	if parts == nil {
		parts = httppart.NewSerializer()
	}

	text, err := parts.Serialize(session.Schema, content)
	if err != nil {
		return err
	}
	_, err = io.WriteString(writer, text)
	return err
}

func (openAPICodec *OpenAPICodec) Parse(
	session *ParserSession, reader io.Reader, receiver interface{},
) error {
	parts := session.Parts
	if parts == nil {
		parts = httppart.NewParser()
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	text := string(data)
	return parts.Parse(session.Schema, &text, receiver)
}

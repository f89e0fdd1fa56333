package encoding

import (
	"bytes"
	"fmt"
	"io"

	"github.com/illuscio-dev/spanmarshal-go/httppart"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	"github.com/illuscio-dev/spanmarshal-go/uon"
)

// TextCodec handles encoding to / decoding from text/plain. Maps and lists are
// written as UON; anything else goes through fmt.Sprint, so any type can be sent and
// represented as text.
type TextCodec struct{}

func NewTextCodec() *TextCodec {
	return &TextCodec{}
}

func (handler *TextCodec) MediaTypes() []mimetype.MediaType {
	return []mimetype.MediaType{mimetype.TEXT}
}

func (handler *TextCodec) Serialize(
	session *SerializerSession, writer io.Writer, content interface{},
) error {
	var contentString string

	switch value := spantypes.Indirect(content).(type) {
	case nil:
		contentString = ""
	case string:
		contentString = value
	case []byte:
		_, err := writer.Write(value)
		return err
	default:
		if spantypes.IsMap(value) || spantypes.IsList(value) {
			marshalled, err := uon.Marshal(value)
			if err != nil {
				return err
			}
			contentString = marshalled
		} else {
			contentString = fmt.Sprint(value)
		}
	}

	_, err := io.WriteString(writer, contentString)
	return err
}

// Parse stores the body in a *string, *[]byte or *interface{} receiver. Other
// receivers get the text converted like a part value, so "42" fills an *int.
func (handler *TextCodec) Parse(
	session *ParserSession, reader io.Reader, receiver interface{},
) error {
	buffer := new(bytes.Buffer)
	if _, err := buffer.ReadFrom(reader); err != nil {
		return err
	}

	switch typed := receiver.(type) {
	case *string:
		*typed = buffer.String()
		return nil
	case *[]byte:
		*typed = buffer.Bytes()
		return nil
	case *interface{}:
		*typed = buffer.String()
		return nil
	}

	return httppart.Store(buffer.String(), receiver)
}

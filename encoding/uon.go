package encoding

import (
	"io"
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/uon"
)

// UONCodec reads and writes text/uon bodies.
type UONCodec struct{}

func NewUONCodec() *UONCodec {
	return &UONCodec{}
}

func (uonCodec *UONCodec) MediaTypes() []mimetype.MediaType {
	return []mimetype.MediaType{mimetype.UON}
}

func (uonCodec *UONCodec) Serialize(
	session *SerializerSession, writer io.Writer, content interface{},
) error {
	text, err := uon.Marshal(content)
	if err != nil {
		return err
	}
	_, err = io.WriteString(writer, text)
	return err
}

func (uonCodec *UONCodec) Parse(
	session *ParserSession, reader io.Reader, receiver interface{},
) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	decoded, err := uon.Unmarshal(strings.TrimSpace(string(data)))
	if err != nil {
		return err
	}
	return storeStructured(decoded, receiver)
}

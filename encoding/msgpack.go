package encoding

import (
	"io"
	"reflect"

	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/ugorji/go/codec"
)

// MsgpackCodec reads and writes MessagePack through ugorji's MsgpackHandle. Strings
// are written with the str8 extension types and read back as strings, not []byte.
type MsgpackCodec struct {
	handle *codec.MsgpackHandle
}

func NewMsgpackCodec() *MsgpackCodec {
	handle := &codec.MsgpackHandle{}
	handle.WriteExt = true
	handle.RawToString = true
	handle.MapType = reflect.TypeOf(map[string]interface{}(nil))
	handle.SignedInteger = true
	return &MsgpackCodec{handle: handle}
}

func (msgpackCodec *MsgpackCodec) MediaTypes() []mimetype.MediaType {
	return []mimetype.MediaType{
		mimetype.MSGPACK,
		mimetype.Parse("application/x-msgpack"),
		mimetype.Parse("octal/msgpack"),
	}
}

func (msgpackCodec *MsgpackCodec) Binary() bool {
	return true
}

// Handle exposes the MsgpackHandle so callers can register extensions before first
// use.
func (msgpackCodec *MsgpackCodec) Handle() *codec.MsgpackHandle {
	return msgpackCodec.handle
}

func (msgpackCodec *MsgpackCodec) Serialize(
	session *SerializerSession, writer io.Writer, content interface{},
) error {
	encoder := codec.NewEncoder(writer, msgpackCodec.handle)
	return encoder.Encode(orderedContent(content, pairsFromEntries))
}

func (msgpackCodec *MsgpackCodec) Parse(
	session *ParserSession, reader io.Reader, receiver interface{},
) error {
	decoder := codec.NewDecoder(reader, msgpackCodec.handle)
	if !isStructuredReceiver(receiver) {
		return decoder.Decode(receiver)
	}

	var decoded interface{}
	if err := decoder.Decode(&decoded); err != nil {
		return err
	}
	return storeStructured(decoded, receiver)
}

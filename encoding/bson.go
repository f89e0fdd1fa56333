package encoding

import (
	"bufio"
	"bytes"
	"io"
	"reflect"

	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	uuid "github.com/satori/go.uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"golang.org/x/xerrors"
)

// BsonListSepString is a delimiter for top-level bson lists, which bson does not not
// normally support. When multiple documents are being sent in a single payload, the
// unicode SYMBOL FOR RECORD SEPARATOR is used.
// (http://fileformat.info/info/unicode/char/241e/index.htm)
const BsonListSepString = "\u241E"

// BsonListSepBytes is a byte representation of BsonListSepString.
var BsonListSepBytes = []byte(BsonListSepString)

// split function used to separate the bson records.
func splitBsonFunc(data []byte, atEOF bool) (advance int, token []byte, err error) {

	// Return nothing if at end of file and no data passed
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	// Find the index of a separator
	if i := bytes.Index(data, BsonListSepBytes); i >= 0 {
		return i + len(BsonListSepBytes), data[0:i], nil
	}

	// If at end of file with data return the data
	if atEOF {
		return len(data), data, nil
	}

	return advance, token, err
}

// BsonCodecOpts holds options for registering new BSON value codecs.
type BsonCodecOpts struct {
	// Type this codec handles encoding / decoding to.
	ValueType reflect.Type

	// Codec to register for this type.
	Codec bsoncodec.ValueCodec
}

var defaultBsonCodecs = []*BsonCodecOpts{
	{
		ValueType: reflect.TypeOf(uuid.UUID{}),
		Codec:     bsonCodecUUID{},
	},
	{
		ValueType: reflect.TypeOf(spantypes.BinData{}),
		Codec:     bsonCodecBinData{},
	},
}

func newBSONRegistry(codecs []*BsonCodecOpts) *bsoncodec.Registry {
	builder := bsoncodec.NewRegistryBuilder()
	bsoncodec.DefaultValueEncoders{}.RegisterDefaultEncoders(builder)
	bsoncodec.DefaultValueDecoders{}.RegisterDefaultDecoders(builder)

	for _, codecOpts := range codecs {
		builder.RegisterCodec(codecOpts.ValueType, codecOpts.Codec)
	}

	return builder.Build()
}

// bsonCodecUUID Handles encoding and decoding of UUID to and from bson.
type bsonCodecUUID struct{}

// Encodes uuid value to bson.
func (codec bsonCodecUUID) EncodeValue(
	encodeCTX bsoncodec.EncodeContext,
	valueWriter bsonrw.ValueWriter,
	value reflect.Value,
) error {
	valueUUID, _ := value.Interface().(uuid.UUID)
	return valueWriter.WriteBinaryWithSubtype(valueUUID.Bytes(), 0x3)
}

// Decodes uuid value from bson.
func (codec bsonCodecUUID) DecodeValue(
	decodeCTX bsoncodec.DecodeContext,
	valueReader bsonrw.ValueReader,
	value reflect.Value,
) error {
	bytesUUID, _, err := valueReader.ReadBinary()
	if err != nil {
		return err
	}

	uuidVal, err := uuid.FromBytes(bytesUUID)
	if err != nil {
		return err
	}

	value.Set(reflect.ValueOf(uuidVal))

	return nil
}

// bsonCodecBinData handles spantypes.BinData as generic (0x0) binary.
type bsonCodecBinData struct{}

func (codec bsonCodecBinData) EncodeValue(
	encodeCTX bsoncodec.EncodeContext,
	valueWriter bsonrw.ValueWriter,
	value reflect.Value,
) error {
	if value.IsNil() {
		return valueWriter.WriteNull()
	}
	return valueWriter.WriteBinaryWithSubtype(value.Bytes(), 0x0)
}

func (codec bsonCodecBinData) DecodeValue(
	decodeCTX bsoncodec.DecodeContext,
	valueReader bsonrw.ValueReader,
	value reflect.Value,
) error {
	if valueReader.Type() == bsontype.Null {
		value.Set(reflect.Zero(value.Type()))
		return valueReader.ReadNull()
	}

	data, subtype, err := valueReader.ReadBinary()
	if err != nil {
		return err
	}
	if subtype != 0x0 {
		return xerrors.Errorf("cannot decode binary subtype %#x into BinData", subtype)
	}

	value.SetBytes(append([]byte(nil), data...))
	return nil
}

var (
	bsonDocumentType = reflect.TypeOf(bson.D{})
	bsonRawType      = reflect.TypeOf(bson.Raw{})
)

func documentFromEntries(entries []spantypes.Entry) interface{} {
	document := make(bson.D, 0, len(entries))
	for _, entry := range entries {
		document = append(document, bson.E{Key: entry.Key, Value: entry.Value})
	}
	return document
}

/*
BSONCodec reads and writes application/bson through the official mongo driver.

The following type extensions ship with the codec:

• primitive.Binary of subtype 0x3 can be decoded to / encoded from UUID objects from
"github.com/satori/go.uuid".

• primitive.Binary of subtype 0x0 can be decoded to / encoded from the BinData named
type of []byte in the "spantypes" module.

Lists of documents are written one after the other, separated by BsonListSepString,
and read back the same way into slice receivers.
*/
type BSONCodec struct {
	registry *bsoncodec.Registry
}

// NewBSONCodec returns a codec using the default value codecs plus codecs.
func NewBSONCodec(codecs ...*BsonCodecOpts) *BSONCodec {
	all := make([]*BsonCodecOpts, 0, len(defaultBsonCodecs)+len(codecs))
	all = append(all, defaultBsonCodecs...)
	all = append(all, codecs...)
	return &BSONCodec{registry: newBSONRegistry(all)}
}

func (bsonCodec *BSONCodec) MediaTypes() []mimetype.MediaType {
	return []mimetype.MediaType{mimetype.BSON}
}

func (bsonCodec *BSONCodec) Binary() bool {
	return true
}

// Registry returns the bsoncodec.Registry used by the codec.
func (bsonCodec *BSONCodec) Registry() *bsoncodec.Registry {
	return bsonCodec.registry
}

func (bsonCodec *BSONCodec) encodeSingle(writer io.Writer, content interface{}) error {
	var bodyBSON bson.Raw

	switch incoming := content.(type) {
	case *bson.Raw:
		bodyBSON = *incoming
	case bson.Raw:
		bodyBSON = incoming
	default:
		marshalled, err := bson.MarshalWithRegistry(
			bsonCodec.registry, orderedContent(content, documentFromEntries),
		)
		if err != nil {
			return err
		}
		bodyBSON = marshalled
	}

	_, err := writer.Write(bodyBSON)
	return err
}

// Used to encode multiple bson objects to s single payload.
func (bsonCodec *BSONCodec) encodeMany(writer io.Writer, content reflect.Value) error {
	// We need to know when we are on the final index so if we hit the last item we
	// know that we don't need to write the separator.
	finalIndex := content.Len() - 1

	for arrayIndex := 0; arrayIndex <= finalIndex; arrayIndex++ {
		err := bsonCodec.encodeSingle(writer, content.Index(arrayIndex).Interface())
		if err != nil {
			return xerrors.Errorf("document %v: %w", arrayIndex, err)
		}

		if arrayIndex != finalIndex {
			_, err = writer.Write(BsonListSepBytes)
			if err != nil {
				return xerrors.Errorf(
					"error writing document separator: %w", err,
				)
			}
		}
	}
	return nil
}

// Detects whether a value is a list of documents rather than a single document.
// bson.D and bson.Raw are slices but hold a single document.
func isSequence(value reflect.Value) bool {
	if value.Kind() != reflect.Slice && value.Kind() != reflect.Array {
		return false
	}
	switch value.Type() {
	case bsonDocumentType, bsonRawType:
		return false
	}
	return value.Type().Elem().Kind() != reflect.Uint8
}

func (bsonCodec *BSONCodec) Serialize(
	session *SerializerSession, writer io.Writer, content interface{},
) error {
	contentValue := reflect.Indirect(reflect.ValueOf(content))
	if contentValue.IsValid() && isSequence(contentValue) {
		return bsonCodec.encodeMany(writer, contentValue)
	}
	return bsonCodec.encodeSingle(writer, content)
}

// Decodes a single bson document
func (bsonCodec *BSONCodec) decodeSingle(reader io.Reader, receiver interface{}) error {
	document, err := bson.NewFromIOReader(reader)
	if err != nil {
		return err
	}

	if !isStructuredReceiver(receiver) {
		return bson.UnmarshalWithRegistry(bsonCodec.registry, document, receiver)
	}

	ordered := bson.D{}
	if err := bson.UnmarshalWithRegistry(bsonCodec.registry, document, &ordered); err != nil {
		return err
	}
	return storeStructured(ordered, receiver)
}

// Decodes multiple bson elements.
func (bsonCodec *BSONCodec) decodeMany(reader io.Reader, receiver interface{}) error {
	slicePointer := reflect.ValueOf(receiver)
	if slicePointer.Kind() != reflect.Ptr {
		return xerrors.New("slice receiver must be pointer")
	}
	sliceValue := slicePointer.Elem()
	if sliceValue.Kind() != reflect.Slice {
		return xerrors.Errorf("cannot decode a document list into %v", sliceValue.Type())
	}

	// Get the element type for the slice.
	elementType := sliceValue.Type().Elem()
	docScanner := bufio.NewScanner(reader)
	docScanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxDocumentSize)
	docScanner.Split(splitBsonFunc)

	// Iterate through documents.
	for docScanner.Scan() {
		docBuff := bytes.NewBuffer(docScanner.Bytes())
		newElement := reflect.New(elementType)

		err := bsonCodec.decodeSingle(docBuff, newElement.Interface())
		if err != nil {
			return err
		}

		sliceValue.Set(reflect.Append(sliceValue, newElement.Elem()))
	}

	return docScanner.Err()
}

// Largest document the mongo driver accepts, plus room for a separator.
const maxDocumentSize = 16*1024*1024 + 3

// Decodes every document of the body into a list of structured values.
func (bsonCodec *BSONCodec) decodeStructuredList(reader io.Reader, receiver interface{}) error {
	documents := make([]interface{}, 0)
	if err := bsonCodec.decodeMany(reader, &documents); err != nil {
		return err
	}
	if len(documents) == 1 {
		return storeStructured(documents[0], receiver)
	}
	return storeStructured(documents, receiver)
}

func (bsonCodec *BSONCodec) Parse(
	session *ParserSession, reader io.Reader, receiver interface{},
) error {
	if _, ok := receiver.(*interface{}); ok {
		return bsonCodec.decodeStructuredList(reader, receiver)
	}

	// If the receiver is a slice or array, we need to decode multiple documents.
	receiverValue := reflect.Indirect(reflect.ValueOf(receiver))
	if receiverValue.IsValid() && isSequence(receiverValue) {
		return bsonCodec.decodeMany(reader, receiver)
	}
	return bsonCodec.decodeSingle(reader, receiver)
}

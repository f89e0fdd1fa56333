package encoding

import (
	"io"
	"reflect"

	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	uuid "github.com/satori/go.uuid"
	"github.com/ugorji/go/codec"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/xerrors"
)

// JSONExtensionOpts holds options For Json Handle extension to add to the handle on
// codec setup.
type JSONExtensionOpts struct {
	ValueType    reflect.Type
	ExtInterface codec.InterfaceExt
}

// defaultJSONExtensions holds all the JSONExtensionOpts to add to the JSONHandle on
// codec setup.
var defaultJSONExtensions = []*JSONExtensionOpts{
	{
		ValueType:    reflect.TypeOf(primitive.Binary{}),
		ExtInterface: &jsonExtBsonBinary{},
	},
}

// Converts BSON binary fields to json. Currently supports Binary blobs and UUIDs.
type jsonExtBsonBinary struct{}

func (ext *jsonExtBsonBinary) ConvertExt(value interface{}) interface{} {
	var valueBin primitive.Binary
	switch typed := value.(type) {
	case *primitive.Binary:
		valueBin = *typed
	case primitive.Binary:
		valueBin = typed
	}

	if valueBin.Subtype == 0x3 {
		valueUUID, err := uuid.FromBytes(valueBin.Data)
		if err != nil {
			panic(xerrors.Errorf("Error converting bson uuid: %w", err))
		}
		return valueUUID
	}

	if valueBin.Subtype == 0x0 {
		return spantypes.BinData(valueBin.Data)
	}

	panic(xerrors.New("unsupported Binary BSON format"))
}

func (ext *jsonExtBsonBinary) UpdateExt(dest interface{}, value interface{}) {
	panic(
		xerrors.New(
			"decoding to bson binary field not supported -- " +
				"use uuid or BinData type as intermediary",
		),
	)
}

// Converts BSON Raw document to json object.
type jsonExtBsonRaw struct {
	bsonRegistry *bsoncodec.Registry
}

func (ext *jsonExtBsonRaw) ConvertExt(value interface{}) interface{} {
	var valueRaw bson.Raw
	switch typed := value.(type) {
	case *bson.Raw:
		valueRaw = *typed
	case bson.Raw:
		valueRaw = typed
	}

	if len(valueRaw) == 0 {
		return orderedPairs{}
	}

	document := bson.D{}
	err := bson.UnmarshalWithRegistry(ext.bsonRegistry, valueRaw, &document)
	if err != nil {
		panic(xerrors.Errorf(
			"error while unmarshalling bson for encoding: %w", err,
		))
	}

	return withOrderedMaps(toStructured(document), pairsFromEntries)
}

func (ext *jsonExtBsonRaw) UpdateExt(dest interface{}, value interface{}) {
	panic(xerrors.New("Decoding to BSON raw field not supported"))
}

// orderedPairs is encoded by ugorji as a map of alternating keys and values.
type orderedPairs []interface{}

func (pairs orderedPairs) MapBySlice() {}

func pairsFromEntries(entries []spantypes.Entry) interface{} {
	pairs := make(orderedPairs, 0, 2*len(entries))
	for _, entry := range entries {
		pairs = append(pairs, entry.Key, entry.Value)
	}
	return pairs
}

// Returns the value ugorji should encode, with ObjectMaps turned into orderedPairs.
func orderedContent(content interface{}, build orderedBuilder) interface{} {
	switch indirect := spantypes.Indirect(content).(type) {
	case *spantypes.ObjectMap, spantypes.ObjectMap, []interface{}, map[string]interface{}:
		return withOrderedMaps(indirect, build)
	}
	return content
}

/*
JSONCodec reads and writes application/json through ugorji's JsonHandle.

Default JSON Extensions

• UUIDs from "github.com/satori/go.uuid" are written as strings.

• BSON primitive.Binary data is written as a uuid string for the 0x3 subtype and as
BinData for the 0x0 subtype. Other subtypes are not supported and will panic.

• BSON raw is converted to an ordered map and THEN encoded to a json object.

Additional extensions can be registered with AddExtensions before the codec is used.

Decoding into *interface{} or *spantypes.ObjectMap yields the structured model of the
spantypes package. Object keys are sorted since JSON objects carry no order.
*/
type JSONCodec struct {
	handle       *codec.JsonHandle
	bsonRegistry *bsoncodec.Registry
}

// NewJSONCodec returns a codec with the default extensions registered.
func NewJSONCodec() *JSONCodec {
	handle := &codec.JsonHandle{}
	handle.MapType = reflect.TypeOf(map[string]interface{}(nil))
	handle.SignedInteger = true

	jsonCodec := &JSONCodec{
		handle:       handle,
		bsonRegistry: newBSONRegistry(defaultBsonCodecs),
	}

	// Neither default extension can fail to register on a fresh handle.
	if err := jsonCodec.AddExtensions(defaultJSONExtensions); err != nil {
		panic(xerrors.Errorf("error adding default json extensions: %w", err))
	}
	if err := jsonCodec.handle.SetInterfaceExt(
		reflect.TypeOf(bson.Raw{}), 1, &jsonExtBsonRaw{jsonCodec.bsonRegistry},
	); err != nil {
		panic(xerrors.Errorf("error building bson extension for json handle: %w", err))
	}

	return jsonCodec
}

func (jsonCodec *JSONCodec) MediaTypes() []mimetype.MediaType {
	return []mimetype.MediaType{mimetype.JSON, mimetype.Parse("text/json")}
}

// Handle exposes the JsonHandle so callers can tune it before first use.
func (jsonCodec *JSONCodec) Handle() *codec.JsonHandle {
	return jsonCodec.handle
}

// AddExtensions adds JSON extensions to the handle.
func (jsonCodec *JSONCodec) AddExtensions(extensions []*JSONExtensionOpts) error {
	for _, extOpts := range extensions {
		err := jsonCodec.handle.SetInterfaceExt(
			extOpts.ValueType, 1, extOpts.ExtInterface,
		)
		if err != nil {
			return xerrors.Errorf(
				"error adding json extension to codec: %w", err,
			)
		}
	}
	return nil
}

func (jsonCodec *JSONCodec) Serialize(
	session *SerializerSession, writer io.Writer, content interface{},
) error {
	encoder := codec.NewEncoder(writer, jsonCodec.handle)
	return encoder.Encode(orderedContent(content, pairsFromEntries))
}

func (jsonCodec *JSONCodec) Parse(
	session *ParserSession, reader io.Reader, receiver interface{},
) error {
	decoder := codec.NewDecoder(reader, jsonCodec.handle)
	if !isStructuredReceiver(receiver) {
		return decoder.Decode(receiver)
	}

	var decoded interface{}
	if err := decoder.Decode(&decoded); err != nil {
		return err
	}
	return storeStructured(decoded, receiver)
}
